// Package db provides SQLite persistence for tint: a token graph snapshot
// store and an append-only change-event log.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite handle.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the database at path.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	handle, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if err := handle.Ping(); err != nil {
		handle.Close()
		return nil, fmt.Errorf("ping database %s: %w", path, err)
	}
	return &DB{DB: handle}, nil
}

// OpenInMemory opens an in-memory database, used by tests.
func OpenInMemory() (*DB, error) {
	handle, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory database: %w", err)
	}
	return &DB{DB: handle}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS tokens (
	id   TEXT PRIMARY KEY,
	path TEXT NOT NULL UNIQUE,
	kind TEXT NOT NULL,
	raw  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS families (
	idx   INTEGER PRIMARY KEY,
	alias TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS overrides (
	path  TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pairs (
	id            TEXT PRIMARY KEY,
	foreground    TEXT NOT NULL,
	background    TEXT NOT NULL,
	minimum_ratio REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id            TEXT PRIMARY KEY,
	timestamp     TEXT NOT NULL,
	type          TEXT NOT NULL,
	entity_type   TEXT NOT NULL,
	entity_id     TEXT NOT NULL,
	payload_json  TEXT,
	metadata_json TEXT
);

CREATE INDEX IF NOT EXISTS idx_events_entity ON events(entity_type, entity_id, timestamp);
`

// MigrateUp creates the schema.
func (d *DB) MigrateUp(ctx context.Context) error {
	if _, err := d.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
