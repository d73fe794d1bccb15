package db

import (
	"context"
	"fmt"

	"github.com/opencode-ai/tint/internal/models"
	"github.com/opencode-ai/tint/internal/persist"
)

// GraphStore persists token-graph snapshots. It implements persist.Port;
// Save replaces the previous snapshot wholesale inside one transaction.
type GraphStore struct {
	db *DB
}

// NewGraphStore creates a new GraphStore.
func NewGraphStore(db *DB) *GraphStore {
	return &GraphStore{db: db}
}

// Load reads the stored snapshot. An empty database yields an empty
// document.
func (s *GraphStore) Load(ctx context.Context) (*persist.Document, error) {
	doc := &persist.Document{Overrides: make(map[string]string)}

	rows, err := s.db.QueryContext(ctx, `SELECT id, path, kind, raw FROM tokens ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("query tokens: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, pathStr, kind, raw string
		if err := rows.Scan(&id, &pathStr, &kind, &raw); err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		path, err := models.ParsePath(pathStr)
		if err != nil {
			return nil, fmt.Errorf("stored token path %q: %w", pathStr, err)
		}
		doc.Tokens = append(doc.Tokens, models.Token{
			ID:   id,
			Path: path,
			Kind: models.Kind(kind),
			Raw:  raw,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tokens: %w", err)
	}

	famRows, err := s.db.QueryContext(ctx, `SELECT idx, alias FROM families ORDER BY idx`)
	if err != nil {
		return nil, fmt.Errorf("query families: %w", err)
	}
	defer famRows.Close()
	for famRows.Next() {
		var idx int
		var alias string
		if err := famRows.Scan(&idx, &alias); err != nil {
			return nil, fmt.Errorf("scan family: %w", err)
		}
		// Pad retired indexes so registration order survives a round trip.
		for len(doc.Families) < idx-1 {
			doc.Families = append(doc.Families, "")
		}
		doc.Families = append(doc.Families, alias)
	}
	if err := famRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate families: %w", err)
	}

	ovrRows, err := s.db.QueryContext(ctx, `SELECT path, value FROM overrides`)
	if err != nil {
		return nil, fmt.Errorf("query overrides: %w", err)
	}
	defer ovrRows.Close()
	for ovrRows.Next() {
		var path, value string
		if err := ovrRows.Scan(&path, &value); err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}
		doc.Overrides[path] = value
	}
	if err := ovrRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overrides: %w", err)
	}

	pairRows, err := s.db.QueryContext(ctx, `SELECT id, foreground, background, minimum_ratio FROM pairs`)
	if err != nil {
		return nil, fmt.Errorf("query pairs: %w", err)
	}
	defer pairRows.Close()
	for pairRows.Next() {
		var id, fg, bg string
		var ratio float64
		if err := pairRows.Scan(&id, &fg, &bg, &ratio); err != nil {
			return nil, fmt.Errorf("scan pair: %w", err)
		}
		fgPath, err := models.ParsePath(fg)
		if err != nil {
			return nil, fmt.Errorf("stored pair foreground %q: %w", fg, err)
		}
		bgPath, err := models.ParsePath(bg)
		if err != nil {
			return nil, fmt.Errorf("stored pair background %q: %w", bg, err)
		}
		doc.Pairs = append(doc.Pairs, models.CompliancePair{
			ID:           id,
			Foreground:   fgPath,
			Background:   bgPath,
			MinimumRatio: ratio,
		})
	}
	if err := pairRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pairs: %w", err)
	}

	return doc, nil
}

// Save replaces the stored snapshot with doc.
func (s *GraphStore) Save(ctx context.Context, doc *persist.Document) error {
	if doc == nil {
		return fmt.Errorf("document is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"tokens", "families", "overrides", "pairs"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, token := range doc.Tokens {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tokens (id, path, kind, raw) VALUES (?, ?, ?, ?)`,
			token.ID, token.Path.String(), string(token.Kind), token.Raw,
		); err != nil {
			return fmt.Errorf("insert token %s: %w", token.Path, err)
		}
	}
	for i, alias := range doc.Families {
		if alias == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO families (idx, alias) VALUES (?, ?)`,
			i+1, alias,
		); err != nil {
			return fmt.Errorf("insert family %s: %w", alias, err)
		}
	}
	for path, value := range doc.Overrides {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO overrides (path, value) VALUES (?, ?)`,
			path, value,
		); err != nil {
			return fmt.Errorf("insert override %s: %w", path, err)
		}
	}
	for _, pair := range doc.Pairs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pairs (id, foreground, background, minimum_ratio) VALUES (?, ?, ?, ?)`,
			pair.ID, pair.Foreground.String(), pair.Background.String(), pair.MinimumRatio,
		); err != nil {
			return fmt.Errorf("insert pair %s: %w", pair.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}
