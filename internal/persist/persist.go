// Package persist defines the pluggable persistence port for the token
// engine. The core never touches storage; hosts pick an implementation
// (the JSON file store here, or the sqlite store in internal/db) and feed
// documents in and out of the engine.
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opencode-ai/tint/internal/models"
)

// Document is the serialized form of a token graph: everything needed to
// reconstruct an engine's state. Scales listed under Scales import
// atomically, all twelve steps together.
type Document struct {
	// Tokens are the base token definitions, literals and references.
	Tokens []models.Token `json:"tokens,omitempty"`

	// Scales are full color scales to create atomically on import.
	Scales []models.ColorScale `json:"scales,omitempty"`

	// Families is the family registration order behind the scale-index
	// naming scheme. Empty entries are retired indexes.
	Families []string `json:"families,omitempty"`

	// Overrides maps canonical paths to literal override values.
	Overrides map[string]string `json:"overrides,omitempty"`

	// Pairs are the registered compliance pairs.
	Pairs []models.CompliancePair `json:"pairs,omitempty"`
}

// Port is implemented by the host's storage backend.
type Port interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
}

// FileStore persists documents as JSON on disk.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed port at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the document. A missing file yields an empty document.
func (f *FileStore) Load(_ context.Context) (*Document, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Document{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}
	return &doc, nil
}

// Save writes the document atomically via a temp file rename.
func (f *FileStore) Save(_ context.Context, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tint-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
