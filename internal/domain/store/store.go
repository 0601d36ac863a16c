package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// ErrNotFound indicates the backing file has never been created.
var ErrNotFound = errors.New("document not found")

// Store reads and writes one collection document.
type Store struct {
	path string
}

// New creates a store for the document at path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the full document. Returns ErrNotFound if the backing file
// does not exist.
func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("read document %s: %w", s.path, err)
	}

	var decoded interface{}
	if err := yaml.UnmarshalWithOptions(data, &decoded, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("parse document %s: %w", s.path, err)
	}

	switch v := decoded.(type) {
	case nil:
		return NewDocument(), nil
	case yaml.MapSlice:
		return &Document{items: v}, nil
	default:
		return nil, fmt.Errorf("parse document %s: top level is not a mapping", s.path)
	}
}

// Save writes the full document back, preserving entry order.
func (s *Store) Save(doc *Document) error {
	var data []byte
	if doc.Len() == 0 {
		data = []byte("{}\n")
	} else {
		var err error
		data, err = yaml.Marshal(doc.items)
		if err != nil {
			return fmt.Errorf("encode document %s: %w", s.path, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("write document %s: %w", s.path, err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write document %s: %w", s.path, err)
	}
	return nil
}
