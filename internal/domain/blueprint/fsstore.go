package blueprint

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Store loads blueprints from the config directory, laid out as
// <root>/<domain>/<path>, e.g. blueprints/script/notify.yaml.
type Store struct {
	root string
}

// NewStore creates a store rooted at the blueprints directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Load reads and parses one blueprint. The path may contain subdirectories
// (community blueprints ship namespaced).
func (s *Store) Load(domain, path string) (*Blueprint, error) {
	data, err := os.ReadFile(filepath.Join(s.root, domain, path))
	if err != nil {
		return nil, fmt.Errorf("load blueprint %s/%s: %w", domain, path, err)
	}

	bp, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load blueprint %s/%s: %w", domain, path, err)
	}
	if bp.Domain != domain {
		return nil, fmt.Errorf("load blueprint %s/%s: domain mismatch %q", domain, path, bp.Domain)
	}
	return bp, nil
}

// List returns the relative paths of all blueprints for a domain.
func (s *Store) List(domain string) ([]string, error) {
	dir := filepath.Join(s.root, domain)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	matches, err := doublestar.Glob(os.DirFS(dir), "**/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("list blueprints %s: %w", domain, err)
	}
	return matches, nil
}
