package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Persister loads and saves a list of values. Stores call Save with the
// full list on every mutation.
type Persister[T any] interface {
	Load() ([]T, error)
	Save(items []T) error
}

// JSONFilePersister keeps a list as a JSON document on disk, the server-side
// analogue of a browser's local storage key.
type JSONFilePersister[T any] struct {
	path string
}

// NewJSONFilePersister creates a persister backed by the file at path.
func NewJSONFilePersister[T any](path string) *JSONFilePersister[T] {
	return &JSONFilePersister[T]{path: path}
}

// Load reads the file. A missing file is an empty list.
func (p *JSONFilePersister[T]) Load() ([]T, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", p.path, err)
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", p.path, err)
	}
	return items, nil
}

// Save writes the list atomically through a temp file and rename.
func (p *JSONFilePersister[T]) Save(items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", p.path, err)
	}

	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", p.path, err)
	}
	return nil
}
