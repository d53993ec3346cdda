// Package local stores JSON records as one file per record, grouped into
// collection directories under a base path.
package local

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const ext = ".json"

// Store provides thread-safe JSON file storage
type Store struct {
	basePath string
	mu       sync.RWMutex
}

// NewStore creates a new local JSON store
func NewStore(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

// Save persists data to a JSON file. The file is written to a temp name and
// renamed so readers never see a partial record.
func (s *Store) Save(collection, id string, data any) error {
	path, err := s.path(collection, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create collection directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+id+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		tmp.Close()
		return fmt.Errorf("encode json: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("commit file: %w", err)
	}
	return nil
}

// Load reads data from a JSON file
func (s *Store) Load(collection, id string, data any) error {
	path, err := s.path(collection, id)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(data); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}

	return nil
}

// Delete removes a JSON file
func (s *Store) Delete(collection, id string) error {
	path, err := s.path(collection, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("remove file: %w", err)
	}

	return nil
}

// List returns all IDs in a collection
func (s *Store) List(collection string) ([]string, error) {
	if !validName(collection) {
		return nil, fmt.Errorf("%w: collection %q", ErrInvalidID, collection)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(s.basePath, collection))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read directory: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if id, ok := strings.CutSuffix(name, ext); ok {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

// Exists checks if a record exists
func (s *Store) Exists(collection, id string) bool {
	path, err := s.path(collection, id)
	if err != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err = os.Stat(path)
	return err == nil
}

func (s *Store) path(collection, id string) (string, error) {
	if !validName(collection) {
		return "", fmt.Errorf("%w: collection %q", ErrInvalidID, collection)
	}
	if !validName(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return filepath.Join(s.basePath, collection, id+ext), nil
}

// validName rejects empty names, dot files and anything containing a path separator
func validName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}
