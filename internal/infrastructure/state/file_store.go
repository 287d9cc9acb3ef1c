package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore is a StateStore persisted as one JSON document per plugin
// under a base directory. Namespacing falls out of the file layout:
// plugin "wikipedia" can only ever touch <dir>/wikipedia.json.
type FileStore struct {
	dir   string
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore creates a file-backed store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, locks: make(map[string]*sync.Mutex)}
}

func (s *FileStore) lock(ns string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[ns]
	if !ok {
		l = &sync.Mutex{}
		s.locks[ns] = l
	}
	return l
}

func (s *FileStore) path(ns string) string {
	return filepath.Join(s.dir, ns+".json")
}

// load reads the namespace document. A missing file is an empty namespace.
func (s *FileStore) load(ns string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path(ns))
	if os.IsNotExist(err) {
		return make(map[string]json.RawMessage), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state for %s: %w", ns, err)
	}
	values := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("corrupt state file for %s: %w", ns, err)
	}
	return values, nil
}

// save writes the namespace document atomically (tmp file + rename).
func (s *FileStore) save(ns string, values map[string]json.RawMessage) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path(ns) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state for %s: %w", ns, err)
	}
	if err := os.Rename(tmp, s.path(ns)); err != nil {
		return fmt.Errorf("failed to replace state for %s: %w", ns, err)
	}
	return nil
}

// Get returns the value under key, or found=false when unset.
func (s *FileStore) Get(_ context.Context, ns, key string) (json.RawMessage, bool, error) {
	l := s.lock(ns)
	l.Lock()
	defer l.Unlock()

	values, err := s.load(ns)
	if err != nil {
		return nil, false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set stores value under key and persists the namespace.
func (s *FileStore) Set(_ context.Context, ns, key string, value json.RawMessage) error {
	l := s.lock(ns)
	l.Lock()
	defer l.Unlock()

	values, err := s.load(ns)
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(ns, values)
}

// Update runs fn under the namespace lock and persists its result.
func (s *FileStore) Update(_ context.Context, ns, key string, fn func(current json.RawMessage, found bool) (json.RawMessage, error)) error {
	l := s.lock(ns)
	l.Lock()
	defer l.Unlock()

	values, err := s.load(ns)
	if err != nil {
		return err
	}
	current, found := values[key]
	next, err := fn(current, found)
	if err != nil {
		return err
	}
	values[key] = next
	return s.save(ns, values)
}
