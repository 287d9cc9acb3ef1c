// Package state provides StateStore implementations: a process-lifetime
// in-memory store and a file-backed store that survives restarts.
package state

import (
	"context"
	"encoding/json"
	"sync"
)

// namespace holds one plugin's values plus the lock that serializes
// read-modify-write cycles against them.
type namespace struct {
	mu     sync.Mutex
	values map[string]json.RawMessage
}

// MemoryStore is an in-memory StateStore. Values live for the process
// lifetime only. Each plugin gets its own namespace; a plugin can never
// observe another plugin's keys.
type MemoryStore struct {
	mu         sync.Mutex
	namespaces map[string]*namespace
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{namespaces: make(map[string]*namespace)}
}

func (s *MemoryStore) ns(name string) *namespace {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.namespaces[name]
	if !ok {
		n = &namespace{values: make(map[string]json.RawMessage)}
		s.namespaces[name] = n
	}
	return n
}

// Get returns the value under key, or found=false when unset.
func (s *MemoryStore) Get(_ context.Context, ns, key string) (json.RawMessage, bool, error) {
	n := s.ns(ns)
	n.mu.Lock()
	defer n.mu.Unlock()
	v, ok := n.values[key]
	if !ok {
		return nil, false, nil
	}
	// Copy so callers cannot alias the stored value.
	out := make(json.RawMessage, len(v))
	copy(out, v)
	return out, true, nil
}

// Set stores value under key.
func (s *MemoryStore) Set(_ context.Context, ns, key string, value json.RawMessage) error {
	n := s.ns(ns)
	n.mu.Lock()
	defer n.mu.Unlock()
	stored := make(json.RawMessage, len(value))
	copy(stored, value)
	n.values[key] = stored
	return nil
}

// Update runs fn under the namespace lock and stores its result.
func (s *MemoryStore) Update(_ context.Context, ns, key string, fn func(current json.RawMessage, found bool) (json.RawMessage, error)) error {
	n := s.ns(ns)
	n.mu.Lock()
	defer n.mu.Unlock()

	current, found := n.values[key]
	next, err := fn(current, found)
	if err != nil {
		return err
	}
	stored := make(json.RawMessage, len(next))
	copy(stored, next)
	n.values[key] = stored
	return nil
}
