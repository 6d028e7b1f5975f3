// ABOUTME: In-memory Store implementation for tests and samples
// ABOUTME: Mutex-guarded map with monotonically increasing integer versions

package state

import (
	"context"
	"strconv"
	"sync"
)

// entry holds a stored value and its version counter.
type entry struct {
	value   []byte
	version int64
}

// MemoryStore is a Store backed by a process-local map. It is constructed
// explicitly and passed to whoever needs it; there is no package-level
// singleton.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
	}
}

// Get returns the value and version for key, or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, "", ErrNotFound
	}
	value := make([]byte, len(e.value))
	copy(value, e.value)
	return value, strconv.FormatInt(e.version, 10), nil
}

// Put writes value under key, enforcing the optional expected version.
func (s *MemoryStore) Put(ctx context.Context, key string, value []byte, expectedVersion string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		if expectedVersion != "" {
			return "", ErrConflict
		}
		stored := make([]byte, len(value))
		copy(stored, value)
		s.entries[key] = &entry{value: stored, version: 1}
		return "1", nil
	}

	if expectedVersion != "" && expectedVersion != strconv.FormatInt(e.version, 10) {
		return "", ErrConflict
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	e.value = stored
	e.version++
	return strconv.FormatInt(e.version, 10), nil
}

// Delete removes key. Missing keys are ignored.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}
