// Package memstore provides an in-memory Store for tests and ephemeral
// wikis. Enumeration order is sorted by ID for deterministic behaviour.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/quillwiki/quill/internal/storage"
)

// Store is a mutex-guarded map implementation of storage.Store.
type Store struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{items: make(map[string][]byte)}
}

// Get implements storage.Store.
func (s *Store) Get(_ context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Put implements storage.Store.
func (s *Store) Put(_ context.Context, id string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.items[id] = v
	return nil
}

// Delete implements storage.Store. Deleting an absent ID is a no-op.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// List implements storage.Store.
func (s *Store) List(ctx context.Context, prefix string, fn func(id string, value []byte) error) error {
	s.mu.RLock()
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		if len(id) >= len(prefix) && id[:len(prefix)] == prefix {
			ids = append(ids, id)
		}
	}
	s.mu.RUnlock()
	sort.Strings(ids)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		v, err := s.Get(ctx, id)
		if err != nil {
			// Deleted between snapshot and visit; skip.
			continue
		}
		if err := fn(id, v); err != nil {
			return err
		}
	}
	return nil
}

// Len reports the number of stored items. Test helper.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
