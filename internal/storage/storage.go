// Package storage defines the key-value persistence contract the wiki
// engine runs on. Implementations provide no transactions; every caller
// is written so that each individual Put is an idempotent full-value
// upsert keyed by a deterministic string ID, which is what keeps a crash
// between two writes recoverable rather than corrupting.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested item does not exist. Absence is an
// expected, common outcome throughout the engine; callers translate it to
// nil results rather than surfacing it as a failure.
var ErrNotFound = errors.New("item not found")

// Store is the abstract key-value data store.
//
// Get returns ErrNotFound for absent IDs. Put overwrites whole values.
// List enumerates all items whose ID has the given prefix, invoking fn
// for each; returning an error from fn stops the enumeration.
type Store interface {
	Get(ctx context.Context, id string) ([]byte, error)
	Put(ctx context.Context, id string, value []byte) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, prefix string, fn func(id string, value []byte) error) error
}

// GetJSON loads and decodes a typed item. Absent items yield (nil, nil):
// not-found is data, not an error, at this layer.
func GetJSON[T any](ctx context.Context, s Store, id string) (*T, error) {
	raw, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	return v, nil
}

// PutJSON encodes and stores a typed item under id.
func PutJSON(ctx context.Context, s Store, id string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", id, err)
	}
	if err := s.Put(ctx, id, raw); err != nil {
		return fmt.Errorf("put %s: %w", id, err)
	}
	return nil
}
