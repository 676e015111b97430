package badgerstore_test

import (
	"context"
	"testing"

	"github.com/quillwiki/quill/internal/storage"
	"github.com/quillwiki/quill/internal/storage/badgerstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *badgerstore.Store {
	t.Helper()
	s, err := badgerstore.Open(badgerstore.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_CRUD(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "page:missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Put(ctx, "page:a", []byte("one")))
	got, err := s.Get(ctx, "page:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got)

	require.NoError(t, s.Delete(ctx, "page:a"))
	_, err = s.Get(ctx, "page:a")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_ListPrefix(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "history:a", []byte("h")))
	require.NoError(t, s.Put(ctx, "page:a", []byte("a")))
	require.NoError(t, s.Put(ctx, "page:b", []byte("b")))

	seen := map[string]string{}
	err := s.List(ctx, "page:", func(id string, value []byte) error {
		seen[id] = string(value)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"page:a": "a", "page:b": "b"}, seen)
}

func TestStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cfg := badgerstore.DefaultConfig(dir)
	cfg.GCInterval = 0 // keep the test free of background work
	s, err := badgerstore.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "page:a", []byte("survives")))
	require.NoError(t, s.Close())

	s, err = badgerstore.Open(cfg)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "page:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("survives"), got)
}
