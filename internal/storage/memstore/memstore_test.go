package memstore_test

import (
	"context"
	"testing"

	"github.com/quillwiki/quill/internal/storage"
	"github.com/quillwiki/quill/internal/storage/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CRUD(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	_, err := s.Get(ctx, "page:missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Put(ctx, "page:a", []byte("one")))
	got, err := s.Get(ctx, "page:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got)

	// Overwrite in place.
	require.NoError(t, s.Put(ctx, "page:a", []byte("two")))
	got, err = s.Get(ctx, "page:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got)

	require.NoError(t, s.Delete(ctx, "page:a"))
	_, err = s.Get(ctx, "page:a")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Deleting an absent ID is a no-op.
	require.NoError(t, s.Delete(ctx, "page:a"))
}

func TestStore_ListPrefix(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "page:b", []byte("b")))
	require.NoError(t, s.Put(ctx, "page:a", []byte("a")))
	require.NoError(t, s.Put(ctx, "links:a", []byte("x")))

	var ids []string
	err := s.List(ctx, "page:", func(id string, _ []byte) error {
		ids = append(ids, id)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"page:a", "page:b"}, ids, "sorted, prefix-filtered")
}

func TestGetJSON_AbsentIsNil(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()

	type item struct{ Name string }
	got, err := storage.GetJSON[item](ctx, s, "page:nope")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, storage.PutJSON(ctx, s, "page:yes", item{Name: "n"}))
	got, err = storage.GetJSON[item](ctx, s, "page:yes")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "n", got.Name)
}
