package blobstore_test

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyrite-engine/pyrite/blobstore"
)

func TestMemoryStorePutOpen(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	require.NoError(t, store.Put(ctx, "a", []byte("hello")))
	assert.Equal(t, 1, store.Len())

	b, err := store.Open(ctx, "a")
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, int64(5), b.Size())
	data, err := blobstore.ReadFull(b)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestMemoryStoreOpenMissing(t *testing.T) {
	store := blobstore.NewMemoryStore()
	_, err := store.Open(context.Background(), "nope")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestMemoryStoreReadAt(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "a", []byte("hello world")))

	b, err := store.Open(ctx, "a")
	require.NoError(t, err)
	defer b.Close()

	p := make([]byte, 5)
	n, err := b.ReadAt(p, 6)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte("world"), p)

	// Short read at the tail reports EOF.
	n, err = b.ReadAt(p, 8)
	assert.Equal(t, 3, n)
	assert.ErrorIs(t, err, io.EOF)

	_, err = b.ReadAt(p, 100)
	assert.ErrorIs(t, err, io.EOF)
}

func TestMemoryStoreCreatePublishesOnClose(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	wb, err := store.Create(ctx, "a")
	require.NoError(t, err)
	_, err = wb.Write([]byte("part1 "))
	require.NoError(t, err)
	require.NoError(t, wb.Sync())
	_, err = wb.Write([]byte("part2"))
	require.NoError(t, err)

	// Not visible until Close.
	_, err = store.Open(ctx, "a")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, wb.Close())

	b, err := store.Open(ctx, "a")
	require.NoError(t, err)
	defer b.Close()
	data, err := blobstore.ReadFull(b)
	require.NoError(t, err)
	assert.Equal(t, []byte("part1 part2"), data)
}

func TestMemoryStoreOpenIsolatedFromPut(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "a", []byte("old")))

	b, err := store.Open(ctx, "a")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, store.Put(ctx, "a", []byte("new")))

	data, err := blobstore.ReadFull(b)
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), data)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "a", []byte("x")))

	require.NoError(t, store.Delete(ctx, "a"))
	_, err := store.Open(ctx, "a")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	// Deleting a missing blob is not an error.
	assert.NoError(t, store.Delete(ctx, "a"))
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "blobs/b", nil))
	require.NoError(t, store.Put(ctx, "blobs/a", nil))
	require.NoError(t, store.Put(ctx, "other", nil))

	names, err := store.List(ctx, "blobs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"blobs/a", "blobs/b"}, names)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"blobs/a", "blobs/b", "other"}, all)
}
