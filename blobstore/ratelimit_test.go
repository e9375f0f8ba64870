package blobstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyrite-engine/pyrite/blobstore"
)

func TestRateLimitedStorePassthrough(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewRateLimitedStore(blobstore.NewMemoryStore(), 1<<30, 1<<16)

	// Larger than the burst: must be split, not deadlock.
	big := make([]byte, 200*1024)
	for i := range big {
		big[i] = byte(i)
	}
	require.NoError(t, store.Put(ctx, "big", big))

	b, err := store.Open(ctx, "big")
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, int64(len(big)), b.Size())

	p := make([]byte, 1024)
	n, err := b.ReadAt(p, 0)
	require.NoError(t, err)
	assert.Equal(t, 1024, n)
	assert.Equal(t, big[:1024], p)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"big"}, names)

	require.NoError(t, store.Delete(ctx, "big"))
	_, err = store.Open(ctx, "big")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestRateLimitedStoreCreate(t *testing.T) {
	ctx := context.Background()
	inner := blobstore.NewMemoryStore()
	store := blobstore.NewRateLimitedStore(inner, 1<<30, 1<<16)

	wb, err := store.Create(ctx, "a")
	require.NoError(t, err)
	_, err = wb.Write([]byte("data"))
	require.NoError(t, err)
	require.NoError(t, wb.Sync())
	require.NoError(t, wb.Close())

	b, err := store.Open(ctx, "a")
	require.NoError(t, err)
	defer b.Close()
	data, err := blobstore.ReadFull(b)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)
}

func TestRateLimitedStoreCanceledContext(t *testing.T) {
	store := blobstore.NewRateLimitedStore(blobstore.NewMemoryStore(), 1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Put(ctx, "a", make([]byte, 10))
	assert.Error(t, err)
}
