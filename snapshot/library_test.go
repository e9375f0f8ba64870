package snapshot_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyrite-engine/pyrite/blobstore"
	"github.com/pyrite-engine/pyrite/snapshot"
	"github.com/pyrite-engine/pyrite/visit"
)

func namedTree(t *testing.T, name string) *visit.Node {
	t.Helper()
	root := visit.NewNode("doc")
	require.NoError(t, root.SetField("name", visit.StringValue(name)))
	return root
}

func docName(t *testing.T, tree *visit.Node) string {
	t.Helper()
	f, ok := tree.Field("name")
	require.True(t, ok)
	s, _ := f.AsString()
	return s
}

func TestLibraryEmpty(t *testing.T) {
	ctx := context.Background()
	lib, err := snapshot.OpenLibrary(ctx, blobstore.NewMemoryStore())
	require.NoError(t, err)

	assert.Empty(t, lib.Documents())
	assert.Equal(t, uint64(0), lib.Version())

	_, err = lib.Load(ctx, "missing")
	assert.ErrorIs(t, err, snapshot.ErrDocumentNotFound)
}

func TestLibrarySaveLoad(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	lib, err := snapshot.OpenLibrary(ctx, store)
	require.NoError(t, err)

	require.NoError(t, lib.Save(ctx, "world", namedTree(t, "overworld")))
	assert.Equal(t, uint64(1), lib.Version())
	assert.Equal(t, []string{"world"}, lib.Documents())

	got, err := lib.Load(ctx, "world")
	require.NoError(t, err)
	assert.Equal(t, "overworld", docName(t, got))
}

func TestLibrarySaveAll(t *testing.T) {
	ctx := context.Background()
	lib, err := snapshot.OpenLibrary(ctx, blobstore.NewMemoryStore(),
		snapshot.WithConcurrency(2),
		snapshot.WithLibraryCompression(snapshot.CompressionLZ4),
	)
	require.NoError(t, err)

	err = lib.SaveAll(ctx, map[string]*visit.Node{
		"world":    namedTree(t, "overworld"),
		"settings": namedTree(t, "options"),
		"ui":       namedTree(t, "hud"),
	})
	require.NoError(t, err)

	// One commit for the whole batch.
	assert.Equal(t, uint64(1), lib.Version())
	assert.Equal(t, []string{"settings", "ui", "world"}, lib.Documents())

	got, err := lib.Load(ctx, "settings")
	require.NoError(t, err)
	assert.Equal(t, "options", docName(t, got))
}

func TestLibraryResaveSupersedes(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	lib, err := snapshot.OpenLibrary(ctx, store)
	require.NoError(t, err)

	require.NoError(t, lib.Save(ctx, "world", namedTree(t, "v1")))
	require.NoError(t, lib.Save(ctx, "world", namedTree(t, "v2")))
	assert.Equal(t, uint64(2), lib.Version())

	got, err := lib.Load(ctx, "world")
	require.NoError(t, err)
	assert.Equal(t, "v2", docName(t, got))

	// The superseded blob and manifest were garbage collected.
	blobs, err := store.List(ctx, "blobs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"blobs/world-000002.pyr"}, blobs)

	manifests, err := store.List(ctx, "MANIFEST-")
	require.NoError(t, err)
	assert.Equal(t, []string{"MANIFEST-000002.json"}, manifests)
}

func TestLibraryPartialResaveKeepsOthers(t *testing.T) {
	ctx := context.Background()
	lib, err := snapshot.OpenLibrary(ctx, blobstore.NewMemoryStore())
	require.NoError(t, err)

	require.NoError(t, lib.SaveAll(ctx, map[string]*visit.Node{
		"world":    namedTree(t, "overworld"),
		"settings": namedTree(t, "options"),
	}))
	require.NoError(t, lib.Save(ctx, "world", namedTree(t, "nether")))

	got, err := lib.Load(ctx, "settings")
	require.NoError(t, err)
	assert.Equal(t, "options", docName(t, got))

	got, err = lib.Load(ctx, "world")
	require.NoError(t, err)
	assert.Equal(t, "nether", docName(t, got))
}

func TestLibraryReopen(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	lib, err := snapshot.OpenLibrary(ctx, store)
	require.NoError(t, err)
	require.NoError(t, lib.Save(ctx, "world", namedTree(t, "overworld")))

	// A second handle over the same store sees the committed state.
	other, err := snapshot.OpenLibrary(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), other.Version())

	got, err := other.Load(ctx, "world")
	require.NoError(t, err)
	assert.Equal(t, "overworld", docName(t, got))
}

func TestLibraryRefresh(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	writer, err := snapshot.OpenLibrary(ctx, store)
	require.NoError(t, err)
	reader, err := snapshot.OpenLibrary(ctx, store)
	require.NoError(t, err)

	require.NoError(t, writer.Save(ctx, "world", namedTree(t, "overworld")))

	assert.Equal(t, uint64(0), reader.Version())
	require.NoError(t, reader.Refresh(ctx))
	assert.Equal(t, uint64(1), reader.Version())
}

func TestLibrarySaveAllEmpty(t *testing.T) {
	ctx := context.Background()
	lib, err := snapshot.OpenLibrary(ctx, blobstore.NewMemoryStore())
	require.NoError(t, err)

	require.NoError(t, lib.SaveAll(ctx, nil))
	assert.Equal(t, uint64(0), lib.Version())
}
