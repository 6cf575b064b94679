package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codechunk/internal/chunk"
	"codechunk/internal/graph"
	"codechunk/internal/index"
)

const utilsSrc = `class Greeter:
    """Greets."""

    def hello(self):
        return "hi"


def helper():
    return Greeter()
`

const appSrc = `import os
from utils import helper

MAX_RETRIES = 3


def run():
    return helper()
`

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func builtIndex(t *testing.T) *index.Index {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "utils.py", utilsSrc)
	writeFile(t, root, "app.py", appSrc)
	writeFile(t, root, "broken.py", "def broken(:\n    pass\n")

	idx, err := index.Build(context.Background(), index.Options{Root: root})
	require.NoError(t, err)
	return idx
}

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "codechunk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	idx := builtIndex(t)
	store := openStore(t)

	snap := idx.Snapshot()
	require.NotEmpty(t, snap.Diagnostics, "fixture carries a parse failure")
	require.NotEmpty(t, snap.Unresolved, "fixture imports the standard library")

	require.NoError(t, store.SaveSnapshot(ctx, snap))

	loaded, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)

	rebuilt, err := index.FromSnapshot(loaded)
	require.NoError(t, err)
	assert.Equal(t, idx.Stats(), rebuilt.Stats())
}

func TestSQLiteStore_GetChunk(t *testing.T) {
	ctx := context.Background()
	idx := builtIndex(t)
	store := openStore(t)
	require.NoError(t, store.SaveSnapshot(ctx, idx.Snapshot()))

	var greeter chunk.Chunk
	for _, c := range idx.ChunksByFile("utils.py") {
		if c.Type == chunk.TypeClass {
			greeter = c
		}
	}
	require.NotEmpty(t, greeter.ID)

	got, err := store.GetChunk(ctx, greeter.ID)
	require.NoError(t, err)
	assert.Equal(t, greeter, got)

	meta, ok := got.Metadata.(chunk.ClassMeta)
	require.True(t, ok, "metadata variant survives the database")
	assert.Equal(t, []string{"hello"}, meta.Methods)

	_, err = store.GetChunk(ctx, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSQLiteStore_FindChunksByFile(t *testing.T) {
	ctx := context.Background()
	idx := builtIndex(t)
	store := openStore(t)
	require.NoError(t, store.SaveSnapshot(ctx, idx.Snapshot()))

	chunks, err := store.FindChunksByFile(ctx, "app.py")
	require.NoError(t, err)
	assert.Equal(t, idx.ChunksByFile("app.py"), chunks)

	empty, err := store.FindChunksByFile(ctx, "nowhere.py")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSQLiteStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	idx := builtIndex(t)
	store := openStore(t)
	require.NoError(t, store.SaveSnapshot(ctx, idx.Snapshot()))

	require.NoError(t, store.SaveSnapshot(ctx, index.Snapshot{Version: index.SnapshotVersion}))

	loaded, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Chunks, "a new snapshot clears the previous run")
	assert.Empty(t, loaded.Relationships)
	assert.Empty(t, loaded.Diagnostics)
	assert.Equal(t, index.SnapshotVersion, loaded.Version)
}

func TestSQLiteStore_UnresolvedReasons(t *testing.T) {
	ctx := context.Background()
	idx := builtIndex(t)
	store := openStore(t)
	require.NoError(t, store.SaveSnapshot(ctx, idx.Snapshot()))

	loaded, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)

	var reasons []graph.UnresolvedReason
	for _, u := range loaded.Unresolved {
		reasons = append(reasons, u.Reason)
	}
	assert.Contains(t, reasons, graph.ReasonExternal, "the os import stays external")
}
