package tree_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmitthub/grit/internal/tree"
)

func TestSnapshotRoundTrip(t *testing.T) {
	// read(build(M).write()) == M for a flat path → entry mapping.
	f := newFixture(t)

	files := map[string]string{
		"README.md":        "readme\n",
		"src/main.c":       "main\n",
		"src/lib/util.c":   "util\n",
		"docs/guide/a.md":  "a\n",
	}
	flat := map[string]tree.SnapshotEntry{}
	for path, content := range files {
		flat[path] = tree.SnapshotEntry{
			Mode: "100644",
			Type: "blob",
			Hash: f.fake.PutBlob(content),
		}
	}

	root, err := tree.BuildSnapshot(f.client, flat)
	require.NoError(t, err)
	assert.True(t, root.Dirty())

	hash, err := root.Write(context.Background())
	require.NoError(t, err)

	got, err := tree.ReadSnapshot(context.Background(), f.client, hash)
	require.NoError(t, err)
	assert.Equal(t, flat, got)
}

func TestReadSnapshot(t *testing.T) {
	f := newFixture(t)
	hash := f.fake.Seed(map[string]string{
		"a.txt":     "a\n",
		"sub/b.txt": "b\n",
	})

	flat, err := tree.ReadSnapshot(context.Background(), f.client, hash)
	require.NoError(t, err)

	require.Len(t, flat, 2)
	assert.Equal(t, "blob", flat["a.txt"].Type)
	assert.Equal(t, "blob", flat["sub/b.txt"].Type)
	// Only leaves appear; the interior tree is implied by the path.
	assert.NotContains(t, flat, "sub")
}

func TestBuildSnapshotEmpty(t *testing.T) {
	f := newFixture(t)
	root, err := tree.BuildSnapshot(f.client, nil)
	require.NoError(t, err)

	hash, err := root.Write(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tree.EmptyTreeHash, hash)
}
