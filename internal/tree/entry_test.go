package tree_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmitthub/grit/internal/tree"
)

func TestWriteBlob(t *testing.T) {
	f := newFixture(t)

	blob, err := tree.WriteBlob(context.Background(), f.client, []byte("hello\n"))
	require.NoError(t, err)

	assert.True(t, blob.IsBlob())
	assert.False(t, blob.IsTree())
	assert.Equal(t, "100644", blob.Mode)

	content, ok := f.fake.Blob(blob.Hash)
	require.True(t, ok)
	assert.Equal(t, "hello\n", content)

	// Content addressing: the same bytes hash identically.
	again, err := tree.WriteBlob(context.Background(), f.client, []byte("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, blob.Hash, again.Hash)
}

func TestBlobEffectiveMode(t *testing.T) {
	assert.Equal(t, "100644", (&tree.Blob{}).EffectiveMode())
	assert.Equal(t, "100755", (&tree.Blob{Mode: "100755"}).EffectiveMode())
}
