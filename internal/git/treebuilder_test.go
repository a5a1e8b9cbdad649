package git_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmitthub/grit/internal/git"
	"github.com/schmitthub/grit/internal/git/gittest"
	"github.com/schmitthub/grit/internal/gitexec"
)

var kittenEntries = []git.TreeEntry{
	{Mode: "100644", Type: "blob", Hash: "bc0c330151d9a2ca8d87d1ff914b87f152036b19", Name: "kitten.jpg"},
	{Mode: "100644", Type: "blob", Hash: "97ab63ad46e50ac4012ac9370b33878b224c4fa3", Name: "cage.jpg"},
}

func TestTreeBuilderBuild(t *testing.T) {
	t.Run("identical batches produce identical hashes", func(t *testing.T) {
		client, _ := newFakeClient(t)

		first, err := client.MkTreeBatch(context.Background(), kittenEntries)
		require.NoError(t, err)
		second, err := client.MkTreeBatch(context.Background(), kittenEntries)
		require.NoError(t, err)

		assert.True(t, git.IsHash(first))
		assert.Equal(t, first, second)
	})

	t.Run("one child serves many requests", func(t *testing.T) {
		client, fake := newFakeClient(t)

		for i := 0; i < 5; i++ {
			_, err := client.MkTreeBatch(context.Background(), kittenEntries)
			require.NoError(t, err)
		}
		assert.Equal(t, 1, fake.CallCount("mktree"))
	})

	t.Run("concurrent requests resolve in submission order", func(t *testing.T) {
		client, _ := newFakeClient(t)

		// Distinct entry sets so each request has a distinguishable hash.
		// A separate throwaway store computes the expected hash per set:
		// content addressing makes them comparable across instances.
		reference := gittest.NewFakeGit()
		want := make([]string, 8)
		entrySets := make([][]git.TreeEntry, 8)
		for i := range entrySets {
			blob := reference.PutBlob(string(rune('a' + i)))
			entrySets[i] = []git.TreeEntry{{Mode: "100644", Type: "blob", Hash: blob, Name: "f"}}
			want[i] = reference.PutTree(entrySets[i])
		}

		var wg sync.WaitGroup
		got := make([]string, len(entrySets))
		errs := make([]error, len(entrySets))
		for i, entries := range entrySets {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got[i], errs[i] = client.MkTreeBatch(context.Background(), entries)
			}()
		}
		wg.Wait()

		for _, err := range errs {
			require.NoError(t, err)
		}
		assert.Equal(t, want, got)
	})

	t.Run("zero entries build the empty tree", func(t *testing.T) {
		client, _ := newFakeClient(t)

		h, err := client.MkTreeBatch(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, git.EmptyTreeHash, h)
	})

	t.Run("invalid entry hash rejected before the child sees it", func(t *testing.T) {
		client, fake := newFakeClient(t)

		_, err := client.MkTreeBatch(context.Background(), []git.TreeEntry{
			{Mode: "100644", Type: "blob", Hash: "nope", Name: "f"},
		})
		require.ErrorIs(t, err, gitexec.ErrBadArgument)
		assert.Equal(t, 0, fake.CallCount("mktree"))
	})

	t.Run("idle timeout closes the child and the next request respawns", func(t *testing.T) {
		fake := gittest.NewFakeGit()
		client := git.New(git.WithRunner(fake), git.WithBatchIdle(20*time.Millisecond))
		t.Cleanup(client.Cleanup)

		first, err := client.MkTreeBatch(context.Background(), kittenEntries)
		require.NoError(t, err)

		// Let the idle window lapse so the worker's stdin closes.
		time.Sleep(100 * time.Millisecond)

		second, err := client.MkTreeBatch(context.Background(), kittenEntries)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, 2, fake.CallCount("mktree"))
	})

	t.Run("stopped builder refuses new work", func(t *testing.T) {
		client, _ := newFakeClient(t)
		builder := client.TreeBuilder()

		_, err := builder.Build(context.Background(), kittenEntries)
		require.NoError(t, err)

		builder.Stop()
		_, err = builder.Build(context.Background(), kittenEntries)
		assert.ErrorIs(t, err, git.ErrBuilderStopped)
	})

	t.Run("cleanup stops the worker, a fresh builder takes over", func(t *testing.T) {
		client, fake := newFakeClient(t)

		_, err := client.MkTreeBatch(context.Background(), kittenEntries)
		require.NoError(t, err)

		client.Cleanup()

		_, err = client.MkTreeBatch(context.Background(), kittenEntries)
		require.NoError(t, err)
		assert.Equal(t, 2, fake.CallCount("mktree"))
	})
}

func TestTreeEntryString(t *testing.T) {
	e := git.TreeEntry{Mode: "100644", Type: "blob", Hash: "bc0c330151d9a2ca8d87d1ff914b87f152036b19", Name: "kitten.jpg"}
	assert.Equal(t, "100644 blob bc0c330151d9a2ca8d87d1ff914b87f152036b19\tkitten.jpg", e.String())
}
