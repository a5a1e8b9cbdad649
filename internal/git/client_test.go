package git_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmitthub/grit/internal/git"
	"github.com/schmitthub/grit/internal/git/gittest"
	"github.com/schmitthub/grit/internal/gitexec"
)

func newFakeClient(t *testing.T) (*git.Client, *gittest.FakeGit) {
	t.Helper()
	fake := gittest.NewFakeGit()
	client := git.New(git.WithRunner(fake))
	t.Cleanup(client.Cleanup)
	return client, fake
}

func TestIsHash(t *testing.T) {
	assert.True(t, git.IsHash("4b825dc642cb6eb9a060e54bf8d69288fbee4904"))
	assert.False(t, git.IsHash("HEAD"))
	assert.False(t, git.IsHash("4b825dc642cb6eb9a060e54bf8d69288fbee490"))  // 39 chars
	assert.False(t, git.IsHash("4B825DC642CB6EB9A060E54BF8D69288FBEE4904")) // upper case
}

func TestClientExec(t *testing.T) {
	t.Run("trims trailing whitespace only", func(t *testing.T) {
		client, fake := newFakeClient(t)
		fake.Stub("status", " M test.txt\n", "", 0)

		out, err := client.Status(context.Background(), gitexec.Options{"porcelain": true})
		require.NoError(t, err)
		assert.Equal(t, " M test.txt", out)
	})

	t.Run("subprocess error carries code and stderr", func(t *testing.T) {
		client, fake := newFakeClient(t)
		fake.Stub("checkout", "", "error: pathspec 'nope' did not match\n", 1)

		_, err := client.Checkout(context.Background(), "nope")
		var subErr *gitexec.SubprocessError
		require.ErrorAs(t, err, &subErr)
		assert.Equal(t, 1, subErr.Code)
		assert.Contains(t, subErr.Stderr, "pathspec")
	})

	t.Run("nullOnError maps failure to empty success", func(t *testing.T) {
		client, fake := newFakeClient(t)
		fake.Stub("checkout", "", "error: nope\n", 1)

		out, err := client.Checkout(context.Background(), "nope", gitexec.Options{"$nullOnError": true})
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("client git-dir and work-tree flow into the spec", func(t *testing.T) {
		fake := gittest.NewFakeGit()
		fake.Stub("status", "", "", 0)
		client := git.New(
			git.WithRunner(fake),
			git.WithGitDir("/repo/.git"),
			git.WithWorkTree("/repo"),
			git.WithIndexFile("/tmp/idx"),
		)
		t.Cleanup(client.Cleanup)

		_, err := client.Status(context.Background())
		require.NoError(t, err)

		specs := fake.Specs()
		require.Len(t, specs, 1)
		assert.Equal(t, "/repo/.git", specs[0].GitDir)
		assert.Equal(t, "/repo", specs[0].WorkTree)
		assert.Equal(t, "/tmp/idx", specs[0].IndexFile)
		assert.Equal(t,
			[]string{"--git-dir=/repo/.git", "--work-tree=/repo", "status"},
			specs[0].FullArgs())
	})

	t.Run("per-call override beats client binding", func(t *testing.T) {
		fake := gittest.NewFakeGit()
		fake.Stub("status", "", "", 0)
		client := git.New(git.WithRunner(fake), git.WithGitDir("/repo/.git"))
		t.Cleanup(client.Cleanup)

		_, err := client.Status(context.Background(), gitexec.Options{"$gitDir": "/other/.git"})
		require.NoError(t, err)

		specs := fake.Specs()
		require.Len(t, specs, 1)
		assert.Equal(t, "/other/.git", specs[0].GitDir)
	})
}

func TestTreeHash(t *testing.T) {
	client, fake := newFakeClient(t)
	treeHash := fake.Seed(map[string]string{"README.md": "# hi\n"})
	fake.SetRef("HEAD", treeHash)

	got, err := client.TreeHash(context.Background(), "HEAD")
	require.NoError(t, err)
	assert.Equal(t, treeHash, got)
}

func TestVersion(t *testing.T) {
	t.Run("parses and memoizes", func(t *testing.T) {
		client, fake := newFakeClient(t)
		fake.SetVersion("2.34.1")

		v, err := client.Version(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "2.34.1", v)

		_, err = client.Version(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, fake.CallCount("version"))
	})

	t.Run("satisfies range", func(t *testing.T) {
		client, fake := newFakeClient(t)
		fake.SetVersion("2.34.1")

		ok, err := client.SatisfiesVersion(context.Background(), ">=2.7.4")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = client.SatisfiesVersion(context.Background(), ">=3.0.0")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("require version", func(t *testing.T) {
		client, fake := newFakeClient(t)
		fake.SetVersion("2.5.0")

		err := client.RequireVersion(context.Background(), ">="+git.MinVersion)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "2.5.0")
	})

	t.Run("bad constraint", func(t *testing.T) {
		client, _ := newFakeClient(t)
		_, err := client.SatisfiesVersion(context.Background(), "not-a-range")
		assert.Error(t, err)
	})
}

func TestWithTempIndex(t *testing.T) {
	client, _ := newFakeClient(t)
	scratch, path := client.WithTempIndex()
	t.Cleanup(scratch.Cleanup)

	assert.NotEmpty(t, path)
	other, otherPath := client.WithTempIndex()
	t.Cleanup(other.Cleanup)
	assert.NotEqual(t, path, otherPath)
}
