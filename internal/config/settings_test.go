package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitSettings(t *testing.T) {
	t.Run("split command defaults to git", func(t *testing.T) {
		g := GitSettings{}
		cmd, args, err := g.SplitCommand()
		require.NoError(t, err)
		assert.Equal(t, "git", cmd)
		assert.Empty(t, args)
	})

	t.Run("split command carries base args", func(t *testing.T) {
		g := GitSettings{Command: "git --no-pager"}
		cmd, args, err := g.SplitCommand()
		require.NoError(t, err)
		assert.Equal(t, "git", cmd)
		assert.Equal(t, []string{"--no-pager"}, args)
	})

	t.Run("split command honors quoting", func(t *testing.T) {
		g := GitSettings{Command: `"/opt/git tools/git" -c core.fsmonitor=false`}
		cmd, args, err := g.SplitCommand()
		require.NoError(t, err)
		assert.Equal(t, "/opt/git tools/git", cmd)
		assert.Equal(t, []string{"-c", "core.fsmonitor=false"}, args)
	})

	t.Run("batch idle defaults to one second", func(t *testing.T) {
		assert.Equal(t, time.Second, (&GitSettings{}).BatchIdle())
		assert.Equal(t, 250*time.Millisecond, (&GitSettings{BatchIdleMS: 250}).BatchIdle())
	})
}

func TestSettingsLoader(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		loader := NewSettingsLoaderAt(filepath.Join(t.TempDir(), "settings.yaml"))
		settings, err := loader.Load()
		require.NoError(t, err)
		assert.Equal(t, "git", settings.Git.Command)
		assert.Equal(t, 1000, settings.Git.BatchIdleMS)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.yaml")
		require.NoError(t, os.WriteFile(path, []byte("git:\n  command: git --no-pager\n  batch_idle_ms: 250\n"), 0644))

		settings, err := NewSettingsLoaderAt(path).Load()
		require.NoError(t, err)
		assert.Equal(t, "git --no-pager", settings.Git.Command)
		assert.Equal(t, 250, settings.Git.BatchIdleMS)
	})

	t.Run("save then load round-trips", func(t *testing.T) {
		loader := NewSettingsLoaderAt(filepath.Join(t.TempDir(), "settings.yaml"))
		require.NoError(t, loader.Save(&Settings{
			Git: GitSettings{Command: "git --no-pager", BatchIdleMS: 500},
		}))

		settings, err := loader.Load()
		require.NoError(t, err)
		assert.Equal(t, "git --no-pager", settings.Git.Command)
		assert.Equal(t, 500, settings.Git.BatchIdleMS)
	})

	t.Run("ensure exists writes the template once", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.yaml")
		loader := NewSettingsLoaderAt(path)

		created, err := loader.EnsureExists()
		require.NoError(t, err)
		assert.True(t, created)

		created, err = loader.EnsureExists()
		require.NoError(t, err)
		assert.False(t, created)

		settings, err := loader.Load()
		require.NoError(t, err)
		assert.Equal(t, "git", settings.Git.Command)
	})
}

func TestGritHome(t *testing.T) {
	t.Run("env override wins", func(t *testing.T) {
		t.Setenv(GritHomeEnv, "/custom/grit")
		home, err := GritHome()
		require.NoError(t, err)
		assert.Equal(t, "/custom/grit", home)

		logs, err := LogsDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/custom/grit", "logs"), logs)
	})
}
