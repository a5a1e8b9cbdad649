// Package factory wires the real dependencies behind cmdutil.Factory.
package factory

import (
	"sync"

	"github.com/schmitthub/grit/internal/cmdutil"
	"github.com/schmitthub/grit/internal/config"
	"github.com/schmitthub/grit/internal/git"
	"github.com/schmitthub/grit/internal/iostreams"
)

// New creates a Factory with lazily-initialized providers. The git client
// is created once, configured from settings plus the factory's repository
// location flags; CloseClient terminates its batch worker.
func New(version, commit string) *cmdutil.Factory {
	f := &cmdutil.Factory{
		Version:   version,
		Commit:    commit,
		IOStreams: iostreams.System(),
	}

	var (
		loaderOnce sync.Once
		loader     *config.SettingsLoader
		loaderErr  error
	)
	f.SettingsLoader = func() (*config.SettingsLoader, error) {
		loaderOnce.Do(func() {
			loader, loaderErr = config.NewSettingsLoader()
		})
		return loader, loaderErr
	}

	var (
		settingsOnce sync.Once
		settings     *config.Settings
		settingsErr  error
	)
	f.Settings = func() (*config.Settings, error) {
		settingsOnce.Do(func() {
			l, err := f.SettingsLoader()
			if err != nil {
				settingsErr = err
				return
			}
			settings, settingsErr = l.Load()
		})
		return settings, settingsErr
	}

	var (
		clientOnce sync.Once
		client     *git.Client
		clientErr  error
	)
	f.Client = func() (*git.Client, error) {
		clientOnce.Do(func() {
			settings, err := f.Settings()
			if err != nil {
				clientErr = err
				return
			}
			command, baseArgs, err := settings.Git.SplitCommand()
			if err != nil {
				clientErr = err
				return
			}
			opts := []git.Option{
				git.WithCommand(command, baseArgs...),
				git.WithBatchIdle(settings.Git.BatchIdle()),
			}
			if f.GitDir != "" {
				opts = append(opts, git.WithGitDir(f.GitDir))
			}
			if f.WorkTree != "" {
				opts = append(opts, git.WithWorkTree(f.WorkTree))
			}
			if f.IndexFile != "" {
				opts = append(opts, git.WithIndexFile(f.IndexFile))
			}
			client = git.New(opts...)
		})
		return client, clientErr
	}
	f.CloseClient = func() {
		if client != nil {
			client.Cleanup()
		}
	}

	return f
}
