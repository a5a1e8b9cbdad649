package cmdutil

import (
	"github.com/schmitthub/grit/internal/config"
	"github.com/schmitthub/grit/internal/git"
	"github.com/schmitthub/grit/internal/iostreams"
)

// Factory provides shared dependencies for CLI commands.
// It is a dependency injection container: the struct defines what
// dependencies exist (the contract), while internal/cmd/factory
// wires the real implementations.
//
// Closure fields are set by the factory constructor and use lazy
// initialization internally. Commands read the fields they need
// directly from the Factory.
type Factory struct {
	// Repository location from global flags (set before command execution)
	GitDir    string
	WorkTree  string
	IndexFile string
	Debug     bool

	// Version info (set at build time via ldflags)
	Version string
	Commit  string

	// IO streams for input/output (for testability)
	IOStreams *iostreams.IOStreams

	// Dependency providers (closures wired by factory constructor)
	Client      func() (*git.Client, error)
	CloseClient func()

	SettingsLoader func() (*config.SettingsLoader, error)
	Settings       func() (*config.Settings, error)
}
