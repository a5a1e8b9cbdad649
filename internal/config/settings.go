package config

import (
	"time"

	"github.com/google/shlex"
)

// Settings represents user-level configuration stored in
// ~/.local/grit/settings.yaml. Settings are global and apply to every
// repository grit touches.
type Settings struct {
	// Git configures the driven binary and the batch worker.
	Git GitSettings `yaml:"git,omitempty" mapstructure:"git"`

	// Logging configures file-based logging.
	// File logging is ENABLED by default - users can disable via settings.yaml.
	Logging LoggingConfig `yaml:"logging,omitempty" mapstructure:"logging"`
}

// GitSettings configures how the git binary is invoked.
type GitSettings struct {
	// Command is the binary to drive (default: "git"). It may carry
	// arguments, e.g. "git --no-pager"; the string is shell-word split.
	Command string `yaml:"command,omitempty" mapstructure:"command"`
	// BatchIdleMS is the mktree --batch idle window in milliseconds
	// before the worker's stdin is closed (default: 1000).
	BatchIdleMS int `yaml:"batch_idle_ms,omitempty" mapstructure:"batch_idle_ms"`
}

// SplitCommand shell-word splits the configured command into the binary and
// its base arguments.
func (g *GitSettings) SplitCommand() (string, []string, error) {
	command := g.Command
	if command == "" {
		command = "git"
	}
	words, err := shlex.Split(command)
	if err != nil || len(words) == 0 {
		return "git", nil, err
	}
	return words[0], words[1:], nil
}

// BatchIdle returns the batch idle window, defaulting to one second.
func (g *GitSettings) BatchIdle() time.Duration {
	if g.BatchIdleMS <= 0 {
		return time.Second
	}
	return time.Duration(g.BatchIdleMS) * time.Millisecond
}

// LoggingConfig configures file-based logging.
type LoggingConfig struct {
	// FileEnabled enables logging to file (default: true)
	FileEnabled *bool `yaml:"file_enabled,omitempty" mapstructure:"file_enabled"`
	// MaxSizeMB is the max size in MB before rotation (default: 50)
	MaxSizeMB int `yaml:"max_size_mb,omitempty" mapstructure:"max_size_mb"`
	// MaxAgeDays is max days to retain old logs (default: 7)
	MaxAgeDays int `yaml:"max_age_days,omitempty" mapstructure:"max_age_days"`
	// MaxBackups is max number of old log files to keep (default: 3)
	MaxBackups int `yaml:"max_backups,omitempty" mapstructure:"max_backups"`
}

// DefaultSettings returns settings with every knob at its default.
func DefaultSettings() *Settings {
	return &Settings{
		Git: GitSettings{
			Command:     "git",
			BatchIdleMS: 1000,
		},
	}
}

// DefaultSettingsYAML is the template written by EnsureExists.
const DefaultSettingsYAML = `# grit user settings
git:
  command: git
  batch_idle_ms: 1000

logging:
  file_enabled: true
  max_size_mb: 50
  max_age_days: 7
  max_backups: 3
`
