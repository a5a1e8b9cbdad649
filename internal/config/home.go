package config

import (
	"os"
	"path/filepath"
)

const (
	// GritHomeEnv is the environment variable for the grit home directory
	GritHomeEnv = "GRIT_HOME"
	// DefaultGritDir is the default directory under the user home
	DefaultGritDir = ".local/grit"
	// LogsSubdir is the subdirectory for log files
	LogsSubdir = "logs"
)

// GritHome returns the grit home directory.
// It checks GRIT_HOME first, then defaults to ~/.local/grit
func GritHome() (string, error) {
	if home := os.Getenv(GritHomeEnv); home != "" {
		return home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultGritDir), nil
}

// LogsDir returns the log directory (~/.local/grit/logs)
func LogsDir() (string, error) {
	home, err := GritHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, LogsSubdir), nil
}
