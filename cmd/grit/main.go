// Grit is a command-line client for the git object store. It drives the
// installed git binary as a subprocess and layers an in-memory tree model
// on top: lazy hydration, filtered merges and batched write-back.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/schmitthub/grit/internal/cmd/factory"
	"github.com/schmitthub/grit/internal/cmd/root"
	"github.com/schmitthub/grit/internal/cmdutil"
	"github.com/schmitthub/grit/internal/logger"
	"github.com/schmitthub/grit/internal/signals"
)

// Set at build time via ldflags.
var (
	version   = "dev"
	buildDate = ""
	commit    = ""
)

func main() {
	os.Exit(run())
}

func run() int {
	defer logger.CloseFileWriter() //nolint:errcheck

	f := factory.New(version, commit)

	// The batched mktree child must die with the process, even on SIGINT.
	stop := signals.OnShutdown(f.CloseClient)
	defer stop()

	rootCmd, err := root.NewCmdRoot(f, version, buildDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		return 1
	}

	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return 0
	}

	var exitErr *cmdutil.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	if errors.Is(err, cmdutil.SilentError) {
		return 1
	}

	var flagErr *cmdutil.FlagError
	if errors.As(err, &flagErr) {
		fmt.Fprintf(os.Stderr, "%s\n\n%s\n", flagErr, cmd.UsageString())
		return 1
	}

	fmt.Fprintf(os.Stderr, "%s\n", err)
	return 1
}
