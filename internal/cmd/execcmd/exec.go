// Package execcmd implements "grit exec": a generic passthrough to any git
// subcommand through the client's executor.
package execcmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schmitthub/grit/internal/cmdutil"
	"github.com/schmitthub/grit/internal/gitexec"
)

// NewCmdExec creates the "exec" subcommand.
func NewCmdExec(f *cmdutil.Factory) *cobra.Command {
	var (
		stream      bool
		nullOnError bool
	)

	cmd := &cobra.Command{
		Use:   "exec -- <subcommand> [args...]",
		Short: "Run an arbitrary git subcommand through the executor",
		Long: `Run any git subcommand with grit's argv and environment handling:
the configured binary, --git-dir/--work-tree placement and GIT_INDEX_FILE
composition all apply. With --stream, output lines are forwarded as they
arrive instead of being captured.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := f.Client()
			if err != nil {
				return err
			}

			callArgs := make([]any, 0, len(args)+1)
			for _, a := range args {
				callArgs = append(callArgs, a)
			}

			if stream {
				callArgs = append(callArgs, gitexec.Options{
					"$onStdout": func(line string) { fmt.Fprintln(f.IOStreams.Out, line) },
					"$onStderr": func(line string) { fmt.Fprintln(f.IOStreams.ErrOut, line) },
				})
				if err := client.Run(cmd.Context(), callArgs...); err != nil {
					return exitError(f, err)
				}
				return nil
			}

			if nullOnError {
				callArgs = append(callArgs, gitexec.Options{"$nullOnError": true})
			}
			out, err := client.Exec(cmd.Context(), callArgs...)
			if err != nil {
				return exitError(f, err)
			}
			if out != "" {
				fmt.Fprintln(f.IOStreams.Out, out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stream, "stream", false, "Stream output lines instead of capturing")
	cmd.Flags().BoolVar(&nullOnError, "null-on-error", false, "Exit 0 with no output when git fails")
	// Flags after the subcommand belong to git, not to exec.
	cmd.Flags().SetInterspersed(false)

	return cmd
}

// exitError maps a git failure to the CLI error contract: stderr has
// already been shaped by git, so print it once and exit with git's code.
func exitError(f *cmdutil.Factory, err error) error {
	var subErr *gitexec.SubprocessError
	if errors.As(err, &subErr) {
		if subErr.Stderr != "" {
			fmt.Fprint(f.IOStreams.ErrOut, subErr.Stderr)
		}
		return &cmdutil.ExitError{Code: subErr.Code}
	}
	return err
}
