package gitexec

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/schmitthub/grit/internal/logger"
)

// Runner abstracts process execution for testability. The os/exec
// implementation is Executor; tests substitute fakes that script child
// behavior without spawning anything.
type Runner interface {
	// Run executes the spec in capture mode (or shell mode when spec.Shell
	// is set) and returns stdout with trailing whitespace trimmed. A
	// non-zero exit yields *SubprocessError unless spec.NullOnError is set,
	// in which case the result is empty and the error nil.
	Run(ctx context.Context, spec *Spec) (string, error)

	// Start executes the spec in spawn mode and returns the live handle.
	Start(ctx context.Context, spec *Spec) (Handle, error)
}

// Executor runs specs against real child processes.
type Executor struct{}

// NewExecutor returns the os/exec-backed Runner.
func NewExecutor() *Executor {
	return &Executor{}
}

// Run executes the spec and captures output. Shell mode concatenates the
// command and argv into a single quoted string run through "sh -c".
func (e *Executor) Run(ctx context.Context, spec *Spec) (string, error) {
	h, err := e.Start(ctx, spec)
	if err != nil {
		return "", err
	}
	out, err := h.CaptureOutputTrimmed(nil)
	if err != nil {
		var subErr *SubprocessError
		if spec.NullOnError && errors.As(err, &subErr) {
			return "", nil
		}
		return "", err
	}
	return out, nil
}

// Start spawns the child and returns its handle. Wait-mode semantics
// (spec.Wait) are layered on by the client, which calls Wait on the handle.
func (e *Executor) Start(ctx context.Context, spec *Spec) (Handle, error) {
	cmd := e.command(ctx, spec)
	cmd.Env = spec.Environ()
	if spec.Cwd != "" {
		cmd.Dir = spec.Cwd
	}

	logger.Debug().
		Str("command", cmd.Path).
		Strs("args", cmd.Args[1:]).
		Bool("shell", spec.Shell).
		Msg("exec")

	return newProcess(cmd, spec)
}

func (e *Executor) command(ctx context.Context, spec *Spec) *exec.Cmd {
	if spec.Shell {
		line := shellquote.Join(append([]string{spec.Command}, spec.FullArgs()...)...)
		return exec.CommandContext(ctx, "sh", "-c", line)
	}
	return exec.CommandContext(ctx, spec.Command, spec.FullArgs()...)
}

// TrimOutput removes trailing whitespace from captured output, preserving
// leading whitespace (git porcelain formats are column-sensitive).
func TrimOutput(out string) string {
	return strings.TrimRight(out, " \t\r\n")
}
