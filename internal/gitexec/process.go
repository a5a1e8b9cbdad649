package gitexec

import (
	"bufio"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/schmitthub/grit/internal/logger"
)

// Handle is a live child process as seen by callers of spawn mode. The real
// implementation is Process; tests install fakes through the Runner seam.
type Handle interface {
	// Stdin returns the child's stdin writer. Nil once closed.
	Stdin() io.WriteCloser

	// Wait blocks until the child exits and all output has been consumed.
	// A non-zero exit reports *SubprocessError. Safe to call more than once.
	Wait() error

	// CaptureOutput writes input (if non-nil), closes stdin, waits for a
	// clean exit and returns the full captured stdout. Memoized: repeat
	// calls return the first result.
	CaptureOutput(input []byte) (string, error)

	// CaptureOutputTrimmed is CaptureOutput with trailing whitespace removed.
	CaptureOutputTrimmed(input []byte) (string, error)

	// Kill terminates the child immediately.
	Kill() error
}

// Process wraps a running child with line-oriented output handling. Stdout
// and stderr are read by background goroutines that buffer partial lines
// across reads and deliver exactly one callback per newline-terminated line;
// a trailing unterminated line is delivered at EOF if non-empty.
type Process struct {
	cmd   *exec.Cmd
	spec  *Spec
	stdin io.WriteCloser

	stdout *cappedBuffer
	stderr *cappedBuffer

	readers sync.WaitGroup

	waitOnce sync.Once
	waitErr  error

	captureOnce sync.Once
	captured    string
	captureErr  error

	mu          sync.Mutex
	stdinClosed bool
}

func newProcess(cmd *exec.Cmd, spec *Spec) (*Process, error) {
	p := &Process{
		cmd:    cmd,
		spec:   spec,
		stdout: newCappedBuffer(spec.MaxOutput),
		stderr: newCappedBuffer(spec.MaxOutput),
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	p.stdin = stdin

	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, &ExecError{Command: cmd.Path, Err: err}
	}

	p.readers.Add(2)
	go p.consume(outPipe, p.stdout, spec.OnStdout, spec.Passthrough, "stdout")
	go p.consume(errPipe, p.stderr, spec.OnStderr, spec.Passthrough, "stderr")

	return p, nil
}

// consume reads a pipe to EOF, appending to buf and delivering complete
// lines to cb. bufio's ReadString carries partial lines across reads; the
// final fragment without a newline is still delivered.
func (p *Process) consume(r io.Reader, buf *cappedBuffer, cb func(string), passthrough bool, stream string) {
	defer p.readers.Done()
	br := bufio.NewReader(r)
	for {
		chunk, err := br.ReadString('\n')
		if chunk != "" {
			buf.WriteString(chunk)
			line := strings.TrimSuffix(chunk, "\n")
			if line != "" || strings.HasSuffix(chunk, "\n") {
				p.deliver(line, cb, passthrough, stream)
			}
		}
		if err != nil {
			return
		}
	}
}

func (p *Process) deliver(line string, cb func(string), passthrough bool, stream string) {
	if cb != nil {
		cb(line)
	}
	if passthrough {
		if stream == "stderr" {
			logger.Warn().Str("stream", stream).Msg(line)
		} else {
			logger.Info().Str("stream", stream).Msg(line)
		}
	}
}

// Stdin returns the child's stdin writer, or nil after CloseStdin.
func (p *Process) Stdin() io.WriteCloser {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stdinClosed {
		return nil
	}
	return p.stdin
}

// CloseStdin closes the child's stdin. Idempotent.
func (p *Process) CloseStdin() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stdinClosed {
		return nil
	}
	p.stdinClosed = true
	return p.stdin.Close()
}

// Wait blocks until the child exits. Output goroutines are drained first so
// captured buffers and line callbacks are complete when Wait returns.
func (p *Process) Wait() error {
	p.waitOnce.Do(func() {
		p.readers.Wait()
		err := p.cmd.Wait()
		if err == nil {
			return
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			p.waitErr = &SubprocessError{
				Code:   exitErr.ExitCode(),
				Stderr: p.stderr.String(),
				Stdout: p.stdout.String(),
			}
			return
		}
		p.waitErr = err
	})
	return p.waitErr
}

// CaptureOutput writes input (if non-nil), closes stdin, and resolves to the
// full stdout on clean exit. On non-zero exit the error is a
// *SubprocessError carrying code, stderr and the partial stdout.
func (p *Process) CaptureOutput(input []byte) (string, error) {
	p.captureOnce.Do(func() {
		if input != nil {
			if _, err := p.stdin.Write(input); err != nil {
				// Child may have exited already; the Wait below surfaces
				// the real failure.
				logger.Debug().Err(err).Msg("writing process stdin")
			}
		}
		if err := p.CloseStdin(); err != nil {
			logger.Debug().Err(err).Msg("closing process stdin")
		}
		if err := p.Wait(); err != nil {
			p.captureErr = err
			return
		}
		p.captured = p.stdout.String()
	})
	return p.captured, p.captureErr
}

// CaptureOutputTrimmed is CaptureOutput with trailing whitespace trimmed.
func (p *Process) CaptureOutputTrimmed(input []byte) (string, error) {
	out, err := p.CaptureOutput(input)
	return strings.TrimRight(out, " \t\r\n"), err
}

// Kill terminates the child immediately.
func (p *Process) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

// Stdout returns the stdout captured so far.
func (p *Process) Stdout() string { return p.stdout.String() }

// Stderr returns the stderr captured so far.
func (p *Process) Stderr() string { return p.stderr.String() }

// cappedBuffer retains at most max bytes; writes beyond the cap are dropped.
type cappedBuffer struct {
	mu  sync.Mutex
	max int64
	b   strings.Builder
}

func newCappedBuffer(max int64) *cappedBuffer {
	if max <= 0 {
		max = DefaultMaxOutput
	}
	return &cappedBuffer{max: max}
}

func (c *cappedBuffer) WriteString(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := c.max - int64(c.b.Len())
	if remaining <= 0 {
		return
	}
	if int64(len(s)) > remaining {
		s = s[:remaining]
	}
	c.b.WriteString(s)
}

func (c *cappedBuffer) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.b.String()
}
