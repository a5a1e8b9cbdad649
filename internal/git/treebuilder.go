package git

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/schmitthub/grit/internal/gitexec"
	"github.com/schmitthub/grit/internal/logger"
)

// TreeEntry is one line of mktree input: a named child of a tree object.
type TreeEntry struct {
	Mode string // octal file mode, e.g. "100644" or "040000"
	Type string // "blob", "tree" or "commit" (gitlink)
	Hash string // 40-hex object name
	Name string // entry name within the tree
}

// String renders the entry in ls-tree / mktree line format.
func (e TreeEntry) String() string {
	return fmt.Sprintf("%s %s %s\t%s", e.Mode, e.Type, e.Hash, e.Name)
}

// ErrBuilderStopped is returned by Build after Stop.
var ErrBuilderStopped = errors.New("tree builder stopped")

// batchRequest is one outstanding build waiting on the child's stdout.
type batchRequest struct {
	done   chan struct{}
	stdout strings.Builder
	stderr strings.Builder
	hash   string
	err    error
}

func (r *batchRequest) resolve(hash string) {
	r.hash = hash
	close(r.done)
}

func (r *batchRequest) fail(err error) {
	r.err = err
	close(r.done)
}

// batchWorker is one spawned mktree --batch child plus the FIFO of requests
// it still owes output for. Requests resolve strictly in submission order:
// the child processes batches serially and emits one hash line per batch.
type batchWorker struct {
	handle gitexec.Handle
	queue  []*batchRequest // guarded by the builder's mu
}

// TreeBuilder multiplexes tree writes through a single persistent
// "git mktree --batch" child. The child is spawned on first use, fed one
// batch per request (entries joined by newlines, terminated by a blank
// line), and allowed to exit after an idle window; the next request
// respawns it.
type TreeBuilder struct {
	client *Client
	idle   time.Duration

	mu      sync.Mutex
	cur     *batchWorker
	timer   *time.Timer
	stopped bool
}

// NewTreeBuilder creates a builder bound to the client's runner. Most
// callers want Client.TreeBuilder instead, which lazily creates a shared
// instance.
func NewTreeBuilder(c *Client, idle time.Duration) *TreeBuilder {
	if idle <= 0 {
		idle = DefaultBatchIdle
	}
	return &TreeBuilder{client: c, idle: idle}
}

// Build submits one batch and blocks until the child emits its hash line.
// Entries are validated up front: a non-hex hash never reaches the child.
func (b *TreeBuilder) Build(ctx context.Context, entries []TreeEntry) (string, error) {
	for _, e := range entries {
		if !IsHash(e.Hash) {
			return "", fmt.Errorf("%w: entry %q has invalid hash %q", gitexec.ErrBadArgument, e.Name, e.Hash)
		}
	}

	req := &batchRequest{done: make(chan struct{})}

	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return "", ErrBuilderStopped
	}
	if b.cur == nil {
		if err := b.startLocked(); err != nil {
			b.mu.Unlock()
			return "", err
		}
	}
	w := b.cur
	w.queue = append(w.queue, req)

	var payload strings.Builder
	for _, e := range entries {
		payload.WriteString(e.String())
		payload.WriteString("\n")
	}
	payload.WriteString("\n")

	stdin := w.handle.Stdin()
	if stdin == nil {
		b.mu.Unlock()
		return "", errors.New("mktree batch worker stdin closed")
	}
	if _, err := stdin.Write([]byte(payload.String())); err != nil {
		w.queue = w.queue[:len(w.queue)-1]
		b.mu.Unlock()
		return "", fmt.Errorf("writing mktree batch: %w", err)
	}
	b.resetTimerLocked(w)
	b.mu.Unlock()

	select {
	case <-req.done:
		return req.hash, req.err
	case <-ctx.Done():
		// The request stays queued; the child's eventual output for it is
		// consumed and discarded in submission order.
		return "", ctx.Err()
	}
}

// startLocked spawns a fresh child. The child's lifetime is decoupled from
// any single request context; Stop and the idle timer bound it instead.
func (b *TreeBuilder) startLocked() error {
	spec, err := b.client.spec([]any{"mktree", gitexec.Options{"batch": true}})
	if err != nil {
		return err
	}
	spec.Spawn = true

	w := &batchWorker{}
	spec.OnStdout = func(line string) { b.onStdout(w, line) }
	spec.OnStderr = func(line string) { b.onStderr(w, line) }

	handle, err := b.client.runner.Start(context.Background(), spec)
	if err != nil {
		return err
	}
	w.handle = handle
	b.cur = w

	logger.Debug().Msg("mktree batch worker started")
	go b.reap(w)
	return nil
}

// onStdout completes the head request: each batch produces exactly one hash
// line, so a line means the head is done.
func (b *TreeBuilder) onStdout(w *batchWorker, line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(w.queue) == 0 {
		logger.Warn().Str("line", line).Msg("mktree output with no pending request")
		return
	}
	head := w.queue[0]
	w.queue = w.queue[1:]
	head.stdout.WriteString(line)
	head.resolve(strings.TrimSpace(head.stdout.String()))
}

func (b *TreeBuilder) onStderr(w *batchWorker, line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(w.queue) == 0 {
		logger.Warn().Str("line", line).Msg("mktree stderr with no pending request")
		return
	}
	w.queue[0].stderr.WriteString(line + "\n")
}

// reap waits for the child to exit, settles whatever the child still owes,
// and returns the builder to the unstarted state so the next request
// respawns.
func (b *TreeBuilder) reap(w *batchWorker) {
	err := w.handle.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		// Clean exit: a remaining head resolves with whatever output it
		// accumulated; anything behind it never got served.
		if len(w.queue) > 0 {
			head := w.queue[0]
			w.queue = w.queue[1:]
			head.resolve(strings.TrimSpace(head.stdout.String()))
		}
		for _, req := range w.queue {
			req.fail(errors.New("mktree batch worker exited before request was served"))
		}
	} else {
		var sub *gitexec.SubprocessError
		for i, req := range w.queue {
			if i == 0 && errors.As(err, &sub) {
				stderr := strings.TrimSpace(req.stderr.String())
				if stderr == "" {
					stderr = sub.Stderr
				}
				req.fail(&gitexec.SubprocessError{
					Code:   sub.Code,
					Stderr: stderr,
					Stdout: req.stdout.String(),
				})
				continue
			}
			req.fail(fmt.Errorf("mktree batch worker died: %w", err))
		}
	}
	w.queue = nil

	if b.cur == w {
		b.cur = nil
		b.stopTimerLocked()
	}
	logger.Debug().Err(err).Msg("mktree batch worker exited")
}

// resetTimerLocked (re)arms the idle timer for the given worker. On expiry
// the worker's stdin is closed so the child drains its last batch and exits.
func (b *TreeBuilder) resetTimerLocked(w *batchWorker) {
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.idle, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.cur != w {
			return
		}
		b.closeStdinLocked(w)
		b.cur = nil
	})
}

func (b *TreeBuilder) stopTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func (b *TreeBuilder) closeStdinLocked(w *batchWorker) {
	if stdin := w.handle.Stdin(); stdin != nil {
		if err := stdin.Close(); err != nil {
			logger.Debug().Err(err).Msg("closing mktree batch stdin")
		}
	}
}

// Stop clears the idle timer and closes the child's stdin so it terminates
// cleanly. Pending requests still resolve as the child drains. The builder
// cannot be reused afterwards.
func (b *TreeBuilder) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	b.stopped = true
	b.stopTimerLocked()
	if b.cur != nil {
		b.closeStdinLocked(b.cur)
		b.cur = nil
	}
}
