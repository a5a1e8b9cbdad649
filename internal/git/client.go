// Package git drives the installed git binary as a subprocess. It exposes a
// stateful Client bound to an optional git-dir / work-tree / index-file, a
// generic Exec accepting interleaved positionals and option maps, a family of
// per-subcommand wrappers, and a persistent batched tree builder multiplexing
// mktree requests through one long-lived child.
//
// This is a leaf-tier package: it imports only stdlib, third-party libraries
// and internal/gitexec — never command or config packages. Configuration is
// passed in through Options.
package git

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/schmitthub/grit/internal/gitexec"
)

// DefaultCommand is the binary driven when none is configured.
const DefaultCommand = "git"

// DefaultBatchIdle is how long the batched mktree child may sit idle before
// its stdin is closed and it is allowed to exit.
const DefaultBatchIdle = time.Second

// EmptyTreeHash is the canonical object name of the empty git tree. A tree
// whose entries all resolve to nothing serializes to this hash without
// touching the object store.
const EmptyTreeHash = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

var hashRe = regexp.MustCompile(`^[0-9a-f]{40}$`)

// Client is the stateful facade over the git binary. The zero value is not
// usable; construct with New. A Client and its batched child are safe for
// concurrent use; Cleanup must be called before the process exits so the
// batched child does not outlive it.
type Client struct {
	command   string
	baseArgs  []string
	gitDir    string
	workTree  string
	indexFile string

	runner gitexec.Runner

	versionOnce sync.Once
	version     string
	versionErr  error

	batchMu   sync.Mutex
	batch     *TreeBuilder
	batchIdle time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithGitDir pins the repository's .git directory (--git-dir).
func WithGitDir(dir string) Option {
	return func(c *Client) { c.gitDir = dir }
}

// WithWorkTree pins the working tree root (--work-tree).
func WithWorkTree(dir string) Option {
	return func(c *Client) { c.workTree = dir }
}

// WithIndexFile pins the index file (GIT_INDEX_FILE).
func WithIndexFile(path string) Option {
	return func(c *Client) { c.indexFile = path }
}

// WithCommand overrides the binary to drive. Extra tokens beyond the first
// become base arguments prepended to every invocation, so a configured
// command like "git --no-pager" works.
func WithCommand(command string, baseArgs ...string) Option {
	return func(c *Client) {
		c.command = command
		c.baseArgs = baseArgs
	}
}

// WithRunner substitutes the process runner. Tests use this to script child
// behavior without spawning anything.
func WithRunner(r gitexec.Runner) Option {
	return func(c *Client) { c.runner = r }
}

// WithBatchIdle overrides the batched tree builder's idle window.
func WithBatchIdle(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.batchIdle = d
		}
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		command:   DefaultCommand,
		runner:    gitexec.NewExecutor(),
		batchIdle: DefaultBatchIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// spec decodes a heterogeneous argument list and applies the client's bound
// locations as defaults; per-call $gitDir / $workTree / $indexFile win.
func (c *Client) spec(args []any) (*gitexec.Spec, error) {
	spec, err := gitexec.ParseArgs(args...)
	if err != nil {
		return nil, err
	}
	spec.Command = c.command
	spec.BaseArgs = c.baseArgs
	if spec.GitDir == "" {
		spec.GitDir = c.gitDir
	}
	if spec.WorkTree == "" {
		spec.WorkTree = c.workTree
	}
	if spec.IndexFile == "" {
		spec.IndexFile = c.indexFile
	}
	return spec, nil
}

// Exec runs a git invocation in capture mode and returns stdout with
// trailing whitespace trimmed. The first string argument is the subcommand;
// later strings are positionals; Options maps encode in place. With
// $nullOnError a non-zero exit returns ("", nil) instead of an error.
func (c *Client) Exec(ctx context.Context, args ...any) (string, error) {
	spec, err := c.spec(args)
	if err != nil {
		return "", err
	}
	return c.runner.Run(ctx, spec)
}

// Start runs a git invocation in spawn mode and returns the live handle.
// Callers own the handle and must consume it via CaptureOutput or Wait.
func (c *Client) Start(ctx context.Context, args ...any) (gitexec.Handle, error) {
	spec, err := c.spec(args)
	if err != nil {
		return nil, err
	}
	spec.Spawn = true
	return c.runner.Start(ctx, spec)
}

// Run is spawn-plus-wait: the invocation's output streams through any
// installed line callbacks and Run resolves on exit 0, failing with the
// subprocess error otherwise.
func (c *Client) Run(ctx context.Context, args ...any) error {
	spec, err := c.spec(args)
	if err != nil {
		return err
	}
	spec.Spawn = true
	spec.Wait = true
	h, err := c.runner.Start(ctx, spec)
	if err != nil {
		return err
	}
	return h.Wait()
}

// IsHash reports whether s is a full 40-hex object name.
func IsHash(s string) bool {
	return hashRe.MatchString(s)
}

// TreeHash resolves any tree-ish (commit, tag, branch, HEAD) to the hash of
// its tree via rev-parse --verify ref^{tree}.
func (c *Client) TreeHash(ctx context.Context, ref string) (string, error) {
	return c.Exec(ctx, "rev-parse", gitexec.Options{"verify": true}, ref+"^{tree}")
}

// GitDirPath locates the repository's .git directory.
func (c *Client) GitDirPath(ctx context.Context) (string, error) {
	return c.Exec(ctx, "rev-parse", gitexec.Options{"git-dir": true})
}

// TopLevel locates the root of the working tree.
func (c *Client) TopLevel(ctx context.Context) (string, error) {
	return c.Exec(ctx, "rev-parse", gitexec.Options{"show-toplevel": true})
}

// TreeBuilder returns the batched mktree worker, creating it on first use.
func (c *Client) TreeBuilder() *TreeBuilder {
	c.batchMu.Lock()
	defer c.batchMu.Unlock()
	if c.batch == nil {
		c.batch = NewTreeBuilder(c, c.batchIdle)
	}
	return c.batch
}

// MkTreeBatch builds a tree object from entries through the persistent
// mktree --batch child and returns its hash.
func (c *Client) MkTreeBatch(ctx context.Context, entries []TreeEntry) (string, error) {
	return c.TreeBuilder().Build(ctx, entries)
}

// Cleanup releases the batched child, if one is running. Callers must invoke
// it on shutdown; the root command registers it as a post-run hook.
func (c *Client) Cleanup() {
	c.batchMu.Lock()
	batch := c.batch
	c.batch = nil
	c.batchMu.Unlock()
	if batch != nil {
		batch.Stop()
	}
}
