// Package gittest provides test utilities for the git package: an in-memory,
// content-addressed stand-in for the git binary that plugs in through the
// gitexec.Runner seam. Tests exercise the real client, tree builder and tree
// model against it without spawning processes.
package gittest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/schmitthub/grit/internal/git"
	"github.com/schmitthub/grit/internal/gitexec"
)

var entryRe = regexp.MustCompile(`^([0-7]+) (blob|tree|commit) ([0-9a-f]{40})\t(.+)$`)

// FakeGit is an in-memory object store that answers the subset of git
// subcommands the library drives: ls-tree, mktree --batch, hash-object,
// rev-parse, version. Anything else is served from stubs installed with
// Stub. All methods are safe for concurrent use.
type FakeGit struct {
	mu      sync.Mutex
	trees   map[string][]git.TreeEntry
	blobs   map[string]string
	refs    map[string]string // ref → tree hash, for rev-parse X^{tree}
	stubs   map[string]stubResponse
	specs   []*gitexec.Spec
	version string
}

type stubResponse struct {
	stdout string
	stderr string
	code   int
}

// NewFakeGit creates an empty fake object store reporting git 2.34.1.
func NewFakeGit() *FakeGit {
	return &FakeGit{
		trees:   map[string][]git.TreeEntry{},
		blobs:   map[string]string{},
		refs:    map[string]string{},
		stubs:   map[string]stubResponse{},
		version: "2.34.1",
	}
}

// SetVersion overrides the version string reported by "git version".
func (f *FakeGit) SetVersion(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.version = v
}

// Stub installs a canned response for a subcommand the fake does not model.
func (f *FakeGit) Stub(subcommand, stdout, stderr string, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stubs[subcommand] = stubResponse{stdout: stdout, stderr: stderr, code: code}
}

// SetRef maps a ref name to a tree hash for rev-parse --verify ref^{tree}.
func (f *FakeGit) SetRef(ref, treeHash string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refs[ref] = treeHash
}

// Specs returns every invocation spec the fake has seen, in order.
func (f *FakeGit) Specs() []*gitexec.Spec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*gitexec.Spec{}, f.specs...)
}

// CallCount returns how many invocations named the given subcommand.
func (f *FakeGit) CallCount(subcommand string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.specs {
		if s.Subcommand == subcommand {
			n++
		}
	}
	return n
}

// PutBlob stores content and returns its hash.
func (f *FakeGit) PutBlob(content string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.putBlobLocked(content)
}

func (f *FakeGit) putBlobLocked(content string) string {
	h := hashOf("blob\x00" + content)
	f.blobs[h] = content
	return h
}

// PutTree stores a tree with the given entries and returns its hash.
func (f *FakeGit) PutTree(entries []git.TreeEntry) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.putTreeLocked(entries)
}

// putTreeLocked canonicalizes (sorts by name) and content-addresses the
// entry set, mirroring real mktree: equal content gives equal identity.
func (f *FakeGit) putTreeLocked(entries []git.TreeEntry) string {
	if len(entries) == 0 {
		return git.EmptyTreeHash
	}
	sorted := append([]git.TreeEntry{}, entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var canon strings.Builder
	canon.WriteString("tree\x00")
	for _, e := range sorted {
		canon.WriteString(e.String())
		canon.WriteString("\n")
	}
	h := hashOf(canon.String())
	f.trees[h] = sorted
	return h
}

// Seed builds a nested tree from a flat path → blob-content map and returns
// the root tree hash. Convenient for arranging fixtures.
func (f *FakeGit) Seed(files map[string]string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seedDir(files, "")
}

func (f *FakeGit) seedDir(files map[string]string, prefix string) string {
	direct := map[string]string{}   // name → content
	subdirs := map[string]bool{}

	for path, content := range files {
		if prefix != "" {
			if !strings.HasPrefix(path, prefix+"/") {
				continue
			}
			path = strings.TrimPrefix(path, prefix+"/")
		}
		if i := strings.IndexByte(path, '/'); i >= 0 {
			subdirs[path[:i]] = true
		} else {
			direct[path] = content
		}
	}

	var entries []git.TreeEntry
	for name, content := range direct {
		entries = append(entries, git.TreeEntry{
			Mode: "100644", Type: "blob", Hash: f.putBlobLocked(content), Name: name,
		})
	}
	for name := range subdirs {
		sub := prefix + "/" + name
		if prefix == "" {
			sub = name
		}
		entries = append(entries, git.TreeEntry{
			Mode: "040000", Type: "tree", Hash: f.seedDir(files, sub), Name: name,
		})
	}
	return f.putTreeLocked(entries)
}

// Tree returns the stored entries for a tree hash.
func (f *FakeGit) Tree(hash string) ([]git.TreeEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if hash == git.EmptyTreeHash {
		return nil, true
	}
	e, ok := f.trees[hash]
	return e, ok
}

// Blob returns the stored content for a blob hash.
func (f *FakeGit) Blob(hash string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.blobs[hash]
	return c, ok
}

// Flatten returns the blob entries of a tree recursively as path → hash.
func (f *FakeGit) Flatten(hash string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	f.flattenLocked(hash, "", out)
	return out
}

func (f *FakeGit) flattenLocked(hash, prefix string, out map[string]string) {
	for _, e := range f.trees[hash] {
		path := e.Name
		if prefix != "" {
			path = prefix + "/" + e.Name
		}
		if e.Type == "tree" {
			f.flattenLocked(e.Hash, path, out)
		} else {
			out[path] = e.Hash
		}
	}
}

// --- gitexec.Runner ---

// Run serves capture mode.
func (f *FakeGit) Run(_ context.Context, spec *gitexec.Spec) (string, error) {
	f.record(spec)
	out, stderr, code := f.dispatch(spec)
	if code != 0 {
		if spec.NullOnError {
			return "", nil
		}
		return "", &gitexec.SubprocessError{Code: code, Stderr: stderr, Stdout: out}
	}
	return gitexec.TrimOutput(out), nil
}

// Start serves spawn mode. mktree --batch and hash-object get live
// protocol-speaking handles; everything else gets a canned handle.
func (f *FakeGit) Start(_ context.Context, spec *gitexec.Spec) (gitexec.Handle, error) {
	f.record(spec)
	switch spec.Subcommand {
	case "mktree":
		if hasFlag(spec.Argv, "--batch") {
			return newMktreeHandle(f, spec), nil
		}
	case "hash-object":
		return newHashObjectHandle(f, spec), nil
	}
	out, stderr, code := f.dispatch(spec)
	return newCannedHandle(spec, out, stderr, code), nil
}

func (f *FakeGit) record(spec *gitexec.Spec) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.specs = append(f.specs, spec)
}

func (f *FakeGit) dispatch(spec *gitexec.Spec) (stdout, stderr string, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch spec.Subcommand {
	case "version":
		return "git version " + f.version + "\n", "", 0
	case "ls-tree":
		return f.lsTreeLocked(spec.Argv)
	case "rev-parse":
		return f.revParseLocked(spec.Argv)
	default:
		if stub, ok := f.stubs[spec.Subcommand]; ok {
			return stub.stdout, stub.stderr, stub.code
		}
		return "", fmt.Sprintf("fatal: unhandled subcommand %q\n", spec.Subcommand), 128
	}
}

func (f *FakeGit) lsTreeLocked(argv []string) (string, string, int) {
	recursive := hasFlag(argv, "-r")
	withTrees := hasFlag(argv, "-t")
	hash := lastPositional(argv)

	if hash != git.EmptyTreeHash {
		if _, ok := f.trees[hash]; !ok {
			return "", fmt.Sprintf("fatal: not a tree object: %s\n", hash), 128
		}
	}

	var sb strings.Builder
	f.listLocked(&sb, hash, "", recursive, withTrees)
	return sb.String(), "", 0
}

func (f *FakeGit) listLocked(sb *strings.Builder, hash, prefix string, recursive, withTrees bool) {
	for _, e := range f.trees[hash] {
		path := e.Name
		if prefix != "" {
			path = prefix + "/" + e.Name
		}
		if e.Type == "tree" {
			if !recursive || withTrees {
				fmt.Fprintf(sb, "%s %s %s\t%s\n", e.Mode, e.Type, e.Hash, path)
			}
			if recursive {
				f.listLocked(sb, e.Hash, path, recursive, withTrees)
			}
		} else {
			fmt.Fprintf(sb, "%s %s %s\t%s\n", e.Mode, e.Type, e.Hash, path)
		}
	}
}

func (f *FakeGit) revParseLocked(argv []string) (string, string, int) {
	arg := lastPositional(argv)
	if strings.HasSuffix(arg, "^{tree}") {
		ref := strings.TrimSuffix(arg, "^{tree}")
		if h, ok := f.refs[ref]; ok {
			return h + "\n", "", 0
		}
		if _, ok := f.trees[ref]; ok {
			return ref + "\n", "", 0
		}
		return "", fmt.Sprintf("fatal: Needed a single revision: %s\n", arg), 128
	}
	if h, ok := f.refs[arg]; ok {
		return h + "\n", "", 0
	}
	return "", fmt.Sprintf("fatal: ambiguous argument %q\n", arg), 128
}

func hasFlag(argv []string, flag string) bool {
	for _, a := range argv {
		if a == flag {
			return true
		}
	}
	return false
}

func lastPositional(argv []string) string {
	for i := len(argv) - 1; i >= 0; i-- {
		if !strings.HasPrefix(argv[i], "-") {
			return argv[i]
		}
	}
	return ""
}

func hashOf(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// --- handles ---

// mktreeHandle speaks the mktree --batch protocol: batches arrive on stdin
// as entry lines terminated by a blank line; one hash line is emitted per
// batch through the spec's stdout callback. Callbacks are delivered from a
// separate goroutine, as a real child's pipe reader would, so a caller
// holding its own lock around the stdin write cannot deadlock.
type mktreeHandle struct {
	f    *FakeGit
	spec *gitexec.Spec

	mu     sync.Mutex
	buf    strings.Builder
	closed bool
	failed bool
	stderr string
	stdout strings.Builder

	emit   chan emitMsg
	exited chan struct{}
}

type emitMsg struct {
	stream string
	line   string
}

func newMktreeHandle(f *FakeGit, spec *gitexec.Spec) *mktreeHandle {
	h := &mktreeHandle{
		f:      f,
		spec:   spec,
		emit:   make(chan emitMsg, 64),
		exited: make(chan struct{}),
	}
	go func() {
		for msg := range h.emit {
			switch msg.stream {
			case "stdout":
				if spec.OnStdout != nil {
					spec.OnStdout(msg.line)
				}
			case "stderr":
				if spec.OnStderr != nil {
					spec.OnStderr(msg.line)
				}
			}
		}
		close(h.exited)
	}()
	return h
}

func (h *mktreeHandle) Stdin() io.WriteCloser { return h }

func (h *mktreeHandle) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, io.ErrClosedPipe
	}
	h.buf.Write(p)
	h.drainLocked()
	return len(p), nil
}

// drainLocked processes every complete batch currently buffered. A batch is
// entry lines terminated by an empty line; a leading empty line is a valid
// zero-entry batch.
func (h *mktreeHandle) drainLocked() {
	for {
		data := h.buf.String()
		var batch, rest string
		if strings.HasPrefix(data, "\n") {
			batch, rest = "", data[1:]
		} else if idx := strings.Index(data, "\n\n"); idx >= 0 {
			batch, rest = data[:idx], data[idx+2:]
		} else {
			return
		}
		h.buf.Reset()
		h.buf.WriteString(rest)

		var entries []git.TreeEntry
		ok := true
		for _, line := range strings.Split(batch, "\n") {
			if line == "" {
				continue
			}
			m := entryRe.FindStringSubmatch(line)
			if m == nil {
				ok = false
				break
			}
			entries = append(entries, git.TreeEntry{Mode: m[1], Type: m[2], Hash: m[3], Name: m[4]})
		}
		if !ok {
			h.failed = true
			h.stderr = "fatal: input format error\n"
			h.emit <- emitMsg{stream: "stderr", line: "fatal: input format error"}
			if !h.closed {
				h.closed = true
				close(h.emit)
			}
			return
		}

		hash := h.f.PutTree(entries)
		h.stdout.WriteString(hash + "\n")
		h.emit <- emitMsg{stream: "stdout", line: hash}
	}
}

func (h *mktreeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		close(h.emit)
	}
	return nil
}

func (h *mktreeHandle) Wait() error {
	<-h.exited
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failed {
		return &gitexec.SubprocessError{Code: 128, Stderr: h.stderr, Stdout: h.stdout.String()}
	}
	return nil
}

func (h *mktreeHandle) CaptureOutput(input []byte) (string, error) {
	if input != nil {
		if _, err := h.Write(input); err != nil {
			return "", err
		}
	}
	if err := h.Close(); err != nil {
		return "", err
	}
	if err := h.Wait(); err != nil {
		return "", err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stdout.String(), nil
}

func (h *mktreeHandle) CaptureOutputTrimmed(input []byte) (string, error) {
	out, err := h.CaptureOutput(input)
	return gitexec.TrimOutput(out), err
}

func (h *mktreeHandle) Kill() error { return h.Close() }

// hashObjectHandle serves "hash-object -w --stdin": stdin content is stored
// as a blob and its hash is the sole stdout line.
type hashObjectHandle struct {
	f    *FakeGit
	spec *gitexec.Spec

	mu     sync.Mutex
	buf    strings.Builder
	closed bool
	hash   string
	done   chan struct{}
}

func newHashObjectHandle(f *FakeGit, spec *gitexec.Spec) *hashObjectHandle {
	return &hashObjectHandle{f: f, spec: spec, done: make(chan struct{})}
}

func (h *hashObjectHandle) Stdin() io.WriteCloser { return h }

func (h *hashObjectHandle) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, io.ErrClosedPipe
	}
	h.buf.Write(p)
	return len(p), nil
}

func (h *hashObjectHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.hash = h.f.PutBlob(h.buf.String())
	if h.spec.OnStdout != nil {
		h.spec.OnStdout(h.hash)
	}
	close(h.done)
	return nil
}

func (h *hashObjectHandle) Wait() error {
	<-h.done
	return nil
}

func (h *hashObjectHandle) CaptureOutput(input []byte) (string, error) {
	if input != nil {
		if _, err := h.Write(input); err != nil {
			return "", err
		}
	}
	if err := h.Close(); err != nil {
		return "", err
	}
	if err := h.Wait(); err != nil {
		return "", err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hash + "\n", nil
}

func (h *hashObjectHandle) CaptureOutputTrimmed(input []byte) (string, error) {
	out, err := h.CaptureOutput(input)
	return gitexec.TrimOutput(out), err
}

func (h *hashObjectHandle) Kill() error { return h.Close() }

// cannedHandle replays a fixed response, line callbacks included.
type cannedHandle struct {
	spec   *gitexec.Spec
	stdout string
	stderr string
	code   int

	once sync.Once
}

func newCannedHandle(spec *gitexec.Spec, stdout, stderr string, code int) *cannedHandle {
	return &cannedHandle{spec: spec, stdout: stdout, stderr: stderr, code: code}
}

func (h *cannedHandle) Stdin() io.WriteCloser { return nopWriteCloser{} }

func (h *cannedHandle) deliver() {
	h.once.Do(func() {
		if h.spec.OnStdout != nil {
			for _, line := range splitLines(h.stdout) {
				h.spec.OnStdout(line)
			}
		}
		if h.spec.OnStderr != nil {
			for _, line := range splitLines(h.stderr) {
				h.spec.OnStderr(line)
			}
		}
	})
}

func (h *cannedHandle) Wait() error {
	h.deliver()
	if h.code != 0 {
		return &gitexec.SubprocessError{Code: h.code, Stderr: h.stderr, Stdout: h.stdout}
	}
	return nil
}

func (h *cannedHandle) CaptureOutput(_ []byte) (string, error) {
	if err := h.Wait(); err != nil {
		return "", err
	}
	return h.stdout, nil
}

func (h *cannedHandle) CaptureOutputTrimmed(input []byte) (string, error) {
	out, err := h.CaptureOutput(input)
	return gitexec.TrimOutput(out), err
}

func (h *cannedHandle) Kill() error { return nil }

// splitLines yields newline-delimited lines, delivering a trailing partial
// line if non-empty, matching the real line scanner's contract.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

type nopWriteCloser struct{}

func (nopWriteCloser) Write(p []byte) (int, error) { return len(p), nil }
func (nopWriteCloser) Close() error                { return nil }
