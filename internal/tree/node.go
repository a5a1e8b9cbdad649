package tree

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/schmitthub/grit/internal/git"
	"github.com/schmitthub/grit/internal/gitexec"
)

var lsTreeLineRe = regexp.MustCompile(`^([0-7]+) (blob|tree|commit) ([0-9a-f]{40})\t(.+)$`)

// Node is an in-memory tree object. It hydrates lazily from the object
// store and layers pending mutations over the hydrated base: a nil entry in
// the overlay is a tombstone suppressing the base entry of that name.
//
// Invariants: when dirty is false, hash is the true object-store hash of the
// current content and the overlay holds no net changes; mutating any
// descendant marks every ancestor on the path dirty; a tree whose
// materialized children serialize to nothing resolves to EmptyTreeHash.
//
// A Node's methods serialize through its own mutex, but concurrent Write
// calls on the same node are undefined — callers must serialize per node.
type Node struct {
	client *git.Client
	cache  *Cache

	mu      sync.Mutex
	hash    string
	dirty   bool
	base    map[string]Entry // name → child; nil until hydrated
	overlay map[string]Entry // name → child, nil value = tombstone
}

// New creates a node seeded with a tree hash. An empty hash starts a dirty
// empty tree that exists only in memory until written.
func New(c *git.Client, hash string) *Node {
	return NewWithCache(c, hash, DefaultCache)
}

// NewWithCache is New with a private manifest cache, for tests that must
// not observe each other's hydrations.
func NewWithCache(c *git.Client, hash string, cache *Cache) *Node {
	n := &Node{
		client:  c,
		cache:   cache,
		hash:    hash,
		overlay: map[string]Entry{},
	}
	if hash == "" {
		n.dirty = true
	}
	return n
}

// IsTree implements Entry.
func (t *Node) IsTree() bool { return true }

// IsBlob implements Entry.
func (t *Node) IsBlob() bool { return false }

// Client returns the owning git client.
func (t *Node) Client() *git.Client { return t.client }

// Dirty reports whether in-memory state diverges from the written hash.
func (t *Node) Dirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dirty
}

// Hash returns the node's object hash when clean and "" when dirty.
// There is no write-on-query: callers that want the hash of a dirty tree
// call Write explicitly so writes can batch.
func (t *Node) Hash() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dirty {
		return ""
	}
	return t.hash
}

// WrittenHash is an alias for Hash, named for call sites that care about
// the clean/dirty distinction.
func (t *Node) WrittenHash() string { return t.Hash() }

func (t *Node) markDirty() {
	t.mu.Lock()
	t.dirty = true
	t.mu.Unlock()
}

// Hydrate loads the node's base children from the object store. Idempotent;
// a node created without a hash hydrates to an empty base.
func (t *Node) Hydrate(ctx context.Context) error {
	return t.hydrate(ctx, false)
}

// hydrate optionally preloads recursively: one "ls-tree -r -t" call
// populates the manifest cache for this tree and every interior subtree it
// references, so descendants hydrate without further subprocess traffic.
// Correct because tree hashes are content-addressed.
func (t *Node) hydrate(ctx context.Context, recursive bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hydrateLocked(ctx, recursive)
}

func (t *Node) hydrateLocked(ctx context.Context, recursive bool) error {
	if t.base != nil {
		return nil
	}
	if t.hash == "" || t.hash == EmptyTreeHash {
		t.base = map[string]Entry{}
		return nil
	}

	manifest, ok := t.cache.Get(t.hash)
	if !ok {
		var err error
		manifest, err = t.load(ctx, recursive)
		if err != nil {
			return err
		}
	}

	t.base = make(map[string]Entry, len(manifest))
	for name, e := range manifest {
		t.base[name] = t.instantiate(e)
	}
	return nil
}

func (t *Node) instantiate(e CacheEntry) Entry {
	if e.Type == "tree" {
		return NewWithCache(t.client, e.Hash, t.cache)
	}
	return &Blob{Hash: e.Hash, Mode: e.Mode}
}

// load runs ls-tree and fills the cache. With recursive preload, entries
// are grouped under the hash of their parent tree; parents always precede
// their children in ls-tree -r -t output.
func (t *Node) load(ctx context.Context, recursive bool) (map[string]CacheEntry, error) {
	if !recursive {
		out, err := t.client.LsTree(ctx, t.hash)
		if err != nil {
			return nil, err
		}
		manifest, err := parseManifest(out, nil)
		if err != nil {
			return nil, err
		}
		t.cache.Put(t.hash, manifest)
		return manifest, nil
	}

	out, err := t.client.LsTree(ctx, gitexec.Options{"r": true, "t": true}, t.hash)
	if err != nil {
		return nil, err
	}

	manifests := map[string]map[string]CacheEntry{t.hash: {}}
	dirHash := map[string]string{"": t.hash}

	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		m := lsTreeLineRe.FindStringSubmatch(line)
		if m == nil {
			return nil, &ParseError{Line: line}
		}
		mode, typ, hash, path := m[1], m[2], m[3], m[4]

		dir, name := "", path
		if i := strings.LastIndexByte(path, '/'); i >= 0 {
			dir, name = path[:i], path[i+1:]
		}
		parent, ok := dirHash[dir]
		if !ok {
			return nil, fmt.Errorf("ls-tree entry %q precedes its parent tree", path)
		}
		if manifests[parent] == nil {
			manifests[parent] = map[string]CacheEntry{}
		}
		manifests[parent][name] = CacheEntry{Mode: mode, Type: typ, Hash: hash}

		if typ == "tree" {
			dirHash[path] = hash
			if manifests[hash] == nil {
				manifests[hash] = map[string]CacheEntry{}
			}
		}
	}

	for hash, manifest := range manifests {
		t.cache.Put(hash, manifest)
	}
	return manifests[t.hash], nil
}

func parseManifest(out string, manifest map[string]CacheEntry) (map[string]CacheEntry, error) {
	if manifest == nil {
		manifest = map[string]CacheEntry{}
	}
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		m := lsTreeLineRe.FindStringSubmatch(line)
		if m == nil {
			return nil, &ParseError{Line: line}
		}
		manifest[m[4]] = CacheEntry{Mode: m[1], Type: m[2], Hash: m[3]}
	}
	return manifest, nil
}

// lookupLocked resolves a name through the overlay: an overlay entry wins,
// a tombstone hides the base, otherwise the base answers.
func (t *Node) lookupLocked(name string) Entry {
	if e, ok := t.overlay[name]; ok {
		return e
	}
	return t.base[name]
}

// visibleNamesLocked returns the sorted names of all live children.
func (t *Node) visibleNamesLocked() []string {
	seen := map[string]bool{}
	for name := range t.base {
		if t.lookupLocked(name) != nil {
			seen[name] = true
		}
	}
	for name, e := range t.overlay {
		if e != nil {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Children hydrates if needed and returns the overlay view: overlay entries
// layered on base entries, tombstones honored. The returned map is a copy.
func (t *Node) Children(ctx context.Context) (map[string]Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.hydrateLocked(ctx, false); err != nil {
		return nil, err
	}
	out := map[string]Entry{}
	for _, name := range t.visibleNamesLocked() {
		out[name] = t.lookupLocked(name)
	}
	return out, nil
}

// Child returns the named visible child, or nil.
func (t *Node) Child(ctx context.Context, name string) (Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.hydrateLocked(ctx, false); err != nil {
		return nil, err
	}
	return t.lookupLocked(name), nil
}

// Put sets a child in the overlay and marks the node dirty.
func (t *Node) Put(name string, e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.overlay[name] = e
	t.dirty = true
}

// Delete tombstones a visible child. Reports whether anything was deleted.
func (t *Node) Delete(ctx context.Context, name string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.hydrateLocked(ctx, false); err != nil {
		return false, err
	}
	if t.lookupLocked(name) == nil {
		return false, nil
	}
	t.overlay[name] = nil
	t.dirty = true
	return true, nil
}

// Subtree walks a slash-separated path and returns the tree at its end.
// "." names the receiver. A missing segment returns nil unless create is
// set, in which case fresh empty trees are inserted and every ancestor on
// the walk is marked dirty. A blob in the way is never replaced.
func (t *Node) Subtree(ctx context.Context, path string, create bool) (*Node, error) {
	stack, err := t.SubtreeStack(ctx, path, create)
	if err != nil || stack == nil {
		return nil, err
	}
	return stack[len(stack)-1], nil
}

// SubtreeStack is Subtree returning the full ancestor-plus-leaf chain.
func (t *Node) SubtreeStack(ctx context.Context, path string, create bool) ([]*Node, error) {
	stack := []*Node{t}
	cur := t
	created := false

	for _, seg := range splitPath(path) {
		cur.mu.Lock()
		if err := cur.hydrateLocked(ctx, false); err != nil {
			cur.mu.Unlock()
			return nil, err
		}
		e := cur.lookupLocked(seg)
		var next *Node
		switch v := e.(type) {
		case nil:
			if !create {
				cur.mu.Unlock()
				return nil, nil
			}
			next = NewWithCache(t.client, "", t.cache)
			cur.overlay[seg] = next
			cur.dirty = true
			created = true
		case *Node:
			next = v
		case *Blob:
			cur.mu.Unlock()
			if create {
				return nil, fmt.Errorf("%w: %q is a blob, not a tree", gitexec.ErrBadArgument, seg)
			}
			return nil, nil
		}
		cur.mu.Unlock()
		stack = append(stack, next)
		cur = next
	}

	if created {
		for _, n := range stack {
			n.markDirty()
		}
	}
	return stack, nil
}

func splitPath(path string) []string {
	if path == "" || path == "." {
		return nil
	}
	var segs []string
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || seg == "." {
			continue
		}
		segs = append(segs, seg)
	}
	return segs
}

// Write serializes the node back into the object store through the batched
// mktree worker and returns the new hash. A clean node is a no-op. Dirty
// subtrees write first; children that resolve to the empty tree are elided,
// and a node left with no entries resolves to EmptyTreeHash without
// touching the store. On success the overlay folds into the base and the
// node becomes clean; on error the tree stays dirty with its hash
// unchanged.
func (t *Node) Write(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.dirty {
		return t.hash, nil
	}
	if err := t.hydrateLocked(ctx, false); err != nil {
		return "", err
	}

	var entries []git.TreeEntry
	manifest := map[string]CacheEntry{}
	for _, name := range t.visibleNamesLocked() {
		switch v := t.lookupLocked(name).(type) {
		case *Blob:
			typ := "blob"
			if v.EffectiveMode() == "160000" {
				typ = "commit" // gitlink (submodule) entry
			}
			e := git.TreeEntry{Mode: v.EffectiveMode(), Type: typ, Hash: v.Hash, Name: name}
			entries = append(entries, e)
			manifest[name] = CacheEntry{Mode: e.Mode, Type: e.Type, Hash: e.Hash}
		case *Node:
			h, err := v.Write(ctx)
			if err != nil {
				return "", err
			}
			if h == EmptyTreeHash {
				continue
			}
			e := git.TreeEntry{Mode: "040000", Type: "tree", Hash: h, Name: name}
			entries = append(entries, e)
			manifest[name] = CacheEntry{Mode: e.Mode, Type: e.Type, Hash: e.Hash}
		}
	}

	newHash := EmptyTreeHash
	if len(entries) > 0 {
		var err error
		newHash, err = t.client.MkTreeBatch(ctx, entries)
		if err != nil {
			return "", err
		}
	}

	for name, e := range t.overlay {
		if e == nil {
			delete(t.base, name)
		} else {
			t.base[name] = e
		}
	}
	t.overlay = map[string]Entry{}
	t.hash = newHash
	t.dirty = false
	t.cache.Put(newHash, manifest)
	return newHash, nil
}
