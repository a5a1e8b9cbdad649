package tree

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Merge applies the input tree onto the receiver under the compiled
// matchers and mode in opts. Sibling subtrees merge concurrently — they
// touch disjoint children — and any error fails the whole merge with no
// partial-commit semantics: the target may be left dirty but is never
// written. A nil opts merges everything in overlay mode.
func (t *Node) Merge(ctx context.Context, input *Node, opts *MergeOptions) error {
	if opts == nil {
		var err error
		opts, err = NewMergeOptions(nil, MergeOverlay)
		if err != nil {
			return err
		}
	}
	_, err := t.mergeInto(ctx, input, opts, ".", true)
	return err
}

// snapshotChildren returns the visible children plus the full name set
// including tombstoned names. The input side is only read during a merge,
// so a point-in-time copy is safe.
func (t *Node) snapshotChildren() (view map[string]Entry, names map[string]bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	view = map[string]Entry{}
	names = map[string]bool{}
	for name := range t.base {
		names[name] = true
	}
	for name := range t.overlay {
		names[name] = true
	}
	for name := range names {
		if e := t.lookupLocked(name); e != nil {
			view[name] = e
		}
	}
	return view, names
}

func (t *Node) peek(name string) Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lookupLocked(name)
}

// cleanHash returns an entry's stable hash, or "" when it has none yet.
func cleanHash(e Entry) string {
	switch v := e.(type) {
	case *Blob:
		return v.Hash
	case *Node:
		return v.WrittenHash()
	}
	return ""
}

func joinChildPath(basePath, name string) string {
	if basePath == "" || basePath == "." {
		return name
	}
	return basePath + "/" + name
}

// mergeInto merges input's children into t. basePath locates t for matcher
// evaluation; preload requests recursive hydration (one ls-tree -r -t on
// the top-level call seeds the cache for every deeper hydration). Reports
// whether t was dirtied.
func (t *Node) mergeInto(ctx context.Context, input *Node, o *MergeOptions, basePath string, preload bool) (bool, error) {
	if err := t.hydrate(ctx, preload); err != nil {
		return false, err
	}
	if err := input.hydrate(ctx, preload); err != nil {
		return false, err
	}

	inputView, inputNames := input.snapshotChildren()

	names := make([]string, 0, len(inputView))
	for name := range inputView {
		names = append(names, name)
	}
	sort.Strings(names)

	var dirtyMu sync.Mutex
	dirtied := false
	setDirty := func() {
		dirtyMu.Lock()
		dirtied = true
		dirtyMu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, name := range names {
		inChild := inputView[name]
		tgt := t.peek(name)

		// Identical clean content on both sides needs no work.
		if tgt != nil && cleanHash(tgt) != "" && cleanHash(tgt) == cleanHash(inChild) {
			continue
		}

		childPath := joinChildPath(basePath, name)
		matchPath := childPath
		if inChild.IsTree() {
			matchPath += "/"
		}
		included, excluded := o.evaluate(matchPath, inChild.IsTree())
		if excluded {
			continue
		}

		if blob, ok := inChild.(*Blob); ok {
			if !included {
				continue
			}
			// Blob handles are immutable; assignment by reference is the
			// documented sharing model.
			t.Put(name, blob)
			setDirty()
			continue
		}

		inNode := inChild.(*Node)
		tgtNode, tgtIsTree := tgt.(*Node)

		if tgt == nil || !tgtIsTree || o.Mode == MergeReplace {
			if o.pendingDescent(included) {
				// Speculative descent: build into a detached empty tree
				// and attach only if some descendant survived the filter.
				g.Go(func() error {
					fresh := NewWithCache(t.client, "", t.cache)
					childDirty, err := fresh.mergeInto(gctx, inNode, o, childPath, false)
					if err != nil {
						return err
					}
					if childDirty {
						t.Put(name, fresh)
						setDirty()
					}
					return nil
				})
				continue
			}
			if h := inNode.WrittenHash(); h != "" {
				// Clean input subtree: clone the reference instead of
				// descending; it hydrates from the shared cache if read.
				t.Put(name, NewWithCache(t.client, h, t.cache))
				setDirty()
				continue
			}
			fresh := NewWithCache(t.client, "", t.cache)
			t.Put(name, fresh)
			setDirty()
			g.Go(func() error {
				_, err := fresh.mergeInto(gctx, inNode, o, childPath, false)
				return err
			})
			continue
		}

		// Overlay onto an existing target subtree.
		g.Go(func() error {
			childDirty, err := tgtNode.mergeInto(gctx, inNode, o, childPath, false)
			if err != nil {
				return err
			}
			if childDirty {
				t.markDirty()
				setDirty()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return false, err
	}

	if o.Mode == MergeReplace {
		t.mu.Lock()
		for _, name := range t.visibleNamesLocked() {
			if !inputNames[name] {
				t.overlay[name] = nil
				t.dirty = true
				dirtied = true
			}
		}
		t.mu.Unlock()
	}

	return dirtied, nil
}
