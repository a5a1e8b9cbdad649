package tree

import (
	"context"
	"strings"

	"github.com/schmitthub/grit/internal/git"
	"github.com/schmitthub/grit/internal/gitexec"
)

// SnapshotEntry is one row of a flat tree listing.
type SnapshotEntry struct {
	Mode string
	Type string
	Hash string
}

// ReadSnapshot flattens any tree-ish into a path → entry mapping via
// "ls-tree --full-tree -r". Only leaf entries appear; interior trees are
// implied by the paths.
func ReadSnapshot(ctx context.Context, c *git.Client, treeish string) (map[string]SnapshotEntry, error) {
	out, err := c.LsTree(ctx, gitexec.Options{"full-tree": true, "r": true}, treeish)
	if err != nil {
		return nil, err
	}

	flat := map[string]SnapshotEntry{}
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		m := lsTreeLineRe.FindStringSubmatch(line)
		if m == nil {
			return nil, &ParseError{Line: line}
		}
		flat[m[4]] = SnapshotEntry{Mode: m[1], Type: m[2], Hash: m[3]}
	}
	return flat, nil
}

// BuildSnapshot turns a flat path → entry mapping into a hierarchy of
// nodes, interning intermediate trees as it walks each path. The returned
// root is dirty and unwritten.
func BuildSnapshot(c *git.Client, flat map[string]SnapshotEntry) (*Node, error) {
	root := New(c, "")
	for path, e := range flat {
		segs := splitPath(path)
		if len(segs) == 0 {
			continue
		}
		dir := root
		if len(segs) > 1 {
			var err error
			dir, err = root.Subtree(context.Background(), strings.Join(segs[:len(segs)-1], "/"), true)
			if err != nil {
				return nil, err
			}
		}
		name := segs[len(segs)-1]
		if e.Type == "tree" {
			dir.Put(name, New(c, e.Hash))
		} else {
			dir.Put(name, &Blob{Hash: e.Hash, Mode: e.Mode})
		}
	}
	return root, nil
}

// ParseError reports a line of git output that did not match the expected
// format. It is fatal to the hydration or snapshot in progress.
type ParseError struct {
	Line string
}

func (e *ParseError) Error() string {
	return "malformed ls-tree line: " + e.Line
}
