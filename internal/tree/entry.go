package tree

import (
	"context"

	"github.com/schmitthub/grit/internal/git"
	"github.com/schmitthub/grit/internal/gitexec"
)

// DefaultBlobMode is assumed for blobs whose mode is unset.
const DefaultBlobMode = "100644"

// Entry is a named child of a tree: either a *Node or a *Blob. The two are
// distinguished by tag, never by structural inspection.
type Entry interface {
	IsTree() bool
	IsBlob() bool
}

// Blob is an immutable handle on a blob object. Blobs are shared by
// reference across trees: merges copy the handle, not the content.
type Blob struct {
	Hash string
	Mode string
}

// IsTree implements Entry.
func (b *Blob) IsTree() bool { return false }

// IsBlob implements Entry.
func (b *Blob) IsBlob() bool { return true }

// EffectiveMode returns the blob's mode, defaulting to a regular file.
func (b *Blob) EffectiveMode() string {
	if b.Mode == "" {
		return DefaultBlobMode
	}
	return b.Mode
}

// WriteBlob streams content into "hash-object -w --stdin" and returns the
// handle for the stored blob.
func WriteBlob(ctx context.Context, c *git.Client, content []byte) (*Blob, error) {
	h, err := c.Start(ctx, "hash-object", gitexec.Options{"w": true, "stdin": true})
	if err != nil {
		return nil, err
	}
	hash, err := h.CaptureOutputTrimmed(content)
	if err != nil {
		return nil, err
	}
	return &Blob{Hash: hash, Mode: DefaultBlobMode}, nil
}
