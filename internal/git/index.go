package git

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// TempIndexFile returns a unique path suitable for GIT_INDEX_FILE, for
// callers that stage into a scratch index without disturbing the real one.
// The file is not created; git creates it on first use. Callers own removal.
func TempIndexFile() string {
	return filepath.Join(os.TempDir(), "grit-index-"+uuid.NewString())
}

// WithTempIndex returns a client bound to a fresh scratch index, plus the
// index path for later cleanup. The new client shares the runner but owns
// its own lazily-created batch worker; both need Cleanup.
func (c *Client) WithTempIndex() (*Client, string) {
	path := TempIndexFile()
	clone := New(
		WithCommand(c.command, c.baseArgs...),
		WithGitDir(c.gitDir),
		WithWorkTree(c.workTree),
		WithIndexFile(path),
		WithRunner(c.runner),
		WithBatchIdle(c.batchIdle),
	)
	return clone, path
}
