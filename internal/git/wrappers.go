package git

import "context"

// Per-subcommand wrappers. Each is Exec with the subcommand pinned; the
// variadic tail takes the same interleaved positionals and option maps that
// Exec does.

func (c *Client) sub(ctx context.Context, subcommand string, args []any) (string, error) {
	return c.Exec(ctx, append([]any{subcommand}, args...)...)
}

func (c *Client) Add(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "add", args)
}

func (c *Client) Apply(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "apply", args)
}

func (c *Client) Archive(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "archive", args)
}

func (c *Client) Bisect(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "bisect", args)
}

func (c *Client) Blame(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "blame", args)
}

func (c *Client) Branch(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "branch", args)
}

func (c *Client) CatFile(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "cat-file", args)
}

func (c *Client) Checkout(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "checkout", args)
}

func (c *Client) CherryPick(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "cherry-pick", args)
}

func (c *Client) Clean(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "clean", args)
}

func (c *Client) Clone(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "clone", args)
}

func (c *Client) Commit(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "commit", args)
}

func (c *Client) Config(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "config", args)
}

func (c *Client) CountObjects(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "count-objects", args)
}

func (c *Client) Describe(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "describe", args)
}

func (c *Client) Diff(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "diff", args)
}

func (c *Client) Fetch(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "fetch", args)
}

func (c *Client) ForEachRef(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "for-each-ref", args)
}

func (c *Client) Fsck(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "fsck", args)
}

func (c *Client) GC(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "gc", args)
}

func (c *Client) Grep(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "grep", args)
}

func (c *Client) HashObject(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "hash-object", args)
}

func (c *Client) Init(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "init", args)
}

func (c *Client) Log(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "log", args)
}

func (c *Client) LsFiles(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "ls-files", args)
}

func (c *Client) LsRemote(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "ls-remote", args)
}

func (c *Client) LsTree(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "ls-tree", args)
}

func (c *Client) Merge(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "merge", args)
}

func (c *Client) MergeBase(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "merge-base", args)
}

func (c *Client) MkTree(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "mktree", args)
}

func (c *Client) Mv(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "mv", args)
}

func (c *Client) NameRev(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "name-rev", args)
}

func (c *Client) Notes(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "notes", args)
}

func (c *Client) Pull(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "pull", args)
}

func (c *Client) Push(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "push", args)
}

func (c *Client) ReadTree(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "read-tree", args)
}

func (c *Client) Rebase(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "rebase", args)
}

func (c *Client) Reflog(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "reflog", args)
}

func (c *Client) Remote(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "remote", args)
}

func (c *Client) Reset(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "reset", args)
}

func (c *Client) RevList(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "rev-list", args)
}

func (c *Client) RevParse(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "rev-parse", args)
}

func (c *Client) Revert(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "revert", args)
}

func (c *Client) Rm(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "rm", args)
}

func (c *Client) Shortlog(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "shortlog", args)
}

func (c *Client) Show(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "show", args)
}

func (c *Client) ShowRef(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "show-ref", args)
}

func (c *Client) Stash(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "stash", args)
}

func (c *Client) Status(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "status", args)
}

func (c *Client) Submodule(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "submodule", args)
}

func (c *Client) SymbolicRef(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "symbolic-ref", args)
}

func (c *Client) Tag(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "tag", args)
}

func (c *Client) UpdateRef(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "update-ref", args)
}

func (c *Client) VerifyPack(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "verify-pack", args)
}

func (c *Client) Worktree(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "worktree", args)
}

func (c *Client) WriteTree(ctx context.Context, args ...any) (string, error) {
	return c.sub(ctx, "write-tree", args)
}
