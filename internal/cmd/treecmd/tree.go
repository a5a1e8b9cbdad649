// Package treecmd implements "grit tree": porcelain over the in-memory
// tree model — listing, flat snapshots, filtered merges and batched mktree.
package treecmd

import (
	"bufio"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schmitthub/grit/internal/cmdutil"
	"github.com/schmitthub/grit/internal/git"
	"github.com/schmitthub/grit/internal/tree"
)

// NewCmdTree creates the "tree" command group.
func NewCmdTree(f *cmdutil.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree <command>",
		Short: "Inspect and rewrite git tree objects",
	}

	cmd.AddCommand(newCmdLs(f))
	cmd.AddCommand(newCmdSnapshot(f))
	cmd.AddCommand(newCmdMerge(f))
	cmd.AddCommand(newCmdMkTree(f))

	return cmd
}

// resolveTree turns a tree-ish argument into a tree hash.
func resolveTree(cmd *cobra.Command, f *cmdutil.Factory, treeish string) (*git.Client, string, error) {
	client, err := f.Client()
	if err != nil {
		return nil, "", err
	}
	hash, err := client.TreeHash(cmd.Context(), treeish)
	if err != nil {
		return nil, "", fmt.Errorf("resolving %q: %w", treeish, err)
	}
	return client, hash, nil
}

func newCmdLs(f *cmdutil.Factory) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "ls <tree-ish>",
		Short: "List the entries of a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, hash, err := resolveTree(cmd, f, args[0])
			if err != nil {
				return err
			}

			if recursive {
				flat, err := tree.ReadSnapshot(cmd.Context(), client, hash)
				if err != nil {
					return err
				}
				paths := make([]string, 0, len(flat))
				for p := range flat {
					paths = append(paths, p)
				}
				sort.Strings(paths)
				for _, p := range paths {
					e := flat[p]
					fmt.Fprintf(f.IOStreams.Out, "%s %s %s\t%s\n", e.Mode, e.Type, e.Hash, p)
				}
				return nil
			}

			node := tree.New(client, hash)
			children, err := node.Children(cmd.Context())
			if err != nil {
				return err
			}
			names := make([]string, 0, len(children))
			for name := range children {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				switch e := children[name].(type) {
				case *tree.Blob:
					fmt.Fprintf(f.IOStreams.Out, "%s blob %s\t%s\n", e.EffectiveMode(), e.Hash, name)
				case *tree.Node:
					fmt.Fprintf(f.IOStreams.Out, "040000 tree %s\t%s\n", e.Hash(), name)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Recurse into subtrees")

	return cmd
}

func newCmdSnapshot(f *cmdutil.Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <tree-ish>",
		Short: "Print a flat path/mode/hash listing of a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, hash, err := resolveTree(cmd, f, args[0])
			if err != nil {
				return err
			}
			flat, err := tree.ReadSnapshot(cmd.Context(), client, hash)
			if err != nil {
				return err
			}
			paths := make([]string, 0, len(flat))
			for p := range flat {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			for _, p := range paths {
				e := flat[p]
				fmt.Fprintf(f.IOStreams.Out, "%s\t%s\t%s\n", p, e.Mode, e.Hash)
			}
			return nil
		},
	}
}

func newCmdMerge(f *cmdutil.Factory) *cobra.Command {
	var (
		files []string
		mode  string
	)

	cmd := &cobra.Command{
		Use:   "merge <target-tree-ish> <input-tree-ish>",
		Short: "Merge one tree onto another and print the resulting hash",
		Long: `Merge the input tree onto the target tree in memory, write the result
back into the object store and print the new tree hash. --files filters by
glob (prefix a pattern with '!' to exclude); --mode selects overlay or
replace semantics.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := tree.NewMergeOptions(files, tree.MergeMode(mode))
			if err != nil {
				return cmdutil.FlagErrorWrap(err)
			}

			client, targetHash, err := resolveTree(cmd, f, args[0])
			if err != nil {
				return err
			}
			inputHash, err := client.TreeHash(cmd.Context(), args[1])
			if err != nil {
				return fmt.Errorf("resolving %q: %w", args[1], err)
			}

			target := tree.New(client, targetHash)
			input := tree.New(client, inputHash)

			if err := target.Merge(cmd.Context(), input, opts); err != nil {
				return err
			}
			hash, err := target.Write(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(f.IOStreams.Out, hash)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&files, "files", nil, "Glob patterns selecting paths to merge")
	cmd.Flags().StringVar(&mode, "mode", "overlay", "Merge mode: overlay or replace")

	return cmd
}

var mktreeLineRe = regexp.MustCompile(`^([0-7]+) (blob|tree|commit) ([0-9a-f]{40})\t(.+)$`)

func newCmdMkTree(f *cmdutil.Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "mktree",
		Short: "Build a tree object from entry lines on stdin",
		Long: `Read "mode SP type SP hash TAB name" lines on stdin, build the tree
through the batched mktree worker and print its hash.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := f.Client()
			if err != nil {
				return err
			}

			var entries []git.TreeEntry
			scanner := bufio.NewScanner(f.IOStreams.In)
			for scanner.Scan() {
				line := strings.TrimRight(scanner.Text(), "\r")
				if line == "" {
					continue
				}
				m := mktreeLineRe.FindStringSubmatch(line)
				if m == nil {
					return fmt.Errorf("malformed entry line: %q", line)
				}
				entries = append(entries, git.TreeEntry{Mode: m[1], Type: m[2], Hash: m[3], Name: m[4]})
			}
			if err := scanner.Err(); err != nil {
				return err
			}

			hash, err := client.MkTreeBatch(cmd.Context(), entries)
			if err != nil {
				return err
			}
			fmt.Fprintln(f.IOStreams.Out, hash)
			return nil
		},
	}
}
