package root

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmitthub/grit/internal/cmdutil"
	"github.com/schmitthub/grit/internal/iostreams"
)

func TestNewCmdRoot(t *testing.T) {
	ios, _, _, _ := iostreams.Test()
	f := &cmdutil.Factory{
		Version:     "1.0.0",
		IOStreams:   ios,
		CloseClient: func() {},
	}

	cmd, err := NewCmdRoot(f, "1.0.0", "2026-01-01")
	require.NoError(t, err)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "exec")
	assert.Contains(t, names, "tree")
	assert.Contains(t, names, "version")

	assert.NotNil(t, cmd.PersistentFlags().Lookup("debug"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("git-dir"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("work-tree"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("index-file"))
}
