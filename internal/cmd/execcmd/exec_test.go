package execcmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmitthub/grit/internal/cmdutil"
	"github.com/schmitthub/grit/internal/git"
	"github.com/schmitthub/grit/internal/git/gittest"
	"github.com/schmitthub/grit/internal/iostreams"
)

func testFactory(t *testing.T) (*cmdutil.Factory, *gittest.FakeGit, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	fake := gittest.NewFakeGit()
	client := git.New(git.WithRunner(fake))
	t.Cleanup(client.Cleanup)

	ios, _, out, errOut := iostreams.Test()
	f := &cmdutil.Factory{
		IOStreams: ios,
		Client:    func() (*git.Client, error) { return client, nil },
	}
	return f, fake, out, errOut
}

func TestExecCapture(t *testing.T) {
	f, fake, out, _ := testFactory(t)
	fake.Stub("status", " M test.txt\n", "", 0)

	cmd := NewCmdExec(f)
	cmd.SetArgs([]string{"status", "--porcelain"})
	cmd.SetOut(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())

	// Porcelain leading space survives capture.
	assert.Equal(t, " M test.txt\n", out.String())
}

func TestExecFailure(t *testing.T) {
	f, fake, _, errOut := testFactory(t)
	fake.Stub("checkout", "", "error: pathspec 'nope' did not match\n", 1)

	cmd := NewCmdExec(f)
	cmd.SetArgs([]string{"checkout", "nope"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	var exitErr *cmdutil.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, errOut.String(), "pathspec")
}

func TestExecNullOnError(t *testing.T) {
	f, fake, out, _ := testFactory(t)
	fake.Stub("checkout", "", "error: nope\n", 1)

	cmd := NewCmdExec(f)
	cmd.SetArgs([]string{"--null-on-error", "checkout", "nope"})
	cmd.SetOut(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())
	assert.Empty(t, out.String())
}

func TestExecVersionPassthrough(t *testing.T) {
	f, _, out, _ := testFactory(t)

	cmd := NewCmdExec(f)
	cmd.SetArgs([]string{"version"})
	cmd.SetOut(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "git version 2.34.1")
}
