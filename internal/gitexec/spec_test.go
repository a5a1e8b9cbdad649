package gitexec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	t.Run("first string is the subcommand", func(t *testing.T) {
		spec, err := ParseArgs("status", "pathspec")
		require.NoError(t, err)
		assert.Equal(t, "status", spec.Subcommand)
		assert.Equal(t, []string{"pathspec"}, spec.Argv)
	})

	t.Run("options encode in call order", func(t *testing.T) {
		spec, err := ParseArgs("log", Options{"oneline": true}, "--", "README.md")
		require.NoError(t, err)
		assert.Equal(t, []string{"--oneline", "--", "README.md"}, spec.Argv)
	})

	t.Run("map between positionals keeps its place", func(t *testing.T) {
		spec, err := ParseArgs("ls-tree", "HEAD", Options{"r": true}, "src")
		require.NoError(t, err)
		assert.Equal(t, []string{"HEAD", "-r", "src"}, spec.Argv)
	})

	t.Run("integers are positional", func(t *testing.T) {
		spec, err := ParseArgs("log", 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"3"}, spec.Argv)
	})

	t.Run("controls route to the spec", func(t *testing.T) {
		spec, err := ParseArgs("status", Options{
			"$gitDir":      "/repo/.git",
			"$workTree":    "/repo",
			"$indexFile":   "/tmp/idx",
			"$spawn":       true,
			"$nullOnError": true,
			"porcelain":    true,
		})
		require.NoError(t, err)
		assert.Equal(t, "/repo/.git", spec.GitDir)
		assert.Equal(t, "/repo", spec.WorkTree)
		assert.Equal(t, "/tmp/idx", spec.IndexFile)
		assert.True(t, spec.Spawn)
		assert.True(t, spec.NullOnError)
		assert.Equal(t, []string{"--porcelain"}, spec.Argv)
	})

	t.Run("callbacks are extracted", func(t *testing.T) {
		var lines []string
		spec, err := ParseArgs("status", Options{
			"$onStdout": func(line string) { lines = append(lines, line) },
		})
		require.NoError(t, err)
		require.NotNil(t, spec.OnStdout)
		spec.OnStdout("hello")
		assert.Equal(t, []string{"hello"}, lines)
	})

	t.Run("unknown control rejected", func(t *testing.T) {
		_, err := ParseArgs("status", Options{"$bogus": true})
		assert.ErrorIs(t, err, ErrBadArgument)
	})

	t.Run("unsupported argument type rejected", func(t *testing.T) {
		_, err := ParseArgs("status", 3.14)
		assert.ErrorIs(t, err, ErrBadArgument)
	})
}

func TestSpecFullArgs(t *testing.T) {
	spec, err := ParseArgs("status", Options{"porcelain": true, "$gitDir": "/g", "$workTree": "/w"})
	require.NoError(t, err)
	spec.Command = "git"

	assert.Equal(t,
		[]string{"--git-dir=/g", "--work-tree=/w", "status", "--porcelain"},
		spec.FullArgs())
}

func TestSpecEnviron(t *testing.T) {
	t.Run("index file and env merge onto process env", func(t *testing.T) {
		t.Setenv("GRIT_SPEC_TEST_MARKER", "1")
		spec, err := ParseArgs("status", Options{
			"$indexFile": "/tmp/idx",
			"$env":       map[string]string{"FOO": "bar"},
		})
		require.NoError(t, err)

		env := spec.Environ()
		assert.Contains(t, env, "GRIT_SPEC_TEST_MARKER=1")
		assert.Contains(t, env, "GIT_INDEX_FILE=/tmp/idx")
		assert.Contains(t, env, "FOO=bar")
	})

	t.Run("preserveEnv false drops the process env", func(t *testing.T) {
		t.Setenv("GRIT_SPEC_TEST_MARKER", "1")
		spec, err := ParseArgs("status", Options{
			"$preserveEnv": false,
			"$env":         map[string]string{"FOO": "bar"},
		})
		require.NoError(t, err)

		env := spec.Environ()
		assert.NotContains(t, env, "GRIT_SPEC_TEST_MARKER=1")
		assert.Equal(t, []string{"FOO=bar"}, env)
	})
}
