package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmitthub/grit/internal/gitexec"
)

func TestNewMergeOptions(t *testing.T) {
	t.Run("empty mode defaults to overlay", func(t *testing.T) {
		o, err := NewMergeOptions(nil, "")
		require.NoError(t, err)
		assert.Equal(t, MergeOverlay, o.Mode)
	})

	t.Run("unknown mode fails", func(t *testing.T) {
		_, err := NewMergeOptions(nil, "sideways")
		assert.ErrorIs(t, err, gitexec.ErrBadArgument)
	})

	t.Run("invalid pattern fails at construction", func(t *testing.T) {
		_, err := NewMergeOptions([]string{"["}, MergeOverlay)
		assert.ErrorIs(t, err, gitexec.ErrBadArgument)
	})

	t.Run("empty list disables filtering", func(t *testing.T) {
		o, err := NewMergeOptions(nil, MergeOverlay)
		require.NoError(t, err)
		included, excluded := o.evaluate("anything/at/all", false)
		assert.True(t, included)
		assert.False(t, excluded)
	})

	t.Run("bare doublestar disables filtering", func(t *testing.T) {
		o, err := NewMergeOptions([]string{"**"}, MergeOverlay)
		require.NoError(t, err)
		assert.True(t, o.filterAll)
	})
}

func TestMergeOptionsEvaluate(t *testing.T) {
	t.Run("positive pattern gates inclusion", func(t *testing.T) {
		o, err := NewMergeOptions([]string{"src/**"}, MergeOverlay)
		require.NoError(t, err)

		included, excluded := o.evaluate("src/main.c", false)
		assert.True(t, included)
		assert.False(t, excluded)

		included, excluded = o.evaluate("docs/intro.md", false)
		assert.False(t, included)
		assert.False(t, excluded)
	})

	t.Run("negation excludes matching paths", func(t *testing.T) {
		o, err := NewMergeOptions([]string{"!secrets/**"}, MergeOverlay)
		require.NoError(t, err)

		_, excluded := o.evaluate("secrets/key.pem", false)
		assert.True(t, excluded)

		included, excluded := o.evaluate("README.md", false)
		assert.True(t, included)
		assert.False(t, excluded)
	})

	t.Run("negation composes with positives", func(t *testing.T) {
		o, err := NewMergeOptions([]string{"src/**", "!**/*.o"}, MergeOverlay)
		require.NoError(t, err)

		included, excluded := o.evaluate("src/main.c", false)
		assert.True(t, included)
		assert.False(t, excluded)

		_, excluded = o.evaluate("src/main.o", false)
		assert.True(t, excluded)
	})

	t.Run("pending descent for unmatched trees and under negations", func(t *testing.T) {
		positives, err := NewMergeOptions([]string{"src/**"}, MergeOverlay)
		require.NoError(t, err)
		assert.True(t, positives.pendingDescent(false))
		assert.False(t, positives.pendingDescent(true))

		negations, err := NewMergeOptions([]string{"!secrets/**"}, MergeOverlay)
		require.NoError(t, err)
		assert.True(t, negations.pendingDescent(true))

		unfiltered, err := NewMergeOptions(nil, MergeOverlay)
		require.NoError(t, err)
		assert.False(t, unfiltered.pendingDescent(true))
	})

	t.Run("star stays within a segment, doublestar crosses", func(t *testing.T) {
		o, err := NewMergeOptions([]string{"src/*.c"}, MergeOverlay)
		require.NoError(t, err)

		included, _ := o.evaluate("src/main.c", false)
		assert.True(t, included)

		included, _ = o.evaluate("src/deep/main.c", false)
		assert.False(t, included)
	})
}
