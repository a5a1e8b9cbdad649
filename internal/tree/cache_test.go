package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCache(t *testing.T) {
	t.Run("empty tree hash resolves without a stored entry", func(t *testing.T) {
		c := NewCache()
		m, ok := c.Get(EmptyTreeHash)
		assert.True(t, ok)
		assert.Empty(t, m)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("put then get", func(t *testing.T) {
		c := NewCache()
		manifest := map[string]CacheEntry{
			"a.txt": {Mode: "100644", Type: "blob", Hash: "bc0c330151d9a2ca8d87d1ff914b87f152036b19"},
		}
		c.Put("97ab63ad46e50ac4012ac9370b33878b224c4fa3", manifest)

		got, ok := c.Get("97ab63ad46e50ac4012ac9370b33878b224c4fa3")
		assert.True(t, ok)
		assert.Equal(t, manifest, got)
	})

	t.Run("miss", func(t *testing.T) {
		c := NewCache()
		_, ok := c.Get("bc0c330151d9a2ca8d87d1ff914b87f152036b19")
		assert.False(t, ok)
	})

	t.Run("storing under the empty hash is a no-op", func(t *testing.T) {
		c := NewCache()
		c.Put(EmptyTreeHash, map[string]CacheEntry{"x": {}})
		m, _ := c.Get(EmptyTreeHash)
		assert.Empty(t, m)
	})
}
