// Package tree is an in-memory model of git tree objects: lazy hydration
// from the object store, copy-on-write mutation with tombstones, path-based
// navigation, filtered recursive merges, and content-addressed write-back
// through the client's batched mktree worker.
package tree

import (
	"sync"

	"github.com/schmitthub/grit/internal/git"
)

// EmptyTreeHash is the canonical object name of the empty git tree.
const EmptyTreeHash = git.EmptyTreeHash

// CacheEntry is one child in a cached tree manifest.
type CacheEntry struct {
	Mode string
	Type string
	Hash string
}

// Cache maps tree hashes to their child manifests. Entries are immutable
// once written: a hash fully determines its content, so concurrent writes
// of the same key are benign and there is no eviction.
type Cache struct {
	mu sync.RWMutex
	m  map[string]map[string]CacheEntry
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{m: map[string]map[string]CacheEntry{}}
}

// DefaultCache is the process-wide cache shared by nodes that are not given
// their own.
var DefaultCache = NewCache()

// Get returns the manifest for a tree hash. The empty tree resolves to an
// empty manifest without touching the map.
func (c *Cache) Get(hash string) (map[string]CacheEntry, bool) {
	if hash == EmptyTreeHash {
		return map[string]CacheEntry{}, true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.m[hash]
	return m, ok
}

// Put stores a manifest under its tree hash.
func (c *Cache) Put(hash string, manifest map[string]CacheEntry) {
	if hash == EmptyTreeHash {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[hash] = manifest
}

// Len reports the number of cached manifests.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
