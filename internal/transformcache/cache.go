// Package transformcache holds a bounded, recency-ordered cache of derived
// media buffers (compressed image bytes) keyed by source path and transform
// parameters. It is a pure performance layer: never persisted, never a
// correctness dependency.
package transformcache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"media-gallery/internal/metrics"
)

// DefaultCapacity bounds the cache when no explicit size is configured.
const DefaultCapacity = 64

// Cache is a thread-safe LRU of derived byte buffers. Both Get and a
// re-Set of an existing key count as a touch; inserting past capacity
// evicts the least-recently-touched entry.
type Cache struct {
	lru *lru.Cache[string, []byte]
}

// New creates a cache bounded to capacity entries.
func New(capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	inner, err := lru.NewWithEvict[string, []byte](capacity, func(string, []byte) {
		metrics.TransformCacheEvictions.Inc()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create transform cache: %w", err)
	}
	return &Cache{lru: inner}, nil
}

// Key builds the composite cache key for a source path and transform
// parameters.
func Key(absPath string, maxWidth, quality int) string {
	return fmt.Sprintf("%s|w%d|q%d", absPath, maxWidth, quality)
}

// Get returns the cached buffer for key and marks it recently used.
func (c *Cache) Get(key string) ([]byte, bool) {
	buf, ok := c.lru.Get(key)
	if ok {
		metrics.TransformCacheHits.Inc()
	} else {
		metrics.TransformCacheMisses.Inc()
	}
	return buf, ok
}

// Set stores a buffer under key, touching it if already present.
func (c *Cache) Set(key string, buf []byte) {
	c.lru.Add(key, buf)
}

// Remove evicts key if present. Used after a final job failure so a bad
// cached buffer cannot poison subsequent attempts.
func (c *Cache) Remove(key string) {
	c.lru.Remove(key)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}
