// Package cache provides a bounded in-memory key/value store with per-entry
// TTL expiry and least-recently-used eviction. Each signal source owns its
// own instance; keys are never shared across sources.
package cache

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Entry wraps a cached value with its lifecycle timestamps.
type Entry[V any] struct {
	Value     V
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Cache is a TTL-bounded LRU cache. Concurrent reads are safe; concurrent
// writes to the same key are last-write-wins.
type Cache[V any] struct {
	entries    *lru.Cache[string, Entry[V]]
	defaultTTL time.Duration
	now        func() time.Time
}

// New creates a cache holding at most capacity entries. Entries written
// without an explicit TTL expire after defaultTTL.
func New[V any](capacity int, defaultTTL time.Duration) (*Cache[V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	if defaultTTL <= 0 {
		return nil, fmt.Errorf("cache default TTL must be positive, got %s", defaultTTL)
	}

	entries, err := lru.New[string, Entry[V]](capacity)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}

	return &Cache[V]{
		entries:    entries,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}, nil
}

// Get returns the value for key. Absent and expired entries both read as
// misses; expired entries are dropped on access.
func (c *Cache[V]) Get(key string) (V, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(entry.ExpiresAt) {
		c.entries.Remove(key)
		var zero V
		return zero, false
	}
	return entry.Value, true
}

// Set stores value under key with the given TTL. A non-positive ttl falls
// back to the cache's default. Inserting into a full cache evicts the least
// recently used entry.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	now := c.now()
	c.entries.Add(key, Entry[V]{
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	})
}

// Has reports whether key holds a live (non-expired) entry without updating
// its recency.
func (c *Cache[V]) Has(key string) bool {
	entry, ok := c.entries.Peek(key)
	if !ok {
		return false
	}
	if c.now().After(entry.ExpiresAt) {
		c.entries.Remove(key)
		return false
	}
	return true
}

// Invalidate removes key from the cache if present.
func (c *Cache[V]) Invalidate(key string) {
	c.entries.Remove(key)
}

// Len returns the number of entries currently held, including any not yet
// swept expired entries.
func (c *Cache[V]) Len() int {
	return c.entries.Len()
}
