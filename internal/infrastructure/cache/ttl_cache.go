package cache

import (
	"sync"
	"time"

	wildcard "github.com/IGLOU-EU/go-wildcard/v2"
)

// ttlEntry is a stored value with an absolute expiry
type ttlEntry struct {
	value     interface{}
	expiresAt time.Time
}

// TTLCache is an in-memory key/value store with absolute expiry and
// wildcard invalidation. Expired entries are purged lazily on read; there
// is no background sweeper. Construct one instance at process start and
// inject it wherever cached aggregates are read or invalidated.
type TTLCache struct {
	mu      sync.RWMutex
	entries map[string]ttlEntry
	now     func() time.Time
}

// TTLCacheOption is a functional option for configuring the cache
type TTLCacheOption func(*TTLCache)

// WithClock overrides the cache's time source, for testing expiry without
// sleeping.
func WithClock(now func() time.Time) TTLCacheOption {
	return func(c *TTLCache) {
		c.now = now
	}
}

// NewTTLCache creates an empty cache
func NewTTLCache(opts ...TTLCacheOption) *TTLCache {
	c := &TTLCache{
		entries: make(map[string]ttlEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the stored value, or false if the key is absent or expired.
// An expired entry is removed on the spot.
func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have
		// refreshed the entry.
		if cur, ok := c.entries[key]; ok && !c.now().Before(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value under key until now + ttl. A non-positive ttl removes
// the key.
func (c *TTLCache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		delete(c.entries, key)
		return
	}
	c.entries[key] = ttlEntry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
}

// Delete removes a single key
func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// DeletePattern removes every key matching the *-wildcard pattern as a
// full-string match and returns the number of keys removed. Used to clear
// a whole key family in one call.
func (c *TTLCache) DeletePattern(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed int
	for key := range c.entries {
		if wildcard.Match(pattern, key) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Keys returns the unexpired keys in no particular order
func (c *TTLCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	keys := make([]string, 0, len(c.entries))
	for key, e := range c.entries {
		if now.Before(e.expiresAt) {
			keys = append(keys, key)
		}
	}
	return keys
}

// Len returns the number of unexpired entries
func (c *TTLCache) Len() int {
	return len(c.Keys())
}
