package server

import (
	"sync"
	"time"
)

type cacheEntry struct {
	value     any
	timestamp time.Time
}

// ListCache provides a TTL-based cache for store listings, so agents polling
// list tools do not re-read the store on every call.
type ListCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewListCache creates a new cache. A ttl of 0 disables caching.
func NewListCache(ttl time.Duration) *ListCache {
	return &ListCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached value for key if within TTL, otherwise calls load
// and caches its result. Errors are not cached.
func (c *ListCache) Get(key string, load func() (any, error)) (any, error) {
	if c.ttl == 0 {
		return load()
	}

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && c.now().Sub(entry.timestamp) < c.ttl {
		v := entry.value
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	v, err := load()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{value: v, timestamp: c.now()}
	c.mu.Unlock()

	return v, nil
}
