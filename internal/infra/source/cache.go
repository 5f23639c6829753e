package source

import (
	"sync"
	"time"

	"dev-digest/internal/domain/entity"
)

type cacheEntry struct {
	items     []entity.Item
	expiresAt time.Time
}

// ItemCache is a TTL cache for adapter results. During a delivery batch many
// recipients share selectors, so identical upstream fetches are reused for
// the cache window instead of repeated per recipient.
type ItemCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewItemCache creates a cache with the given TTL. A non-positive TTL
// disables caching entirely.
func NewItemCache(ttl time.Duration) *ItemCache {
	return &ItemCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached items for key, or false if absent or expired.
func (c *ItemCache) Get(key string) ([]entity.Item, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.items, true
}

// Set stores items under key for the cache TTL.
func (c *ItemCache) Set(key string, items []entity.Item) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{items: items, expiresAt: c.now().Add(c.ttl)}
}

// Len reports the number of live entries, expired ones included until their
// next Get. Used by health reporting.
func (c *ItemCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
