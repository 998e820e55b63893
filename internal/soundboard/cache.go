package soundboard

import (
	"sync"
	"time"
)

// ttlCache keeps recently played sound bytes in memory. Entries expire
// once they have not been accessed for ttl. The mutex is only held around
// map operations; the byte slices themselves are shared with callers and
// outlive eviction naturally.
type ttlCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	data       []byte
	lastAccess time.Time
}

func newTTLCache(ttl time.Duration) *ttlCache {
	return &ttlCache{
		ttl:     ttl,
		entries: make(map[string]*cacheEntry),
	}
}

// get returns the cached bytes for key and refreshes its last access.
func (c *ttlCache) get(key string, now time.Time) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry.lastAccess = now
	return entry.data, true
}

func (c *ttlCache) put(key string, data []byte, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &cacheEntry{data: data, lastAccess: now}
}

func (c *ttlCache) delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// evictStale drops every entry whose last access is at least ttl ago.
func (c *ttlCache) evictStale(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if now.Sub(entry.lastAccess) >= c.ttl {
			delete(c.entries, key)
		}
	}
}
