package soundboard

import (
	"testing"
	"time"
)

func TestTTLCacheEviction(t *testing.T) {
	const ttl = 10 * time.Minute
	start := time.Now()

	cache := newTTLCache(ttl)
	cache.put("sound-1", []byte{1}, start)

	cache.evictStale(start.Add(ttl / 2))
	if _, ok := cache.get("sound-1", start.Add(ttl/2)); !ok {
		t.Fatal("entry evicted before its TTL elapsed")
	}

	cache.evictStale(start.Add(2 * ttl))
	if _, ok := cache.get("sound-1", start.Add(2*ttl)); ok {
		t.Fatal("entry survived past twice its TTL without access")
	}
}

func TestTTLCacheAccessRefreshes(t *testing.T) {
	const ttl = 10 * time.Minute
	start := time.Now()

	cache := newTTLCache(ttl)
	cache.put("sound-1", []byte{1}, start)

	// Touch the entry just before expiry; it should live another TTL.
	cache.get("sound-1", start.Add(ttl-time.Second))
	cache.evictStale(start.Add(ttl + time.Minute))
	if _, ok := cache.get("sound-1", start.Add(ttl+time.Minute)); !ok {
		t.Fatal("access did not refresh the entry's TTL")
	}
}

func TestTTLCacheDelete(t *testing.T) {
	cache := newTTLCache(time.Minute)
	now := time.Now()
	cache.put("sound-1", []byte{1}, now)
	cache.delete("sound-1")
	if _, ok := cache.get("sound-1", now); ok {
		t.Fatal("entry present after delete")
	}
}
