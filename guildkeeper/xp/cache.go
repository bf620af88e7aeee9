package xp

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

const defaultCacheSize = 10000

type cachedEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// ttlCache is a size-bounded LRU whose entries also expire. Expiry is checked
// lazily on Get; Sweep drops what has gone stale in bulk.
type ttlCache[K comparable, V any] struct {
	lru *lru.Cache
	ttl time.Duration
	now func() time.Time
	// guards Keys+Remove walks against concurrent Adds
	mu sync.Mutex
}

func newTTLCache[K comparable, V any](size int, ttl time.Duration, now func() time.Time) *ttlCache[K, V] {
	if size <= 0 {
		size = defaultCacheSize
	}
	if now == nil {
		now = time.Now
	}
	cache, _ := lru.New(size)
	return &ttlCache[K, V]{lru: cache, ttl: ttl, now: now}
}

func (c *ttlCache[K, V]) Get(key K) (V, bool) {
	var zero V
	raw, ok := c.lru.Get(key)
	if !ok {
		return zero, false
	}
	entry := raw.(cachedEntry[V])
	if !c.now().Before(entry.expiresAt) {
		c.lru.Remove(key)
		return zero, false
	}
	return entry.value, true
}

func (c *ttlCache[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

func (c *ttlCache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, cachedEntry[V]{value: value, expiresAt: c.now().Add(ttl)})
}

// Update rewrites a live entry in place keeping its expiry. It reports false
// when there was nothing to update.
func (c *ttlCache[K, V]) Update(key K, fn func(V) V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.lru.Peek(key)
	if !ok {
		return false
	}
	entry := raw.(cachedEntry[V])
	if !c.now().Before(entry.expiresAt) {
		c.lru.Remove(key)
		return false
	}
	entry.value = fn(entry.value)
	c.lru.Add(key, entry)
	return true
}

func (c *ttlCache[K, V]) Delete(key K) {
	c.lru.Remove(key)
}

// DeleteFunc removes every key matching pred and returns how many went.
func (c *ttlCache[K, V]) DeleteFunc(pred func(K) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for _, raw := range c.lru.Keys() {
		key := raw.(K)
		if pred(key) {
			c.lru.Remove(key)
			removed++
		}
	}
	return removed
}

// Sweep drops expired entries.
func (c *ttlCache[K, V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for _, raw := range c.lru.Keys() {
		v, ok := c.lru.Peek(raw)
		if !ok {
			continue
		}
		if !now.Before(v.(cachedEntry[V]).expiresAt) {
			c.lru.Remove(raw)
			removed++
		}
	}
	return removed
}

func (c *ttlCache[K, V]) Len() int {
	return c.lru.Len()
}

func (c *ttlCache[K, V]) Purge() {
	c.lru.Purge()
}
