package session

import (
	"sync"
	"time"
)

// Cache is an in-memory map whose entries expire after a period without
// access. Expired entries are only removed by RemoveExpired.
type Cache[K comparable, V any] struct {
	data map[K]*cacheEntry[V]
	ttl  time.Duration
	now  func() time.Time
	mu   sync.RWMutex

	hits   int64
	misses int64
}

// cacheEntry represents a cache entry with expiration
type cacheEntry[V any] struct {
	value      V
	expiration time.Time
}

// NewCache creates a cache with a sliding ttl
func NewCache[K comparable, V any](ttl time.Duration, now func() time.Time) *Cache[K, V] {
	if now == nil {
		now = time.Now
	}
	return &Cache[K, V]{
		data: make(map[K]*cacheEntry[V]),
		ttl:  ttl,
		now:  now,
	}
}

// Get retrieves a live value and extends its expiration
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	now := c.now()
	if !ok || now.After(entry.expiration) {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	entry.expiration = now.Add(c.ttl)
	return entry.value, true
}

// Set stores a value in the cache
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = &cacheEntry[V]{
		value:      value,
		expiration: c.now().Add(c.ttl),
	}
}

// Delete removes a value and returns it
func (c *Cache[K, V]) Delete(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok {
		var zero V
		return zero, false
	}
	delete(c.data, key)
	return entry.value, true
}

// Size returns the number of entries in the cache, expired ones included
func (c *Cache[K, V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}

// Values returns every live value
func (c *Cache[K, V]) Values() []V {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	values := make([]V, 0, len(c.data))
	for _, entry := range c.data {
		if !now.After(entry.expiration) {
			values = append(values, entry.value)
		}
	}
	return values
}

// RemoveExpired removes expired entries and returns their values
func (c *Cache[K, V]) RemoveExpired() []V {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var removed []V
	for key, entry := range c.data {
		if now.After(entry.expiration) {
			removed = append(removed, entry.value)
			delete(c.data, key)
		}
	}
	return removed
}

// Drain removes and returns every entry
func (c *Cache[K, V]) Drain() []V {
	c.mu.Lock()
	defer c.mu.Unlock()

	values := make([]V, 0, len(c.data))
	for _, entry := range c.data {
		values = append(values, entry.value)
	}
	c.data = make(map[K]*cacheEntry[V])
	return values
}

// CacheStats is a point-in-time view of cache usage
type CacheStats struct {
	Size    int     `json:"size"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// GetStats returns cache statistics
func (c *Cache[K, V]) GetStats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return CacheStats{
		Size:    len(c.data),
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: hitRate,
	}
}
