package service

import (
	"sync"

	"github.com/offsuit/analyzer/pkg/metrics"
)

// Cache memoizes derived results between data refreshes. The engines are
// pure functions of the round history, so cached values stay valid until
// the next refresh invalidates everything at once. There is no per-key
// expiry on purpose; staleness is bounded by the refresh cycle, not time.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]any)}
}

// Get returns the cached value for key, computing and storing it via load
// on a miss. Concurrent misses may compute more than once; last write
// wins, which is harmless for pure results.
func (c *Cache) Get(key string, load func() (any, error)) (any, error) {
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		metrics.RecordCacheHit()
		return v, nil
	}
	metrics.RecordCacheMiss()

	v, err := load()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = v
	c.mu.Unlock()
	return v, nil
}

// InvalidateAll drops every cached value. Called after each data refresh.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]any)
	c.mu.Unlock()
}

// Warm precomputes the given keys so the first reader after a refresh does
// not pay the build cost. Load errors are skipped; the key simply stays
// cold.
func (c *Cache) Warm(keys []string, load func(key string) (any, error)) {
	for _, key := range keys {
		c.mu.RLock()
		_, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			continue
		}

		v, err := load(key)
		if err != nil {
			continue
		}
		c.mu.Lock()
		c.entries[key] = v
		c.mu.Unlock()
	}
}
