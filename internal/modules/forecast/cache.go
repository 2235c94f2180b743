package forecast

import (
	"strings"
	"sync"
	"time"
)

// Cache is a time-bounded memo of ensemble forecasts, safe for concurrent
// use. The key covers everything that affects the output: instrument,
// horizon set and blend weights. Re-fitting identical models repeatedly is
// wasteful; the original system kept results for several hours.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	forecast *EnsembleForecast
	storedAt time.Time
}

// DefaultCacheTTL matches the multi-hour staleness window of the original
// system.
const DefaultCacheTTL = 6 * time.Hour

// NewCache creates a forecast cache. A non-positive ttl uses
// DefaultCacheTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns a cached forecast if present and not expired.
func (c *Cache) Get(key string) (*EnsembleForecast, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(entry.storedAt) > c.ttl {
		return nil, false
	}
	return entry.forecast, true
}

// Put stores a forecast.
func (c *Cache) Put(key string, f *EnsembleForecast) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{forecast: f, storedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate removes all cached forecasts for a symbol, across every
// horizon/weight combination.
func (c *Cache) Invalidate(symbol string) {
	prefix := symbol + "|"
	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}
