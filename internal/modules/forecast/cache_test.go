package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_PutGet(t *testing.T) {
	cache := NewCache(time.Hour)
	forecast := &EnsembleForecast{Symbol: "AAA", CurrentPrice: 100}

	key := cacheKey("AAA", DefaultOptions())
	cache.Put(key, forecast)

	got, ok := cache.Get(key)
	require.True(t, ok)
	assert.Same(t, forecast, got)

	_, ok = cache.Get(cacheKey("BBB", DefaultOptions()))
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := NewCache(time.Hour)
	cache.now = func() time.Time { return now }

	key := cacheKey("AAA", DefaultOptions())
	cache.Put(key, &EnsembleForecast{Symbol: "AAA"})

	now = now.Add(59 * time.Minute)
	_, ok := cache.Get(key)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get(key)
	assert.False(t, ok)
}

func TestCache_InvalidateRemovesAllVariantsForSymbol(t *testing.T) {
	cache := NewCache(time.Hour)

	short := Options{Horizons: []int{1}, Weights: DefaultWeights()}
	long := Options{Horizons: []int{30}, Weights: DefaultWeights()}
	cache.Put(cacheKey("AAA", short), &EnsembleForecast{Symbol: "AAA"})
	cache.Put(cacheKey("AAA", long), &EnsembleForecast{Symbol: "AAA"})
	cache.Put(cacheKey("BBB", short), &EnsembleForecast{Symbol: "BBB"})

	cache.Invalidate("AAA")

	_, ok := cache.Get(cacheKey("AAA", short))
	assert.False(t, ok)
	_, ok = cache.Get(cacheKey("AAA", long))
	assert.False(t, ok)
	_, ok = cache.Get(cacheKey("BBB", short))
	assert.True(t, ok)
}

func TestCache_DefaultTTL(t *testing.T) {
	cache := NewCache(0)
	assert.Equal(t, DefaultCacheTTL, cache.ttl)
}
