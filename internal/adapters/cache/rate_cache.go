package cache

import (
	"fmt"
	"time"

	"fxtransfer/internal/domain"

	"github.com/dgraph-io/ristretto"
)

// RistrettoRateCache keeps the most recent rate per currency pair together
// with its fetch time. Entries are not evicted by TTL: staleness is judged
// by the resolver, and an expired entry is still usable as a last-resort
// fallback when both the provider and the store come up empty.
type RistrettoRateCache struct {
	cache *ristretto.Cache
}

func NewRateCache(maxItems int64) (*RistrettoRateCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * maxItems,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create rate cache failed: %w", err)
	}
	return &RistrettoRateCache{cache: c}, nil
}

func (c *RistrettoRateCache) Get(pair domain.CurrencyPair) (domain.CachedRate, bool) {
	if v, ok := c.cache.Get(toKey(pair)); ok {
		entry, ok := v.(domain.CachedRate)
		return entry, ok
	}
	return domain.CachedRate{}, false
}

func (c *RistrettoRateCache) Set(pair domain.CurrencyPair, rate float64, fetchedAt time.Time) {
	c.cache.Set(toKey(pair), domain.CachedRate{Value: rate, FetchedAt: fetchedAt}, 1)
}

func (c *RistrettoRateCache) Close() { c.cache.Close() }

func toKey(p domain.CurrencyPair) string { return p.From + ":" + p.To }
