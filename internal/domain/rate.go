package domain

import (
	"time"
)

// ExchangeRate is the persisted cache entry for one currency pair. There is
// one logical row per (Base, Target): CreatedAt is set on first insert,
// UpdatedAt is refreshed on every overwrite.
type ExchangeRate struct {
	ID        int64
	Base      string
	Target    string
	Rate      float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CachedRate is an in-memory cache entry. FetchedAt is wall-clock time of
// the fetch; readers judge freshness against their own TTL.
type CachedRate struct {
	Value     float64
	FetchedAt time.Time
}

type CurrencyPair struct {
	From string
	To   string
}

func (p CurrencyPair) String() string {
	return p.From + "/" + p.To
}
