package adapters

import (
	"context"
	"time"

	"fxtransfer/internal/domain"
)

// RateClient fetches the full target→rate map for a base currency from the
// external provider. Connectivity failures are returned as
// *domain.TransportError; semantically invalid responses are not.
type RateClient interface {
	GetExchangeRates(ctx context.Context, base string) (map[string]float64, error)
}

type RateRepository interface {
	// GetLatest returns the most recently updated rate for the pair, or
	// domain.ErrRateNotFound.
	GetLatest(ctx context.Context, base, target string) (*domain.ExchangeRate, error)
	// GetAllForBase returns the latest persisted rate per target currency.
	GetAllForBase(ctx context.Context, base string) (map[string]float64, error)
	// HasFresh reports whether a persisted rate younger than maxAge exists.
	HasFresh(ctx context.Context, base, target string, maxAge time.Duration) (bool, error)
	Upsert(ctx context.Context, base, target string, rate float64) error
	// UpsertAllForBase persists every (base, target) pair in one atomic unit.
	UpsertAllForBase(ctx context.Context, base string, rates map[string]float64) error
}

type LedgerRepository interface {
	// GetAccountByID returns the account or domain.ErrAccountNotFound.
	GetAccountByID(ctx context.Context, id int64) (*domain.Account, error)
	// ApplyTransfer applies both balance mutations and creates the
	// Transaction row inside one atomic unit. On any failure the unit is
	// rolled back and the original error is returned unchanged.
	ApplyTransfer(ctx context.Context, transfer domain.Transfer) (*domain.Transaction, error)
}

// RateCache is the process-local pair→rate cache. Entries carry their fetch
// time; the resolver decides freshness, so an expired entry stays readable
// as a last-resort fallback until it is overwritten.
type RateCache interface {
	Get(pair domain.CurrencyPair) (domain.CachedRate, bool)
	Set(pair domain.CurrencyPair, rate float64, fetchedAt time.Time)
}
