package exchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fxtransfer/internal/adapters"
	"fxtransfer/internal/domain"

	"github.com/sirupsen/logrus"
)

const (
	defaultCacheTTL = 3600 * time.Second
	defaultDbTTL    = 86400 * time.Second
)

// Service resolves exchange rates through three tiers: the in-process cache,
// the persisted rate store and the live provider. Provider connectivity
// failures degrade to persisted data of any age, then to an expired cache
// entry; invalid-input failures are never absorbed.
type Service struct {
	client    adapters.RateClient
	rateRepo  adapters.RateRepository
	cache     adapters.RateCache
	validator *CurrencyValidator

	cacheTTL time.Duration
	dbTTL    time.Duration
}

func NewService(
	client adapters.RateClient,
	rateRepo adapters.RateRepository,
	rateCache adapters.RateCache,
	validator *CurrencyValidator,
	cacheTTL time.Duration,
	dbTTL time.Duration,
) *Service {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	if dbTTL <= 0 {
		dbTTL = defaultDbTTL
	}
	return &Service{
		client:    client,
		rateRepo:  rateRepo,
		cache:     rateCache,
		validator: validator,
		cacheTTL:  cacheTTL,
		dbTTL:     dbTTL,
	}
}

func (s *Service) IsCurrencySupported(code string) bool {
	return s.validator.IsSupported(code)
}

func (s *Service) SupportedCodes() []string {
	return s.validator.SupportedCodes()
}

// GetExchangeRate returns the rate from one currency to another.
//
// A same-currency query answers 1.0 with no I/O. A valid cache entry is
// returned as-is. Otherwise the rate is fetched (possibly short-circuited by
// a fresh persisted row, see fetchExchangeRateFromAPI) and written through
// to both the cache and the store. Only a transport failure from the
// provider triggers the fallback chain: latest persisted rate regardless of
// age, then an expired cache entry, then ErrServiceUnavailable.
func (s *Service) GetExchangeRate(ctx context.Context, from, to string) (float64, error) {
	if from == to {
		return 1.0, nil
	}

	pair := domain.CurrencyPair{From: from, To: to}
	if entry, ok := s.cache.Get(pair); ok && time.Since(entry.FetchedAt) < s.cacheTTL {
		return entry.Value, nil
	}

	rate, err := s.fetchExchangeRateFromAPI(ctx, from, to)
	if err == nil {
		s.cache.Set(pair, rate, time.Now())
		if storeErr := s.rateRepo.Upsert(ctx, from, to, rate); storeErr != nil {
			return 0, storeErr
		}
		return rate, nil
	}

	if !domain.IsTransport(err) {
		return 0, err
	}

	logrus.WithError(err).WithField("pair", pair.String()).Warn("Rate provider unreachable, falling back to persisted rate")

	stored, repoErr := s.rateRepo.GetLatest(ctx, from, to)
	if repoErr == nil {
		s.cache.Set(pair, stored.Rate, time.Now())
		return stored.Rate, nil
	}
	if !errors.Is(repoErr, domain.ErrRateNotFound) {
		return 0, repoErr
	}

	// No persisted rate either; an expired cache entry beats failing.
	if entry, ok := s.cache.Get(pair); ok {
		return entry.Value, nil
	}

	return 0, fmt.Errorf("%w: %s", domain.ErrServiceUnavailable, err)
}

// fetchExchangeRateFromAPI resolves a single pair, preferring a persisted
// rate younger than the DB TTL over a live call. Both currencies are checked
// against the allow-list before any network I/O.
func (s *Service) fetchExchangeRateFromAPI(ctx context.Context, from, to string) (float64, error) {
	fresh, err := s.rateRepo.HasFresh(ctx, from, to, s.dbTTL)
	if err != nil {
		return 0, err
	}
	if fresh {
		stored, lookupErr := s.rateRepo.GetLatest(ctx, from, to)
		if lookupErr == nil {
			return stored.Rate, nil
		}
		if !errors.Is(lookupErr, domain.ErrRateNotFound) {
			return 0, lookupErr
		}
	}

	if err = s.validator.Validate(from); err != nil {
		return 0, err
	}
	if err = s.validator.Validate(to); err != nil {
		return 0, err
	}

	ratesMap, err := s.client.GetExchangeRates(ctx, from)
	if err != nil {
		return 0, err
	}

	rate, ok := ratesMap[to]
	if !ok {
		return 0, &domain.InvalidInputError{
			Reason: fmt.Sprintf("Could not get exchange rate from %s to %s", from, to),
		}
	}
	return rate, nil
}

// FetchAndStoreAllRates fetches the provider's full rate map for the base
// currency and persists every supported pair in one atomic unit.
//
// The returned map is filtered by the supported-currency set, not by the
// caller-provided targets list; the targets only shape what the caller asked
// to refresh and what gets logged. On a transport failure the call degrades
// to whatever is persisted for the base currency, and fails with
// ErrServiceUnavailable only when that is empty too.
func (s *Service) FetchAndStoreAllRates(ctx context.Context, base string, targets []string) (map[string]float64, error) {
	if err := s.validator.Validate(base); err != nil {
		return nil, err
	}

	ratesMap, err := s.client.GetExchangeRates(ctx, base)
	if err != nil {
		if !domain.IsTransport(err) {
			return nil, err
		}

		logrus.WithError(err).WithFields(logrus.Fields{
			"base":    base,
			"targets": targets,
		}).Warn("Rate provider unreachable, serving persisted rates")

		stored, repoErr := s.rateRepo.GetAllForBase(ctx, base)
		if repoErr != nil {
			return nil, repoErr
		}
		if len(stored) == 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrServiceUnavailable, err)
		}
		return stored, nil
	}

	if len(ratesMap) == 0 {
		return nil, &domain.InvalidInputError{
			Reason: fmt.Sprintf("Could not get exchange rates for %s", base),
		}
	}

	filtered := make(map[string]float64, len(ratesMap))
	for target, rate := range ratesMap {
		if s.validator.IsSupported(target) {
			filtered[target] = rate
		}
	}

	if err = s.rateRepo.UpsertAllForBase(ctx, base, filtered); err != nil {
		return nil, err
	}
	return filtered, nil
}
