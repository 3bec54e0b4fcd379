package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fxtransfer/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RateRepository struct {
	pool *pgxpool.Pool
}

func (r *RateRepository) GetLatest(ctx context.Context, base, target string) (*domain.ExchangeRate, error) {
	const q = `
        select id, base_currency, target_currency, rate, created_at, updated_at
        from exchange_rates
        where base_currency = $1 and target_currency = $2
        order by updated_at desc
        limit 1;
    `

	var rate domain.ExchangeRate
	if err := r.pool.QueryRow(ctx, q, base, target).Scan(
		&rate.ID,
		&rate.Base,
		&rate.Target,
		&rate.Rate,
		&rate.CreatedAt,
		&rate.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRateNotFound
		}
		return nil, fmt.Errorf("failed to select rate for pair %q/%q: %w", base, target, err)
	}

	return &rate, nil
}

func (r *RateRepository) GetAllForBase(ctx context.Context, base string) (map[string]float64, error) {
	const q = `
        select distinct on (target_currency) target_currency, rate
        from exchange_rates
        where base_currency = $1
        order by target_currency, updated_at desc;
    `

	rows, err := r.pool.Query(ctx, q, base)
	if err != nil {
		return nil, fmt.Errorf("failed to query rates for base %q: %w", base, err)
	}
	defer rows.Close()

	rates := make(map[string]float64)
	for rows.Next() {
		var target string
		var rate float64
		if err = rows.Scan(&target, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan rate for base %q: %w", base, err)
		}
		rates[target] = rate
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rates for base %q: %w", base, err)
	}
	return rates, nil
}

func (r *RateRepository) HasFresh(ctx context.Context, base, target string, maxAge time.Duration) (bool, error) {
	const q = `
        select exists (
            select 1 from exchange_rates
            where base_currency = $1 and target_currency = $2 and updated_at > $3
        );
    `

	var fresh bool
	if err := r.pool.QueryRow(ctx, q, base, target, time.Now().Add(-maxAge)).Scan(&fresh); err != nil {
		return false, fmt.Errorf("failed to check rate freshness for pair %q/%q: %w", base, target, err)
	}
	return fresh, nil
}

func (r *RateRepository) Upsert(ctx context.Context, base, target string, rate float64) error {
	const q = `
        insert into exchange_rates (base_currency, target_currency, rate, created_at, updated_at)
        values ($1, $2, $3, now(), now())
        on conflict (base_currency, target_currency) do update
          set rate = excluded.rate, updated_at = now();
    `

	if _, err := r.pool.Exec(ctx, q, base, target, rate); err != nil {
		return fmt.Errorf("failed to upsert rate for pair %q/%q: %w", base, target, err)
	}
	return nil
}

type rateRow struct {
	Target string  `json:"target"`
	Rate   float64 `json:"rate"`
}

// UpsertAllForBase persists the whole batch in one statement inside one
// transaction; a failure rolls everything back, never leaving partial rates.
func (r *RateRepository) UpsertAllForBase(ctx context.Context, base string, rates map[string]float64) error {
	if len(rates) == 0 {
		return nil
	}

	payload := make([]rateRow, 0, len(rates))
	for target, rate := range rates {
		payload = append(payload, rateRow{Target: target, Rate: rate})
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal rates for base %q: %w", base, err)
	}

	const q = `
        insert into exchange_rates (base_currency, target_currency, rate, created_at, updated_at)
        select $1, r.target, r.rate, now(), now()
        from json_to_recordset($2::json) as r(target text, rate numeric)
        on conflict (base_currency, target_currency) do update
          set rate = excluded.rate, updated_at = now();
    `

	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, q, base, json.RawMessage(payloadJSON)); err != nil {
			return fmt.Errorf("failed to upsert rates for base %q: %w", base, err)
		}
		return nil
	})
}

func NewRateRepository(pool *pgxpool.Pool) *RateRepository {
	return &RateRepository{pool: pool}
}
