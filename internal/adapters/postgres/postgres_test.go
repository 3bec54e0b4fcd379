package postgres_test

import (
	"context"
	"math"
	"os"
	"sync"
	"testing"
	"time"

	"fxtransfer/internal/adapters/postgres"
	"fxtransfer/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	tcpg "github.com/testcontainers/testcontainers-go/modules/postgres"
)

const migrationsDir = "../../platform/db/migrations"

var (
	pgSetupOnce sync.Once

	pgContainer *tcpg.PostgresContainer
	pgConnStr   string
)

func TestMain(m *testing.M) {
	code := m.Run()
	if pgContainer != nil {
		_ = pgContainer.Terminate(context.Background())
	}
	os.Exit(code)
}

func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pgSetupOnce.Do(func() {
		startPostgres(t)
	})

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, pgConnStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	require.NoError(t, resetDatabase(ctx, pool))

	return pool
}

func startPostgres(t *testing.T) {
	ctx := context.Background()
	pg, err := tcpg.Run(ctx,
		"postgres:16-alpine",
		tcpg.WithDatabase("postgres"),
		tcpg.WithUsername("postgres"),
		tcpg.WithPassword("postgres"),
	)
	require.NoError(t, err)

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := goose.OpenDBWithDriver("pgx", dsn)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.Eventually(t, func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return db.PingContext(pingCtx) == nil
	}, 15*time.Second, 500*time.Millisecond)

	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.UpContext(ctx, db, migrationsDir))

	pgContainer = pg
	pgConnStr = dsn
}

// resetDatabase clears mutable tables; currencies keep the migration seed.
func resetDatabase(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `truncate table transactions, accounts, clients, exchange_rates restart identity cascade`); err != nil {
		return err
	}
	return nil
}

func seedAccount(t *testing.T, pool *pgxpool.Pool, number, currency string, balance float64) int64 {
	t.Helper()
	ctx := context.Background()

	var clientID int64
	err := pool.QueryRow(ctx,
		`insert into clients(name, email) values ($1, $2) returning id`,
		"client-"+number, number+"@example.com",
	).Scan(&clientID)
	require.NoError(t, err)

	var accountID int64
	err = pool.QueryRow(ctx,
		`insert into accounts(account_number, currency, balance, client_id) values ($1, $2, $3, $4) returning id`,
		number, currency, balance, clientID,
	).Scan(&accountID)
	require.NoError(t, err)
	return accountID
}

func accountBalance(t *testing.T, pool *pgxpool.Pool, id int64) float64 {
	t.Helper()
	var balance float64
	require.NoError(t, pool.QueryRow(context.Background(), `select balance from accounts where id = $1`, id).Scan(&balance))
	return balance
}

// ---------- LedgerRepository tests ----------

func TestLedgerRepository_GetAccountByID_NotFound(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewLedgerRepository(pool)

	_, err := repo.GetAccountByID(context.Background(), 12345)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestLedgerRepository_GetAccountByID_Success(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewLedgerRepository(pool)

	id := seedAccount(t, pool, "ACC-1001", "USD", 250.5)

	account, err := repo.GetAccountByID(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, id, account.ID)
	require.Equal(t, "ACC-1001", account.Number)
	require.Equal(t, "USD", account.Currency)
	require.InDelta(t, 250.5, account.Balance, 1e-9)
	require.NotZero(t, account.ClientID)
}

func TestLedgerRepository_GetAccountByID_DBError(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewLedgerRepository(pool)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := repo.GetAccountByID(ctx, 1)
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestLedgerRepository_ApplyTransfer_MovesFundsAndRecordsTransaction(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewLedgerRepository(pool)
	ctx := context.Background()

	sourceID := seedAccount(t, pool, "ACC-SRC", "USD", 200)
	destinationID := seedAccount(t, pool, "ACC-DST", "EUR", 10)

	transaction, err := repo.ApplyTransfer(ctx, domain.Transfer{
		SourceAccountID:      sourceID,
		DestinationAccountID: destinationID,
		SourceAmount:         118,
		DestinationAmount:    100,
		Amount:               100,
		Currency:             "EUR",
		Description:          "invoice 42",
		ExchangeRate:         0.85,
	})
	require.NoError(t, err)
	require.NotZero(t, transaction.ID)
	require.False(t, transaction.CreatedAt.IsZero())
	require.Equal(t, sourceID, transaction.SourceAccountID)
	require.Equal(t, destinationID, transaction.DestinationAccountID)

	require.InDelta(t, 82, accountBalance(t, pool, sourceID), 1e-9)
	require.InDelta(t, 110, accountBalance(t, pool, destinationID), 1e-9)

	var amount, exchangeRate float64
	var currency, description string
	err = pool.QueryRow(ctx,
		`select amount, currency, description, exchange_rate from transactions where id = $1`,
		transaction.ID,
	).Scan(&amount, &currency, &description, &exchangeRate)
	require.NoError(t, err)
	require.InDelta(t, 100, amount, 1e-9)
	require.Equal(t, "EUR", currency)
	require.Equal(t, "invoice 42", description)
	require.InDelta(t, 0.85, exchangeRate, 1e-9)
}

func TestLedgerRepository_ApplyTransfer_EmptyDescriptionStoredAsNull(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewLedgerRepository(pool)
	ctx := context.Background()

	sourceID := seedAccount(t, pool, "ACC-A", "USD", 100)
	destinationID := seedAccount(t, pool, "ACC-B", "USD", 0)

	transaction, err := repo.ApplyTransfer(ctx, domain.Transfer{
		SourceAccountID:      sourceID,
		DestinationAccountID: destinationID,
		SourceAmount:         50,
		DestinationAmount:    50,
		Amount:               50,
		Currency:             "USD",
		ExchangeRate:         1.0,
	})
	require.NoError(t, err)

	var description *string
	require.NoError(t, pool.QueryRow(ctx, `select description from transactions where id = $1`, transaction.ID).Scan(&description))
	require.Nil(t, description)
}

func TestLedgerRepository_ApplyTransfer_UnknownAccount_RollsBackEverything(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewLedgerRepository(pool)
	ctx := context.Background()

	sourceID := seedAccount(t, pool, "ACC-ONLY", "USD", 200)

	_, err := repo.ApplyTransfer(ctx, domain.Transfer{
		SourceAccountID:      sourceID,
		DestinationAccountID: sourceID + 999,
		SourceAmount:         100,
		DestinationAmount:    100,
		Amount:               100,
		Currency:             "USD",
		ExchangeRate:         1.0,
	})
	require.Error(t, err)

	// the source balance is untouched and no transaction row exists
	require.InDelta(t, 200, accountBalance(t, pool, sourceID), 1e-9)
	var count int
	require.NoError(t, pool.QueryRow(ctx, `select count(*) from transactions`).Scan(&count))
	require.Zero(t, count)
}

func TestLedgerRepository_ApplyTransfer_DBError_BeginTx(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewLedgerRepository(pool)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := repo.ApplyTransfer(ctx, domain.Transfer{SourceAccountID: 1, DestinationAccountID: 2})
	require.Error(t, err)
}

// ---------- RateRepository tests ----------

func TestRateRepository_GetLatest_NotFound(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewRateRepository(pool)

	_, err := repo.GetLatest(context.Background(), "USD", "EUR")
	require.ErrorIs(t, err, domain.ErrRateNotFound)
}

func TestRateRepository_UpsertThenGetLatest(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewRateRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "USD", "EUR", 0.92))

	rate, err := repo.GetLatest(ctx, "USD", "EUR")
	require.NoError(t, err)
	require.Equal(t, "USD", rate.Base)
	require.Equal(t, "EUR", rate.Target)
	require.InDelta(t, 0.92, rate.Rate, 1e-9)
	require.False(t, rate.CreatedAt.IsZero())
	require.False(t, rate.UpdatedAt.IsZero())
}

func TestRateRepository_Upsert_SecondWriteUpdatesInPlace(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewRateRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "USD", "EUR", 0.90))
	first, err := repo.GetLatest(ctx, "USD", "EUR")
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(ctx, "USD", "EUR", 0.92))
	second, err := repo.GetLatest(ctx, "USD", "EUR")
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.InDelta(t, 0.92, second.Rate, 1e-9)
	require.True(t, second.CreatedAt.Equal(first.CreatedAt))
	require.False(t, second.UpdatedAt.Before(first.UpdatedAt))

	var count int
	require.NoError(t, pool.QueryRow(ctx, `select count(*) from exchange_rates where base_currency='USD' and target_currency='EUR'`).Scan(&count))
	require.Equal(t, 1, count)
}

func TestRateRepository_HasFresh(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewRateRepository(pool)
	ctx := context.Background()

	// no row at all
	fresh, err := repo.HasFresh(ctx, "USD", "EUR", 24*time.Hour)
	require.NoError(t, err)
	require.False(t, fresh)

	require.NoError(t, repo.Upsert(ctx, "USD", "EUR", 0.92))

	fresh, err = repo.HasFresh(ctx, "USD", "EUR", 24*time.Hour)
	require.NoError(t, err)
	require.True(t, fresh)

	// age the row beyond any reasonable TTL
	_, err = pool.Exec(ctx, `update exchange_rates set updated_at = now() - interval '48 hours' where base_currency='USD' and target_currency='EUR'`)
	require.NoError(t, err)

	fresh, err = repo.HasFresh(ctx, "USD", "EUR", 24*time.Hour)
	require.NoError(t, err)
	require.False(t, fresh)
}

func TestRateRepository_GetAllForBase(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewRateRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "USD", "EUR", 0.92))
	require.NoError(t, repo.Upsert(ctx, "USD", "GBP", 0.79))
	require.NoError(t, repo.Upsert(ctx, "EUR", "USD", 1.09))

	rates, err := repo.GetAllForBase(ctx, "USD")
	require.NoError(t, err)
	require.Len(t, rates, 2)
	require.InDelta(t, 0.92, rates["EUR"], 1e-9)
	require.InDelta(t, 0.79, rates["GBP"], 1e-9)

	rates, err = repo.GetAllForBase(ctx, "JPY")
	require.NoError(t, err)
	require.Empty(t, rates)
}

func TestRateRepository_UpsertAllForBase_BatchInsertAndUpdate(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewRateRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "USD", "EUR", 0.90))

	err := repo.UpsertAllForBase(ctx, "USD", map[string]float64{
		"EUR": 0.92,
		"GBP": 0.79,
		"JPY": 147.2,
	})
	require.NoError(t, err)

	rates, err := repo.GetAllForBase(ctx, "USD")
	require.NoError(t, err)
	require.Len(t, rates, 3)
	require.InDelta(t, 0.92, rates["EUR"], 1e-9)
	require.InDelta(t, 0.79, rates["GBP"], 1e-9)
	require.InDelta(t, 147.2, rates["JPY"], 1e-9)
}

func TestRateRepository_UpsertAllForBase_EmptyNoop(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewRateRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.UpsertAllForBase(ctx, "USD", nil))
	require.NoError(t, repo.UpsertAllForBase(ctx, "USD", map[string]float64{}))

	var count int
	require.NoError(t, pool.QueryRow(ctx, `select count(*) from exchange_rates`).Scan(&count))
	require.Zero(t, count)
}

func TestRateRepository_UpsertAllForBase_JSONMarshalError_NaN(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewRateRepository(pool)

	err := repo.UpsertAllForBase(context.Background(), "USD", map[string]float64{"EUR": math.NaN()})
	require.Error(t, err)
}

func TestRateRepository_UpsertAllForBase_DBError_BeginTx(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewRateRepository(pool)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := repo.UpsertAllForBase(ctx, "USD", map[string]float64{"EUR": 0.92})
	require.Error(t, err)
}
