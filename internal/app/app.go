package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fxtransfer/internal/adapters/cache"
	"fxtransfer/internal/adapters/httpclient"
	"fxtransfer/internal/adapters/postgres"
	"fxtransfer/internal/api"
	"fxtransfer/internal/config"
	"fxtransfer/internal/exchange"
	exchangehandler "fxtransfer/internal/exchange/handler"
	"fxtransfer/internal/platform/db"
	httpserver "fxtransfer/internal/platform/http"
	"fxtransfer/internal/transfer"
	transferhandler "fxtransfer/internal/transfer/handler"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Run wires the application components, starts the HTTP server and the
// rate-refresh scheduler.
func Run() error {
	appCfg, err := config.Init()
	if err != nil {
		return err
	}
	// Logger
	logrus.SetOutput(os.Stdout)
	cfgLevel := appCfg.Logging.Level
	if parsedLvl, parseErr := logrus.ParseLevel(cfgLevel); parseErr != nil {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(parsedLvl)
	}
	logrus.Info("✅ Config initialization successful")

	// Root context bound to OS signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bounded context for startup operations (DB connect, initial reads)
	startupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// DB pool
	pool, err := db.CreatePoolAndPing(startupCtx, appCfg.DbServer)
	if err != nil {
		logrus.WithError(err).Error("Error connecting to db")
		return err
	}
	defer pool.Close()
	logrus.Info("✅ Postgres connection successful")

	// Load supported currency codes
	supportedCodes, err := loadSupportedCodes(startupCtx, pool)
	if err != nil || len(supportedCodes) == 0 {
		if err == nil {
			err = errors.New("no supported currencies available")
		}
		logrus.WithError(err).Error("Failed to load supported currencies")
		return err
	}
	logrus.Info("✅ Supported currencies loaded")

	// Base HTTP client (configurable timeout)
	httpTimeout := time.Duration(appCfg.HTTPClient.TimeoutSeconds) * time.Second
	if httpTimeout <= 0 {
		httpTimeout = 10 * time.Second
	}
	baseHTTPClient := &http.Client{Timeout: httpTimeout}

	// External clients
	rateClient := httpclient.NewExchangeRateClient(
		baseHTTPClient,
		strings.TrimSuffix(appCfg.ExchangeRateAPI.BaseURL, "/"),
	)

	// Rate cache
	rateCache, err := cache.NewRateCache(appCfg.Rates.CacheMaxItems)
	if err != nil {
		logrus.WithError(err).Error("Failed to create rate cache")
		return err
	}
	defer rateCache.Close()

	// Repositories
	rateRepo := postgres.NewRateRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)

	// Services
	validator := exchange.NewValidator(supportedCodes)
	exchangeService := exchange.NewService(
		rateClient,
		rateRepo,
		rateCache,
		validator,
		time.Duration(appCfg.Rates.CacheTTLSeconds)*time.Second,
		time.Duration(appCfg.Rates.DbTTLSeconds)*time.Second,
	)
	transferService := transfer.NewService(ledgerRepo, exchangeService)

	// Scheduler
	scheduler := exchange.NewScheduler(
		exchangeService,
		appCfg.Scheduler.BaseCurrencies,
		appCfg.Scheduler.TargetCurrencies,
		time.Duration(appCfg.Scheduler.IntervalSeconds)*time.Second,
	)
	// Ensure scheduler stops before DB pool closes
	defer func() {
		if shutDownErr := scheduler.Shutdown(); shutDownErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", shutDownErr)
		}
	}()
	if startErr := scheduler.Start(ctx); startErr != nil {
		logrus.WithError(startErr).Error("Failed to start scheduler")
		return startErr
	}
	logrus.Info("✅ Scheduler activation successful")

	// Handlers and router
	rateHandler := exchangehandler.NewRateHandler(exchangeService)
	transferHandler := transferhandler.NewTransferHandler(transferService)
	router := api.NewRouter(transferHandler, rateHandler)

	logrus.Info("Starting http server")
	// Block until context is canceled, then perform graceful shutdown.
	if serverErr := httpserver.Start(ctx, appCfg.HTTPServer, router); serverErr != nil {
		// Cancel the root context to stop scheduler and other in-flight work
		stop()
		logrus.Errorf("HTTP server error: %v", serverErr)
		return serverErr
	}
	return nil
}

// loadSupportedCodes loads supported currency codes from DB
func loadSupportedCodes(ctx context.Context, pool *pgxpool.Pool) (map[string]struct{}, error) {
	rows, err := pool.Query(ctx, `select code from currencies`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m := make(map[string]struct{})
	for rows.Next() {
		var c string
		if err = rows.Scan(&c); err != nil {
			return nil, err
		}
		m[c] = struct{}{}
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return m, nil
}
