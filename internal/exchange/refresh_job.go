package exchange

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const perBaseTimeout = 15 * time.Second

// RateRefresher is the slice of the resolver the refresh job needs.
type RateRefresher interface {
	FetchAndStoreAllRates(ctx context.Context, base string, targets []string) (map[string]float64, error)
}

// RefreshAllRates refreshes and persists rates for every base currency in
// turn. Base currencies are independent: one failing base does not stop the
// rest, it only counts as an error in the run summary.
func RefreshAllRates(ctx context.Context, execID string, refresher RateRefresher, bases []string, targets []string) (succeeded, failed int) {
	runStart := time.Now()
	logrus.WithFields(logrus.Fields{
		"execID":  execID,
		"bases":   bases,
		"targets": targets,
	}).Info("Starting exchange rate update")

	for _, base := range bases {
		baseStart := time.Now()

		// Bounded per base: better to pick a base up on the next run than to
		// stall the whole job on one slow provider call.
		baseCtx, cancel := context.WithTimeout(ctx, perBaseTimeout)
		rates, err := refresher.FetchAndStoreAllRates(baseCtx, base, targets)
		cancel()

		if err != nil {
			failed++
			logrus.WithError(err).WithFields(logrus.Fields{
				"execID":      execID,
				"base":        base,
				"duration_ms": time.Since(baseStart).Milliseconds(),
			}).Error("Exchange rate update failed")
			continue
		}

		succeeded++
		logrus.WithFields(logrus.Fields{
			"execID":      execID,
			"base":        base,
			"rates_count": len(rates),
			"duration_ms": time.Since(baseStart).Milliseconds(),
		}).Info("Exchange rate update successful")
	}

	logrus.WithFields(logrus.Fields{
		"execID":            execID,
		"success_count":     succeeded,
		"error_count":       failed,
		"total_duration_ms": time.Since(runStart).Milliseconds(),
	}).Info("Exchange rate update completed")

	return succeeded, failed
}
