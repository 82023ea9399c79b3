package metrics

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"stockpick/internal/contracts"
	"stockpick/internal/weekly"
	"stockpick/pkg/logger"
)

// batchParallelism bounds concurrent per-symbol computations. Each symbol is
// independent and read-only over shared inputs, so this is a safe point for
// parallelism.
const batchParallelism = 8

// Service computes metric batches over a universe of symbols for one as-of
// date, pulling daily prices through the PriceSource contract.
type Service struct {
	prices        contracts.PriceSource
	lookbackWeeks int
	logger        *logger.Logger
}

// NewService creates a metrics computation service.
func NewService(prices contracts.PriceSource, lookbackWeeks int, log *logger.Logger) *Service {
	return &Service{
		prices:        prices,
		lookbackWeeks: lookbackWeeks,
		logger:        log,
	}
}

// ComputeBatch computes MetricsRecords for every symbol in the universe as
// of asOf. Per-symbol data problems (short history, missing coverage,
// non-positive prices) exclude that symbol from the result instead of
// failing the batch; only infrastructure errors propagate.
func (s *Service) ComputeBatch(ctx context.Context, symbols []string, asOf time.Time) (map[string]contracts.MetricsRecord, error) {
	type outcome struct {
		symbol string
		record *contracts.MetricsRecord
	}

	results := make(chan outcome, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchParallelism)

	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			record, err := s.computeOne(gctx, symbol, asOf)
			if err != nil {
				if isExcludable(err) {
					s.logger.WithFields(map[string]interface{}{
						"symbol": symbol,
						"date":   asOf.Format("2006-01-02"),
						"reason": err.Error(),
					}).Debug("Symbol excluded from analysis")
					results <- outcome{symbol: symbol}
					return nil
				}
				return err
			}
			results <- outcome{symbol: symbol, record: record}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(results)

	records := make(map[string]contracts.MetricsRecord, len(symbols))
	for out := range results {
		if out.record != nil {
			records[out.symbol] = *out.record
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"date":     asOf.Format("2006-01-02"),
		"universe": len(symbols),
		"analyzed": len(records),
	}).Info("Metrics batch computed")

	return records, nil
}

// computeOne runs the full pipeline for a single symbol: fetch, aggregate
// to weekly, compute metrics.
func (s *Service) computeOne(ctx context.Context, symbol string, asOf time.Time) (*contracts.MetricsRecord, error) {
	series, err := s.prices.Series(ctx, symbol, asOf, s.lookbackWeeks)
	if err != nil {
		return nil, err
	}

	weeks, err := weekly.Aggregate(symbol, series, asOf, s.lookbackWeeks)
	if err != nil {
		return nil, err
	}

	return Compute(symbol, weeks, asOf)
}

// isExcludable reports whether a per-symbol error converts to exclusion
// rather than failing the batch.
func isExcludable(err error) bool {
	var insufficient *contracts.InsufficientDataError
	var invalidPrice *contracts.InvalidPriceError
	var unavailable *contracts.DataUnavailableError
	return errors.As(err, &insufficient) ||
		errors.As(err, &invalidPrice) ||
		errors.As(err, &unavailable)
}
