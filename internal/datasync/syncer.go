// Package datasync pulls price and constituent history from the upstream
// API into postgres. Used by the fetch CLI commands and the nightly job.
package datasync

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"stockpick/internal/contracts"
	"stockpick/internal/fmp"
	"stockpick/internal/store"
	"stockpick/pkg/logger"
)

// syncParallelism caps concurrent symbol fetches. The FMP rate limiter
// serializes the actual requests; this only bounds in-flight goroutines.
const syncParallelism = 4

// Syncer copies upstream data into the local store.
type Syncer struct {
	client       *fmp.Client
	prices       *store.PriceRepository
	constituents *store.ConstituentRepository
	indexPrices  *store.IndexPriceRepository
	logger       *logger.Logger
}

// NewSyncer creates a new syncer.
func NewSyncer(
	client *fmp.Client,
	prices *store.PriceRepository,
	constituents *store.ConstituentRepository,
	indexPrices *store.IndexPriceRepository,
	log *logger.Logger,
) *Syncer {
	return &Syncer{
		client:       client,
		prices:       prices,
		constituents: constituents,
		indexPrices:  indexPrices,
		logger:       log,
	}
}

// SyncConstituents refreshes the current membership snapshot and the full
// change log for an index.
func (s *Syncer) SyncConstituents(ctx context.Context, index contracts.Index) error {
	members, err := s.client.Constituents(ctx, index)
	if err != nil {
		return err
	}
	if err := s.constituents.SaveMembers(ctx, index, members); err != nil {
		return fmt.Errorf("save members for %s: %w", index, err)
	}

	changes, err := s.client.HistoricalConstituents(ctx, index)
	if err != nil {
		return err
	}
	if err := s.constituents.SaveChanges(ctx, index, changes); err != nil {
		return fmt.Errorf("save change log for %s: %w", index, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"index":   index,
		"members": len(members),
		"changes": len(changes),
	}).Info("Synced constituents")

	return nil
}

// SyncPrices fetches daily history for every symbol in the index universe.
// Incremental: each symbol resumes from its latest stored date.
func (s *Syncer) SyncPrices(ctx context.Context, index contracts.Index, from, to time.Time) error {
	symbols, err := s.constituents.At(ctx, index, to)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(syncParallelism)

	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			return s.syncSymbol(ctx, symbol, from, to)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"index":   index,
		"symbols": len(symbols),
	}).Info("Synced prices")

	return nil
}

func (s *Syncer) syncSymbol(ctx context.Context, symbol string, from, to time.Time) error {
	latest, err := s.prices.LatestDate(ctx, symbol)
	if err != nil {
		return fmt.Errorf("latest date for %s: %w", symbol, err)
	}
	if latest.After(from) {
		from = latest.AddDate(0, 0, 1)
	}
	if !from.Before(to) {
		return nil
	}

	series, err := s.client.HistoricalPrices(ctx, symbol, from, to)
	if err != nil {
		return err
	}
	if err := s.prices.SaveBatch(ctx, series); err != nil {
		return fmt.Errorf("save prices for %s: %w", symbol, err)
	}
	return nil
}

// SyncIndexPrices fetches daily index levels.
func (s *Syncer) SyncIndexPrices(ctx context.Context, index contracts.Index, from, to time.Time) error {
	series, err := s.client.IndexPrices(ctx, index, from, to)
	if err != nil {
		return err
	}
	if err := s.indexPrices.SaveBatch(ctx, index, series); err != nil {
		return fmt.Errorf("save index prices for %s: %w", index, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"index":  index,
		"points": len(series),
	}).Info("Synced index prices")

	return nil
}
