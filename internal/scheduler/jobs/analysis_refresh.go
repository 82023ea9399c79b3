package jobs

import (
	"context"
	"fmt"
	"time"

	"stockpick/internal/analysiscache"
	"stockpick/internal/contracts"
	"stockpick/internal/metrics"
	"stockpick/internal/store"
	"stockpick/pkg/logger"
)

// AnalysisRefreshJob recomputes the full metrics snapshot for the latest
// trading day and persists it, so morning API requests hit warm data.
type AnalysisRefreshJob struct {
	constituents contracts.ConstituentSource
	calendar     contracts.TradingCalendar
	cache        *analysiscache.Cache
	metrics      *metrics.Service
	snapshots    *store.MetricsRepository
	index        contracts.Index
	logger       *logger.Logger
}

// NewAnalysisRefreshJob creates a new analysis refresh job
func NewAnalysisRefreshJob(
	constituents contracts.ConstituentSource,
	calendar contracts.TradingCalendar,
	cache *analysiscache.Cache,
	metricsService *metrics.Service,
	snapshots *store.MetricsRepository,
	index contracts.Index,
	log *logger.Logger,
) *AnalysisRefreshJob {
	return &AnalysisRefreshJob{
		constituents: constituents,
		calendar:     calendar,
		cache:        cache,
		metrics:      metricsService,
		snapshots:    snapshots,
		index:        index,
		logger:       log,
	}
}

// Name returns the job name
func (j *AnalysisRefreshJob) Name() string {
	return "analysis_refresh"
}

// Schedule returns the cron schedule: 23:30 UTC on weekdays, an hour after
// the data sync.
func (j *AnalysisRefreshJob) Schedule() string {
	return "0 30 23 * * MON-FRI"
}

// Run recomputes and stores the analysis for the latest trading day.
func (j *AnalysisRefreshJob) Run(ctx context.Context) error {
	date, err := j.calendar.TradingDayOnOrBefore(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("resolve trading day: %w", err)
	}

	universe, err := j.constituents.At(ctx, j.index, date)
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}

	records, err := j.cache.GetOrCompute(ctx, date, j.index, universe,
		func(ctx context.Context) (map[string]contracts.MetricsRecord, error) {
			return j.metrics.ComputeBatch(ctx, universe, date)
		})
	if err != nil {
		return fmt.Errorf("compute metrics: %w", err)
	}

	if err := j.snapshots.SaveSnapshot(ctx, j.index, date, records); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"index":   j.index,
		"date":    date.Format("2006-01-02"),
		"symbols": len(records),
	}).Info("Analysis snapshot refreshed")

	return nil
}
