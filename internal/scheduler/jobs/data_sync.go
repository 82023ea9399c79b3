package jobs

import (
	"context"
	"fmt"
	"time"

	"stockpick/internal/contracts"
	"stockpick/internal/datasync"
	"stockpick/pkg/logger"
)

// DataSyncJob refreshes constituents, prices, and index levels after the
// US close.
type DataSyncJob struct {
	syncer *datasync.Syncer
	index  contracts.Index
	logger *logger.Logger
}

// NewDataSyncJob creates a new data sync job
func NewDataSyncJob(syncer *datasync.Syncer, index contracts.Index, log *logger.Logger) *DataSyncJob {
	return &DataSyncJob{
		syncer: syncer,
		index:  index,
		logger: log,
	}
}

// Name returns the job name
func (j *DataSyncJob) Name() string {
	return "data_sync"
}

// Schedule returns the cron schedule: 22:30 UTC on weekdays, after the
// NYSE close.
func (j *DataSyncJob) Schedule() string {
	return "0 30 22 * * MON-FRI"
}

// Run executes the sync. Prices cover the last trading week so holiday
// gaps backfill themselves.
func (j *DataSyncJob) Run(ctx context.Context) error {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -7)

	if err := j.syncer.SyncConstituents(ctx, j.index); err != nil {
		return fmt.Errorf("sync constituents: %w", err)
	}
	if err := j.syncer.SyncPrices(ctx, j.index, from, to); err != nil {
		return fmt.Errorf("sync prices: %w", err)
	}
	if err := j.syncer.SyncIndexPrices(ctx, j.index, from, to); err != nil {
		return fmt.Errorf("sync index prices: %w", err)
	}

	j.logger.Info("Scheduled data sync completed")
	return nil
}
