package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"stockpick/internal/contracts"
)

// MetricsRepository persists computed metric snapshots so the nightly
// refresh job and the API can serve analyses without recomputing. The
// payload column holds the full record as jsonb; the NaN-aware JSON
// round trip on MetricsRecord keeps unavailable horizons as nulls.
type MetricsRepository struct {
	pool *pgxpool.Pool
}

// NewMetricsRepository creates a new metrics repository
func NewMetricsRepository(pool *pgxpool.Pool) *MetricsRepository {
	return &MetricsRepository{pool: pool}
}

// SaveSnapshot upserts all records for one (index, date) analysis.
func (r *MetricsRepository) SaveSnapshot(ctx context.Context, index contracts.Index, date time.Time, records map[string]contracts.MetricsRecord) error {
	query := `
		INSERT INTO metrics_snapshots (index_name, snapshot_date, symbol, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (index_name, snapshot_date, symbol) DO UPDATE SET
			payload = EXCLUDED.payload
	`

	for symbol, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if _, err := r.pool.Exec(ctx, query, string(index), date, symbol, payload); err != nil {
			return err
		}
	}
	return nil
}

// GetSnapshot loads all records for one (index, date) analysis. Returns an
// empty map when nothing is stored.
func (r *MetricsRepository) GetSnapshot(ctx context.Context, index contracts.Index, date time.Time) (map[string]contracts.MetricsRecord, error) {
	query := `
		SELECT symbol, payload
		FROM metrics_snapshots
		WHERE index_name = $1 AND snapshot_date = $2
	`

	rows, err := r.pool.Query(ctx, query, string(index), date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make(map[string]contracts.MetricsRecord)
	for rows.Next() {
		var symbol string
		var payload []byte
		if err := rows.Scan(&symbol, &payload); err != nil {
			return nil, err
		}
		var rec contracts.MetricsRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, err
		}
		records[symbol] = rec
	}
	return records, rows.Err()
}
