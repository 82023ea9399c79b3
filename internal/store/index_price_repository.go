package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockpick/internal/contracts"
)

// IndexPriceRepository implements contracts.BaselineSource over
// index_prices. Index levels are stored unadjusted; the simulator only
// needs ratios between dates, so the adjustment basis does not matter.
type IndexPriceRepository struct {
	pool *pgxpool.Pool
}

// NewIndexPriceRepository creates a new index price repository
func NewIndexPriceRepository(pool *pgxpool.Pool) *IndexPriceRepository {
	return &IndexPriceRepository{pool: pool}
}

// Price returns the index level on the nearest trading day at or before
// date.
func (r *IndexPriceRepository) Price(ctx context.Context, index contracts.Index, date time.Time) (float64, error) {
	query := `
		SELECT close_price
		FROM index_prices
		WHERE index_name = $1 AND trade_date <= $2
		ORDER BY trade_date DESC
		LIMIT 1
	`

	var price float64
	err := r.pool.QueryRow(ctx, query, string(index), date).Scan(&price)
	if err != nil {
		return 0, &contracts.DataUnavailableError{Symbol: string(index), Date: date, Err: err}
	}
	return price, nil
}

// Save upserts a single index level.
func (r *IndexPriceRepository) Save(ctx context.Context, index contracts.Index, date time.Time, close float64) error {
	query := `
		INSERT INTO index_prices (index_name, trade_date, close_price)
		VALUES ($1, $2, $3)
		ON CONFLICT (index_name, trade_date) DO UPDATE SET
			close_price = EXCLUDED.close_price
	`

	_, err := r.pool.Exec(ctx, query, string(index), date, close)
	return err
}

// SaveBatch upserts index levels in a single round trip.
func (r *IndexPriceRepository) SaveBatch(ctx context.Context, index contracts.Index, points []contracts.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO index_prices (index_name, trade_date, close_price)
		VALUES ($1, $2, $3)
		ON CONFLICT (index_name, trade_date) DO UPDATE SET
			close_price = EXCLUDED.close_price
	`
	for _, p := range points {
		batch.Queue(query, string(index), p.Date, p.AdjClose)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range points {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}
