// Package store holds the pgx repositories backing the analysis and
// backtest engines. All tables live in the public schema; each repository
// owns one table.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockpick/internal/contracts"
)

// PriceRepository implements contracts.PriceSource over daily_prices.
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// Series returns the dividend-adjusted closes for a symbol covering the
// lookback window ending at asOf, oldest first. The window is padded by a
// week so the first weekly bucket is complete.
func (r *PriceRepository) Series(ctx context.Context, symbol string, asOf time.Time, lookbackWeeks int) (contracts.PriceSeries, error) {
	from := asOf.AddDate(0, 0, -7*(lookbackWeeks+1))
	query := `
		SELECT symbol, trade_date, adj_close
		FROM daily_prices
		WHERE symbol = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol, from, asOf)
	if err != nil {
		return nil, &contracts.DataUnavailableError{Symbol: symbol, Date: asOf, Err: err}
	}
	defer rows.Close()

	var series contracts.PriceSeries
	for rows.Next() {
		var p contracts.PricePoint
		if err := rows.Scan(&p.Symbol, &p.Date, &p.AdjClose); err != nil {
			return nil, &contracts.DataUnavailableError{Symbol: symbol, Date: asOf, Err: err}
		}
		series = append(series, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &contracts.DataUnavailableError{Symbol: symbol, Date: asOf, Err: err}
	}
	return series, nil
}

// At returns the adjusted close on the nearest trading day at or before
// date.
func (r *PriceRepository) At(ctx context.Context, symbol string, date time.Time) (float64, error) {
	query := `
		SELECT adj_close
		FROM daily_prices
		WHERE symbol = $1 AND trade_date <= $2
		ORDER BY trade_date DESC
		LIMIT 1
	`

	var close float64
	err := r.pool.QueryRow(ctx, query, symbol, date).Scan(&close)
	if err != nil {
		return 0, &contracts.DataUnavailableError{Symbol: symbol, Date: date, Err: err}
	}
	return close, nil
}

// Save upserts a single price record
func (r *PriceRepository) Save(ctx context.Context, p contracts.PricePoint) error {
	query := `
		INSERT INTO daily_prices (symbol, trade_date, adj_close)
		VALUES ($1, $2, $3)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			adj_close = EXCLUDED.adj_close
	`

	_, err := r.pool.Exec(ctx, query, p.Symbol, p.Date, p.AdjClose)
	return err
}

// SaveBatch upserts price records in a single round trip.
func (r *PriceRepository) SaveBatch(ctx context.Context, points []contracts.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO daily_prices (symbol, trade_date, adj_close)
		VALUES ($1, $2, $3)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			adj_close = EXCLUDED.adj_close
	`
	for _, p := range points {
		batch.Queue(query, p.Symbol, p.Date, p.AdjClose)
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

// LatestDate returns the most recent trade date stored for a symbol, or
// the zero time when none exists.
func (r *PriceRepository) LatestDate(ctx context.Context, symbol string) (time.Time, error) {
	query := `
		SELECT trade_date
		FROM daily_prices
		WHERE symbol = $1
		ORDER BY trade_date DESC
		LIMIT 1
	`

	var date time.Time
	err := r.pool.QueryRow(ctx, query, symbol).Scan(&date)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return date, nil
}
