package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"stockpick/internal/contracts"
)

// Calendar implements contracts.TradingCalendar from the stored price
// history. A day counts as a trading day when any symbol traded on it,
// which tracks the NYSE calendar over the covered range.
type Calendar struct {
	pool *pgxpool.Pool
}

// NewCalendar creates a new calendar backed by daily_prices.
func NewCalendar(pool *pgxpool.Pool) *Calendar {
	return &Calendar{pool: pool}
}

// TradingDayOnOrBefore returns the latest trading day at or before date.
func (c *Calendar) TradingDayOnOrBefore(ctx context.Context, date time.Time) (time.Time, error) {
	query := `
		SELECT trade_date
		FROM daily_prices
		WHERE trade_date <= $1
		ORDER BY trade_date DESC
		LIMIT 1
	`

	var day time.Time
	if err := c.pool.QueryRow(ctx, query, date).Scan(&day); err != nil {
		return time.Time{}, &contracts.DataUnavailableError{Date: date, Err: err}
	}
	return day, nil
}

// TradingDayOnOrAfter returns the earliest trading day at or after date.
func (c *Calendar) TradingDayOnOrAfter(ctx context.Context, date time.Time) (time.Time, error) {
	query := `
		SELECT trade_date
		FROM daily_prices
		WHERE trade_date >= $1
		ORDER BY trade_date ASC
		LIMIT 1
	`

	var day time.Time
	if err := c.pool.QueryRow(ctx, query, date).Scan(&day); err != nil {
		return time.Time{}, &contracts.DataUnavailableError{Date: date, Err: err}
	}
	return day, nil
}
