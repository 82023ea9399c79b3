package contracts

import (
	"context"
	"time"
)

// PriceSource supplies historical daily prices. Implementations own the raw
// data; callers never mutate the returned series.
type PriceSource interface {
	// Series returns the daily series for symbol covering lookbackWeeks
	// weeks up to asOf, oldest first. Returns *DataUnavailableError when the
	// symbol has no coverage for the window.
	Series(ctx context.Context, symbol string, asOf time.Time, lookbackWeeks int) (PriceSeries, error)

	// At returns the adjusted close for symbol on date, falling back to the
	// nearest prior trading day. Returns *DataUnavailableError when no
	// price exists on or before date.
	At(ctx context.Context, symbol string, date time.Time) (float64, error)
}

// ConstituentSource supplies point-in-time index membership, reflecting
// historical additions and removals rather than current membership.
type ConstituentSource interface {
	At(ctx context.Context, index Index, date time.Time) ([]string, error)
}

// TradingCalendar resolves arbitrary dates onto actual trading days.
type TradingCalendar interface {
	TradingDayOnOrBefore(ctx context.Context, date time.Time) (time.Time, error)
	TradingDayOnOrAfter(ctx context.Context, date time.Time) (time.Time, error)
}

// BaselineSource supplies reference index prices for the baseline leg of a
// simulation. Like PriceSource.At, lookups fall back to the nearest prior
// trading day.
type BaselineSource interface {
	Price(ctx context.Context, index Index, date time.Time) (float64, error)
}
