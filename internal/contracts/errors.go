package contracts

import (
	"fmt"
	"time"
)

// InsufficientDataError means the weekly series for a symbol was too short
// to analyze. Non-fatal: the symbol is excluded from that date's universe.
type InsufficientDataError struct {
	Symbol string
	From   time.Time
	To     time.Time
	Weeks  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s from %s to %s: %d weekly points",
		e.Symbol, e.From.Format("2006-01-02"), e.To.Format("2006-01-02"), e.Weeks)
}

// InvalidPriceError means a non-positive close broke the log regression.
// Non-fatal: same exclusion policy as InsufficientDataError.
type InvalidPriceError struct {
	Symbol string
	Date   time.Time
	Price  float64
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("invalid price for %s on %s: %g",
		e.Symbol, e.Date.Format("2006-01-02"), e.Price)
}

// DataUnavailableError means a collaborator could not supply required data.
// Fatal for the rebalance step it occurs in: the run aborts with context.
type DataUnavailableError struct {
	Symbol string
	Date   time.Time
	Err    error
}

func (e *DataUnavailableError) Error() string {
	msg := fmt.Sprintf("data unavailable for %s", e.Date.Format("2006-01-02"))
	if e.Symbol != "" {
		msg = fmt.Sprintf("data unavailable for %s on %s", e.Symbol, e.Date.Format("2006-01-02"))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// ConfigurationError means a simulation configuration value is invalid.
// Raised before the rebalance loop starts.
type ConfigurationError struct {
	Field string
	Msg   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Msg)
}
