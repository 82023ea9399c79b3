package backtest

import (
	"time"

	"stockpick/internal/contracts"
)

// Config holds the inputs for one simulation run. Validate is called before
// any data is touched so bad inputs never reach the rebalance loop.
type Config struct {
	Index                  contracts.Index
	BaselineIndex          contracts.Index
	MaxStocks              int
	RebalanceIntervalWeeks int
	DateStart              time.Time
	DateEnd                time.Time
	InitialBalance         float64
	Rule                   string
	LookbackWeeks          int
}

// Validate reports the first invalid field as a *contracts.ConfigurationError.
func (c Config) Validate() error {
	if _, err := contracts.ParseIndex(string(c.Index)); err != nil {
		return &contracts.ConfigurationError{Field: "index", Msg: err.Error()}
	}
	if c.BaselineIndex != "" {
		if _, err := contracts.ParseIndex(string(c.BaselineIndex)); err != nil {
			return &contracts.ConfigurationError{Field: "baseline_index", Msg: err.Error()}
		}
	}
	if c.MaxStocks <= 0 {
		return &contracts.ConfigurationError{Field: "max_stocks", Msg: "must be positive"}
	}
	if c.RebalanceIntervalWeeks <= 0 {
		return &contracts.ConfigurationError{Field: "rebalance_interval_weeks", Msg: "must be positive"}
	}
	if c.DateStart.IsZero() || c.DateEnd.IsZero() {
		return &contracts.ConfigurationError{Field: "date_range", Msg: "start and end dates are required"}
	}
	if !c.DateStart.Before(c.DateEnd) {
		return &contracts.ConfigurationError{Field: "date_range", Msg: "start date must precede end date"}
	}
	if c.InitialBalance <= 0 {
		return &contracts.ConfigurationError{Field: "initial_balance", Msg: "must be positive"}
	}
	if c.LookbackWeeks <= 0 {
		return &contracts.ConfigurationError{Field: "lookback_weeks", Msg: "must be positive"}
	}
	return nil
}
