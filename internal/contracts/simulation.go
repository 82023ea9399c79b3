package contracts

import "time"

// Investment is one position held for a single rebalance period. Positions
// are fractional; profit is fully realized at SellDate.
type Investment struct {
	Symbol    string    `json:"symbol"`
	Position  float64   `json:"position"`
	BuyPrice  float64   `json:"buy_price"`
	BuyDate   time.Time `json:"buy_date"`
	SellPrice float64   `json:"sell_price"`
	SellDate  time.Time `json:"sell_date"`
	ProfitPct float64   `json:"profit_pct"`
	Profit    float64   `json:"profit"`
}

// RebalanceEvent captures one step of the simulation loop: the balance going
// in, the positions opened, and the realized profit for the period.
// Immutable once appended to history.
type RebalanceEvent struct {
	Date        time.Time    `json:"date"`
	Balance     float64      `json:"balance"`
	Investments []Investment `json:"investments"`
	ProfitPct   float64      `json:"profit_pct"`
	Profit      float64      `json:"profit"`

	// Baseline leg, zero when no baseline source is configured.
	BaselineBalance   float64 `json:"baseline_balance,omitempty"`
	BaselineProfitPct float64 `json:"baseline_profit_pct,omitempty"`
	BaselineProfit    float64 `json:"baseline_profit,omitempty"`
}

// SimulationConfig echoes the inputs a simulation ran with.
type SimulationConfig struct {
	Index                  Index     `json:"index"`
	MaxStocks              int       `json:"max_stocks"`
	RebalanceIntervalWeeks int       `json:"rebalance_interval_weeks"`
	DateStart              time.Time `json:"date_start"`
	DateEnd                time.Time `json:"date_end"`
	Rule                   string    `json:"rule"`
	InvolvedFields         []string  `json:"involved_fields,omitempty"`
}

// SimulationResult is the complete outcome of one simulation run. Created
// once when the loop terminates and never mutated.
type SimulationResult struct {
	InitialBalance   float64          `json:"initial_balance"`
	FinalBalance     float64          `json:"final_balance"`
	DateStart        time.Time        `json:"date_start"`
	DateEnd          time.Time        `json:"date_end"`
	RebalanceHistory []RebalanceEvent `json:"rebalance_history"`
	ProfitPct        float64          `json:"profit_pct"`
	Profit           float64          `json:"profit"`

	BaselineIndex     Index   `json:"baseline_index,omitempty"`
	BaselineBalance   float64 `json:"baseline_balance,omitempty"`
	BaselineProfitPct float64 `json:"baseline_profit_pct,omitempty"`
	BaselineProfit    float64 `json:"baseline_profit,omitempty"`

	Config SimulationConfig `json:"config"`
}
