package contracts

import (
	"encoding/json"
	"math"
	"time"
)

// Unavailable marks a metric horizon the weekly series was too short to
// compute. Rule comparisons against an unavailable field always evaluate to
// false, so short-history stocks drop out of selection instead of scoring
// as if the change were zero.
func Unavailable() float64 { return math.NaN() }

// IsUnavailable reports whether a metric value is the unavailable sentinel.
func IsUnavailable(v float64) bool { return math.IsNaN(v) }

// MetricsRecord is the full metric set for one (symbol, as-of date).
// Records are immutable once computed; every field is derived from the
// weekly close series alone.
type MetricsRecord struct {
	Symbol     string    `json:"symbol"`
	Date       time.Time `json:"date"`
	TotalWeeks int       `json:"total_weeks"`

	// Trend metrics (regression over week index)
	LinearSlopePct float64 `json:"linear_slope_pct"` // OLS slope as % of first close, per week
	LinearRSquared float64 `json:"linear_r_squared"` // 0..1
	LogSlope       float64 `json:"log_slope"`        // OLS slope of ln(close), annualized (x52)
	LogRSquared    float64 `json:"log_r_squared"`    // 0..1

	// Point-to-point changes. Unavailable when the series has fewer than
	// horizon+1 weekly points.
	Change1wPct float64 `json:"change_1w_pct"`
	Change2wPct float64 `json:"change_2w_pct"`
	Change1mPct float64 `json:"change_1m_pct"`
	Change3mPct float64 `json:"change_3m_pct"`
	Change6mPct float64 `json:"change_6m_pct"`
	Change1yPct float64 `json:"change_1y_pct"`

	// Max swings over rolling windows. Drops are positive magnitudes:
	// MaxDrop2wPct == 12.5 means the worst two-week move was -12.5%.
	MaxJump1wPct float64 `json:"max_jump_1w_pct"`
	MaxDrop1wPct float64 `json:"max_drop_1w_pct"`
	MaxJump2wPct float64 `json:"max_jump_2w_pct"`
	MaxDrop2wPct float64 `json:"max_drop_2w_pct"`
	MaxJump4wPct float64 `json:"max_jump_4w_pct"`
	MaxDrop4wPct float64 `json:"max_drop_4w_pct"`
}

// metricsRecordJSON mirrors MetricsRecord with nullable floats so the NaN
// sentinel survives JSON (encoding/json rejects NaN outright).
type metricsRecordJSON struct {
	Symbol     string    `json:"symbol"`
	Date       time.Time `json:"date"`
	TotalWeeks int       `json:"total_weeks"`

	LinearSlopePct float64 `json:"linear_slope_pct"`
	LinearRSquared float64 `json:"linear_r_squared"`
	LogSlope       float64 `json:"log_slope"`
	LogRSquared    float64 `json:"log_r_squared"`

	Change1wPct *float64 `json:"change_1w_pct"`
	Change2wPct *float64 `json:"change_2w_pct"`
	Change1mPct *float64 `json:"change_1m_pct"`
	Change3mPct *float64 `json:"change_3m_pct"`
	Change6mPct *float64 `json:"change_6m_pct"`
	Change1yPct *float64 `json:"change_1y_pct"`

	MaxJump1wPct *float64 `json:"max_jump_1w_pct"`
	MaxDrop1wPct *float64 `json:"max_drop_1w_pct"`
	MaxJump2wPct *float64 `json:"max_jump_2w_pct"`
	MaxDrop2wPct *float64 `json:"max_drop_2w_pct"`
	MaxJump4wPct *float64 `json:"max_jump_4w_pct"`
	MaxDrop4wPct *float64 `json:"max_drop_4w_pct"`
}

func toNullable(v float64) *float64 {
	if IsUnavailable(v) {
		return nil
	}
	return &v
}

func fromNullable(p *float64) float64 {
	if p == nil {
		return Unavailable()
	}
	return *p
}

// MarshalJSON encodes unavailable horizons as null.
func (m MetricsRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(metricsRecordJSON{
		Symbol:         m.Symbol,
		Date:           m.Date,
		TotalWeeks:     m.TotalWeeks,
		LinearSlopePct: m.LinearSlopePct,
		LinearRSquared: m.LinearRSquared,
		LogSlope:       m.LogSlope,
		LogRSquared:    m.LogRSquared,
		Change1wPct:    toNullable(m.Change1wPct),
		Change2wPct:    toNullable(m.Change2wPct),
		Change1mPct:    toNullable(m.Change1mPct),
		Change3mPct:    toNullable(m.Change3mPct),
		Change6mPct:    toNullable(m.Change6mPct),
		Change1yPct:    toNullable(m.Change1yPct),
		MaxJump1wPct:   toNullable(m.MaxJump1wPct),
		MaxDrop1wPct:   toNullable(m.MaxDrop1wPct),
		MaxJump2wPct:   toNullable(m.MaxJump2wPct),
		MaxDrop2wPct:   toNullable(m.MaxDrop2wPct),
		MaxJump4wPct:   toNullable(m.MaxJump4wPct),
		MaxDrop4wPct:   toNullable(m.MaxDrop4wPct),
	})
}

// UnmarshalJSON decodes null horizons back into the unavailable sentinel.
func (m *MetricsRecord) UnmarshalJSON(data []byte) error {
	var j metricsRecordJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*m = MetricsRecord{
		Symbol:         j.Symbol,
		Date:           j.Date,
		TotalWeeks:     j.TotalWeeks,
		LinearSlopePct: j.LinearSlopePct,
		LinearRSquared: j.LinearRSquared,
		LogSlope:       j.LogSlope,
		LogRSquared:    j.LogRSquared,
		Change1wPct:    fromNullable(j.Change1wPct),
		Change2wPct:    fromNullable(j.Change2wPct),
		Change1mPct:    fromNullable(j.Change1mPct),
		Change3mPct:    fromNullable(j.Change3mPct),
		Change6mPct:    fromNullable(j.Change6mPct),
		Change1yPct:    fromNullable(j.Change1yPct),
		MaxJump1wPct:   fromNullable(j.MaxJump1wPct),
		MaxDrop1wPct:   fromNullable(j.MaxDrop1wPct),
		MaxJump2wPct:   fromNullable(j.MaxJump2wPct),
		MaxDrop2wPct:   fromNullable(j.MaxDrop2wPct),
		MaxJump4wPct:   fromNullable(j.MaxJump4wPct),
		MaxDrop4wPct:   fromNullable(j.MaxDrop4wPct),
	}
	return nil
}
