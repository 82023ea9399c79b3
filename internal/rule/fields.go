// Package rule implements the boolean filter expression language applied to
// metric records. A rule is parsed once into an immutable expression tree and
// evaluated many times; evaluation is side-effect free and safe to share
// across goroutines. Field names are resolved at parse time against a closed
// table, so unknown fields fail fast instead of at evaluation.
package rule

import (
	"sort"

	"stockpick/internal/contracts"
)

// fieldKind distinguishes numeric metric fields from the symbol field.
type fieldKind int

const (
	kindNumeric fieldKind = iota
	kindSymbol
)

// field is a resolved accessor on MetricsRecord.
type field struct {
	name string
	kind fieldKind
	get  func(*contracts.MetricsRecord) float64
}

// SymbolField is the one string-typed field in the grammar.
const SymbolField = "symbol"

var fieldTable = map[string]field{
	SymbolField: {name: SymbolField, kind: kindSymbol},

	"total_weeks": numField("total_weeks", func(m *contracts.MetricsRecord) float64 {
		return float64(m.TotalWeeks)
	}),

	"linear_slope_pct": numField("linear_slope_pct", func(m *contracts.MetricsRecord) float64 { return m.LinearSlopePct }),
	"linear_r_squared": numField("linear_r_squared", func(m *contracts.MetricsRecord) float64 { return m.LinearRSquared }),
	"log_slope":        numField("log_slope", func(m *contracts.MetricsRecord) float64 { return m.LogSlope }),
	"log_r_squared":    numField("log_r_squared", func(m *contracts.MetricsRecord) float64 { return m.LogRSquared }),

	"change_1w_pct": numField("change_1w_pct", func(m *contracts.MetricsRecord) float64 { return m.Change1wPct }),
	"change_2w_pct": numField("change_2w_pct", func(m *contracts.MetricsRecord) float64 { return m.Change2wPct }),
	"change_1m_pct": numField("change_1m_pct", func(m *contracts.MetricsRecord) float64 { return m.Change1mPct }),
	"change_3m_pct": numField("change_3m_pct", func(m *contracts.MetricsRecord) float64 { return m.Change3mPct }),
	"change_6m_pct": numField("change_6m_pct", func(m *contracts.MetricsRecord) float64 { return m.Change6mPct }),
	"change_1y_pct": numField("change_1y_pct", func(m *contracts.MetricsRecord) float64 { return m.Change1yPct }),

	"max_jump_1w_pct": numField("max_jump_1w_pct", func(m *contracts.MetricsRecord) float64 { return m.MaxJump1wPct }),
	"max_drop_1w_pct": numField("max_drop_1w_pct", func(m *contracts.MetricsRecord) float64 { return m.MaxDrop1wPct }),
	"max_jump_2w_pct": numField("max_jump_2w_pct", func(m *contracts.MetricsRecord) float64 { return m.MaxJump2wPct }),
	"max_drop_2w_pct": numField("max_drop_2w_pct", func(m *contracts.MetricsRecord) float64 { return m.MaxDrop2wPct }),
	"max_jump_4w_pct": numField("max_jump_4w_pct", func(m *contracts.MetricsRecord) float64 { return m.MaxJump4wPct }),
	"max_drop_4w_pct": numField("max_drop_4w_pct", func(m *contracts.MetricsRecord) float64 { return m.MaxDrop4wPct }),
}

func numField(name string, get func(*contracts.MetricsRecord) float64) field {
	return field{name: name, kind: kindNumeric, get: get}
}

// FieldNames returns every valid field name, sorted.
func FieldNames() []string {
	names := make([]string, 0, len(fieldTable))
	for name := range fieldTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
