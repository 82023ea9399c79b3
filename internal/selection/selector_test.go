package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpick/internal/contracts"
	"stockpick/internal/rule"
	"stockpick/pkg/logger"
)

func candidate(symbol string, slopePct, r2 float64) contracts.MetricsRecord {
	return contracts.MetricsRecord{
		Symbol:         symbol,
		TotalWeeks:     52,
		LinearSlopePct: slopePct,
		LinearRSquared: r2,
	}
}

func candidateMap(records ...contracts.MetricsRecord) map[string]contracts.MetricsRecord {
	m := make(map[string]contracts.MetricsRecord, len(records))
	for _, rec := range records {
		m[rec.Symbol] = rec
	}
	return m
}

func TestPick_RanksBySlopeAndStability(t *testing.T) {
	s := NewSelector(logger.Nop())

	records := candidateMap(
		candidate("STEEP", 3.0, 0.5),  // strong slope, sloppy fit
		candidate("STEADY", 2.0, 0.9), // good slope, clean fit
		candidate("FLAT", 0.1, 0.95),  // clean but flat
		candidate("NOISY", 1.0, 0.2),
	)

	expr, err := rule.Parse("linear_slope_pct > 0")
	require.NoError(t, err)

	selected := s.Pick(records, expr, 2)
	require.Len(t, selected, 2)

	// STEADY wins: top r² rank compounds through the stability exponent.
	assert.Equal(t, "STEADY", selected[0].Symbol)
	assert.Equal(t, "STEEP", selected[1].Symbol)
}

func TestPick_RuleFiltersBeforeRanking(t *testing.T) {
	s := NewSelector(logger.Nop())

	records := candidateMap(
		candidate("A", 5.0, 0.9),
		candidate("B", 2.0, 0.8),
		candidate("C", -1.0, 0.7),
	)

	expr, err := rule.Parse("linear_slope_pct < 3")
	require.NoError(t, err)

	selected := s.Pick(records, expr, 10)
	require.Len(t, selected, 2)
	for _, rec := range selected {
		assert.Less(t, rec.LinearSlopePct, 3.0)
	}
}

func TestPick_EmptySelectionIsValid(t *testing.T) {
	s := NewSelector(logger.Nop())

	records := candidateMap(candidate("A", 1.0, 0.5))
	expr, err := rule.Parse("linear_slope_pct > 100")
	require.NoError(t, err)

	assert.Empty(t, s.Pick(records, expr, 3))
	assert.Empty(t, s.Pick(nil, expr, 3))
}

func TestPick_TotalWeeksGateLeavesNothing(t *testing.T) {
	s := NewSelector(logger.Nop())

	// The analyzer never emits a record below five weeks, so this rule can
	// never match anything it produces.
	records := candidateMap(
		candidate("A", 1.0, 0.5),
		candidate("B", 2.0, 0.8),
	)
	expr, err := rule.Parse("total_weeks < 5")
	require.NoError(t, err)

	assert.Empty(t, s.Pick(records, expr, 3))
}

func TestPick_CapsAtMaxStocks(t *testing.T) {
	s := NewSelector(logger.Nop())

	records := candidateMap(
		candidate("A", 1.0, 0.5),
		candidate("B", 1.1, 0.6),
		candidate("C", 1.2, 0.7),
		candidate("D", 1.3, 0.8),
	)
	expr, err := rule.Parse("total_weeks >= 52")
	require.NoError(t, err)

	assert.Len(t, s.Pick(records, expr, 2), 2)
	assert.Len(t, s.Pick(records, expr, 10), 4)

	// Nonsense caps select nothing instead of panicking.
	assert.Empty(t, s.Pick(records, expr, 0))
	assert.Empty(t, s.Pick(records, expr, -1))
}

func TestPick_DeterministicTiebreak(t *testing.T) {
	s := NewSelector(logger.Nop())

	// Identical metrics: selection order falls back to symbol.
	records := candidateMap(
		candidate("ZZZ", 1.0, 0.5),
		candidate("AAA", 1.0, 0.5),
		candidate("MMM", 1.0, 0.5),
	)
	expr, err := rule.Parse("linear_slope_pct > 0")
	require.NoError(t, err)

	first := s.Pick(records, expr, 3)
	for i := 0; i < 5; i++ {
		again := s.Pick(records, expr, 3)
		assert.Equal(t, first, again)
	}
}

func TestRisingStabilityScores_RankArithmetic(t *testing.T) {
	records := []contracts.MetricsRecord{
		candidate("LOW", 1.0, 0.2),
		candidate("MID", 2.0, 0.5),
		candidate("TOP", 3.0, 0.9),
	}

	scores := risingStabilityScores(records)
	require.Len(t, scores, 3)

	// Ranks ascend with both inputs here, so scores do too.
	assert.Zero(t, scores[0])
	assert.Greater(t, scores[2], scores[1])
	assert.InDelta(t, 1.0, scores[2], 1e-9) // top rank in both: 1 * 1^1.7
}

func TestRisingStabilityScores_SingleCandidate(t *testing.T) {
	scores := risingStabilityScores([]contracts.MetricsRecord{candidate("ONLY", 2.0, 0.9)})
	assert.Equal(t, []float64{0}, scores)
}

func TestRemoveSlopeOutliers_DropsExtremeSlope(t *testing.T) {
	records := []contracts.MetricsRecord{
		candidate("A", 1.0, 0.5),
		candidate("B", 1.1, 0.5),
		candidate("C", 0.9, 0.5),
		candidate("D", 1.2, 0.5),
		candidate("E", 50.0, 0.5), // split-corrupted series
	}
	scores := []float64{0.1, 0.2, 0.3, 0.4, 0.5}

	kept, keptScores := removeSlopeOutliers(records, scores, DefaultOutlierCutoff)
	require.Len(t, kept, 4)
	require.Len(t, keptScores, 4)
	for _, rec := range kept {
		assert.NotEqual(t, "E", rec.Symbol)
	}
}

func TestRemoveSlopeOutliers_IdempotentOnOwnOutput(t *testing.T) {
	records := []contracts.MetricsRecord{
		candidate("A", 1.0, 0.5),
		candidate("B", 1.1, 0.5),
		candidate("C", 0.9, 0.5),
		candidate("D", 1.2, 0.5),
		candidate("E", 50.0, 0.5),
	}
	scores := make([]float64, len(records))

	once, onceScores := removeSlopeOutliers(records, scores, DefaultOutlierCutoff)
	twice, _ := removeSlopeOutliers(once, onceScores, DefaultOutlierCutoff)
	assert.Equal(t, once, twice)
}

func TestRemoveSlopeOutliers_SmallOrUniformSetsUntouched(t *testing.T) {
	two := []contracts.MetricsRecord{
		candidate("A", 1.0, 0.5),
		candidate("B", 99.0, 0.5),
	}
	kept, _ := removeSlopeOutliers(two, make([]float64, 2), DefaultOutlierCutoff)
	assert.Len(t, kept, 2)

	// Majority identical slopes give a zero MAD; nothing is removed.
	uniform := []contracts.MetricsRecord{
		candidate("A", 1.0, 0.5),
		candidate("B", 1.0, 0.5),
		candidate("C", 1.0, 0.5),
		candidate("D", 42.0, 0.5),
	}
	kept, _ = removeSlopeOutliers(uniform, make([]float64, 4), DefaultOutlierCutoff)
	assert.Len(t, kept, 4)
}
