package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpick/internal/contracts"
)

func weeklyCloses(closes []float64) contracts.WeeklySeries {
	weeks := make(contracts.WeeklySeries, len(closes))
	start := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC) // a Friday
	for i, c := range closes {
		weeks[i] = contracts.WeeklyPoint{
			WeekEnding: start.AddDate(0, 0, 7*i),
			Close:      c,
		}
	}
	return weeks
}

func TestCompute_PerfectLinearTrend(t *testing.T) {
	// closes = 100, 102, 104, ... : slope 2 per week, perfect fit.
	closes := make([]float64, 10)
	for i := range closes {
		closes[i] = 100 + 2*float64(i)
	}
	asOf := time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC)

	rec, err := Compute("AAPL", weeklyCloses(closes), asOf)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", rec.Symbol)
	assert.Equal(t, asOf, rec.Date)
	assert.Equal(t, 10, rec.TotalWeeks)
	assert.InDelta(t, 2.0, rec.LinearSlopePct, 1e-9) // slope 2 on base 100
	assert.InDelta(t, 1.0, rec.LinearRSquared, 1e-9)
	assert.Greater(t, rec.LogSlope, 0.0)
	assert.InDelta(t, 1.0, rec.LogRSquared, 1e-2) // log of a line is not a line
}

func TestCompute_ExponentialTrendFitsLogExactly(t *testing.T) {
	// 1% weekly growth: log closes are exactly linear.
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 * math.Pow(1.01, float64(i))
	}

	rec, err := Compute("NVDA", weeklyCloses(closes), time.Now())
	require.NoError(t, err)

	assert.InDelta(t, 1.0, rec.LogRSquared, 1e-9)
	// Annualized: ln(1.01) per week times 52.
	assert.InDelta(t, math.Log(1.01)*52, rec.LogSlope, 1e-9)
}

func TestCompute_FlatSeries(t *testing.T) {
	closes := []float64{50, 50, 50, 50, 50, 50}

	rec, err := Compute("KO", weeklyCloses(closes), time.Now())
	require.NoError(t, err)

	assert.Zero(t, rec.LinearSlopePct)
	assert.Zero(t, rec.LinearRSquared)
	assert.Zero(t, rec.LogSlope)
	assert.Zero(t, rec.Change1wPct)
	assert.Zero(t, rec.MaxJump1wPct)
	assert.Zero(t, rec.MaxDrop1wPct)
}

func TestCompute_HorizonChanges(t *testing.T) {
	// 6 weeks: enough for 1w, 2w, 1m; 3m, 6m, 1y unavailable.
	closes := []float64{100, 110, 121, 110, 99, 108.9}

	rec, err := Compute("TSLA", weeklyCloses(closes), time.Now())
	require.NoError(t, err)

	assert.InDelta(t, 10.0, rec.Change1wPct, 1e-9)  // 99 -> 108.9
	assert.InDelta(t, -1.0, rec.Change2wPct, 1e-9)  // 110 -> 108.9
	assert.InDelta(t, -1.0, rec.Change1mPct, 1e-9)  // 110 -> 108.9 over 4 weeks
	assert.True(t, contracts.IsUnavailable(rec.Change3mPct))
	assert.True(t, contracts.IsUnavailable(rec.Change6mPct))
	assert.True(t, contracts.IsUnavailable(rec.Change1yPct))
}

func TestCompute_MaxSwings(t *testing.T) {
	closes := []float64{100, 120, 90, 99, 99, 99}

	rec, err := Compute("AMD", weeklyCloses(closes), time.Now())
	require.NoError(t, err)

	assert.InDelta(t, 20.0, rec.MaxJump1wPct, 1e-9) // 100 -> 120
	// Largest 1w fall is 120 -> 90, reported as a positive magnitude.
	assert.InDelta(t, 25.0, rec.MaxDrop1wPct, 1e-9)
	assert.Greater(t, rec.MaxDrop1wPct, 0.0)

	// 2w window: worst is 120 -> 99 = -17.5%.
	assert.InDelta(t, 17.5, rec.MaxDrop2wPct, 1e-9)
}

func TestCompute_NonPositiveClose(t *testing.T) {
	closes := []float64{100, 90, 0, 80, 70}

	rec, err := Compute("LEH", weeklyCloses(closes), time.Now())
	require.Error(t, err)
	assert.Nil(t, rec)

	var invalid *contracts.InvalidPriceError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "LEH", invalid.Symbol)
	assert.Zero(t, invalid.Price)
}

func TestLinregress_KnownFit(t *testing.T) {
	res := linregress([]float64{1, 3, 5, 7})
	assert.InDelta(t, 2.0, res.Slope, 1e-9)
	assert.InDelta(t, 1.0, res.RSquared, 1e-9)

	noisy := linregress([]float64{1, 4, 4, 7})
	assert.InDelta(t, 1.8, noisy.Slope, 1e-9)
	assert.Less(t, noisy.RSquared, 1.0)
	assert.Greater(t, noisy.RSquared, 0.8)
}
