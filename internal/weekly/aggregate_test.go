package weekly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpick/internal/contracts"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dailySeries(symbol string, start time.Time, closes []float64) contracts.PriceSeries {
	series := make(contracts.PriceSeries, 0, len(closes))
	d := start
	for _, c := range closes {
		// Skip weekends like real data does.
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		series = append(series, contracts.PricePoint{Symbol: symbol, Date: d, AdjClose: c})
		d = d.AddDate(0, 0, 1)
	}
	return series
}

func TestAggregate_OnePointPerWeek(t *testing.T) {
	// 2024-01-01 is a Monday. 15 trading days cover 3 full weeks.
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	series := dailySeries("AAPL", day(2024, time.January, 1), closes)

	weeks, err := Aggregate("AAPL", series, day(2024, time.January, 19), 52)
	require.Error(t, err) // only 3 weeks, below the gate

	var insufficient *contracts.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "AAPL", insufficient.Symbol)
	assert.Equal(t, 3, insufficient.Weeks)
	assert.Nil(t, weeks)
}

func TestAggregate_FridayCloseWins(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	series := dailySeries("MSFT", day(2024, time.January, 1), closes)

	weeks, err := Aggregate("MSFT", series, day(2024, time.February, 9), 52)
	require.NoError(t, err)
	require.Len(t, weeks, 6)

	// Every week ends on a Friday and carries that Friday's close.
	for _, w := range weeks {
		assert.Equal(t, time.Friday, w.WeekEnding.Weekday())
	}
	assert.Equal(t, 5.0, weeks[0].Close)   // Fri Jan 5 is the 5th trading day
	assert.Equal(t, 10.0, weeks[1].Close)  // Fri Jan 12
	assert.Equal(t, 30.0, weeks[5].Close)  // Fri Feb 9
}

func TestAggregate_ShortWeekUsesLastTradingDay(t *testing.T) {
	// A week where Friday is missing: the Thursday close represents it.
	series := contracts.PriceSeries{
		{Symbol: "GM", Date: day(2024, time.January, 1), AdjClose: 10},  // Mon
		{Symbol: "GM", Date: day(2024, time.January, 4), AdjClose: 11},  // Thu, no Friday
		{Symbol: "GM", Date: day(2024, time.January, 12), AdjClose: 12}, // Fri
		{Symbol: "GM", Date: day(2024, time.January, 19), AdjClose: 13}, // Fri
		{Symbol: "GM", Date: day(2024, time.January, 26), AdjClose: 14}, // Fri
		{Symbol: "GM", Date: day(2024, time.February, 2), AdjClose: 15}, // Fri
	}

	weeks, err := Aggregate("GM", series, day(2024, time.February, 2), 52)
	require.NoError(t, err)
	require.Len(t, weeks, 5)

	assert.Equal(t, day(2024, time.January, 5), weeks[0].WeekEnding)
	assert.Equal(t, 11.0, weeks[0].Close)
}

func TestAggregate_WindowExcludesOlderData(t *testing.T) {
	series := contracts.PriceSeries{
		{Symbol: "IBM", Date: day(2023, time.January, 6), AdjClose: 1}, // outside window
		{Symbol: "IBM", Date: day(2024, time.May, 3), AdjClose: 10},
		{Symbol: "IBM", Date: day(2024, time.May, 10), AdjClose: 11},
		{Symbol: "IBM", Date: day(2024, time.May, 17), AdjClose: 12},
		{Symbol: "IBM", Date: day(2024, time.May, 24), AdjClose: 13},
		{Symbol: "IBM", Date: day(2024, time.May, 31), AdjClose: 14},
	}

	weeks, err := Aggregate("IBM", series, day(2024, time.May, 31), 8)
	require.NoError(t, err)
	require.Len(t, weeks, 5)
	assert.Equal(t, 10.0, weeks[0].Close)
}

func TestAggregate_UnsortedInput(t *testing.T) {
	series := contracts.PriceSeries{
		{Symbol: "F", Date: day(2024, time.May, 31), AdjClose: 14},
		{Symbol: "F", Date: day(2024, time.May, 3), AdjClose: 10},
		{Symbol: "F", Date: day(2024, time.May, 24), AdjClose: 13},
		{Symbol: "F", Date: day(2024, time.May, 10), AdjClose: 11},
		{Symbol: "F", Date: day(2024, time.May, 17), AdjClose: 12},
	}

	weeks, err := Aggregate("F", series, day(2024, time.May, 31), 52)
	require.NoError(t, err)
	require.Len(t, weeks, 5)
	for i := 1; i < len(weeks); i++ {
		assert.True(t, weeks[i-1].WeekEnding.Before(weeks[i].WeekEnding))
	}
	assert.Equal(t, 10.0, weeks[0].Close)
	assert.Equal(t, 14.0, weeks[4].Close)
}
