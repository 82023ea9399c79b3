// Package weekly converts daily price series into weekly close series.
// Weeks are keyed by their Friday; the weekly close is the adjusted close of
// the last trading day in the week, so holidays and short weeks resolve to
// the latest trading day on or before the boundary.
package weekly

import (
	"sort"
	"time"

	"stockpick/internal/contracts"
)

// MinPoints is the hard gate below which a weekly series is unusable for
// metrics computation.
const MinPoints = 5

// Aggregate trims series to the lookback window ending at asOf and collapses
// it into one point per trading week, oldest first. Returns
// *contracts.InsufficientDataError when fewer than MinPoints weeks result.
func Aggregate(symbol string, series contracts.PriceSeries, asOf time.Time, lookbackWeeks int) (contracts.WeeklySeries, error) {
	from := asOf.AddDate(0, 0, -7*lookbackWeeks)

	filtered := make([]contracts.PricePoint, 0, len(series))
	for _, p := range series {
		if !p.Date.Before(from) && !p.Date.After(asOf) {
			filtered = append(filtered, p)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Date.Before(filtered[j].Date)
	})

	// One point per week: the last trading day wins within each bucket.
	buckets := make(map[time.Time]contracts.PricePoint)
	for _, p := range filtered {
		end := weekEnding(p.Date)
		if prev, ok := buckets[end]; !ok || p.Date.After(prev.Date) {
			buckets[end] = p
		}
	}

	weeks := make(contracts.WeeklySeries, 0, len(buckets))
	for end, p := range buckets {
		weeks = append(weeks, contracts.WeeklyPoint{WeekEnding: end, Close: p.AdjClose})
	}
	sort.Slice(weeks, func(i, j int) bool {
		return weeks[i].WeekEnding.Before(weeks[j].WeekEnding)
	})

	if len(weeks) < MinPoints {
		return nil, &contracts.InsufficientDataError{
			Symbol: symbol,
			From:   from,
			To:     asOf,
			Weeks:  len(weeks),
		}
	}

	return weeks, nil
}

// weekEnding returns the Friday of the trading week containing d. Saturday
// rolls forward to the next week's Friday, matching how weekend-stamped data
// points group with the week they precede.
func weekEnding(d time.Time) time.Time {
	days := (int(time.Friday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, days)
}
