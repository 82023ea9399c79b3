// Package metrics derives the per-stock metric set from a weekly close
// series: point-to-point changes, max swings, and linear/log trend
// regressions. Computation is deterministic and keeps no state.
package metrics

import (
	"math"
	"time"

	"stockpick/internal/contracts"
)

// Horizon lengths in weeks for the point-to-point change metrics.
const (
	horizon1w = 1
	horizon2w = 2
	horizon1m = 4
	horizon3m = 13
	horizon6m = 26
	horizon1y = 52
)

// weeksPerYear annualizes the weekly log-regression slope.
const weeksPerYear = 52

// Compute builds the MetricsRecord for one symbol from its weekly series.
// The series must already have passed the weekly.MinPoints gate. Returns
// *contracts.InvalidPriceError when a non-positive close breaks the log
// regression.
func Compute(symbol string, weeks contracts.WeeklySeries, asOf time.Time) (*contracts.MetricsRecord, error) {
	closes := make([]float64, len(weeks))
	for i, w := range weeks {
		if w.Close <= 0 {
			return nil, &contracts.InvalidPriceError{
				Symbol: symbol,
				Date:   w.WeekEnding,
				Price:  w.Close,
			}
		}
		closes[i] = w.Close
	}

	jump1w, drop1w := maxSwing(closes, 1)
	jump2w, drop2w := maxSwing(closes, 2)
	jump4w, drop4w := maxSwing(closes, 4)

	linear := linregress(closes)
	linearSlopePct := linear.Slope / closes[0] * 100

	logCloses := make([]float64, len(closes))
	for i, c := range closes {
		logCloses[i] = math.Log(c)
	}
	logFit := linregress(logCloses)

	return &contracts.MetricsRecord{
		Symbol:     symbol,
		Date:       asOf,
		TotalWeeks: len(weeks),

		LinearSlopePct: linearSlopePct,
		LinearRSquared: linear.RSquared,
		LogSlope:       logFit.Slope * weeksPerYear,
		LogRSquared:    logFit.RSquared,

		Change1wPct: horizonChange(closes, horizon1w),
		Change2wPct: horizonChange(closes, horizon2w),
		Change1mPct: horizonChange(closes, horizon1m),
		Change3mPct: horizonChange(closes, horizon3m),
		Change6mPct: horizonChange(closes, horizon6m),
		Change1yPct: horizonChange(closes, horizon1y),

		MaxJump1wPct: jump1w,
		MaxDrop1wPct: drop1w,
		MaxJump2wPct: jump2w,
		MaxDrop2wPct: drop2w,
		MaxJump4wPct: jump4w,
		MaxDrop4wPct: drop4w,
	}, nil
}

// horizonChange is the % change from n weeks ago to the latest close, or the
// unavailable sentinel when the series has fewer than n+1 points.
func horizonChange(closes []float64, n int) float64 {
	if len(closes) < n+1 {
		return contracts.Unavailable()
	}
	return pctChange(closes[len(closes)-1-n], closes[len(closes)-1])
}

// maxSwing scans all overlapping window-week returns and reports the largest
// rise and the largest fall, the fall as a positive magnitude.
func maxSwing(closes []float64, window int) (jump, drop float64) {
	if len(closes) <= window {
		return contracts.Unavailable(), contracts.Unavailable()
	}

	best, worst := math.Inf(-1), math.Inf(1)
	for i := window; i < len(closes); i++ {
		change := pctChange(closes[i-window], closes[i])
		if change > best {
			best = change
		}
		if change < worst {
			worst = change
		}
	}
	return best, -worst
}

func pctChange(old, new float64) float64 {
	if old == 0 {
		return 0
	}
	return (new - old) / old * 100
}
