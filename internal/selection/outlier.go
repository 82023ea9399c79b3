package selection

import (
	"math"
	"sort"

	"stockpick/internal/contracts"
)

// Outlier fence constants. A candidate whose linear slope has a modified
// z-score beyond DefaultOutlierCutoff is treated as a data artifact rather
// than genuine trend quality and removed before truncation.
const (
	// madConsistency scales the median absolute deviation so the modified
	// z-score is comparable to a standard z-score under normality.
	madConsistency = 0.6745

	// DefaultOutlierCutoff is the modified z-score fence.
	DefaultOutlierCutoff = 2.5
)

// removeSlopeOutliers drops records whose linear slope lies outside the MAD
// fence. Fewer than three candidates carry no distribution to fence against;
// a zero MAD (majority of identical slopes) disables removal for the set.
func removeSlopeOutliers(records []contracts.MetricsRecord, scores []float64, cutoff float64) ([]contracts.MetricsRecord, []float64) {
	if len(records) <= 2 {
		return records, scores
	}

	slopes := make([]float64, len(records))
	for i := range records {
		slopes[i] = records[i].LinearSlopePct
	}

	med := median(slopes)
	deviations := make([]float64, len(slopes))
	for i, s := range slopes {
		deviations[i] = math.Abs(s - med)
	}
	mad := median(deviations)
	if mad == 0 {
		return records, scores
	}

	keptRecords := records[:0:0]
	keptScores := scores[:0:0]
	for i, s := range slopes {
		modifiedZ := madConsistency * (s - med) / mad
		if math.Abs(modifiedZ) <= cutoff {
			keptRecords = append(keptRecords, records[i])
			keptScores = append(keptScores, scores[i])
		}
	}
	return keptRecords, keptScores
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
