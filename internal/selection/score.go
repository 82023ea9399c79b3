package selection

import (
	"math"
	"sort"

	"stockpick/internal/contracts"
)

// StabilityExponent overweights trend consistency (r²) against trend
// strength when combining the two ranks: score = slopeRank * r2Rank^1.7.
const StabilityExponent = 1.7

// risingStabilityScores scores each record by rank-normalized linear slope
// times rank-normalized r² raised to StabilityExponent. Ranks are percentiles
// in [0,1] computed over the given candidate set only, which keeps scores
// point-in-time pure: candidates from other dates never influence them.
// Rank ties break by symbol so scoring is deterministic.
func risingStabilityScores(records []contracts.MetricsRecord) []float64 {
	n := len(records)
	scores := make([]float64, n)
	if n <= 1 {
		return scores
	}

	slopeRank := percentileRanks(records, func(m *contracts.MetricsRecord) float64 { return m.LinearSlopePct })
	r2Rank := percentileRanks(records, func(m *contracts.MetricsRecord) float64 { return m.LinearRSquared })

	for i := range records {
		scores[i] = slopeRank[i] * math.Pow(r2Rank[i], StabilityExponent)
	}
	return scores
}

// percentileRanks maps each record to its ascending rank / (n-1).
func percentileRanks(records []contracts.MetricsRecord, value func(*contracts.MetricsRecord) float64) []float64 {
	n := len(records)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		va, vb := value(&records[order[a]]), value(&records[order[b]])
		if va != vb {
			return va < vb
		}
		return records[order[a]].Symbol < records[order[b]].Symbol
	})

	ranks := make([]float64, n)
	for rank, idx := range order {
		ranks[idx] = float64(rank) / float64(n-1)
	}
	return ranks
}
