// Package selection picks the winners for one rebalance date: rule
// filtering, rising-stability scoring, outlier removal, and top-N
// truncation. The package is stateless between calls; all scoring happens
// over the single date's candidate set.
package selection

import (
	"sort"

	"stockpick/internal/contracts"
	"stockpick/internal/rule"
	"stockpick/pkg/logger"
)

// Selector applies a rule and ranks the survivors.
type Selector struct {
	cutoff float64
	logger *logger.Logger
}

// NewSelector creates a selector with the default outlier fence.
func NewSelector(log *logger.Logger) *Selector {
	return &Selector{cutoff: DefaultOutlierCutoff, logger: log}
}

// Pick returns the ordered, outlier-filtered, size-capped selection for one
// rebalance date. An empty result is a valid outcome: no eligible stocks
// this period.
func (s *Selector) Pick(records map[string]contracts.MetricsRecord, expr rule.Expression, maxStocks int) []contracts.MetricsRecord {
	if maxStocks <= 0 {
		return nil
	}

	candidates := s.Filter(records, expr)
	if len(candidates) == 0 {
		return nil
	}

	scores := risingStabilityScores(candidates)
	candidates, scores = removeSlopeOutliers(candidates, scores, s.cutoff)

	// Descending score; symbol breaks ties so the order is deterministic.
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		if scores[order[a]] != scores[order[b]] {
			return scores[order[a]] > scores[order[b]]
		}
		return candidates[order[a]].Symbol < candidates[order[b]].Symbol
	})

	if maxStocks > len(order) {
		maxStocks = len(order)
	}
	selected := make([]contracts.MetricsRecord, 0, maxStocks)
	for _, idx := range order[:maxStocks] {
		selected = append(selected, candidates[idx])
	}

	s.logger.WithFields(map[string]interface{}{
		"candidates": len(candidates),
		"selected":   len(selected),
	}).Debug("Selection completed")

	return selected
}

// Filter returns the records matching the rule, sorted by symbol. A nil
// expression matches everything.
func (s *Selector) Filter(records map[string]contracts.MetricsRecord, expr rule.Expression) []contracts.MetricsRecord {
	matched := make([]contracts.MetricsRecord, 0, len(records))
	for _, rec := range records {
		if expr == nil || expr.Evaluate(&rec) {
			matched = append(matched, rec)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Symbol < matched[j].Symbol
	})
	return matched
}
