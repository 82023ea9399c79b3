package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"stockpick/internal/analysiscache"
	"stockpick/internal/contracts"
	"stockpick/internal/metrics"
	"stockpick/internal/rule"
	"stockpick/internal/selection"
	"stockpick/pkg/logger"
)

const dateLayout = "2006-01-02"

// AnalysisHandler serves on-demand metric analyses over an index universe.
type AnalysisHandler struct {
	constituents contracts.ConstituentSource
	calendar     contracts.TradingCalendar
	cache        *analysiscache.Cache
	metrics      *metrics.Service
	selector     *selection.Selector
	logger       *logger.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(
	constituents contracts.ConstituentSource,
	calendar contracts.TradingCalendar,
	cache *analysiscache.Cache,
	metricsService *metrics.Service,
	selector *selection.Selector,
	log *logger.Logger,
) *AnalysisHandler {
	return &AnalysisHandler{
		constituents: constituents,
		calendar:     calendar,
		cache:        cache,
		metrics:      metricsService,
		selector:     selector,
		logger:       log,
	}
}

// GetAnalysis computes or serves the cached analysis for one date.
// GET /api/analysis?index=SP500&date=2024-06-28&rule=...&limit=10
//
// Without a rule the response carries every analyzable symbol. With a rule
// the matching symbols come back ranked by rising stability, optionally
// truncated to limit.
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	index, err := contracts.ParseIndex(r.URL.Query().Get("index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	date := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err = time.Parse(dateLayout, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
	}
	date, err = h.calendar.TradingDayOnOrBefore(ctx, date)
	if err != nil {
		respondDataError(w, h.logger, err)
		return
	}

	var expr rule.Expression
	ruleText := r.URL.Query().Get("rule")
	if ruleText != "" {
		expr, err = rule.Parse(ruleText)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	universe, err := h.constituents.At(ctx, index, date)
	if err != nil {
		respondDataError(w, h.logger, err)
		return
	}

	records, err := h.cache.GetOrCompute(ctx, date, index, universe,
		func(ctx context.Context) (map[string]contracts.MetricsRecord, error) {
			return h.metrics.ComputeBatch(ctx, universe, date)
		})
	if err != nil {
		respondDataError(w, h.logger, err)
		return
	}

	if expr == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"index":   index,
			"date":    date.Format(dateLayout),
			"records": h.selector.Filter(records, nil),
		})
		return
	}

	limit := intQuery(r, "limit", len(records))
	selected := h.selector.Pick(records, expr, limit)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"index":    index,
		"date":     date.Format(dateLayout),
		"rule":     expr.String(),
		"fields":   rule.Fields(expr),
		"selected": selected,
	})
}

// GetFields lists the field names a rule may reference.
// GET /api/analysis/fields
func (h *AnalysisHandler) GetFields(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"fields": rule.FieldNames(),
	})
}

// respondDataError maps the engine's error taxonomy onto HTTP statuses.
func respondDataError(w http.ResponseWriter, log *logger.Logger, err error) {
	var unavailable *contracts.DataUnavailableError
	if errors.As(err, &unavailable) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	var confErr *contracts.ConfigurationError
	if errors.As(err, &confErr) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var synErr *rule.SyntaxError
	if errors.As(err, &synErr) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.WithError(err).Error("Request failed")
	respondError(w, http.StatusInternalServerError, "internal error")
}

func intQuery(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
