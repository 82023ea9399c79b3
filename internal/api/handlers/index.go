package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"stockpick/internal/contracts"
	"stockpick/pkg/logger"
)

// IndexHandler serves index-level data: reference prices and point-in-time
// membership.
type IndexHandler struct {
	baseline     contracts.BaselineSource
	constituents contracts.ConstituentSource
	logger       *logger.Logger
}

// NewIndexHandler creates a new index handler
func NewIndexHandler(
	baseline contracts.BaselineSource,
	constituents contracts.ConstituentSource,
	log *logger.Logger,
) *IndexHandler {
	return &IndexHandler{
		baseline:     baseline,
		constituents: constituents,
		logger:       log,
	}
}

// GetPrice returns the index level on or before a date.
// GET /api/indexes/{index}/price?date=2024-06-28
func (h *IndexHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	index, err := contracts.ParseIndex(mux.Vars(r)["index"])
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

	price, err := h.baseline.Price(r.Context(), index, date)
	if err != nil {
		respondDataError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"index": index,
		"date":  date.Format(dateLayout),
		"price": price,
	})
}

// GetConstituents returns the index membership as of a date.
// GET /api/indexes/{index}/constituents?date=2024-06-28
func (h *IndexHandler) GetConstituents(w http.ResponseWriter, r *http.Request) {
	index, err := contracts.ParseIndex(mux.Vars(r)["index"])
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

	symbols, err := h.constituents.At(r.Context(), index, date)
	if err != nil {
		respondDataError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"index":   index,
		"date":    date.Format(dateLayout),
		"count":   len(symbols),
		"symbols": symbols,
	})
}
