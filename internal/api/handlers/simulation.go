package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"stockpick/internal/backtest"
	"stockpick/internal/contracts"
	"stockpick/internal/store"
	"stockpick/pkg/config"
	"stockpick/pkg/logger"
)

// SimulationHandler runs backtests and serves saved runs.
type SimulationHandler struct {
	simulator *backtest.Simulator
	repo      *store.SimulationRepository
	defaults  config.SimulationConfig
	logger    *logger.Logger
}

// NewSimulationHandler creates a new simulation handler
func NewSimulationHandler(
	simulator *backtest.Simulator,
	repo *store.SimulationRepository,
	defaults config.SimulationConfig,
	log *logger.Logger,
) *SimulationHandler {
	return &SimulationHandler{
		simulator: simulator,
		repo:      repo,
		defaults:  defaults,
		logger:    log,
	}
}

// simulationRequest is the POST body for a backtest run. Zero-valued
// numeric fields fall back to the configured defaults.
type simulationRequest struct {
	Index                  string  `json:"index"`
	BaselineIndex          string  `json:"baseline_index"`
	MaxStocks              int     `json:"max_stocks"`
	RebalanceIntervalWeeks int     `json:"rebalance_interval_weeks"`
	DateStart              string  `json:"date_start"`
	DateEnd                string  `json:"date_end"`
	InitialBalance         float64 `json:"initial_balance"`
	Rule                   string  `json:"rule"`
}

// RunSimulation runs a backtest and persists the result.
// POST /api/simulations
func (h *SimulationHandler) RunSimulation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req simulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := h.buildConfig(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.simulator.Run(ctx, cfg)
	if err != nil {
		respondDataError(w, h.logger, err)
		return
	}

	id, err := h.repo.Save(ctx, *result)
	if err != nil {
		h.logger.WithError(err).Error("Failed to save simulation")
		respondError(w, http.StatusInternalServerError, "failed to save simulation")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":     id,
		"result": result,
	})
}

// GetSimulation returns a saved simulation by id.
// GET /api/simulations/{id}
func (h *SimulationHandler) GetSimulation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	sim, err := h.repo.Get(r.Context(), id)
	if errors.Is(err, store.ErrSimulationNotFound) {
		respondError(w, http.StatusNotFound, "simulation not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to load simulation")
		respondError(w, http.StatusInternalServerError, "failed to load simulation")
		return
	}

	respondJSON(w, http.StatusOK, sim)
}

// ListSimulations returns saved simulation summaries, newest first.
// GET /api/simulations?limit=50
func (h *SimulationHandler) ListSimulations(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 50)

	summaries, err := h.repo.List(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list simulations")
		respondError(w, http.StatusInternalServerError, "failed to list simulations")
		return
	}
	if summaries == nil {
		summaries = []store.SimulationSummary{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"simulations": summaries,
	})
}

func (h *SimulationHandler) buildConfig(req simulationRequest) (backtest.Config, error) {
	cfg := backtest.Config{
		MaxStocks:              req.MaxStocks,
		RebalanceIntervalWeeks: req.RebalanceIntervalWeeks,
		InitialBalance:         req.InitialBalance,
		Rule:                   req.Rule,
		LookbackWeeks:          h.defaults.LookbackWeeks,
	}

	index, err := contracts.ParseIndex(req.Index)
	if err != nil {
		return cfg, err
	}
	cfg.Index = index

	cfg.BaselineIndex = contracts.Index(h.defaults.BaselineIndex)
	if req.BaselineIndex != "" {
		baseline, err := contracts.ParseIndex(req.BaselineIndex)
		if err != nil {
			return cfg, err
		}
		cfg.BaselineIndex = baseline
	}

	if cfg.MaxStocks == 0 {
		cfg.MaxStocks = h.defaults.MaxStocks
	}
	if cfg.RebalanceIntervalWeeks == 0 {
		cfg.RebalanceIntervalWeeks = h.defaults.RebalanceIntervalWeeks
	}
	if cfg.InitialBalance == 0 {
		cfg.InitialBalance = h.defaults.InitialBalance
	}

	if cfg.DateStart, err = time.Parse(dateLayout, req.DateStart); err != nil {
		return cfg, errors.New("invalid date_start, expected YYYY-MM-DD")
	}
	if cfg.DateEnd, err = time.Parse(dateLayout, req.DateEnd); err != nil {
		return cfg, errors.New("invalid date_end, expected YYYY-MM-DD")
	}

	return cfg, nil
}
