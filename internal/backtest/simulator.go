// Package backtest runs the rebalance simulation: an equal-weight
// portfolio re-selected every interval by the rule engine, with an
// optional buy-and-hold index leg computed alongside for comparison.
package backtest

import (
	"context"
	"time"

	"stockpick/internal/analysiscache"
	"stockpick/internal/contracts"
	"stockpick/internal/metrics"
	"stockpick/internal/rule"
	"stockpick/internal/selection"
	"stockpick/pkg/logger"
)

// Simulator drives the rebalance loop over historical data.
type Simulator struct {
	prices       contracts.PriceSource
	constituents contracts.ConstituentSource
	calendar     contracts.TradingCalendar
	baseline     contracts.BaselineSource
	cache        *analysiscache.Cache
	metrics      *metrics.Service
	selector     *selection.Selector
	logger       *logger.Logger
}

// NewSimulator wires a simulator. baseline may be nil; the baseline leg is
// then omitted from the result.
func NewSimulator(
	prices contracts.PriceSource,
	constituents contracts.ConstituentSource,
	calendar contracts.TradingCalendar,
	baseline contracts.BaselineSource,
	cache *analysiscache.Cache,
	metricsService *metrics.Service,
	selector *selection.Selector,
	log *logger.Logger,
) *Simulator {
	return &Simulator{
		prices:       prices,
		constituents: constituents,
		calendar:     calendar,
		baseline:     baseline,
		cache:        cache,
		metrics:      metricsService,
		selector:     selector,
		logger:       log,
	}
}

// Run executes one full simulation. Symbols the analyzer excludes for thin
// or broken data simply never appear in a selection; a source that cannot
// supply required prices aborts the run with the underlying error.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*contracts.SimulationResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	expr, err := rule.Parse(cfg.Rule)
	if err != nil {
		return nil, err
	}

	start, err := s.calendar.TradingDayOnOrAfter(ctx, cfg.DateStart)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"index":      cfg.Index,
		"start":      start.Format("2006-01-02"),
		"end":        cfg.DateEnd.Format("2006-01-02"),
		"max_stocks": cfg.MaxStocks,
		"rule":       cfg.Rule,
	}).Info("Starting simulation")

	balance := cfg.InitialBalance
	baselineBalance := cfg.InitialBalance
	var history []contracts.RebalanceEvent

	for current := start; current.Before(cfg.DateEnd); {
		// The final period is clamped so the last positions always close
		// out at the end date.
		sellDate := current.AddDate(0, 0, 7*cfg.RebalanceIntervalWeeks)
		if sellDate.After(cfg.DateEnd) {
			sellDate = cfg.DateEnd
		}

		event, err := s.step(ctx, cfg, expr, current, sellDate, balance)
		if err != nil {
			return nil, err
		}

		if s.baseline != nil {
			bp, bErr := s.baselineLeg(ctx, cfg.BaselineIndex, current, sellDate, baselineBalance)
			if bErr != nil {
				return nil, bErr
			}
			event.BaselineBalance = baselineBalance
			event.BaselineProfit = bp
			event.BaselineProfitPct = bp / baselineBalance * 100
			baselineBalance += bp
		}

		history = append(history, event)
		balance += event.Profit
		current = sellDate
	}

	result := &contracts.SimulationResult{
		InitialBalance:   cfg.InitialBalance,
		FinalBalance:     balance,
		DateStart:        start,
		DateEnd:          cfg.DateEnd,
		RebalanceHistory: history,
		Profit:           balance - cfg.InitialBalance,
		ProfitPct:        (balance - cfg.InitialBalance) / cfg.InitialBalance * 100,
		Config: contracts.SimulationConfig{
			Index:                  cfg.Index,
			MaxStocks:              cfg.MaxStocks,
			RebalanceIntervalWeeks: cfg.RebalanceIntervalWeeks,
			DateStart:              cfg.DateStart,
			DateEnd:                cfg.DateEnd,
			Rule:                   cfg.Rule,
			InvolvedFields:         rule.Fields(expr),
		},
	}

	if s.baseline != nil {
		result.BaselineIndex = cfg.BaselineIndex
		result.BaselineBalance = baselineBalance
		result.BaselineProfit = baselineBalance - cfg.InitialBalance
		result.BaselineProfitPct = (baselineBalance - cfg.InitialBalance) / cfg.InitialBalance * 100
	}

	s.logger.WithFields(map[string]interface{}{
		"events":        len(history),
		"final_balance": balance,
		"profit_pct":    result.ProfitPct,
	}).Info("Simulation completed")

	return result, nil
}

// step runs one rebalance period: select, buy equal-weight at current, sell
// everything at sellDate.
func (s *Simulator) step(ctx context.Context, cfg Config, expr rule.Expression, current, sellDate time.Time, balance float64) (contracts.RebalanceEvent, error) {
	event := contracts.RebalanceEvent{
		Date:        current,
		Balance:     balance,
		Investments: []contracts.Investment{},
	}

	universe, err := s.constituents.At(ctx, cfg.Index, current)
	if err != nil {
		return event, err
	}

	records, err := s.cache.GetOrCompute(ctx, current, cfg.Index, universe,
		func(ctx context.Context) (map[string]contracts.MetricsRecord, error) {
			return s.metrics.ComputeBatch(ctx, universe, current)
		})
	if err != nil {
		return event, err
	}

	selected := s.selector.Pick(records, expr, cfg.MaxStocks)
	if len(selected) == 0 {
		// Nothing matched the rule this period; the balance sits in cash.
		s.logger.WithField("date", current.Format("2006-01-02")).Debug("No stocks selected")
		return event, nil
	}

	allocation := balance / float64(len(selected))
	var periodProfit float64
	for _, rec := range selected {
		buyPrice, err := s.prices.At(ctx, rec.Symbol, current)
		if err != nil {
			return event, err
		}
		sellPrice, err := s.prices.At(ctx, rec.Symbol, sellDate)
		if err != nil {
			return event, err
		}

		position := allocation / buyPrice
		profit := position * (sellPrice - buyPrice)
		periodProfit += profit

		event.Investments = append(event.Investments, contracts.Investment{
			Symbol:    rec.Symbol,
			Position:  position,
			BuyPrice:  buyPrice,
			BuyDate:   current,
			SellPrice: sellPrice,
			SellDate:  sellDate,
			Profit:    profit,
			ProfitPct: (sellPrice - buyPrice) / buyPrice * 100,
		})
	}

	event.Profit = periodProfit
	event.ProfitPct = periodProfit / balance * 100
	return event, nil
}

// baselineLeg returns the profit an index position of size balance would
// have realized over the period.
func (s *Simulator) baselineLeg(ctx context.Context, index contracts.Index, current, sellDate time.Time, balance float64) (float64, error) {
	buyPrice, err := s.baseline.Price(ctx, index, current)
	if err != nil {
		return 0, err
	}
	sellPrice, err := s.baseline.Price(ctx, index, sellDate)
	if err != nil {
		return 0, err
	}
	return balance * (sellPrice - buyPrice) / buyPrice, nil
}
