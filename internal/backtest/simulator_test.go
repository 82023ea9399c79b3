package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpick/internal/analysiscache"
	"stockpick/internal/contracts"
	"stockpick/internal/metrics"
	"stockpick/internal/selection"
	"stockpick/pkg/logger"
)

// fakePrices serves a synthetic linear price path per symbol. Weekends have
// no data, matching real daily series.
type fakePrices struct {
	price func(symbol string, date time.Time) float64
}

func (f *fakePrices) Series(ctx context.Context, symbol string, asOf time.Time, lookbackWeeks int) (contracts.PriceSeries, error) {
	var series contracts.PriceSeries
	for d := asOf.AddDate(0, 0, -7*(lookbackWeeks+1)); !d.After(asOf); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		series = append(series, contracts.PricePoint{
			Symbol:   symbol,
			Date:     d,
			AdjClose: f.price(symbol, d),
		})
	}
	return series, nil
}

func (f *fakePrices) At(ctx context.Context, symbol string, date time.Time) (float64, error) {
	for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		date = date.AddDate(0, 0, -1)
	}
	return f.price(symbol, date), nil
}

type fakeConstituents struct {
	symbols []string
	err     error
}

func (f *fakeConstituents) At(ctx context.Context, index contracts.Index, date time.Time) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.symbols, nil
}

// fakeCalendar treats every weekday as a trading day.
type fakeCalendar struct{}

func (fakeCalendar) TradingDayOnOrBefore(ctx context.Context, date time.Time) (time.Time, error) {
	for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		date = date.AddDate(0, 0, -1)
	}
	return date, nil
}

func (fakeCalendar) TradingDayOnOrAfter(ctx context.Context, date time.Time) (time.Time, error) {
	for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		date = date.AddDate(0, 0, 1)
	}
	return date, nil
}

type fakeBaseline struct {
	price func(date time.Time) float64
}

func (f *fakeBaseline) Price(ctx context.Context, index contracts.Index, date time.Time) (float64, error) {
	for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		date = date.AddDate(0, 0, -1)
	}
	return f.price(date), nil
}

var epoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// trendingPrice rises 0.1 per calendar day from a per-symbol base.
func trendingPrice(symbol string, date time.Time) float64 {
	base := 100.0
	if symbol == "BBB" {
		base = 50.0
	}
	return base + 0.1*date.Sub(epoch).Hours()/24
}

func newTestSimulator(constituents contracts.ConstituentSource, baseline contracts.BaselineSource) *Simulator {
	log := logger.Nop()
	prices := &fakePrices{price: trendingPrice}
	cache := analysiscache.New(64, nil, nil, log)
	metricsService := metrics.NewService(prices, 52, log)
	selector := selection.NewSelector(log)
	return NewSimulator(prices, constituents, fakeCalendar{}, baseline, cache, metricsService, selector, log)
}

func testConfig() Config {
	return Config{
		Index:                  contracts.IndexSP500,
		BaselineIndex:          contracts.IndexSP500,
		MaxStocks:              3,
		RebalanceIntervalWeeks: 2,
		DateStart:              time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC),
		DateEnd:                time.Date(2022, time.March, 1, 0, 0, 0, 0, time.UTC),
		InitialBalance:         10000,
		Rule:                   "total_weeks >= 5",
		LookbackWeeks:          52,
	}
}

func TestRun_EventDatesAndClamping(t *testing.T) {
	sim := newTestSimulator(&fakeConstituents{symbols: []string{"AAA", "BBB"}}, nil)

	result, err := sim.Run(context.Background(), testConfig())
	require.NoError(t, err)

	// Jan 1 2022 is a Saturday; the loop starts Monday Jan 3 and steps two
	// weeks, with the final partial period clamped to the end date.
	require.Len(t, result.RebalanceHistory, 5)
	wantDates := []time.Time{
		time.Date(2022, time.January, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2022, time.January, 17, 0, 0, 0, 0, time.UTC),
		time.Date(2022, time.January, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2022, time.February, 14, 0, 0, 0, 0, time.UTC),
		time.Date(2022, time.February, 28, 0, 0, 0, 0, time.UTC),
	}
	for i, event := range result.RebalanceHistory {
		assert.Equal(t, wantDates[i], event.Date)
	}

	last := result.RebalanceHistory[4]
	require.NotEmpty(t, last.Investments)
	assert.Equal(t, testConfig().DateEnd, last.Investments[0].SellDate)
	assert.Equal(t, result.DateStart, wantDates[0])
}

func TestRun_NoMatchesStaysInCash(t *testing.T) {
	sim := newTestSimulator(&fakeConstituents{symbols: []string{"AAA", "BBB"}}, nil)

	cfg := testConfig()
	cfg.Rule = "linear_slope_pct > 999999"

	result, err := sim.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, cfg.InitialBalance, result.FinalBalance)
	assert.Zero(t, result.Profit)
	assert.Zero(t, result.ProfitPct)
	require.Len(t, result.RebalanceHistory, 5)
	for _, event := range result.RebalanceHistory {
		assert.Empty(t, event.Investments)
		assert.Zero(t, event.Profit)
		assert.Equal(t, cfg.InitialBalance, event.Balance)
	}
}

func TestRun_ProfitArithmetic(t *testing.T) {
	sim := newTestSimulator(&fakeConstituents{symbols: []string{"AAA", "BBB"}}, nil)

	cfg := testConfig()
	result, err := sim.Run(context.Background(), cfg)
	require.NoError(t, err)

	balance := cfg.InitialBalance
	for _, event := range result.RebalanceHistory {
		assert.InDelta(t, balance, event.Balance, 1e-9)
		require.Len(t, event.Investments, 2)

		var eventProfit float64
		allocation := event.Balance / 2
		for _, inv := range event.Investments {
			assert.InDelta(t, allocation/inv.BuyPrice, inv.Position, 1e-9)
			assert.InDelta(t, inv.Position*(inv.SellPrice-inv.BuyPrice), inv.Profit, 1e-9)
			assert.InDelta(t, (inv.SellPrice-inv.BuyPrice)/inv.BuyPrice*100, inv.ProfitPct, 1e-9)
			assert.Greater(t, inv.Profit, 0.0) // prices trend up
			eventProfit += inv.Profit
		}
		assert.InDelta(t, eventProfit, event.Profit, 1e-9)
		assert.InDelta(t, eventProfit/event.Balance*100, event.ProfitPct, 1e-9)
		balance += event.Profit
	}

	assert.InDelta(t, balance, result.FinalBalance, 1e-9)
	assert.InDelta(t, balance-cfg.InitialBalance, result.Profit, 1e-9)
	assert.InDelta(t, result.Profit/cfg.InitialBalance*100, result.ProfitPct, 1e-9)
	assert.Greater(t, result.FinalBalance, cfg.InitialBalance)

	// Config echo for reproducibility.
	assert.Equal(t, cfg.Rule, result.Config.Rule)
	assert.Equal(t, []string{"total_weeks"}, result.Config.InvolvedFields)
	assert.Equal(t, cfg.DateStart, result.Config.DateStart)
}

func TestRun_BaselineLeg(t *testing.T) {
	baseline := &fakeBaseline{price: func(date time.Time) float64 {
		return 1000 + 0.5*date.Sub(epoch).Hours()/24
	}}
	sim := newTestSimulator(&fakeConstituents{symbols: []string{"AAA", "BBB"}}, baseline)

	cfg := testConfig()
	result, err := sim.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, cfg.BaselineIndex, result.BaselineIndex)
	assert.Greater(t, result.BaselineBalance, cfg.InitialBalance)
	assert.InDelta(t, result.BaselineBalance-cfg.InitialBalance, result.BaselineProfit, 1e-9)

	baselineBalance := cfg.InitialBalance
	for _, event := range result.RebalanceHistory {
		assert.InDelta(t, baselineBalance, event.BaselineBalance, 1e-9)
		assert.InDelta(t, event.BaselineProfit/event.BaselineBalance*100, event.BaselineProfitPct, 1e-9)
		baselineBalance += event.BaselineProfit
	}
	assert.InDelta(t, baselineBalance, result.BaselineBalance, 1e-9)
}

func TestRun_InvalidConfig(t *testing.T) {
	sim := newTestSimulator(&fakeConstituents{symbols: []string{"AAA"}}, nil)

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad index", func(c *Config) { c.Index = "FTSE" }, "index"},
		{"zero max stocks", func(c *Config) { c.MaxStocks = 0 }, "max_stocks"},
		{"zero interval", func(c *Config) { c.RebalanceIntervalWeeks = 0 }, "rebalance_interval_weeks"},
		{"inverted range", func(c *Config) { c.DateStart, c.DateEnd = c.DateEnd, c.DateStart }, "date_range"},
		{"negative balance", func(c *Config) { c.InitialBalance = -5 }, "initial_balance"},
		{"zero lookback", func(c *Config) { c.LookbackWeeks = 0 }, "lookback_weeks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)

			_, err := sim.Run(context.Background(), cfg)
			require.Error(t, err)

			var confErr *contracts.ConfigurationError
			require.ErrorAs(t, err, &confErr)
			assert.Equal(t, tt.field, confErr.Field)
		})
	}
}

func TestRun_BadRuleFailsBeforeLoop(t *testing.T) {
	constituents := &fakeConstituents{err: &contracts.DataUnavailableError{Date: time.Now()}}
	sim := newTestSimulator(constituents, nil)

	cfg := testConfig()
	cfg.Rule = "no_such_field > 1"

	// The syntax error surfaces even though the data source would fail too:
	// parsing happens before any data access.
	_, err := sim.Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")
}

func TestRun_DataUnavailableAborts(t *testing.T) {
	constituents := &fakeConstituents{err: &contracts.DataUnavailableError{Date: time.Now()}}
	sim := newTestSimulator(constituents, nil)

	_, err := sim.Run(context.Background(), testConfig())
	require.Error(t, err)

	var unavailable *contracts.DataUnavailableError
	assert.ErrorAs(t, err, &unavailable)
}
