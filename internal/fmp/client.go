// Package fmp fetches price and constituent data from the Financial
// Modeling Prep API. All methods respect the configured request rate;
// FMP throttles free keys hard, so the limiter is not optional.
package fmp

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"stockpick/internal/contracts"
	"stockpick/pkg/config"
	"stockpick/pkg/httputil"
	"stockpick/pkg/logger"
)

const dateLayout = "2006-01-02"

// Client is the Financial Modeling Prep API client.
type Client struct {
	http    *httputil.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
	logger  *logger.Logger
}

// NewClient creates a new FMP client.
func NewClient(cfg config.FMPConfig, log *logger.Logger) *Client {
	return &Client{
		http:    httputil.New(log),
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		logger:  log,
	}
}

type priceRow struct {
	Symbol   string  `json:"symbol"`
	Date     string  `json:"date"`
	AdjClose float64 `json:"adjClose"`
}

// HistoricalPrices returns dividend-adjusted daily closes for a symbol,
// oldest first.
func (c *Client) HistoricalPrices(ctx context.Context, symbol string, from, to time.Time) (contracts.PriceSeries, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("from", from.Format(dateLayout))
	params.Set("to", to.Format(dateLayout))
	params.Set("apikey", c.apiKey)

	var rows []priceRow
	endpoint := c.baseURL + "/stable/historical-price-eod/dividend-adjusted"
	if err := c.http.GetJSON(ctx, endpoint, params, &rows); err != nil {
		return nil, fmt.Errorf("fetch prices for %s: %w", symbol, err)
	}

	series := make(contracts.PriceSeries, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse(dateLayout, row.Date)
		if err != nil {
			c.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
				"date":   row.Date,
			}).Warn("Skipping price row with unparseable date")
			continue
		}
		series = append(series, contracts.PricePoint{
			Symbol:   symbol,
			Date:     date,
			AdjClose: row.AdjClose,
		})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"points": len(series),
	}).Debug("Fetched historical prices")

	return series, nil
}

type indexPriceRow struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// IndexPrices returns daily index levels, oldest first.
func (c *Client) IndexPrices(ctx context.Context, index contracts.Index, from, to time.Time) (contracts.PriceSeries, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("symbol", index.Ticker())
	params.Set("from", from.Format(dateLayout))
	params.Set("to", to.Format(dateLayout))
	params.Set("apikey", c.apiKey)

	var rows []indexPriceRow
	endpoint := c.baseURL + "/stable/historical-price-eod/light"
	if err := c.http.GetJSON(ctx, endpoint, params, &rows); err != nil {
		return nil, fmt.Errorf("fetch index prices for %s: %w", index, err)
	}

	series := make(contracts.PriceSeries, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse(dateLayout, row.Date)
		if err != nil {
			continue
		}
		series = append(series, contracts.PricePoint{
			Symbol:   index.Ticker(),
			Date:     date,
			AdjClose: row.Price,
		})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	return series, nil
}

type constituentRow struct {
	Date          string `json:"date"`
	Symbol        string `json:"symbol"`
	RemovedTicker string `json:"removedTicker"`
}

// HistoricalConstituents returns the index change log, oldest first. Each
// entry carries the added symbol, the removed symbol, or both.
func (c *Client) HistoricalConstituents(ctx context.Context, index contracts.Index) ([]contracts.ConstituentChange, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var path string
	switch index {
	case contracts.IndexSP500:
		path = "/stable/historical-sp500-constituent"
	case contracts.IndexDowJones:
		path = "/stable/historical-dowjones-constituent"
	case contracts.IndexNasdaq:
		path = "/stable/historical-nasdaq-constituent"
	default:
		return nil, fmt.Errorf("unsupported index %q", index)
	}

	params := url.Values{}
	params.Set("apikey", c.apiKey)

	var rows []constituentRow
	if err := c.http.GetJSON(ctx, c.baseURL+path, params, &rows); err != nil {
		return nil, fmt.Errorf("fetch constituents for %s: %w", index, err)
	}

	changes := make([]contracts.ConstituentChange, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse(dateLayout, row.Date)
		if err != nil {
			continue
		}
		changes = append(changes, contracts.ConstituentChange{
			Date:          date,
			AddedSymbol:   row.Symbol,
			RemovedSymbol: row.RemovedTicker,
		})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Date.Before(changes[j].Date) })

	c.logger.WithFields(map[string]interface{}{
		"index":   index,
		"changes": len(changes),
	}).Debug("Fetched constituent change log")

	return changes, nil
}

// Constituents returns the current index membership, sorted.
func (c *Client) Constituents(ctx context.Context, index contracts.Index) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var path string
	switch index {
	case contracts.IndexSP500:
		path = "/stable/sp500-constituent"
	case contracts.IndexDowJones:
		path = "/stable/dowjones-constituent"
	case contracts.IndexNasdaq:
		path = "/stable/nasdaq-constituent"
	default:
		return nil, fmt.Errorf("unsupported index %q", index)
	}

	params := url.Values{}
	params.Set("apikey", c.apiKey)

	var rows []struct {
		Symbol string `json:"symbol"`
	}
	if err := c.http.GetJSON(ctx, c.baseURL+path, params, &rows); err != nil {
		return nil, fmt.Errorf("fetch constituents for %s: %w", index, err)
	}

	symbols := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Symbol != "" {
			symbols = append(symbols, row.Symbol)
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}
