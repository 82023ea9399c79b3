package contracts

import (
	"fmt"
	"strings"
	"time"
)

// Index identifies a stock index whose constituents form a selection universe.
type Index string

const (
	IndexSP500    Index = "SP500"
	IndexDowJones Index = "DOWJONES"
	IndexNasdaq   Index = "NASDAQ"
)

// ParseIndex converts a string into an Index, case-insensitively.
func ParseIndex(s string) (Index, error) {
	switch Index(strings.ToUpper(s)) {
	case IndexSP500, IndexDowJones, IndexNasdaq:
		return Index(strings.ToUpper(s)), nil
	}
	return "", fmt.Errorf("unknown index: %q", s)
}

// Ticker returns the quote symbol used by the price feed for the index itself.
func (i Index) Ticker() string {
	switch i {
	case IndexSP500:
		return "^GSPC"
	case IndexDowJones:
		return "^DJI"
	case IndexNasdaq:
		return "^IXIC"
	}
	return ""
}

// PricePoint is one day's dividend-adjusted close for a symbol.
type PricePoint struct {
	Symbol   string    `json:"symbol"`
	Date     time.Time `json:"date"`
	AdjClose float64   `json:"adj_close"`
}

// PriceSeries is a daily price history, ordered oldest to newest.
// The price store owns the data; the engine treats it as read-only.
type PriceSeries []PricePoint

// WeeklyPoint is one week's close, anchored on the last trading day of the week.
type WeeklyPoint struct {
	WeekEnding time.Time `json:"week_ending"`
	Close      float64   `json:"close"`
}

// WeeklySeries is a weekly close history, ordered oldest to newest.
// Built once per metrics computation and never mutated afterwards.
type WeeklySeries []WeeklyPoint

// ConstituentChange is one entry in an index's membership change log.
// A change may add a symbol, remove one, or both (a replacement).
type ConstituentChange struct {
	Date          time.Time `json:"date"`
	AddedSymbol   string    `json:"added_symbol,omitempty"`
	RemovedSymbol string    `json:"removed_symbol,omitempty"`
}
