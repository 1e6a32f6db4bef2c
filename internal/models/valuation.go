package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoryRange is the look-back window for a valuation series.
type HistoryRange string

const (
	Range7D  HistoryRange = "7d"
	Range30D HistoryRange = "30d"
	Range12M HistoryRange = "12m"
)

// ParseHistoryRange returns the range for a string, defaulting to 12 months.
func ParseHistoryRange(s string) HistoryRange {
	switch HistoryRange(s) {
	case Range7D:
		return Range7D
	case Range30D:
		return Range30D
	default:
		return Range12M
	}
}

// Start returns the window's start boundary relative to now.
func (r HistoryRange) Start(now time.Time) time.Time {
	switch r {
	case Range7D:
		return now.AddDate(0, 0, -7)
	case Range30D:
		return now.AddDate(0, 0, -30)
	default:
		return now.AddDate(0, -12, 0)
	}
}

// ValuationPoint is one day's net worth: cash plus holdings marked to the
// last traded price.
type ValuationPoint struct {
	Date  string          `json:"date"` // calendar date, YYYY-MM-DD
	Value decimal.Decimal `json:"value"`
}

// Quote is an immutable price observation from the price source.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Change    decimal.Decimal `json:"change"`
	ChangePct decimal.Decimal `json:"change_pct"`
	AsOf      time.Time       `json:"as_of"`
}

// PortfolioPosition is a holding enriched with a current quote.
type PortfolioPosition struct {
	Holding
	MarketPrice    decimal.Decimal `json:"market_price"`
	MarketValue    decimal.Decimal `json:"market_value"`
	UnrealizedGain decimal.Decimal `json:"unrealized_gain"`
}
