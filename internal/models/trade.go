package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// NormalizeSymbol canonicalizes a ticker symbol to its upper-case form.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// TradeSide is the direction of a trade.
type TradeSide string

const (
	Buy  TradeSide = "BUY"
	Sell TradeSide = "SELL"
)

// Trade is an immutable, append-only security movement record. Total is
// price × quantity: the cost for a BUY, the proceeds for a SELL.
type Trade struct {
	ID string `json:"id"`
	// Seq is a store-assigned monotonic sequence preserving insertion
	// order for records with equal timestamps.
	Seq           uint64          `json:"-"`
	AccountNumber string          `json:"account_number"`
	Symbol        string          `json:"symbol"`
	Side          TradeSide       `json:"side"`
	Quantity      int64           `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	Total         decimal.Decimal `json:"total"`
	Class         InvestmentClass `json:"class"`
	Timestamp     time.Time       `json:"timestamp"`
}

// TradeConfirmation is the execution summary returned to the caller of a
// buy or sell.
type TradeConfirmation struct {
	Side       TradeSide       `json:"side"`
	Symbol     string          `json:"symbol"`
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Total      decimal.Decimal `json:"total"`
	NewBalance decimal.Decimal `json:"new_balance"`
	Class      InvestmentClass `json:"class"`
	ExecutedAt time.Time       `json:"executed_at"`
}
