package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentClass tags a lot for downstream tax-style reporting. It has no
// behavioral effect on money movement.
type InvestmentClass string

const (
	ShortTerm InvestmentClass = "SHORT_TERM"
	LongTerm  InvestmentClass = "LONG_TERM"
)

// ParseInvestmentClass returns the class for a string, defaulting to
// SHORT_TERM for empty or unknown values.
func ParseInvestmentClass(s string) InvestmentClass {
	if InvestmentClass(s) == LongTerm {
		return LongTerm
	}
	return ShortTerm
}

// Holding is one lot: the position for a distinct (account, symbol,
// investment class) triple. AverageCost is a running quantity-weighted mean
// recomputed on every buy and untouched on sell. A lot whose quantity is
// driven to zero is removed entirely; a later buy starts a fresh lot.
type Holding struct {
	AccountNumber string          `json:"account_number"`
	Symbol        string          `json:"symbol"`
	Class         InvestmentClass `json:"class"`
	Quantity      int64           `json:"quantity"`
	AverageCost   decimal.Decimal `json:"average_cost"`
	AcquiredAt    time.Time       `json:"acquired_at"`
}
