package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dmaitland/tally/internal/models"
)

// AccountService manages account opening and the account directory.
type AccountService interface {
	// Open creates an account with a fresh account number and hashed PIN.
	// A positive opening balance is recorded as an INITIAL_DEPOSIT from
	// SYSTEM in the same atomic unit.
	Open(ctx context.Context, req OpenAccountRequest) (*models.Account, error)

	// Resolve looks up an account by any identifier form, normalizing it
	// to the canonical zero-padded number first.
	Resolve(ctx context.Context, identifier string) (*models.Account, error)

	// VerifyPIN checks the secondary PIN credential.
	VerifyPIN(ctx context.Context, identifier, pin string) error
}

// OpenAccountRequest carries the inputs for opening an account.
type OpenAccountRequest struct {
	Name           string
	Email          string
	PIN            string
	Role           models.AccountRole
	OpeningBalance decimal.Decimal
}

// BankingService executes cash movements: deposits, withdrawals, transfers,
// and compensating reversals. Every operation is one atomic unit.
type BankingService interface {
	Deposit(ctx context.Context, identifier string, amount decimal.Decimal) (*models.Transaction, error)
	Withdraw(ctx context.Context, identifier string, amount decimal.Decimal) (*models.Transaction, error)
	Transfer(ctx context.Context, fromIdentifier, toIdentifier string, amount decimal.Decimal) (*models.Transaction, error)

	// Reverse appends a compensating REVERSAL for a TRANSFER record. The
	// original record is never mutated.
	Reverse(ctx context.Context, transactionID string) (*models.Transaction, error)

	// Transactions returns the account's cash movement history, newest first.
	Transactions(ctx context.Context, identifier string) ([]*models.Transaction, error)

	// Balance returns the account's current cash balance.
	Balance(ctx context.Context, identifier string) (decimal.Decimal, error)
}

// TradingService executes buy and sell orders against the cash balance.
type TradingService interface {
	Buy(ctx context.Context, identifier, symbol string, quantity int64, class models.InvestmentClass) (*models.TradeConfirmation, error)
	Sell(ctx context.Context, identifier, symbol string, quantity int64, class models.InvestmentClass) (*models.TradeConfirmation, error)

	// Trades returns the account's trade history, newest first.
	Trades(ctx context.Context, identifier string) ([]*models.Trade, error)
}

// PortfolioService is the read side: current positions and the replayed
// daily valuation series.
type PortfolioService interface {
	// Positions returns open lots enriched with current quotes.
	Positions(ctx context.Context, identifier string) ([]*models.PortfolioPosition, error)

	// History replays the account's transaction and trade records into a
	// daily net-worth series over the look-back window.
	History(ctx context.Context, identifier string, rng models.HistoryRange) ([]models.ValuationPoint, error)

	// HistoryChart renders the valuation series as a PNG line chart.
	HistoryChart(ctx context.Context, identifier string, rng models.HistoryRange) ([]byte, error)
}
