// Package interfaces defines service contracts for Tally
package interfaces

import (
	"context"

	"github.com/dmaitland/tally/internal/models"
)

// LedgerTx is the view of the ledger store inside one atomic unit. Every
// mutation performed through a LedgerTx commits together or not at all.
type LedgerTx interface {
	// Account loads an account by its canonical number. Returns
	// models.ErrAccountNotFound when absent.
	Account(number string) (*models.Account, error)

	// SaveAccount writes an account record.
	SaveAccount(acct *models.Account) error

	// Holding loads the lot for (account, symbol, class). Returns
	// models.ErrHoldingNotFound when absent.
	Holding(number, symbol string, class models.InvestmentClass) (*models.Holding, error)

	// SaveHolding writes a lot.
	SaveHolding(h *models.Holding) error

	// DeleteHolding removes a lot entirely.
	DeleteHolding(number, symbol string, class models.InvestmentClass) error

	// Transaction loads a cash movement record by id. Returns
	// models.ErrTransactionNotFound when absent.
	Transaction(id string) (*models.Transaction, error)

	// AppendTransaction appends an immutable cash movement record.
	AppendTransaction(txn *models.Transaction) error

	// AppendTrade appends an immutable security movement record.
	AppendTrade(trade *models.Trade) error

	// AppendOutbox queues a notification event for post-commit dispatch.
	AppendOutbox(ev *models.OutboxEvent) error
}

// LedgerStore is the persistent, transactional store behind the ledger.
type LedgerStore interface {
	// Update runs fn in a read-write transaction. The transaction is
	// retried on store-level write conflicts; domain errors returned by fn
	// abort the transaction and propagate unchanged.
	Update(ctx context.Context, fn func(tx LedgerTx) error) error

	// View runs fn against a consistent read-only snapshot.
	View(ctx context.Context, fn func(tx LedgerTx) error) error

	// Account loads an account outside a transaction.
	Account(ctx context.Context, number string) (*models.Account, error)

	// TransactionsByAccount returns every record where the account is
	// sender or receiver, oldest first.
	TransactionsByAccount(ctx context.Context, number string) ([]*models.Transaction, error)

	// TradesByAccount returns the account's trades, oldest first.
	TradesByAccount(ctx context.Context, number string) ([]*models.Trade, error)

	// HoldingsByAccount returns the account's open lots.
	HoldingsByAccount(ctx context.Context, number string) ([]*models.Holding, error)

	// PendingOutbox returns up to limit undispatched events, oldest first.
	PendingOutbox(ctx context.Context, limit int) ([]*models.OutboxEvent, error)

	// MarkDispatched records that an outbox event was published.
	MarkDispatched(ctx context.Context, id string) error

	Close() error
}

// StorageManager coordinates storage backends.
type StorageManager interface {
	LedgerStore() LedgerStore
	Close() error
}
