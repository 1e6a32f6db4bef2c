package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a cash movement record.
type TransactionType string

const (
	TxDeposit        TransactionType = "DEPOSIT"
	TxWithdraw       TransactionType = "WITHDRAW"
	TxTransfer       TransactionType = "TRANSFER"
	TxReversal       TransactionType = "REVERSAL"
	TxInitialDeposit TransactionType = "INITIAL_DEPOSIT"
)

// Transaction is an immutable, append-only cash movement record. What is
// debited from the sender equals what is credited to the receiver; deposits
// and withdrawals use the SYSTEM sentinel as the counterparty. Records are
// never updated or deleted; a transfer is undone only by appending a
// compensating REVERSAL record.
type Transaction struct {
	ID string `json:"id"`
	// Seq is a store-assigned monotonic sequence preserving insertion
	// order for records with equal timestamps.
	Seq             uint64          `json:"-"`
	SenderAccount   string          `json:"sender_account"`
	ReceiverAccount string          `json:"receiver_account"`
	Amount          decimal.Decimal `json:"amount"`
	Type            TransactionType `json:"type"`
	Description     string          `json:"description,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
}

// Involves reports whether the account is a party to this transaction.
func (t *Transaction) Involves(accountNumber string) bool {
	return t.SenderAccount == accountNumber || t.ReceiverAccount == accountNumber
}
