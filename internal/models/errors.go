package models

import "errors"

// Core operation failures. These are financially significant and always
// surface to the caller; no operation may swallow them or leave a partial
// commit behind.
var (
	// ErrInsufficientFunds is returned when a debit exceeds the account balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientShares is returned when a sell exceeds the held quantity.
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrHoldingNotFound is returned when selling from a lot that does not exist.
	ErrHoldingNotFound = errors.New("holding not found")

	// ErrAccountNotFound is returned for an unknown account identifier.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidAmount is returned for a non-positive amount or quantity,
	// or a self-transfer. Rejected before any state access.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNotReversible is returned when reversing a record that is not a TRANSFER.
	ErrNotReversible = errors.New("transaction is not reversible")

	// ErrTransactionNotFound is returned when a reversal references an
	// unknown transaction id.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrInvalidPIN is returned when the secondary PIN credential does not
	// match.
	ErrInvalidPIN = errors.New("invalid PIN")
)
