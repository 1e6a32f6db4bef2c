// Package models defines data structures for Tally
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SystemAccount is the sentinel counterparty for deposits and withdrawals
// that do not involve a second real account. It is never a real account.
const SystemAccount = "SYSTEM"

// AccountNumberWidth is the canonical fixed width of an account number.
const AccountNumberWidth = 10

// AccountRole classifies an account owner.
type AccountRole string

const (
	RoleCustomer AccountRole = "CUSTOMER"
	RoleAdmin    AccountRole = "ADMIN"
)

// Account is a retail banking account with a cash balance. Accounts are
// created at opening and never physically deleted; the balance is mutated
// only by ledger operations.
type Account struct {
	AccountNumber string          `json:"account_number"`
	Name          string          `json:"name"`
	Email         string          `json:"email,omitempty"`
	Role          AccountRole     `json:"role"`
	PINHash       []byte          `json:"-"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NormalizeAccountNumber converts an account identifier to its canonical
// fixed-width zero-padded form (e.g. "42" -> "0000000042"). The SYSTEM
// sentinel passes through unchanged.
func NormalizeAccountNumber(identifier string) (string, error) {
	id := strings.TrimSpace(identifier)
	if id == SystemAccount {
		return id, nil
	}
	if id == "" {
		return "", fmt.Errorf("%w: empty account number", ErrAccountNotFound)
	}
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: malformed account number %q", ErrAccountNotFound, identifier)
	}
	return fmt.Sprintf("%0*d", AccountNumberWidth, n), nil
}
