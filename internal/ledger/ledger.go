// Package ledger implements the invariant-preserving primitives over
// account balances and holdings. Executors (banking, trading) compose these
// inside one store transaction; the primitives themselves never commit.
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmaitland/tally/internal/interfaces"
	"github.com/dmaitland/tally/internal/models"
)

// Ledger owns the per-account lock table and the balance/holding mutation
// rules. A single instance is shared by every writer so that operations on
// the same account serialize.
type Ledger struct {
	locks lockTable
}

// New creates a Ledger with an empty lock table.
func New() *Ledger {
	return &Ledger{locks: newLockTable()}
}

// Credit increases an account balance. The amount must be positive; once
// the account exists a credit never fails.
func (l *Ledger) Credit(tx interfaces.LedgerTx, number string, amount decimal.Decimal) (*models.Account, error) {
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: credit amount must be positive, got %s", models.ErrInvalidAmount, amount)
	}
	acct, err := tx.Account(number)
	if err != nil {
		return nil, err
	}
	acct.Balance = acct.Balance.Add(amount)
	acct.UpdatedAt = time.Now()
	if err := tx.SaveAccount(acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// Debit decreases an account balance. Fails with ErrInsufficientFunds when
// the balance is below the amount, leaving the balance untouched.
func (l *Ledger) Debit(tx interfaces.LedgerTx, number string, amount decimal.Decimal) (*models.Account, error) {
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: debit amount must be positive, got %s", models.ErrInvalidAmount, amount)
	}
	acct, err := tx.Account(number)
	if err != nil {
		return nil, err
	}
	if acct.Balance.LessThan(amount) {
		return nil, fmt.Errorf("%w: required %s, available %s", models.ErrInsufficientFunds, amount, acct.Balance)
	}
	acct.Balance = acct.Balance.Sub(amount)
	acct.UpdatedAt = time.Now()
	if err := tx.SaveAccount(acct); err != nil {
		return nil, err
	}
	return acct, nil
}
