// Package banking executes cash movements: deposits, withdrawals, peer
// transfers, and compensating reversals. Each operation runs as one atomic
// unit against the ledger store; notifications are queued to the outbox
// inside the same transaction and dispatched after commit.
package banking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmaitland/tally/internal/common"
	"github.com/dmaitland/tally/internal/interfaces"
	"github.com/dmaitland/tally/internal/ledger"
	"github.com/dmaitland/tally/internal/models"
)

// Service implements interfaces.BankingService.
type Service struct {
	storage interfaces.StorageManager
	ledger  *ledger.Ledger
	logger  *common.Logger
}

// NewService creates a new banking service. The ledger instance must be the
// one shared with the trading service so account locks serialize across both.
func NewService(storage interfaces.StorageManager, ldgr *ledger.Ledger, logger *common.Logger) *Service {
	return &Service{storage: storage, ledger: ldgr, logger: logger}
}

// Deposit credits the account from the SYSTEM counterparty.
func (s *Service) Deposit(ctx context.Context, identifier string, amount decimal.Decimal) (*models.Transaction, error) {
	number, err := models.NormalizeAccountNumber(identifier)
	if err != nil {
		return nil, err
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: deposit amount must be positive", models.ErrInvalidAmount)
	}
	amount = amount.Round(4)

	txn := &models.Transaction{
		ID:              uuid.New().String(),
		SenderAccount:   models.SystemAccount,
		ReceiverAccount: number,
		Amount:          amount,
		Type:            models.TxDeposit,
		Description:     "Self deposit",
		Timestamp:       time.Now(),
	}

	release := s.ledger.LockAccounts(number)
	defer release()

	err = s.storage.LedgerStore().Update(ctx, func(tx interfaces.LedgerTx) error {
		if _, err := s.ledger.Credit(tx, number, amount); err != nil {
			return err
		}
		if err := tx.AppendTransaction(txn); err != nil {
			return err
		}
		return tx.AppendOutbox(event(number, models.EventDeposit, txn))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("account", number).Str("amount", amount.String()).Msg("Deposit applied")
	return txn, nil
}

// Withdraw debits the account toward the SYSTEM counterparty.
func (s *Service) Withdraw(ctx context.Context, identifier string, amount decimal.Decimal) (*models.Transaction, error) {
	number, err := models.NormalizeAccountNumber(identifier)
	if err != nil {
		return nil, err
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: withdrawal amount must be positive", models.ErrInvalidAmount)
	}
	amount = amount.Round(4)

	txn := &models.Transaction{
		ID:              uuid.New().String(),
		SenderAccount:   number,
		ReceiverAccount: models.SystemAccount,
		Amount:          amount,
		Type:            models.TxWithdraw,
		Description:     "ATM withdrawal",
		Timestamp:       time.Now(),
	}

	release := s.ledger.LockAccounts(number)
	defer release()

	err = s.storage.LedgerStore().Update(ctx, func(tx interfaces.LedgerTx) error {
		if _, err := s.ledger.Debit(tx, number, amount); err != nil {
			return err
		}
		if err := tx.AppendTransaction(txn); err != nil {
			return err
		}
		return tx.AppendOutbox(event(number, models.EventWithdrawal, txn))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("account", number).Str("amount", amount.String()).Msg("Withdrawal applied")
	return txn, nil
}

// Transfer moves amount between two distinct accounts as one atomic unit.
// What is debited from the sender equals what is credited to the receiver.
func (s *Service) Transfer(ctx context.Context, fromIdentifier, toIdentifier string, amount decimal.Decimal) (*models.Transaction, error) {
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: transfer amount must be positive", models.ErrInvalidAmount)
	}
	amount = amount.Round(4)

	from, err := models.NormalizeAccountNumber(fromIdentifier)
	if err != nil {
		return nil, err
	}
	to, err := models.NormalizeAccountNumber(toIdentifier)
	if err != nil {
		return nil, err
	}
	if from == to {
		return nil, fmt.Errorf("%w: cannot transfer to the same account", models.ErrInvalidAmount)
	}

	txn := &models.Transaction{
		ID:              uuid.New().String(),
		SenderAccount:   from,
		ReceiverAccount: to,
		Amount:          amount,
		Type:            models.TxTransfer,
		Description:     fmt.Sprintf("Transfer to %s", to),
		Timestamp:       time.Now(),
	}

	// Both locks taken up front, in canonical order inside LockAccounts.
	release := s.ledger.LockAccounts(from, to)
	defer release()

	err = s.storage.LedgerStore().Update(ctx, func(tx interfaces.LedgerTx) error {
		// Resolve the receiver before debiting so a bad recipient leaves
		// the sender untouched.
		if _, err := tx.Account(to); err != nil {
			return err
		}
		if _, err := s.ledger.Debit(tx, from, amount); err != nil {
			return err
		}
		if _, err := s.ledger.Credit(tx, to, amount); err != nil {
			return err
		}
		if err := tx.AppendTransaction(txn); err != nil {
			return err
		}
		if err := tx.AppendOutbox(event(from, models.EventTransferSent, txn)); err != nil {
			return err
		}
		return tx.AppendOutbox(event(to, models.EventTransferReceived, txn))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("from", from).
		Str("to", to).
		Str("amount", amount.String()).
		Msg("Transfer applied")
	return txn, nil
}

// Reverse appends a compensating REVERSAL for a TRANSFER record: the
// original receiver is debited and the original sender credited by the
// original amount. The original record is never mutated.
func (s *Service) Reverse(ctx context.Context, transactionID string) (*models.Transaction, error) {
	store := s.storage.LedgerStore()

	// First look: find the parties so their locks can be taken before the
	// balance checks run. The type and amount are re-read inside the
	// transaction below.
	var original *models.Transaction
	err := store.View(ctx, func(tx interfaces.LedgerTx) error {
		txn, err := tx.Transaction(transactionID)
		if err != nil {
			return err
		}
		original = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	if original.Type != models.TxTransfer {
		return nil, fmt.Errorf("%w: %s records cannot be reversed", models.ErrNotReversible, original.Type)
	}

	reversal := &models.Transaction{
		ID:              uuid.New().String(),
		SenderAccount:   original.ReceiverAccount,
		ReceiverAccount: original.SenderAccount,
		Amount:          original.Amount,
		Type:            models.TxReversal,
		Description:     fmt.Sprintf("Reversal of transaction %s", original.ID),
		Timestamp:       time.Now(),
	}

	release := s.ledger.LockAccounts(original.SenderAccount, original.ReceiverAccount)
	defer release()

	err = store.Update(ctx, func(tx interfaces.LedgerTx) error {
		txn, err := tx.Transaction(transactionID)
		if err != nil {
			return err
		}
		if txn.Type != models.TxTransfer {
			return fmt.Errorf("%w: %s records cannot be reversed", models.ErrNotReversible, txn.Type)
		}
		// The reversal applies only if the original receiver still has the
		// funds. Debit performs that check atomically.
		if _, err := s.ledger.Debit(tx, txn.ReceiverAccount, txn.Amount); err != nil {
			return err
		}
		if _, err := s.ledger.Credit(tx, txn.SenderAccount, txn.Amount); err != nil {
			return err
		}
		if err := tx.AppendTransaction(reversal); err != nil {
			return err
		}
		return tx.AppendOutbox(event(txn.SenderAccount, models.EventReversal, reversal))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("original", original.ID).
		Str("reversal", reversal.ID).
		Msg("Transfer reversed")
	return reversal, nil
}

// Transactions returns the account's cash movement history, newest first.
func (s *Service) Transactions(ctx context.Context, identifier string) ([]*models.Transaction, error) {
	number, err := models.NormalizeAccountNumber(identifier)
	if err != nil {
		return nil, err
	}
	txns, err := s.storage.LedgerStore().TransactionsByAccount(ctx, number)
	if err != nil {
		return nil, err
	}
	// Store order is oldest first; callers want the most recent activity.
	for i, j := 0, len(txns)-1; i < j; i, j = i+1, j-1 {
		txns[i], txns[j] = txns[j], txns[i]
	}
	return txns, nil
}

// Balance returns the account's current cash balance.
func (s *Service) Balance(ctx context.Context, identifier string) (decimal.Decimal, error) {
	number, err := models.NormalizeAccountNumber(identifier)
	if err != nil {
		return decimal.Zero, err
	}
	acct, err := s.storage.LedgerStore().Account(ctx, number)
	if err != nil {
		return decimal.Zero, err
	}
	return acct.Balance, nil
}

// event builds an outbox entry describing a cash movement.
func event(account, kind string, txn *models.Transaction) *models.OutboxEvent {
	payload, _ := json.Marshal(map[string]string{
		"transaction_id": txn.ID,
		"type":           string(txn.Type),
		"amount":         txn.Amount.String(),
		"sender":         txn.SenderAccount,
		"receiver":       txn.ReceiverAccount,
	})
	return &models.OutboxEvent{
		ID:            uuid.New().String(),
		AccountNumber: account,
		Kind:          kind,
		Payload:       payload,
		CreatedAt:     time.Now(),
	}
}

var _ interfaces.BankingService = (*Service)(nil)
