package ledgerdb

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/dmaitland/tally/internal/interfaces"
	"github.com/dmaitland/tally/internal/models"
)

// Tx is one atomic unit against the ledger database.
type Tx struct {
	store *Store
	btx   *badger.Txn
}

func (t *Tx) db() *badgerhold.Store { return t.store.db }

func accountKey(number string) string {
	return "account" + keySep + number
}

// holdingKey builds the lot key: account + \x00 + symbol + \x00 + class.
func holdingKey(number, symbol string, class models.InvestmentClass) string {
	return number + keySep + symbol + keySep + string(class)
}

func (t *Tx) Account(number string) (*models.Account, error) {
	var acct models.Account
	if err := t.db().TxGet(t.btx, accountKey(number), &acct); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrAccountNotFound, number)
		}
		return nil, fmt.Errorf("failed to load account %s: %w", number, err)
	}
	return &acct, nil
}

func (t *Tx) SaveAccount(acct *models.Account) error {
	if err := t.db().TxUpsert(t.btx, accountKey(acct.AccountNumber), acct); err != nil {
		return fmt.Errorf("failed to save account %s: %w", acct.AccountNumber, err)
	}
	return nil
}

func (t *Tx) Holding(number, symbol string, class models.InvestmentClass) (*models.Holding, error) {
	var h models.Holding
	if err := t.db().TxGet(t.btx, holdingKey(number, symbol, class), &h); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s %s (%s)", models.ErrHoldingNotFound, number, symbol, class)
		}
		return nil, fmt.Errorf("failed to load holding %s/%s: %w", number, symbol, err)
	}
	return &h, nil
}

func (t *Tx) SaveHolding(h *models.Holding) error {
	if err := t.db().TxUpsert(t.btx, holdingKey(h.AccountNumber, h.Symbol, h.Class), h); err != nil {
		return fmt.Errorf("failed to save holding %s/%s: %w", h.AccountNumber, h.Symbol, err)
	}
	return nil
}

func (t *Tx) DeleteHolding(number, symbol string, class models.InvestmentClass) error {
	if err := t.db().TxDelete(t.btx, holdingKey(number, symbol, class), models.Holding{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete holding %s/%s: %w", number, symbol, err)
	}
	return nil
}

func (t *Tx) Transaction(id string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := t.db().TxGet(t.btx, id, &txn); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrTransactionNotFound, id)
		}
		return nil, fmt.Errorf("failed to load transaction %s: %w", id, err)
	}
	return &txn, nil
}

// AppendTransaction inserts an immutable record. Insert (not upsert) keeps
// the history append-only: an id collision is an error, never an overwrite.
func (t *Tx) AppendTransaction(txn *models.Transaction) error {
	if txn.Seq == 0 {
		n, err := t.store.nextSeq()
		if err != nil {
			return err
		}
		txn.Seq = n
	}
	if err := t.db().TxInsert(t.btx, txn.ID, txn); err != nil {
		return fmt.Errorf("failed to append transaction %s: %w", txn.ID, err)
	}
	return nil
}

func (t *Tx) AppendTrade(trade *models.Trade) error {
	if trade.Seq == 0 {
		n, err := t.store.nextSeq()
		if err != nil {
			return err
		}
		trade.Seq = n
	}
	if err := t.db().TxInsert(t.btx, trade.ID, trade); err != nil {
		return fmt.Errorf("failed to append trade %s: %w", trade.ID, err)
	}
	return nil
}

func (t *Tx) AppendOutbox(ev *models.OutboxEvent) error {
	if err := t.db().TxInsert(t.btx, ev.ID, ev); err != nil {
		return fmt.Errorf("failed to append outbox event %s: %w", ev.ID, err)
	}
	return nil
}

var _ interfaces.LedgerTx = (*Tx)(nil)
