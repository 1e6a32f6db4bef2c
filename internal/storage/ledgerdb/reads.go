package ledgerdb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dmaitland/tally/internal/interfaces"
	"github.com/dmaitland/tally/internal/models"
)

// Account loads a single account outside a transaction.
func (s *Store) Account(ctx context.Context, number string) (*models.Account, error) {
	var acct *models.Account
	err := s.View(ctx, func(tx interfaces.LedgerTx) error {
		a, err := tx.Account(number)
		if err != nil {
			return err
		}
		acct = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// TransactionsByAccount returns every record where the account is sender or
// receiver, sorted by timestamp ascending with insertion order breaking ties.
func (s *Store) TransactionsByAccount(_ context.Context, number string) ([]*models.Transaction, error) {
	var all []models.Transaction
	if err := s.db.Find(&all, nil); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	var result []*models.Transaction
	for i := range all {
		if all[i].Involves(number) {
			rec := all[i]
			result = append(result, &rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Seq < result[j].Seq
		}
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

// TradesByAccount returns the account's trades, sorted by timestamp
// ascending with insertion order breaking ties.
func (s *Store) TradesByAccount(_ context.Context, number string) ([]*models.Trade, error) {
	var all []models.Trade
	if err := s.db.Find(&all, nil); err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	var result []*models.Trade
	for i := range all {
		if all[i].AccountNumber == number {
			rec := all[i]
			result = append(result, &rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Seq < result[j].Seq
		}
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

// HoldingsByAccount returns the account's open lots, sorted by symbol.
func (s *Store) HoldingsByAccount(_ context.Context, number string) ([]*models.Holding, error) {
	var all []models.Holding
	if err := s.db.Find(&all, nil); err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	var result []*models.Holding
	for i := range all {
		if all[i].AccountNumber == number {
			rec := all[i]
			result = append(result, &rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Symbol == result[j].Symbol {
			return result[i].Class < result[j].Class
		}
		return result[i].Symbol < result[j].Symbol
	})
	return result, nil
}

// PendingOutbox returns up to limit undispatched events, oldest first.
func (s *Store) PendingOutbox(_ context.Context, limit int) ([]*models.OutboxEvent, error) {
	var all []models.OutboxEvent
	if err := s.db.Find(&all, nil); err != nil {
		return nil, fmt.Errorf("failed to list outbox events: %w", err)
	}
	var result []*models.OutboxEvent
	for i := range all {
		if !all[i].Dispatched {
			rec := all[i]
			result = append(result, &rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// MarkDispatched records that an outbox event was published.
func (s *Store) MarkDispatched(ctx context.Context, id string) error {
	return s.Update(ctx, func(tx interfaces.LedgerTx) error {
		ltx := tx.(*Tx)
		var ev models.OutboxEvent
		if err := ltx.db().TxGet(ltx.btx, id, &ev); err != nil {
			return fmt.Errorf("failed to load outbox event %s: %w", id, err)
		}
		now := time.Now()
		ev.Dispatched = true
		ev.DispatchedAt = &now
		if err := ltx.db().TxUpsert(ltx.btx, id, &ev); err != nil {
			return fmt.Errorf("failed to mark outbox event %s: %w", id, err)
		}
		return nil
	})
}
