package portfolio

import (
	"context"
	"iter"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmaitland/tally/internal/models"
)

const dayFormat = "2006-01-02"

// replayEvent is one record in the merged event stream, either a cash
// movement or a trade.
type replayEvent struct {
	timestamp time.Time
	txn       *models.Transaction
	trade     *models.Trade
}

// History replays the account's full record history into a daily net-worth
// series over the look-back window. The replay is deterministic: the same
// records always produce the same series.
func (s *Service) History(ctx context.Context, identifier string, rng models.HistoryRange) ([]models.ValuationPoint, error) {
	number, err := models.NormalizeAccountNumber(identifier)
	if err != nil {
		return nil, err
	}
	store := s.storage.LedgerStore()

	txns, err := store.TransactionsByAccount(ctx, number)
	if err != nil {
		return nil, err
	}
	trades, err := store.TradesByAccount(ctx, number)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var points []models.ValuationPoint
	for p := range valuationSeries(number, txns, trades, rng.Start(now), now) {
		points = append(points, p)
	}
	return points, nil
}

// valuationSeries lazily yields one net-worth point per calendar day with
// activity inside the window, plus a trailing point for the present moment.
// The series can be ranged over more than once; each pass replays from
// scratch.
//
// Replay starts from zero cash and empty holdings at the beginning of the
// account's history. Records before the window start are applied silently to
// establish the opening state. Holdings are marked to the last traded price
// seen during replay, not to live quotes, so past points never shift as the
// market moves.
func valuationSeries(number string, txns []*models.Transaction, trades []*models.Trade, start, now time.Time) iter.Seq[models.ValuationPoint] {
	events := mergeEvents(txns, trades)

	return func(yield func(models.ValuationPoint) bool) {
		cash := decimal.Zero
		quantities := make(map[string]int64)
		lastPrice := make(map[string]decimal.Decimal)

		value := func() decimal.Decimal {
			total := cash
			for symbol, qty := range quantities {
				total = total.Add(lastPrice[symbol].Mul(decimal.NewFromInt(qty)))
			}
			return total
		}

		// The most recent point is held back until the next day emits, so
		// the trailing point below can replace it when it falls on today.
		var pending *models.ValuationPoint

		for _, ev := range events {
			switch {
			case ev.txn != nil:
				if ev.txn.ReceiverAccount == number {
					cash = cash.Add(ev.txn.Amount)
				}
				if ev.txn.SenderAccount == number {
					cash = cash.Sub(ev.txn.Amount)
				}
			case ev.trade != nil:
				t := ev.trade
				if t.Side == models.Buy {
					cash = cash.Sub(t.Total)
					quantities[t.Symbol] += t.Quantity
				} else {
					cash = cash.Add(t.Total)
					quantities[t.Symbol] -= t.Quantity
				}
				lastPrice[t.Symbol] = t.Price
			}

			if ev.timestamp.Before(start) {
				continue
			}
			date := ev.timestamp.Format(dayFormat)
			if pending != nil {
				if pending.Date == date {
					continue
				}
				if !yield(*pending) {
					return
				}
			}
			pending = &models.ValuationPoint{Date: date, Value: value()}
		}

		// The series always ends at the present moment: a trailing point
		// carrying the final replayed value, replacing today's held point
		// if one exists.
		final := models.ValuationPoint{Date: now.Format(dayFormat), Value: value()}
		if pending != nil && pending.Date != final.Date {
			if !yield(*pending) {
				return
			}
		}
		yield(final)
	}
}

// mergeEvents interleaves cash movements and trades into a single stream
// ordered by timestamp. The sort is stable over [transactions..., trades...],
// so at equal timestamps cash movements replay before trades, and records
// within each kind keep their ledger insertion order.
func mergeEvents(txns []*models.Transaction, trades []*models.Trade) []replayEvent {
	events := make([]replayEvent, 0, len(txns)+len(trades))
	for _, t := range txns {
		events = append(events, replayEvent{timestamp: t.Timestamp, txn: t})
	}
	for _, t := range trades {
		events = append(events, replayEvent{timestamp: t.Timestamp, trade: t})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].timestamp.Before(events[j].timestamp)
	})
	return events
}
