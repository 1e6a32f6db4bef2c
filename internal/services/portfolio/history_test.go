package portfolio

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmaitland/tally/internal/common"
	"github.com/dmaitland/tally/internal/interfaces"
	"github.com/dmaitland/tally/internal/models"
	"github.com/dmaitland/tally/internal/storage"
)

const acct = "0000000001"

func deposit(amount int64, ts time.Time) *models.Transaction {
	return &models.Transaction{
		ID:              "d-" + ts.Format(time.RFC3339Nano),
		SenderAccount:   models.SystemAccount,
		ReceiverAccount: acct,
		Amount:          decimal.NewFromInt(amount),
		Type:            models.TxDeposit,
		Timestamp:       ts,
	}
}

func buy(symbol string, qty, price int64, ts time.Time) *models.Trade {
	return &models.Trade{
		ID: "b-" + ts.Format(time.RFC3339Nano), AccountNumber: acct,
		Symbol: symbol, Side: models.Buy, Quantity: qty,
		Price: decimal.NewFromInt(price), Total: decimal.NewFromInt(qty * price),
		Timestamp: ts,
	}
}

func sell(symbol string, qty, price int64, ts time.Time) *models.Trade {
	return &models.Trade{
		ID: "s-" + ts.Format(time.RFC3339Nano), AccountNumber: acct,
		Symbol: symbol, Side: models.Sell, Quantity: qty,
		Price: decimal.NewFromInt(price), Total: decimal.NewFromInt(qty * price),
		Timestamp: ts,
	}
}

func collect(seq func(yield func(models.ValuationPoint) bool)) []models.ValuationPoint {
	var points []models.ValuationPoint
	for p := range seq {
		points = append(points, p)
	}
	return points
}

func day(now time.Time, daysAgo int) time.Time {
	return now.AddDate(0, 0, -daysAgo)
}

func TestSeriesDepositThenBuy(t *testing.T) {
	now := time.Now()
	txns := []*models.Transaction{deposit(1000, day(now, 6))}
	trades := []*models.Trade{buy("AAPL", 2, 50, day(now, 4))}

	points := collect(valuationSeries(acct, txns, trades, day(now, 7), now))
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d: %v", len(points), points)
	}
	if points[0].Date != day(now, 6).Format(dayFormat) || !points[0].Value.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("point 0: %+v", points[0])
	}
	// After the buy: 900 cash + 2 shares at the traded price 50 = 1000.
	if points[1].Date != day(now, 4).Format(dayFormat) || !points[1].Value.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("point 1: %+v", points[1])
	}
	if points[2].Date != now.Format(dayFormat) || !points[2].Value.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("trailing point: %+v", points[2])
	}
}

func TestSeriesEmptyHistory(t *testing.T) {
	now := time.Now()
	points := collect(valuationSeries(acct, nil, nil, day(now, 7), now))
	if len(points) != 1 {
		t.Fatalf("expected single point, got %d", len(points))
	}
	if points[0].Date != now.Format(dayFormat) || !points[0].Value.IsZero() {
		t.Errorf("expected zero-value point for today, got %+v", points[0])
	}
}

func TestSeriesOnePointPerDay(t *testing.T) {
	now := time.Now()
	d := day(now, 3)
	txns := []*models.Transaction{
		deposit(100, d),
		deposit(200, d.Add(time.Hour)),
		deposit(300, d.Add(2 * time.Hour)),
	}

	points := collect(valuationSeries(acct, txns, nil, day(now, 7), now))
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d: %v", len(points), points)
	}
	// The day's point carries the value right after its first event; later
	// same-day activity only shows up in subsequent points.
	if !points[0].Value.Equal(decimal.NewFromInt(100)) {
		t.Errorf("day point: expected 100, got %s", points[0].Value)
	}
	if !points[1].Value.Equal(decimal.NewFromInt(600)) {
		t.Errorf("trailing point: expected 600, got %s", points[1].Value)
	}
}

func TestSeriesTodayPointCarriesFinalValue(t *testing.T) {
	now := time.Now()
	txns := []*models.Transaction{
		deposit(100, now.Add(-2 * time.Hour)),
		deposit(400, now.Add(-time.Hour)),
	}

	points := collect(valuationSeries(acct, txns, nil, day(now, 7), now))
	if len(points) != 1 {
		t.Fatalf("expected 1 point, got %d: %v", len(points), points)
	}
	// Today's point is replaced by the trailing value, not the value after
	// the morning's first event.
	if !points[0].Value.Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected 500, got %s", points[0].Value)
	}
}

func TestSeriesOpeningStateFromBeforeWindow(t *testing.T) {
	now := time.Now()
	txns := []*models.Transaction{deposit(1000, day(now, 90))}
	trades := []*models.Trade{
		buy("TSLA", 1, 700, day(now, 60)),
		sell("TSLA", 1, 800, day(now, 2)),
	}

	points := collect(valuationSeries(acct, txns, trades, day(now, 7), now))
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d: %v", len(points), points)
	}
	// Pre-window events replay silently: opening state is 300 cash + the
	// TSLA share. The in-window sell realizes 800.
	if points[0].Date != day(now, 2).Format(dayFormat) || !points[0].Value.Equal(decimal.NewFromInt(1100)) {
		t.Errorf("point 0: %+v", points[0])
	}
	if !points[1].Value.Equal(decimal.NewFromInt(1100)) {
		t.Errorf("trailing point: %+v", points[1])
	}
}

func TestSeriesHoldingsMarkedToLastTradedPrice(t *testing.T) {
	now := time.Now()
	txns := []*models.Transaction{deposit(1000, day(now, 5))}
	trades := []*models.Trade{
		buy("MSFT", 2, 100, day(now, 4)),
		// Buying one more at 150 re-marks the whole position.
		buy("MSFT", 1, 150, day(now, 2)),
	}

	points := collect(valuationSeries(acct, txns, trades, day(now, 7), now))
	if len(points) != 4 {
		t.Fatalf("expected 4 points, got %d: %v", len(points), points)
	}
	// day4: 800 cash + 2×100 = 1000
	if !points[1].Value.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("point 1: %+v", points[1])
	}
	// day2: 650 cash + 3×150 = 1100
	if !points[2].Value.Equal(decimal.NewFromInt(1100)) {
		t.Errorf("point 2: %+v", points[2])
	}
}

func TestSeriesTransactionsApplyBeforeTradesAtSameInstant(t *testing.T) {
	now := time.Now()
	ts := day(now, 3)
	txns := []*models.Transaction{deposit(100, ts)}
	trades := []*models.Trade{buy("AAPL", 1, 50, ts)}

	points := collect(valuationSeries(acct, txns, trades, day(now, 7), now))
	// The day's point is taken right after the deposit; if the trade
	// applied first the value would be 0.
	if !points[0].Value.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected deposit to apply first, got %s", points[0].Value)
	}
}

func TestSeriesIsRestartable(t *testing.T) {
	now := time.Now()
	txns := []*models.Transaction{deposit(1000, day(now, 6))}
	trades := []*models.Trade{buy("AAPL", 2, 50, day(now, 4))}

	seq := valuationSeries(acct, txns, trades, day(now, 7), now)
	first := collect(seq)
	second := collect(seq)
	if len(first) != len(second) {
		t.Fatalf("restarted series changed length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Date != second[i].Date || !first[i].Value.Equal(second[i].Value) {
			t.Errorf("point %d differs across passes: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestHistoryReadsFromStore(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Storage.Ledger.Path = t.TempDir()
	manager, err := storage.NewManager(common.NewSilentLogger(), cfg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { manager.Close() })
	svc := NewService(manager, nil, common.NewSilentLogger())

	now := time.Now()
	ctx := context.Background()
	err = manager.LedgerStore().Update(ctx, func(tx interfaces.LedgerTx) error {
		if err := tx.AppendTransaction(deposit(1000, day(now, 6))); err != nil {
			return err
		}
		return tx.AppendTrade(buy("AAPL", 2, 50, day(now, 4)))
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	points, err := svc.History(ctx, acct, models.Range7D)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d: %v", len(points), points)
	}
	if !points[len(points)-1].Value.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("trailing value: %s", points[len(points)-1].Value)
	}
}
