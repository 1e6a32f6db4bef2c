package trading

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmaitland/tally/internal/common"
	"github.com/dmaitland/tally/internal/interfaces"
	"github.com/dmaitland/tally/internal/ledger"
	"github.com/dmaitland/tally/internal/models"
	"github.com/dmaitland/tally/internal/storage"
)

// fixedPriceSource quotes a settable constant price, so totals in assertions
// are exact.
type fixedPriceSource struct {
	mu    sync.Mutex
	price decimal.Decimal
}

func (f *fixedPriceSource) CurrentPrice(_ context.Context, symbol string) (*models.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.Quote{Symbol: symbol, Price: f.price, AsOf: time.Now()}, nil
}

func (f *fixedPriceSource) set(price decimal.Decimal) {
	f.mu.Lock()
	f.price = price
	f.mu.Unlock()
}

func newTestService(t *testing.T, price int64) (*Service, *fixedPriceSource) {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.Storage.Ledger.Path = t.TempDir()
	manager, err := storage.NewManager(common.NewSilentLogger(), cfg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { manager.Close() })
	prices := &fixedPriceSource{price: decimal.NewFromInt(price)}
	return NewService(manager, prices, ledger.New(), common.NewSilentLogger()), prices
}

func seedAccount(t *testing.T, svc *Service, number string, balance int64) {
	t.Helper()
	err := svc.storage.LedgerStore().Update(context.Background(), func(tx interfaces.LedgerTx) error {
		return tx.SaveAccount(&models.Account{
			AccountNumber: number,
			Name:          "Trader " + number,
			Balance:       decimal.NewFromInt(balance),
			CreatedAt:     time.Now(),
		})
	})
	if err != nil {
		t.Fatalf("seedAccount %s: %v", number, err)
	}
}

func TestBuyDebitsCashAndOpensLot(t *testing.T) {
	svc, _ := newTestService(t, 50)
	ctx := context.Background()
	seedAccount(t, svc, "0000000001", 1000)

	conf, err := svc.Buy(ctx, "1", "aapl", 2, models.ShortTerm)
	if err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if conf.Symbol != "AAPL" {
		t.Errorf("symbol not normalized: %s", conf.Symbol)
	}
	if !conf.Total.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected total 100, got %s", conf.Total)
	}
	if !conf.NewBalance.Equal(decimal.NewFromInt(900)) {
		t.Errorf("expected new balance 900, got %s", conf.NewBalance)
	}

	holdings, err := svc.storage.LedgerStore().HoldingsByAccount(ctx, "0000000001")
	if err != nil {
		t.Fatalf("HoldingsByAccount: %v", err)
	}
	if len(holdings) != 1 {
		t.Fatalf("expected 1 holding, got %d", len(holdings))
	}
	if holdings[0].Quantity != 2 || !holdings[0].AverageCost.Equal(decimal.NewFromInt(50)) {
		t.Errorf("unexpected lot: qty %d avg %s", holdings[0].Quantity, holdings[0].AverageCost)
	}
}

func TestBuyInsufficientFundsLeavesNoTrace(t *testing.T) {
	svc, _ := newTestService(t, 700)
	ctx := context.Background()
	seedAccount(t, svc, "0000000001", 100)

	_, err := svc.Buy(ctx, "1", "TSLA", 1, models.ShortTerm)
	if !errors.Is(err, models.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	holdings, _ := svc.storage.LedgerStore().HoldingsByAccount(ctx, "0000000001")
	if len(holdings) != 0 {
		t.Errorf("failed buy must not create a lot")
	}
	trades, _ := svc.Trades(ctx, "1")
	if len(trades) != 0 {
		t.Errorf("failed buy must not record a trade")
	}
	acct, _ := svc.storage.LedgerStore().Account(ctx, "0000000001")
	if !acct.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("failed buy must not move cash, got %s", acct.Balance)
	}
}

func TestAverageCostAcrossBuys(t *testing.T) {
	svc, prices := newTestService(t, 100)
	ctx := context.Background()
	seedAccount(t, svc, "0000000001", 1000)

	if _, err := svc.Buy(ctx, "1", "MSFT", 2, models.ShortTerm); err != nil {
		t.Fatalf("first buy: %v", err)
	}
	prices.set(decimal.NewFromInt(50))
	if _, err := svc.Buy(ctx, "1", "MSFT", 3, models.ShortTerm); err != nil {
		t.Fatalf("second buy: %v", err)
	}

	holdings, _ := svc.storage.LedgerStore().HoldingsByAccount(ctx, "0000000001")
	if len(holdings) != 1 {
		t.Fatalf("expected 1 holding, got %d", len(holdings))
	}
	// (2×100 + 3×50) / 5 = 70
	if !holdings[0].AverageCost.Equal(decimal.NewFromInt(70)) {
		t.Errorf("expected average cost 70, got %s", holdings[0].AverageCost)
	}
}

func TestSellRoundTrip(t *testing.T) {
	svc, prices := newTestService(t, 50)
	ctx := context.Background()
	seedAccount(t, svc, "0000000001", 1000)

	if _, err := svc.Buy(ctx, "1", "AMZN", 4, models.LongTerm); err != nil {
		t.Fatalf("Buy: %v", err)
	}
	prices.set(decimal.NewFromInt(60))

	conf, err := svc.Sell(ctx, "1", "AMZN", 4, models.LongTerm)
	if err != nil {
		t.Fatalf("Sell: %v", err)
	}
	if !conf.Total.Equal(decimal.NewFromInt(240)) {
		t.Errorf("expected proceeds 240, got %s", conf.Total)
	}
	// 1000 − 200 + 240
	if !conf.NewBalance.Equal(decimal.NewFromInt(1040)) {
		t.Errorf("expected balance 1040, got %s", conf.NewBalance)
	}

	holdings, _ := svc.storage.LedgerStore().HoldingsByAccount(ctx, "0000000001")
	if len(holdings) != 0 {
		t.Errorf("fully sold lot should be removed")
	}
	trades, _ := svc.Trades(ctx, "1")
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].Side != models.Sell {
		t.Errorf("expected newest (sell) first, got %s", trades[0].Side)
	}
}

func TestSellRejectsOversell(t *testing.T) {
	svc, _ := newTestService(t, 50)
	ctx := context.Background()
	seedAccount(t, svc, "0000000001", 1000)

	if _, err := svc.Buy(ctx, "1", "GOOGL", 2, models.ShortTerm); err != nil {
		t.Fatalf("Buy: %v", err)
	}

	_, err := svc.Sell(ctx, "1", "GOOGL", 3, models.ShortTerm)
	if !errors.Is(err, models.ErrInsufficientShares) {
		t.Fatalf("expected ErrInsufficientShares, got %v", err)
	}
	// Class is part of the lot identity; the SHORT_TERM shares are not
	// sellable as LONG_TERM.
	_, err = svc.Sell(ctx, "1", "GOOGL", 1, models.LongTerm)
	if !errors.Is(err, models.ErrHoldingNotFound) {
		t.Fatalf("expected ErrHoldingNotFound, got %v", err)
	}

	acct, _ := svc.storage.LedgerStore().Account(ctx, "0000000001")
	if !acct.Balance.Equal(decimal.NewFromInt(900)) {
		t.Errorf("failed sells must not move cash, got %s", acct.Balance)
	}
}

func TestTradeValidation(t *testing.T) {
	svc, _ := newTestService(t, 50)
	ctx := context.Background()
	seedAccount(t, svc, "0000000001", 1000)

	if _, err := svc.Buy(ctx, "1", "", 1, models.ShortTerm); !errors.Is(err, models.ErrInvalidAmount) {
		t.Errorf("empty symbol: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.Buy(ctx, "1", "AAPL", 0, models.ShortTerm); !errors.Is(err, models.ErrInvalidAmount) {
		t.Errorf("zero quantity: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.Buy(ctx, "1", "AAPL", -2, models.ShortTerm); !errors.Is(err, models.ErrInvalidAmount) {
		t.Errorf("negative quantity: expected ErrInvalidAmount, got %v", err)
	}
}

func TestBuyQueuesNotification(t *testing.T) {
	svc, _ := newTestService(t, 50)
	ctx := context.Background()
	seedAccount(t, svc, "0000000001", 1000)

	if _, err := svc.Buy(ctx, "1", "AAPL", 1, models.ShortTerm); err != nil {
		t.Fatalf("Buy: %v", err)
	}

	pending, err := svc.storage.LedgerStore().PendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("PendingOutbox: %v", err)
	}
	if len(pending) != 1 || pending[0].Kind != models.EventTradeExecuted {
		t.Fatalf("expected one TRADE_EXECUTED event, got %v", pending)
	}
}
