// Package trading executes buy and sell orders. An order couples a cash leg
// and a holdings leg into one atomic unit: a buy debits the cash balance and
// increases the lot; a sell decreases the lot and credits the proceeds.
// Either both legs commit or neither does.
package trading

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

// Service implements interfaces.TradingService.
type Service struct {
	storage interfaces.StorageManager
	prices  interfaces.PriceSource
	ledger  *ledger.Ledger
	logger  *common.Logger
}

// NewService creates a new trading service sharing the ledger's lock table
// with the banking service.
func NewService(storage interfaces.StorageManager, prices interfaces.PriceSource, ldgr *ledger.Ledger, logger *common.Logger) *Service {
	return &Service{storage: storage, prices: prices, ledger: ldgr, logger: logger}
}

// Buy executes a market buy of quantity shares at the current quote.
func (s *Service) Buy(ctx context.Context, identifier, symbol string, quantity int64, class models.InvestmentClass) (*models.TradeConfirmation, error) {
	number, symbol, err := s.validateOrder(identifier, symbol, quantity)
	if err != nil {
		return nil, err
	}

	// The quote is taken outside the transaction; the price captured here
	// is the price the whole order settles at.
	quote, err := s.prices.CurrentPrice(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to quote %s: %w", symbol, err)
	}
	total := quote.Price.Mul(decimal.NewFromInt(quantity)).Round(4)

	trade := &models.Trade{
		ID:            uuid.New().String(),
		AccountNumber: number,
		Symbol:        symbol,
		Side:          models.Buy,
		Quantity:      quantity,
		Price:         quote.Price,
		Total:         total,
		Class:         class,
		Timestamp:     time.Now(),
	}

	var newBalance decimal.Decimal
	release := s.ledger.LockAccounts(number)
	defer release()

	err = s.storage.LedgerStore().Update(ctx, func(tx interfaces.LedgerTx) error {
		acct, err := s.ledger.Debit(tx, number, total)
		if err != nil {
			return err
		}
		newBalance = acct.Balance
		if _, err := s.ledger.IncreaseHolding(tx, number, symbol, class, quantity, quote.Price); err != nil {
			return err
		}
		if err := tx.AppendTrade(trade); err != nil {
			return err
		}
		return tx.AppendOutbox(tradeEvent(trade))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("account", number).
		Str("symbol", symbol).
		Int64("quantity", quantity).
		Str("total", total.String()).
		Msg("Buy executed")

	return confirmation(trade, newBalance), nil
}

// Sell executes a market sell of quantity shares at the current quote.
func (s *Service) Sell(ctx context.Context, identifier, symbol string, quantity int64, class models.InvestmentClass) (*models.TradeConfirmation, error) {
	number, symbol, err := s.validateOrder(identifier, symbol, quantity)
	if err != nil {
		return nil, err
	}

	quote, err := s.prices.CurrentPrice(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to quote %s: %w", symbol, err)
	}
	total := quote.Price.Mul(decimal.NewFromInt(quantity)).Round(4)

	trade := &models.Trade{
		ID:            uuid.New().String(),
		AccountNumber: number,
		Symbol:        symbol,
		Side:          models.Sell,
		Quantity:      quantity,
		Price:         quote.Price,
		Total:         total,
		Class:         class,
		Timestamp:     time.Now(),
	}

	var newBalance decimal.Decimal
	release := s.ledger.LockAccounts(number)
	defer release()

	err = s.storage.LedgerStore().Update(ctx, func(tx interfaces.LedgerTx) error {
		// The holdings leg runs first so an oversell rejects before any
		// cash moves.
		if _, err := s.ledger.DecreaseHolding(tx, number, symbol, class, quantity); err != nil {
			return err
		}
		acct, err := s.ledger.Credit(tx, number, total)
		if err != nil {
			return err
		}
		newBalance = acct.Balance
		if err := tx.AppendTrade(trade); err != nil {
			return err
		}
		return tx.AppendOutbox(tradeEvent(trade))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("account", number).
		Str("symbol", symbol).
		Int64("quantity", quantity).
		Str("total", total.String()).
		Msg("Sell executed")

	return confirmation(trade, newBalance), nil
}

// Trades returns the account's trade history, newest first.
func (s *Service) Trades(ctx context.Context, identifier string) ([]*models.Trade, error) {
	number, err := models.NormalizeAccountNumber(identifier)
	if err != nil {
		return nil, err
	}
	trades, err := s.storage.LedgerStore().TradesByAccount(ctx, number)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(trades)-1; i < j; i, j = i+1, j-1 {
		trades[i], trades[j] = trades[j], trades[i]
	}
	return trades, nil
}

func (s *Service) validateOrder(identifier, symbol string, quantity int64) (string, string, error) {
	number, err := models.NormalizeAccountNumber(identifier)
	if err != nil {
		return "", "", err
	}
	symbol = models.NormalizeSymbol(symbol)
	if symbol == "" {
		return "", "", fmt.Errorf("%w: symbol is required", models.ErrInvalidAmount)
	}
	if quantity <= 0 {
		return "", "", fmt.Errorf("%w: quantity must be positive", models.ErrInvalidAmount)
	}
	return number, symbol, nil
}

func confirmation(trade *models.Trade, newBalance decimal.Decimal) *models.TradeConfirmation {
	return &models.TradeConfirmation{
		Side:       trade.Side,
		Symbol:     trade.Symbol,
		Quantity:   trade.Quantity,
		Price:      trade.Price,
		Total:      trade.Total,
		NewBalance: newBalance,
		Class:      trade.Class,
		ExecutedAt: trade.Timestamp,
	}
}

func tradeEvent(trade *models.Trade) *models.OutboxEvent {
	payload, _ := json.Marshal(map[string]string{
		"trade_id": trade.ID,
		"side":     string(trade.Side),
		"symbol":   trade.Symbol,
		"quantity": fmt.Sprintf("%d", trade.Quantity),
		"price":    trade.Price.String(),
		"total":    trade.Total.String(),
	})
	return &models.OutboxEvent{
		ID:            uuid.New().String(),
		AccountNumber: trade.AccountNumber,
		Kind:          models.EventTradeExecuted,
		Payload:       payload,
		CreatedAt:     time.Now(),
	}
}

var _ interfaces.TradingService = (*Service)(nil)
