// Package portfolio is the read side of the ledger: current positions
// enriched with quotes, and the daily net-worth series reconstructed by
// replaying the account's transaction and trade history.
package portfolio

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dmaitland/tally/internal/common"
	"github.com/dmaitland/tally/internal/interfaces"
	"github.com/dmaitland/tally/internal/models"
)

// Service implements interfaces.PortfolioService.
type Service struct {
	storage interfaces.StorageManager
	prices  interfaces.PriceSource
	logger  *common.Logger
}

// NewService creates a new portfolio service.
func NewService(storage interfaces.StorageManager, prices interfaces.PriceSource, logger *common.Logger) *Service {
	return &Service{storage: storage, prices: prices, logger: logger}
}

// Positions returns the account's open lots marked to current quotes.
func (s *Service) Positions(ctx context.Context, identifier string) ([]*models.PortfolioPosition, error) {
	number, err := models.NormalizeAccountNumber(identifier)
	if err != nil {
		return nil, err
	}
	holdings, err := s.storage.LedgerStore().HoldingsByAccount(ctx, number)
	if err != nil {
		return nil, err
	}

	positions := make([]*models.PortfolioPosition, 0, len(holdings))
	for _, h := range holdings {
		quantity := decimal.NewFromInt(h.Quantity)
		pos := &models.PortfolioPosition{
			Holding:     *h,
			MarketPrice: h.AverageCost,
		}
		quote, err := s.prices.CurrentPrice(ctx, h.Symbol)
		if err != nil {
			// A missing quote degrades to cost basis rather than hiding
			// the position.
			s.logger.Warn().Err(err).Str("symbol", h.Symbol).Msg("Quote unavailable, valuing at cost")
		} else {
			pos.MarketPrice = quote.Price
		}
		pos.MarketValue = pos.MarketPrice.Mul(quantity).Round(4)
		pos.UnrealizedGain = pos.MarketValue.Sub(h.AverageCost.Mul(quantity)).Round(4)
		positions = append(positions, pos)
	}
	return positions, nil
}

var _ interfaces.PortfolioService = (*Service)(nil)
