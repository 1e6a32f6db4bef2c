// Package marketsim implements interfaces.PriceSource with a simulated
// market: each quote applies a small random drift to the symbol's last
// price. Prices move multiplicatively and therefore stay positive.
package marketsim

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmaitland/tally/internal/common"
	"github.com/dmaitland/tally/internal/interfaces"
	"github.com/dmaitland/tally/internal/models"
)

// Client is a stateful simulated price source. Safe for concurrent use.
type Client struct {
	mu           sync.Mutex
	prices       map[string]decimal.Decimal
	defaultPrice decimal.Decimal
	driftPct     float64
	logger       *common.Logger
}

// NewClient creates a simulated price source from config. Symbols listed in
// SeedPrices start there; anything else starts at DefaultPrice.
func NewClient(logger *common.Logger, cfg common.MarketConfig) *Client {
	prices := make(map[string]decimal.Decimal, len(cfg.SeedPrices))
	for symbol, price := range cfg.SeedPrices {
		prices[strings.ToUpper(symbol)] = decimal.NewFromFloat(price)
	}
	defaultPrice := decimal.NewFromFloat(cfg.DefaultPrice)
	if defaultPrice.Sign() <= 0 {
		defaultPrice = decimal.NewFromInt(100)
	}
	drift := cfg.DriftPct
	if drift <= 0 {
		drift = 1.0
	}
	return &Client{
		prices:       prices,
		defaultPrice: defaultPrice,
		driftPct:     drift,
		logger:       logger,
	}
}

// CurrentPrice returns a quote for the symbol, applying one step of price
// drift. Unknown symbols are synthesized at the default price before
// drifting, never rejected.
func (c *Client) CurrentPrice(_ context.Context, symbol string) (*models.Quote, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))

	c.mu.Lock()
	defer c.mu.Unlock()

	oldPrice, ok := c.prices[sym]
	if !ok {
		oldPrice = c.defaultPrice
	}

	// Drift factor in [1-driftPct%, 1+driftPct%].
	span := c.driftPct / 100
	factor := decimal.NewFromFloat(1 - span + rand.Float64()*2*span)
	newPrice := oldPrice.Mul(factor).Round(4)
	if newPrice.Sign() <= 0 {
		// Rounding floor for very small prices; a quote is never non-positive.
		newPrice = oldPrice
	}
	c.prices[sym] = newPrice

	change := newPrice.Sub(oldPrice)
	changePct := decimal.Zero
	if oldPrice.Sign() != 0 {
		changePct = change.DivRound(oldPrice, 4).Mul(decimal.NewFromInt(100))
	}

	return &models.Quote{
		Symbol:    sym,
		Price:     newPrice,
		Change:    change,
		ChangePct: changePct,
		AsOf:      time.Now(),
	}, nil
}

var _ interfaces.PriceSource = (*Client)(nil)
