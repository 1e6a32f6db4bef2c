package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmaitland/tally/internal/interfaces"
	"github.com/dmaitland/tally/internal/models"
)

// moneyScale is the fixed-point scale for monetary computations.
const moneyScale = 4

// IncreaseHolding adds quantity to the (account, symbol, class) lot. An
// existing lot's average cost becomes the quantity-weighted mean of the old
// lot and the new purchase, rounded to 4 decimal places half-up; a new lot
// starts at the unit price with its acquisition timestamp set now.
func (l *Ledger) IncreaseHolding(tx interfaces.LedgerTx, number, symbol string, class models.InvestmentClass, quantity int64, unitPrice decimal.Decimal) (*models.Holding, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %d", models.ErrInvalidAmount, quantity)
	}
	if unitPrice.Sign() <= 0 {
		return nil, fmt.Errorf("%w: unit price must be positive, got %s", models.ErrInvalidAmount, unitPrice)
	}

	h, err := tx.Holding(number, symbol, class)
	switch {
	case err == nil:
		oldQty := decimal.NewFromInt(h.Quantity)
		newQty := decimal.NewFromInt(h.Quantity + quantity)
		totalValue := h.AverageCost.Mul(oldQty).Add(unitPrice.Mul(decimal.NewFromInt(quantity)))
		h.AverageCost = totalValue.DivRound(newQty, moneyScale)
		h.Quantity += quantity
	case errors.Is(err, models.ErrHoldingNotFound):
		h = &models.Holding{
			AccountNumber: number,
			Symbol:        symbol,
			Class:         class,
			Quantity:      quantity,
			AverageCost:   unitPrice,
			AcquiredAt:    time.Now(),
		}
	default:
		return nil, err
	}

	if err := tx.SaveHolding(h); err != nil {
		return nil, err
	}
	return h, nil
}

// DecreaseHolding removes quantity from the lot. Fails with
// ErrHoldingNotFound when no lot exists and ErrInsufficientShares when the
// lot is smaller than the quantity, in both cases without mutating state.
// A lot driven exactly to zero is deleted; its average cost and acquisition
// timestamp are discarded so a later buy starts fresh.
func (l *Ledger) DecreaseHolding(tx interfaces.LedgerTx, number, symbol string, class models.InvestmentClass, quantity int64) (*models.Holding, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %d", models.ErrInvalidAmount, quantity)
	}

	h, err := tx.Holding(number, symbol, class)
	if err != nil {
		return nil, err
	}
	if h.Quantity < quantity {
		return nil, fmt.Errorf("%w: have %d, selling %d", models.ErrInsufficientShares, h.Quantity, quantity)
	}

	h.Quantity -= quantity
	if h.Quantity == 0 {
		if err := tx.DeleteHolding(number, symbol, class); err != nil {
			return nil, err
		}
		return h, nil
	}

	if err := tx.SaveHolding(h); err != nil {
		return nil, err
	}
	return h, nil
}
