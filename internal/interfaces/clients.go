package interfaces

import (
	"context"

	"github.com/dmaitland/tally/internal/models"
)

// PriceSource supplies the current price for a symbol. Implementations may
// be stateful (the simulated source drifts on every call) but must never
// return a non-positive price; unknown symbols are synthesized by the
// source, not rejected.
type PriceSource interface {
	CurrentPrice(ctx context.Context, symbol string) (*models.Quote, error)
}

// EventPublisher delivers notification events to an external sink. Publish
// failures are the caller's to log and retry; they must never surface as a
// failure of the financial operation that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, ev *models.OutboxEvent) error
	Close() error
}
