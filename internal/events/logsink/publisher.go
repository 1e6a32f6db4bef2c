// Package logsink is the event publisher used when no brokers are
// configured: events are written to the log and dropped.
package logsink

import (
	"context"

	"github.com/dmaitland/tally/internal/common"
	"github.com/dmaitland/tally/internal/interfaces"
	"github.com/dmaitland/tally/internal/models"
)

// Publisher logs events instead of delivering them.
type Publisher struct {
	logger *common.Logger
}

func NewPublisher(logger *common.Logger) *Publisher {
	return &Publisher{logger: logger}
}

func (p *Publisher) Publish(_ context.Context, ev *models.OutboxEvent) error {
	p.logger.Info().
		Str("id", ev.ID).
		Str("account", ev.AccountNumber).
		Str("kind", ev.Kind).
		Msg("Notification event")
	return nil
}

func (p *Publisher) Close() error { return nil }

var _ interfaces.EventPublisher = (*Publisher)(nil)
