// Package kafka publishes notification events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/dmaitland/tally/internal/common"
	"github.com/dmaitland/tally/internal/interfaces"
	"github.com/dmaitland/tally/internal/models"
)

// message is the wire shape of a published notification.
type message struct {
	ID            string          `json:"id"`
	AccountNumber string          `json:"account_number"`
	Kind          string          `json:"kind"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

// Publisher implements interfaces.EventPublisher over a Kafka writer.
type Publisher struct {
	writer *kafkago.Writer
	logger *common.Logger
}

// NewPublisher creates a publisher for the given brokers and topic.
func NewPublisher(logger *common.Logger, brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafkago.Writer{
			Addr:     kafkago.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafkago.LeastBytes{},
		},
		logger: logger,
	}
}

// Publish writes one event, keyed by account number so per-account ordering
// is preserved within a partition.
func (p *Publisher) Publish(ctx context.Context, ev *models.OutboxEvent) error {
	data, err := json.Marshal(message{
		ID:            ev.ID,
		AccountNumber: ev.AccountNumber,
		Kind:          ev.Kind,
		Payload:       ev.Payload,
		CreatedAt:     ev.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", ev.ID, err)
	}

	if err := p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(ev.AccountNumber),
		Value: data,
	}); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", ev.ID, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ interfaces.EventPublisher = (*Publisher)(nil)
