package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Singh-Sg/loan-app/pkg/events"
	pkgkafka "github.com/Singh-Sg/loan-app/pkg/kafka"
)

var _ events.EntryPublisher = (*OutboxPublisher)(nil)

// MessagePublisher is the slice of pkg/kafka.Producer the publisher needs.
type MessagePublisher interface {
	Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error
}

// OutboxPublisher ships outbox entries to one topic, keyed by aggregate so
// events of a loan stay ordered within a partition.
type OutboxPublisher struct {
	producer MessagePublisher
	topic    string
	logger   *slog.Logger
}

// NewOutboxPublisher creates a publisher targeting the given producer and topic.
func NewOutboxPublisher(producer MessagePublisher, topic string, logger *slog.Logger) *OutboxPublisher {
	return &OutboxPublisher{producer: producer, topic: topic, logger: logger}
}

func (p *OutboxPublisher) PublishEntries(ctx context.Context, entries ...events.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}

	messages := make([]pkgkafka.Message, 0, len(entries))
	for _, e := range entries {
		p.logger.DebugContext(ctx, "publishing domain event",
			"event_type", e.EventType,
			"aggregate_id", e.AggregateID,
			"topic", p.topic,
			"payload_size", len(e.Payload),
		)
		messages = append(messages, pkgkafka.Message{
			Key:   []byte(e.AggregateID),
			Value: e.Payload,
			Headers: map[string]string{
				"event_type":     e.EventType,
				"event_id":       e.ID,
				"aggregate_type": e.AggregateType,
			},
		})
	}

	if err := p.producer.Publish(ctx, p.topic, messages...); err != nil {
		return fmt.Errorf("publish %d events to topic %s: %w", len(messages), p.topic, err)
	}
	return nil
}
