package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kuwago/lending/pkg/events"
	pkgkafka "github.com/kuwago/lending/pkg/kafka"
)

type producer interface {
	Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error
}

// EntryPublisher implements events.EntryPublisher by writing serialized
// outbox entries to one Kafka topic, keyed by aggregate id so every event of
// an aggregate lands on the same partition.
type EntryPublisher struct {
	producer producer
	topic    string
	logger   *slog.Logger
}

// NewEntryPublisher creates a publisher targeting the given producer and topic.
func NewEntryPublisher(producer producer, topic string, logger *slog.Logger) *EntryPublisher {
	return &EntryPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

func (p *EntryPublisher) PublishEntries(ctx context.Context, entries []events.OutboxEntry) error {
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
			Key:     []byte(e.AggregateID),
			Value:   e.Payload,
			Headers: e.Headers(),
		})
	}

	if err := p.producer.Publish(ctx, p.topic, messages...); err != nil {
		return fmt.Errorf("publish events to topic %s: %w", p.topic, err)
	}
	return nil
}

var _ events.EntryPublisher = (*EntryPublisher)(nil)
