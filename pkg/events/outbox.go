package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Message header names carried next to every relayed event.
const (
	HeaderEventID       = "event_id"
	HeaderEventType     = "event_type"
	HeaderAggregateType = "aggregate_type"
	HeaderOccurredAt    = "occurred_at"
)

// OutboxEntry is a serialized domain event waiting in the outbox. It is
// written in the same transaction as the aggregate change that raised it.
type OutboxEntry struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// NewOutboxEntries serializes evts in order. The payload is the JSON of the
// concrete event, envelope fields included.
func NewOutboxEntries(evts []DomainEvent) ([]OutboxEntry, error) {
	entries := make([]OutboxEntry, len(evts))
	for i, evt := range evts {
		payload, err := json.Marshal(evt)
		if err != nil {
			return nil, fmt.Errorf("events: encode %s for %s: %w", evt.EventType(), evt.AggregateID(), err)
		}
		entries[i] = OutboxEntry{
			ID:            evt.EventID(),
			AggregateID:   evt.AggregateID(),
			AggregateType: evt.AggregateType(),
			EventType:     evt.EventType(),
			Payload:       payload,
			CreatedAt:     evt.OccurredAt(),
		}
	}
	return entries, nil
}

// Headers returns the routing metadata consumers filter on without decoding
// the payload.
func (e OutboxEntry) Headers() map[string]string {
	return map[string]string{
		HeaderEventID:       e.ID,
		HeaderEventType:     e.EventType,
		HeaderAggregateType: e.AggregateType,
		HeaderOccurredAt:    e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// OutboxRepository stores entries and hands unpublished ones to the relay in
// creation order.
type OutboxRepository interface {
	Store(ctx context.Context, entries []OutboxEntry) error
	FetchUnpublished(ctx context.Context, batchSize int) ([]OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []string, at time.Time) error
}

// EntryPublisher ships entries to a broker. Delivery is at least once: an
// entry is marked published only after PublishEntries returns nil.
type EntryPublisher interface {
	PublishEntries(ctx context.Context, entries []OutboxEntry) error
}
