package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/kuwago/lending/internal/domain/event"
	"github.com/kuwago/lending/internal/domain/port"
	"github.com/kuwago/lending/pkg/events"
	pkgpostgres "github.com/kuwago/lending/pkg/postgres"
)

// OutboxRepo stores domain events next to the state change that raised them
// and serves them to the relay.
type OutboxRepo struct {
	q pkgpostgres.Querier
}

func NewOutboxRepo(q pkgpostgres.Querier) *OutboxRepo {
	return &OutboxRepo{q: q}
}

func (r *OutboxRepo) Append(ctx context.Context, evts ...event.DomainEvent) error {
	if len(evts) == 0 {
		return nil
	}
	entries, err := events.NewOutboxEntries(evts)
	if err != nil {
		return err
	}
	return r.Store(ctx, entries)
}

func (r *OutboxRepo) Store(ctx context.Context, entries []events.OutboxEntry) error {
	query := `
		INSERT INTO outbox (id, aggregate_id, aggregate_type, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, e := range entries {
		if _, err := r.q.Exec(ctx, query, e.ID, e.AggregateID, e.AggregateType, e.EventType, e.Payload, e.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("insert outbox entry %s: %w", e.EventType, err)
		}
	}
	return nil
}

// FetchUnpublished returns the oldest unpublished entries first.
func (r *OutboxRepo) FetchUnpublished(ctx context.Context, batchSize int) ([]events.OutboxEntry, error) {
	query := `
		SELECT id, aggregate_id, aggregate_type, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
	`
	rows, err := r.q.Query(ctx, query, batchSize)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []events.OutboxEntry
	for rows.Next() {
		var e events.OutboxEntry
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.AggregateType, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *OutboxRepo) MarkPublished(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.q.Exec(ctx, `UPDATE outbox SET published_at = $2 WHERE id = ANY($1)`, ids, at.UTC()); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

var (
	_ port.EventOutbox        = (*OutboxRepo)(nil)
	_ events.OutboxRepository = (*OutboxRepo)(nil)
)
