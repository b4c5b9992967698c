package memory

import (
	"context"
	"time"

	"github.com/kuwago/lending/internal/domain/event"
	"github.com/kuwago/lending/pkg/events"
)

type outbox struct{ access accessor }

func (o *outbox) Append(ctx context.Context, evts ...event.DomainEvent) error {
	if len(evts) == 0 {
		return nil
	}
	entries, err := events.NewOutboxEntries(evts)
	if err != nil {
		return err
	}
	return o.Store(ctx, entries)
}

func (o *outbox) Store(_ context.Context, entries []events.OutboxEntry) error {
	return o.access(func(s *state) error {
		s.outbox = append(s.outbox, entries...)
		return nil
	})
}

func (o *outbox) FetchUnpublished(_ context.Context, batchSize int) ([]events.OutboxEntry, error) {
	var out []events.OutboxEntry
	err := o.access(func(s *state) error {
		for _, e := range s.outbox {
			if e.PublishedAt != nil {
				continue
			}
			out = append(out, e)
			if batchSize > 0 && len(out) == batchSize {
				break
			}
		}
		return nil
	})
	return out, err
}

func (o *outbox) MarkPublished(_ context.Context, ids []string, at time.Time) error {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	return o.access(func(s *state) error {
		for i := range s.outbox {
			if _, ok := want[s.outbox[i].ID]; ok {
				published := at
				s.outbox[i].PublishedAt = &published
			}
		}
		return nil
	})
}
