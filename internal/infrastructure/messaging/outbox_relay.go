// Package messaging relays the transactional outbox to the event broker.
package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kuwago/lending/pkg/events"
)

// RelayObserver is told how many entries each run shipped.
type RelayObserver interface {
	OutboxRelayed(n int)
}

// OutboxRelay ships unpublished outbox entries in creation order and marks
// them published. Delivery is at-least-once: a crash between publish and mark
// republishes the batch.
type OutboxRelay struct {
	outbox    events.OutboxRepository
	publisher events.EntryPublisher
	batchSize int
	observer  RelayObserver
	logger    *slog.Logger
	now       func() time.Time

	mu sync.Mutex
}

func NewOutboxRelay(outbox events.OutboxRepository, publisher events.EntryPublisher, batchSize int, observer RelayObserver, logger *slog.Logger) *OutboxRelay {
	return &OutboxRelay{
		outbox:    outbox,
		publisher: publisher,
		batchSize: batchSize,
		observer:  observer,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RelayOnce ships a single batch and returns its size. Overlapping calls
// are serialized.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.outbox.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	if err := r.publisher.PublishEntries(ctx, entries); err != nil {
		return 0, fmt.Errorf("publish outbox batch: %w", err)
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if err := r.outbox.MarkPublished(ctx, ids, r.now()); err != nil {
		return 0, fmt.Errorf("mark outbox published: %w", err)
	}

	if r.observer != nil {
		r.observer.OutboxRelayed(len(entries))
	}
	return len(entries), nil
}

// Drain relays batches until the outbox is empty or a run fails.
func (r *OutboxRelay) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := r.RelayOnce(ctx)
		total += n
		if err != nil || n == 0 || n < r.batchSize {
			return total, err
		}
	}
}

// Schedule registers the relay on a cron scheduler using spec
// (e.g. "@every 5s"). The caller starts and stops the scheduler.
func (r *OutboxRelay) Schedule(ctx context.Context, spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(spec, func() {
		n, err := r.Drain(ctx)
		if err != nil {
			r.logger.ErrorContext(ctx, "outbox relay failed", "relayed", n, "error", err)
			return
		}
		if n > 0 {
			r.logger.DebugContext(ctx, "outbox relayed", "count", n)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule outbox relay %q: %w", spec, err)
	}
	return c, nil
}
