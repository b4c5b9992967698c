package usecase

import (
	"errors"
	"log/slog"
	"time"

	"github.com/kuwago/lending/internal/domain/port"
)

// maxAttempts bounds how often a transaction that lost a version race is retried.
const maxAttempts = 3

// Clock returns the current instant.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

type options struct {
	clock   Clock
	metrics port.Metrics
	cache   port.ReportCache
	logger  *slog.Logger
}

// Option customizes a use case.
type Option func(*options)

// WithClock pins the time source.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithMetrics reports business counters to m.
func WithMetrics(m port.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithReportCache serves and invalidates schedule reports through c.
func WithReportCache(c port.ReportCache) Option {
	return func(o *options) { o.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func newOptions(opts []Option) options {
	o := options{
		clock:   systemClock,
		metrics: port.NopMetrics{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// retryOnVersionConflict reruns fn while it fails with port.ErrVersionConflict.
func retryOnVersionConflict(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = fn(); !errors.Is(err, port.ErrVersionConflict) {
			return err
		}
	}
	return err
}
