package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

const (
	defaultHandlerAttempts = 5
	defaultRetryBackoff    = 200 * time.Millisecond
	maxRetryBackoff        = 5 * time.Second
)

// ErrHandlerExhausted is returned by Start when a message kept failing after
// every attempt. Its offset is left uncommitted so the group redelivers it to
// the next member that owns the partition.
var ErrHandlerExhausted = errors.New("kafka: handler attempts exhausted")

// Handler processes one consumed message. A nil return commits the offset.
type Handler func(ctx context.Context, msg Message) error

// Consumer reads a single topic as part of a consumer group and feeds every
// message to its Handler in partition order.
type Consumer struct {
	reader   *kafkago.Reader
	handler  Handler
	logger   *slog.Logger
	attempts int
	backoff  time.Duration
}

func NewConsumer(cfg Config, topic string, handler Handler, logger *slog.Logger) (*Consumer, error) {
	if topic == "" {
		return nil, errors.New("kafka: consumer topic is required")
	}
	if cfg.ConsumerGroup == "" {
		return nil, errors.New("kafka: consumer group is required")
	}

	readerCfg := kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    topic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 4 << 20,
	}
	dialer, err := cfg.dialer()
	if err != nil {
		return nil, err
	}
	if dialer != nil {
		readerCfg.Dialer = dialer
	}

	c := &Consumer{
		reader:   kafkago.NewReader(readerCfg),
		handler:  handler,
		logger:   logger.With("topic", topic, "group", cfg.ConsumerGroup),
		attempts: cfg.HandlerAttempts,
		backoff:  cfg.RetryBackoff,
	}
	if c.attempts <= 0 {
		c.attempts = defaultHandlerAttempts
	}
	if c.backoff <= 0 {
		c.backoff = defaultRetryBackoff
	}
	return c, nil
}

// Start fetches and handles messages until ctx is canceled, which is a clean
// stop. A message that still fails after the configured attempts halts the
// consumer with ErrHandlerExhausted instead of being skipped.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("settlement consumer started")

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("settlement consumer stopped")
				return nil
			}
			return fmt.Errorf("kafka: fetch message: %w", err)
		}

		if err := c.handle(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("commit failed", "partition", m.Partition, "offset", m.Offset, "error", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, m kafkago.Message) error {
	msg := fromKafka(m)
	wait := c.backoff

	for attempt := 1; ; attempt++ {
		err := c.handler(ctx, msg)
		if err == nil {
			return nil
		}
		c.logger.Warn("handler failed",
			"partition", m.Partition,
			"offset", m.Offset,
			"attempt", attempt,
			"error", err,
		)
		if attempt >= c.attempts {
			return fmt.Errorf("%w: partition %d offset %d: %w", ErrHandlerExhausted, m.Partition, m.Offset, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait = min(wait*2, maxRetryBackoff)
	}
}

func fromKafka(m kafkago.Message) Message {
	msg := Message{Key: m.Key, Value: m.Value, Headers: make(map[string]string, len(m.Headers))}
	for _, h := range m.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}

func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("kafka: close reader: %w", err)
	}
	return nil
}
