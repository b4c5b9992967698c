// Package cache keeps reconciled schedule reports in Redis for a short TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/kuwago/lending/internal/domain/model"
	"github.com/kuwago/lending/internal/domain/port"
	"github.com/kuwago/lending/internal/domain/valueobject"
)

const keyPrefix = "lending:schedule-report:"

// RedisReportCache implements port.ReportCache.
type RedisReportCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisReportCache(client redis.Cmdable, ttl time.Duration) *RedisReportCache {
	return &RedisReportCache{client: client, ttl: ttl}
}

func key(scheduleID string) string { return keyPrefix + scheduleID }

func (c *RedisReportCache) Get(ctx context.Context, scheduleID string) (model.ScheduleReport, bool, error) {
	data, err := c.client.Get(ctx, key(scheduleID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.ScheduleReport{}, false, nil
	}
	if err != nil {
		return model.ScheduleReport{}, false, fmt.Errorf("redis get: %w", err)
	}
	report, err := decodeReport(data)
	if err != nil {
		return model.ScheduleReport{}, false, err
	}
	return report, true, nil
}

func (c *RedisReportCache) Set(ctx context.Context, report model.ScheduleReport) error {
	data, err := encodeReport(report)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key(report.ScheduleID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisReportCache) Invalidate(ctx context.Context, scheduleID string) error {
	if err := c.client.Del(ctx, key(scheduleID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// wire form
// ---------------------------------------------------------------------------

type cachedSlot struct {
	DueDate     time.Time       `json:"due_date"`
	PaymentID   string          `json:"payment_id,omitempty"`
	PaymentDate *time.Time      `json:"payment_date,omitempty"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	Required    decimal.Decimal `json:"required"`
	Actual      decimal.Decimal `json:"actual"`
	Status      string          `json:"status"`
	Settled     bool            `json:"settled"`
	Trailing    bool            `json:"trailing,omitempty"`
}

type cachedReport struct {
	ScheduleID     string             `json:"schedule_id"`
	BorrowerID     string             `json:"borrower_id"`
	Slots          []cachedSlot       `json:"slots"`
	UnpaidDueDates []time.Time        `json:"unpaid_due_dates"`
	Totals         model.ReportTotals `json:"totals"`
}

func encodeReport(r model.ScheduleReport) ([]byte, error) {
	out := cachedReport{
		ScheduleID:     r.ScheduleID,
		BorrowerID:     r.BorrowerID,
		Slots:          make([]cachedSlot, len(r.Slots)),
		UnpaidDueDates: r.UnpaidDueDates,
		Totals:         r.Totals,
	}
	for i, s := range r.Slots {
		out.Slots[i] = cachedSlot{
			DueDate:     s.DueDate,
			PaymentID:   s.PaymentID,
			PaymentDate: s.PaymentDate,
			AmountPaid:  s.AmountPaid,
			Required:    s.Required,
			Actual:      s.Actual,
			Status:      s.Status.String(),
			Settled:     s.Settled,
			Trailing:    s.Trailing,
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return data, nil
}

func decodeReport(data []byte) (model.ScheduleReport, error) {
	var in cachedReport
	if err := json.Unmarshal(data, &in); err != nil {
		return model.ScheduleReport{}, fmt.Errorf("decode report: %w", err)
	}
	out := model.ScheduleReport{
		ScheduleID:     in.ScheduleID,
		BorrowerID:     in.BorrowerID,
		Slots:          make([]model.ScheduleSlot, len(in.Slots)),
		UnpaidDueDates: in.UnpaidDueDates,
		Totals:         in.Totals,
	}
	for i, s := range in.Slots {
		status, err := valueobject.NewSlotStatus(s.Status)
		if err != nil {
			return model.ScheduleReport{}, fmt.Errorf("decode report: %w", err)
		}
		out.Slots[i] = model.ScheduleSlot{
			DueDate:     s.DueDate,
			PaymentID:   s.PaymentID,
			PaymentDate: s.PaymentDate,
			AmountPaid:  s.AmountPaid,
			Required:    s.Required,
			Actual:      s.Actual,
			Status:      status,
			Settled:     s.Settled,
			Trailing:    s.Trailing,
		}
	}
	return out, nil
}

var _ port.ReportCache = (*RedisReportCache)(nil)
