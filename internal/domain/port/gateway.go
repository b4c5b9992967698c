package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kuwago/lending/internal/domain/model"
)

// CheckoutRequest describes a pending electronic payment to the gateway.
type CheckoutRequest struct {
	PaymentID  string
	ScheduleID string
	BorrowerID string
	Amount     decimal.Decimal
	Currency   string
}

// CheckoutGateway opens a checkout session with the payment provider and
// returns its reference. Settlement arrives later as a callback.
type CheckoutGateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error)
}

// ReportCache holds reconciled schedule reports for a short time.
type ReportCache interface {
	Get(ctx context.Context, scheduleID string) (model.ScheduleReport, bool, error)
	Set(ctx context.Context, report model.ScheduleReport) error
	Invalidate(ctx context.Context, scheduleID string) error
}

// Metrics receives business counters from the use cases.
type Metrics interface {
	PaymentRecorded(modality, status string)
	CreditScoreUpdated(onTime bool)
	ScheduleProvisioned()
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) PaymentRecorded(string, string) {}
func (NopMetrics) CreditScoreUpdated(bool)        {}
func (NopMetrics) ScheduleProvisioned()           {}
