package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kuwago/lending/internal/domain/apperr"
	"github.com/kuwago/lending/internal/domain/event"
	"github.com/kuwago/lending/internal/domain/valueobject"
	"github.com/kuwago/lending/pkg/money"
)

// ---------------------------------------------------------------------------
// Payment aggregate root
// ---------------------------------------------------------------------------

// Payment is one entry in a schedule's append-only ledger. Amount and paidAt
// never change; only PENDING -> COMPLETED and PENDING -> CANCELLED are legal.
type Payment struct {
	id           string
	scheduleID   string
	borrowerID   string
	amount       decimal.Decimal
	paidAt       time.Time
	notes        string
	modality     valueobject.PaymentModality
	status       valueobject.PaymentStatus
	checkoutRef  string
	version      int
	createdAt    time.Time
	updatedAt    time.Time
	domainEvents []event.DomainEvent
}

// NewPayment records a payment. Cash is COMPLETED on intake, electronic
// payments start PENDING until the checkout gateway reports back.
func NewPayment(
	scheduleID, borrowerID string,
	amount decimal.Decimal,
	paidAt time.Time,
	notes string,
	modality valueobject.PaymentModality,
	now time.Time,
) (Payment, error) {
	if scheduleID == "" {
		return Payment{}, apperr.Validation("schedule ID is required")
	}
	if strings.TrimSpace(borrowerID) == "" {
		return Payment{}, apperr.Validation("borrower ID is required")
	}
	amount = money.Round(amount)
	if !amount.IsPositive() {
		return Payment{}, apperr.Validation("amount must be positive")
	}
	if modality.IsZero() {
		return Payment{}, apperr.Validation("payment modality is required")
	}
	if paidAt.IsZero() {
		paidAt = now
	}

	status := valueobject.PaymentStatusPending
	if modality.SettlesImmediately() {
		status = valueobject.PaymentStatusCompleted
	}

	now = now.UTC()
	p := Payment{
		id:         uuid.New().String(),
		scheduleID: scheduleID,
		borrowerID: borrowerID,
		amount:     amount,
		paidAt:     paidAt.UTC(),
		notes:      strings.TrimSpace(notes),
		modality:   modality,
		status:     status,
		version:    1,
		createdAt:  now,
		updatedAt:  now,
	}
	p.domainEvents = append(p.domainEvents, p.recordedEvent(now))
	return p, nil
}

func (p Payment) recordedEvent(now time.Time) event.DomainEvent {
	return event.NewPaymentRecorded(
		p.id, p.scheduleID, p.borrowerID, p.amount,
		p.modality.String(), p.status.String(), p.paidAt, p.checkoutRef, now,
	)
}

// ReconstructPayment rebuilds a payment from persistence without side-effects.
func ReconstructPayment(
	id, scheduleID, borrowerID string,
	amount decimal.Decimal,
	paidAt time.Time,
	notes string,
	modality valueobject.PaymentModality,
	status valueobject.PaymentStatus,
	checkoutRef string,
	version int,
	createdAt, updatedAt time.Time,
) Payment {
	return Payment{
		id:          id,
		scheduleID:  scheduleID,
		borrowerID:  borrowerID,
		amount:      amount,
		paidAt:      paidAt,
		notes:       notes,
		modality:    modality,
		status:      status,
		checkoutRef: checkoutRef,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// ---------------------------------------------------------------------------
// State transitions
// ---------------------------------------------------------------------------

// WithCheckoutReference attaches the gateway reference of a pending
// electronic payment. The recorded event is refreshed to carry it.
func (p Payment) WithCheckoutReference(ref string, now time.Time) (Payment, error) {
	if !p.status.Equal(valueobject.PaymentStatusPending) {
		return p, apperr.Wrap(apperr.KindValidation, valueobject.ErrInvalidStatusTransition,
			"payment %s is %s", p.id, p.status)
	}
	if strings.TrimSpace(ref) == "" {
		return p, apperr.Validation("checkout reference is required")
	}
	next := p
	next.checkoutRef = ref
	next.updatedAt = now.UTC()
	next.domainEvents = nil
	for _, evt := range p.domainEvents {
		if _, ok := evt.(event.PaymentRecorded); ok {
			evt = next.recordedEvent(evt.OccurredAt())
		}
		next.domainEvents = append(next.domainEvents, evt)
	}
	return next, nil
}

// Complete transitions PENDING -> COMPLETED. Replaying it on an already
// completed payment is a Conflict; completing a cancelled one is invalid.
func (p Payment) Complete(now time.Time) (Payment, error) {
	switch {
	case p.status.Equal(valueobject.PaymentStatusCompleted):
		return p, apperr.Conflict("payment %s is already completed", p.id)
	case !p.status.Equal(valueobject.PaymentStatusPending):
		return p, apperr.Wrap(apperr.KindValidation, valueobject.ErrInvalidStatusTransition,
			"payment %s cannot complete from %s", p.id, p.status)
	}
	now = now.UTC()
	next := p
	next.status = valueobject.PaymentStatusCompleted
	next.version = p.version + 1
	next.updatedAt = now
	next.domainEvents = copyEvents(p.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewPaymentCompleted(p.id, p.scheduleID, p.borrowerID, p.amount, now))
	return next, nil
}

// Cancel transitions PENDING -> CANCELLED.
func (p Payment) Cancel(now time.Time) (Payment, error) {
	switch {
	case p.status.Equal(valueobject.PaymentStatusCancelled):
		return p, apperr.Conflict("payment %s is already cancelled", p.id)
	case !p.status.Equal(valueobject.PaymentStatusPending):
		return p, apperr.Wrap(apperr.KindValidation, valueobject.ErrInvalidStatusTransition,
			"payment %s cannot cancel from %s", p.id, p.status)
	}
	now = now.UTC()
	next := p
	next.status = valueobject.PaymentStatusCancelled
	next.version = p.version + 1
	next.updatedAt = now
	next.domainEvents = copyEvents(p.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewPaymentCancelled(p.id, p.scheduleID, p.borrowerID, p.amount, now))
	return next, nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (p Payment) ID() string                            { return p.id }
func (p Payment) ScheduleID() string                    { return p.scheduleID }
func (p Payment) BorrowerID() string                    { return p.borrowerID }
func (p Payment) Amount() decimal.Decimal               { return p.amount }
func (p Payment) PaidAt() time.Time                     { return p.paidAt }
func (p Payment) Notes() string                         { return p.notes }
func (p Payment) Modality() valueobject.PaymentModality { return p.modality }
func (p Payment) Status() valueobject.PaymentStatus     { return p.status }
func (p Payment) CheckoutRef() string                   { return p.checkoutRef }
func (p Payment) Version() int                          { return p.version }
func (p Payment) CreatedAt() time.Time                  { return p.createdAt }
func (p Payment) UpdatedAt() time.Time                  { return p.updatedAt }
func (p Payment) DomainEvents() []event.DomainEvent     { return p.domainEvents }

// ClearEvents returns a copy with an empty event list.
func (p Payment) ClearEvents() Payment {
	next := p
	next.domainEvents = nil
	return next
}
