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
// LoanRequest aggregate root
// ---------------------------------------------------------------------------

// LoanRequest is a borrower's application for a loan. Every mutation returns
// a new copy.
type LoanRequest struct {
	id             string
	borrowerID     string
	loanType       string
	amount         decimal.Decimal
	purpose        string
	status         valueobject.LoanRequestStatus
	lenderID       string
	decisionReason string
	agreedAt       *time.Time
	version        int
	createdAt      time.Time
	updatedAt      time.Time
	domainEvents   []event.DomainEvent
}

// NewLoanRequest creates a request in PENDING status.
func NewLoanRequest(borrowerID, loanType string, amount decimal.Decimal, purpose string, now time.Time) (LoanRequest, error) {
	borrowerID = strings.TrimSpace(borrowerID)
	if borrowerID == "" {
		return LoanRequest{}, apperr.Validation("borrower ID is required")
	}
	loanType = strings.TrimSpace(loanType)
	if loanType == "" {
		return LoanRequest{}, apperr.Validation("loan type is required")
	}
	amount = money.Round(amount)
	if !amount.IsPositive() {
		return LoanRequest{}, apperr.Validation("amount must be positive")
	}

	now = now.UTC()
	r := LoanRequest{
		id:         uuid.New().String(),
		borrowerID: borrowerID,
		loanType:   loanType,
		amount:     amount,
		purpose:    strings.TrimSpace(purpose),
		status:     valueobject.LoanRequestStatusPending,
		version:    1,
		createdAt:  now,
		updatedAt:  now,
	}
	r.domainEvents = append(r.domainEvents, event.NewLoanRequestSubmitted(
		r.id, borrowerID, loanType, amount, r.purpose, now,
	))
	return r, nil
}

// ReconstructLoanRequest rebuilds a request from persistence without side-effects.
func ReconstructLoanRequest(
	id, borrowerID, loanType string,
	amount decimal.Decimal,
	purpose string,
	status valueobject.LoanRequestStatus,
	lenderID, decisionReason string,
	agreedAt *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) LoanRequest {
	return LoanRequest{
		id:             id,
		borrowerID:     borrowerID,
		loanType:       loanType,
		amount:         amount,
		purpose:        purpose,
		status:         status,
		lenderID:       lenderID,
		decisionReason: decisionReason,
		agreedAt:       agreedAt,
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// ---------------------------------------------------------------------------
// State transitions
// ---------------------------------------------------------------------------

// Approve transitions PENDING -> ACTIVE once the agreement and schedule exist.
// A request that is no longer pending yields a Conflict.
func (r LoanRequest) Approve(agreement LoanAgreement, schedule PaymentSchedule, now time.Time) (LoanRequest, error) {
	if !r.status.Equal(valueobject.LoanRequestStatusPending) {
		return r, apperr.Conflict("loan request %s is already %s", r.id, r.status)
	}
	if agreement.LoanRequestID() != r.id {
		return r, apperr.Validation("agreement %s does not belong to loan request %s", agreement.ID(), r.id)
	}
	now = now.UTC()
	next := r
	next.status = valueobject.LoanRequestStatusActive
	next.lenderID = agreement.LenderID()
	next.agreedAt = &now
	next.version = r.version + 1
	next.updatedAt = now
	next.domainEvents = copyEvents(r.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewLoanApproved(
		r.id, agreement.ID(), schedule.ID(), r.borrowerID, agreement.LenderID(),
		agreement.Principal(), agreement.InterestRate(), agreement.TermMonths(),
		schedule.TotalPayable(), schedule.MonthlyRequired(), schedule.DueDates()[0], now,
	))
	return next, nil
}

// Deny transitions PENDING -> DENIED.
func (r LoanRequest) Deny(lenderID, reason string, now time.Time) (LoanRequest, error) {
	if strings.TrimSpace(lenderID) == "" {
		return r, apperr.Validation("lender ID is required")
	}
	if !r.status.Equal(valueobject.LoanRequestStatusPending) {
		return r, apperr.Conflict("loan request %s is already %s", r.id, r.status)
	}
	now = now.UTC()
	next := r
	next.status = valueobject.LoanRequestStatusDenied
	next.lenderID = lenderID
	next.decisionReason = strings.TrimSpace(reason)
	next.version = r.version + 1
	next.updatedAt = now
	next.domainEvents = copyEvents(r.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewLoanDenied(r.id, r.borrowerID, lenderID, next.decisionReason, now))
	return next, nil
}

// Complete transitions ACTIVE -> COMPLETED when the schedule is fully settled.
func (r LoanRequest) Complete(now time.Time) (LoanRequest, error) {
	if !r.status.Equal(valueobject.LoanRequestStatusActive) {
		return r, apperr.Wrap(apperr.KindValidation, valueobject.ErrInvalidStatusTransition,
			"loan request %s cannot complete from %s", r.id, r.status)
	}
	next := r
	next.status = valueobject.LoanRequestStatusCompleted
	next.version = r.version + 1
	next.updatedAt = now.UTC()
	next.domainEvents = copyEvents(r.domainEvents)
	return next, nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (r LoanRequest) ID() string                            { return r.id }
func (r LoanRequest) BorrowerID() string                    { return r.borrowerID }
func (r LoanRequest) LoanType() string                      { return r.loanType }
func (r LoanRequest) Amount() decimal.Decimal               { return r.amount }
func (r LoanRequest) Purpose() string                       { return r.purpose }
func (r LoanRequest) Status() valueobject.LoanRequestStatus { return r.status }
func (r LoanRequest) LenderID() string                      { return r.lenderID }
func (r LoanRequest) DecisionReason() string                { return r.decisionReason }
func (r LoanRequest) AgreedAt() *time.Time                  { return r.agreedAt }
func (r LoanRequest) Version() int                          { return r.version }
func (r LoanRequest) CreatedAt() time.Time                  { return r.createdAt }
func (r LoanRequest) UpdatedAt() time.Time                  { return r.updatedAt }
func (r LoanRequest) DomainEvents() []event.DomainEvent     { return r.domainEvents }

// ClearEvents returns a copy with an empty event list.
func (r LoanRequest) ClearEvents() LoanRequest {
	next := r
	next.domainEvents = nil
	return next
}
