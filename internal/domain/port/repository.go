package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kuwago/lending/internal/domain/apperr"
	"github.com/kuwago/lending/internal/domain/event"
	"github.com/kuwago/lending/internal/domain/model"
)

// ErrVersionConflict is returned by versioned writes whose expected version
// no longer matches the stored row.
var ErrVersionConflict = &apperr.Error{Kind: apperr.KindConflict, Message: "concurrent modification, retry"}

// ---------------------------------------------------------------------------
// Repository ports (driven/secondary adapters)
// ---------------------------------------------------------------------------

// LoanRequestRepository persists borrower loan requests.
type LoanRequestRepository interface {
	Create(ctx context.Context, req model.LoanRequest) error
	FindByID(ctx context.Context, id string) (model.LoanRequest, error)
	// FindByIDForUpdate locks the row for the rest of the transaction.
	FindByIDForUpdate(ctx context.Context, id string) (model.LoanRequest, error)
	// Update writes a transition; the stored version must be req.Version()-1.
	Update(ctx context.Context, req model.LoanRequest) error
}

// LoanAgreementRepository persists approved terms. At most one agreement
// exists per loan request.
type LoanAgreementRepository interface {
	Create(ctx context.Context, agreement model.LoanAgreement) error
	FindByID(ctx context.Context, id string) (model.LoanAgreement, error)
	FindByLoanRequestID(ctx context.Context, loanRequestID string) (model.LoanAgreement, error)
}

// PaymentScheduleRepository persists schedules. At most one schedule exists
// per agreement.
type PaymentScheduleRepository interface {
	Create(ctx context.Context, schedule model.PaymentSchedule) error
	FindByID(ctx context.Context, id string) (model.PaymentSchedule, error)
	FindByIDForUpdate(ctx context.Context, id string) (model.PaymentSchedule, error)
	FindByAgreementID(ctx context.Context, agreementID string) (model.PaymentSchedule, error)
}

// PaymentRepository is the append-only payment ledger. Amounts and
// timestamps are never updated; UpdateStatus only moves the lifecycle.
type PaymentRepository interface {
	Create(ctx context.Context, payment model.Payment) error
	FindByID(ctx context.Context, id string) (model.Payment, error)
	FindByIDForUpdate(ctx context.Context, id string) (model.Payment, error)
	// UpdateStatus persists a lifecycle transition; the stored version must
	// be payment.Version()-1.
	UpdateStatus(ctx context.Context, payment model.Payment) error
	ListBySchedule(ctx context.Context, scheduleID string) ([]model.Payment, error)
	ListByBorrower(ctx context.Context, borrowerID string) ([]model.Payment, error)
	// SumCommitted adds COMPLETED and PENDING amounts.
	SumCommitted(ctx context.Context, scheduleID string) (decimal.Decimal, error)
	// SumSettled adds COMPLETED amounts only.
	SumSettled(ctx context.Context, scheduleID string) (decimal.Decimal, error)
}

// CreditScoreRepository persists versioned credit scores.
type CreditScoreRepository interface {
	// InitializeIfAbsent inserts score unless the borrower already has one and
	// reports whether a row was written.
	InitializeIfAbsent(ctx context.Context, score model.CreditScore) (bool, error)
	FindByBorrowerID(ctx context.Context, borrowerID string) (model.CreditScore, error)
	FindByBorrowerIDForUpdate(ctx context.Context, borrowerID string) (model.CreditScore, error)
	// Save is a compare-and-swap on version: it succeeds only when the stored
	// version is score.Version()-1 and returns ErrVersionConflict otherwise.
	Save(ctx context.Context, score model.CreditScore) error
}

// EventOutbox stores domain events in the same transaction as the state
// change that raised them.
type EventOutbox interface {
	Append(ctx context.Context, evts ...event.DomainEvent) error
}

// ---------------------------------------------------------------------------
// Unit of work
// ---------------------------------------------------------------------------

// Repositories groups the repositories bound to one connection or transaction.
type Repositories struct {
	LoanRequests LoanRequestRepository
	Agreements   LoanAgreementRepository
	Schedules    PaymentScheduleRepository
	Payments     PaymentRepository
	CreditScores CreditScoreRepository
	Outbox       EventOutbox
}

// UnitOfWork runs fn inside a single database transaction. fn's error rolls
// the transaction back.
type UnitOfWork interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
