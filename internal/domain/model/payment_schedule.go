package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kuwago/lending/internal/domain/apperr"
	"github.com/kuwago/lending/pkg/money"
)

// PaymentSchedule is the payable provisioned for an agreement: a fixed total
// split into equal monthly requirements over an ordered list of due dates.
type PaymentSchedule struct {
	id              string
	agreementID     string
	borrowerID      string
	lenderID        string
	totalPayable    decimal.Decimal
	monthlyRequired decimal.Decimal
	dueDates        []time.Time
	createdAt       time.Time
}

// NewPaymentSchedule checks the schedule invariants: at least one due date,
// strictly increasing dates and positive amounts.
func NewPaymentSchedule(
	agreementID, borrowerID, lenderID string,
	totalPayable, monthlyRequired decimal.Decimal,
	dueDates []time.Time,
	now time.Time,
) (PaymentSchedule, error) {
	if agreementID == "" {
		return PaymentSchedule{}, apperr.Validation("agreement ID is required")
	}
	if borrowerID == "" {
		return PaymentSchedule{}, apperr.Validation("borrower ID is required")
	}
	if err := validateSchedule(totalPayable, monthlyRequired, dueDates); err != nil {
		return PaymentSchedule{}, err
	}
	return PaymentSchedule{
		id:              uuid.New().String(),
		agreementID:     agreementID,
		borrowerID:      borrowerID,
		lenderID:        lenderID,
		totalPayable:    money.Round(totalPayable),
		monthlyRequired: money.Round(monthlyRequired),
		dueDates:        copyDates(dueDates),
		createdAt:       now.UTC(),
	}, nil
}

func validateSchedule(total, monthly decimal.Decimal, dueDates []time.Time) error {
	if len(dueDates) == 0 {
		return apperr.Validation("term months must be positive")
	}
	if !total.IsPositive() || !monthly.IsPositive() {
		return apperr.Validation("schedule amounts must be positive")
	}
	for i := 1; i < len(dueDates); i++ {
		if !dueDates[i].After(dueDates[i-1]) {
			return apperr.Validation("due dates must be strictly increasing")
		}
	}
	return nil
}

// ReconstructPaymentSchedule rebuilds a schedule from persistence.
func ReconstructPaymentSchedule(
	id, agreementID, borrowerID, lenderID string,
	totalPayable, monthlyRequired decimal.Decimal,
	dueDates []time.Time,
	createdAt time.Time,
) PaymentSchedule {
	return PaymentSchedule{
		id:              id,
		agreementID:     agreementID,
		borrowerID:      borrowerID,
		lenderID:        lenderID,
		totalPayable:    totalPayable,
		monthlyRequired: monthlyRequired,
		dueDates:        copyDates(dueDates),
		createdAt:       createdAt,
	}
}

func copyDates(src []time.Time) []time.Time {
	out := make([]time.Time, len(src))
	for i, d := range src {
		out[i] = d.UTC()
	}
	return out
}

func (s PaymentSchedule) ID() string                       { return s.id }
func (s PaymentSchedule) AgreementID() string              { return s.agreementID }
func (s PaymentSchedule) BorrowerID() string               { return s.borrowerID }
func (s PaymentSchedule) LenderID() string                 { return s.lenderID }
func (s PaymentSchedule) TotalPayable() decimal.Decimal    { return s.totalPayable }
func (s PaymentSchedule) MonthlyRequired() decimal.Decimal { return s.monthlyRequired }
func (s PaymentSchedule) TermMonths() int                  { return len(s.dueDates) }
func (s PaymentSchedule) CreatedAt() time.Time             { return s.createdAt }

// DueDates returns a copy of the ordered due dates.
func (s PaymentSchedule) DueDates() []time.Time { return copyDates(s.dueDates) }

// LastDueDate is the final scheduled due date.
func (s PaymentSchedule) LastDueDate() time.Time { return s.dueDates[len(s.dueDates)-1] }

// FinalPeriodRequired is the last period's amount including the rounding
// remainder: total - monthly*(term-1).
func (s PaymentSchedule) FinalPeriodRequired() decimal.Decimal {
	paidBefore := s.monthlyRequired.Mul(decimal.NewFromInt(int64(len(s.dueDates) - 1)))
	return s.totalPayable.Sub(paidBefore)
}

// OwnedBy reports whether borrowerID is the schedule's borrower.
func (s PaymentSchedule) OwnedBy(borrowerID string) bool { return s.borrowerID == borrowerID }

// ServicedBy reports whether lenderID funded the schedule.
func (s PaymentSchedule) ServicedBy(lenderID string) bool { return s.lenderID == lenderID }
