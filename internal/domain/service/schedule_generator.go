package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kuwago/lending/internal/domain/model"
	"github.com/kuwago/lending/pkg/money"
)

var hundred = decimal.NewFromInt(100)

// ScheduleTerms are the computed amounts and dates of a simple-interest
// installment plan.
type ScheduleTerms struct {
	TotalPayable    decimal.Decimal
	MonthlyRequired decimal.Decimal
	DueDates        []time.Time
}

// GenerateSchedule computes totalPayable = principal * (1 + rate/100) and an
// equal monthly requirement, both rounded to two places. Due date k is the
// approval calendar date plus k months, each computed from the approval date
// so month-end clamping never drifts.
func GenerateSchedule(principal, interestRatePercent decimal.Decimal, termMonths int, approvalDate time.Time) (ScheduleTerms, error) {
	if err := model.ValidateTerms(principal, interestRatePercent, termMonths); err != nil {
		return ScheduleTerms{}, err
	}

	principal = money.Round(principal)
	factor := decimal.NewFromInt(1).Add(interestRatePercent.Div(hundred))
	total := money.Round(principal.Mul(factor))
	monthly := money.Round(total.Div(decimal.NewFromInt(int64(termMonths))))

	base := model.CalendarDate(approvalDate)
	dueDates := make([]time.Time, termMonths)
	for k := 1; k <= termMonths; k++ {
		dueDates[k-1] = model.AddMonths(base, k)
	}

	return ScheduleTerms{
		TotalPayable:    total,
		MonthlyRequired: monthly,
		DueDates:        dueDates,
	}, nil
}

// ProvisionSchedule builds the payment schedule for an approved agreement.
// Persisting it is the caller's job.
func ProvisionSchedule(agreement model.LoanAgreement, approvalDate, now time.Time) (model.PaymentSchedule, error) {
	terms, err := GenerateSchedule(agreement.Principal(), agreement.InterestRate(), agreement.TermMonths(), approvalDate)
	if err != nil {
		return model.PaymentSchedule{}, err
	}
	return model.NewPaymentSchedule(
		agreement.ID(), agreement.BorrowerID(), agreement.LenderID(),
		terms.TotalPayable, terms.MonthlyRequired, terms.DueDates, now,
	)
}
