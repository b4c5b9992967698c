package usecase

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kuwago/lending/internal/application/dto"
	"github.com/kuwago/lending/internal/domain/model"
	"github.com/kuwago/lending/internal/domain/service"
)

func toLoanRequestResponse(r model.LoanRequest, scheduleID string) dto.LoanRequestResponse {
	return dto.LoanRequestResponse{
		ID:             r.ID(),
		BorrowerID:     r.BorrowerID(),
		LoanType:       r.LoanType(),
		Amount:         r.Amount(),
		Purpose:        r.Purpose(),
		Status:         r.Status().String(),
		LenderID:       r.LenderID(),
		DecisionReason: r.DecisionReason(),
		AgreedAt:       r.AgreedAt(),
		ScheduleID:     scheduleID,
		CreatedAt:      r.CreatedAt(),
	}
}

func toScheduleResponse(a model.LoanAgreement, s model.PaymentSchedule) dto.ScheduleResponse {
	return dto.ScheduleResponse{
		ID:                  s.ID(),
		AgreementID:         a.ID(),
		LoanRequestID:       a.LoanRequestID(),
		BorrowerID:          s.BorrowerID(),
		LenderID:            s.LenderID(),
		Principal:           a.Principal(),
		InterestRate:        a.InterestRate(),
		Modality:            a.Modality().String(),
		Currency:            a.Currency().Code(),
		TotalPayable:        s.TotalPayable(),
		MonthlyRequired:     s.MonthlyRequired(),
		FinalPeriodRequired: s.FinalPeriodRequired(),
		TermMonths:          s.TermMonths(),
		DueDates:            s.DueDates(),
		CreatedAt:           s.CreatedAt(),
	}
}

func toPaymentResponse(p model.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:          p.ID(),
		ScheduleID:  p.ScheduleID(),
		BorrowerID:  p.BorrowerID(),
		Amount:      p.Amount(),
		PaidAt:      p.PaidAt(),
		Notes:       p.Notes(),
		Modality:    p.Modality().String(),
		Status:      p.Status().String(),
		CheckoutRef: p.CheckoutRef(),
		CreatedAt:   p.CreatedAt(),
	}
}

func toPaymentResponses(payments []model.Payment) []dto.PaymentResponse {
	out := make([]dto.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	return out
}

func toCreditScoreResponse(c model.CreditScore) dto.CreditScoreResponse {
	return dto.CreditScoreResponse{
		BorrowerID:           c.BorrowerID(),
		Score:                c.Score(),
		Category:             c.Category().String(),
		TotalLoans:           c.TotalLoans(),
		SuccessfulRepayments: c.SuccessfulRepayments(),
		MissedRepayments:     c.MissedRepayments(),
		LastUpdated:          c.LastUpdated(),
	}
}

func toScheduleReportResponse(r model.ScheduleReport) dto.ScheduleReportResponse {
	slots := make([]dto.ScheduleSlotResponse, 0, len(r.Slots))
	for _, s := range r.Slots {
		slots = append(slots, dto.ScheduleSlotResponse{
			DueDate:     s.DueDate,
			PaymentID:   s.PaymentID,
			PaymentDate: s.PaymentDate,
			AmountPaid:  s.AmountPaid,
			Required:    s.Required,
			Actual:      s.Actual,
			Status:      s.Status.String(),
			Settled:     s.Settled,
			Trailing:    s.Trailing,
		})
	}

	unpaid := append([]time.Time{}, r.UnpaidDueDates...)
	resp := dto.ScheduleReportResponse{
		ScheduleID:     r.ScheduleID,
		BorrowerID:     r.BorrowerID,
		Slots:          slots,
		UnpaidDueDates: unpaid,
		Totals: dto.ReportTotalsResponse{
			TotalPayable:     r.Totals.TotalPayable,
			TotalPaid:        r.Totals.TotalPaid,
			TotalPending:     r.Totals.TotalPending,
			RemainingBalance: r.Totals.RemainingBalance,
			PaymentCount:     r.Totals.PaymentCount,
			FullyPaid:        r.Totals.FullyPaid,
		},
	}
	if next, ok := service.NextUnmetDueDate(r); ok {
		resp.NextUnmetDueDate = &next
	}
	return resp
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
