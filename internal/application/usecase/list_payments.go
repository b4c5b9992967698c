package usecase

import (
	"context"
	"fmt"

	"github.com/kuwago/lending/internal/application/dto"
	"github.com/kuwago/lending/internal/domain/apperr"
	"github.com/kuwago/lending/internal/domain/model"
	"github.com/kuwago/lending/internal/domain/port"
)

// ListPayments returns ledger entries in timestamp order, either for one
// schedule (its borrower or funding lender) or for every schedule of a
// borrower.
type ListPayments struct {
	schedules port.PaymentScheduleRepository
	payments  port.PaymentRepository
}

func NewListPayments(schedules port.PaymentScheduleRepository, payments port.PaymentRepository) *ListPayments {
	return &ListPayments{schedules: schedules, payments: payments}
}

func (uc *ListPayments) Execute(ctx context.Context, req dto.ListPaymentsRequest) (dto.ListPaymentsResponse, error) {
	if req.BorrowerID == "" {
		return dto.ListPaymentsResponse{}, apperr.Validation("borrower ID is required")
	}
	if req.LenderID != "" && req.ScheduleID == "" {
		return dto.ListPaymentsResponse{}, apperr.Validation("schedule ID is required when a lender lists payments")
	}

	var (
		payments []model.Payment
		err      error
	)
	if req.ScheduleID != "" {
		schedule, err := uc.schedules.FindByID(ctx, req.ScheduleID)
		if err != nil {
			return dto.ListPaymentsResponse{}, fmt.Errorf("find schedule: %w", err)
		}
		if err := authorizeScheduleAccess(schedule, req.BorrowerID, req.LenderID); err != nil {
			return dto.ListPaymentsResponse{}, err
		}
		payments, err = uc.payments.ListBySchedule(ctx, schedule.ID())
		if err != nil {
			return dto.ListPaymentsResponse{}, fmt.Errorf("list payments: %w", err)
		}
	} else {
		payments, err = uc.payments.ListByBorrower(ctx, req.BorrowerID)
		if err != nil {
			return dto.ListPaymentsResponse{}, fmt.Errorf("list payments: %w", err)
		}
	}

	return dto.ListPaymentsResponse{Payments: toPaymentResponses(payments)}, nil
}
