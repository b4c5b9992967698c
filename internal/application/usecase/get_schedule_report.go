package usecase

import (
	"context"
	"fmt"

	"github.com/kuwago/lending/internal/application/dto"
	"github.com/kuwago/lending/internal/domain/apperr"
	"github.com/kuwago/lending/internal/domain/port"
	"github.com/kuwago/lending/internal/domain/service"
)

// GetScheduleReport reconciles a schedule for its borrower or funding lender.
// Access is checked before any payment is read. Reports may come from a short-lived cache.
type GetScheduleReport struct {
	schedules port.PaymentScheduleRepository
	payments  port.PaymentRepository
	opts      options
}

func NewGetScheduleReport(schedules port.PaymentScheduleRepository, payments port.PaymentRepository, opts ...Option) *GetScheduleReport {
	return &GetScheduleReport{schedules: schedules, payments: payments, opts: newOptions(opts)}
}

func (uc *GetScheduleReport) Execute(ctx context.Context, req dto.GetScheduleReportRequest) (dto.ScheduleReportResponse, error) {
	if req.ScheduleID == "" {
		return dto.ScheduleReportResponse{}, apperr.Validation("schedule ID is required")
	}
	schedule, err := uc.schedules.FindByID(ctx, req.ScheduleID)
	if err != nil {
		return dto.ScheduleReportResponse{}, fmt.Errorf("find schedule: %w", err)
	}
	if err := authorizeScheduleAccess(schedule, req.BorrowerID, req.LenderID); err != nil {
		return dto.ScheduleReportResponse{}, err
	}

	if uc.opts.cache != nil {
		cached, ok, err := uc.opts.cache.Get(ctx, schedule.ID())
		if err != nil {
			uc.opts.logger.WarnContext(ctx, "read report cache", "schedule_id", schedule.ID(), "error", err)
		} else if ok {
			return toScheduleReportResponse(cached), nil
		}
	}

	payments, err := uc.payments.ListBySchedule(ctx, schedule.ID())
	if err != nil {
		return dto.ScheduleReportResponse{}, fmt.Errorf("list payments: %w", err)
	}
	report := service.BuildScheduleReport(schedule, payments)

	if uc.opts.cache != nil {
		if err := uc.opts.cache.Set(ctx, report); err != nil {
			uc.opts.logger.WarnContext(ctx, "write report cache", "schedule_id", schedule.ID(), "error", err)
		}
	}
	return toScheduleReportResponse(report), nil
}
