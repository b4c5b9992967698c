package usecase

import (
	"context"
	"fmt"

	"github.com/kuwago/lending/internal/application/dto"
	"github.com/kuwago/lending/internal/domain/apperr"
	"github.com/kuwago/lending/internal/domain/event"
	"github.com/kuwago/lending/internal/domain/port"
	"github.com/kuwago/lending/internal/domain/service"
)

// CompletePayment settles a pending electronic payment on the gateway's
// callback and only then grades it. Timeliness compares the payment's own
// timestamp with the next unmet due date as it stood before this payment.
type CompletePayment struct {
	uow  port.UnitOfWork
	opts options
}

func NewCompletePayment(uow port.UnitOfWork, opts ...Option) *CompletePayment {
	return &CompletePayment{uow: uow, opts: newOptions(opts)}
}

func (uc *CompletePayment) Execute(ctx context.Context, req dto.SettlePaymentRequest) (dto.SettlementResponse, error) {
	if req.PaymentID == "" {
		return dto.SettlementResponse{}, apperr.Validation("payment ID is required")
	}

	var (
		resp       dto.SettlementResponse
		scheduleID string
		modality   string
	)
	err := retryOnVersionConflict(func() error {
		now := uc.opts.clock()
		return uc.uow.WithinTransaction(ctx, func(ctx context.Context, repos port.Repositories) error {
			payment, err := repos.Payments.FindByIDForUpdate(ctx, req.PaymentID)
			if err != nil {
				return fmt.Errorf("find payment: %w", err)
			}
			completed, err := payment.Complete(now)
			if err != nil {
				return fmt.Errorf("complete payment: %w", err)
			}

			schedule, err := repos.Schedules.FindByIDForUpdate(ctx, payment.ScheduleID())
			if err != nil {
				return fmt.Errorf("find schedule: %w", err)
			}
			ledger, err := repos.Payments.ListBySchedule(ctx, schedule.ID())
			if err != nil {
				return fmt.Errorf("list payments: %w", err)
			}
			before := service.BuildScheduleReport(schedule, service.SettledOnly(ledger))
			onTime := service.IsOnTime(before, payment.PaidAt())

			if err := repos.Payments.UpdateStatus(ctx, completed); err != nil {
				return fmt.Errorf("update payment: %w", err)
			}
			settled := before.Totals.TotalPaid.Add(completed.Amount())
			outcome, err := applyRepaymentOutcome(ctx, repos, schedule, payment.BorrowerID(), onTime, settled, now)
			if err != nil {
				return err
			}

			evts := append([]event.DomainEvent{}, completed.DomainEvents()...)
			if err := repos.Outbox.Append(ctx, append(evts, outcome.events...)...); err != nil {
				return fmt.Errorf("append outbox: %w", err)
			}

			scheduleID = schedule.ID()
			modality = completed.Modality().String()
			resp = dto.SettlementResponse{
				PaymentID:        completed.ID(),
				Status:           completed.Status().String(),
				RemainingBalance: clampZero(schedule.TotalPayable().Sub(settled)),
				OnTime:           &onTime,
				NewScore:         &outcome.score,
			}
			return nil
		})
	})
	if err != nil {
		return dto.SettlementResponse{}, err
	}

	uc.opts.metrics.PaymentRecorded(modality, resp.Status)
	uc.opts.metrics.CreditScoreUpdated(*resp.OnTime)
	invalidateReport(ctx, uc.opts, scheduleID)
	return resp, nil
}

// CancelPayment abandons a pending electronic payment. Scoring is never
// touched and the amount stops counting toward the schedule's balance.
type CancelPayment struct {
	uow  port.UnitOfWork
	opts options
}

func NewCancelPayment(uow port.UnitOfWork, opts ...Option) *CancelPayment {
	return &CancelPayment{uow: uow, opts: newOptions(opts)}
}

func (uc *CancelPayment) Execute(ctx context.Context, req dto.SettlePaymentRequest) (dto.SettlementResponse, error) {
	if req.PaymentID == "" {
		return dto.SettlementResponse{}, apperr.Validation("payment ID is required")
	}
	now := uc.opts.clock()

	var (
		resp       dto.SettlementResponse
		scheduleID string
		modality   string
	)
	err := uc.uow.WithinTransaction(ctx, func(ctx context.Context, repos port.Repositories) error {
		payment, err := repos.Payments.FindByIDForUpdate(ctx, req.PaymentID)
		if err != nil {
			return fmt.Errorf("find payment: %w", err)
		}
		cancelled, err := payment.Cancel(now)
		if err != nil {
			return fmt.Errorf("cancel payment: %w", err)
		}
		if err := repos.Payments.UpdateStatus(ctx, cancelled); err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
		if err := repos.Outbox.Append(ctx, cancelled.DomainEvents()...); err != nil {
			return fmt.Errorf("append outbox: %w", err)
		}

		schedule, err := repos.Schedules.FindByID(ctx, payment.ScheduleID())
		if err != nil {
			return fmt.Errorf("find schedule: %w", err)
		}
		settled, err := repos.Payments.SumSettled(ctx, schedule.ID())
		if err != nil {
			return fmt.Errorf("sum settled payments: %w", err)
		}
		scheduleID = schedule.ID()
		modality = cancelled.Modality().String()
		resp = dto.SettlementResponse{
			PaymentID:        cancelled.ID(),
			Status:           cancelled.Status().String(),
			RemainingBalance: clampZero(schedule.TotalPayable().Sub(settled)),
		}
		return nil
	})
	if err != nil {
		return dto.SettlementResponse{}, err
	}

	uc.opts.metrics.PaymentRecorded(modality, resp.Status)
	invalidateReport(ctx, uc.opts, scheduleID)
	return resp, nil
}
