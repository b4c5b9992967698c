package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kuwago/lending/internal/application/dto"
	"github.com/kuwago/lending/internal/domain/apperr"
	"github.com/kuwago/lending/internal/domain/event"
	"github.com/kuwago/lending/internal/domain/model"
	"github.com/kuwago/lending/internal/domain/port"
	"github.com/kuwago/lending/internal/domain/service"
	"github.com/kuwago/lending/internal/domain/valueobject"
	"github.com/kuwago/lending/pkg/money"
)

// SubmitPayment is the payment intake. Everything it writes (the payment, the
// credit score outcome for cash, and the outbox events) commits in one
// transaction under the schedule's row lock.
type SubmitPayment struct {
	uow     port.UnitOfWork
	gateway port.CheckoutGateway
	opts    options
}

func NewSubmitPayment(uow port.UnitOfWork, gateway port.CheckoutGateway, opts ...Option) *SubmitPayment {
	return &SubmitPayment{uow: uow, gateway: gateway, opts: newOptions(opts)}
}

func (uc *SubmitPayment) Execute(ctx context.Context, req dto.SubmitPaymentRequest) (dto.PaymentReceipt, error) {
	amount := money.Round(req.Amount)
	if !amount.IsPositive() {
		return dto.PaymentReceipt{}, apperr.Validation("amount must be positive")
	}
	modality, err := valueobject.NewPaymentModality(req.Modality)
	if err != nil {
		return dto.PaymentReceipt{}, apperr.Wrap(apperr.KindValidation, err, "invalid payment modality %q", req.Modality)
	}
	if req.ScheduleID == "" {
		return dto.PaymentReceipt{}, apperr.Validation("schedule ID is required")
	}

	var receipt dto.PaymentReceipt
	err = retryOnVersionConflict(func() error {
		var txErr error
		receipt, txErr = uc.submit(ctx, req, amount, modality)
		return txErr
	})
	if err != nil {
		return dto.PaymentReceipt{}, err
	}

	uc.opts.metrics.PaymentRecorded(modality.String(), receipt.Status)
	if receipt.OnTime != nil {
		uc.opts.metrics.CreditScoreUpdated(*receipt.OnTime)
	}
	invalidateReport(ctx, uc.opts, req.ScheduleID)

	uc.opts.logger.DebugContext(ctx, "payment recorded",
		"payment_id", receipt.PaymentID,
		"schedule_id", receipt.ScheduleID,
		"status", receipt.Status,
		"remaining_balance", receipt.RemainingBalance.String(),
	)
	return receipt, nil
}

func (uc *SubmitPayment) submit(ctx context.Context, req dto.SubmitPaymentRequest, amount decimal.Decimal, modality valueobject.PaymentModality) (dto.PaymentReceipt, error) {
	now := uc.opts.clock()
	var receipt dto.PaymentReceipt

	err := uc.uow.WithinTransaction(ctx, func(ctx context.Context, repos port.Repositories) error {
		schedule, err := repos.Schedules.FindByIDForUpdate(ctx, req.ScheduleID)
		if err != nil {
			return fmt.Errorf("find schedule: %w", err)
		}
		if err := authorizeScheduleAccess(schedule, req.BorrowerID, req.LenderID); err != nil {
			return err
		}

		committed, err := repos.Payments.SumCommitted(ctx, schedule.ID())
		if err != nil {
			return fmt.Errorf("sum payments: %w", err)
		}
		remaining := schedule.TotalPayable().Sub(committed)
		if amount.GreaterThan(remaining) {
			return apperr.Conflict("payment of %s exceeds the remaining balance of %s",
				money.Format(amount), money.Format(clampZero(remaining)))
		}

		ledger, err := repos.Payments.ListBySchedule(ctx, schedule.ID())
		if err != nil {
			return fmt.Errorf("list payments: %w", err)
		}
		report := service.BuildScheduleReport(schedule, service.SettledOnly(ledger))
		onTime := service.IsOnTime(report, now)

		payment, err := model.NewPayment(schedule.ID(), req.BorrowerID, amount, req.PaidAt, req.Notes, modality, now)
		if err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		receipt = dto.PaymentReceipt{
			PaymentID:        payment.ID(),
			ScheduleID:       schedule.ID(),
			Amount:           amount,
			RemainingBalance: remaining.Sub(amount),
		}

		if !modality.SettlesImmediately() {
			ref, err := uc.gateway.CreateCheckout(ctx, port.CheckoutRequest{
				PaymentID:  payment.ID(),
				ScheduleID: schedule.ID(),
				BorrowerID: req.BorrowerID,
				Amount:     amount,
				Currency:   money.PHP.Code(),
			})
			if err != nil {
				return fmt.Errorf("create checkout: %w", err)
			}
			if payment, err = payment.WithCheckoutReference(ref, now); err != nil {
				return fmt.Errorf("attach checkout reference: %w", err)
			}
			receipt.CheckoutRef = ref
		}

		if err := repos.Payments.Create(ctx, payment); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}
		receipt.Status = payment.Status().String()
		evts := append([]event.DomainEvent{}, payment.DomainEvents()...)

		if payment.Status().IsSettled() {
			settled, err := repos.Payments.SumSettled(ctx, schedule.ID())
			if err != nil {
				return fmt.Errorf("sum settled payments: %w", err)
			}
			outcome, err := applyRepaymentOutcome(ctx, repos, schedule, req.BorrowerID, onTime, settled, now)
			if err != nil {
				return err
			}
			evts = append(evts, outcome.events...)
			receipt.OnTime = &onTime
			receipt.NewScore = &outcome.score
		}

		if err := repos.Outbox.Append(ctx, evts...); err != nil {
			return fmt.Errorf("append outbox: %w", err)
		}
		return nil
	})
	return receipt, err
}

type repaymentOutcome struct {
	score  int
	events []event.DomainEvent
}

// applyRepaymentOutcome grades a settled payment against the borrower's
// score and closes the loan request once the settled total (including the
// payment just written) covers the schedule.
func applyRepaymentOutcome(
	ctx context.Context,
	repos port.Repositories,
	schedule model.PaymentSchedule,
	borrowerID string,
	onTime bool,
	settledTotal decimal.Decimal,
	now time.Time,
) (repaymentOutcome, error) {
	score, err := repos.CreditScores.FindByBorrowerIDForUpdate(ctx, borrowerID)
	if err != nil {
		return repaymentOutcome{}, fmt.Errorf("find credit score: %w", err)
	}
	updated := score.RecordRepaymentOutcome(onTime, now)
	if err := repos.CreditScores.Save(ctx, updated); err != nil {
		return repaymentOutcome{}, fmt.Errorf("save credit score: %w", err)
	}
	out := repaymentOutcome{score: updated.Score(), events: updated.DomainEvents()}

	if settledTotal.LessThan(schedule.TotalPayable()) {
		return out, nil
	}
	agreement, err := repos.Agreements.FindByID(ctx, schedule.AgreementID())
	if err != nil {
		return repaymentOutcome{}, fmt.Errorf("find agreement: %w", err)
	}
	loanReq, err := repos.LoanRequests.FindByIDForUpdate(ctx, agreement.LoanRequestID())
	if err != nil {
		return repaymentOutcome{}, fmt.Errorf("find loan request: %w", err)
	}
	if !loanReq.Status().Equal(valueobject.LoanRequestStatusActive) {
		return out, nil
	}
	completed, err := loanReq.Complete(now)
	if err != nil {
		return repaymentOutcome{}, fmt.Errorf("complete loan request: %w", err)
	}
	if err := repos.LoanRequests.Update(ctx, completed); err != nil {
		return repaymentOutcome{}, fmt.Errorf("update loan request: %w", err)
	}
	return out, nil
}

// authorizeScheduleAccess admits the schedule's borrower, or its funding
// lender acting for that borrower.
func authorizeScheduleAccess(schedule model.PaymentSchedule, borrowerID, lenderID string) error {
	if lenderID != "" && !schedule.ServicedBy(lenderID) {
		return apperr.Unauthorized("schedule %s is not serviced by lender %s", schedule.ID(), lenderID)
	}
	if !schedule.OwnedBy(borrowerID) {
		return apperr.Unauthorized("schedule %s does not belong to borrower %s", schedule.ID(), borrowerID)
	}
	return nil
}

func invalidateReport(ctx context.Context, o options, scheduleID string) {
	if o.cache == nil {
		return
	}
	if err := o.cache.Invalidate(ctx, scheduleID); err != nil {
		o.logger.WarnContext(ctx, "invalidate report cache", "schedule_id", scheduleID, "error", err)
	}
}
