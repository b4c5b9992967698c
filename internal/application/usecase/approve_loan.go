package usecase

import (
	"context"
	"fmt"

	"github.com/kuwago/lending/internal/application/dto"
	"github.com/kuwago/lending/internal/domain/apperr"
	"github.com/kuwago/lending/internal/domain/model"
	"github.com/kuwago/lending/internal/domain/port"
	"github.com/kuwago/lending/internal/domain/service"
	"github.com/kuwago/lending/internal/domain/valueobject"
)

// ApproveLoan provisions the agreement and payment schedule for a pending
// request. The request row is locked for the duration, and the store's
// uniqueness constraints back it up, so at most one schedule exists per loan.
type ApproveLoan struct {
	uow  port.UnitOfWork
	opts options
}

func NewApproveLoan(uow port.UnitOfWork, opts ...Option) *ApproveLoan {
	return &ApproveLoan{uow: uow, opts: newOptions(opts)}
}

func (uc *ApproveLoan) Execute(ctx context.Context, req dto.ApproveLoanRequest) (dto.ScheduleResponse, error) {
	if req.LoanRequestID == "" {
		return dto.ScheduleResponse{}, apperr.Validation("loan request ID is required")
	}
	modality, err := valueobject.NewPaymentModality(req.Modality)
	if err != nil {
		return dto.ScheduleResponse{}, apperr.Wrap(apperr.KindValidation, err, "invalid payment modality %q", req.Modality)
	}
	if err := model.ValidateTerms(req.Principal, req.InterestRate, req.TermMonths); err != nil {
		return dto.ScheduleResponse{}, err
	}

	var (
		agreement model.LoanAgreement
		schedule  model.PaymentSchedule
	)
	err = retryOnVersionConflict(func() error {
		var txErr error
		agreement, schedule, txErr = uc.approve(ctx, req, modality)
		return txErr
	})
	if err != nil {
		return dto.ScheduleResponse{}, err
	}

	uc.opts.metrics.ScheduleProvisioned()
	return toScheduleResponse(agreement, schedule), nil
}

func (uc *ApproveLoan) approve(ctx context.Context, req dto.ApproveLoanRequest, modality valueobject.PaymentModality) (model.LoanAgreement, model.PaymentSchedule, error) {
	now := uc.opts.clock()
	var (
		agreement model.LoanAgreement
		schedule  model.PaymentSchedule
	)
	err := uc.uow.WithinTransaction(ctx, func(ctx context.Context, repos port.Repositories) error {
		loanReq, err := repos.LoanRequests.FindByIDForUpdate(ctx, req.LoanRequestID)
		if err != nil {
			return fmt.Errorf("find loan request: %w", err)
		}
		if !loanReq.Status().Equal(valueobject.LoanRequestStatusPending) {
			return apperr.Conflict("loan request %s is already %s", loanReq.ID(), loanReq.Status())
		}

		agreement, err = model.NewLoanAgreement(
			loanReq.ID(), loanReq.BorrowerID(), req.LenderID,
			req.Principal, req.InterestRate, req.TermMonths, modality, now,
		)
		if err != nil {
			return fmt.Errorf("create agreement: %w", err)
		}
		schedule, err = service.ProvisionSchedule(agreement, now, now)
		if err != nil {
			return fmt.Errorf("provision schedule: %w", err)
		}
		approved, err := loanReq.Approve(agreement, schedule, now)
		if err != nil {
			return fmt.Errorf("approve loan request: %w", err)
		}

		if err := repos.Agreements.Create(ctx, agreement); err != nil {
			return fmt.Errorf("save agreement: %w", err)
		}
		if err := repos.Schedules.Create(ctx, schedule); err != nil {
			return fmt.Errorf("save schedule: %w", err)
		}
		if err := repos.LoanRequests.Update(ctx, approved); err != nil {
			return fmt.Errorf("update loan request: %w", err)
		}
		if err := repos.Outbox.Append(ctx, approved.DomainEvents()...); err != nil {
			return fmt.Errorf("append outbox: %w", err)
		}
		return nil
	})
	return agreement, schedule, err
}

// DenyLoan declines a pending request.
type DenyLoan struct {
	uow  port.UnitOfWork
	opts options
}

func NewDenyLoan(uow port.UnitOfWork, opts ...Option) *DenyLoan {
	return &DenyLoan{uow: uow, opts: newOptions(opts)}
}

func (uc *DenyLoan) Execute(ctx context.Context, req dto.DenyLoanRequest) (dto.LoanRequestResponse, error) {
	if req.LoanRequestID == "" {
		return dto.LoanRequestResponse{}, apperr.Validation("loan request ID is required")
	}
	now := uc.opts.clock()

	var denied model.LoanRequest
	err := uc.uow.WithinTransaction(ctx, func(ctx context.Context, repos port.Repositories) error {
		loanReq, err := repos.LoanRequests.FindByIDForUpdate(ctx, req.LoanRequestID)
		if err != nil {
			return fmt.Errorf("find loan request: %w", err)
		}
		denied, err = loanReq.Deny(req.LenderID, req.Reason, now)
		if err != nil {
			return fmt.Errorf("deny loan request: %w", err)
		}
		if err := repos.LoanRequests.Update(ctx, denied); err != nil {
			return fmt.Errorf("update loan request: %w", err)
		}
		if err := repos.Outbox.Append(ctx, denied.DomainEvents()...); err != nil {
			return fmt.Errorf("append outbox: %w", err)
		}
		return nil
	})
	if err != nil {
		return dto.LoanRequestResponse{}, err
	}
	return toLoanRequestResponse(denied, ""), nil
}

// GetLoanRequest returns a request and, once approved, its schedule id.
type GetLoanRequest struct {
	repos port.Repositories
}

func NewGetLoanRequest(repos port.Repositories) *GetLoanRequest {
	return &GetLoanRequest{repos: repos}
}

func (uc *GetLoanRequest) Execute(ctx context.Context, req dto.GetLoanRequestRequest) (dto.LoanRequestResponse, error) {
	loanReq, err := uc.repos.LoanRequests.FindByID(ctx, req.LoanRequestID)
	if err != nil {
		return dto.LoanRequestResponse{}, fmt.Errorf("find loan request: %w", err)
	}
	if loanReq.Status().Equal(valueobject.LoanRequestStatusPending) || loanReq.Status().Equal(valueobject.LoanRequestStatusDenied) {
		return toLoanRequestResponse(loanReq, ""), nil
	}

	agreement, err := uc.repos.Agreements.FindByLoanRequestID(ctx, loanReq.ID())
	if err != nil {
		return dto.LoanRequestResponse{}, fmt.Errorf("find agreement: %w", err)
	}
	schedule, err := uc.repos.Schedules.FindByAgreementID(ctx, agreement.ID())
	if err != nil {
		return dto.LoanRequestResponse{}, fmt.Errorf("find schedule: %w", err)
	}
	return toLoanRequestResponse(loanReq, schedule.ID()), nil
}
