package usecase

import (
	"context"
	"fmt"

	"github.com/kuwago/lending/internal/application/dto"
	"github.com/kuwago/lending/internal/domain/event"
	"github.com/kuwago/lending/internal/domain/model"
	"github.com/kuwago/lending/internal/domain/port"
)

// SubmitLoanRequest files a borrower's request and makes sure the borrower
// has a credit score to be graded against.
type SubmitLoanRequest struct {
	uow  port.UnitOfWork
	opts options
}

func NewSubmitLoanRequest(uow port.UnitOfWork, opts ...Option) *SubmitLoanRequest {
	return &SubmitLoanRequest{uow: uow, opts: newOptions(opts)}
}

func (uc *SubmitLoanRequest) Execute(ctx context.Context, req dto.SubmitLoanRequestRequest) (dto.LoanRequestResponse, error) {
	now := uc.opts.clock()

	loanReq, err := model.NewLoanRequest(req.BorrowerID, req.LoanType, req.Amount, req.Purpose, now)
	if err != nil {
		return dto.LoanRequestResponse{}, fmt.Errorf("create loan request: %w", err)
	}
	score, err := model.NewCreditScore(loanReq.BorrowerID(), now)
	if err != nil {
		return dto.LoanRequestResponse{}, fmt.Errorf("create credit score: %w", err)
	}

	err = uc.uow.WithinTransaction(ctx, func(ctx context.Context, repos port.Repositories) error {
		if err := repos.LoanRequests.Create(ctx, loanReq); err != nil {
			return fmt.Errorf("save loan request: %w", err)
		}
		evts := append([]event.DomainEvent{}, loanReq.DomainEvents()...)

		inserted, err := repos.CreditScores.InitializeIfAbsent(ctx, score)
		if err != nil {
			return fmt.Errorf("initialize credit score: %w", err)
		}
		if inserted {
			evts = append(evts, score.DomainEvents()...)
		}

		if err := repos.Outbox.Append(ctx, evts...); err != nil {
			return fmt.Errorf("append outbox: %w", err)
		}
		return nil
	})
	if err != nil {
		return dto.LoanRequestResponse{}, err
	}

	return toLoanRequestResponse(loanReq, ""), nil
}
