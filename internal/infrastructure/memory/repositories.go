package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kuwago/lending/internal/domain/apperr"
	"github.com/kuwago/lending/internal/domain/model"
	"github.com/kuwago/lending/internal/domain/port"
	"github.com/kuwago/lending/internal/domain/service"
)

// ---------------------------------------------------------------------------
// Loan requests
// ---------------------------------------------------------------------------

type loanRequestRepo struct{ access accessor }

func (r *loanRequestRepo) Create(_ context.Context, req model.LoanRequest) error {
	return r.access(func(s *state) error {
		if _, ok := s.requests[req.ID()]; ok {
			return apperr.Conflict("loan request %s already exists", req.ID())
		}
		s.requests[req.ID()] = req.ClearEvents()
		return nil
	})
}

func (r *loanRequestRepo) FindByID(_ context.Context, id string) (model.LoanRequest, error) {
	var out model.LoanRequest
	err := r.access(func(s *state) error {
		req, ok := s.requests[id]
		if !ok {
			return apperr.NotFound("loan request %s not found", id)
		}
		out = req
		return nil
	})
	return out, err
}

func (r *loanRequestRepo) FindByIDForUpdate(ctx context.Context, id string) (model.LoanRequest, error) {
	return r.FindByID(ctx, id)
}

func (r *loanRequestRepo) Update(_ context.Context, req model.LoanRequest) error {
	return r.access(func(s *state) error {
		stored, ok := s.requests[req.ID()]
		if !ok {
			return apperr.NotFound("loan request %s not found", req.ID())
		}
		if stored.Version() != req.Version()-1 {
			return port.ErrVersionConflict
		}
		s.requests[req.ID()] = req.ClearEvents()
		return nil
	})
}

// ---------------------------------------------------------------------------
// Agreements
// ---------------------------------------------------------------------------

type agreementRepo struct{ access accessor }

func (r *agreementRepo) Create(_ context.Context, a model.LoanAgreement) error {
	return r.access(func(s *state) error {
		for _, existing := range s.agreements {
			if existing.LoanRequestID() == a.LoanRequestID() {
				return apperr.Conflict("loan request %s already has an agreement", a.LoanRequestID())
			}
		}
		s.agreements[a.ID()] = a
		return nil
	})
}

func (r *agreementRepo) FindByID(_ context.Context, id string) (model.LoanAgreement, error) {
	var out model.LoanAgreement
	err := r.access(func(s *state) error {
		a, ok := s.agreements[id]
		if !ok {
			return apperr.NotFound("agreement %s not found", id)
		}
		out = a
		return nil
	})
	return out, err
}

func (r *agreementRepo) FindByLoanRequestID(_ context.Context, loanRequestID string) (model.LoanAgreement, error) {
	var out model.LoanAgreement
	err := r.access(func(s *state) error {
		for _, a := range s.agreements {
			if a.LoanRequestID() == loanRequestID {
				out = a
				return nil
			}
		}
		return apperr.NotFound("no agreement for loan request %s", loanRequestID)
	})
	return out, err
}

// ---------------------------------------------------------------------------
// Schedules
// ---------------------------------------------------------------------------

type scheduleRepo struct{ access accessor }

func (r *scheduleRepo) Create(_ context.Context, sched model.PaymentSchedule) error {
	return r.access(func(s *state) error {
		for _, existing := range s.schedules {
			if existing.AgreementID() == sched.AgreementID() {
				return apperr.Conflict("agreement %s already has a payment schedule", sched.AgreementID())
			}
		}
		s.schedules[sched.ID()] = sched
		return nil
	})
}

func (r *scheduleRepo) FindByID(_ context.Context, id string) (model.PaymentSchedule, error) {
	var out model.PaymentSchedule
	err := r.access(func(s *state) error {
		sched, ok := s.schedules[id]
		if !ok {
			return apperr.NotFound("payment schedule %s not found", id)
		}
		out = sched
		return nil
	})
	return out, err
}

func (r *scheduleRepo) FindByIDForUpdate(ctx context.Context, id string) (model.PaymentSchedule, error) {
	return r.FindByID(ctx, id)
}

func (r *scheduleRepo) FindByAgreementID(_ context.Context, agreementID string) (model.PaymentSchedule, error) {
	var out model.PaymentSchedule
	err := r.access(func(s *state) error {
		for _, sched := range s.schedules {
			if sched.AgreementID() == agreementID {
				out = sched
				return nil
			}
		}
		return apperr.NotFound("no payment schedule for agreement %s", agreementID)
	})
	return out, err
}

// ---------------------------------------------------------------------------
// Payments
// ---------------------------------------------------------------------------

type paymentRepo struct{ access accessor }

func (r *paymentRepo) Create(_ context.Context, p model.Payment) error {
	return r.access(func(s *state) error {
		if _, ok := s.payments[p.ID()]; ok {
			return apperr.Conflict("payment %s already exists", p.ID())
		}
		s.payments[p.ID()] = p.ClearEvents()
		return nil
	})
}

func (r *paymentRepo) FindByID(_ context.Context, id string) (model.Payment, error) {
	var out model.Payment
	err := r.access(func(s *state) error {
		p, ok := s.payments[id]
		if !ok {
			return apperr.NotFound("payment %s not found", id)
		}
		out = p
		return nil
	})
	return out, err
}

func (r *paymentRepo) FindByIDForUpdate(ctx context.Context, id string) (model.Payment, error) {
	return r.FindByID(ctx, id)
}

func (r *paymentRepo) UpdateStatus(_ context.Context, p model.Payment) error {
	return r.access(func(s *state) error {
		stored, ok := s.payments[p.ID()]
		if !ok {
			return apperr.NotFound("payment %s not found", p.ID())
		}
		if stored.Version() != p.Version()-1 {
			return port.ErrVersionConflict
		}
		s.payments[p.ID()] = p.ClearEvents()
		return nil
	})
}

func (r *paymentRepo) ListBySchedule(_ context.Context, scheduleID string) ([]model.Payment, error) {
	return r.filter(func(p model.Payment) bool { return p.ScheduleID() == scheduleID })
}

func (r *paymentRepo) ListByBorrower(_ context.Context, borrowerID string) ([]model.Payment, error) {
	return r.filter(func(p model.Payment) bool { return p.BorrowerID() == borrowerID })
}

func (r *paymentRepo) filter(keep func(model.Payment) bool) ([]model.Payment, error) {
	var out []model.Payment
	err := r.access(func(s *state) error {
		for _, p := range s.payments {
			if keep(p) {
				out = append(out, p)
			}
		}
		return nil
	})
	return service.SortPayments(out), err
}

func (r *paymentRepo) SumCommitted(ctx context.Context, scheduleID string) (decimal.Decimal, error) {
	return r.sum(ctx, scheduleID, func(p model.Payment) bool { return p.Status().CountsTowardBalance() })
}

func (r *paymentRepo) SumSettled(ctx context.Context, scheduleID string) (decimal.Decimal, error) {
	return r.sum(ctx, scheduleID, func(p model.Payment) bool { return p.Status().IsSettled() })
}

func (r *paymentRepo) sum(ctx context.Context, scheduleID string, include func(model.Payment) bool) (decimal.Decimal, error) {
	payments, err := r.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, p := range payments {
		if include(p) {
			total = total.Add(p.Amount())
		}
	}
	return total, nil
}

// ---------------------------------------------------------------------------
// Credit scores
// ---------------------------------------------------------------------------

type creditScoreRepo struct{ access accessor }

func (r *creditScoreRepo) InitializeIfAbsent(_ context.Context, cs model.CreditScore) (bool, error) {
	inserted := false
	err := r.access(func(s *state) error {
		if _, ok := s.scores[cs.BorrowerID()]; ok {
			return nil
		}
		s.scores[cs.BorrowerID()] = cs.ClearEvents()
		inserted = true
		return nil
	})
	return inserted, err
}

func (r *creditScoreRepo) FindByBorrowerID(_ context.Context, borrowerID string) (model.CreditScore, error) {
	var out model.CreditScore
	err := r.access(func(s *state) error {
		cs, ok := s.scores[borrowerID]
		if !ok {
			return apperr.NotFound("credit score for borrower %s not found", borrowerID)
		}
		out = cs
		return nil
	})
	return out, err
}

func (r *creditScoreRepo) FindByBorrowerIDForUpdate(ctx context.Context, borrowerID string) (model.CreditScore, error) {
	return r.FindByBorrowerID(ctx, borrowerID)
}

func (r *creditScoreRepo) Save(_ context.Context, cs model.CreditScore) error {
	return r.access(func(s *state) error {
		stored, ok := s.scores[cs.BorrowerID()]
		if !ok {
			return apperr.NotFound("credit score for borrower %s not found", cs.BorrowerID())
		}
		if stored.Version() != cs.Version()-1 {
			return port.ErrVersionConflict
		}
		s.scores[cs.BorrowerID()] = cs.ClearEvents()
		return nil
	})
}
