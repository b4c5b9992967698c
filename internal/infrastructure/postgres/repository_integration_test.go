//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuwago/lending/internal/application/dto"
	"github.com/kuwago/lending/internal/application/usecase"
	"github.com/kuwago/lending/internal/domain/apperr"
	"github.com/kuwago/lending/internal/domain/model"
	"github.com/kuwago/lending/internal/domain/port"
	"github.com/kuwago/lending/internal/domain/service"
	"github.com/kuwago/lending/internal/domain/valueobject"
	"github.com/kuwago/lending/internal/infrastructure/postgres"
	"github.com/kuwago/lending/pkg/testutil"
)

var allTables = []string{"outbox", "credit_scores", "payments", "payment_schedules", "loan_agreements", "loan_requests"}

func setup(t *testing.T) (*testutil.Postgres, *postgres.UnitOfWork) {
	t.Helper()
	pc := testutil.StartPostgres(context.Background(), t, "migrations")
	return pc, postgres.NewUnitOfWork(pc.Pool)
}

func approve(t *testing.T, uow port.UnitOfWork, now time.Time) dto.ScheduleResponse {
	t.Helper()
	clock := usecase.WithClock(func() time.Time { return now })
	ctx := context.Background()

	req, err := usecase.NewSubmitLoanRequest(uow, clock).Execute(ctx, dto.SubmitLoanRequestRequest{
		BorrowerID: testutil.TestBorrowerID, LoanType: "Business", Amount: testutil.Dec("10000"), Purpose: "stock",
	})
	require.NoError(t, err)

	schedule, err := usecase.NewApproveLoan(uow, clock).Execute(ctx, dto.ApproveLoanRequest{
		LoanRequestID: req.ID, LenderID: testutil.TestLenderID,
		Principal: testutil.Dec("10000"), InterestRate: testutil.Dec("10"), TermMonths: 3, Modality: "CASH",
	})
	require.NoError(t, err)
	return schedule
}

func TestPostgres_IntakeAndReconciliation(t *testing.T) {
	pc, uow := setup(t)
	ctx := context.Background()
	schedule := approve(t, uow, testutil.ApprovalDate)

	paidAt := time.Date(2025, time.February, 15, 9, 0, 0, 0, time.UTC)
	receipt, err := usecase.NewSubmitPayment(uow, nil, usecase.WithClock(func() time.Time { return paidAt })).Execute(ctx, dto.SubmitPaymentRequest{
		ScheduleID: schedule.ID, BorrowerID: testutil.TestBorrowerID,
		Amount: testutil.Dec("7333.34"), PaidAt: paidAt, Modality: "CASH",
	})
	require.NoError(t, err)
	assert.Equal(t, 620, *receipt.NewScore)

	repos := postgres.Repositories(pc.Pool)
	stored, err := repos.Schedules.FindByID(ctx, schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, testutil.Date(2025, time.February, 15), stored.DueDates()[0])
	testutil.AssertDecimal(t, "3666.67", stored.MonthlyRequired())

	payments, err := repos.Payments.ListBySchedule(ctx, schedule.ID)
	require.NoError(t, err)
	report := service.BuildScheduleReport(stored, payments)
	assert.Equal(t, valueobject.SlotPaid, report.Slots[0].Status)
	assert.Equal(t, valueobject.SlotAdvanceApplied, report.Slots[1].Status)
	assert.Equal(t, valueobject.SlotUnpaid, report.Slots[2].Status)

	committed, err := repos.Payments.SumCommitted(ctx, schedule.ID)
	require.NoError(t, err)
	testutil.AssertDecimal(t, "7333.34", committed)

	entries, err := repos.Outbox.(*postgres.OutboxRepo).FetchUnpublished(ctx, 100)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	pc.Truncate(t, allTables...)
}

func TestPostgres_VersionedWrites(t *testing.T) {
	pc, uow := setup(t)
	ctx := context.Background()
	repos := postgres.Repositories(pc.Pool)

	inserted, err := repos.CreditScores.InitializeIfAbsent(ctx, model.NewCreditScore(testutil.TestBorrowerID2, testutil.ApprovalDate))
	require.NoError(t, err)
	assert.True(t, inserted)
	again, err := repos.CreditScores.InitializeIfAbsent(ctx, model.NewCreditScore(testutil.TestBorrowerID2, testutil.ApprovalDate))
	require.NoError(t, err)
	assert.False(t, again)

	cs, err := repos.CreditScores.FindByBorrowerID(ctx, testutil.TestBorrowerID2)
	require.NoError(t, err)
	first := cs.RecordRepaymentOutcome(true, testutil.ApprovalDate)
	stale := cs.RecordRepaymentOutcome(false, testutil.ApprovalDate)

	require.NoError(t, repos.CreditScores.Save(ctx, first))
	assert.ErrorIs(t, repos.CreditScores.Save(ctx, stale), port.ErrVersionConflict)

	_, err = repos.CreditScores.FindByBorrowerID(ctx, "nobody")
	assert.True(t, apperr.IsNotFound(err))

	schedule := approve(t, uow, testutil.ApprovalDate)
	agreement, err := repos.Agreements.FindByID(ctx, schedule.AgreementID)
	require.NoError(t, err)
	dup, err := model.NewLoanAgreement(agreement.LoanRequestID(), agreement.BorrowerID(), agreement.LenderID(),
		agreement.Principal(), agreement.InterestRate(), agreement.TermMonths(), agreement.Modality(), testutil.ApprovalDate)
	require.NoError(t, err)
	assert.True(t, apperr.IsConflict(repos.Agreements.Create(ctx, dup)))
}
