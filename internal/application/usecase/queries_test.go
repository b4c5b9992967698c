package usecase_test

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
	"github.com/kuwago/lending/pkg/testutil"
)

func TestGetScheduleReport_Execute(t *testing.T) {
	t.Run("reconciles and caches", func(t *testing.T) {
		f := newFixture(t)
		schedule := f.approvedLoan(t, testutil.TestBorrowerID)
		f.pay(t, schedule, "7333.34", "CASH", testutil.Date(2025, time.February, 15).Add(9*time.Hour))

		uc := usecase.NewGetScheduleReport(f.repos().Schedules, f.repos().Payments, f.options()...)
		report, err := uc.Execute(context.Background(), dto.GetScheduleReportRequest{ScheduleID: schedule.ID, BorrowerID: testutil.TestBorrowerID})
		require.NoError(t, err)

		require.Len(t, report.Slots, 3)
		assert.Equal(t, "Paid", report.Slots[0].Status)
		assert.Equal(t, "AdvanceApplied", report.Slots[1].Status)
		assert.Equal(t, "Unpaid", report.Slots[2].Status)
		testutil.AssertDecimal(t, "3666.67", report.Slots[1].Actual)
		assert.Equal(t, []time.Time{testutil.Date(2025, time.April, 15)}, report.UnpaidDueDates)
		require.NotNil(t, report.NextUnmetDueDate)
		assert.Equal(t, testutil.Date(2025, time.April, 15), *report.NextUnmetDueDate)
		testutil.AssertDecimal(t, "7333.34", report.Totals.TotalPaid)
		testutil.AssertDecimal(t, "3666.66", report.Totals.RemainingBalance)
		assert.Len(t, f.cache.stored, 1)
	})

	t.Run("serves a cached report without reading payments", func(t *testing.T) {
		f := newFixture(t)
		schedule := f.approvedLoan(t, testutil.TestBorrowerID)
		payments := &mockPaymentRepository{
			listByScheduleFunc: func(context.Context, string) ([]model.Payment, error) {
				t.Fatal("payments must not be read on a cache hit")
				return nil, nil
			},
		}
		f.cache.getFunc = func(_ context.Context, id string) (model.ScheduleReport, bool, error) {
			return model.ScheduleReport{ScheduleID: id, BorrowerID: testutil.TestBorrowerID}, true, nil
		}

		report, err := usecase.NewGetScheduleReport(f.repos().Schedules, payments, f.options()...).Execute(context.Background(),
			dto.GetScheduleReportRequest{ScheduleID: schedule.ID, BorrowerID: testutil.TestBorrowerID})
		require.NoError(t, err)
		assert.Equal(t, schedule.ID, report.ScheduleID)
	})

	t.Run("rejects other borrowers before reading payments", func(t *testing.T) {
		f := newFixture(t)
		schedule := f.approvedLoan(t, testutil.TestBorrowerID)
		payments := &mockPaymentRepository{
			listByScheduleFunc: func(context.Context, string) ([]model.Payment, error) {
				t.Fatal("payments must not be read for an unauthorized requester")
				return nil, nil
			},
		}

		_, err := usecase.NewGetScheduleReport(f.repos().Schedules, payments).Execute(context.Background(),
			dto.GetScheduleReportRequest{ScheduleID: schedule.ID, BorrowerID: testutil.TestBorrowerID2})
		assert.True(t, apperr.IsUnauthorized(err))
	})

	t.Run("unknown schedule", func(t *testing.T) {
		f := newFixture(t)
		_, err := usecase.NewGetScheduleReport(f.repos().Schedules, f.repos().Payments).Execute(context.Background(),
			dto.GetScheduleReportRequest{ScheduleID: "missing", BorrowerID: testutil.TestBorrowerID})
		assert.True(t, apperr.IsNotFound(err))
	})
}

func TestListPayments_Execute(t *testing.T) {
	f := newFixture(t)
	first := f.approvedLoan(t, testutil.TestBorrowerID)
	second := f.approvedLoan(t, testutil.TestBorrowerID)
	f.pay(t, first, "200", "CASH", afterDue1)
	f.pay(t, second, "100", "ECASH", beforeDue1)
	f.pay(t, first, "300", "CASH", beforeDue1)

	uc := usecase.NewListPayments(f.repos().Schedules, f.repos().Payments)
	ctx := context.Background()

	bySchedule, err := uc.Execute(ctx, dto.ListPaymentsRequest{ScheduleID: first.ID, BorrowerID: testutil.TestBorrowerID})
	require.NoError(t, err)
	require.Len(t, bySchedule.Payments, 2)
	testutil.AssertDecimal(t, "300", bySchedule.Payments[0].Amount)
	testutil.AssertDecimal(t, "200", bySchedule.Payments[1].Amount)

	byBorrower, err := uc.Execute(ctx, dto.ListPaymentsRequest{BorrowerID: testutil.TestBorrowerID})
	require.NoError(t, err)
	assert.Len(t, byBorrower.Payments, 3)

	_, err = uc.Execute(ctx, dto.ListPaymentsRequest{ScheduleID: first.ID, BorrowerID: testutil.TestBorrowerID2})
	assert.True(t, apperr.IsUnauthorized(err))

	_, err = uc.Execute(ctx, dto.ListPaymentsRequest{})
	assert.True(t, apperr.IsValidation(err))
}

func TestGetCreditScore_Execute(t *testing.T) {
	f := newFixture(t)
	schedule := f.approvedLoan(t, testutil.TestBorrowerID)
	f.pay(t, schedule, "100", "CASH", beforeDue1)

	uc := usecase.NewGetCreditScore(f.repos().CreditScores)
	resp, err := uc.Execute(context.Background(), dto.GetCreditScoreRequest{BorrowerID: testutil.TestBorrowerID})
	require.NoError(t, err)
	assert.Equal(t, 620, resp.Score)
	assert.Equal(t, "Fair", resp.Category)
	assert.Equal(t, 1, resp.TotalLoans)

	_, err = uc.Execute(context.Background(), dto.GetCreditScoreRequest{BorrowerID: testutil.TestBorrowerID2})
	assert.True(t, apperr.IsNotFound(err))
}
