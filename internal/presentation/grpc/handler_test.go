package grpc

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kuwago/lending/internal/application/dto"
	"github.com/kuwago/lending/internal/application/usecase"
	"github.com/kuwago/lending/internal/infrastructure/adapter"
	"github.com/kuwago/lending/internal/infrastructure/memory"
	"github.com/kuwago/lending/pkg/auth"
	"github.com/kuwago/lending/pkg/testutil"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestHandler(t *testing.T, now time.Time) *LendingHandler {
	t.Helper()
	store := memory.NewStore()
	set := usecase.NewSet(store, store.Repositories(), adapter.NewStubCheckoutGateway(),
		usecase.WithClock(func() time.Time { return now }),
		usecase.WithLogger(discard),
	)
	return NewLendingHandler(set, discard)
}

func as(userID string, roles ...string) context.Context {
	return auth.ContextWithClaims(context.Background(), &auth.Claims{UserID: userID, Roles: roles})
}

func borrower() context.Context { return as(testutil.TestBorrowerID, auth.RoleBorrower) }
func lender() context.Context   { return as(testutil.TestLenderID, auth.RoleLender) }

func assertCode(t *testing.T, want codes.Code, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, status.Code(err), err.Error())
}

// approvedSchedule files and approves an 11000-payable three-month loan.
func approvedSchedule(t *testing.T, h *LendingHandler) *dto.ScheduleResponse {
	t.Helper()
	req, err := h.SubmitLoanRequest(borrower(), &dto.SubmitLoanRequestRequest{
		BorrowerID: "someone-else",
		LoanType:   "Business",
		Amount:     testutil.Dec("10000"),
		Purpose:    "sari-sari store",
	})
	require.NoError(t, err)
	assert.Equal(t, testutil.TestBorrowerID, req.BorrowerID)

	sched, err := h.ApproveLoan(lender(), &dto.ApproveLoanRequest{
		LoanRequestID: req.ID,
		Principal:     testutil.Dec("10000"),
		InterestRate:  testutil.Dec("10"),
		TermMonths:    3,
		Modality:      "CASH",
	})
	require.NoError(t, err)
	assert.Equal(t, testutil.TestLenderID, sched.LenderID)
	return sched
}

func TestLendingHandler_Origination(t *testing.T) {
	h := newTestHandler(t, testutil.ApprovalDate)
	sched := approvedSchedule(t, h)
	testutil.AssertDecimal(t, "11000", sched.TotalPayable)

	t.Run("borrowers cannot approve", func(t *testing.T) {
		_, err := h.ApproveLoan(borrower(), &dto.ApproveLoanRequest{LoanRequestID: sched.LoanRequestID})
		assertCode(t, codes.PermissionDenied, err)
	})

	t.Run("second approval is a failed precondition", func(t *testing.T) {
		_, err := h.ApproveLoan(lender(), &dto.ApproveLoanRequest{
			LoanRequestID: sched.LoanRequestID,
			Principal:     testutil.Dec("10000"),
			InterestRate:  testutil.Dec("10"),
			TermMonths:    3,
			Modality:      "CASH",
		})
		assertCode(t, codes.FailedPrecondition, err)
	})

	t.Run("owner and lender can read the request", func(t *testing.T) {
		resp, err := h.GetLoanRequest(borrower(), &dto.GetLoanRequestRequest{LoanRequestID: sched.LoanRequestID})
		require.NoError(t, err)
		assert.Equal(t, sched.ID, resp.ScheduleID)

		_, err = h.GetLoanRequest(lender(), &dto.GetLoanRequestRequest{LoanRequestID: sched.LoanRequestID})
		require.NoError(t, err)

		_, err = h.GetLoanRequest(as(testutil.TestBorrowerID2, auth.RoleBorrower), &dto.GetLoanRequestRequest{LoanRequestID: sched.LoanRequestID})
		assertCode(t, codes.PermissionDenied, err)
	})

	t.Run("deny an unknown request", func(t *testing.T) {
		_, err := h.DenyLoan(lender(), &dto.DenyLoanRequest{LoanRequestID: "missing", Reason: "no"})
		assertCode(t, codes.NotFound, err)
	})

	t.Run("missing credentials", func(t *testing.T) {
		_, err := h.SubmitLoanRequest(context.Background(), &dto.SubmitLoanRequestRequest{})
		assertCode(t, codes.Unauthenticated, err)
	})
}

func TestLendingHandler_Payments(t *testing.T) {
	h := newTestHandler(t, time.Date(2025, time.February, 10, 8, 0, 0, 0, time.UTC))
	sched := approvedSchedule(t, h)

	receipt, err := h.SubmitPayment(borrower(), &dto.SubmitPaymentRequest{
		ScheduleID: sched.ID,
		Amount:     testutil.Dec("3666.67"),
		Modality:   "CASH",
	})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", receipt.Status)
	testutil.AssertDecimal(t, "7333.33", receipt.RemainingBalance)

	t.Run("other borrowers are refused", func(t *testing.T) {
		_, err := h.SubmitPayment(as(testutil.TestBorrowerID2, auth.RoleBorrower), &dto.SubmitPaymentRequest{
			ScheduleID: sched.ID,
			Amount:     testutil.Dec("1"),
			Modality:   "CASH",
		})
		assertCode(t, codes.PermissionDenied, err)

		_, err = h.GetScheduleReport(as(testutil.TestBorrowerID2, auth.RoleBorrower), &dto.GetScheduleReportRequest{ScheduleID: sched.ID})
		assertCode(t, codes.PermissionDenied, err)
	})

	t.Run("overpayment is a failed precondition", func(t *testing.T) {
		_, err := h.SubmitPayment(borrower(), &dto.SubmitPaymentRequest{
			ScheduleID: sched.ID,
			Amount:     testutil.Dec("7333.34"),
			Modality:   "CASH",
		})
		assertCode(t, codes.FailedPrecondition, err)

		_, err = h.SubmitPayment(borrower(), &dto.SubmitPaymentRequest{
			ScheduleID: sched.ID,
			Amount:     testutil.Dec("-5"),
			Modality:   "CASH",
		})
		assertCode(t, codes.InvalidArgument, err)
	})

	t.Run("report and ledger", func(t *testing.T) {
		report, err := h.GetScheduleReport(borrower(), &dto.GetScheduleReportRequest{ScheduleID: sched.ID, BorrowerID: "ignored"})
		require.NoError(t, err)
		assert.Equal(t, "Paid", report.Slots[0].Status)
		testutil.AssertDecimal(t, "7333.33", report.Totals.RemainingBalance)

		list, err := h.ListPayments(borrower(), &dto.ListPaymentsRequest{ScheduleID: sched.ID})
		require.NoError(t, err)
		require.Len(t, list.Payments, 1)
		assert.Equal(t, receipt.PaymentID, list.Payments[0].ID)
	})

	t.Run("settlement requires the gateway role", func(t *testing.T) {
		_, err := h.CompletePayment(borrower(), &dto.SettlePaymentRequest{PaymentID: receipt.PaymentID})
		assertCode(t, codes.PermissionDenied, err)

		_, err = h.CompletePayment(as("checkout", auth.RoleGateway), &dto.SettlePaymentRequest{PaymentID: receipt.PaymentID})
		assertCode(t, codes.FailedPrecondition, err)

		_, err = h.CancelPayment(as("checkout", auth.RoleGateway), &dto.SettlePaymentRequest{PaymentID: "missing"})
		assertCode(t, codes.NotFound, err)
	})
}

func TestLendingHandler_LenderActsForBorrower(t *testing.T) {
	h := newTestHandler(t, time.Date(2025, time.February, 10, 8, 0, 0, 0, time.UTC))
	sched := approvedSchedule(t, h)
	otherLender := as("lender-456", auth.RoleLender)

	receipt, err := h.SubmitPayment(lender(), &dto.SubmitPaymentRequest{
		ScheduleID: sched.ID,
		BorrowerID: testutil.TestBorrowerID,
		Amount:     testutil.Dec("3666.67"),
		Modality:   "CASH",
	})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", receipt.Status)
	require.NotNil(t, receipt.NewScore)

	t.Run("funding lender reads the report and ledger", func(t *testing.T) {
		report, err := h.GetScheduleReport(lender(), &dto.GetScheduleReportRequest{ScheduleID: sched.ID, BorrowerID: testutil.TestBorrowerID})
		require.NoError(t, err)
		assert.Equal(t, "Paid", report.Slots[0].Status)
		testutil.AssertDecimal(t, "7333.33", report.Totals.RemainingBalance)

		list, err := h.ListPayments(lender(), &dto.ListPaymentsRequest{ScheduleID: sched.ID, BorrowerID: testutil.TestBorrowerID})
		require.NoError(t, err)
		require.Len(t, list.Payments, 1)
		assert.Equal(t, receipt.PaymentID, list.Payments[0].ID)
		assert.Equal(t, testutil.TestBorrowerID, list.Payments[0].BorrowerID)
	})

	t.Run("lender must name the schedule's borrower", func(t *testing.T) {
		_, err := h.SubmitPayment(lender(), &dto.SubmitPaymentRequest{
			ScheduleID: sched.ID,
			BorrowerID: testutil.TestBorrowerID2,
			Amount:     testutil.Dec("1"),
			Modality:   "CASH",
		})
		assertCode(t, codes.PermissionDenied, err)
	})

	t.Run("lender cannot list a borrower's payments across schedules", func(t *testing.T) {
		_, err := h.ListPayments(lender(), &dto.ListPaymentsRequest{BorrowerID: testutil.TestBorrowerID})
		assertCode(t, codes.InvalidArgument, err)
	})

	t.Run("other lenders are refused", func(t *testing.T) {
		_, err := h.SubmitPayment(otherLender, &dto.SubmitPaymentRequest{
			ScheduleID: sched.ID,
			BorrowerID: testutil.TestBorrowerID,
			Amount:     testutil.Dec("1"),
			Modality:   "CASH",
		})
		assertCode(t, codes.PermissionDenied, err)

		_, err = h.GetScheduleReport(otherLender, &dto.GetScheduleReportRequest{ScheduleID: sched.ID, BorrowerID: testutil.TestBorrowerID})
		assertCode(t, codes.PermissionDenied, err)

		_, err = h.ListPayments(otherLender, &dto.ListPaymentsRequest{ScheduleID: sched.ID, BorrowerID: testutil.TestBorrowerID})
		assertCode(t, codes.PermissionDenied, err)
	})

	t.Run("borrowers cannot pose as the lender", func(t *testing.T) {
		_, err := h.GetScheduleReport(as(testutil.TestBorrowerID2, auth.RoleBorrower), &dto.GetScheduleReportRequest{
			ScheduleID: sched.ID,
			BorrowerID: testutil.TestBorrowerID,
			LenderID:   testutil.TestLenderID,
		})
		assertCode(t, codes.PermissionDenied, err)
	})
}

func TestLendingHandler_GetCreditScore(t *testing.T) {
	h := newTestHandler(t, testutil.ApprovalDate)
	approvedSchedule(t, h)

	own, err := h.GetCreditScore(borrower(), &dto.GetCreditScoreRequest{BorrowerID: testutil.TestBorrowerID2})
	require.NoError(t, err)
	assert.Equal(t, testutil.TestBorrowerID, own.BorrowerID)
	assert.Equal(t, 600, own.Score)

	viaLender, err := h.GetCreditScore(lender(), &dto.GetCreditScoreRequest{BorrowerID: testutil.TestBorrowerID})
	require.NoError(t, err)
	assert.Equal(t, own.Score, viaLender.Score)

	_, err = h.GetCreditScore(lender(), &dto.GetCreditScoreRequest{BorrowerID: testutil.TestBorrowerID2})
	assertCode(t, codes.NotFound, err)

	_, err = h.GetCreditScore(as("checkout", auth.RoleGateway), &dto.GetCreditScoreRequest{})
	assertCode(t, codes.PermissionDenied, err)
}
