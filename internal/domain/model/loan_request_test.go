package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuwago/lending/internal/domain/apperr"
	"github.com/kuwago/lending/internal/domain/event"
	"github.com/kuwago/lending/internal/domain/model"
	"github.com/kuwago/lending/internal/domain/valueobject"
	"github.com/kuwago/lending/pkg/testutil"
)

func newTestRequest(t *testing.T) model.LoanRequest {
	t.Helper()
	req, err := model.NewLoanRequest(testutil.TestBorrowerID, "Business", testutil.Dec("10000"), "sari-sari store inventory", testutil.ApprovalDate)
	require.NoError(t, err)
	return req
}

func newTestAgreement(t *testing.T, req model.LoanRequest) model.LoanAgreement {
	t.Helper()
	agreement, err := model.NewLoanAgreement(
		req.ID(), req.BorrowerID(), testutil.TestLenderID,
		testutil.Dec("10000"), testutil.Dec("10"), 3, valueobject.ModalityCash, testutil.ApprovalDate,
	)
	require.NoError(t, err)
	return agreement
}

func newTestSchedule(t *testing.T, agreement model.LoanAgreement) model.PaymentSchedule {
	t.Helper()
	schedule, err := model.NewPaymentSchedule(
		agreement.ID(), agreement.BorrowerID(), agreement.LenderID(),
		testutil.Dec("11000"), testutil.Dec("3666.67"),
		[]time.Time{
			testutil.Date(2025, time.February, 15),
			testutil.Date(2025, time.March, 15),
			testutil.Date(2025, time.April, 15),
		},
		testutil.ApprovalDate,
	)
	require.NoError(t, err)
	return schedule
}

func TestNewLoanRequest(t *testing.T) {
	req := newTestRequest(t)

	assert.NotEmpty(t, req.ID())
	assert.Equal(t, valueobject.LoanRequestStatusPending, req.Status())
	assert.Equal(t, 1, req.Version())
	assert.Nil(t, req.AgreedAt())
	require.Len(t, req.DomainEvents(), 1)
	assert.Equal(t, "lending.loan_request.submitted", req.DomainEvents()[0].EventType())
}

func TestNewLoanRequest_Validation(t *testing.T) {
	tests := []struct {
		name       string
		borrowerID string
		loanType   string
		amount     string
	}{
		{"missing borrower", "", "Business", "100"},
		{"missing type", testutil.TestBorrowerID, " ", "100"},
		{"zero amount", testutil.TestBorrowerID, "Business", "0"},
		{"rounds to zero", testutil.TestBorrowerID, "Business", "0.004"},
		{"negative amount", testutil.TestBorrowerID, "Business", "-5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := model.NewLoanRequest(tt.borrowerID, tt.loanType, testutil.Dec(tt.amount), "", testutil.ApprovalDate)
			assert.True(t, apperr.IsValidation(err), "got %v", err)
		})
	}
}

func TestLoanRequest_Approve(t *testing.T) {
	req := newTestRequest(t)
	agreement := newTestAgreement(t, req)
	schedule := newTestSchedule(t, agreement)

	approved, err := req.Approve(agreement, schedule, testutil.ApprovalDate)
	require.NoError(t, err)

	assert.Equal(t, valueobject.LoanRequestStatusActive, approved.Status())
	assert.Equal(t, testutil.TestLenderID, approved.LenderID())
	require.NotNil(t, approved.AgreedAt())
	assert.Equal(t, 2, approved.Version())
	require.Len(t, approved.DomainEvents(), 2)

	evt, ok := approved.DomainEvents()[1].(event.LoanApproved)
	require.True(t, ok)
	assert.Equal(t, schedule.ID(), evt.ScheduleID)
	assert.Equal(t, testutil.Date(2025, time.February, 15), evt.FirstDueDate)

	// the original is untouched
	assert.Equal(t, valueobject.LoanRequestStatusPending, req.Status())
	assert.Len(t, req.DomainEvents(), 1)
}

func TestLoanRequest_ApproveTwiceConflicts(t *testing.T) {
	req := newTestRequest(t)
	agreement := newTestAgreement(t, req)
	schedule := newTestSchedule(t, agreement)

	approved, err := req.Approve(agreement, schedule, testutil.ApprovalDate)
	require.NoError(t, err)

	_, err = approved.Approve(agreement, schedule, testutil.ApprovalDate)
	assert.True(t, apperr.IsConflict(err))
}

func TestLoanRequest_Deny(t *testing.T) {
	req := newTestRequest(t)

	denied, err := req.Deny(testutil.TestLenderID, " insufficient documents ", testutil.ApprovalDate)
	require.NoError(t, err)
	assert.Equal(t, valueobject.LoanRequestStatusDenied, denied.Status())
	assert.Equal(t, "insufficient documents", denied.DecisionReason())

	_, err = denied.Deny(testutil.TestLenderID, "again", testutil.ApprovalDate)
	assert.True(t, apperr.IsConflict(err))

	_, err = req.Deny("", "no lender", testutil.ApprovalDate)
	assert.True(t, apperr.IsValidation(err))
}

func TestLoanRequest_Complete(t *testing.T) {
	req := newTestRequest(t)

	_, err := req.Complete(testutil.ApprovalDate)
	assert.ErrorIs(t, err, valueobject.ErrInvalidStatusTransition)

	agreement := newTestAgreement(t, req)
	approved, err := req.Approve(agreement, newTestSchedule(t, agreement), testutil.ApprovalDate)
	require.NoError(t, err)

	completed, err := approved.Complete(testutil.ApprovalDate.AddDate(0, 3, 0))
	require.NoError(t, err)
	assert.Equal(t, valueobject.LoanRequestStatusCompleted, completed.Status())
}
