package valueobject

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// LoanRequestStatus – immutable value object
// ---------------------------------------------------------------------------

// LoanRequestStatus represents the lifecycle stage of a borrower's loan request.
type LoanRequestStatus struct {
	value string
}

const (
	loanRequestPending   = "PENDING"
	loanRequestActive    = "ACTIVE"
	loanRequestDenied    = "DENIED"
	loanRequestCompleted = "COMPLETED"
)

var (
	LoanRequestStatusPending   = LoanRequestStatus{value: loanRequestPending}
	LoanRequestStatusActive    = LoanRequestStatus{value: loanRequestActive}
	LoanRequestStatusDenied    = LoanRequestStatus{value: loanRequestDenied}
	LoanRequestStatusCompleted = LoanRequestStatus{value: loanRequestCompleted}
)

var validLoanRequestStatuses = map[string]LoanRequestStatus{
	loanRequestPending:   LoanRequestStatusPending,
	loanRequestActive:    LoanRequestStatusActive,
	loanRequestDenied:    LoanRequestStatusDenied,
	loanRequestCompleted: LoanRequestStatusCompleted,
}

// NewLoanRequestStatus creates a LoanRequestStatus from a raw string.
func NewLoanRequestStatus(s string) (LoanRequestStatus, error) {
	v, ok := validLoanRequestStatuses[s]
	if !ok {
		return LoanRequestStatus{}, fmt.Errorf("invalid loan request status: %q", s)
	}
	return v, nil
}

func (s LoanRequestStatus) String() string { return s.value }
func (s LoanRequestStatus) IsZero() bool   { return s.value == "" }

// Equal returns true when both statuses carry the same value.
func (s LoanRequestStatus) Equal(other LoanRequestStatus) bool { return s.value == other.value }

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)
