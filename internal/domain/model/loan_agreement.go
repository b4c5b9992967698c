package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kuwago/lending/internal/domain/apperr"
	"github.com/kuwago/lending/internal/domain/valueobject"
	"github.com/kuwago/lending/pkg/money"
)

var hundred = decimal.NewFromInt(100)

// LoanAgreement records the terms a lender approved. It is created once per
// approved request and never changes afterwards.
type LoanAgreement struct {
	id            string
	loanRequestID string
	borrowerID    string
	lenderID      string
	principal     decimal.Decimal
	interestRate  decimal.Decimal
	termMonths    int
	modality      valueobject.PaymentModality
	currency      money.Currency
	createdAt     time.Time
}

// NewLoanAgreement validates the approved terms.
func NewLoanAgreement(
	loanRequestID, borrowerID, lenderID string,
	principal, interestRate decimal.Decimal,
	termMonths int,
	modality valueobject.PaymentModality,
	now time.Time,
) (LoanAgreement, error) {
	if strings.TrimSpace(loanRequestID) == "" {
		return LoanAgreement{}, apperr.Validation("loan request ID is required")
	}
	if strings.TrimSpace(borrowerID) == "" {
		return LoanAgreement{}, apperr.Validation("borrower ID is required")
	}
	if strings.TrimSpace(lenderID) == "" {
		return LoanAgreement{}, apperr.Validation("lender ID is required")
	}
	if err := ValidateTerms(principal, interestRate, termMonths); err != nil {
		return LoanAgreement{}, err
	}
	if modality.IsZero() {
		return LoanAgreement{}, apperr.Validation("payment modality is required")
	}
	return LoanAgreement{
		id:            uuid.New().String(),
		loanRequestID: loanRequestID,
		borrowerID:    borrowerID,
		lenderID:      lenderID,
		principal:     money.Round(principal),
		interestRate:  interestRate,
		termMonths:    termMonths,
		modality:      modality,
		currency:      money.PHP,
		createdAt:     now.UTC(),
	}, nil
}

// ValidateTerms checks principal > 0, 0 <= rate <= 100 and term > 0.
func ValidateTerms(principal, interestRate decimal.Decimal, termMonths int) error {
	if !money.Round(principal).IsPositive() {
		return apperr.Validation("principal must be positive")
	}
	if interestRate.IsNegative() || interestRate.GreaterThan(hundred) {
		return apperr.Validation("interest rate must be between 0 and 100 percent")
	}
	if termMonths <= 0 {
		return apperr.Validation("term months must be positive")
	}
	return nil
}

// ReconstructLoanAgreement rebuilds an agreement from persistence.
func ReconstructLoanAgreement(
	id, loanRequestID, borrowerID, lenderID string,
	principal, interestRate decimal.Decimal,
	termMonths int,
	modality valueobject.PaymentModality,
	currency money.Currency,
	createdAt time.Time,
) LoanAgreement {
	return LoanAgreement{
		id:            id,
		loanRequestID: loanRequestID,
		borrowerID:    borrowerID,
		lenderID:      lenderID,
		principal:     principal,
		interestRate:  interestRate,
		termMonths:    termMonths,
		modality:      modality,
		currency:      currency,
		createdAt:     createdAt,
	}
}

func (a LoanAgreement) ID() string                            { return a.id }
func (a LoanAgreement) LoanRequestID() string                 { return a.loanRequestID }
func (a LoanAgreement) BorrowerID() string                    { return a.borrowerID }
func (a LoanAgreement) LenderID() string                      { return a.lenderID }
func (a LoanAgreement) Principal() decimal.Decimal            { return a.principal }
func (a LoanAgreement) InterestRate() decimal.Decimal         { return a.interestRate }
func (a LoanAgreement) TermMonths() int                       { return a.termMonths }
func (a LoanAgreement) Modality() valueobject.PaymentModality { return a.modality }
func (a LoanAgreement) Currency() money.Currency              { return a.currency }
func (a LoanAgreement) CreatedAt() time.Time                  { return a.createdAt }
