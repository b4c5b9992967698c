package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Request DTOs
// ---------------------------------------------------------------------------

// SubmitLoanRequestRequest carries a borrower's loan request.
type SubmitLoanRequestRequest struct {
	BorrowerID string          `json:"borrower_id"`
	LoanType   string          `json:"loan_type"`
	Amount     decimal.Decimal `json:"amount"`
	Purpose    string          `json:"purpose"`
}

// ApproveLoanRequest carries the terms a lender approves.
type ApproveLoanRequest struct {
	LoanRequestID string          `json:"loan_request_id"`
	LenderID      string          `json:"lender_id"`
	Principal     decimal.Decimal `json:"principal"`
	InterestRate  decimal.Decimal `json:"interest_rate"`
	TermMonths    int             `json:"term_months"`
	Modality      string          `json:"modality"`
}

// DenyLoanRequest declines a pending request.
type DenyLoanRequest struct {
	LoanRequestID string `json:"loan_request_id"`
	LenderID      string `json:"lender_id"`
	Reason        string `json:"reason"`
}

// SubmitPaymentRequest records a repayment against a schedule. A zero
// PaidAt means "now". LenderID is set when the schedule's lender records
// the payment on the borrower's behalf.
type SubmitPaymentRequest struct {
	ScheduleID string          `json:"schedule_id"`
	BorrowerID string          `json:"borrower_id"`
	LenderID   string          `json:"lender_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	PaidAt     time.Time       `json:"paid_at"`
	Notes      string          `json:"notes"`
	Modality   string          `json:"modality"`
}

// SettlePaymentRequest identifies a pending payment reported back by the
// checkout gateway.
type SettlePaymentRequest struct {
	PaymentID string `json:"payment_id"`
}

// GetScheduleReportRequest asks for a reconciled schedule. BorrowerID must
// own the schedule. A non-empty LenderID must also have funded it.
type GetScheduleReportRequest struct {
	ScheduleID string `json:"schedule_id"`
	BorrowerID string `json:"borrower_id"`
	LenderID   string `json:"lender_id,omitempty"`
}

// ListPaymentsRequest lists a schedule's ledger when ScheduleID is set,
// otherwise every payment of BorrowerID. Lenders must name a schedule they
// funded.
type ListPaymentsRequest struct {
	ScheduleID string `json:"schedule_id,omitempty"`
	BorrowerID string `json:"borrower_id"`
	LenderID   string `json:"lender_id,omitempty"`
}

// GetLoanRequestRequest identifies a loan request.
type GetLoanRequestRequest struct {
	LoanRequestID string `json:"loan_request_id"`
}

// GetCreditScoreRequest identifies a borrower.
type GetCreditScoreRequest struct {
	BorrowerID string `json:"borrower_id"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// LoanRequestResponse is the external representation of a loan request.
type LoanRequestResponse struct {
	ID             string          `json:"id"`
	BorrowerID     string          `json:"borrower_id"`
	LoanType       string          `json:"loan_type"`
	Amount         decimal.Decimal `json:"amount"`
	Purpose        string          `json:"purpose"`
	Status         string          `json:"status"`
	LenderID       string          `json:"lender_id,omitempty"`
	DecisionReason string          `json:"decision_reason,omitempty"`
	AgreedAt       *time.Time      `json:"agreed_at,omitempty"`
	ScheduleID     string          `json:"schedule_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ScheduleResponse describes a provisioned payment schedule.
type ScheduleResponse struct {
	ID                  string          `json:"id"`
	AgreementID         string          `json:"agreement_id"`
	LoanRequestID       string          `json:"loan_request_id"`
	BorrowerID          string          `json:"borrower_id"`
	LenderID            string          `json:"lender_id"`
	Principal           decimal.Decimal `json:"principal"`
	InterestRate        decimal.Decimal `json:"interest_rate"`
	Modality            string          `json:"modality"`
	Currency            string          `json:"currency"`
	TotalPayable        decimal.Decimal `json:"total_payable"`
	MonthlyRequired     decimal.Decimal `json:"monthly_required"`
	FinalPeriodRequired decimal.Decimal `json:"final_period_required"`
	TermMonths          int             `json:"term_months"`
	DueDates            []time.Time     `json:"due_dates"`
	CreatedAt           time.Time       `json:"created_at"`
}

// PaymentReceipt is returned by payment intake.
type PaymentReceipt struct {
	PaymentID        string          `json:"payment_id"`
	ScheduleID       string          `json:"schedule_id"`
	Status           string          `json:"status"`
	Amount           decimal.Decimal `json:"amount"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	OnTime           *bool           `json:"on_time,omitempty"`
	NewScore         *int            `json:"new_score,omitempty"`
	CheckoutRef      string          `json:"checkout_ref,omitempty"`
}

// SettlementResponse reports the outcome of a completion or cancellation callback.
type SettlementResponse struct {
	PaymentID        string          `json:"payment_id"`
	Status           string          `json:"status"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	OnTime           *bool           `json:"on_time,omitempty"`
	NewScore         *int            `json:"new_score,omitempty"`
}

// ScheduleSlotResponse is one reconciled period.
type ScheduleSlotResponse struct {
	DueDate     time.Time       `json:"due_date"`
	PaymentID   string          `json:"payment_id,omitempty"`
	PaymentDate *time.Time      `json:"payment_date,omitempty"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	Required    decimal.Decimal `json:"required"`
	Actual      decimal.Decimal `json:"actual"`
	Status      string          `json:"status"`
	Settled     bool            `json:"settled"`
	Trailing    bool            `json:"trailing,omitempty"`
}

// ReportTotalsResponse summarizes a schedule's balance.
type ReportTotalsResponse struct {
	TotalPayable     decimal.Decimal `json:"total_payable"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	TotalPending     decimal.Decimal `json:"total_pending"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	PaymentCount     int             `json:"payment_count"`
	FullyPaid        bool            `json:"fully_paid"`
}

// ScheduleReportResponse is the reconciled view of a schedule.
type ScheduleReportResponse struct {
	ScheduleID       string                 `json:"schedule_id"`
	BorrowerID       string                 `json:"borrower_id"`
	Slots            []ScheduleSlotResponse `json:"slots"`
	UnpaidDueDates   []time.Time            `json:"unpaid_due_dates"`
	NextUnmetDueDate *time.Time             `json:"next_unmet_due_date,omitempty"`
	Totals           ReportTotalsResponse   `json:"totals"`
}

// PaymentResponse is the external representation of a ledger entry.
type PaymentResponse struct {
	ID          string          `json:"id"`
	ScheduleID  string          `json:"schedule_id"`
	BorrowerID  string          `json:"borrower_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaidAt      time.Time       `json:"paid_at"`
	Notes       string          `json:"notes,omitempty"`
	Modality    string          `json:"modality"`
	Status      string          `json:"status"`
	CheckoutRef string          `json:"checkout_ref,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ListPaymentsResponse wraps a payment listing.
type ListPaymentsResponse struct {
	Payments []PaymentResponse `json:"payments"`
}

// CreditScoreResponse is a borrower's score and its band.
type CreditScoreResponse struct {
	BorrowerID           string    `json:"borrower_id"`
	Score                int       `json:"score"`
	Category             string    `json:"category"`
	TotalLoans           int       `json:"total_loans"`
	SuccessfulRepayments int       `json:"successful_repayments"`
	MissedRepayments     int       `json:"missed_repayments"`
	LastUpdated          time.Time `json:"last_updated"`
}
