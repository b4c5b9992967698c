package event

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kuwago/lending/pkg/events"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

// Aggregate type names written to the outbox.
const (
	AggregateLoanRequest     = "LoanRequest"
	AggregatePaymentSchedule = "PaymentSchedule"
	AggregatePayment         = "Payment"
	AggregateCreditScore     = "CreditScore"
)

// ---------------------------------------------------------------------------
// Loan origination
// ---------------------------------------------------------------------------

// LoanRequestSubmitted is raised when a borrower files a loan request.
type LoanRequestSubmitted struct {
	events.BaseEvent
	BorrowerID string          `json:"borrower_id"`
	LoanType   string          `json:"loan_type"`
	Amount     decimal.Decimal `json:"amount"`
	Purpose    string          `json:"purpose"`
}

func NewLoanRequestSubmitted(requestID, borrowerID, loanType string, amount decimal.Decimal, purpose string, at time.Time) LoanRequestSubmitted {
	return LoanRequestSubmitted{
		BaseEvent:  events.NewBaseEvent("lending.loan_request.submitted", requestID, AggregateLoanRequest, at),
		BorrowerID: borrowerID,
		LoanType:   loanType,
		Amount:     amount,
		Purpose:    purpose,
	}
}

// LoanApproved is raised once per request, when the agreement and its
// payment schedule are provisioned.
type LoanApproved struct {
	events.BaseEvent
	AgreementID     string          `json:"agreement_id"`
	ScheduleID      string          `json:"schedule_id"`
	BorrowerID      string          `json:"borrower_id"`
	LenderID        string          `json:"lender_id"`
	Principal       decimal.Decimal `json:"principal"`
	InterestRate    decimal.Decimal `json:"interest_rate"`
	TermMonths      int             `json:"term_months"`
	TotalPayable    decimal.Decimal `json:"total_payable"`
	MonthlyRequired decimal.Decimal `json:"monthly_required"`
	FirstDueDate    time.Time       `json:"first_due_date"`
}

func NewLoanApproved(
	requestID, agreementID, scheduleID, borrowerID, lenderID string,
	principal, rate decimal.Decimal, termMonths int,
	totalPayable, monthly decimal.Decimal, firstDue, at time.Time,
) LoanApproved {
	return LoanApproved{
		BaseEvent:       events.NewBaseEvent("lending.loan.approved", requestID, AggregateLoanRequest, at),
		AgreementID:     agreementID,
		ScheduleID:      scheduleID,
		BorrowerID:      borrowerID,
		LenderID:        lenderID,
		Principal:       principal,
		InterestRate:    rate,
		TermMonths:      termMonths,
		TotalPayable:    totalPayable,
		MonthlyRequired: monthly,
		FirstDueDate:    firstDue,
	}
}

// LoanDenied is raised when a lender declines a pending request.
type LoanDenied struct {
	events.BaseEvent
	BorrowerID string `json:"borrower_id"`
	LenderID   string `json:"lender_id"`
	Reason     string `json:"reason"`
}

func NewLoanDenied(requestID, borrowerID, lenderID, reason string, at time.Time) LoanDenied {
	return LoanDenied{
		BaseEvent:  events.NewBaseEvent("lending.loan.denied", requestID, AggregateLoanRequest, at),
		BorrowerID: borrowerID,
		LenderID:   lenderID,
		Reason:     reason,
	}
}

// ---------------------------------------------------------------------------
// Payments
// ---------------------------------------------------------------------------

// PaymentRecorded is raised on intake, whatever the modality.
type PaymentRecorded struct {
	events.BaseEvent
	ScheduleID  string          `json:"schedule_id"`
	BorrowerID  string          `json:"borrower_id"`
	Amount      decimal.Decimal `json:"amount"`
	Modality    string          `json:"modality"`
	Status      string          `json:"status"`
	PaidAt      time.Time       `json:"paid_at"`
	CheckoutRef string          `json:"checkout_ref,omitempty"`
}

func NewPaymentRecorded(paymentID, scheduleID, borrowerID string, amount decimal.Decimal, modality, status string, paidAt time.Time, checkoutRef string, at time.Time) PaymentRecorded {
	return PaymentRecorded{
		BaseEvent:   events.NewBaseEvent("lending.payment.recorded", paymentID, AggregatePayment, at),
		ScheduleID:  scheduleID,
		BorrowerID:  borrowerID,
		Amount:      amount,
		Modality:    modality,
		Status:      status,
		PaidAt:      paidAt,
		CheckoutRef: checkoutRef,
	}
}

// PaymentCompleted is raised when a pending electronic payment settles.
type PaymentCompleted struct {
	events.BaseEvent
	ScheduleID string          `json:"schedule_id"`
	BorrowerID string          `json:"borrower_id"`
	Amount     decimal.Decimal `json:"amount"`
}

func NewPaymentCompleted(paymentID, scheduleID, borrowerID string, amount decimal.Decimal, at time.Time) PaymentCompleted {
	return PaymentCompleted{
		BaseEvent:  events.NewBaseEvent("lending.payment.completed", paymentID, AggregatePayment, at),
		ScheduleID: scheduleID,
		BorrowerID: borrowerID,
		Amount:     amount,
	}
}

// PaymentCancelled is raised when a pending electronic payment is abandoned.
type PaymentCancelled struct {
	events.BaseEvent
	ScheduleID string          `json:"schedule_id"`
	BorrowerID string          `json:"borrower_id"`
	Amount     decimal.Decimal `json:"amount"`
}

func NewPaymentCancelled(paymentID, scheduleID, borrowerID string, amount decimal.Decimal, at time.Time) PaymentCancelled {
	return PaymentCancelled{
		BaseEvent:  events.NewBaseEvent("lending.payment.cancelled", paymentID, AggregatePayment, at),
		ScheduleID: scheduleID,
		BorrowerID: borrowerID,
		Amount:     amount,
	}
}

// ---------------------------------------------------------------------------
// Credit score
// ---------------------------------------------------------------------------

// CreditScoreInitialized is raised when a borrower's score row is created.
type CreditScoreInitialized struct {
	events.BaseEvent
	Score int `json:"score"`
}

func NewCreditScoreInitialized(borrowerID string, score int, at time.Time) CreditScoreInitialized {
	return CreditScoreInitialized{
		BaseEvent: events.NewBaseEvent("lending.credit_score.initialized", borrowerID, AggregateCreditScore, at),
		Score:     score,
	}
}

// CreditScoreUpdated is raised for every repayment outcome.
type CreditScoreUpdated struct {
	events.BaseEvent
	PreviousScore        int  `json:"previous_score"`
	Score                int  `json:"score"`
	OnTime               bool `json:"on_time"`
	TotalLoans           int  `json:"total_loans"`
	SuccessfulRepayments int  `json:"successful_repayments"`
	MissedRepayments     int  `json:"missed_repayments"`
}

func NewCreditScoreUpdated(borrowerID string, previous, score int, onTime bool, total, successful, missed int, at time.Time) CreditScoreUpdated {
	return CreditScoreUpdated{
		BaseEvent:            events.NewBaseEvent("lending.credit_score.updated", borrowerID, AggregateCreditScore, at),
		PreviousScore:        previous,
		Score:                score,
		OnTime:               onTime,
		TotalLoans:           total,
		SuccessfulRepayments: successful,
		MissedRepayments:     missed,
	}
}
