package usecase

import "github.com/kuwago/lending/internal/domain/port"

// Set bundles every lending use case behind one value so the transports
// share a single wiring.
type Set struct {
	SubmitLoanRequest *SubmitLoanRequest
	GetLoanRequest    *GetLoanRequest
	ApproveLoan       *ApproveLoan
	DenyLoan          *DenyLoan
	SubmitPayment     *SubmitPayment
	CompletePayment   *CompletePayment
	CancelPayment     *CancelPayment
	GetScheduleReport *GetScheduleReport
	ListPayments      *ListPayments
	GetCreditScore    *GetCreditScore
}

// NewSet wires the commands to uow and the queries to reads, which should
// see committed state only.
func NewSet(uow port.UnitOfWork, reads port.Repositories, gateway port.CheckoutGateway, opts ...Option) *Set {
	return &Set{
		SubmitLoanRequest: NewSubmitLoanRequest(uow, opts...),
		GetLoanRequest:    NewGetLoanRequest(reads),
		ApproveLoan:       NewApproveLoan(uow, opts...),
		DenyLoan:          NewDenyLoan(uow, opts...),
		SubmitPayment:     NewSubmitPayment(uow, gateway, opts...),
		CompletePayment:   NewCompletePayment(uow, opts...),
		CancelPayment:     NewCancelPayment(uow, opts...),
		GetScheduleReport: NewGetScheduleReport(reads.Schedules, reads.Payments, opts...),
		ListPayments:      NewListPayments(reads.Schedules, reads.Payments),
		GetCreditScore:    NewGetCreditScore(reads.CreditScores),
	}
}
