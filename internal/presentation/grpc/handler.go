package grpc

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kuwago/lending/internal/application/dto"
	"github.com/kuwago/lending/internal/application/usecase"
	"github.com/kuwago/lending/pkg/auth"
)

// LendingHandler implements LendingServiceServer on top of the use cases.
// Caller identity always comes from the token. Borrowers act only for
// themselves. On payment calls a lender names the borrower and must have
// funded the schedule.
type LendingHandler struct {
	UnimplementedLendingServiceServer

	uc     *usecase.Set
	logger *slog.Logger
}

func NewLendingHandler(uc *usecase.Set, logger *slog.Logger) *LendingHandler {
	return &LendingHandler{uc: uc, logger: logger}
}

// ---------------------------------------------------------------------------
// Loan origination
// ---------------------------------------------------------------------------

func (h *LendingHandler) SubmitLoanRequest(ctx context.Context, req *dto.SubmitLoanRequestRequest) (*dto.LoanRequestResponse, error) {
	claims, err := requireRole(ctx, auth.RoleBorrower)
	if err != nil {
		return nil, err
	}
	in := *req
	in.BorrowerID = claims.UserID
	resp, err := h.uc.SubmitLoanRequest.Execute(ctx, in)
	return respond(ctx, h.logger, resp, err)
}

func (h *LendingHandler) GetLoanRequest(ctx context.Context, req *dto.GetLoanRequestRequest) (*dto.LoanRequestResponse, error) {
	claims, err := requireRole(ctx, auth.RoleBorrower, auth.RoleLender, auth.RoleAdmin)
	if err != nil {
		return nil, err
	}
	resp, err := h.uc.GetLoanRequest.Execute(ctx, *req)
	if err != nil {
		return nil, toStatus(ctx, h.logger, err)
	}
	if !claims.HasAnyRole(auth.RoleLender, auth.RoleAdmin) && resp.BorrowerID != claims.UserID {
		return nil, status.Error(codes.PermissionDenied, "loan request belongs to another borrower")
	}
	return &resp, nil
}

func (h *LendingHandler) ApproveLoan(ctx context.Context, req *dto.ApproveLoanRequest) (*dto.ScheduleResponse, error) {
	claims, err := requireRole(ctx, auth.RoleLender)
	if err != nil {
		return nil, err
	}
	in := *req
	in.LenderID = claims.UserID
	resp, err := h.uc.ApproveLoan.Execute(ctx, in)
	return respond(ctx, h.logger, resp, err)
}

func (h *LendingHandler) DenyLoan(ctx context.Context, req *dto.DenyLoanRequest) (*dto.LoanRequestResponse, error) {
	claims, err := requireRole(ctx, auth.RoleLender)
	if err != nil {
		return nil, err
	}
	in := *req
	in.LenderID = claims.UserID
	resp, err := h.uc.DenyLoan.Execute(ctx, in)
	return respond(ctx, h.logger, resp, err)
}

// ---------------------------------------------------------------------------
// Payments
// ---------------------------------------------------------------------------

func (h *LendingHandler) SubmitPayment(ctx context.Context, req *dto.SubmitPaymentRequest) (*dto.PaymentReceipt, error) {
	claims, err := requireRole(ctx, auth.RoleBorrower, auth.RoleLender)
	if err != nil {
		return nil, err
	}
	in := *req
	in.BorrowerID, in.LenderID = actingFor(claims, req.BorrowerID)
	resp, err := h.uc.SubmitPayment.Execute(ctx, in)
	return respond(ctx, h.logger, resp, err)
}

func (h *LendingHandler) CompletePayment(ctx context.Context, req *dto.SettlePaymentRequest) (*dto.SettlementResponse, error) {
	if _, err := requireRole(ctx, auth.RoleGateway, auth.RoleAdmin); err != nil {
		return nil, err
	}
	resp, err := h.uc.CompletePayment.Execute(ctx, *req)
	return respond(ctx, h.logger, resp, err)
}

func (h *LendingHandler) CancelPayment(ctx context.Context, req *dto.SettlePaymentRequest) (*dto.SettlementResponse, error) {
	if _, err := requireRole(ctx, auth.RoleGateway, auth.RoleAdmin); err != nil {
		return nil, err
	}
	resp, err := h.uc.CancelPayment.Execute(ctx, *req)
	return respond(ctx, h.logger, resp, err)
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

func (h *LendingHandler) GetScheduleReport(ctx context.Context, req *dto.GetScheduleReportRequest) (*dto.ScheduleReportResponse, error) {
	claims, err := requireRole(ctx, auth.RoleBorrower, auth.RoleLender)
	if err != nil {
		return nil, err
	}
	in := *req
	in.BorrowerID, in.LenderID = actingFor(claims, req.BorrowerID)
	resp, err := h.uc.GetScheduleReport.Execute(ctx, in)
	return respond(ctx, h.logger, resp, err)
}

func (h *LendingHandler) ListPayments(ctx context.Context, req *dto.ListPaymentsRequest) (*dto.ListPaymentsResponse, error) {
	claims, err := requireRole(ctx, auth.RoleBorrower, auth.RoleLender)
	if err != nil {
		return nil, err
	}
	in := *req
	in.BorrowerID, in.LenderID = actingFor(claims, req.BorrowerID)
	resp, err := h.uc.ListPayments.Execute(ctx, in)
	return respond(ctx, h.logger, resp, err)
}

// GetCreditScore lets borrowers read their own score and lenders read any.
func (h *LendingHandler) GetCreditScore(ctx context.Context, req *dto.GetCreditScoreRequest) (*dto.CreditScoreResponse, error) {
	claims, err := requireRole(ctx, auth.RoleBorrower, auth.RoleLender, auth.RoleAdmin)
	if err != nil {
		return nil, err
	}
	in := *req
	if !claims.HasAnyRole(auth.RoleLender, auth.RoleAdmin) || in.BorrowerID == "" {
		in.BorrowerID = claims.UserID
	}
	resp, err := h.uc.GetCreditScore.Execute(ctx, in)
	return respond(ctx, h.logger, resp, err)
}

// ---------------------------------------------------------------------------

func requireRole(ctx context.Context, roles ...string) (*auth.Claims, error) {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing credentials")
	}
	if !claims.HasAnyRole(roles...) {
		return nil, status.Errorf(codes.PermissionDenied, "requires one of roles %v", roles)
	}
	return claims, nil
}

// actingFor resolves the borrower and lender a payment-side call is made
// for. A caller holding the borrower role always acts as itself.
func actingFor(claims *auth.Claims, requestedBorrowerID string) (borrowerID, lenderID string) {
	if claims.HasRole(auth.RoleBorrower) {
		return claims.UserID, ""
	}
	return requestedBorrowerID, claims.UserID
}

func respond[T any](ctx context.Context, logger *slog.Logger, resp T, err error) (*T, error) {
	if err != nil {
		return nil, toStatus(ctx, logger, err)
	}
	return &resp, nil
}

var _ LendingServiceServer = (*LendingHandler)(nil)
