package grpc

// The lending service is served with the JSON codec, so its messages are the
// application DTOs and the service descriptor below is written by hand.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kuwago/lending/internal/application/dto"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "kuwago.lending.v1.LendingService"

// LendingServiceServer is the server API for kuwago.lending.v1.LendingService.
type LendingServiceServer interface {
	SubmitLoanRequest(context.Context, *dto.SubmitLoanRequestRequest) (*dto.LoanRequestResponse, error)
	GetLoanRequest(context.Context, *dto.GetLoanRequestRequest) (*dto.LoanRequestResponse, error)
	ApproveLoan(context.Context, *dto.ApproveLoanRequest) (*dto.ScheduleResponse, error)
	DenyLoan(context.Context, *dto.DenyLoanRequest) (*dto.LoanRequestResponse, error)
	SubmitPayment(context.Context, *dto.SubmitPaymentRequest) (*dto.PaymentReceipt, error)
	CompletePayment(context.Context, *dto.SettlePaymentRequest) (*dto.SettlementResponse, error)
	CancelPayment(context.Context, *dto.SettlePaymentRequest) (*dto.SettlementResponse, error)
	GetScheduleReport(context.Context, *dto.GetScheduleReportRequest) (*dto.ScheduleReportResponse, error)
	ListPayments(context.Context, *dto.ListPaymentsRequest) (*dto.ListPaymentsResponse, error)
	GetCreditScore(context.Context, *dto.GetCreditScoreRequest) (*dto.CreditScoreResponse, error)
	mustEmbedUnimplementedLendingServiceServer()
}

// UnimplementedLendingServiceServer answers every method with codes.Unimplemented.
type UnimplementedLendingServiceServer struct{}

func (UnimplementedLendingServiceServer) SubmitLoanRequest(context.Context, *dto.SubmitLoanRequestRequest) (*dto.LoanRequestResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SubmitLoanRequest not implemented")
}
func (UnimplementedLendingServiceServer) GetLoanRequest(context.Context, *dto.GetLoanRequestRequest) (*dto.LoanRequestResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetLoanRequest not implemented")
}
func (UnimplementedLendingServiceServer) ApproveLoan(context.Context, *dto.ApproveLoanRequest) (*dto.ScheduleResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ApproveLoan not implemented")
}
func (UnimplementedLendingServiceServer) DenyLoan(context.Context, *dto.DenyLoanRequest) (*dto.LoanRequestResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method DenyLoan not implemented")
}
func (UnimplementedLendingServiceServer) SubmitPayment(context.Context, *dto.SubmitPaymentRequest) (*dto.PaymentReceipt, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SubmitPayment not implemented")
}
func (UnimplementedLendingServiceServer) CompletePayment(context.Context, *dto.SettlePaymentRequest) (*dto.SettlementResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CompletePayment not implemented")
}
func (UnimplementedLendingServiceServer) CancelPayment(context.Context, *dto.SettlePaymentRequest) (*dto.SettlementResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CancelPayment not implemented")
}
func (UnimplementedLendingServiceServer) GetScheduleReport(context.Context, *dto.GetScheduleReportRequest) (*dto.ScheduleReportResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetScheduleReport not implemented")
}
func (UnimplementedLendingServiceServer) ListPayments(context.Context, *dto.ListPaymentsRequest) (*dto.ListPaymentsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListPayments not implemented")
}
func (UnimplementedLendingServiceServer) GetCreditScore(context.Context, *dto.GetCreditScoreRequest) (*dto.CreditScoreResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetCreditScore not implemented")
}
func (UnimplementedLendingServiceServer) mustEmbedUnimplementedLendingServiceServer() {}

// RegisterLendingServiceServer registers srv with s.
func RegisterLendingServiceServer(s grpclib.ServiceRegistrar, srv LendingServiceServer) {
	s.RegisterService(&lendingServiceDesc, srv)
}

// FullMethod returns the "/service/method" path the interceptors see.
func FullMethod(method string) string { return "/" + ServiceName + "/" + method }

var lendingServiceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LendingServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "SubmitLoanRequest", Handler: unaryHandler("SubmitLoanRequest", LendingServiceServer.SubmitLoanRequest)},
		{MethodName: "GetLoanRequest", Handler: unaryHandler("GetLoanRequest", LendingServiceServer.GetLoanRequest)},
		{MethodName: "ApproveLoan", Handler: unaryHandler("ApproveLoan", LendingServiceServer.ApproveLoan)},
		{MethodName: "DenyLoan", Handler: unaryHandler("DenyLoan", LendingServiceServer.DenyLoan)},
		{MethodName: "SubmitPayment", Handler: unaryHandler("SubmitPayment", LendingServiceServer.SubmitPayment)},
		{MethodName: "CompletePayment", Handler: unaryHandler("CompletePayment", LendingServiceServer.CompletePayment)},
		{MethodName: "CancelPayment", Handler: unaryHandler("CancelPayment", LendingServiceServer.CancelPayment)},
		{MethodName: "GetScheduleReport", Handler: unaryHandler("GetScheduleReport", LendingServiceServer.GetScheduleReport)},
		{MethodName: "ListPayments", Handler: unaryHandler("ListPayments", LendingServiceServer.ListPayments)},
		{MethodName: "GetCreditScore", Handler: unaryHandler("GetCreditScore", LendingServiceServer.GetCreditScore)},
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "kuwago/lending/v1/lending.proto",
}

// unaryHandler adapts a typed server method to grpc's MethodHandler shape.
func unaryHandler[Req, Resp any](method string, call func(LendingServiceServer, context.Context, *Req) (*Resp, error)) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		server := srv.(LendingServiceServer)
		if interceptor == nil {
			return call(server, ctx, in)
		}
		info := &grpclib.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(server, ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
