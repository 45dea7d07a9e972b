package grpc

// proto.go defines the gRPC server interface derived from
// propvantage/receivables/v1/ledger.proto. This file serves as a stand-in for
// buf-generated code. Once `buf generate` is run, replace this file with the
// import from github.com/propvantage/api/gen/go/propvantage/receivables/v1.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LedgerServiceServer is the server API for LedgerService.
type LedgerServiceServer interface {
	CreatePaymentPlan(context.Context, *CreatePaymentPlanRequest) (*PaymentPlanResponse, error)
	ProcessPayment(context.Context, *ProcessPaymentRequest) (*TransactionResponse, error)
	UpdateTransactionAmount(context.Context, *UpdateTransactionAmountRequest) (*TransactionResponse, error)
	VerifyPayment(context.Context, *VerifyPaymentRequest) (*TransactionResponse, error)
	ProcessRefund(context.Context, *ProcessRefundRequest) (*TransactionResponse, error)
	AdjustInstallmentAmount(context.Context, *AdjustInstallmentAmountRequest) (*InstallmentResponse, error)
	AdjustInstallmentDueDate(context.Context, *AdjustInstallmentDueDateRequest) (*InstallmentResponse, error)
	WaiveInstallment(context.Context, *WaiveInstallmentRequest) (*InstallmentResponse, error)
	RecalculatePlan(context.Context, *RecalculatePlanRequest) (*RecalculatePlanResponse, error)
	GetPaymentSummary(context.Context, *GetPaymentSummaryRequest) (*PaymentPlanResponse, error)
	GetOverduePayments(context.Context, *GetOverduePaymentsRequest) (*GetOverduePaymentsResponse, error)
	mustEmbedUnimplementedLedgerServiceServer()
}

// UnimplementedLedgerServiceServer provides forward-compatible default implementations.
type UnimplementedLedgerServiceServer struct{}

func (UnimplementedLedgerServiceServer) CreatePaymentPlan(context.Context, *CreatePaymentPlanRequest) (*PaymentPlanResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CreatePaymentPlan not implemented")
}
func (UnimplementedLedgerServiceServer) ProcessPayment(context.Context, *ProcessPaymentRequest) (*TransactionResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ProcessPayment not implemented")
}
func (UnimplementedLedgerServiceServer) UpdateTransactionAmount(context.Context, *UpdateTransactionAmountRequest) (*TransactionResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method UpdateTransactionAmount not implemented")
}
func (UnimplementedLedgerServiceServer) VerifyPayment(context.Context, *VerifyPaymentRequest) (*TransactionResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method VerifyPayment not implemented")
}
func (UnimplementedLedgerServiceServer) ProcessRefund(context.Context, *ProcessRefundRequest) (*TransactionResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ProcessRefund not implemented")
}
func (UnimplementedLedgerServiceServer) AdjustInstallmentAmount(context.Context, *AdjustInstallmentAmountRequest) (*InstallmentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method AdjustInstallmentAmount not implemented")
}
func (UnimplementedLedgerServiceServer) AdjustInstallmentDueDate(context.Context, *AdjustInstallmentDueDateRequest) (*InstallmentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method AdjustInstallmentDueDate not implemented")
}
func (UnimplementedLedgerServiceServer) WaiveInstallment(context.Context, *WaiveInstallmentRequest) (*InstallmentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method WaiveInstallment not implemented")
}
func (UnimplementedLedgerServiceServer) RecalculatePlan(context.Context, *RecalculatePlanRequest) (*RecalculatePlanResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RecalculatePlan not implemented")
}
func (UnimplementedLedgerServiceServer) GetPaymentSummary(context.Context, *GetPaymentSummaryRequest) (*PaymentPlanResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetPaymentSummary not implemented")
}
func (UnimplementedLedgerServiceServer) GetOverduePayments(context.Context, *GetOverduePaymentsRequest) (*GetOverduePaymentsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetOverduePayments not implemented")
}
func (UnimplementedLedgerServiceServer) mustEmbedUnimplementedLedgerServiceServer() {}

// RegisterLedgerServiceServer registers the LedgerServiceServer with the gRPC server.
func RegisterLedgerServiceServer(s *grpclib.Server, srv LedgerServiceServer) {
	s.RegisterService(&_LedgerService_serviceDesc, srv)
}

var _LedgerService_serviceDesc = grpclib.ServiceDesc{
	ServiceName: "propvantage.receivables.v1.LedgerService",
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "CreatePaymentPlan", Handler: _LedgerService_CreatePaymentPlan_Handler},
		{MethodName: "ProcessPayment", Handler: _LedgerService_ProcessPayment_Handler},
		{MethodName: "UpdateTransactionAmount", Handler: _LedgerService_UpdateTransactionAmount_Handler},
		{MethodName: "VerifyPayment", Handler: _LedgerService_VerifyPayment_Handler},
		{MethodName: "ProcessRefund", Handler: _LedgerService_ProcessRefund_Handler},
		{MethodName: "AdjustInstallmentAmount", Handler: _LedgerService_AdjustInstallmentAmount_Handler},
		{MethodName: "AdjustInstallmentDueDate", Handler: _LedgerService_AdjustInstallmentDueDate_Handler},
		{MethodName: "WaiveInstallment", Handler: _LedgerService_WaiveInstallment_Handler},
		{MethodName: "RecalculatePlan", Handler: _LedgerService_RecalculatePlan_Handler},
		{MethodName: "GetPaymentSummary", Handler: _LedgerService_GetPaymentSummary_Handler},
		{MethodName: "GetOverduePayments", Handler: _LedgerService_GetOverduePayments_Handler},
	},
	Streams: []grpclib.StreamDesc{},
}

func _LedgerService_CreatePaymentPlan_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(CreatePaymentPlanRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(LedgerServiceServer).CreatePaymentPlan(ctx, req)
}

func _LedgerService_ProcessPayment_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(ProcessPaymentRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(LedgerServiceServer).ProcessPayment(ctx, req)
}

func _LedgerService_UpdateTransactionAmount_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(UpdateTransactionAmountRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(LedgerServiceServer).UpdateTransactionAmount(ctx, req)
}

func _LedgerService_VerifyPayment_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(VerifyPaymentRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(LedgerServiceServer).VerifyPayment(ctx, req)
}

func _LedgerService_ProcessRefund_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(ProcessRefundRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(LedgerServiceServer).ProcessRefund(ctx, req)
}

func _LedgerService_AdjustInstallmentAmount_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(AdjustInstallmentAmountRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(LedgerServiceServer).AdjustInstallmentAmount(ctx, req)
}

func _LedgerService_AdjustInstallmentDueDate_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(AdjustInstallmentDueDateRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(LedgerServiceServer).AdjustInstallmentDueDate(ctx, req)
}

func _LedgerService_WaiveInstallment_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(WaiveInstallmentRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(LedgerServiceServer).WaiveInstallment(ctx, req)
}

func _LedgerService_RecalculatePlan_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(RecalculatePlanRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(LedgerServiceServer).RecalculatePlan(ctx, req)
}

func _LedgerService_GetPaymentSummary_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(GetPaymentSummaryRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(LedgerServiceServer).GetPaymentSummary(ctx, req)
}

func _LedgerService_GetOverduePayments_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(GetOverduePaymentsRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(LedgerServiceServer).GetOverduePayments(ctx, req)
}
