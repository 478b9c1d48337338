package grpc

import (
	"context"

	grpclib "google.golang.org/grpc"

	"github.com/Singh-Sg/loan-app/internal/application/dto"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "servicing.v1.ServicingService"

// JobRequest triggers a batch job. It carries no fields.
type JobRequest struct{}

// ReconcileCounterpartyRequest runs one automatic pass for a counterparty.
type ReconcileCounterpartyRequest struct {
	CounterpartyID string `json:"counterparty_id"`
}

// ReconcileCounterpartyResponse summarises a single-counterparty pass.
type ReconcileCounterpartyResponse struct {
	CounterpartyID   string `json:"counterparty_id"`
	ReconciliationID string `json:"reconciliation_id,omitempty"`
	Escalated        int    `json:"escalated"`
}

// ServicingServiceServer is the server API for the servicing service.
type ServicingServiceServer interface {
	CreateLoan(context.Context, *dto.CreateLoanRequest) (*dto.LoanResponse, error)
	CreateScheduleLines(context.Context, *dto.CreateScheduleLinesRequest) (*dto.LoanResponse, error)
	GetLoan(context.Context, *dto.GetLoanRequest) (*dto.LoanSummaryResponse, error)
	ChangeLoanState(context.Context, *dto.ChangeLoanStateRequest) (*dto.LoanResponse, error)
	RecordRepayment(context.Context, *dto.RecordRepaymentRequest) (*dto.RecordRepaymentResponse, error)
	GetDelay(context.Context, *dto.GetDelayRequest) (*dto.DelayResponse, error)
	RecalculateSchedule(context.Context, *dto.RecalculateScheduleRequest) (*dto.RecalculateScheduleResponse, error)
	RecalculateAllSchedules(context.Context, *JobRequest) (*dto.BatchResponse, error)
	ShiftSchedule(context.Context, *dto.ShiftScheduleRequest) (*dto.ShiftScheduleResponse, error)
	ReconcileManual(context.Context, *dto.ReconcileManualRequest) (*dto.ReconciliationResponse, error)
	RunAutoReconciliation(context.Context, *JobRequest) (*dto.AutoReconciliationResponse, error)
	ReconcileCounterparty(context.Context, *ReconcileCounterpartyRequest) (*ReconcileCounterpartyResponse, error)
	IngestTransfer(context.Context, *dto.IngestTransferRequest) (*dto.IngestTransferResponse, error)
}

// RegisterServicingServiceServer registers srv with the gRPC server.
func RegisterServicingServiceServer(s grpclib.ServiceRegistrar, srv ServicingServiceServer) {
	s.RegisterService(&servicingServiceDesc, srv)
}

var servicingServiceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ServicingServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		unary("CreateLoan", ServicingServiceServer.CreateLoan),
		unary("CreateScheduleLines", ServicingServiceServer.CreateScheduleLines),
		unary("GetLoan", ServicingServiceServer.GetLoan),
		unary("ChangeLoanState", ServicingServiceServer.ChangeLoanState),
		unary("RecordRepayment", ServicingServiceServer.RecordRepayment),
		unary("GetDelay", ServicingServiceServer.GetDelay),
		unary("RecalculateSchedule", ServicingServiceServer.RecalculateSchedule),
		unary("RecalculateAllSchedules", ServicingServiceServer.RecalculateAllSchedules),
		unary("ShiftSchedule", ServicingServiceServer.ShiftSchedule),
		unary("ReconcileManual", ServicingServiceServer.ReconcileManual),
		unary("RunAutoReconciliation", ServicingServiceServer.RunAutoReconciliation),
		unary("ReconcileCounterparty", ServicingServiceServer.ReconcileCounterparty),
		unary("IngestTransfer", ServicingServiceServer.IngestTransfer),
	},
	Streams: []grpclib.StreamDesc{},
}

// unary builds the method descriptor for one request/response call.
func unary[Req, Resp any](
	name string,
	call func(ServicingServiceServer, context.Context, *Req) (*Resp, error),
) grpclib.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpclib.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ServicingServiceServer), ctx, in)
			}
			info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ServicingServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
