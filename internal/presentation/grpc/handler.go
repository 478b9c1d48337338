package grpc

import (
	"context"

	"github.com/Singh-Sg/loan-app/internal/application/dto"
	"github.com/Singh-Sg/loan-app/internal/application/usecase"
)

var _ ServicingServiceServer = (*ServicingHandler)(nil)

// UseCases groups the application services the handler exposes.
type UseCases struct {
	CreateLoan          *usecase.CreateLoanUseCase
	CreateScheduleLines *usecase.CreateScheduleLinesUseCase
	GetLoan             *usecase.GetLoanUseCase
	ChangeLoanState     *usecase.ChangeLoanStateUseCase
	RecordRepayment     *usecase.RecordRepaymentUseCase
	GetDelay            *usecase.GetDelayUseCase
	RecalculateSchedule *usecase.RecalculateScheduleUseCase
	RecalculateAll      *usecase.RecalculateAllSchedulesUseCase
	ShiftSchedule       *usecase.ShiftScheduleUseCase
	ReconcileManual     *usecase.ReconcileManualUseCase
	AutoReconcile       *usecase.RunAutoReconciliationUseCase
	IngestTransfer      *usecase.IngestTransferUseCase
}

// ServicingHandler is the gRPC handler for loan servicing operations.
type ServicingHandler struct {
	uc UseCases
}

// NewServicingHandler creates a new handler with all use-case dependencies.
func NewServicingHandler(uc UseCases) *ServicingHandler {
	return &ServicingHandler{uc: uc}
}

func (h *ServicingHandler) CreateLoan(ctx context.Context, req *dto.CreateLoanRequest) (*dto.LoanResponse, error) {
	return respond(h.uc.CreateLoan.Execute(ctx, *req))
}

func (h *ServicingHandler) CreateScheduleLines(ctx context.Context, req *dto.CreateScheduleLinesRequest) (*dto.LoanResponse, error) {
	return respond(h.uc.CreateScheduleLines.Execute(ctx, *req))
}

func (h *ServicingHandler) GetLoan(ctx context.Context, req *dto.GetLoanRequest) (*dto.LoanSummaryResponse, error) {
	return respond(h.uc.GetLoan.Execute(ctx, *req))
}

func (h *ServicingHandler) ChangeLoanState(ctx context.Context, req *dto.ChangeLoanStateRequest) (*dto.LoanResponse, error) {
	return respond(h.uc.ChangeLoanState.Execute(ctx, *req))
}

func (h *ServicingHandler) RecordRepayment(ctx context.Context, req *dto.RecordRepaymentRequest) (*dto.RecordRepaymentResponse, error) {
	return respond(h.uc.RecordRepayment.Execute(ctx, *req))
}

func (h *ServicingHandler) GetDelay(ctx context.Context, req *dto.GetDelayRequest) (*dto.DelayResponse, error) {
	return respond(h.uc.GetDelay.Execute(ctx, *req))
}

func (h *ServicingHandler) RecalculateSchedule(ctx context.Context, req *dto.RecalculateScheduleRequest) (*dto.RecalculateScheduleResponse, error) {
	return respond(h.uc.RecalculateSchedule.Execute(ctx, *req))
}

func (h *ServicingHandler) RecalculateAllSchedules(ctx context.Context, _ *JobRequest) (*dto.BatchResponse, error) {
	return respond(h.uc.RecalculateAll.Execute(ctx))
}

func (h *ServicingHandler) ShiftSchedule(ctx context.Context, req *dto.ShiftScheduleRequest) (*dto.ShiftScheduleResponse, error) {
	return respond(h.uc.ShiftSchedule.Execute(ctx, *req))
}

func (h *ServicingHandler) ReconcileManual(ctx context.Context, req *dto.ReconcileManualRequest) (*dto.ReconciliationResponse, error) {
	return respond(h.uc.ReconcileManual.Execute(ctx, *req))
}

func (h *ServicingHandler) RunAutoReconciliation(ctx context.Context, _ *JobRequest) (*dto.AutoReconciliationResponse, error) {
	return respond(h.uc.AutoReconcile.Execute(ctx))
}

func (h *ServicingHandler) ReconcileCounterparty(ctx context.Context, req *ReconcileCounterpartyRequest) (*ReconcileCounterpartyResponse, error) {
	res, err := h.uc.AutoReconcile.ReconcileCounterparty(ctx, req.CounterpartyID)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &ReconcileCounterpartyResponse{CounterpartyID: req.CounterpartyID, Escalated: res.Escalated}
	if res.Reconciliation != nil {
		resp.ReconciliationID = res.Reconciliation.ID()
	}
	return resp, nil
}

func (h *ServicingHandler) IngestTransfer(ctx context.Context, req *dto.IngestTransferRequest) (*dto.IngestTransferResponse, error) {
	return respond(h.uc.IngestTransfer.Execute(ctx, *req))
}

func respond[T any](resp T, err error) (*T, error) {
	if err != nil {
		return nil, toStatus(err)
	}
	return &resp, nil
}
