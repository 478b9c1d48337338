package usecase

import (
	"context"
	"fmt"

	"github.com/Singh-Sg/loan-app/internal/application/dto"
	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/port"
	"github.com/Singh-Sg/loan-app/internal/domain/service"
)

// RecordRepaymentUseCase allocates a repayment against a loan.
type RecordRepaymentUseCase struct {
	store   port.LedgerStore
	engine  *service.AllocationEngine
	clock   port.Clock
	metrics *Metrics
}

// NewRecordRepaymentUseCase wires dependencies.
func NewRecordRepaymentUseCase(
	store port.LedgerStore,
	engine *service.AllocationEngine,
	clock port.Clock,
	metrics *Metrics,
) *RecordRepaymentUseCase {
	return &RecordRepaymentUseCase{
		store:   store,
		engine:  engine,
		clock:   clock,
		metrics: metrics,
	}
}

// Execute records the repayment, re-allocates later ones and closes the loan
// when it is fully repaid, all under the loan's row lock.
func (uc *RecordRepaymentUseCase) Execute(ctx context.Context, req dto.RecordRepaymentRequest) (dto.RecordRepaymentResponse, error) {
	now := uc.clock.Now()
	today := uc.clock.Today()
	date := req.Date
	if date.IsZero() {
		date = today
	}

	// 1. Build the repayment
	r, err := model.NewRepayment(req.LoanID, date, req.Amount, req.RecordedBy, now)
	if err != nil {
		return dto.RecordRepaymentResponse{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	// 2. Allocate under the loan lock
	var alloc service.Allocation
	err = uc.store.Update(ctx, req.LoanID, func(ledger *model.Ledger) error {
		var err error
		alloc, err = uc.engine.Allocate(ledger, r, today)
		return err
	})
	if err != nil {
		return dto.RecordRepaymentResponse{}, fmt.Errorf("allocate repayment: %w", err)
	}
	uc.metrics.repaymentRecorded(ctx, alloc.Closed)
	uc.metrics.linesRecalculated(ctx, alloc.LinesRecalculated)

	return dto.RecordRepaymentResponse{
		Repayment:         toRepaymentDTO(alloc.Repayment),
		Reallocated:       alloc.Reallocated,
		LoanClosed:        alloc.Closed,
		LinesRecalculated: alloc.LinesRecalculated,
	}, nil
}
