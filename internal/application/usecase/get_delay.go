package usecase

import (
	"context"
	"fmt"

	"github.com/Singh-Sg/loan-app/internal/application/dto"
	"github.com/Singh-Sg/loan-app/internal/domain/port"
	"github.com/Singh-Sg/loan-app/internal/domain/service"
	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
)

// GetDelayUseCase reports delinquency figures for a loan.
type GetDelayUseCase struct {
	store port.LedgerStore
	clock port.Clock
}

// NewGetDelayUseCase wires dependencies.
func NewGetDelayUseCase(store port.LedgerStore, clock port.Clock) *GetDelayUseCase {
	return &GetDelayUseCase{store: store, clock: clock}
}

// Execute returns the historical delay as of yesterday and the current
// delay at req.At, defaulting to today.
func (uc *GetDelayUseCase) Execute(ctx context.Context, req dto.GetDelayRequest) (dto.DelayResponse, error) {
	today := uc.clock.Today()
	at := today
	if !req.At.IsZero() {
		at = valueobject.TruncateDate(req.At)
	}

	ledger, err := uc.store.Load(ctx, req.LoanID)
	if err != nil {
		return dto.DelayResponse{}, fmt.Errorf("find loan: %w", err)
	}

	return dto.DelayResponse{
		LoanID:               req.LoanID,
		Delay:                service.Delay(ledger, today),
		DelayAt:              service.CurrentDelayAt(ledger, at, today),
		At:                   at,
		AmountDue:            toComponentsDTO(service.AmountDueAt(ledger, at)),
		NextDisbursementDate: service.NextDisbursementDate(ledger, today),
	}, nil
}
