package usecase

import (
	"context"
	"fmt"

	"github.com/Singh-Sg/loan-app/internal/application/dto"
	"github.com/Singh-Sg/loan-app/internal/domain/port"
	"github.com/Singh-Sg/loan-app/internal/domain/service"
)

// GetLoanUseCase retrieves a loan summary.
type GetLoanUseCase struct {
	store port.LedgerStore
	clock port.Clock
}

// NewGetLoanUseCase wires dependencies.
func NewGetLoanUseCase(store port.LedgerStore, clock port.Clock) *GetLoanUseCase {
	return &GetLoanUseCase{store: store, clock: clock}
}

// Execute returns the loan, its schedule and repayments, and what is
// outstanding and due as of today.
func (uc *GetLoanUseCase) Execute(ctx context.Context, req dto.GetLoanRequest) (dto.LoanSummaryResponse, error) {
	today := uc.clock.Today()

	ledger, err := uc.store.Load(ctx, req.LoanID)
	if err != nil {
		return dto.LoanSummaryResponse{}, fmt.Errorf("find loan: %w", err)
	}
	outstanding, err := service.ComputeOutstanding(ledger, today)
	if err != nil {
		return dto.LoanSummaryResponse{}, fmt.Errorf("outstanding balance: %w", err)
	}

	repayments := make([]dto.RepaymentDTO, 0, len(ledger.Repayments()))
	for _, r := range ledger.Repayments() {
		repayments = append(repayments, toRepaymentDTO(r))
	}
	return dto.LoanSummaryResponse{
		Loan:        toLoanResponse(ledger.Loan(), ledger.Lines()),
		Repayments:  repayments,
		Outstanding: toComponentsDTO(outstanding.Components),
		AmountDue:   toComponentsDTO(service.AmountDueAt(ledger, today)),
		AsOf:        today,
	}, nil
}
