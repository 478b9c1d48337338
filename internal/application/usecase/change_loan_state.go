package usecase

import (
	"context"
	"fmt"

	"github.com/Singh-Sg/loan-app/internal/application/dto"
	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/port"
	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
)

// ChangeLoanStateUseCase moves a loan along its lifecycle table.
type ChangeLoanStateUseCase struct {
	store port.LedgerStore
	clock port.Clock
}

// NewChangeLoanStateUseCase wires dependencies.
func NewChangeLoanStateUseCase(store port.LedgerStore, clock port.Clock) *ChangeLoanStateUseCase {
	return &ChangeLoanStateUseCase{store: store, clock: clock}
}

// Execute applies the transition. REPAID is reached only through repayment
// allocation.
func (uc *ChangeLoanStateUseCase) Execute(ctx context.Context, req dto.ChangeLoanStateRequest) (dto.LoanResponse, error) {
	next, err := valueobject.NewLoanState(req.State)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if next.Equal(valueobject.LoanStateRepaid) {
		return dto.LoanResponse{}, fmt.Errorf("%w: loans become REPAID by repayment", ErrInvalidRequest)
	}

	var resp dto.LoanResponse
	err = uc.store.Update(ctx, req.LoanID, func(ledger *model.Ledger) error {
		loan, err := ledger.Loan().TransitionTo(next, uc.clock.Now())
		if err != nil {
			return err
		}
		ledger.SetLoan(loan)
		resp = toLoanResponse(loan, nil)
		return nil
	})
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("change loan state: %w", err)
	}
	return resp, nil
}
