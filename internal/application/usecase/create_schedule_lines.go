package usecase

import (
	"context"
	"fmt"

	"github.com/Singh-Sg/loan-app/internal/application/dto"
	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/port"
	"github.com/Singh-Sg/loan-app/internal/domain/service"
)

// CreateScheduleLinesUseCase attaches an externally computed schedule to a
// loan.
type CreateScheduleLinesUseCase struct {
	store port.LedgerStore
}

// NewCreateScheduleLinesUseCase wires dependencies.
func NewCreateScheduleLinesUseCase(store port.LedgerStore) *CreateScheduleLinesUseCase {
	return &CreateScheduleLinesUseCase{store: store}
}

// Execute appends the lines. The whole schedule must still add up to the
// loan's principal and fee afterwards.
func (uc *CreateScheduleLinesUseCase) Execute(ctx context.Context, req dto.CreateScheduleLinesRequest) (dto.LoanResponse, error) {
	if len(req.Lines) == 0 {
		return dto.LoanResponse{}, fmt.Errorf("%w: no schedule lines", ErrInvalidRequest)
	}

	var resp dto.LoanResponse
	err := uc.store.Update(ctx, req.LoanID, func(ledger *model.Ledger) error {
		// 1. Reject once repayments exist
		if len(ledger.Repayments()) > 0 {
			return fmt.Errorf("%w: loan %s already has repayments", ErrInvalidRequest, req.LoanID)
		}

		// 2. Append and validate the combined schedule
		lines := make([]model.ScheduleLine, 0, len(req.Lines))
		for _, l := range req.Lines {
			lines = append(lines, fromLineDTO(req.LoanID, l))
		}
		ledger.AddLines(lines...)
		if err := service.ValidateSchedule(ledger.Loan(), ledger.Lines()); err != nil {
			return fmt.Errorf("%w: validate schedule: %w", ErrInvalidRequest, err)
		}

		resp = toLoanResponse(ledger.Loan(), ledger.Lines())
		return nil
	})
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("create schedule lines: %w", err)
	}
	return resp, nil
}
