package usecase

import (
	"context"
	"fmt"

	"github.com/Singh-Sg/loan-app/internal/application/dto"
	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/port"
	"github.com/Singh-Sg/loan-app/internal/domain/service"
	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
)

// ShiftScheduleUseCase moves due dates out of a window, typically a public
// holiday, for every affected loan.
type ShiftScheduleUseCase struct {
	store port.LedgerStore
	clock port.Clock
}

// NewShiftScheduleUseCase wires dependencies.
func NewShiftScheduleUseCase(store port.LedgerStore, clock port.Clock) *ShiftScheduleUseCase {
	return &ShiftScheduleUseCase{store: store, clock: clock}
}

// Execute shifts each loan in its own transaction.
func (uc *ShiftScheduleUseCase) Execute(ctx context.Context, req dto.ShiftScheduleRequest) (dto.ShiftScheduleResponse, error) {
	today := uc.clock.Today()
	from := valueobject.TruncateDate(req.From)
	to := valueobject.TruncateDate(req.To)
	if req.To.IsZero() {
		to = from
	}

	// 1. Validate the window before touching any loan
	if !from.After(today) {
		return dto.ShiftScheduleResponse{}, fmt.Errorf("%w: %w", ErrInvalidRequest, model.ErrShiftInPast)
	}
	if to.Before(from) {
		return dto.ShiftScheduleResponse{}, fmt.Errorf("%w: window ends before it starts", ErrInvalidRequest)
	}
	if req.Days == 0 {
		return dto.ShiftScheduleResponse{}, nil
	}

	// 2. Find affected loans
	ids, err := uc.store.ListLoanIDsWithLinesBetween(ctx, from, to)
	if err != nil {
		return dto.ShiftScheduleResponse{}, fmt.Errorf("list loans: %w", err)
	}

	// 3. Shift each one
	var resp dto.ShiftScheduleResponse
	for _, id := range ids {
		var moved int
		err := uc.store.Update(ctx, id, func(ledger *model.Ledger) error {
			var err error
			moved, err = service.ShiftSchedule(ledger, from, to, req.Days, today, uc.clock.Now())
			return err
		})
		if err != nil {
			resp.Failed = append(resp.Failed, id)
			continue
		}
		if moved > 0 {
			resp.Loans++
			resp.Lines += moved
		}
	}
	return resp, nil
}
