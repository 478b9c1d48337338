package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/Singh-Sg/loan-app/internal/application/dto"
	"github.com/Singh-Sg/loan-app/internal/domain/event"
	"github.com/Singh-Sg/loan-app/internal/domain/port"
	"github.com/Singh-Sg/loan-app/internal/domain/service"
)

// ReconcileManualUseCase records a match chosen by an operator.
type ReconcileManualUseCase struct {
	store   port.ReconciliationStore
	engine  *service.ReconciliationEngine
	clock   port.Clock
	metrics *Metrics
}

// NewReconcileManualUseCase wires dependencies.
func NewReconcileManualUseCase(
	store port.ReconciliationStore,
	engine *service.ReconciliationEngine,
	clock port.Clock,
	metrics *Metrics,
) *ReconcileManualUseCase {
	return &ReconcileManualUseCase{store: store, engine: engine, clock: clock, metrics: metrics}
}

// Execute validates the selection and marks every record MANUAL_RECONCILED.
// Nothing is written when validation fails.
func (uc *ReconcileManualUseCase) Execute(ctx context.Context, req dto.ReconcileManualRequest) (dto.ReconciliationResponse, error) {
	if strings.TrimSpace(req.ReconciledBy) == "" {
		return dto.ReconciliationResponse{}, fmt.Errorf("%w: reconciled_by is required", ErrInvalidRequest)
	}

	var resp dto.ReconciliationResponse
	err := uc.store.WithinTx(ctx, func(tx port.ReconciliationTx) error {
		// 1. Lock the selected records
		repayments, err := tx.RepaymentsByID(ctx, req.RepaymentIDs)
		if err != nil {
			return fmt.Errorf("load repayments: %w", err)
		}
		transfers, err := tx.TransfersByID(ctx, req.TransferIDs)
		if err != nil {
			return fmt.Errorf("load transfers: %w", err)
		}

		// 2. Validate and match
		match, err := uc.engine.Manual(repayments, transfers, req.ReconciledBy, uc.clock.Now())
		if err != nil {
			return err
		}

		// 3. Persist statuses, the reconciliation and its event
		if err := tx.InsertReconciliation(ctx, match.Reconciliation); err != nil {
			return fmt.Errorf("insert reconciliation: %w", err)
		}
		if err := tx.SaveRepaymentStatuses(ctx, match.Repayments...); err != nil {
			return fmt.Errorf("save repayments: %w", err)
		}
		if err := tx.SaveTransferStatuses(ctx, match.Transfers...); err != nil {
			return fmt.Errorf("save transfers: %w", err)
		}
		if err := tx.AppendEvents(ctx, event.DomainEvent(match.Event)); err != nil {
			return fmt.Errorf("append events: %w", err)
		}
		resp = toReconciliationResponse(match.Reconciliation)
		return nil
	})
	if err != nil {
		return dto.ReconciliationResponse{}, fmt.Errorf("reconcile manually: %w", err)
	}
	uc.metrics.reconciliationCreated(ctx, resp.Method)
	return resp, nil
}
