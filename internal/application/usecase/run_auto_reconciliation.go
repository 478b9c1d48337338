package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Singh-Sg/loan-app/internal/application/dto"
	"github.com/Singh-Sg/loan-app/internal/domain/port"
	"github.com/Singh-Sg/loan-app/internal/domain/service"
)

// AutoReconcileLockKey guards the automatic reconciliation job.
const AutoReconcileLockKey = "servicing:job:auto-reconcile"

// RunAutoReconciliationUseCase runs one reconciliation pass for every
// counterparty.
type RunAutoReconciliationUseCase struct {
	counterparties port.CounterpartyRepository
	store          port.ReconciliationStore
	engine         *service.ReconciliationEngine
	locker         port.Locker
	clock          port.Clock
	metrics        *Metrics
	lockTTL        time.Duration
	concurrency    int
}

// NewRunAutoReconciliationUseCase wires dependencies.
func NewRunAutoReconciliationUseCase(
	counterparties port.CounterpartyRepository,
	store port.ReconciliationStore,
	engine *service.ReconciliationEngine,
	locker port.Locker,
	clock port.Clock,
	metrics *Metrics,
	lockTTL time.Duration,
	concurrency int,
) *RunAutoReconciliationUseCase {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &RunAutoReconciliationUseCase{
		counterparties: counterparties,
		store:          store,
		engine:         engine,
		locker:         locker,
		clock:          clock,
		metrics:        metrics,
		lockTTL:        lockTTL,
		concurrency:    concurrency,
	}
}

// Execute processes each counterparty in its own transaction. A failure for
// one counterparty is reported and leaves the others untouched.
func (uc *RunAutoReconciliationUseCase) Execute(ctx context.Context) (dto.AutoReconciliationResponse, error) {
	// 1. Take the job lock
	release, err := uc.locker.Acquire(ctx, AutoReconcileLockKey, uc.lockTTL)
	if errors.Is(err, port.ErrLockHeld) {
		return dto.AutoReconciliationResponse{Skipped: true}, nil
	}
	if err != nil {
		return dto.AutoReconciliationResponse{}, fmt.Errorf("acquire job lock: %w", err)
	}
	defer release(context.WithoutCancel(ctx)) //nolint:errcheck

	// 2. List counterparties
	cps, err := uc.counterparties.List(ctx)
	if err != nil {
		return dto.AutoReconciliationResponse{}, fmt.Errorf("list counterparties: %w", err)
	}

	// 3. One pass per counterparty
	var (
		mu   sync.Mutex
		resp = dto.AutoReconciliationResponse{Counterparties: len(cps)}
	)
	now := uc.clock.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)
	for _, cp := range cps {
		g.Go(func() error {
			res, err := uc.reconcileCounterparty(gctx, cp.ID(), now)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				resp.Failed = append(resp.Failed, cp.ID())
				return nil
			}
			resp.Escalated += res.Escalated
			if res.Reconciliation != nil {
				resp.Reconciliations++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return resp, err
	}
	return resp, ctx.Err()
}

// ReconcileCounterparty runs a single pass for one counterparty.
func (uc *RunAutoReconciliationUseCase) ReconcileCounterparty(ctx context.Context, counterpartyID string) (service.PassResult, error) {
	return uc.reconcileCounterparty(ctx, counterpartyID, uc.clock.Now())
}

func (uc *RunAutoReconciliationUseCase) reconcileCounterparty(ctx context.Context, counterpartyID string, now time.Time) (service.PassResult, error) {
	var res service.PassResult
	err := uc.store.WithinTx(ctx, func(tx port.ReconciliationTx) error {
		cp, err := tx.LockCounterparty(ctx, counterpartyID)
		if err != nil {
			return fmt.Errorf("lock counterparty: %w", err)
		}
		repayments, err := tx.OpenRepayments(ctx, counterpartyID)
		if err != nil {
			return fmt.Errorf("open repayments: %w", err)
		}
		transfers, err := tx.OpenTransfers(ctx, counterpartyID)
		if err != nil {
			return fmt.Errorf("open transfers: %w", err)
		}

		res, err = uc.engine.RunPass(service.CounterpartyBook{
			Counterparty: cp,
			Repayments:   repayments,
			Transfers:    transfers,
		}, now)
		if err != nil {
			return err
		}

		if res.Reconciliation != nil {
			if err := tx.InsertReconciliation(ctx, *res.Reconciliation); err != nil {
				return fmt.Errorf("insert reconciliation: %w", err)
			}
		}
		if len(res.Repayments) > 0 {
			if err := tx.SaveRepaymentStatuses(ctx, res.Repayments...); err != nil {
				return fmt.Errorf("save repayments: %w", err)
			}
		}
		if len(res.Transfers) > 0 {
			if err := tx.SaveTransferStatuses(ctx, res.Transfers...); err != nil {
				return fmt.Errorf("save transfers: %w", err)
			}
		}
		if res.CounterpartyMoved {
			if err := tx.SaveWatermark(ctx, res.Counterparty); err != nil {
				return fmt.Errorf("save watermark: %w", err)
			}
		}
		if len(res.Events) > 0 {
			if err := tx.AppendEvents(ctx, res.Events...); err != nil {
				return fmt.Errorf("append events: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return service.PassResult{}, fmt.Errorf("reconcile counterparty %s: %w", counterpartyID, err)
	}
	uc.metrics.recordsEscalated(ctx, res.Escalated)
	if res.Reconciliation != nil {
		uc.metrics.reconciliationCreated(ctx, res.Reconciliation.Method().String())
	}
	return res, nil
}
