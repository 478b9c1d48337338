package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Singh-Sg/loan-app/internal/application/dto"
	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/port"
	"github.com/Singh-Sg/loan-app/internal/domain/service"
)

// RecalculateLockKey guards the nightly recalculation job.
const RecalculateLockKey = "servicing:job:recalculate-schedules"

// RecalculateScheduleUseCase brings one loan's schedule up to date.
type RecalculateScheduleUseCase struct {
	store   port.LedgerStore
	recalc  *service.ScheduleRecalculator
	clock   port.Clock
	metrics *Metrics
}

// NewRecalculateScheduleUseCase wires dependencies.
func NewRecalculateScheduleUseCase(
	store port.LedgerStore,
	recalc *service.ScheduleRecalculator,
	clock port.Clock,
	metrics *Metrics,
) *RecalculateScheduleUseCase {
	return &RecalculateScheduleUseCase{store: store, recalc: recalc, clock: clock, metrics: metrics}
}

// Execute recalculates as of today in the service zone.
func (uc *RecalculateScheduleUseCase) Execute(ctx context.Context, req dto.RecalculateScheduleRequest) (dto.RecalculateScheduleResponse, error) {
	today := uc.clock.Today()

	var changed int
	err := uc.store.Update(ctx, req.LoanID, func(ledger *model.Ledger) error {
		var err error
		changed, err = uc.recalc.Recalculate(ledger, today)
		return err
	})
	if err != nil {
		return dto.RecalculateScheduleResponse{}, fmt.Errorf("recalculate schedule: %w", err)
	}
	uc.metrics.linesRecalculated(ctx, changed)

	return dto.RecalculateScheduleResponse{LoanID: req.LoanID, AsOf: today, LinesChanged: changed}, nil
}

// RecalculateAllSchedulesUseCase is the nightly job over every open loan.
type RecalculateAllSchedulesUseCase struct {
	store       port.LedgerStore
	single      *RecalculateScheduleUseCase
	locker      port.Locker
	lockTTL     time.Duration
	concurrency int
}

// NewRecalculateAllSchedulesUseCase wires dependencies. concurrency bounds
// how many loans are processed at once.
func NewRecalculateAllSchedulesUseCase(
	store port.LedgerStore,
	single *RecalculateScheduleUseCase,
	locker port.Locker,
	lockTTL time.Duration,
	concurrency int,
) *RecalculateAllSchedulesUseCase {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &RecalculateAllSchedulesUseCase{
		store:       store,
		single:      single,
		locker:      locker,
		lockTTL:     lockTTL,
		concurrency: concurrency,
	}
}

// Execute recalculates every open loan. A failing loan is reported and does
// not stop the others. When another replica holds the job lock the run is
// skipped.
func (uc *RecalculateAllSchedulesUseCase) Execute(ctx context.Context) (dto.BatchResponse, error) {
	// 1. Take the job lock
	release, err := uc.locker.Acquire(ctx, RecalculateLockKey, uc.lockTTL)
	if errors.Is(err, port.ErrLockHeld) {
		return dto.BatchResponse{Skipped: true}, nil
	}
	if err != nil {
		return dto.BatchResponse{}, fmt.Errorf("acquire job lock: %w", err)
	}
	defer release(context.WithoutCancel(ctx)) //nolint:errcheck

	// 2. List open loans
	ids, err := uc.store.ListOpenLoanIDs(ctx)
	if err != nil {
		return dto.BatchResponse{}, fmt.Errorf("list open loans: %w", err)
	}

	// 3. Recalculate each in its own transaction
	var (
		mu   sync.Mutex
		resp = dto.BatchResponse{Processed: len(ids)}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			out, err := uc.single.Execute(gctx, dto.RecalculateScheduleRequest{LoanID: id})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				resp.Failed = append(resp.Failed, id)
				return nil
			}
			if out.LinesChanged > 0 {
				resp.Changed++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return resp, err
	}
	return resp, ctx.Err()
}
