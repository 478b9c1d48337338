package scheduler

import (
	"context"
	"log/slog"

	"github.com/Singh-Sg/loan-app/internal/application/usecase"
)

// RecalculationJob recalculates every open loan's schedule.
func RecalculationJob(spec string, uc *usecase.RecalculateAllSchedulesUseCase, logger *slog.Logger) Job {
	return Job{
		Name: "recalculate-schedules",
		Spec: spec,
		Run: func(ctx context.Context) error {
			resp, err := uc.Execute(ctx)
			if err != nil {
				return err
			}
			if resp.Skipped {
				logger.InfoContext(ctx, "recalculation held by another replica")
				return nil
			}
			if len(resp.Failed) > 0 {
				logger.WarnContext(ctx, "some loans failed to recalculate",
					"failed", len(resp.Failed), "loan_ids", resp.Failed)
			}
			logger.InfoContext(ctx, "schedules recalculated",
				"processed", resp.Processed, "changed", resp.Changed)
			return nil
		},
	}
}

// ReconciliationJob runs an automatic reconciliation pass.
func ReconciliationJob(spec string, uc *usecase.RunAutoReconciliationUseCase, logger *slog.Logger) Job {
	return Job{
		Name: "auto-reconcile",
		Spec: spec,
		Run: func(ctx context.Context) error {
			resp, err := uc.Execute(ctx)
			if err != nil {
				return err
			}
			if resp.Skipped {
				logger.InfoContext(ctx, "reconciliation held by another replica")
				return nil
			}
			if len(resp.Failed) > 0 {
				logger.WarnContext(ctx, "some counterparties failed to reconcile",
					"failed", len(resp.Failed), "counterparty_ids", resp.Failed)
			}
			logger.InfoContext(ctx, "reconciliation pass finished",
				"counterparties", resp.Counterparties,
				"reconciliations", resp.Reconciliations,
				"escalated", resp.Escalated,
			)
			return nil
		},
	}
}
