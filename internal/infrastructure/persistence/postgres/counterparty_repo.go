package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/port"
)

var _ port.CounterpartyRepository = (*CounterpartyRepo)(nil)

type CounterpartyRepo struct {
	pool *pgxpool.Pool
}

func NewCounterpartyRepo(pool *pgxpool.Pool) *CounterpartyRepo {
	return &CounterpartyRepo{pool: pool}
}

func (r *CounterpartyRepo) FindByID(ctx context.Context, id string) (model.Counterparty, error) {
	cp, err := scanCounterparty(r.pool.QueryRow(ctx, `
		SELECT id, name, time_zone, last_reconciled_at FROM counterparties WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Counterparty{}, fmt.Errorf("counterparty %s: %w", id, model.ErrNotFound)
		}
		return model.Counterparty{}, fmt.Errorf("query counterparty: %w", err)
	}
	return cp, nil
}

func (r *CounterpartyRepo) List(ctx context.Context) ([]model.Counterparty, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, time_zone, last_reconciled_at FROM counterparties ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query counterparties: %w", err)
	}
	cps, err := collect(rows, scanCounterparty)
	if err != nil {
		return nil, fmt.Errorf("scan counterparty: %w", err)
	}
	return cps, nil
}

// Save upserts name and time zone. The reconciliation watermark is only
// moved by reconciliation passes.
func (r *CounterpartyRepo) Save(ctx context.Context, cp model.Counterparty) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO counterparties (id, name, time_zone, last_reconciled_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			time_zone = EXCLUDED.time_zone
	`, cp.ID(), cp.Name(), cp.TimeZone(), cp.LastReconciledAt())
	if err != nil {
		return fmt.Errorf("upsert counterparty: %w", err)
	}
	return nil
}
