package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/port"
)

var _ port.TransferRepository = (*TransferRepo)(nil)

type TransferRepo struct {
	pool *pgxpool.Pool
}

func NewTransferRepo(pool *pgxpool.Pool) *TransferRepo {
	return &TransferRepo{pool: pool}
}

// Save inserts t unless its ID is already stored; confirmations are
// delivered at least once.
func (r *TransferRepo) Save(ctx context.Context, t model.Transfer) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO transfers (`+transferColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, t.ID(), t.CounterpartyID(), t.Amount(), t.Timestamp(), t.Successful(), t.ExternalRef(),
		t.ReconciliationStatus().String(), nullIfEmpty(t.ReconciliationID()))
	if err != nil {
		return false, fmt.Errorf("insert transfer: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
