package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Singh-Sg/loan-app/internal/domain/event"
	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/port"
	"github.com/Singh-Sg/loan-app/internal/domain/service"
	pkgpostgres "github.com/Singh-Sg/loan-app/pkg/postgres"
)

var (
	_ port.ReconciliationStore = (*ReconciliationStore)(nil)
	_ port.ReconciliationTx    = (*reconciliationTx)(nil)
)

// ReconciliationStore runs reconciliation work in a read-committed
// transaction. Records are row-locked as they are read.
type ReconciliationStore struct {
	pool *pgxpool.Pool
}

func NewReconciliationStore(pool *pgxpool.Pool) *ReconciliationStore {
	return &ReconciliationStore{pool: pool}
}

func (s *ReconciliationStore) WithinTx(ctx context.Context, fn func(tx port.ReconciliationTx) error) error {
	return pkgpostgres.WithTransaction(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&reconciliationTx{tx: tx})
	})
}

type reconciliationTx struct {
	tx pgx.Tx
}

func (t *reconciliationTx) LockCounterparty(ctx context.Context, id string) (model.Counterparty, error) {
	cp, err := scanCounterparty(t.tx.QueryRow(ctx, `
		SELECT id, name, time_zone, last_reconciled_at FROM counterparties WHERE id = $1 FOR UPDATE
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Counterparty{}, fmt.Errorf("counterparty %s: %w", id, model.ErrNotFound)
		}
		return model.Counterparty{}, fmt.Errorf("lock counterparty: %w", err)
	}
	return cp, nil
}

func (t *reconciliationTx) OpenRepayments(ctx context.Context, counterpartyID string) ([]model.Repayment, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+prefixed("r.", repaymentColumns)+`
		FROM repayments r
		JOIN loans l ON l.id = r.loan_id
		WHERE l.counterparty_id = $1 AND r.reconciliation_status = 'NOT_RECONCILED'
		ORDER BY r.date, r.recorded_at
		FOR UPDATE OF r
	`, counterpartyID)
	if err != nil {
		return nil, fmt.Errorf("query open repayments: %w", err)
	}
	out, err := collect(rows, scanRepayment)
	if err != nil {
		return nil, fmt.Errorf("scan repayment: %w", err)
	}
	return out, nil
}

func (t *reconciliationTx) OpenTransfers(ctx context.Context, counterpartyID string) ([]model.Transfer, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+transferColumns+`
		FROM transfers
		WHERE counterparty_id = $1 AND reconciliation_status = 'NOT_RECONCILED'
		ORDER BY ts
		FOR UPDATE
	`, counterpartyID)
	if err != nil {
		return nil, fmt.Errorf("query open transfers: %w", err)
	}
	out, err := collect(rows, scanTransfer)
	if err != nil {
		return nil, fmt.Errorf("scan transfer: %w", err)
	}
	return out, nil
}

func (t *reconciliationTx) RepaymentsByID(ctx context.Context, ids []string) ([]service.CounterpartyRepayment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := t.tx.Query(ctx, `
		SELECT `+prefixed("r.", repaymentColumns)+`, l.counterparty_id
		FROM repayments r
		JOIN loans l ON l.id = r.loan_id
		WHERE r.id = ANY($1)
		FOR UPDATE OF r
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("query repayments: %w", err)
	}
	found, err := collect(rows, func(row pgx.Row) (service.CounterpartyRepayment, error) {
		var cr service.CounterpartyRepayment
		r, err := scanRepayment(withTrailing(row, &cr.CounterpartyID))
		cr.Repayment = r
		return cr, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan repayment: %w", err)
	}

	byID := make(map[string]service.CounterpartyRepayment, len(found))
	for _, cr := range found {
		byID[cr.Repayment.ID()] = cr
	}
	out := make([]service.CounterpartyRepayment, 0, len(ids))
	for _, id := range ids {
		cr, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("repayment %s: %w", id, model.ErrNotFound)
		}
		out = append(out, cr)
	}
	return out, nil
}

func (t *reconciliationTx) TransfersByID(ctx context.Context, ids []string) ([]model.Transfer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := t.tx.Query(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = ANY($1) FOR UPDATE`, ids)
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}
	found, err := collect(rows, scanTransfer)
	if err != nil {
		return nil, fmt.Errorf("scan transfer: %w", err)
	}

	byID := make(map[string]model.Transfer, len(found))
	for _, tr := range found {
		byID[tr.ID()] = tr
	}
	out := make([]model.Transfer, 0, len(ids))
	for _, id := range ids {
		tr, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("transfer %s: %w", id, model.ErrNotFound)
		}
		out = append(out, tr)
	}
	return out, nil
}

func (t *reconciliationTx) SaveRepaymentStatuses(ctx context.Context, repayments ...model.Repayment) error {
	batch := &pgx.Batch{}
	for _, r := range repayments {
		batch.Queue(`UPDATE repayments SET reconciliation_status = $2, reconciliation_id = $3 WHERE id = $1`,
			r.ID(), r.ReconciliationStatus().String(), nullIfEmpty(r.ReconciliationID()))
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("update repayment statuses: %w", err)
	}
	return nil
}

func (t *reconciliationTx) SaveTransferStatuses(ctx context.Context, transfers ...model.Transfer) error {
	batch := &pgx.Batch{}
	for _, tr := range transfers {
		batch.Queue(`UPDATE transfers SET reconciliation_status = $2, reconciliation_id = $3 WHERE id = $1`,
			tr.ID(), tr.ReconciliationStatus().String(), nullIfEmpty(tr.ReconciliationID()))
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("update transfer statuses: %w", err)
	}
	return nil
}

func (t *reconciliationTx) SaveWatermark(ctx context.Context, cp model.Counterparty) error {
	_, err := t.tx.Exec(ctx, `UPDATE counterparties SET last_reconciled_at = $2 WHERE id = $1`,
		cp.ID(), cp.LastReconciledAt())
	if err != nil {
		return fmt.Errorf("update watermark: %w", err)
	}
	return nil
}

func (t *reconciliationTx) InsertReconciliation(ctx context.Context, r model.Reconciliation) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO reconciliations (id, method, counterparty_id, reconciled_by, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.ID(), r.Method().String(), r.CounterpartyID(), r.ReconciledBy(), r.Total(), r.CreatedAt())
	if err != nil {
		return fmt.Errorf("insert reconciliation: %w", err)
	}
	return nil
}

func (t *reconciliationTx) AppendEvents(ctx context.Context, events ...event.DomainEvent) error {
	return writeOutbox(ctx, t.tx, events...)
}

// prefixed qualifies every column in a column list with prefix.
func prefixed(prefix, columns string) string {
	fields := strings.Split(columns, ",")
	for i, f := range fields {
		fields[i] = prefix + strings.TrimSpace(f)
	}
	return strings.Join(fields, ", ")
}

// trailingRow appends extra scan destinations after the ones the wrapped
// scanner provides.
type trailingRow struct {
	row   pgx.Row
	extra []any
}

func withTrailing(row pgx.Row, extra ...any) pgx.Row { return trailingRow{row: row, extra: extra} }

func (r trailingRow) Scan(dest ...any) error { return r.row.Scan(append(dest, r.extra...)...) }
