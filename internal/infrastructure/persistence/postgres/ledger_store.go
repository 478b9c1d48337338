package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/port"
	pkgpostgres "github.com/Singh-Sg/loan-app/pkg/postgres"
)

// Compile-time interface check
var _ port.LedgerStore = (*LedgerStore)(nil)

// LedgerStore persists loans, their schedule lines and repayments. Update
// serialises writers on a loan with SELECT ... FOR UPDATE.
type LedgerStore struct {
	pool *pgxpool.Pool
}

func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

func (s *LedgerStore) Create(ctx context.Context, ledger *model.Ledger) error {
	return pkgpostgres.WithTransaction(ctx, s.pool, func(tx pgx.Tx) error {
		loan := ledger.Loan()
		_, err := tx.Exec(ctx, `
			INSERT INTO loans (`+loanColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		`, loanArgs(loan)...)
		if err != nil {
			if pkgpostgres.IsUniqueViolation(err) {
				return fmt.Errorf("insert loan %s: already exists", loan.ID())
			}
			return fmt.Errorf("insert loan: %w", err)
		}
		return s.writeChanges(ctx, tx, ledger)
	})
}

func (s *LedgerStore) Update(ctx context.Context, loanID string, fn func(ledger *model.Ledger) error) error {
	return pkgpostgres.WithTransaction(ctx, s.pool, func(tx pgx.Tx) error {
		// 1. Lock and load
		ledger, err := load(ctx, tx, loanID, true)
		if err != nil {
			return err
		}

		// 2. Apply the change in memory
		if err := fn(ledger); err != nil {
			return err
		}

		// 3. Write back what changed
		if ledger.LoanChanged() || len(ledger.ChangedLines()) > 0 || len(ledger.ChangedRepayments()) > 0 ||
			len(ledger.NewLines()) > 0 || len(ledger.NewRepayments()) > 0 {
			loan := ledger.Loan()
			_, err = tx.Exec(ctx, `
				UPDATE loans
				SET due_date = $2, state = $3, repaid_on = $4, version = version + 1, updated_at = $5
				WHERE id = $1
			`, loan.ID(), nullIfZero(loan.DueDate()), loan.State().String(), repaidOn(loan), time.Now().UTC())
			if err != nil {
				return fmt.Errorf("update loan: %w", err)
			}
		}
		return s.writeChanges(ctx, tx, ledger)
	})
}

func (s *LedgerStore) Load(ctx context.Context, loanID string) (*model.Ledger, error) {
	return load(ctx, s.pool, loanID, false)
}

func (s *LedgerStore) ListOpenLoanIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id FROM loans
		WHERE repaid_on IS NULL AND state IN ('DISBURSED', 'DEFAULTED')
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query open loans: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *LedgerStore) ListLoanIDsWithLinesBetween(ctx context.Context, from, to time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT l.id
		FROM loans l
		JOIN schedule_lines sl ON sl.loan_id = l.id
		WHERE l.repaid_on IS NULL AND sl.date BETWEEN $1 AND $2
		ORDER BY l.id
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query loans with lines: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func load(ctx context.Context, q pkgpostgres.Querier, loanID string, forUpdate bool) (*model.Ledger, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	loan, err := scanLoan(q.QueryRow(ctx, query, loanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("loan %s: %w", loanID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("query loan: %w", err)
	}

	rows, err := q.Query(ctx, `SELECT `+lineColumns+` FROM schedule_lines WHERE loan_id = $1 ORDER BY date, id`, loanID)
	if err != nil {
		return nil, fmt.Errorf("query schedule lines: %w", err)
	}
	lines, err := collect(rows, scanLine)
	if err != nil {
		return nil, fmt.Errorf("scan schedule line: %w", err)
	}

	rows, err = q.Query(ctx, `SELECT `+repaymentColumns+` FROM repayments WHERE loan_id = $1 ORDER BY date, recorded_at`, loanID)
	if err != nil {
		return nil, fmt.Errorf("query repayments: %w", err)
	}
	repayments, err := collect(rows, scanRepayment)
	if err != nil {
		return nil, fmt.Errorf("scan repayment: %w", err)
	}

	return model.NewLedger(loan, lines, repayments), nil
}

// writeChanges stores new and changed lines and repayments plus every pending
// event.
func (s *LedgerStore) writeChanges(ctx context.Context, tx pgx.Tx, ledger *model.Ledger) error {
	batch := &pgx.Batch{}
	for _, l := range ledger.NewLines() {
		batch.Queue(`INSERT INTO schedule_lines (`+lineColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			l.ID, l.LoanID, l.Date, l.Principal, l.Fee, l.Interest, l.Penalty, l.Subscription, l.Note)
	}
	for _, l := range ledger.ChangedLines() {
		batch.Queue(`
			UPDATE schedule_lines
			SET date = $2, principal = $3, fee = $4, interest = $5, penalty = $6, subscription = $7, note = $8
			WHERE id = $1
		`, l.ID, l.Date, l.Principal, l.Fee, l.Interest, l.Penalty, l.Subscription, l.Note)
	}
	for _, r := range ledger.NewRepayments() {
		bd := r.Breakdown()
		batch.Queue(`INSERT INTO repayments (`+repaymentColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			r.ID(), r.LoanID(), r.Date(), r.Amount(), bd.Principal, bd.Fee, bd.Interest, bd.Penalty, bd.Subscription,
			r.ReconciliationStatus().String(), nullIfEmpty(r.ReconciliationID()), r.RecordedAt(), r.RecordedBy())
	}
	for _, r := range ledger.ChangedRepayments() {
		bd := r.Breakdown()
		batch.Queue(`
			UPDATE repayments
			SET principal = $2, fee = $3, interest = $4, penalty = $5, subscription = $6
			WHERE id = $1
		`, r.ID(), bd.Principal, bd.Fee, bd.Interest, bd.Penalty, bd.Subscription)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("write ledger changes: %w", err)
		}
	}

	if err := writeOutbox(ctx, tx, ledger.PendingEvents()...); err != nil {
		return err
	}
	return nil
}

func loanArgs(loan model.Loan) []any {
	return []any{
		loan.ID(), loan.BorrowerID(), loan.CounterpartyID(), loan.Currency().Code(),
		loan.Amount(), loan.Fee(), loan.InterestRate(),
		loan.InterestModel().String(), loan.RatePeriod().String(), loan.NumberOfRepayments(),
		loan.NormalInstallment(), loan.BulletInstallment(),
		loan.OriginDate(), nullIfZero(loan.DueDate()), loan.State().String(), repaidOn(loan),
		loan.Version(), loan.CreatedAt(), loan.UpdatedAt(),
	}
}

func repaidOn(loan model.Loan) *time.Time {
	if d, ok := loan.RepaidOn(); ok {
		return &d
	}
	return nil
}
