package postgres

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
	"github.com/Singh-Sg/loan-app/pkg/money"
)

const loanColumns = `id, borrower_id, counterparty_id, currency, amount, fee, interest_rate,
	interest_model, rate_period, number_of_repayments, normal_installment, bullet_installment,
	origin_date, due_date, state, repaid_on, version, created_at, updated_at`

const lineColumns = `id, loan_id, date, principal, fee, interest, penalty, subscription, note`

const repaymentColumns = `id, loan_id, date, amount, principal, fee, interest, penalty, subscription,
	reconciliation_status, reconciliation_id, recorded_at, recorded_by`

const transferColumns = `id, counterparty_id, amount, ts, successful, external_ref,
	reconciliation_status, reconciliation_id`

func scanLoan(row pgx.Row) (model.Loan, error) {
	var (
		id, borrowerID, counterpartyID, currency string
		interestModel, ratePeriod, state         string
		amount, fee, rate, normal, bullet        decimal.Decimal
		repayments, version                      int
		originDate                               time.Time
		dueDate, repaidOn                        *time.Time
		createdAt, updatedAt                     time.Time
	)
	if err := row.Scan(&id, &borrowerID, &counterpartyID, &currency, &amount, &fee, &rate,
		&interestModel, &ratePeriod, &repayments, &normal, &bullet,
		&originDate, &dueDate, &state, &repaidOn, &version, &createdAt, &updatedAt); err != nil {
		return model.Loan{}, err
	}

	cur, err := money.ParseCurrency(currency)
	if err != nil {
		return model.Loan{}, fmt.Errorf("loan %s: %w", id, err)
	}
	im, err := valueobject.ParseInterestModel(interestModel)
	if err != nil {
		return model.Loan{}, fmt.Errorf("loan %s: %w", id, err)
	}
	period, err := valueobject.NewRatePeriod(ratePeriod)
	if err != nil {
		return model.Loan{}, fmt.Errorf("loan %s: %w", id, err)
	}
	st, err := valueobject.NewLoanState(state)
	if err != nil {
		return model.Loan{}, fmt.Errorf("loan %s: %w", id, err)
	}

	terms := model.LoanTerms{
		BorrowerID:         borrowerID,
		CounterpartyID:     counterpartyID,
		Currency:           cur,
		Amount:             amount,
		Fee:                fee,
		InterestRate:       rate,
		InterestModel:      im,
		RatePeriod:         period,
		NumberOfRepayments: repayments,
		NormalInstallment:  normal,
		BulletInstallment:  bullet,
	}
	var due time.Time
	if dueDate != nil {
		due = *dueDate
	}
	return model.ReconstructLoan(id, terms, originDate, due, st, repaidOn, version, createdAt, updatedAt), nil
}

func scanLine(row pgx.Row) (model.ScheduleLine, error) {
	var l model.ScheduleLine
	err := row.Scan(&l.ID, &l.LoanID, &l.Date, &l.Principal, &l.Fee, &l.Interest, &l.Penalty, &l.Subscription, &l.Note)
	return l, err
}

func scanRepayment(row pgx.Row) (model.Repayment, error) {
	var (
		id, loanID, status, recordedBy string
		reconciliationID               *string
		date, recordedAt               time.Time
		amount                         decimal.Decimal
		c                              model.Components
	)
	if err := row.Scan(&id, &loanID, &date, &amount, &c.Principal, &c.Fee, &c.Interest, &c.Penalty, &c.Subscription,
		&status, &reconciliationID, &recordedAt, &recordedBy); err != nil {
		return model.Repayment{}, err
	}
	st, err := valueobject.NewReconciliationStatus(status)
	if err != nil {
		return model.Repayment{}, fmt.Errorf("repayment %s: %w", id, err)
	}
	return model.ReconstructRepayment(id, loanID, date, amount, c, st, deref(reconciliationID), recordedAt, recordedBy), nil
}

func scanTransfer(row pgx.Row) (model.Transfer, error) {
	var (
		id, counterpartyID, externalRef, status string
		reconciliationID                        *string
		amount                                  decimal.Decimal
		ts                                      time.Time
		successful                              bool
	)
	if err := row.Scan(&id, &counterpartyID, &amount, &ts, &successful, &externalRef,
		&status, &reconciliationID); err != nil {
		return model.Transfer{}, err
	}
	st, err := valueobject.NewReconciliationStatus(status)
	if err != nil {
		return model.Transfer{}, fmt.Errorf("transfer %s: %w", id, err)
	}
	return model.ReconstructTransfer(id, counterpartyID, amount, ts, successful, externalRef, st, deref(reconciliationID)), nil
}

func scanCounterparty(row pgx.Row) (model.Counterparty, error) {
	var (
		id, name, tz string
		watermark    time.Time
	)
	if err := row.Scan(&id, &name, &tz, &watermark); err != nil {
		return model.Counterparty{}, err
	}
	return model.NewCounterparty(id, name, tz, watermark)
}

// collect scans every row with scan.
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullIfZero(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
