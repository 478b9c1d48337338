package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
)

// Repayment is an actual payment received against a loan. Its breakdown is
// always computed by the allocation engine, never supplied by the caller.
type Repayment struct {
	id         string
	loanID     string
	date       time.Time
	amount     decimal.Decimal
	breakdown  Components
	mark       reconciliationMark
	recordedAt time.Time
	recordedBy string
}

// NewRepayment creates an unallocated, unreconciled repayment.
func NewRepayment(loanID string, date time.Time, amount decimal.Decimal, recordedBy string, now time.Time) (Repayment, error) {
	if loanID == "" {
		return Repayment{}, errors.New("loan ID is required")
	}
	if date.IsZero() {
		return Repayment{}, errors.New("repayment date is required")
	}
	if !amount.IsPositive() {
		return Repayment{}, errors.New("repayment amount must be positive")
	}
	return Repayment{
		id:         uuid.New().String(),
		loanID:     loanID,
		date:       valueobject.TruncateDate(date),
		amount:     amount,
		mark:       reconciliationMark{status: valueobject.ReconciliationNotReconciled},
		recordedAt: now,
		recordedBy: recordedBy,
	}, nil
}

// ReconstructRepayment rebuilds a Repayment from persistence.
func ReconstructRepayment(
	id, loanID string,
	date time.Time,
	amount decimal.Decimal,
	breakdown Components,
	status valueobject.ReconciliationStatus,
	reconciliationID string,
	recordedAt time.Time,
	recordedBy string,
) Repayment {
	return Repayment{
		id:         id,
		loanID:     loanID,
		date:       date,
		amount:     amount,
		breakdown:  breakdown,
		mark:       reconciliationMark{status: status, id: reconciliationID},
		recordedAt: recordedAt,
		recordedBy: recordedBy,
	}
}

// WithBreakdown returns a copy carrying the given split.
func (r Repayment) WithBreakdown(c Components) Repayment {
	out := r
	out.breakdown = c
	return out
}

// Reconcile moves the repayment to a matched status under reconciliationID.
func (r Repayment) Reconcile(next valueobject.ReconciliationStatus, reconciliationID string) (Repayment, error) {
	mark, err := r.mark.reconcile(next, reconciliationID)
	if err != nil {
		return r, err
	}
	out := r
	out.mark = mark
	return out, nil
}

// Escalate flags the repayment for manual reconciliation.
func (r Repayment) Escalate() (Repayment, error) {
	mark, err := r.mark.escalate()
	if err != nil {
		return r, err
	}
	out := r
	out.mark = mark
	return out, nil
}

func (r Repayment) ID() string                                             { return r.id }
func (r Repayment) LoanID() string                                         { return r.loanID }
func (r Repayment) Date() time.Time                                        { return r.date }
func (r Repayment) Amount() decimal.Decimal                                { return r.amount }
func (r Repayment) Breakdown() Components                                  { return r.breakdown }
func (r Repayment) ReconciliationStatus() valueobject.ReconciliationStatus { return r.mark.status }
func (r Repayment) ReconciliationID() string                               { return r.mark.id }
func (r Repayment) RecordedAt() time.Time                                  { return r.recordedAt }
func (r Repayment) RecordedBy() string                                     { return r.recordedBy }
