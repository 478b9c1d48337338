package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// Business-rule rejections
// ---------------------------------------------------------------------------

var (
	ErrNotFound               = errors.New("not found")
	ErrLoanAlreadyRepaid      = errors.New("loan already repaid")
	ErrRepaymentTooBig        = errors.New("repayment exceeds maximum repayable")
	ErrRepaymentInFuture      = errors.New("repayment date is in the future")
	ErrMultipleCounterparties = errors.New("records belong to more than one counterparty")
	ErrAmountMismatch         = errors.New("repayment and transfer totals differ")
	ErrAlreadyReconciled      = errors.New("record already reconciled")
	ErrEmptyReconciliation    = errors.New("reconciliation needs at least one record")
	ErrShiftInPast            = errors.New("schedule can only be shifted for future dates")
)

// ---------------------------------------------------------------------------
// Integrity errors
// ---------------------------------------------------------------------------

var (
	ErrBreakdownInconsistent = errors.New("repayment breakdown does not sum to its amount")
	ErrScheduleSumMismatch   = errors.New("schedule lines do not sum to the loan terms")
	ErrOutstandingNegative   = errors.New("outstanding balance is negative")
)

// ---------------------------------------------------------------------------
// Configuration errors
// ---------------------------------------------------------------------------

var (
	ErrUnsupportedInterestModel = valueobject.ErrUnsupportedInterestModel
	ErrZeroInterestRate         = errors.New("equal-installment model needs a non-zero interest rate")
)

// RepaymentTooBigError carries the ceiling the rejected amount was checked
// against. It matches ErrRepaymentTooBig under errors.Is.
type RepaymentTooBigError struct {
	Amount       decimal.Decimal
	MaxRepayable decimal.Decimal
}

func (e *RepaymentTooBigError) Error() string {
	return fmt.Sprintf("repayment of %s exceeds maximum repayable %s", e.Amount, e.MaxRepayable)
}

func (e *RepaymentTooBigError) Unwrap() error { return ErrRepaymentTooBig }

// OutstandingNegativeError names the component whose repaid total overshot
// what was scheduled. It matches ErrOutstandingNegative under errors.Is.
type OutstandingNegativeError struct {
	LoanID    string
	Component valueobject.Component
	Value     decimal.Decimal
}

func (e *OutstandingNegativeError) Error() string {
	return fmt.Sprintf("loan %s: %s outstanding is negative (%s)", e.LoanID, e.Component, e.Value)
}

func (e *OutstandingNegativeError) Unwrap() error { return ErrOutstandingNegative }
