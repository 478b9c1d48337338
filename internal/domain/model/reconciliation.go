package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
)

// Reconciliation is the immutable record of one successful match.
type Reconciliation struct {
	id             string
	method         valueobject.ReconciliationStatus
	counterpartyID string
	reconciledBy   string
	total          decimal.Decimal
	repaymentIDs   []string
	transferIDs    []string
	createdAt      time.Time
}

// NewReconciliation creates the record. method must be one of the reconciled
// statuses.
func NewReconciliation(
	method valueobject.ReconciliationStatus,
	counterpartyID, reconciledBy string,
	total decimal.Decimal,
	repaymentIDs, transferIDs []string,
	now time.Time,
) (Reconciliation, error) {
	if !method.IsReconciled() {
		return Reconciliation{}, errors.New("reconciliation method must be AUTO or MANUAL")
	}
	if len(repaymentIDs)+len(transferIDs) == 0 {
		return Reconciliation{}, ErrEmptyReconciliation
	}
	return Reconciliation{
		id:             uuid.New().String(),
		method:         method,
		counterpartyID: counterpartyID,
		reconciledBy:   reconciledBy,
		total:          total,
		repaymentIDs:   append([]string(nil), repaymentIDs...),
		transferIDs:    append([]string(nil), transferIDs...),
		createdAt:      now,
	}, nil
}

// ReconstructReconciliation rebuilds a Reconciliation from persistence.
func ReconstructReconciliation(
	id string,
	method valueobject.ReconciliationStatus,
	counterpartyID, reconciledBy string,
	total decimal.Decimal,
	repaymentIDs, transferIDs []string,
	createdAt time.Time,
) Reconciliation {
	return Reconciliation{
		id:             id,
		method:         method,
		counterpartyID: counterpartyID,
		reconciledBy:   reconciledBy,
		total:          total,
		repaymentIDs:   repaymentIDs,
		transferIDs:    transferIDs,
		createdAt:      createdAt,
	}
}

func (r Reconciliation) ID() string                               { return r.id }
func (r Reconciliation) Method() valueobject.ReconciliationStatus { return r.method }
func (r Reconciliation) CounterpartyID() string                   { return r.counterpartyID }
func (r Reconciliation) ReconciledBy() string                     { return r.reconciledBy }
func (r Reconciliation) Total() decimal.Decimal                   { return r.total }
func (r Reconciliation) CreatedAt() time.Time                     { return r.createdAt }

// RepaymentIDs returns a copy of the matched repayment IDs.
func (r Reconciliation) RepaymentIDs() []string { return append([]string(nil), r.repaymentIDs...) }

// TransferIDs returns a copy of the matched transfer IDs.
func (r Reconciliation) TransferIDs() []string { return append([]string(nil), r.transferIDs...) }
