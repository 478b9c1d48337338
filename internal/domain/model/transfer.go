package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
)

// Transfer is a confirmed movement of money from a counterparty to the
// lender. Only its reconciliation state is ever changed by this service.
type Transfer struct {
	id             string
	counterpartyID string
	amount         decimal.Decimal
	timestamp      time.Time
	successful     bool
	externalRef    string
	mark           reconciliationMark
}

// NewTransfer validates an incoming confirmation.
func NewTransfer(id, counterpartyID string, amount decimal.Decimal, timestamp time.Time, successful bool, externalRef string) (Transfer, error) {
	if id == "" {
		return Transfer{}, errors.New("transfer ID is required")
	}
	if counterpartyID == "" {
		return Transfer{}, errors.New("counterparty ID is required")
	}
	if amount.IsNegative() {
		return Transfer{}, errors.New("transfer amount must not be negative")
	}
	if timestamp.IsZero() {
		return Transfer{}, errors.New("transfer timestamp is required")
	}
	return Transfer{
		id:             id,
		counterpartyID: counterpartyID,
		amount:         amount,
		timestamp:      timestamp.UTC(),
		successful:     successful,
		externalRef:    externalRef,
		mark:           reconciliationMark{status: valueobject.ReconciliationNotReconciled},
	}, nil
}

// ReconstructTransfer rebuilds a Transfer from persistence.
func ReconstructTransfer(
	id, counterpartyID string,
	amount decimal.Decimal,
	timestamp time.Time,
	successful bool,
	externalRef string,
	status valueobject.ReconciliationStatus,
	reconciliationID string,
) Transfer {
	return Transfer{
		id:             id,
		counterpartyID: counterpartyID,
		amount:         amount,
		timestamp:      timestamp,
		successful:     successful,
		externalRef:    externalRef,
		mark:           reconciliationMark{status: status, id: reconciliationID},
	}
}

// Reconcile moves the transfer to a matched status under reconciliationID.
func (t Transfer) Reconcile(next valueobject.ReconciliationStatus, reconciliationID string) (Transfer, error) {
	mark, err := t.mark.reconcile(next, reconciliationID)
	if err != nil {
		return t, err
	}
	out := t
	out.mark = mark
	return out, nil
}

// Escalate flags the transfer for manual reconciliation.
func (t Transfer) Escalate() (Transfer, error) {
	mark, err := t.mark.escalate()
	if err != nil {
		return t, err
	}
	out := t
	out.mark = mark
	return out, nil
}

func (t Transfer) ID() string                                             { return t.id }
func (t Transfer) CounterpartyID() string                                 { return t.counterpartyID }
func (t Transfer) Amount() decimal.Decimal                                { return t.amount }
func (t Transfer) Timestamp() time.Time                                   { return t.timestamp }
func (t Transfer) Successful() bool                                       { return t.successful }
func (t Transfer) ExternalRef() string                                    { return t.externalRef }
func (t Transfer) ReconciliationStatus() valueobject.ReconciliationStatus { return t.mark.status }
func (t Transfer) ReconciliationID() string                               { return t.mark.id }
