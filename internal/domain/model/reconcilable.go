package model

import (
	"fmt"

	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
)

// reconciliationMark is the reconciliation state shared by repayments and
// transfers.
type reconciliationMark struct {
	status valueobject.ReconciliationStatus
	id     string
}

func (m reconciliationMark) reconcile(next valueobject.ReconciliationStatus, reconciliationID string) (reconciliationMark, error) {
	if m.status.IsReconciled() {
		return m, fmt.Errorf("%w (%w: %s)", ErrAlreadyReconciled, valueobject.ErrInvalidStatusTransition, m.status)
	}
	status, err := m.status.TransitionTo(next)
	if err != nil {
		return m, err
	}
	return reconciliationMark{status: status, id: reconciliationID}, nil
}

func (m reconciliationMark) escalate() (reconciliationMark, error) {
	status, err := m.status.TransitionTo(valueobject.ReconciliationNeedManual)
	if err != nil {
		return m, err
	}
	return reconciliationMark{status: status, id: m.id}, nil
}
