package valueobject

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// ReconciliationStatus – immutable value object
// ---------------------------------------------------------------------------

// ReconciliationStatus tracks whether a repayment or transfer has been matched.
type ReconciliationStatus struct {
	value string
}

const (
	reconNotReconciled    = "NOT_RECONCILED"
	reconAutoReconciled   = "AUTO_RECONCILED"
	reconManualReconciled = "MANUAL_RECONCILED"
	reconNeedManual       = "NEED_MANUAL_RECONCILIATION"
)

var (
	ReconciliationNotReconciled    = ReconciliationStatus{value: reconNotReconciled}
	ReconciliationAutoReconciled   = ReconciliationStatus{value: reconAutoReconciled}
	ReconciliationManualReconciled = ReconciliationStatus{value: reconManualReconciled}
	ReconciliationNeedManual       = ReconciliationStatus{value: reconNeedManual}
)

var validReconciliationStatuses = map[string]ReconciliationStatus{
	reconNotReconciled:    ReconciliationNotReconciled,
	reconAutoReconciled:   ReconciliationAutoReconciled,
	reconManualReconciled: ReconciliationManualReconciled,
	reconNeedManual:       ReconciliationNeedManual,
}

var reconciliationTransitions = map[string][]string{
	reconNotReconciled: {reconAutoReconciled, reconManualReconciled, reconNeedManual},
	reconNeedManual:    {reconAutoReconciled, reconManualReconciled},
}

// NewReconciliationStatus creates a ReconciliationStatus from a raw string.
func NewReconciliationStatus(s string) (ReconciliationStatus, error) {
	v, ok := validReconciliationStatuses[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return ReconciliationStatus{}, fmt.Errorf("invalid reconciliation status: %q", s)
	}
	return v, nil
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s ReconciliationStatus) CanTransitionTo(next ReconciliationStatus) bool {
	return allowed(reconciliationTransitions, s.value, next.value)
}

// TransitionTo validates the edge against the table before returning next.
func (s ReconciliationStatus) TransitionTo(next ReconciliationStatus) (ReconciliationStatus, error) {
	if !s.CanTransitionTo(next) {
		return s, fmt.Errorf("%w: reconciliation %s -> %s", ErrInvalidStatusTransition, s, next)
	}
	return next, nil
}

// IsReconciled is true for both terminal matched statuses.
func (s ReconciliationStatus) IsReconciled() bool {
	return s.value == reconAutoReconciled || s.value == reconManualReconciled
}

func (s ReconciliationStatus) String() string { return s.value }

// IsZero returns true if the status has not been initialised.
func (s ReconciliationStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses carry the same value.
func (s ReconciliationStatus) Equal(other ReconciliationStatus) bool {
	return s.value == other.value
}
