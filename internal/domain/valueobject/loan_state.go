package valueobject

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidStatusTransition is returned when a state machine is asked to move
// along an edge its transition table does not contain.
var ErrInvalidStatusTransition = errors.New("invalid status transition")

// ---------------------------------------------------------------------------
// LoanState – immutable value object
// ---------------------------------------------------------------------------

// LoanState is the lifecycle stage of a loan contract.
type LoanState struct {
	value string
}

const (
	loanStateDraft          = "DRAFT"
	loanStateSubmitted      = "SUBMITTED"
	loanStateSigned         = "SIGNED"
	loanStateApproved       = "APPROVED"
	loanStateRejected       = "REJECTED"
	loanStateDisbursed      = "DISBURSED"
	loanStateRepaid         = "REPAID"
	loanStateDefaulted      = "DEFAULTED"
	loanStateFraudSuspected = "FRAUD_SUSPECTED"
	loanStateFraudConfirmed = "FRAUD_CONFIRMED"
)

var (
	LoanStateDraft          = LoanState{value: loanStateDraft}
	LoanStateSubmitted      = LoanState{value: loanStateSubmitted}
	LoanStateSigned         = LoanState{value: loanStateSigned}
	LoanStateApproved       = LoanState{value: loanStateApproved}
	LoanStateRejected       = LoanState{value: loanStateRejected}
	LoanStateDisbursed      = LoanState{value: loanStateDisbursed}
	LoanStateRepaid         = LoanState{value: loanStateRepaid}
	LoanStateDefaulted      = LoanState{value: loanStateDefaulted}
	LoanStateFraudSuspected = LoanState{value: loanStateFraudSuspected}
	LoanStateFraudConfirmed = LoanState{value: loanStateFraudConfirmed}
)

var validLoanStates = map[string]LoanState{
	loanStateDraft:          LoanStateDraft,
	loanStateSubmitted:      LoanStateSubmitted,
	loanStateSigned:         LoanStateSigned,
	loanStateApproved:       LoanStateApproved,
	loanStateRejected:       LoanStateRejected,
	loanStateDisbursed:      LoanStateDisbursed,
	loanStateRepaid:         LoanStateRepaid,
	loanStateDefaulted:      LoanStateDefaulted,
	loanStateFraudSuspected: LoanStateFraudSuspected,
	loanStateFraudConfirmed: LoanStateFraudConfirmed,
}

// Fraud is only screened at signing, before any money moves. DEFAULTED
// loans keep collecting and close like disbursed ones.
var loanStateTransitions = map[string][]string{
	loanStateDraft:          {loanStateSubmitted},
	loanStateSubmitted:      {loanStateSigned, loanStateFraudSuspected},
	loanStateSigned:         {loanStateApproved, loanStateRejected},
	loanStateApproved:       {loanStateDisbursed},
	loanStateDisbursed:      {loanStateRepaid, loanStateDefaulted},
	loanStateDefaulted:      {loanStateRepaid},
	loanStateFraudSuspected: {loanStateFraudConfirmed},
}

// NewLoanState creates a LoanState from a raw string.
func NewLoanState(s string) (LoanState, error) {
	v, ok := validLoanStates[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return LoanState{}, fmt.Errorf("invalid loan state: %q", s)
	}
	return v, nil
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s LoanState) CanTransitionTo(next LoanState) bool {
	return allowed(loanStateTransitions, s.value, next.value)
}

// TransitionTo returns next, or ErrInvalidStatusTransition.
func (s LoanState) TransitionTo(next LoanState) (LoanState, error) {
	if !s.CanTransitionTo(next) {
		return s, fmt.Errorf("%w: loan %s -> %s", ErrInvalidStatusTransition, s, next)
	}
	return next, nil
}

// IsPreDisbursement is true while the loan is still a request that has been
// accepted by the lender but not paid out.
func (s LoanState) IsPreDisbursement() bool {
	return s.value == loanStateSubmitted || s.value == loanStateApproved
}

// IsTerminal reports whether no transition leaves s.
func (s LoanState) IsTerminal() bool { return len(loanStateTransitions[s.value]) == 0 }

func (s LoanState) String() string { return s.value }

// IsZero returns true if the state has not been initialised.
func (s LoanState) IsZero() bool { return s.value == "" }

// Equal returns true when both states carry the same value.
func (s LoanState) Equal(other LoanState) bool { return s.value == other.value }

func allowed(table map[string][]string, from, to string) bool {
	for _, candidate := range table[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
