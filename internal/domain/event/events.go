package event

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Singh-Sg/loan-app/pkg/events"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

const (
	aggregateLoan           = "Loan"
	aggregateCounterparty   = "Counterparty"
	aggregateReconciliation = "Reconciliation"

	dateLayout = "2006-01-02"
)

// ---------------------------------------------------------------------------
// Loan events
// ---------------------------------------------------------------------------

// LoanCreated is raised when a loan contract is booked.
type LoanCreated struct {
	events.BaseEvent
	BorrowerID     string          `json:"borrower_id"`
	CounterpartyID string          `json:"counterparty_id"`
	Amount         decimal.Decimal `json:"amount"`
	Fee            decimal.Decimal `json:"fee"`
	Currency       string          `json:"currency"`
	InterestModel  string          `json:"interest_model"`
}

func NewLoanCreated(
	loanID, borrowerID, counterpartyID string,
	amount, fee decimal.Decimal, currency, interestModel string,
	at time.Time,
) LoanCreated {
	return LoanCreated{
		BaseEvent:      events.NewBaseEvent("servicing.loan.created", loanID, aggregateLoan, at),
		BorrowerID:     borrowerID,
		CounterpartyID: counterpartyID,
		Amount:         amount,
		Fee:            fee,
		Currency:       currency,
		InterestModel:  interestModel,
	}
}

// LoanStateChanged is raised on every lifecycle transition.
type LoanStateChanged struct {
	events.BaseEvent
	From string `json:"from"`
	To   string `json:"to"`
}

func NewLoanStateChanged(loanID, from, to string, at time.Time) LoanStateChanged {
	return LoanStateChanged{
		BaseEvent: events.NewBaseEvent("servicing.loan.state_changed", loanID, aggregateLoan, at),
		From:      from,
		To:        to,
	}
}

// LoanRepaid is raised when every component of a loan is fully repaid.
type LoanRepaid struct {
	events.BaseEvent
	RepaidOn string `json:"repaid_on"`
}

func NewLoanRepaid(loanID string, repaidOn, at time.Time) LoanRepaid {
	return LoanRepaid{
		BaseEvent: events.NewBaseEvent("servicing.loan.repaid", loanID, aggregateLoan, at),
		RepaidOn:  repaidOn.Format(dateLayout),
	}
}

// RepaymentRecorded is raised once per allocated repayment. Reallocated lists
// the later repayments whose breakdown was recomputed in the same unit.
type RepaymentRecorded struct {
	events.BaseEvent
	RepaymentID  string          `json:"repayment_id"`
	Date         string          `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	Principal    decimal.Decimal `json:"principal"`
	Fee          decimal.Decimal `json:"fee"`
	Interest     decimal.Decimal `json:"interest"`
	Penalty      decimal.Decimal `json:"penalty"`
	Subscription decimal.Decimal `json:"subscription"`
	Reallocated  []string        `json:"reallocated,omitempty"`
}

// RepaymentBreakdown is the per-component split carried by RepaymentRecorded.
type RepaymentBreakdown struct {
	Principal, Fee, Interest, Penalty, Subscription decimal.Decimal
}

func NewRepaymentRecorded(
	loanID, repaymentID string, date time.Time, amount decimal.Decimal,
	breakdown RepaymentBreakdown, reallocated []string, at time.Time,
) RepaymentRecorded {
	return RepaymentRecorded{
		BaseEvent:    events.NewBaseEvent("servicing.repayment.recorded", loanID, aggregateLoan, at),
		RepaymentID:  repaymentID,
		Date:         date.Format(dateLayout),
		Amount:       amount,
		Principal:    breakdown.Principal,
		Fee:          breakdown.Fee,
		Interest:     breakdown.Interest,
		Penalty:      breakdown.Penalty,
		Subscription: breakdown.Subscription,
		Reallocated:  reallocated,
	}
}

// ScheduleRecalculated is raised when a recalculation pass changed lines.
type ScheduleRecalculated struct {
	events.BaseEvent
	AsOf         string `json:"as_of"`
	LinesChanged int    `json:"lines_changed"`
}

func NewScheduleRecalculated(loanID string, asOf time.Time, linesChanged int, at time.Time) ScheduleRecalculated {
	return ScheduleRecalculated{
		BaseEvent:    events.NewBaseEvent("servicing.schedule.recalculated", loanID, aggregateLoan, at),
		AsOf:         asOf.Format(dateLayout),
		LinesChanged: linesChanged,
	}
}

// ScheduleShifted is raised when lines were moved, typically for a holiday.
type ScheduleShifted struct {
	events.BaseEvent
	From         string `json:"from"`
	Days         int    `json:"days"`
	LinesShifted int    `json:"lines_shifted"`
}

func NewScheduleShifted(loanID string, from time.Time, days, linesShifted int, at time.Time) ScheduleShifted {
	return ScheduleShifted{
		BaseEvent:    events.NewBaseEvent("servicing.schedule.shifted", loanID, aggregateLoan, at),
		From:         from.Format(dateLayout),
		Days:         days,
		LinesShifted: linesShifted,
	}
}

// ---------------------------------------------------------------------------
// Reconciliation events
// ---------------------------------------------------------------------------

// ReconciliationCreated is raised for every immutable match record.
type ReconciliationCreated struct {
	events.BaseEvent
	CounterpartyID string          `json:"counterparty_id"`
	Method         string          `json:"method"`
	ReconciledBy   string          `json:"reconciled_by"`
	Total          decimal.Decimal `json:"total"`
	RepaymentIDs   []string        `json:"repayment_ids"`
	TransferIDs    []string        `json:"transfer_ids"`
}

func NewReconciliationCreated(
	reconciliationID, counterpartyID, method, reconciledBy string,
	total decimal.Decimal, repaymentIDs, transferIDs []string,
	at time.Time,
) ReconciliationCreated {
	return ReconciliationCreated{
		BaseEvent:      events.NewBaseEvent("servicing.reconciliation.created", reconciliationID, aggregateReconciliation, at),
		CounterpartyID: counterpartyID,
		Method:         method,
		ReconciledBy:   reconciledBy,
		Total:          total,
		RepaymentIDs:   repaymentIDs,
		TransferIDs:    transferIDs,
	}
}

// RecordsEscalated is raised when unmatched records pass their local deadline.
type RecordsEscalated struct {
	events.BaseEvent
	RepaymentIDs []string `json:"repayment_ids"`
	TransferIDs  []string `json:"transfer_ids"`
}

func NewRecordsEscalated(counterpartyID string, repaymentIDs, transferIDs []string, at time.Time) RecordsEscalated {
	return RecordsEscalated{
		BaseEvent:    events.NewBaseEvent("servicing.reconciliation.escalated", counterpartyID, aggregateCounterparty, at),
		RepaymentIDs: repaymentIDs,
		TransferIDs:  transferIDs,
	}
}
