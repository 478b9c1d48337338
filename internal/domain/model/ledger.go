package model

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Singh-Sg/loan-app/internal/domain/event"
	"github.com/Singh-Sg/loan-app/pkg/events"
)

// Ledger is the consistency boundary for one loan: the contract, its
// schedule lines and every repayment recorded against it. Domain services
// mutate a Ledger in memory; a store persists whatever it reports as changed
// in one transaction.
type Ledger struct {
	events.EventCollector

	loan        Loan
	loanChanged bool
	lines       []ScheduleLine
	repayments  []Repayment

	newLines          map[string]bool
	changedLines      map[string]bool
	newRepayments     map[string]bool
	changedRepayments map[string]bool
}

// NewLedger assembles a ledger from loaded state. Inputs are copied and
// sorted by date.
func NewLedger(loan Loan, lines []ScheduleLine, repayments []Repayment) *Ledger {
	l := &Ledger{
		loan:              loan,
		lines:             append([]ScheduleLine(nil), lines...),
		repayments:        append([]Repayment(nil), repayments...),
		newLines:          make(map[string]bool),
		changedLines:      make(map[string]bool),
		newRepayments:     make(map[string]bool),
		changedRepayments: make(map[string]bool),
	}
	l.sortLines()
	l.sortRepayments()
	return l
}

// ---------------------------------------------------------------------------
// Mutations
// ---------------------------------------------------------------------------

// SetLoan replaces the loan, keeping its pending events.
func (l *Ledger) SetLoan(loan Loan) {
	l.loan = loan
	l.loanChanged = true
}

// AddLines appends freshly created schedule lines and refreshes the loan's
// due date.
func (l *Ledger) AddLines(lines ...ScheduleLine) {
	for _, line := range lines {
		l.lines = append(l.lines, line)
		l.newLines[line.ID] = true
	}
	l.sortLines()
	l.refreshDueDate()
}

// UpdateLine replaces the line with the same ID. Unchanged values are not
// marked dirty.
func (l *Ledger) UpdateLine(line ScheduleLine) error {
	for i := range l.lines {
		if l.lines[i].ID != line.ID {
			continue
		}
		if l.lines[i].Date.Equal(line.Date) && l.lines[i].Components.Equal(line.Components) {
			return nil
		}
		redate := !l.lines[i].Date.Equal(line.Date)
		l.lines[i] = line
		if !l.newLines[line.ID] {
			l.changedLines[line.ID] = true
		}
		if redate {
			l.sortLines()
			l.refreshDueDate()
		}
		return nil
	}
	return fmt.Errorf("schedule line %s: %w", line.ID, ErrNotFound)
}

// AddRepayment records a new repayment.
func (l *Ledger) AddRepayment(r Repayment) {
	l.repayments = append(l.repayments, r)
	l.newRepayments[r.ID()] = true
	l.sortRepayments()
}

// UpdateRepayment replaces the repayment with the same ID.
func (l *Ledger) UpdateRepayment(r Repayment) error {
	for i := range l.repayments {
		if l.repayments[i].ID() != r.ID() {
			continue
		}
		l.repayments[i] = r
		if !l.newRepayments[r.ID()] {
			l.changedRepayments[r.ID()] = true
		}
		return nil
	}
	return fmt.Errorf("repayment %s: %w", r.ID(), ErrNotFound)
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (l *Ledger) Loan() Loan { return l.loan }

// Lines returns a copy of the schedule in date order.
func (l *Ledger) Lines() []ScheduleLine { return append([]ScheduleLine(nil), l.lines...) }

// Repayments returns a copy of the repayments in date order.
func (l *Ledger) Repayments() []Repayment { return append([]Repayment(nil), l.repayments...) }

// Repayment looks a repayment up by ID.
func (l *Ledger) Repayment(id string) (Repayment, bool) {
	for _, r := range l.repayments {
		if r.ID() == id {
			return r, true
		}
	}
	return Repayment{}, false
}

// LineOn returns the first line dated exactly on date.
func (l *Ledger) LineOn(date time.Time) (ScheduleLine, bool) {
	for _, line := range l.lines {
		if line.Date.Equal(date) {
			return line, true
		}
	}
	return ScheduleLine{}, false
}

// LinesAfter returns lines dated strictly after date, in date order.
func (l *Ledger) LinesAfter(date time.Time) []ScheduleLine {
	var out []ScheduleLine
	for _, line := range l.lines {
		if line.Date.After(date) {
			out = append(out, line)
		}
	}
	return out
}

// RepaymentsAfter returns repayments dated strictly after date, oldest first.
func (l *Ledger) RepaymentsAfter(date time.Time) []Repayment {
	var out []Repayment
	for _, r := range l.repayments {
		if r.Date().After(date) {
			out = append(out, r)
		}
	}
	return out
}

// LatestRepaymentDate is the most recent repayment date on file.
func (l *Ledger) LatestRepaymentDate() (time.Time, bool) {
	if len(l.repayments) == 0 {
		return time.Time{}, false
	}
	return l.repayments[len(l.repayments)-1].Date(), true
}

// ---------------------------------------------------------------------------
// Aggregates
// ---------------------------------------------------------------------------

// ScheduledTotal sums every schedule line.
func (l *Ledger) ScheduledTotal() Components {
	var sum Components
	for _, line := range l.lines {
		sum = sum.Add(line.Components)
	}
	return sum
}

// ScheduledThrough sums lines dated on or before date.
func (l *Ledger) ScheduledThrough(date time.Time) Components {
	var sum Components
	for _, line := range l.lines {
		if !line.Date.After(date) {
			sum = sum.Add(line.Components)
		}
	}
	return sum
}

// RepaidTotal sums the breakdown of every repayment except excludeID.
func (l *Ledger) RepaidTotal(excludeID string) Components {
	var sum Components
	for _, r := range l.repayments {
		if r.ID() != excludeID {
			sum = sum.Add(r.Breakdown())
		}
	}
	return sum
}

// RepaidThrough sums breakdowns of repayments dated on or before date,
// skipping excludeID.
func (l *Ledger) RepaidThrough(date time.Time, excludeID string) Components {
	var sum Components
	for _, r := range l.repayments {
		if r.ID() != excludeID && !r.Date().After(date) {
			sum = sum.Add(r.Breakdown())
		}
	}
	return sum
}

// RepaidBefore sums breakdowns of repayments dated strictly before date.
func (l *Ledger) RepaidBefore(date time.Time) Components {
	var sum Components
	for _, r := range l.repayments {
		if r.Date().Before(date) {
			sum = sum.Add(r.Breakdown())
		}
	}
	return sum
}

// RepaidOn sums breakdowns of repayments dated exactly on date.
func (l *Ledger) RepaidOn(date time.Time) Components {
	var sum Components
	for _, r := range l.repayments {
		if r.Date().Equal(date) {
			sum = sum.Add(r.Breakdown())
		}
	}
	return sum
}

// AmountRepaid sums repayment amounts except excludeID.
func (l *Ledger) AmountRepaid(excludeID string) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range l.repayments {
		if r.ID() != excludeID {
			sum = sum.Add(r.Amount())
		}
	}
	return sum
}

// ---------------------------------------------------------------------------
// Change tracking
// ---------------------------------------------------------------------------

// LoanChanged reports whether the loan row needs writing.
func (l *Ledger) LoanChanged() bool { return l.loanChanged }

// NewLines returns lines added since the ledger was loaded.
func (l *Ledger) NewLines() []ScheduleLine { return l.filterLines(l.newLines) }

// ChangedLines returns loaded lines whose values changed.
func (l *Ledger) ChangedLines() []ScheduleLine { return l.filterLines(l.changedLines) }

// NewRepayments returns repayments added since the ledger was loaded.
func (l *Ledger) NewRepayments() []Repayment { return l.filterRepayments(l.newRepayments) }

// ChangedRepayments returns loaded repayments whose breakdown changed.
func (l *Ledger) ChangedRepayments() []Repayment { return l.filterRepayments(l.changedRepayments) }

// PendingEvents returns the loan's events followed by the ledger's own.
func (l *Ledger) PendingEvents() []event.DomainEvent {
	out := append([]event.DomainEvent(nil), l.loan.DomainEvents()...)
	return append(out, l.Events()...)
}

func (l *Ledger) filterLines(set map[string]bool) []ScheduleLine {
	var out []ScheduleLine
	for _, line := range l.lines {
		if set[line.ID] {
			out = append(out, line)
		}
	}
	return out
}

func (l *Ledger) filterRepayments(set map[string]bool) []Repayment {
	var out []Repayment
	for _, r := range l.repayments {
		if set[r.ID()] {
			out = append(out, r)
		}
	}
	return out
}

func (l *Ledger) sortLines() {
	sort.SliceStable(l.lines, func(i, j int) bool { return l.lines[i].Date.Before(l.lines[j].Date) })
}

func (l *Ledger) sortRepayments() {
	sort.SliceStable(l.repayments, func(i, j int) bool {
		a, b := l.repayments[i], l.repayments[j]
		if !a.Date().Equal(b.Date()) {
			return a.Date().Before(b.Date())
		}
		return a.RecordedAt().Before(b.RecordedAt())
	})
}

func (l *Ledger) refreshDueDate() {
	if len(l.lines) == 0 {
		return
	}
	due := l.lines[len(l.lines)-1].Date
	if !due.Equal(l.loan.DueDate()) {
		l.loan = l.loan.WithDueDate(due)
		l.loanChanged = true
	}
}
