package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Singh-Sg/loan-app/internal/domain/event"
	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
)

// Allocation is the outcome of applying one repayment to a ledger.
type Allocation struct {
	Repayment         model.Repayment
	Reallocated       []string
	Closed            bool
	LinesRecalculated int
}

// Outstanding is what remains to be paid per component, with interest
// counted only on lines dated on or before Cutoff.
type Outstanding struct {
	Cutoff     time.Time
	Components model.Components
}

// IsZero reports whether nothing remains on any component.
func (o Outstanding) IsZero() bool {
	return o.Components.Equal(model.Components{})
}

// AllocationEngine splits repayments across penalty, fee, interest,
// subscription and principal and keeps the loan's closing date current.
type AllocationEngine struct {
	recalculator *ScheduleRecalculator
	now          func() time.Time
}

// NewAllocationEngine creates an AllocationEngine. now stamps aggregate
// updates and events; nil means time.Now.
func NewAllocationEngine(recalculator *ScheduleRecalculator, now func() time.Time) *AllocationEngine {
	if now == nil {
		now = time.Now
	}
	if recalculator == nil {
		recalculator = NewScheduleRecalculator(now)
	}
	return &AllocationEngine{recalculator: recalculator, now: now}
}

// Allocate applies r to the ledger as of the calendar date today. Repayments
// dated after r are re-broken down oldest first, the closure check runs, and
// actual-model schedules are brought up to date.
func (e *AllocationEngine) Allocate(ledger *model.Ledger, r model.Repayment, today time.Time) (Allocation, error) {
	loan := ledger.Loan()
	now := e.now().UTC()

	// 1. Guard the loan and date
	if loan.IsClosed() {
		return Allocation{}, model.ErrLoanAlreadyRepaid
	}
	if r.Date().After(today) {
		return Allocation{}, fmt.Errorf("%w: %s is after %s",
			model.ErrRepaymentInFuture, r.Date().Format(time.DateOnly), today.Format(time.DateOnly))
	}

	// 2. Enforce the repayment ceiling
	maxRepayable := MaxRepayable(ledger, r.ID())
	if r.Amount().GreaterThan(maxRepayable) {
		return Allocation{}, &model.RepaymentTooBigError{Amount: r.Amount(), MaxRepayable: maxRepayable}
	}

	// 3. Collect repayments dated after this one and clear their split
	posterior := ledger.RepaymentsAfter(r.Date())
	for _, p := range posterior {
		if err := ledger.UpdateRepayment(p.WithBreakdown(model.Components{})); err != nil {
			return Allocation{}, fmt.Errorf("reset posterior repayment: %w", err)
		}
	}

	// 4. Break the new repayment down
	breakdown, err := Breakdown(ledger, r.ID(), r.Date(), r.Amount())
	if err != nil {
		return Allocation{}, fmt.Errorf("breakdown: %w", err)
	}
	r = r.WithBreakdown(breakdown)
	ledger.AddRepayment(r)

	// 5. Re-allocate posterior repayments, oldest first
	reallocated := make([]string, 0, len(posterior))
	for _, p := range posterior {
		bd, err := Breakdown(ledger, p.ID(), p.Date(), p.Amount())
		if err != nil {
			return Allocation{}, fmt.Errorf("reallocate repayment %s: %w", p.ID(), err)
		}
		if err := ledger.UpdateRepayment(p.WithBreakdown(bd)); err != nil {
			return Allocation{}, fmt.Errorf("reallocate repayment %s: %w", p.ID(), err)
		}
		reallocated = append(reallocated, p.ID())
	}

	// 6. Close the loan when nothing is left
	closed, err := e.CloseIfRepaid(ledger)
	if err != nil {
		return Allocation{}, fmt.Errorf("closure: %w", err)
	}

	// 7. Bring actual-model interest in line with the new balance
	changed := 0
	if !closed && loan.InterestModel().IsActual() {
		if changed, err = e.recalculator.Recalculate(ledger, today); err != nil {
			return Allocation{}, err
		}
	}

	ledger.Record(event.NewRepaymentRecorded(
		loan.ID(), r.ID(), r.Date(), r.Amount(),
		event.RepaymentBreakdown{
			Principal:    breakdown.Principal,
			Fee:          breakdown.Fee,
			Interest:     breakdown.Interest,
			Penalty:      breakdown.Penalty,
			Subscription: breakdown.Subscription,
		},
		reallocated, now,
	))

	return Allocation{
		Repayment:         r,
		Reallocated:       reallocated,
		Closed:            closed,
		LinesRecalculated: changed,
	}, nil
}

// CloseIfRepaid closes the loan on its latest repayment date once the
// outstanding balance, with interest counted through that date, is zero.
func (e *AllocationEngine) CloseIfRepaid(ledger *model.Ledger) (bool, error) {
	loan := ledger.Loan()
	if loan.IsClosed() {
		return true, nil
	}
	latest, ok := ledger.LatestRepaymentDate()
	if !ok {
		return false, nil
	}
	out, err := ComputeOutstanding(ledger, latest)
	if err != nil {
		return false, err
	}
	if !out.IsZero() {
		return false, nil
	}
	ledger.SetLoan(loan.Close(latest, e.now().UTC()))
	return true, nil
}

// MaxRepayable is everything the schedule could demand (amount, fee, all
// scheduled interest, penalty and subscription) less what has been paid,
// ignoring excludeID.
func MaxRepayable(ledger *model.Ledger, excludeID string) decimal.Decimal {
	loan := ledger.Loan()
	scheduled := ledger.ScheduledTotal()
	return loan.Amount().
		Add(loan.Fee()).
		Add(scheduled.Interest).
		Add(scheduled.Penalty).
		Add(scheduled.Subscription).
		Sub(ledger.AmountRepaid(excludeID))
}

// ComputeOutstanding returns scheduled minus repaid per component. Interest
// only counts on lines dated on or before cutoff; the rest of the schedule
// contributes in full.
func ComputeOutstanding(ledger *model.Ledger, cutoff time.Time) (Outstanding, error) {
	scheduled := ledger.ScheduledTotal()
	scheduled.Interest = ledger.ScheduledThrough(cutoff).Interest

	remaining := scheduled.Sub(ledger.RepaidTotal(""))
	for _, c := range valueobject.BreakdownOrder() {
		if v := remaining.Get(c); v.IsNegative() {
			return Outstanding{}, &model.OutstandingNegativeError{
				LoanID:    ledger.Loan().ID(),
				Component: c,
				Value:     v,
			}
		}
	}
	return Outstanding{Cutoff: cutoff, Components: remaining}, nil
}

// Breakdown splits amount for the repayment repaymentID dated date.
//
// The past phase settles what is overdue through date, component by
// component. What is left prepays future lines in date order, skipping
// interest, after crediting anything already prepaid on each component.
func Breakdown(ledger *model.Ledger, repaymentID string, date time.Time, amount decimal.Decimal) (model.Components, error) {
	var (
		out    model.Components
		credit model.Components
		left   = amount
	)

	scheduled := ledger.ScheduledThrough(date)
	repaid := ledger.RepaidThrough(date, repaymentID)
	for _, c := range valueobject.BreakdownOrder() {
		debt := scheduled.Get(c).Sub(repaid.Get(c))
		if debt.IsNegative() {
			credit = credit.With(c, debt.Neg())
			continue
		}
		take := decimal.Min(debt, left)
		out = out.With(c, out.Get(c).Add(take))
		left = left.Sub(take)
	}

	for _, line := range ledger.LinesAfter(date) {
		if !left.IsPositive() {
			break
		}
		for _, c := range valueobject.PrepaymentOrder() {
			avail := line.Get(c)
			if cr := credit.Get(c); cr.IsPositive() {
				used := decimal.Min(cr, avail)
				credit = credit.With(c, cr.Sub(used))
				avail = avail.Sub(used)
			}
			take := decimal.Min(avail, left)
			if !take.IsPositive() {
				continue
			}
			out = out.With(c, out.Get(c).Add(take))
			left = left.Sub(take)
		}
	}

	if !out.Sum().Equal(amount) {
		return model.Components{}, fmt.Errorf("%w: %s allocated of %s", model.ErrBreakdownInconsistent, out.Sum(), amount)
	}
	return out, nil
}
