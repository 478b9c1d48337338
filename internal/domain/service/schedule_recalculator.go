package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Singh-Sg/loan-app/internal/domain/event"
	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
)

// ScheduleRecalculator keeps today's and future schedule lines consistent
// with the repayment history. Lines dated before yesterday are never
// touched, and running it twice for the same day changes nothing the second
// time.
type ScheduleRecalculator struct {
	now func() time.Time
}

// NewScheduleRecalculator creates a ScheduleRecalculator. now stamps the
// events it records; nil means time.Now.
func NewScheduleRecalculator(now func() time.Time) *ScheduleRecalculator {
	if now == nil {
		now = time.Now
	}
	return &ScheduleRecalculator{now: now}
}

// Recalculate rewrites lines as of the calendar date today and returns how
// many lines changed. Closed loans are left alone.
func (s *ScheduleRecalculator) Recalculate(ledger *model.Ledger, today time.Time) (int, error) {
	loan := ledger.Loan()
	if loan.IsClosed() {
		return 0, nil
	}
	before := len(ledger.ChangedLines())

	var err error
	switch loan.InterestModel() {
	case valueobject.InterestModelActual360, valueobject.InterestModelActual365:
		err = s.recalculateActual(ledger, today)
	case valueobject.InterestModelEqualRepayments:
		err = s.recalculateEqual(ledger, today)
	case valueobject.InterestModelUnknown:
		err = model.ErrUnsupportedInterestModel
	default:
		err = model.ErrUnsupportedInterestModel
	}
	if err != nil {
		return 0, fmt.Errorf("recalculate loan %s as of %s: %w", loan.ID(), today.Format(time.DateOnly), err)
	}

	changed := len(ledger.ChangedLines()) - before
	if changed > 0 {
		ledger.Record(event.NewScheduleRecalculated(loan.ID(), today, changed, s.now().UTC()))
	}
	return changed, nil
}

// recalculateActual sets today's interest from yesterday's closing balance,
// then walks future lines deriving each balance from the principal due
// through the previous line. Principal is never modified.
func (s *ScheduleRecalculator) recalculateActual(ledger *model.Ledger, today time.Time) error {
	loan := ledger.Loan()
	interest := func(balance decimal.Decimal) (decimal.Decimal, error) {
		return ActualInterest(loan.InterestModel(), balance, loan.InterestRate(), loan.RatePeriod(), 1, loan.Currency())
	}

	yesterdayOutstanding, err := principalOutstanding(loan, ledger.RepaidBefore(today))
	if err != nil {
		return err
	}
	outstanding, err := principalOutstanding(loan, ledger.RepaidTotal(""))
	if err != nil {
		return err
	}
	duePrincipal := decimal.Zero

	if inContract(loan, today) {
		if line, ok := ledger.LineOn(today); ok {
			if line.Interest, err = interest(yesterdayOutstanding); err != nil {
				return err
			}
			if err := ledger.UpdateLine(line); err != nil {
				return err
			}
			duePrincipal = principalDueAt(ledger, today)
		}
	}

	for _, line := range ledger.LinesAfter(today) {
		remaining := outstanding.Sub(duePrincipal)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		if line.Interest, err = interest(remaining); err != nil {
			return err
		}
		if err := ledger.UpdateLine(line); err != nil {
			return err
		}
		duePrincipal = principalDueAt(ledger, line.Date)
	}
	return nil
}

// recalculateEqual restarts the amortization from yesterday's outstanding
// principal whenever the history up to yesterday departs from the plan.
func (s *ScheduleRecalculator) recalculateEqual(ledger *model.Ledger, today time.Time) error {
	loan := ledger.Loan()
	origin := loan.OriginDate()
	yesterday := valueobject.AddDays(today, -1)
	repaidBefore := ledger.RepaidBefore(today).Principal

	if valueobject.AddDays(origin, 1).Before(today) && !today.After(loan.DueDate()) {
		scheduledBefore := ledger.ScheduledThrough(yesterday).Principal
		if scheduledBefore.Equal(repaidBefore) {
			return nil
		}
		if line, ok := ledger.LineOn(yesterday); ok {
			// Yesterday's line absorbs the whole offset so that lines before
			// today sum to the principal actually repaid before today.
			earlier := scheduledBefore.Sub(line.Principal)
			line.Principal = repaidBefore.Sub(earlier)
			if line.Principal.IsNegative() {
				return fmt.Errorf("%w: line %s would carry negative principal %s",
					model.ErrScheduleSumMismatch, line.ID, line.Principal)
			}
			if err := ledger.UpdateLine(line); err != nil {
				return err
			}
		}
	}

	yesterdayOutstanding, err := principalOutstanding(loan, ledger.RepaidBefore(today))
	if err != nil {
		return err
	}
	running, err := principalOutstanding(loan, ledger.RepaidTotal(""))
	if err != nil {
		return err
	}

	components := func(balance decimal.Decimal, date time.Time, restart int) (EqualInstallment, error) {
		return EqualRepaymentComponents(EqualRepaymentInput{
			Base:         yesterdayOutstanding,
			Balance:      balance,
			Rate:         loan.InterestRate(),
			Period:       loan.RatePeriod(),
			Installments: loan.NumberOfRepayments(),
			Elapsed:      valueobject.DaysBetween(origin, date),
			Restart:      restart,
			Currency:     loan.Currency(),
		})
	}

	restart := 0
	if inContract(loan, today) {
		restart = valueobject.DaysBetween(origin, yesterday)
		if line, ok := ledger.LineOn(today); ok {
			out, err := components(yesterdayOutstanding, today, restart)
			if err != nil {
				return err
			}
			line.Principal, line.Interest = out.Principal, out.Interest
			if err := ledger.UpdateLine(line); err != nil {
				return err
			}
			running = out.Remaining
		}
	}

	for _, line := range ledger.LinesAfter(today) {
		out, err := components(running, line.Date, restart)
		if err != nil {
			return err
		}
		line.Principal, line.Interest = out.Principal, out.Interest
		if err := ledger.UpdateLine(line); err != nil {
			return err
		}
		running = out.Remaining
	}
	return nil
}

// inContract is true when today falls after the origin and no later than the
// last scheduled line.
func inContract(loan model.Loan, today time.Time) bool {
	return loan.OriginDate().Before(today) && !today.After(loan.DueDate())
}

func principalOutstanding(loan model.Loan, repaid model.Components) (decimal.Decimal, error) {
	po := loan.Amount().Sub(repaid.Principal)
	if po.IsNegative() {
		return decimal.Zero, &model.OutstandingNegativeError{
			LoanID:    loan.ID(),
			Component: valueobject.ComponentPrincipal,
			Value:     po,
		}
	}
	return po, nil
}

// principalDueAt is principal scheduled through date less principal repaid
// through date, floored at zero.
func principalDueAt(ledger *model.Ledger, date time.Time) decimal.Decimal {
	due := ledger.ScheduledThrough(date).Principal.Sub(ledger.RepaidThrough(date, "").Principal)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}
