package service

import (
	"time"


	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
)

// Delay counts the days up to yesterday on which cumulative scheduled
// principal exceeded cumulative repaid principal.
func Delay(ledger *model.Ledger, today time.Time) int {
	end := valueobject.AddDays(today, -1)
	start := end
	for _, line := range ledger.Lines() {
		if !line.Date.After(end) && line.Date.Before(start) {
			start = line.Date
		}
	}
	for _, r := range ledger.Repayments() {
		if r.Date().Before(start) {
			start = r.Date()
		}
	}

	delay := 0
	for day := start; !day.After(end); day = valueobject.AddDays(day, 1) {
		if principalDueAt(ledger, day).IsPositive() {
			delay++
		}
	}
	return delay
}

// CurrentDelayAt is the length of the unbroken run of late days ending at
// ref. The day equal to today is still in progress and never counts as late
// on its own.
func CurrentDelayAt(ledger *model.Ledger, ref, today time.Time) int {
	start := ref
	for _, line := range ledger.Lines() {
		if !line.Date.After(ref) && line.Date.Before(start) {
			start = line.Date
		}
	}
	for _, r := range ledger.Repayments() {
		if !r.Date().After(ref) && r.Date().Before(start) {
			start = r.Date()
		}
	}

	delay := 0
	for day := ref; !day.Before(start); day = valueobject.AddDays(day, -1) {
		inProgress := day.Equal(today)
		due := ledger.ScheduledThrough(valueobject.AddDays(day, -1)).Principal.
			Sub(ledger.RepaidThrough(day, "").Principal)
		if due.IsPositive() {
			if !inProgress {
				delay++
			}
			continue
		}
		if !inProgress {
			if line, ok := ledger.LineOn(day); ok && due.Add(line.Principal).IsPositive() {
				delay++
			}
		}
		return delay
	}
	return delay
}

// AmountDueAt is what the borrower owes per component as of date. Loans not
// yet disbursed only owe their fee lines, whatever their date.
func AmountDueAt(ledger *model.Ledger, date time.Time) model.Components {
	loan := ledger.Loan()
	if loan.IsClosed() {
		return model.Components{}
	}

	if loan.State().IsPreDisbursement() {
		var scheduled, repaid model.Components
		for _, line := range ledger.Lines() {
			if line.Fee.IsPositive() {
				scheduled = scheduled.Add(line.Components)
			}
		}
		for _, r := range ledger.Repayments() {
			if r.Breakdown().Fee.IsPositive() {
				repaid = repaid.Add(r.Breakdown())
			}
		}
		return scheduled.Sub(repaid).ClipNegative()
	}

	return ledger.ScheduledThrough(date).Sub(ledger.RepaidThrough(date, "")).ClipNegative()
}

// NextDisbursementDate is the first day the borrower may take a new loan:
// the day after the later of the due date and the last repayment, pushed back
// by one day for each day the borrower has been late.
func NextDisbursementDate(ledger *model.Ledger, today time.Time) time.Time {
	base := ledger.Loan().DueDate()
	if latest, ok := ledger.LatestRepaymentDate(); ok && latest.After(base) {
		base = latest
	}
	return valueobject.AddDays(base, Delay(ledger, today)+1)
}
