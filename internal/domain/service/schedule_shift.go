package service

import (
	"fmt"
	"time"

	"github.com/Singh-Sg/loan-app/internal/domain/event"
	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
)

// ShiftSchedule moves every line dated on or after from by days, provided
// the loan has at least one line inside [from, to]. It returns the number of
// lines moved. Only dates after today may be shifted.
func ShiftSchedule(ledger *model.Ledger, from, to time.Time, days int, today, now time.Time) (int, error) {
	if !from.After(today) {
		return 0, fmt.Errorf("%w: %s is not after %s", model.ErrShiftInPast,
			from.Format(time.DateOnly), today.Format(time.DateOnly))
	}
	if to.Before(from) {
		return 0, fmt.Errorf("shift window ends %s before it starts %s",
			to.Format(time.DateOnly), from.Format(time.DateOnly))
	}
	if days == 0 || ledger.Loan().IsClosed() {
		return 0, nil
	}

	affected := false
	var moving []model.ScheduleLine
	for _, line := range ledger.Lines() {
		if line.Date.Before(from) {
			continue
		}
		if !line.Date.After(to) {
			affected = true
		}
		moving = append(moving, line)
	}
	if !affected {
		return 0, nil
	}

	for _, line := range moving {
		line.Date = valueobject.AddDays(line.Date, days)
		if err := ledger.UpdateLine(line); err != nil {
			return 0, fmt.Errorf("shift line %s: %w", line.ID, err)
		}
	}
	ledger.Record(event.NewScheduleShifted(ledger.Loan().ID(), from, days, len(moving), now))
	return len(moving), nil
}
