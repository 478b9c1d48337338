package model

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleLine is one planned due amount on one calendar date.
type ScheduleLine struct {
	ID     string
	LoanID string
	Date   time.Time
	Components
	Note string
}

// NewScheduleLine creates a line with a generated ID.
func NewScheduleLine(loanID string, date time.Time, c Components) ScheduleLine {
	return ScheduleLine{
		ID:         uuid.New().String(),
		LoanID:     loanID,
		Date:       date,
		Components: c,
	}
}
