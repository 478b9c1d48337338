package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
)

// Counterparty is the field agent whose collected repayments and outgoing
// transfers are matched as one unit.
type Counterparty struct {
	id               string
	name             string
	location         *time.Location
	lastReconciledAt time.Time
}

// NewCounterparty loads the IANA zone the agent operates in.
func NewCounterparty(id, name, timeZone string, lastReconciledAt time.Time) (Counterparty, error) {
	if id == "" {
		return Counterparty{}, errors.New("counterparty ID is required")
	}
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return Counterparty{}, fmt.Errorf("counterparty %s: load time zone %q: %w", id, timeZone, err)
	}
	return Counterparty{id: id, name: name, location: loc, lastReconciledAt: lastReconciledAt}, nil
}

// Today is the counterparty's local calendar date at instant now.
func (c Counterparty) Today(now time.Time) time.Time {
	return valueobject.DateOf(now, c.location)
}

// LocalDate is the local calendar date of instant t.
func (c Counterparty) LocalDate(t time.Time) time.Time {
	return valueobject.DateOf(t, c.location)
}

// WithLastReconciledAt advances the matching watermark.
func (c Counterparty) WithLastReconciledAt(t time.Time) Counterparty {
	out := c
	out.lastReconciledAt = t
	return out
}

func (c Counterparty) ID() string                  { return c.id }
func (c Counterparty) Name() string                { return c.name }
func (c Counterparty) Location() *time.Location    { return c.location }
func (c Counterparty) TimeZone() string            { return c.location.String() }
func (c Counterparty) LastReconciledAt() time.Time { return c.lastReconciledAt }
