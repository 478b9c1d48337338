package clock

import (
	"time"

	"github.com/Singh-Sg/loan-app/internal/domain/port"
	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
)

var _ port.Clock = (*ServiceClock)(nil)

// ServiceClock reads the wall clock. Today is the calendar date in the
// service time zone.
type ServiceClock struct {
	loc *time.Location
	now func() time.Time
}

// New returns a clock for loc. A nil loc means UTC.
func New(loc *time.Location) *ServiceClock {
	if loc == nil {
		loc = time.UTC
	}
	return &ServiceClock{loc: loc, now: time.Now}
}

// Fixed returns a clock frozen at instant t, for tools that replay a day.
func Fixed(loc *time.Location, t time.Time) *ServiceClock {
	c := New(loc)
	c.now = func() time.Time { return t }
	return c
}

func (c *ServiceClock) Now() time.Time { return c.now().UTC() }

func (c *ServiceClock) Today() time.Time { return valueobject.DateOf(c.now(), c.loc) }

// Location is the service time zone.
func (c *ServiceClock) Location() *time.Location { return c.loc }
