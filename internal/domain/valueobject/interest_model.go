package valueobject

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnsupportedInterestModel is returned when a computation is asked for an
// interest model it has no formula for.
var ErrUnsupportedInterestModel = errors.New("unsupported interest model")

// ---------------------------------------------------------------------------
// InterestModel – closed enum
// ---------------------------------------------------------------------------

// InterestModel selects how interest is computed for a loan.
type InterestModel int

const (
	InterestModelUnknown InterestModel = iota
	InterestModelActual360
	InterestModelActual365
	InterestModelEqualRepayments
)

var interestModelNames = map[InterestModel]string{
	InterestModelActual360:       "ACTUAL_360",
	InterestModelActual365:       "ACTUAL_365",
	InterestModelEqualRepayments: "EQUAL_REPAYMENTS",
}

// ParseInterestModel maps a stored or wire name to an InterestModel.
func ParseInterestModel(s string) (InterestModel, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for m, name := range interestModelNames {
		if name == want {
			return m, nil
		}
	}
	return InterestModelUnknown, fmt.Errorf("%w: %q", ErrUnsupportedInterestModel, s)
}

// String returns the canonical name, or "UNKNOWN".
func (m InterestModel) String() string {
	if name, ok := interestModelNames[m]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsActual reports whether the model accrues simple daily interest on the
// outstanding principal.
func (m InterestModel) IsActual() bool {
	return m == InterestModelActual360 || m == InterestModelActual365
}

// DaysInYear returns the day-count denominator of an actual model.
func (m InterestModel) DaysInYear() (int64, error) {
	switch m {
	case InterestModelActual360:
		return 360, nil
	case InterestModelActual365:
		return 365, nil
	case InterestModelEqualRepayments, InterestModelUnknown:
		return 0, fmt.Errorf("%w: %s has no day count", ErrUnsupportedInterestModel, m)
	}
	return 0, fmt.Errorf("%w: %d", ErrUnsupportedInterestModel, int(m))
}

// ---------------------------------------------------------------------------
// RatePeriod – immutable value object
// ---------------------------------------------------------------------------

// RatePeriod is the period an interest rate is quoted for.
type RatePeriod struct {
	value string
}

const (
	ratePeriodMonthly = "MONTHLY"
	ratePeriodYearly  = "YEARLY"
)

var (
	RatePeriodMonthly = RatePeriod{value: ratePeriodMonthly}
	RatePeriodYearly  = RatePeriod{value: ratePeriodYearly}
)

var validRatePeriods = map[string]RatePeriod{
	ratePeriodMonthly: RatePeriodMonthly,
	ratePeriodYearly:  RatePeriodYearly,
}

var monthsPerYear = decimal.NewFromInt(12)

// NewRatePeriod creates a RatePeriod from a raw string.
func NewRatePeriod(s string) (RatePeriod, error) {
	v, ok := validRatePeriods[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return RatePeriod{}, fmt.Errorf("invalid rate period: %q", s)
	}
	return v, nil
}

// Annualize converts a percentage quoted for this period to a yearly one.
func (p RatePeriod) Annualize(rate decimal.Decimal) decimal.Decimal {
	if p.value == ratePeriodMonthly {
		return rate.Mul(monthsPerYear)
	}
	return rate
}

func (p RatePeriod) String() string { return p.value }

// IsZero returns true if the period has not been initialised.
func (p RatePeriod) IsZero() bool { return p.value == "" }

// Equal returns true when both periods carry the same value.
func (p RatePeriod) Equal(other RatePeriod) bool { return p.value == other.value }
