package money

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Currency is an ISO 4217 currency code together with its minor unit exponent.
type Currency struct {
	code       string
	minorUnits int32
}

// minorUnitsByCode lists the currencies the ledger books loans in. Codes not
// listed here default to two minor units.
var minorUnitsByCode = map[string]int32{
	"MMK": 0,
	"JPY": 0,
	"KRW": 0,
	"THB": 2,
	"USD": 2,
	"EUR": 2,
	"SGD": 2,
}

// NewCurrency creates a Currency after validating the code is exactly 3 uppercase letters.
func NewCurrency(code string) (Currency, error) {
	if !currencyCodeRe.MatchString(code) {
		return Currency{}, fmt.Errorf("invalid currency code %q: must be exactly 3 uppercase letters", code)
	}
	units, ok := minorUnitsByCode[code]
	if !ok {
		units = 2
	}
	return Currency{code: code, minorUnits: units}, nil
}

// ParseCurrency is NewCurrency with surrounding whitespace removed and the
// code upper-cased.
func ParseCurrency(code string) (Currency, error) {
	return NewCurrency(strings.ToUpper(strings.TrimSpace(code)))
}

// MustCurrency creates a Currency and panics on error. Intended for package-level variable
// initialization only.
func MustCurrency(code string) Currency {
	c, err := NewCurrency(code)
	if err != nil {
		panic(err)
	}
	return c
}

// Code returns the ISO 4217 currency code.
func (c Currency) Code() string {
	return c.code
}

// String returns the currency code.
func (c Currency) String() string {
	return c.code
}

// MinorUnits returns the number of decimal places of the currency's minor unit.
func (c Currency) MinorUnits() int32 {
	return c.minorUnits
}

// IsZero reports whether the currency was never initialised.
func (c Currency) IsZero() bool {
	return c.code == ""
}

// Round rounds amount half-to-even to the currency's minor unit.
func (c Currency) Round(amount decimal.Decimal) decimal.Decimal {
	return amount.RoundBank(c.minorUnits)
}

// IsWhole reports whether amount has no digits below the minor unit.
func (c Currency) IsWhole(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(c.minorUnits))
}

// Common currencies.
var (
	MMK = MustCurrency("MMK")
	USD = MustCurrency("USD")
	THB = MustCurrency("THB")
)
