package model

import (
	"github.com/shopspring/decimal"

	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
)

// Components is the five-way split shared by schedule lines and repayments.
type Components struct {
	Principal    decimal.Decimal
	Fee          decimal.Decimal
	Interest     decimal.Decimal
	Penalty      decimal.Decimal
	Subscription decimal.Decimal
}

// Get returns the amount held in component c.
func (c Components) Get(k valueobject.Component) decimal.Decimal {
	switch k {
	case valueobject.ComponentPrincipal:
		return c.Principal
	case valueobject.ComponentFee:
		return c.Fee
	case valueobject.ComponentInterest:
		return c.Interest
	case valueobject.ComponentPenalty:
		return c.Penalty
	case valueobject.ComponentSubscription:
		return c.Subscription
	}
	return decimal.Zero
}

// With returns a copy with component k set to v.
func (c Components) With(k valueobject.Component, v decimal.Decimal) Components {
	switch k {
	case valueobject.ComponentPrincipal:
		c.Principal = v
	case valueobject.ComponentFee:
		c.Fee = v
	case valueobject.ComponentInterest:
		c.Interest = v
	case valueobject.ComponentPenalty:
		c.Penalty = v
	case valueobject.ComponentSubscription:
		c.Subscription = v
	}
	return c
}

// Add sums two splits component by component.
func (c Components) Add(o Components) Components {
	return Components{
		Principal:    c.Principal.Add(o.Principal),
		Fee:          c.Fee.Add(o.Fee),
		Interest:     c.Interest.Add(o.Interest),
		Penalty:      c.Penalty.Add(o.Penalty),
		Subscription: c.Subscription.Add(o.Subscription),
	}
}

// Sub subtracts o component by component.
func (c Components) Sub(o Components) Components {
	return Components{
		Principal:    c.Principal.Sub(o.Principal),
		Fee:          c.Fee.Sub(o.Fee),
		Interest:     c.Interest.Sub(o.Interest),
		Penalty:      c.Penalty.Sub(o.Penalty),
		Subscription: c.Subscription.Sub(o.Subscription),
	}
}

// ClipNegative replaces negative components with zero.
func (c Components) ClipNegative() Components {
	for _, k := range valueobject.BreakdownOrder() {
		if c.Get(k).IsNegative() {
			c = c.With(k, decimal.Zero)
		}
	}
	return c
}

// Sum is the total across all components.
func (c Components) Sum() decimal.Decimal {
	return c.Principal.Add(c.Fee).Add(c.Interest).Add(c.Penalty).Add(c.Subscription)
}

// Equal compares numerically, ignoring decimal exponent differences.
func (c Components) Equal(o Components) bool {
	for _, k := range valueobject.BreakdownOrder() {
		if !c.Get(k).Equal(o.Get(k)) {
			return false
		}
	}
	return true
}
