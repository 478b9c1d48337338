package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
	"github.com/Singh-Sg/loan-app/pkg/money"
)

// divisionPlaces bounds the scale of intermediate quotients. Final amounts
// are always rounded to the currency's minor unit.
const divisionPlaces = 28

var (
	one        = decimal.NewFromInt(1)
	hundred    = decimal.NewFromInt(100)
	daysInYear = decimal.NewFromInt(365)
)

// ActualInterest is simple interest on balance for the given number of days
// under an actual/360 or actual/365 day count.
func ActualInterest(
	im valueobject.InterestModel,
	balance, rate decimal.Decimal,
	period valueobject.RatePeriod,
	days int,
	cur money.Currency,
) (decimal.Decimal, error) {
	denominator, err := im.DaysInYear()
	if err != nil {
		return decimal.Zero, err
	}
	annual := period.Annualize(rate)
	numerator := balance.Mul(decimal.NewFromInt(int64(days))).Mul(annual)
	raw := numerator.DivRound(decimal.NewFromInt(denominator).Mul(hundred), divisionPlaces)
	return cur.Round(raw), nil
}

// EqualRepaymentInput parameterises the equal-installment formula.
//
// Base is the balance the installment is solved for: the loan amount for an
// undisturbed schedule, or the outstanding principal on the day an early or
// late payment forced a restart. Restart is the number of elapsed periods at
// that restart (zero for none) and Elapsed the period being evaluated.
type EqualRepaymentInput struct {
	Base         decimal.Decimal
	Balance      decimal.Decimal
	Rate         decimal.Decimal
	Period       valueobject.RatePeriod
	Installments int
	Elapsed      int
	Restart      int
	PeriodDays   int
	Currency     money.Currency
}

// EqualInstallment is one evaluation of the amortization formula.
type EqualInstallment struct {
	Installment decimal.Decimal
	Principal   decimal.Decimal
	Interest    decimal.Decimal
	Remaining   decimal.Decimal
}

// EqualRepaymentComponents solves the fixed-payment amortization formula.
// Principal is Balance minus the rounded remaining balance so that a run of
// lines telescopes exactly onto the loan amount.
func EqualRepaymentComponents(in EqualRepaymentInput) (EqualInstallment, error) {
	if !in.Rate.IsPositive() {
		return EqualInstallment{}, model.ErrZeroInterestRate
	}
	if in.Installments-in.Restart <= 0 {
		return EqualInstallment{}, fmt.Errorf("no installments left after restart %d of %d", in.Restart, in.Installments)
	}
	days := in.PeriodDays
	if days <= 0 {
		days = 1
	}

	annual := in.Period.Annualize(in.Rate)
	i := annual.DivRound(daysInYear.Mul(hundred), divisionPlaces).Mul(decimal.NewFromInt(int64(days)))
	growth := one.Add(i)
	pn := powInt(growth, in.Installments-in.Restart)
	pp := powInt(growth, in.Elapsed-in.Restart)
	denominator := pn.Sub(one)

	installment := in.Base.Mul(i).Mul(pn).DivRound(denominator, divisionPlaces)
	remaining := in.Base.Mul(pn.Sub(pp)).DivRound(denominator, divisionPlaces)
	principalExact := in.Balance.Sub(remaining)

	rounded := in.Currency.Round(remaining)
	return EqualInstallment{
		Installment: in.Currency.Round(installment),
		Principal:   in.Balance.Sub(rounded),
		Interest:    in.Currency.Round(installment.Sub(principalExact)),
		Remaining:   rounded,
	}, nil
}

// InitialEqualInstallment is the normal installment of a fresh
// equal-installment loan: the installment due for the first period.
func InitialEqualInstallment(
	amount, rate decimal.Decimal,
	period valueobject.RatePeriod,
	installments int,
	cur money.Currency,
) (decimal.Decimal, error) {
	out, err := EqualRepaymentComponents(EqualRepaymentInput{
		Base:         amount,
		Balance:      amount,
		Rate:         rate,
		Period:       period,
		Installments: installments,
		Elapsed:      1,
		Currency:     cur,
	})
	if err != nil {
		return decimal.Zero, err
	}
	return out.Installment, nil
}

// powInt raises x to an integer power by repeated multiplication.
func powInt(x decimal.Decimal, n int) decimal.Decimal {
	if n < 0 {
		return one.DivRound(powInt(x, -n), divisionPlaces)
	}
	result := one
	for k := 0; k < n; k++ {
		result = result.Mul(x).Round(2 * divisionPlaces)
	}
	return result
}
