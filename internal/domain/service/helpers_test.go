package service_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/service"
	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
	"github.com/Singh-Sg/loan-app/pkg/money"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func day(year int, month time.Month, d int) time.Time { return valueobject.Date(year, month, d) }

func clockAt(t time.Time) func() time.Time { return func() time.Time { return t } }

// actualTerms is a kyat loan with no interest unless the test sets a rate.
func actualTerms(amount, fee int64) model.LoanTerms {
	return model.LoanTerms{
		BorrowerID:        "borrower-1",
		CounterpartyID:    "agent-1",
		Currency:          money.MMK,
		Amount:            dec(amount),
		Fee:               dec(fee),
		InterestRate:      decimal.Zero,
		InterestModel:     valueobject.InterestModelActual360,
		RatePeriod:        valueobject.RatePeriodYearly,
		NormalInstallment: dec(amount),
	}
}

func equalTerms(amount int64, rate string, n int) model.LoanTerms {
	return model.LoanTerms{
		BorrowerID:         "borrower-1",
		CounterpartyID:     "agent-1",
		Currency:           money.MMK,
		Amount:             dec(amount),
		InterestRate:       decimal.RequireFromString(rate),
		InterestModel:      valueobject.InterestModelEqualRepayments,
		RatePeriod:         valueobject.RatePeriodMonthly,
		NumberOfRepayments: n,
	}
}

// planned is one schedule line in a fixture.
type planned struct {
	date time.Time
	c    model.Components
}

func p(date time.Time, principal, fee int64) planned {
	return planned{date: date, c: model.Components{Principal: dec(principal), Fee: dec(fee)}}
}

func pi(date time.Time, principal, interest int64) planned {
	return planned{date: date, c: model.Components{Principal: dec(principal), Interest: dec(interest)}}
}

// disbursedLedger builds a ledger for a DISBURSED loan whose due date is the
// last planned line.
func disbursedLedger(t *testing.T, terms model.LoanTerms, origin time.Time, lines ...planned) *model.Ledger {
	t.Helper()
	return ledgerInState(t, terms, origin, valueobject.LoanStateDisbursed, lines...)
}

func ledgerInState(t *testing.T, terms model.LoanTerms, origin time.Time, state valueobject.LoanState, lines ...planned) *model.Ledger {
	t.Helper()
	require.NoError(t, terms.Validate())
	due := origin
	schedule := make([]model.ScheduleLine, 0, len(lines))
	for _, l := range lines {
		schedule = append(schedule, model.NewScheduleLine("loan-1", l.date, l.c))
		if l.date.After(due) {
			due = l.date
		}
	}
	loan := model.ReconstructLoan("loan-1", terms, origin, due, state, nil, 1, fixedNow, fixedNow)
	return model.NewLedger(loan, schedule, nil)
}

// builtLedger is a DISBURSED actual-model loan whose lines come from
// BuildSchedule, fee on the first installment.
func builtLedger(t *testing.T, amount, normal, bullet, fee int64, origin time.Time) *model.Ledger {
	t.Helper()
	terms := actualTerms(amount, fee)
	terms.NormalInstallment = dec(normal)
	terms.BulletInstallment = dec(bullet)
	require.NoError(t, terms.Validate())

	count := (amount - bullet) / normal
	due := valueobject.AddDays(origin, int(count)+1)
	loan := model.ReconstructLoan("loan-1", terms, origin, due, valueobject.LoanStateDisbursed, nil, 1, fixedNow, fixedNow)
	lines, err := service.BuildSchedule(loan, false)
	require.NoError(t, err)
	return model.NewLedger(loan, lines, nil)
}

func repayment(t *testing.T, date time.Time, amount int64) model.Repayment {
	t.Helper()
	r, err := model.NewRepayment("loan-1", date, dec(amount), "agent-1", fixedNow)
	require.NoError(t, err)
	return r
}

func assertDec(t *testing.T, want int64, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %d, got %s %v", want, got, msgAndArgs)
}

func principals(lines []model.ScheduleLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Principal.String()
	}
	return out
}

func interests(lines []model.ScheduleLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Interest.String()
	}
	return out
}
