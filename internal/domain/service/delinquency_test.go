package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/service"
	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
)

// threeDayLoan owes 1000 on each of 2024-01-02, 01-03 and 01-04.
func threeDayLoan(t *testing.T, fee int64) *model.Ledger {
	t.Helper()
	terms := actualTerms(3000, fee)
	terms.NormalInstallment = dec(1000)
	return disbursedLedger(t, terms, day(2024, 1, 1),
		p(day(2024, 1, 2), 1000, fee),
		p(day(2024, 1, 3), 1000, 0),
		p(day(2024, 1, 4), 1000, 0),
	)
}

func paid(t *testing.T, ledger *model.Ledger, date time.Time, principal int64) {
	t.Helper()
	ledger.AddRepayment(repayment(t, date, principal).WithBreakdown(model.Components{Principal: dec(principal)}))
}

func TestDelay(t *testing.T) {
	t.Run("no payments", func(t *testing.T) {
		ledger := threeDayLoan(t, 0)
		assert.Equal(t, 0, service.Delay(ledger, day(2024, 1, 2)))
		assert.Equal(t, 1, service.Delay(ledger, day(2024, 1, 3)))
		assert.Equal(t, 4, service.Delay(ledger, day(2024, 1, 6)))
	})

	t.Run("paid on time", func(t *testing.T) {
		ledger := threeDayLoan(t, 0)
		paid(t, ledger, day(2024, 1, 2), 1000)
		paid(t, ledger, day(2024, 1, 3), 1000)
		paid(t, ledger, day(2024, 1, 4), 1000)
		assert.Zero(t, service.Delay(ledger, day(2024, 1, 6)))
	})

	t.Run("late payment", func(t *testing.T) {
		ledger := threeDayLoan(t, 0)
		paid(t, ledger, day(2024, 1, 3), 1000)

		assert.Equal(t, 2, service.Delay(ledger, day(2024, 1, 4)))
		assert.Equal(t, 1, service.CurrentDelayAt(ledger, day(2024, 1, 4), day(2024, 1, 4)))
	})

	t.Run("early payment", func(t *testing.T) {
		ledger := threeDayLoan(t, 0)
		paid(t, ledger, day(2024, 1, 2), 2000)

		assert.Zero(t, service.Delay(ledger, day(2024, 1, 4)))
		assert.Zero(t, service.CurrentDelayAt(ledger, day(2024, 1, 4), day(2024, 1, 4)))
	})
}

func TestCurrentDelayAt(t *testing.T) {
	ledger := threeDayLoan(t, 0)

	tests := []struct {
		name      string
		ref       time.Time
		today     time.Time
		wantDelay int
	}{
		{"first due day in progress", day(2024, 1, 2), day(2024, 1, 2), 0},
		{"same day queried afterwards", day(2024, 1, 2), day(2024, 1, 3), 1},
		{"one missed day", day(2024, 1, 3), day(2024, 1, 3), 1},
		{"two missed days", day(2024, 1, 4), day(2024, 1, 4), 2},
		{"before the first line", day(2024, 1, 1), day(2024, 1, 4), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantDelay, service.CurrentDelayAt(ledger, tt.ref, tt.today))
		})
	}

	t.Run("catching up breaks the run", func(t *testing.T) {
		l := threeDayLoan(t, 0)
		paid(t, l, day(2024, 1, 3), 2000)
		assert.Zero(t, service.CurrentDelayAt(l, day(2024, 1, 3), day(2024, 1, 4)))
		assert.Equal(t, 1, service.CurrentDelayAt(l, day(2024, 1, 4), day(2024, 1, 5)))
	})

	t.Run("catch-up clears the current delay but not the accrued one", func(t *testing.T) {
		l := threeDayLoan(t, 0)
		paid(t, l, day(2024, 1, 3), 2000)

		// 01-02 went unpaid for a day; paying it on 01-03 does not undo that.
		assert.Equal(t, 1, service.Delay(l, day(2024, 1, 4)))
		assert.Zero(t, service.CurrentDelayAt(l, day(2024, 1, 3), day(2024, 1, 4)))
	})
}

func TestAmountDueAt(t *testing.T) {
	t.Run("disbursed loan owes lines to date", func(t *testing.T) {
		ledger := threeDayLoan(t, 200)
		due := service.AmountDueAt(ledger, day(2024, 1, 3))
		assertDec(t, 2000, due.Principal)
		assertDec(t, 200, due.Fee)
		assertDec(t, 2200, service.AmountDueAt(ledger, day(2024, 1, 3)).Sum())
		assertDec(t, 0, service.AmountDueAt(ledger, day(2024, 1, 1)).Sum())
	})

	t.Run("prepayment is not negative debt", func(t *testing.T) {
		ledger := threeDayLoan(t, 0)
		paid(t, ledger, day(2024, 1, 2), 2000)
		assertDec(t, 0, service.AmountDueAt(ledger, day(2024, 1, 2)).Sum())
		assertDec(t, 1000, service.AmountDueAt(ledger, day(2024, 1, 4)).Sum())
	})

	t.Run("closed loan owes nothing", func(t *testing.T) {
		ledger := threeDayLoan(t, 0)
		ledger.SetLoan(ledger.Loan().Close(day(2024, 1, 2), fixedNow))
		assertDec(t, 0, service.AmountDueAt(ledger, day(2024, 1, 4)).Sum())
	})

	t.Run("approved loan owes only its fee", func(t *testing.T) {
		terms := actualTerms(3000, 200)
		terms.NormalInstallment = dec(1000)
		ledger := ledgerInState(t, terms, day(2024, 1, 1), valueobject.LoanStateApproved,
			p(day(2024, 1, 1), 0, 200),
			p(day(2024, 1, 2), 1000, 0),
			p(day(2024, 1, 3), 1000, 0),
			p(day(2024, 1, 4), 1000, 0),
		)
		assertDec(t, 200, service.AmountDueAt(ledger, day(2023, 12, 31)).Sum())

		ledger.AddRepayment(repayment(t, day(2024, 1, 1), 200).WithBreakdown(model.Components{Fee: dec(200)}))
		assertDec(t, 0, service.AmountDueAt(ledger, day(2024, 1, 4)).Sum())
	})
}

func TestNextDisbursementDate(t *testing.T) {
	t.Run("pushed back by the delay", func(t *testing.T) {
		ledger := threeDayLoan(t, 0)
		assert.Equal(t, day(2024, 1, 9), service.NextDisbursementDate(ledger, day(2024, 1, 6)))
	})

	t.Run("day after the due date when paid on time", func(t *testing.T) {
		ledger := threeDayLoan(t, 0)
		paid(t, ledger, day(2024, 1, 2), 1000)
		paid(t, ledger, day(2024, 1, 3), 1000)
		paid(t, ledger, day(2024, 1, 4), 1000)
		assert.Equal(t, day(2024, 1, 5), service.NextDisbursementDate(ledger, day(2024, 1, 6)))
	})

	t.Run("counts from a repayment after the due date", func(t *testing.T) {
		ledger := threeDayLoan(t, 0)
		paid(t, ledger, day(2024, 1, 7), 3000)
		assert.Equal(t, day(2024, 1, 13), service.NextDisbursementDate(ledger, day(2024, 1, 8)))
	})
}
