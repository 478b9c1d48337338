package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Singh-Sg/loan-app/internal/application/dto"
	"github.com/Singh-Sg/loan-app/internal/application/usecase"
	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
)

func TestGetLoan_Execute(t *testing.T) {
	today := day(2016, 10, 28)

	t.Run("summarises balances as of today", func(t *testing.T) {
		ledger := dailyLedger(t, "loan-1", day(2016, 10, 27), 1200, 5000, 5000)
		uc := usecase.NewGetLoanUseCase(newMockLedgerStore(ledger), clockOn(today))

		resp, err := uc.Execute(context.Background(), dto.GetLoanRequest{LoanID: "loan-1"})

		require.NoError(t, err)
		assert.Equal(t, "loan-1", resp.Loan.ID)
		assert.Equal(t, "DISBURSED", resp.Loan.State)
		assert.Len(t, resp.Loan.Lines, 2)
		assert.Empty(t, resp.Repayments)
		assertDec(t, 11200, resp.Outstanding.Total)
		assertDec(t, 6200, resp.AmountDue.Total)
		assert.Equal(t, today, resp.AsOf)
	})

	t.Run("fails for an unknown loan", func(t *testing.T) {
		uc := usecase.NewGetLoanUseCase(newMockLedgerStore(), clockOn(today))

		_, err := uc.Execute(context.Background(), dto.GetLoanRequest{LoanID: "missing"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "find loan")
		assert.True(t, errors.Is(err, model.ErrNotFound))
	})
}

func TestGetDelay_Execute(t *testing.T) {
	// 1000 due on each of 2024-01-02, 01-03 and 01-04, nothing paid.
	ledger := dailyLedger(t, "loan-1", day(2024, 1, 1), 0, 1000, 1000, 1000)
	uc := usecase.NewGetDelayUseCase(newMockLedgerStore(ledger), clockOn(day(2024, 1, 6)))

	t.Run("defaults to today", func(t *testing.T) {
		resp, err := uc.Execute(context.Background(), dto.GetDelayRequest{LoanID: "loan-1"})

		require.NoError(t, err)
		assert.Equal(t, 4, resp.Delay)
		assert.Equal(t, 4, resp.DelayAt)
		assert.Equal(t, day(2024, 1, 6), resp.At)
		assertDec(t, 3000, resp.AmountDue.Principal)
		assert.Equal(t, day(2024, 1, 9), resp.NextDisbursementDate)
	})

	t.Run("reports the delay at an earlier date", func(t *testing.T) {
		resp, err := uc.Execute(context.Background(), dto.GetDelayRequest{LoanID: "loan-1", At: day(2024, 1, 3)})

		require.NoError(t, err)
		assert.Equal(t, 4, resp.Delay)
		assert.Equal(t, 2, resp.DelayAt)
		assertDec(t, 2000, resp.AmountDue.Principal)
	})

	t.Run("fails for an unknown loan", func(t *testing.T) {
		_, err := uc.Execute(context.Background(), dto.GetDelayRequest{LoanID: "missing"})

		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrNotFound))
	})
}

func TestChangeLoanState_Execute(t *testing.T) {
	today := day(2016, 10, 28)

	t.Run("moves a disbursed loan to defaulted", func(t *testing.T) {
		ledger := dailyLedger(t, "loan-1", day(2016, 10, 27), 0, 5000, 5000)
		uc := usecase.NewChangeLoanStateUseCase(newMockLedgerStore(ledger), clockOn(today))

		resp, err := uc.Execute(context.Background(), dto.ChangeLoanStateRequest{LoanID: "loan-1", State: "defaulted"})

		require.NoError(t, err)
		assert.Equal(t, "DEFAULTED", resp.State)
		assert.True(t, ledger.LoanChanged())
		assert.NotEmpty(t, ledger.PendingEvents())
	})

	t.Run("rejects a transition outside the table", func(t *testing.T) {
		ledger := dailyLedger(t, "loan-1", day(2016, 10, 27), 0, 5000, 5000)
		uc := usecase.NewChangeLoanStateUseCase(newMockLedgerStore(ledger), clockOn(today))

		_, err := uc.Execute(context.Background(), dto.ChangeLoanStateRequest{LoanID: "loan-1", State: "APPROVED"})

		require.Error(t, err)
		assert.True(t, errors.Is(err, valueobject.ErrInvalidStatusTransition))
	})

	t.Run("refuses to mark a loan repaid by hand", func(t *testing.T) {
		uc := usecase.NewChangeLoanStateUseCase(newMockLedgerStore(), clockOn(today))

		_, err := uc.Execute(context.Background(), dto.ChangeLoanStateRequest{LoanID: "loan-1", State: "REPAID"})

		require.Error(t, err)
		assert.True(t, errors.Is(err, usecase.ErrInvalidRequest))
	})

	t.Run("rejects an unknown state", func(t *testing.T) {
		uc := usecase.NewChangeLoanStateUseCase(newMockLedgerStore(), clockOn(today))

		_, err := uc.Execute(context.Background(), dto.ChangeLoanStateRequest{LoanID: "loan-1", State: "LOST"})

		require.Error(t, err)
		assert.True(t, errors.Is(err, usecase.ErrInvalidRequest))
	})
}
