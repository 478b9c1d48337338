package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Singh-Sg/loan-app/internal/application/dto"
	"github.com/Singh-Sg/loan-app/internal/application/usecase"
	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/port"
	"github.com/Singh-Sg/loan-app/internal/domain/service"
	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
)

// interestBearingLedger owes 5000 on each of 10/28 and 10/29 at 36% a
// year, with no interest planned yet.
func interestBearingLedger(t *testing.T, id string) *model.Ledger {
	t.Helper()
	terms := kyatTerms(10000, 0, 5000)
	terms.InterestRate = decimal.NewFromInt(36)
	require.NoError(t, terms.Validate())
	lines := []model.ScheduleLine{
		model.NewScheduleLine(id, day(2016, 10, 28), model.Components{Principal: dec(5000)}),
		model.NewScheduleLine(id, day(2016, 10, 29), model.Components{Principal: dec(5000)}),
	}
	loan := model.ReconstructLoan(id, terms, day(2016, 10, 27), day(2016, 10, 29),
		valueobject.LoanStateDisbursed, nil, 1, createdAt, createdAt)
	return model.NewLedger(loan, lines, nil)
}

func newRecalculate(store *mockLedgerStore, clock fixedClock) *usecase.RecalculateScheduleUseCase {
	return usecase.NewRecalculateScheduleUseCase(store, service.NewScheduleRecalculator(clock.Now), clock, nil)
}

func TestRecalculateSchedule_Execute(t *testing.T) {
	today := day(2016, 10, 28)

	t.Run("prices interest on the outstanding balance", func(t *testing.T) {
		store := newMockLedgerStore(interestBearingLedger(t, "loan-1"))
		uc := newRecalculate(store, clockOn(today))

		resp, err := uc.Execute(context.Background(), dto.RecalculateScheduleRequest{LoanID: "loan-1"})

		require.NoError(t, err)
		assert.Equal(t, today, resp.AsOf)
		assert.Equal(t, 2, resp.LinesChanged)

		ledger, err := store.Load(context.Background(), "loan-1")
		require.NoError(t, err)
		lines := ledger.Lines()
		assertDec(t, 10, lines[0].Interest)
		assertDec(t, 5, lines[1].Interest)
	})

	t.Run("second run changes nothing", func(t *testing.T) {
		store := newMockLedgerStore(interestBearingLedger(t, "loan-1"))
		uc := newRecalculate(store, clockOn(today))

		_, err := uc.Execute(context.Background(), dto.RecalculateScheduleRequest{LoanID: "loan-1"})
		require.NoError(t, err)
		ledger, err := store.Load(context.Background(), "loan-1")
		require.NoError(t, err)
		changed := len(ledger.ChangedLines())

		_, err = uc.Execute(context.Background(), dto.RecalculateScheduleRequest{LoanID: "loan-1"})
		require.NoError(t, err)
		assert.Len(t, ledger.ChangedLines(), changed)
	})

	t.Run("fails for an unknown loan", func(t *testing.T) {
		uc := newRecalculate(newMockLedgerStore(), clockOn(today))

		_, err := uc.Execute(context.Background(), dto.RecalculateScheduleRequest{LoanID: "missing"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "recalculate schedule")
		assert.True(t, errors.Is(err, model.ErrNotFound))
	})
}

func TestRecalculateAllSchedules_Execute(t *testing.T) {
	today := day(2016, 10, 28)

	t.Run("continues past a failing loan", func(t *testing.T) {
		store := newMockLedgerStore(
			interestBearingLedger(t, "loan-1"),
			dailyLedger(t, "loan-2", day(2016, 10, 27), 0, 5000, 5000),
			dailyLedger(t, "loan-3", day(2016, 10, 27), 0, 5000, 5000),
		)
		store.updateErr["loan-2"] = errors.New("deadlock detected")
		locker := &mockLocker{}
		uc := usecase.NewRecalculateAllSchedulesUseCase(store, newRecalculate(store, clockOn(today)), locker, time.Minute, 2)

		resp, err := uc.Execute(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 3, resp.Processed)
		assert.Equal(t, 1, resp.Changed)
		assert.Equal(t, []string{"loan-2"}, resp.Failed)
		assert.Equal(t, []string{usecase.RecalculateLockKey}, locker.acquired)
		assert.Equal(t, 1, locker.released)
	})

	t.Run("skips when another replica runs the job", func(t *testing.T) {
		store := newMockLedgerStore(interestBearingLedger(t, "loan-1"))
		locker := &mockLocker{
			acquireFunc: func(context.Context, string, time.Duration) (func(context.Context) error, error) {
				return nil, port.ErrLockHeld
			},
		}
		uc := usecase.NewRecalculateAllSchedulesUseCase(store, newRecalculate(store, clockOn(today)), locker, time.Minute, 1)

		resp, err := uc.Execute(context.Background())

		require.NoError(t, err)
		assert.True(t, resp.Skipped)
		assert.Empty(t, store.updated)
	})

	t.Run("fails when open loans cannot be listed", func(t *testing.T) {
		store := newMockLedgerStore()
		store.listOpenFunc = func(context.Context) ([]string, error) { return nil, errors.New("timeout") }
		locker := &mockLocker{}
		uc := usecase.NewRecalculateAllSchedulesUseCase(store, newRecalculate(store, clockOn(today)), locker, time.Minute, 1)

		_, err := uc.Execute(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "list open loans")
		assert.Equal(t, 1, locker.released)
	})
}
