package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Singh-Sg/loan-app/internal/application/usecase"
	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"not found", fmt.Errorf("find loan: %w", model.ErrNotFound), codes.NotFound},
		{"invalid request", fmt.Errorf("%w: bad currency", usecase.ErrInvalidRequest), codes.InvalidArgument},
		{"too big", fmt.Errorf("allocate repayment: %w", &model.RepaymentTooBigError{
			Amount: decimal.NewFromInt(10), MaxRepayable: decimal.NewFromInt(5),
		}), codes.FailedPrecondition},
		{"already repaid", model.ErrLoanAlreadyRepaid, codes.FailedPrecondition},
		{"in future", model.ErrRepaymentInFuture, codes.FailedPrecondition},
		{"amount mismatch", model.ErrAmountMismatch, codes.FailedPrecondition},
		{"multiple counterparties", model.ErrMultipleCounterparties, codes.FailedPrecondition},
		{"already reconciled", model.ErrAlreadyReconciled, codes.FailedPrecondition},
		{"shift in past", fmt.Errorf("%w: %w", usecase.ErrInvalidRequest, model.ErrShiftInPast), codes.FailedPrecondition},
		{"status transition", valueobject.ErrInvalidStatusTransition, codes.FailedPrecondition},
		{"rejected schedule lines", fmt.Errorf("%w: validate schedule: %w", usecase.ErrInvalidRequest, model.ErrScheduleSumMismatch), codes.InvalidArgument},
		{"stored schedule corrupt", fmt.Errorf("recalculate schedule: %w", model.ErrScheduleSumMismatch), codes.DataLoss},
		{"negative outstanding", &model.OutstandingNegativeError{LoanID: "loan-1"}, codes.DataLoss},
		{"breakdown", model.ErrBreakdownInconsistent, codes.DataLoss},
		{"zero rate", model.ErrZeroInterestRate, codes.InvalidArgument},
		{"deadline", fmt.Errorf("load: %w", context.DeadlineExceeded), codes.DeadlineExceeded},
		{"unknown", errors.New("connection refused"), codes.Internal},
		{"already a status", status.Error(codes.Unavailable, "down"), codes.Unavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, status.Code(toStatus(tt.err)))
		})
	}

	assert.NoError(t, toStatus(nil))
}
