package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Singh-Sg/loan-app/internal/application/usecase"
	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
)

var businessRejections = []error{
	model.ErrLoanAlreadyRepaid,
	model.ErrRepaymentTooBig,
	model.ErrRepaymentInFuture,
	model.ErrMultipleCounterparties,
	model.ErrAmountMismatch,
	model.ErrAlreadyReconciled,
	model.ErrEmptyReconciliation,
	model.ErrShiftInPast,
	valueobject.ErrInvalidStatusTransition,
}

var integrityErrors = []error{
	model.ErrBreakdownInconsistent,
	model.ErrScheduleSumMismatch,
	model.ErrOutstandingNegative,
}

// toStatus maps an application error to a gRPC status. Rejected input that
// would break the schedule is InvalidArgument; the same error found while
// servicing stored data is DataLoss, which sets a corrupt ledger apart from
// an unexpected failure.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, model.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case isAny(err, businessRejections):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, usecase.ErrInvalidRequest),
		errors.Is(err, model.ErrUnsupportedInterestModel),
		errors.Is(err, model.ErrZeroInterestRate):
		return status.Error(codes.InvalidArgument, err.Error())
	case isAny(err, integrityErrors):
		return status.Error(codes.DataLoss, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
