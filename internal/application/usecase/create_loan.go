package usecase

import (
	"context"
	"fmt"

	"github.com/Singh-Sg/loan-app/internal/application/dto"
	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/port"
	"github.com/Singh-Sg/loan-app/internal/domain/service"
	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
	"github.com/Singh-Sg/loan-app/pkg/money"
)

// CreateLoanUseCase books a new loan and, optionally, its initial schedule.
type CreateLoanUseCase struct {
	store port.LedgerStore
	clock port.Clock
}

// NewCreateLoanUseCase wires dependencies.
func NewCreateLoanUseCase(store port.LedgerStore, clock port.Clock) *CreateLoanUseCase {
	return &CreateLoanUseCase{store: store, clock: clock}
}

// Execute creates the loan in DRAFT with today as its origin.
func (uc *CreateLoanUseCase) Execute(ctx context.Context, req dto.CreateLoanRequest) (dto.LoanResponse, error) {
	// 1. Parse terms
	terms, err := toLoanTerms(req)
	if err != nil {
		return dto.LoanResponse{}, err
	}

	// 2. Create the aggregate
	loan, err := model.NewLoan(terms, uc.clock.Today(), uc.clock.Now())
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("create loan: %w: %w", ErrInvalidRequest, err)
	}
	ledger := model.NewLedger(loan, nil, nil)

	// 3. Generate the schedule when asked to
	if req.GenerateSchedule {
		lines, err := service.BuildSchedule(loan, req.FeeOnDisbursement)
		if err != nil {
			return dto.LoanResponse{}, fmt.Errorf("build schedule: %w", err)
		}
		ledger.AddLines(lines...)
	}

	// 4. Persist loan, lines and events
	if err := uc.store.Create(ctx, ledger); err != nil {
		return dto.LoanResponse{}, fmt.Errorf("save loan: %w", err)
	}

	return toLoanResponse(ledger.Loan(), ledger.Lines()), nil
}

func toLoanTerms(req dto.CreateLoanRequest) (model.LoanTerms, error) {
	cur, err := money.ParseCurrency(req.Currency)
	if err != nil {
		return model.LoanTerms{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	im, err := valueobject.ParseInterestModel(req.InterestModel)
	if err != nil {
		return model.LoanTerms{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	period, err := valueobject.NewRatePeriod(req.RatePeriod)
	if err != nil {
		return model.LoanTerms{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return model.LoanTerms{
		BorrowerID:         req.BorrowerID,
		CounterpartyID:     req.CounterpartyID,
		Currency:           cur,
		Amount:             req.Amount,
		Fee:                req.Fee,
		InterestRate:       req.InterestRate,
		InterestModel:      im,
		RatePeriod:         period,
		NumberOfRepayments: req.NumberOfRepayments,
		NormalInstallment:  req.NormalInstallment,
		BulletInstallment:  req.BulletInstallment,
	}, nil
}
