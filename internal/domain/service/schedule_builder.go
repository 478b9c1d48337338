package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
)

// BuildSchedule generates the initial schedule lines for a loan.
//
// Actual models get one normal installment per day starting the day after
// origin, then a final line carrying the bullet plus any remainder. The
// equal-installment model gets one line per planned installment. The fee is
// due with the first installment unless feeOnDisbursement puts it on a line
// dated on the origin itself.
func BuildSchedule(loan model.Loan, feeOnDisbursement bool) ([]model.ScheduleLine, error) {
	var (
		lines []model.ScheduleLine
		err   error
	)
	switch loan.InterestModel() {
	case valueobject.InterestModelActual360, valueobject.InterestModelActual365:
		lines, err = buildActualSchedule(loan)
	case valueobject.InterestModelEqualRepayments:
		lines, err = buildEqualSchedule(loan)
	case valueobject.InterestModelUnknown:
		return nil, model.ErrUnsupportedInterestModel
	default:
		return nil, model.ErrUnsupportedInterestModel
	}
	if err != nil {
		return nil, err
	}

	if loan.Fee().IsPositive() {
		if feeOnDisbursement || len(lines) == 0 {
			lines = append([]model.ScheduleLine{
				model.NewScheduleLine(loan.ID(), loan.OriginDate(), model.Components{Fee: loan.Fee()}),
			}, lines...)
		} else {
			lines[0].Fee = loan.Fee()
		}
	}

	if err := ValidateSchedule(loan, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// ValidateSchedule checks that the lines add up to the loan's principal and
// fee and that every line belongs to the loan.
func ValidateSchedule(loan model.Loan, lines []model.ScheduleLine) error {
	var sum model.Components
	for _, line := range lines {
		if line.LoanID != loan.ID() {
			return fmt.Errorf("%w: line %s belongs to loan %s", model.ErrScheduleSumMismatch, line.ID, line.LoanID)
		}
		for _, c := range valueobject.BreakdownOrder() {
			if line.Get(c).IsNegative() {
				return fmt.Errorf("%w: line %s has negative %s", model.ErrScheduleSumMismatch, line.ID, c)
			}
		}
		sum = sum.Add(line.Components)
	}
	if !sum.Principal.Equal(loan.Amount()) {
		return fmt.Errorf("%w: principal %s, loan amount %s", model.ErrScheduleSumMismatch, sum.Principal, loan.Amount())
	}
	if !sum.Fee.Equal(loan.Fee()) {
		return fmt.Errorf("%w: fee %s, loan fee %s", model.ErrScheduleSumMismatch, sum.Fee, loan.Fee())
	}
	return nil
}

func buildActualSchedule(loan model.Loan) ([]model.ScheduleLine, error) {
	amount := loan.Amount()
	normal := loan.NormalInstallment()

	count := 0
	if normal.IsPositive() {
		count = int(amount.Sub(loan.BulletInstallment()).Div(normal).IntPart())
	}

	lines := make([]model.ScheduleLine, 0, count+1)
	for k := 1; k <= count; k++ {
		lines = append(lines, model.NewScheduleLine(loan.ID(), valueobject.AddDays(loan.OriginDate(), k),
			model.Components{Principal: normal}))
	}
	if last := amount.Sub(normal.Mul(decimal.NewFromInt(int64(count)))); last.IsPositive() {
		lines = append(lines, model.NewScheduleLine(loan.ID(), valueobject.AddDays(loan.OriginDate(), count+1),
			model.Components{Principal: last}))
	}

	balance := amount
	for i := range lines {
		interest, err := ActualInterest(loan.InterestModel(), balance, loan.InterestRate(), loan.RatePeriod(), 1, loan.Currency())
		if err != nil {
			return nil, err
		}
		lines[i].Interest = interest
		balance = balance.Sub(lines[i].Principal)
	}
	return lines, nil
}

func buildEqualSchedule(loan model.Loan) ([]model.ScheduleLine, error) {
	n := loan.NumberOfRepayments()
	lines := make([]model.ScheduleLine, 0, n)
	balance := loan.Amount()
	for k := 1; k <= n; k++ {
		out, err := EqualRepaymentComponents(EqualRepaymentInput{
			Base:         loan.Amount(),
			Balance:      balance,
			Rate:         loan.InterestRate(),
			Period:       loan.RatePeriod(),
			Installments: n,
			Elapsed:      k,
			Currency:     loan.Currency(),
		})
		if err != nil {
			return nil, fmt.Errorf("installment %d: %w", k, err)
		}
		lines = append(lines, model.NewScheduleLine(loan.ID(), valueobject.AddDays(loan.OriginDate(), k),
			model.Components{Principal: out.Principal, Interest: out.Interest}))
		balance = out.Remaining
	}
	return lines, nil
}
