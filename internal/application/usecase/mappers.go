package usecase

import (
	"github.com/Singh-Sg/loan-app/internal/application/dto"
	"github.com/Singh-Sg/loan-app/internal/domain/model"
)

func toComponentsDTO(c model.Components) dto.ComponentsDTO {
	return dto.ComponentsDTO{
		Principal:    c.Principal,
		Fee:          c.Fee,
		Interest:     c.Interest,
		Penalty:      c.Penalty,
		Subscription: c.Subscription,
		Total:        c.Sum(),
	}
}

func fromLineDTO(loanID string, l dto.ScheduleLineDTO) model.ScheduleLine {
	line := model.NewScheduleLine(loanID, l.Date, model.Components{
		Principal:    l.Principal,
		Fee:          l.Fee,
		Interest:     l.Interest,
		Penalty:      l.Penalty,
		Subscription: l.Subscription,
	})
	line.Note = l.Note
	return line
}

func toLineDTO(l model.ScheduleLine) dto.ScheduleLineDTO {
	return dto.ScheduleLineDTO{
		ID:           l.ID,
		Date:         l.Date,
		Principal:    l.Principal,
		Fee:          l.Fee,
		Interest:     l.Interest,
		Penalty:      l.Penalty,
		Subscription: l.Subscription,
		Note:         l.Note,
	}
}

func toRepaymentDTO(r model.Repayment) dto.RepaymentDTO {
	return dto.RepaymentDTO{
		ID:                   r.ID(),
		LoanID:               r.LoanID(),
		Date:                 r.Date(),
		Amount:               r.Amount(),
		Breakdown:            toComponentsDTO(r.Breakdown()),
		ReconciliationStatus: r.ReconciliationStatus().String(),
		ReconciliationID:     r.ReconciliationID(),
		RecordedAt:           r.RecordedAt(),
		RecordedBy:           r.RecordedBy(),
	}
}

func toLoanResponse(loan model.Loan, lines []model.ScheduleLine) dto.LoanResponse {
	resp := dto.LoanResponse{
		ID:                 loan.ID(),
		BorrowerID:         loan.BorrowerID(),
		CounterpartyID:     loan.CounterpartyID(),
		Currency:           loan.Currency().Code(),
		Amount:             loan.Amount(),
		Fee:                loan.Fee(),
		InterestRate:       loan.InterestRate(),
		InterestModel:      loan.InterestModel().String(),
		RatePeriod:         loan.RatePeriod().String(),
		NumberOfRepayments: loan.NumberOfRepayments(),
		State:              loan.State().String(),
		OriginDate:         loan.OriginDate(),
		DueDate:            loan.DueDate(),
		Version:            loan.Version(),
	}
	if repaidOn, ok := loan.RepaidOn(); ok {
		resp.RepaidOn = &repaidOn
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, toLineDTO(l))
	}
	return resp
}

func toReconciliationResponse(r model.Reconciliation) dto.ReconciliationResponse {
	return dto.ReconciliationResponse{
		ID:             r.ID(),
		Method:         r.Method().String(),
		CounterpartyID: r.CounterpartyID(),
		ReconciledBy:   r.ReconciledBy(),
		Total:          r.Total(),
		RepaymentIDs:   r.RepaymentIDs(),
		TransferIDs:    r.TransferIDs(),
		CreatedAt:      r.CreatedAt(),
	}
}
