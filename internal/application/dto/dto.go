package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Request DTOs
// ---------------------------------------------------------------------------

// CreateLoanRequest carries the contract terms of a new loan.
type CreateLoanRequest struct {
	BorrowerID         string          `json:"borrower_id"`
	CounterpartyID     string          `json:"counterparty_id"`
	Currency           string          `json:"currency"`
	Amount             decimal.Decimal `json:"amount"`
	Fee                decimal.Decimal `json:"fee"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	InterestModel      string          `json:"interest_model"`
	RatePeriod         string          `json:"rate_period"`
	NumberOfRepayments int             `json:"number_of_repayments"`
	NormalInstallment  decimal.Decimal `json:"normal_installment"`
	BulletInstallment  decimal.Decimal `json:"bullet_installment"`
	// GenerateSchedule builds the initial lines from the terms.
	GenerateSchedule  bool `json:"generate_schedule"`
	FeeOnDisbursement bool `json:"fee_on_disbursement"`
}

// ScheduleLineDTO is one planned due amount.
type ScheduleLineDTO struct {
	ID           string          `json:"id,omitempty"`
	Date         time.Time       `json:"date"`
	Principal    decimal.Decimal `json:"principal"`
	Fee          decimal.Decimal `json:"fee"`
	Interest     decimal.Decimal `json:"interest"`
	Penalty      decimal.Decimal `json:"penalty"`
	Subscription decimal.Decimal `json:"subscription"`
	Note         string          `json:"note,omitempty"`
}

// CreateScheduleLinesRequest appends lines to a loan's schedule.
type CreateScheduleLinesRequest struct {
	LoanID string            `json:"loan_id"`
	Lines  []ScheduleLineDTO `json:"lines"`
}

// RecordRepaymentRequest records money collected from a borrower. A zero
// Date means today in the service zone.
type RecordRepaymentRequest struct {
	LoanID     string          `json:"loan_id"`
	Date       time.Time       `json:"date"`
	Amount     decimal.Decimal `json:"amount"`
	RecordedBy string          `json:"recorded_by"`
}

// RecalculateScheduleRequest identifies the loan to recalculate.
type RecalculateScheduleRequest struct {
	LoanID string `json:"loan_id"`
}

// GetDelayRequest asks for delinquency figures. A zero At means today.
type GetDelayRequest struct {
	LoanID string    `json:"loan_id"`
	At     time.Time `json:"at"`
}

// ReconcileManualRequest lists the records a user matched by hand.
type ReconcileManualRequest struct {
	RepaymentIDs []string `json:"repayment_ids"`
	TransferIDs  []string `json:"transfer_ids"`
	ReconciledBy string   `json:"reconciled_by"`
}

// ShiftScheduleRequest moves lines for loans with a line in [From, To].
type ShiftScheduleRequest struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
	Days int       `json:"days"`
}

// GetLoanRequest identifies a loan to retrieve.
type GetLoanRequest struct {
	LoanID string `json:"loan_id"`
}

// ChangeLoanStateRequest moves a loan along its lifecycle.
type ChangeLoanStateRequest struct {
	LoanID string `json:"loan_id"`
	State  string `json:"state"`
}

// IngestTransferRequest is a transfer confirmation from the payments system.
type IngestTransferRequest struct {
	ID             string          `json:"id"`
	CounterpartyID string          `json:"counterparty_id"`
	Amount         decimal.Decimal `json:"amount"`
	Timestamp      time.Time       `json:"timestamp"`
	Successful     bool            `json:"successful"`
	ExternalRef    string          `json:"external_ref"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// ComponentsDTO is a per-component amount.
type ComponentsDTO struct {
	Principal    decimal.Decimal `json:"principal"`
	Fee          decimal.Decimal `json:"fee"`
	Interest     decimal.Decimal `json:"interest"`
	Penalty      decimal.Decimal `json:"penalty"`
	Subscription decimal.Decimal `json:"subscription"`
	Total        decimal.Decimal `json:"total"`
}

// RepaymentDTO is the external representation of a repayment.
type RepaymentDTO struct {
	ID                   string          `json:"id"`
	LoanID               string          `json:"loan_id"`
	Date                 time.Time       `json:"date"`
	Amount               decimal.Decimal `json:"amount"`
	Breakdown            ComponentsDTO   `json:"breakdown"`
	ReconciliationStatus string          `json:"reconciliation_status"`
	ReconciliationID     string          `json:"reconciliation_id,omitempty"`
	RecordedAt           time.Time       `json:"recorded_at"`
	RecordedBy           string          `json:"recorded_by"`
}

// LoanResponse is the external representation of a loan.
type LoanResponse struct {
	ID                 string            `json:"id"`
	BorrowerID         string            `json:"borrower_id"`
	CounterpartyID     string            `json:"counterparty_id"`
	Currency           string            `json:"currency"`
	Amount             decimal.Decimal   `json:"amount"`
	Fee                decimal.Decimal   `json:"fee"`
	InterestRate       decimal.Decimal   `json:"interest_rate"`
	InterestModel      string            `json:"interest_model"`
	RatePeriod         string            `json:"rate_period"`
	NumberOfRepayments int               `json:"number_of_repayments"`
	State              string            `json:"state"`
	OriginDate         time.Time         `json:"origin_date"`
	DueDate            time.Time         `json:"due_date"`
	RepaidOn           *time.Time        `json:"repaid_on,omitempty"`
	Version            int               `json:"version"`
	Lines              []ScheduleLineDTO `json:"lines,omitempty"`
}

// LoanSummaryResponse is a loan with its repayments and balances as of today.
type LoanSummaryResponse struct {
	Loan        LoanResponse   `json:"loan"`
	Repayments  []RepaymentDTO `json:"repayments"`
	Outstanding ComponentsDTO  `json:"outstanding"`
	AmountDue   ComponentsDTO  `json:"amount_due"`
	AsOf        time.Time      `json:"as_of"`
}

// RecordRepaymentResponse is the outcome of an allocation.
type RecordRepaymentResponse struct {
	Repayment         RepaymentDTO `json:"repayment"`
	Reallocated       []string     `json:"reallocated,omitempty"`
	LoanClosed        bool         `json:"loan_closed"`
	LinesRecalculated int          `json:"lines_recalculated"`
}

// RecalculateScheduleResponse reports how many lines a recalculation changed.
type RecalculateScheduleResponse struct {
	LoanID       string    `json:"loan_id"`
	AsOf         time.Time `json:"as_of"`
	LinesChanged int       `json:"lines_changed"`
}

// BatchResponse summarises a job that visits many loans or counterparties.
type BatchResponse struct {
	Processed int      `json:"processed"`
	Changed   int      `json:"changed"`
	Failed    []string `json:"failed,omitempty"`
	Skipped   bool     `json:"skipped,omitempty"`
}

// DelayResponse holds delinquency figures for one loan.
type DelayResponse struct {
	LoanID               string        `json:"loan_id"`
	Delay                int           `json:"delay"`
	DelayAt              int           `json:"delay_at"`
	At                   time.Time     `json:"at"`
	AmountDue            ComponentsDTO `json:"amount_due"`
	NextDisbursementDate time.Time     `json:"next_disbursement_date"`
}

// ReconciliationResponse is the external representation of a match.
type ReconciliationResponse struct {
	ID             string          `json:"id"`
	Method         string          `json:"method"`
	CounterpartyID string          `json:"counterparty_id"`
	ReconciledBy   string          `json:"reconciled_by"`
	Total          decimal.Decimal `json:"total"`
	RepaymentIDs   []string        `json:"repayment_ids"`
	TransferIDs    []string        `json:"transfer_ids"`
	CreatedAt      time.Time       `json:"created_at"`
}

// AutoReconciliationResponse summarises one automatic pass.
type AutoReconciliationResponse struct {
	Counterparties  int      `json:"counterparties"`
	Reconciliations int      `json:"reconciliations"`
	Escalated       int      `json:"escalated"`
	Failed          []string `json:"failed,omitempty"`
	Skipped         bool     `json:"skipped,omitempty"`
}

// ShiftScheduleResponse reports how many loans and lines were shifted.
type ShiftScheduleResponse struct {
	Loans  int      `json:"loans"`
	Lines  int      `json:"lines"`
	Failed []string `json:"failed,omitempty"`
}

// IngestTransferResponse reports whether the transfer was new.
type IngestTransferResponse struct {
	ID       string `json:"id"`
	Inserted bool   `json:"inserted"`
}
