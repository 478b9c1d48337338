package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Singh-Sg/loan-app/internal/domain/event"
	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
	"github.com/Singh-Sg/loan-app/pkg/money"
)

// ---------------------------------------------------------------------------
// Loan aggregate root
// ---------------------------------------------------------------------------

// LoanTerms are the contract parameters fixed when a loan is booked.
type LoanTerms struct {
	BorrowerID         string
	CounterpartyID     string
	Currency           money.Currency
	Amount             decimal.Decimal
	Fee                decimal.Decimal
	InterestRate       decimal.Decimal
	InterestModel      valueobject.InterestModel
	RatePeriod         valueobject.RatePeriod
	NumberOfRepayments int
	NormalInstallment  decimal.Decimal
	BulletInstallment  decimal.Decimal
}

// Validate checks the terms are internally consistent.
func (t LoanTerms) Validate() error {
	switch {
	case t.BorrowerID == "":
		return errors.New("borrower ID is required")
	case t.CounterpartyID == "":
		return errors.New("counterparty ID is required")
	case t.Currency.IsZero():
		return errors.New("currency is required")
	case t.Amount.IsNegative():
		return errors.New("amount must not be negative")
	case t.Fee.IsNegative():
		return errors.New("fee must not be negative")
	case t.InterestRate.IsNegative():
		return errors.New("interest rate must not be negative")
	case t.RatePeriod.IsZero():
		return errors.New("interest rate period is required")
	case t.NormalInstallment.IsNegative() || t.BulletInstallment.IsNegative():
		return errors.New("installment amounts must not be negative")
	case !t.Currency.IsWhole(t.Amount) || !t.Currency.IsWhole(t.Fee):
		return errors.New("amount and fee must be whole minor units")
	}
	switch t.InterestModel {
	case valueobject.InterestModelActual360, valueobject.InterestModelActual365:
		if t.BulletInstallment.GreaterThan(t.Amount) {
			return errors.New("bullet installment exceeds amount")
		}
		if t.Amount.GreaterThan(t.BulletInstallment) && !t.NormalInstallment.IsPositive() {
			return errors.New("normal installment must be positive")
		}
	case valueobject.InterestModelEqualRepayments:
		if t.NumberOfRepayments <= 0 {
			return errors.New("number of repayments must be positive")
		}
	case valueobject.InterestModelUnknown:
		return ErrUnsupportedInterestModel
	default:
		return ErrUnsupportedInterestModel
	}
	return nil
}

// Loan is an immutable aggregate. Mutations return a new copy.
type Loan struct {
	id           string
	terms        LoanTerms
	originDate   time.Time
	dueDate      time.Time
	state        valueobject.LoanState
	repaidOn     *time.Time
	version      int
	createdAt    time.Time
	updatedAt    time.Time
	domainEvents []event.DomainEvent
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// NewLoan books a loan in DRAFT. originDate is the calendar date the schedule
// counts periods from, normally the creation date in the service zone.
func NewLoan(terms LoanTerms, originDate, now time.Time) (Loan, error) {
	if err := terms.Validate(); err != nil {
		return Loan{}, err
	}

	id := uuid.New().String()
	loan := Loan{
		id:         id,
		terms:      terms,
		originDate: valueobject.TruncateDate(originDate),
		state:      valueobject.LoanStateDraft,
		version:    1,
		createdAt:  now,
		updatedAt:  now,
	}
	loan.domainEvents = append(loan.domainEvents, event.NewLoanCreated(
		id, terms.BorrowerID, terms.CounterpartyID,
		terms.Amount, terms.Fee, terms.Currency.Code(), terms.InterestModel.String(), now,
	))
	return loan, nil
}

// ReconstructLoan rebuilds a Loan aggregate from persistence.
func ReconstructLoan(
	id string,
	terms LoanTerms,
	originDate, dueDate time.Time,
	state valueobject.LoanState,
	repaidOn *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) Loan {
	return Loan{
		id:         id,
		terms:      terms,
		originDate: originDate,
		dueDate:    dueDate,
		state:      state,
		repaidOn:   repaidOn,
		version:    version,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// ---------------------------------------------------------------------------
// State transitions
// ---------------------------------------------------------------------------

// TransitionTo moves the loan along its lifecycle table.
func (l Loan) TransitionTo(next valueobject.LoanState, now time.Time) (Loan, error) {
	state, err := l.state.TransitionTo(next)
	if err != nil {
		return l, err
	}
	out := l
	out.state = state
	out.updatedAt = now
	out.domainEvents = copyEvents(l.domainEvents)
	out.domainEvents = append(out.domainEvents, event.NewLoanStateChanged(l.id, l.state.String(), state.String(), now))
	return out, nil
}

// Close records repaidOn as the closing date. The lifecycle moves to REPAID
// when the table allows it from the current state.
func (l Loan) Close(repaidOn, now time.Time) Loan {
	out := l
	d := valueobject.TruncateDate(repaidOn)
	out.repaidOn = &d
	out.updatedAt = now
	out.domainEvents = copyEvents(l.domainEvents)
	if l.state.CanTransitionTo(valueobject.LoanStateRepaid) {
		out.state = valueobject.LoanStateRepaid
		out.domainEvents = append(out.domainEvents,
			event.NewLoanStateChanged(l.id, l.state.String(), out.state.String(), now))
	}
	out.domainEvents = append(out.domainEvents, event.NewLoanRepaid(l.id, d, now))
	return out
}

// WithDueDate records the date of the last schedule line.
func (l Loan) WithDueDate(dueDate time.Time) Loan {
	out := l
	out.dueDate = dueDate
	return out
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (l Loan) ID() string                               { return l.id }
func (l Loan) Terms() LoanTerms                         { return l.terms }
func (l Loan) BorrowerID() string                       { return l.terms.BorrowerID }
func (l Loan) CounterpartyID() string                   { return l.terms.CounterpartyID }
func (l Loan) Currency() money.Currency                 { return l.terms.Currency }
func (l Loan) Amount() decimal.Decimal                  { return l.terms.Amount }
func (l Loan) Fee() decimal.Decimal                     { return l.terms.Fee }
func (l Loan) InterestRate() decimal.Decimal            { return l.terms.InterestRate }
func (l Loan) InterestModel() valueobject.InterestModel { return l.terms.InterestModel }
func (l Loan) RatePeriod() valueobject.RatePeriod       { return l.terms.RatePeriod }
func (l Loan) NumberOfRepayments() int                  { return l.terms.NumberOfRepayments }
func (l Loan) NormalInstallment() decimal.Decimal       { return l.terms.NormalInstallment }
func (l Loan) BulletInstallment() decimal.Decimal       { return l.terms.BulletInstallment }
func (l Loan) OriginDate() time.Time                    { return l.originDate }
func (l Loan) DueDate() time.Time                       { return l.dueDate }
func (l Loan) State() valueobject.LoanState             { return l.state }
func (l Loan) Version() int                             { return l.version }
func (l Loan) CreatedAt() time.Time                     { return l.createdAt }
func (l Loan) UpdatedAt() time.Time                     { return l.updatedAt }

// RepaidOn returns the closing date and whether the loan is closed.
func (l Loan) RepaidOn() (time.Time, bool) {
	if l.repaidOn == nil {
		return time.Time{}, false
	}
	return *l.repaidOn, true
}

// IsClosed reports whether a closing date is set.
func (l Loan) IsClosed() bool { return l.repaidOn != nil }

// DomainEvents returns the events raised since the aggregate was loaded.
func (l Loan) DomainEvents() []event.DomainEvent { return l.domainEvents }

// ClearDomainEvents returns a copy with no pending events.
func (l Loan) ClearDomainEvents() Loan {
	out := l
	out.domainEvents = nil
	return out
}

func copyEvents(src []event.DomainEvent) []event.DomainEvent {
	if len(src) == 0 {
		return nil
	}
	dst := make([]event.DomainEvent, len(src))
	copy(dst, src)
	return dst
}
