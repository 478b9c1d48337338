package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Singh-Sg/loan-app/internal/domain/event"
	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
)

// AutoReconciler is the user recorded on automatic matches.
const AutoReconciler = "system"

// CounterpartyBook is the open activity of one counterparty: repayments
// collected on its loans and transfers it sent. Records in any status may be
// passed; only NOT_RECONCILED ones are considered.
type CounterpartyBook struct {
	Counterparty model.Counterparty
	Repayments   []model.Repayment
	Transfers    []model.Transfer
}

// PassResult lists everything a reconciliation pass changed.
type PassResult struct {
	Counterparty      model.Counterparty
	CounterpartyMoved bool
	Repayments        []model.Repayment
	Transfers         []model.Transfer
	Reconciliation    *model.Reconciliation
	Escalated         int
	Events            []event.DomainEvent
}

// CounterpartyRepayment pairs a repayment with the counterparty of its loan.
type CounterpartyRepayment struct {
	Repayment      model.Repayment
	CounterpartyID string
}

// ManualMatch is the outcome of a valid manual reconciliation.
type ManualMatch struct {
	Reconciliation model.Reconciliation
	Repayments     []model.Repayment
	Transfers      []model.Transfer
	Event          event.ReconciliationCreated
}

// ReconciliationEngine matches collected repayments against transfers per
// counterparty and escalates whatever stays unmatched past its local day.
type ReconciliationEngine struct{}

// NewReconciliationEngine creates a ReconciliationEngine.
func NewReconciliationEngine() *ReconciliationEngine {
	return &ReconciliationEngine{}
}

// RunPass escalates stale records and then tries an automatic match, both
// evaluated in the counterparty's time zone at instant now. Running it again
// with no new activity changes nothing.
func (e *ReconciliationEngine) RunPass(book CounterpartyBook, now time.Time) (PassResult, error) {
	cp := book.Counterparty
	today := cp.Today(now)
	res := PassResult{Counterparty: cp}

	// 1. Escalate anything left open from a previous local day
	var (
		openRepayments         []model.Repayment
		openTransfers          []model.Transfer
		escalatedR, escalatedT []string
	)
	for _, r := range book.Repayments {
		if !r.ReconciliationStatus().Equal(valueobject.ReconciliationNotReconciled) {
			continue
		}
		if r.Date().Before(today) {
			esc, err := r.Escalate()
			if err != nil {
				return PassResult{}, fmt.Errorf("escalate repayment %s: %w", r.ID(), err)
			}
			res.Repayments = append(res.Repayments, esc)
			escalatedR = append(escalatedR, r.ID())
			continue
		}
		openRepayments = append(openRepayments, r)
	}
	for _, t := range book.Transfers {
		if !t.Successful() || !t.ReconciliationStatus().Equal(valueobject.ReconciliationNotReconciled) {
			continue
		}
		if cp.LocalDate(t.Timestamp()).Before(today) {
			esc, err := t.Escalate()
			if err != nil {
				return PassResult{}, fmt.Errorf("escalate transfer %s: %w", t.ID(), err)
			}
			res.Transfers = append(res.Transfers, esc)
			escalatedT = append(escalatedT, t.ID())
			continue
		}
		openTransfers = append(openTransfers, t)
	}
	res.Escalated = len(escalatedR) + len(escalatedT)
	if res.Escalated > 0 {
		res.Events = append(res.Events, event.NewRecordsEscalated(cp.ID(), escalatedR, escalatedT, now))
	}

	// 2. Select today's candidates recorded after the watermark
	watermark := cp.LastReconciledAt()
	var (
		repayments []model.Repayment
		transfers  []model.Transfer
		rSum, tSum = decimal.Zero, decimal.Zero
	)
	for _, r := range openRepayments {
		if r.RecordedAt().After(watermark) && !r.Date().After(today) {
			repayments = append(repayments, r)
			rSum = rSum.Add(r.Amount())
		}
	}
	for _, t := range openTransfers {
		if t.Timestamp().After(watermark) && !t.Timestamp().After(now) {
			transfers = append(transfers, t)
			tSum = tSum.Add(t.Amount())
		}
	}
	if rSum.IsZero() || !rSum.Equal(tSum) {
		return res, nil
	}

	// 3. Record the match and advance the watermark
	recon, err := model.NewReconciliation(
		valueobject.ReconciliationAutoReconciled, cp.ID(), AutoReconciler, rSum,
		repaymentIDs(repayments), transferIDs(transfers), now,
	)
	if err != nil {
		return PassResult{}, fmt.Errorf("create reconciliation: %w", err)
	}
	matchedR, matchedT, err := markReconciled(repayments, transfers, valueobject.ReconciliationAutoReconciled, recon.ID())
	if err != nil {
		return PassResult{}, err
	}
	res.Repayments = append(res.Repayments, matchedR...)
	res.Transfers = append(res.Transfers, matchedT...)
	res.Reconciliation = &recon
	res.Counterparty = cp.WithLastReconciledAt(now)
	res.CounterpartyMoved = true
	res.Events = append(res.Events, reconciliationCreated(recon))
	return res, nil
}

// Manual validates and records a user-chosen match. Every record must trace
// back to one counterparty, totals must agree and nothing may already be
// reconciled.
func (e *ReconciliationEngine) Manual(
	repayments []CounterpartyRepayment,
	transfers []model.Transfer,
	reconciledBy string,
	now time.Time,
) (ManualMatch, error) {
	if len(repayments)+len(transfers) == 0 {
		return ManualMatch{}, model.ErrEmptyReconciliation
	}

	seen := make(map[string]bool, len(repayments)+len(transfers))
	counterparties := make(map[string]bool)
	rSum, tSum := decimal.Zero, decimal.Zero
	plain := make([]model.Repayment, 0, len(repayments))
	for _, cr := range repayments {
		key := "repayment:" + cr.Repayment.ID()
		if seen[key] {
			return ManualMatch{}, fmt.Errorf("repayment %s listed twice", cr.Repayment.ID())
		}
		seen[key] = true
		counterparties[cr.CounterpartyID] = true
		rSum = rSum.Add(cr.Repayment.Amount())
		plain = append(plain, cr.Repayment)
	}
	for _, t := range transfers {
		key := "transfer:" + t.ID()
		if seen[key] {
			return ManualMatch{}, fmt.Errorf("transfer %s listed twice", t.ID())
		}
		seen[key] = true
		counterparties[t.CounterpartyID()] = true
		tSum = tSum.Add(t.Amount())
	}

	if len(counterparties) > 1 {
		return ManualMatch{}, model.ErrMultipleCounterparties
	}
	if !rSum.Equal(tSum) {
		return ManualMatch{}, fmt.Errorf("%w: repayments %s, transfers %s", model.ErrAmountMismatch, rSum, tSum)
	}
	var cpID string
	for id := range counterparties {
		cpID = id
	}

	recon, err := model.NewReconciliation(
		valueobject.ReconciliationManualReconciled, cpID, reconciledBy, rSum,
		repaymentIDs(plain), transferIDs(transfers), now,
	)
	if err != nil {
		return ManualMatch{}, fmt.Errorf("create reconciliation: %w", err)
	}
	matchedR, matchedT, err := markReconciled(plain, transfers, valueobject.ReconciliationManualReconciled, recon.ID())
	if err != nil {
		return ManualMatch{}, err
	}
	return ManualMatch{
		Reconciliation: recon,
		Repayments:     matchedR,
		Transfers:      matchedT,
		Event:          reconciliationCreated(recon),
	}, nil
}

func markReconciled(
	repayments []model.Repayment,
	transfers []model.Transfer,
	status valueobject.ReconciliationStatus,
	reconciliationID string,
) ([]model.Repayment, []model.Transfer, error) {
	outR := make([]model.Repayment, 0, len(repayments))
	for _, r := range repayments {
		next, err := r.Reconcile(status, reconciliationID)
		if err != nil {
			return nil, nil, fmt.Errorf("repayment %s: %w", r.ID(), err)
		}
		outR = append(outR, next)
	}
	outT := make([]model.Transfer, 0, len(transfers))
	for _, t := range transfers {
		next, err := t.Reconcile(status, reconciliationID)
		if err != nil {
			return nil, nil, fmt.Errorf("transfer %s: %w", t.ID(), err)
		}
		outT = append(outT, next)
	}
	return outR, outT, nil
}

func reconciliationCreated(r model.Reconciliation) event.ReconciliationCreated {
	return event.NewReconciliationCreated(
		r.ID(), r.CounterpartyID(), r.Method().String(), r.ReconciledBy(),
		r.Total(), r.RepaymentIDs(), r.TransferIDs(), r.CreatedAt(),
	)
}

func repaymentIDs(rs []model.Repayment) []string {
	ids := make([]string, len(rs))
	for i, r := range rs {
		ids[i] = r.ID()
	}
	return ids
}

func transferIDs(ts []model.Transfer) []string {
	ids := make([]string, len(ts))
	for i, t := range ts {
		ids[i] = t.ID()
	}
	return ids
}
