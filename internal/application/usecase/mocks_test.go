package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Singh-Sg/loan-app/internal/domain/event"
	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/port"
	"github.com/Singh-Sg/loan-app/internal/domain/service"
	"github.com/Singh-Sg/loan-app/internal/domain/valueobject"
	"github.com/Singh-Sg/loan-app/pkg/money"
)

// --- Mock implementations ---

// mockLedgerStore keeps ledgers in memory. Update hands fn the stored
// ledger, so changes made before a failure stay visible to the test.
type mockLedgerStore struct {
	mu           sync.Mutex
	ledgers      map[string]*model.Ledger
	createFunc   func(ctx context.Context, ledger *model.Ledger) error
	updateErr    map[string]error
	listOpenFunc func(ctx context.Context) ([]string, error)
	created      []*model.Ledger
	updated      []string
}

func newMockLedgerStore(ledgers ...*model.Ledger) *mockLedgerStore {
	m := &mockLedgerStore{ledgers: make(map[string]*model.Ledger), updateErr: make(map[string]error)}
	for _, l := range ledgers {
		m.ledgers[l.Loan().ID()] = l
	}
	return m
}

func (m *mockLedgerStore) Create(ctx context.Context, ledger *model.Ledger) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, ledger)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, ledger)
	m.ledgers[ledger.Loan().ID()] = ledger
	return nil
}

func (m *mockLedgerStore) Update(_ context.Context, loanID string, fn func(ledger *model.Ledger) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.updateErr[loanID]; err != nil {
		return err
	}
	ledger, ok := m.ledgers[loanID]
	if !ok {
		return fmt.Errorf("loan %s: %w", loanID, model.ErrNotFound)
	}
	if err := fn(ledger); err != nil {
		return err
	}
	m.updated = append(m.updated, loanID)
	return nil
}

func (m *mockLedgerStore) Load(_ context.Context, loanID string) (*model.Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ledger, ok := m.ledgers[loanID]
	if !ok {
		return nil, fmt.Errorf("loan %s: %w", loanID, model.ErrNotFound)
	}
	return ledger, nil
}

func (m *mockLedgerStore) ListOpenLoanIDs(ctx context.Context) ([]string, error) {
	if m.listOpenFunc != nil {
		return m.listOpenFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, l := range m.ledgers {
		if !l.Loan().IsClosed() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *mockLedgerStore) ListLoanIDsWithLinesBetween(_ context.Context, from, to time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, l := range m.ledgers {
		for _, line := range l.Lines() {
			if !line.Date.Before(from) && !line.Date.After(to) {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time   { return c.now }
func (c fixedClock) Today() time.Time { return valueobject.TruncateDate(c.now) }

type mockLocker struct {
	acquireFunc func(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
	acquired    []string
	released    int
}

func (m *mockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	if m.acquireFunc != nil {
		return m.acquireFunc(ctx, key, ttl)
	}
	m.acquired = append(m.acquired, key)
	return func(context.Context) error {
		m.released++
		return nil
	}, nil
}

type mockTransferRepository struct {
	saveFunc func(ctx context.Context, t model.Transfer) (bool, error)
	saved    []model.Transfer
}

func (m *mockTransferRepository) Save(ctx context.Context, t model.Transfer) (bool, error) {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, t)
	}
	for _, s := range m.saved {
		if s.ID() == t.ID() {
			return false, nil
		}
	}
	m.saved = append(m.saved, t)
	return true, nil
}

type mockCounterpartyRepository struct {
	listFunc       func(ctx context.Context) ([]model.Counterparty, error)
	counterparties []model.Counterparty
}

func (m *mockCounterpartyRepository) FindByID(_ context.Context, id string) (model.Counterparty, error) {
	for _, cp := range m.counterparties {
		if cp.ID() == id {
			return cp, nil
		}
	}
	return model.Counterparty{}, fmt.Errorf("counterparty %s: %w", id, model.ErrNotFound)
}

func (m *mockCounterpartyRepository) List(ctx context.Context) ([]model.Counterparty, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return m.counterparties, nil
}

func (m *mockCounterpartyRepository) Save(_ context.Context, cp model.Counterparty) error {
	m.counterparties = append(m.counterparties, cp)
	return nil
}

// mockReconciliationStore runs fn against a single in-memory transaction and
// discards its writes when fn fails.
type mockReconciliationStore struct {
	mu             sync.Mutex
	counterparties map[string]model.Counterparty
	repayments     map[string]service.CounterpartyRepayment
	transfers      map[string]model.Transfer
	lockErr        map[string]error

	reconciliations []model.Reconciliation
	events          []event.DomainEvent
	commits         int
}

func newMockReconciliationStore() *mockReconciliationStore {
	return &mockReconciliationStore{
		counterparties: make(map[string]model.Counterparty),
		repayments:     make(map[string]service.CounterpartyRepayment),
		transfers:      make(map[string]model.Transfer),
		lockErr:        make(map[string]error),
	}
}

func (m *mockReconciliationStore) WithinTx(_ context.Context, fn func(tx port.ReconciliationTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &mockReconciliationTx{store: m}
	if err := fn(tx); err != nil {
		return err
	}
	for _, r := range tx.repayments {
		cr := m.repayments[r.ID()]
		cr.Repayment = r
		m.repayments[r.ID()] = cr
	}
	for _, t := range tx.transfers {
		m.transfers[t.ID()] = t
	}
	for _, cp := range tx.watermarks {
		m.counterparties[cp.ID()] = cp
	}
	m.reconciliations = append(m.reconciliations, tx.reconciliations...)
	m.events = append(m.events, tx.events...)
	m.commits++
	return nil
}

type mockReconciliationTx struct {
	store           *mockReconciliationStore
	repayments      []model.Repayment
	transfers       []model.Transfer
	watermarks      []model.Counterparty
	reconciliations []model.Reconciliation
	events          []event.DomainEvent
}

func (tx *mockReconciliationTx) LockCounterparty(_ context.Context, id string) (model.Counterparty, error) {
	if err := tx.store.lockErr[id]; err != nil {
		return model.Counterparty{}, err
	}
	cp, ok := tx.store.counterparties[id]
	if !ok {
		return model.Counterparty{}, fmt.Errorf("counterparty %s: %w", id, model.ErrNotFound)
	}
	return cp, nil
}

func (tx *mockReconciliationTx) OpenRepayments(_ context.Context, counterpartyID string) ([]model.Repayment, error) {
	var out []model.Repayment
	for _, cr := range tx.store.repayments {
		if cr.CounterpartyID == counterpartyID && !cr.Repayment.ReconciliationStatus().IsReconciled() {
			out = append(out, cr.Repayment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (tx *mockReconciliationTx) OpenTransfers(_ context.Context, counterpartyID string) ([]model.Transfer, error) {
	var out []model.Transfer
	for _, t := range tx.store.transfers {
		if t.CounterpartyID() == counterpartyID && !t.ReconciliationStatus().IsReconciled() {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (tx *mockReconciliationTx) RepaymentsByID(_ context.Context, ids []string) ([]service.CounterpartyRepayment, error) {
	out := make([]service.CounterpartyRepayment, 0, len(ids))
	for _, id := range ids {
		cr, ok := tx.store.repayments[id]
		if !ok {
			return nil, fmt.Errorf("repayment %s: %w", id, model.ErrNotFound)
		}
		out = append(out, cr)
	}
	return out, nil
}

func (tx *mockReconciliationTx) TransfersByID(_ context.Context, ids []string) ([]model.Transfer, error) {
	out := make([]model.Transfer, 0, len(ids))
	for _, id := range ids {
		t, ok := tx.store.transfers[id]
		if !ok {
			return nil, fmt.Errorf("transfer %s: %w", id, model.ErrNotFound)
		}
		out = append(out, t)
	}
	return out, nil
}

func (tx *mockReconciliationTx) SaveRepaymentStatuses(_ context.Context, repayments ...model.Repayment) error {
	tx.repayments = append(tx.repayments, repayments...)
	return nil
}

func (tx *mockReconciliationTx) SaveTransferStatuses(_ context.Context, transfers ...model.Transfer) error {
	tx.transfers = append(tx.transfers, transfers...)
	return nil
}

func (tx *mockReconciliationTx) SaveWatermark(_ context.Context, cp model.Counterparty) error {
	tx.watermarks = append(tx.watermarks, cp)
	return nil
}

func (tx *mockReconciliationTx) InsertReconciliation(_ context.Context, r model.Reconciliation) error {
	tx.reconciliations = append(tx.reconciliations, r)
	return nil
}

func (tx *mockReconciliationTx) AppendEvents(_ context.Context, events ...event.DomainEvent) error {
	tx.events = append(tx.events, events...)
	return nil
}

// --- Fixtures ---

var createdAt = time.Date(2016, 10, 1, 8, 0, 0, 0, time.UTC)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func day(year int, month time.Month, d int) time.Time { return valueobject.Date(year, month, d) }

// clockOn is 09:00 UTC on the given calendar day.
func clockOn(date time.Time) fixedClock { return fixedClock{now: date.Add(9 * time.Hour)} }

func kyatTerms(amount, fee, installment int64) model.LoanTerms {
	return model.LoanTerms{
		BorrowerID:        "borrower-1",
		CounterpartyID:    "agent-1",
		Currency:          money.MMK,
		Amount:            dec(amount),
		Fee:               dec(fee),
		InterestRate:      decimal.Zero,
		InterestModel:     valueobject.InterestModelActual360,
		RatePeriod:        valueobject.RatePeriodYearly,
		NormalInstallment: dec(installment),
	}
}

// dailyLedger builds a DISBURSED loan with one principal line per day
// starting the day after origin. The fee sits on the first line.
func dailyLedger(t *testing.T, id string, origin time.Time, fee int64, principals ...int64) *model.Ledger {
	t.Helper()
	var amount int64
	for _, p := range principals {
		amount += p
	}
	terms := kyatTerms(amount, fee, principals[0])
	require.NoError(t, terms.Validate())

	lines := make([]model.ScheduleLine, 0, len(principals))
	date := origin
	for i, p := range principals {
		date = valueobject.AddDays(date, 1)
		c := model.Components{Principal: dec(p)}
		if i == 0 {
			c.Fee = dec(fee)
		}
		lines = append(lines, model.NewScheduleLine(id, date, c))
	}
	loan := model.ReconstructLoan(id, terms, origin, date, valueobject.LoanStateDisbursed, nil, 1, createdAt, createdAt)
	return model.NewLedger(loan, lines, nil)
}

func assertDec(t *testing.T, want int64, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %d, got %s %v", want, got, msgAndArgs)
}
