package port

import (
	"context"
	"time"

	"github.com/Singh-Sg/loan-app/internal/domain/event"
	"github.com/Singh-Sg/loan-app/internal/domain/model"
	"github.com/Singh-Sg/loan-app/internal/domain/service"
)

// ---------------------------------------------------------------------------
// Repository ports (driven/secondary adapters)
// ---------------------------------------------------------------------------

// LedgerStore persists loans together with their schedule and repayments.
type LedgerStore interface {
	// Create inserts a new loan, its lines and pending events.
	Create(ctx context.Context, ledger *model.Ledger) error
	// Update loads the ledger for loanID under a row lock, runs fn and, when
	// fn succeeds, writes every change fn made plus its events in the same
	// transaction.
	Update(ctx context.Context, loanID string, fn func(ledger *model.Ledger) error) error
	// Load reads a ledger without locking it.
	Load(ctx context.Context, loanID string) (*model.Ledger, error)
	// ListOpenLoanIDs returns disbursed loans that are not closed.
	ListOpenLoanIDs(ctx context.Context) ([]string, error)
	// ListLoanIDsWithLinesBetween returns open loans with a line dated in [from, to].
	ListLoanIDsWithLinesBetween(ctx context.Context, from, to time.Time) ([]string, error)
}

// CounterpartyRepository reads counterparties.
type CounterpartyRepository interface {
	FindByID(ctx context.Context, id string) (model.Counterparty, error)
	List(ctx context.Context) ([]model.Counterparty, error)
	Save(ctx context.Context, cp model.Counterparty) error
}

// TransferRepository stores transfer confirmations.
type TransferRepository interface {
	// Save inserts a transfer. It reports false when the ID was already known.
	Save(ctx context.Context, t model.Transfer) (bool, error)
}

// ReconciliationStore runs reconciliation work in one transaction.
type ReconciliationStore interface {
	WithinTx(ctx context.Context, fn func(tx ReconciliationTx) error) error
}

// ReconciliationTx is the transactional view used while matching records.
// Methods returning records lock them until the transaction ends.
type ReconciliationTx interface {
	LockCounterparty(ctx context.Context, id string) (model.Counterparty, error)
	OpenRepayments(ctx context.Context, counterpartyID string) ([]model.Repayment, error)
	OpenTransfers(ctx context.Context, counterpartyID string) ([]model.Transfer, error)
	RepaymentsByID(ctx context.Context, ids []string) ([]service.CounterpartyRepayment, error)
	TransfersByID(ctx context.Context, ids []string) ([]model.Transfer, error)
	SaveRepaymentStatuses(ctx context.Context, repayments ...model.Repayment) error
	SaveTransferStatuses(ctx context.Context, transfers ...model.Transfer) error
	SaveWatermark(ctx context.Context, cp model.Counterparty) error
	InsertReconciliation(ctx context.Context, r model.Reconciliation) error
	AppendEvents(ctx context.Context, events ...event.DomainEvent) error
}

// ---------------------------------------------------------------------------
// Infrastructure ports
// ---------------------------------------------------------------------------

// Clock supplies the current instant and calendar date in the service zone.
type Clock interface {
	Now() time.Time
	Today() time.Time
}

// Locker grants process-wide exclusive locks, used so that only one replica
// runs a nightly job.
type Locker interface {
	// Acquire returns a release function, or ErrLockHeld when another holder
	// owns key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}
