package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/holiman/uint256"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// HeightSource reports the monotonically non-decreasing logical height used
// for reservation expiry.
type HeightSource interface {
	CurrentHeight(ctx context.Context) (uint64, error)
}

// StateJournal persists a change set. A Commit error aborts the operation and
// leaves in-memory state untouched.
type StateJournal interface {
	Commit(ctx context.Context, changes ChangeSet) error
}

type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context) (Snapshot, error)
}

// Custodian moves the underlying asset backing wrapper mint and burn.
type Custodian interface {
	Asset() Address
	Deposit(ctx context.Context, from Address, amount *uint256.Int) error
	Release(ctx context.Context, to Address, amount *uint256.Int) error
}

// CommitHook observes a change set. Pre-commit hooks run while the ledger
// holds its write lock: they must decide from the ChangeSet alone and must
// not call back into the Ledger, which would deadlock. Post-commit hooks run
// after the lock is released and may read the Ledger.
type CommitHook interface {
	Name() string
	OnCommit(ctx context.Context, changes ChangeSet) error
}

type CommitHookFunc struct {
	HookName string
	Fn       func(ctx context.Context, changes ChangeSet) error
}

func (h CommitHookFunc) Name() string {
	return h.HookName
}

func (h CommitHookFunc) OnCommit(ctx context.Context, changes ChangeSet) error {
	if h.Fn == nil {
		return nil
	}
	return h.Fn(ctx, changes)
}

type EventFilter struct {
	Type    EventType
	Account *Address
	Limit   int
	Offset  int
}

type EventPage struct {
	Items      []EventRecord
	NextOffset int
	HasMore    bool
}

// EventRecord is an event together with its commit position.
type EventRecord struct {
	Sequence    uint64
	Position    int
	CommittedAt time.Time
	Event       Event
}

type EventReader interface {
	ListEvents(ctx context.Context, filter EventFilter) (EventPage, error)
}

// StoreProvider groups the persistence collaborators a repository factory
// can hand to the ledger.
type StoreProvider interface {
	StateJournal() StateJournal
	SnapshotLoader() SnapshotLoader
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

type JobExecutionMessage struct {
	JobID          string
	ScriptPath     string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// LedgerService is the operation surface consumed by command, query and
// relay adapters.
type LedgerService interface {
	Name() string
	Symbol() string
	Decimals() uint8
	LedgerAddress() Address
	BaseToken() Address
	TotalSupply() *uint256.Int
	CurrentHeight(ctx context.Context) (uint64, error)

	HasRole(role Role, account Address) bool
	RoleMembers(role Role) []Address
	GrantRole(ctx context.Context, caller Address, role Role, account Address) (Receipt, error)
	RevokeRole(ctx context.Context, caller Address, role Role, account Address) (Receipt, error)
	RenounceRole(ctx context.Context, caller Address, role Role) (Receipt, error)

	Account(addr Address) Account
	BalanceOf(addr Address) *uint256.Int
	ReservedBalanceOf(addr Address) *uint256.Int
	UnreservedBalanceOf(addr Address) *uint256.Int
	Mint(ctx context.Context, caller, to Address, amount *uint256.Int) (Receipt, error)
	Burn(ctx context.Context, caller, from Address, amount *uint256.Int) (Receipt, error)
	Transfer(ctx context.Context, from, to Address, amount *uint256.Int) (Receipt, error)

	Allowance(owner, spender Address) *uint256.Int
	Approve(ctx context.Context, owner, spender Address, amount *uint256.Int) (Receipt, error)
	TransferFrom(ctx context.Context, spender, from, to Address, amount *uint256.Int) (Receipt, error)

	NonceUsed(signer Address, namespace NonceNamespace, nonce *uint256.Int) bool

	Reserve(ctx context.Context, req ReserveRequest) (Reservation, error)
	Execute(ctx context.Context, caller, owner Address, nonce *uint256.Int) (Receipt, error)
	Reclaim(ctx context.Context, caller, owner Address, nonce *uint256.Int) (Receipt, error)
	GetReservation(owner Address, nonce *uint256.Int) (Reservation, error)
	Reservations(owner Address) []Reservation

	MetaTransfer(ctx context.Context, req MetaTransferRequest) (Receipt, error)
	MetaMint(ctx context.Context, req MetaMintRequest) (Receipt, error)
	MetaBurn(ctx context.Context, req MetaBurnRequest) (Receipt, error)

	WrapperMint(ctx context.Context, caller Address, amount *uint256.Int) (Receipt, error)
	WrapperBurn(ctx context.Context, caller Address, amount *uint256.Int) (Receipt, error)
}
