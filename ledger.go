package ledger

import "github.com/goliatone/go-ledger/core"

type Config = core.Config
type FeeConfig = core.FeeConfig
type WrapperConfig = core.WrapperConfig

type Option = core.Option

type Ledger = core.Ledger
type Dependencies = core.Dependencies

type Address = core.Address
type Role = core.Role
type Account = core.Account
type Reservation = core.Reservation
type ReservationStatus = core.ReservationStatus
type Receipt = core.Receipt
type Event = core.Event
type EventType = core.EventType
type ChangeSet = core.ChangeSet
type Snapshot = core.Snapshot

type ReserveRequest = core.ReserveRequest
type MetaTransferRequest = core.MetaTransferRequest
type MetaMintRequest = core.MetaMintRequest
type MetaBurnRequest = core.MetaBurnRequest
type SignedMessage = core.SignedMessage
type SignedOperation = core.SignedOperation

type HeightSource = core.HeightSource
type StateJournal = core.StateJournal
type SnapshotLoader = core.SnapshotLoader
type Custodian = core.Custodian
type CommitHook = core.CommitHook
type EventReader = core.EventReader

const (
	RoleAdmin      = core.RoleAdmin
	RoleController = core.RoleController
	RoleRelayer    = core.RoleRelayer
)

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithErrorMapper       = core.WithErrorMapper
	WithPersistenceClient = core.WithPersistenceClient
	WithRepositoryFactory = core.WithRepositoryFactory
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithHeightSource      = core.WithHeightSource
	WithStateJournal      = core.WithStateJournal
	WithSnapshotLoader    = core.WithSnapshotLoader
	WithCustodian         = core.WithCustodian
	WithPreCommitHook     = core.WithPreCommitHook
	WithPostCommitHook    = core.WithPostCommitHook
	WithClock             = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewLedger(cfg Config, opts ...Option) (*Ledger, error) {
	return core.NewLedger(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Ledger, error) {
	return core.Setup(cfg, opts...)
}
