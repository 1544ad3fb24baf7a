package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

// Ledger is a single sequential ledger instance. Every mutating call stages
// its writes, runs pre-commit hooks, persists through the StateJournal when
// one is configured and only then applies the writes in memory.
type Ledger struct {
	mu    sync.RWMutex
	state *ledgerState

	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorMapper       ErrorMapper
	persistenceClient any
	repositoryFactory any
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	heightSource      HeightSource
	journal           StateJournal
	snapshotLoader    SnapshotLoader
	custodian         Custodian
	hooks             *CommitHookCoordinator
	clock             func() time.Time
}

type Dependencies struct {
	Logger            Logger
	LoggerProvider    LoggerProvider
	MetricsRecorder   MetricsRecorder
	ErrorMapper       ErrorMapper
	PersistenceClient any
	RepositoryFactory any
	ConfigProvider    ConfigProvider
	OptionsResolver   OptionsResolver
	HeightSource      HeightSource
	StateJournal      StateJournal
	SnapshotLoader    SnapshotLoader
	Custodian         Custodian
	Hooks             *CommitHookCoordinator
}

// Receipt describes a committed operation.
type Receipt struct {
	Sequence    uint64
	Operation   string
	Height      uint64
	Events      []Event
	CommittedAt time.Time
}

func receiptFrom(changes ChangeSet) Receipt {
	return Receipt{
		Sequence:    changes.Sequence,
		Operation:   changes.Operation,
		Height:      changes.Height,
		Events:      changes.Events,
		CommittedAt: changes.CommittedAt,
	}
}

func NewLedger(cfg Config, opts ...Option) (*Ledger, error) {
	builder := defaultLedgerBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("ledger", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("ledger"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.heightSource == nil {
		builder.heightSource = NewManualHeightSource(0)
	}
	if builder.hooks == nil {
		builder.hooks = NewCommitHookCoordinator()
	}
	if builder.clock == nil {
		builder.clock = func() time.Time {
			return time.Now().UTC()
		}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if (builder.stateJournal == nil || builder.snapshotLoader == nil) && builder.repositoryFactory != nil {
		stores, buildErr := resolveStoreProvider(builder.repositoryFactory, builder.persistenceClient)
		if buildErr != nil {
			return nil, mapBuildError(builder.errorMapper, buildErr)
		}
		if stores != nil {
			if builder.stateJournal == nil {
				builder.stateJournal = stores.StateJournal()
			}
			if builder.snapshotLoader == nil {
				builder.snapshotLoader = stores.SnapshotLoader()
			}
		}
	}

	configured := strings.TrimSpace(finalConfig.LedgerAddress) != ""
	if err := resolveLedgerIdentity(&finalConfig, builder.stateJournal != nil); err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	if !configured {
		logger.Warn("ledger_address not configured, using an ephemeral identity", "ledger_address", finalConfig.LedgerAddress)
	}

	ledger := &Ledger{
		state:             newLedgerState(),
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorMapper:       builder.errorMapper,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		heightSource:      builder.heightSource,
		journal:           builder.stateJournal,
		snapshotLoader:    builder.snapshotLoader,
		custodian:         builder.custodian,
		hooks:             builder.hooks,
		clock:             builder.clock,
	}

	if ledger.snapshotLoader != nil {
		snapshot, loadErr := ledger.snapshotLoader.LoadSnapshot(context.Background())
		if loadErr != nil {
			return nil, mapBuildError(builder.errorMapper, fmt.Errorf("core: load snapshot: %w", loadErr))
		}
		ledger.state.restore(snapshot)
	}
	if err := ledger.genesis(context.Background()); err != nil {
		return nil, err
	}
	return ledger, nil
}

// resolveLedgerIdentity gives every ledger a distinct signing domain. A
// journaled ledger must name its identity so signatures survive restarts;
// an in-memory one gets a random identity when none is configured.
func resolveLedgerIdentity(cfg *Config, journaled bool) error {
	if strings.TrimSpace(cfg.LedgerAddress) != "" {
		if cfg.Ledger() == ZeroAddress {
			return badInputError("core: ledger_address must not be the zero address", nil)
		}
		return nil
	}
	if journaled {
		return badInputError("core: ledger_address is required for a journaled ledger", nil)
	}
	id := uuid.New()
	cfg.LedgerAddress = common.BytesToAddress(crypto.Keccak256(id[:])).Hex()
	return nil
}

func Setup(cfg Config, opts ...Option) (*Ledger, error) {
	return NewLedger(cfg, opts...)
}

func resolveStoreProvider(factory any, persistenceClient any) (StoreProvider, error) {
	switch typed := factory.(type) {
	case RepositoryStoreFactory:
		return typed.BuildStores(persistenceClient)
	case StoreProvider:
		return typed, nil
	default:
		return nil, nil
	}
}

// genesis grants the configured admin every role when no role has members.
func (l *Ledger) genesis(ctx context.Context) error {
	admin := l.config.AdminAddress()
	if admin == ZeroAddress {
		return nil
	}
	l.mu.RLock()
	provisioned := len(l.state.roles[RoleAdmin]) > 0 ||
		len(l.state.roles[RoleController]) > 0 ||
		len(l.state.roles[RoleRelayer]) > 0
	l.mu.RUnlock()
	if provisioned {
		return nil
	}
	_, err := l.commit(ctx, "genesis", func(_ context.Context, tx *stagedTx) error {
		for _, role := range []Role{RoleAdmin, RoleController, RoleRelayer} {
			if tx.setRole(role, admin, true) {
				tx.emit(Event{Type: EventRoleGranted, To: admin, Operator: admin, Role: role})
			}
		}
		return nil
	})
	return err
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (l *Ledger) mapError(err error) error {
	if err == nil {
		return nil
	}
	if l == nil || l.errorMapper == nil {
		return err
	}
	mapped := l.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

// commit runs fn against a fresh staged transaction under the ledger lock.
// Anything fn returns as an error discards the staged writes.
func (l *Ledger) commit(ctx context.Context, operation string, fn func(ctx context.Context, tx *stagedTx) error) (ChangeSet, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return ChangeSet{}, err
	}

	l.mu.Lock()
	height, err := l.heightSource.CurrentHeight(ctx)
	if err != nil {
		l.mu.Unlock()
		return ChangeSet{}, fmt.Errorf("core: resolve height: %w", err)
	}
	tx := newStagedTx(l.state, operation, height)
	if err := fn(ctx, tx); err != nil {
		l.mu.Unlock()
		return ChangeSet{}, err
	}
	changes := tx.changeSet(l.state.sequence + 1)
	changes.CommittedAt = l.clock()
	if err := l.hooks.ExecutePreCommit(ctx, changes); err != nil {
		l.mu.Unlock()
		return ChangeSet{}, err
	}
	if l.journal != nil {
		if err := l.journal.Commit(ctx, changes); err != nil {
			l.mu.Unlock()
			return ChangeSet{}, fmt.Errorf("core: journal commit failed: %w", err)
		}
	}
	l.state.apply(changes)
	l.mu.Unlock()

	if err := l.hooks.ExecutePostCommit(ctx, changes); err != nil {
		l.logWarn(ctx, "post-commit hooks failed", map[string]any{
			"operation": operation,
			"sequence":  changes.Sequence,
			"error":     err.Error(),
		})
	}
	return changes, nil
}

func (l *Ledger) Config() Config {
	if l == nil {
		return Config{}
	}
	return l.config
}

func (l *Ledger) Dependencies() Dependencies {
	if l == nil {
		return Dependencies{}
	}
	return Dependencies{
		Logger:            l.logger,
		LoggerProvider:    l.loggerProvider,
		MetricsRecorder:   l.metricsRecorder,
		ErrorMapper:       l.errorMapper,
		PersistenceClient: l.persistenceClient,
		RepositoryFactory: l.repositoryFactory,
		ConfigProvider:    l.configProvider,
		OptionsResolver:   l.optionsResolver,
		HeightSource:      l.heightSource,
		StateJournal:      l.journal,
		SnapshotLoader:    l.snapshotLoader,
		Custodian:         l.custodian,
		Hooks:             l.hooks,
	}
}

// Hooks exposes the commit hook coordinator so adapters can register
// after construction.
func (l *Ledger) Hooks() *CommitHookCoordinator {
	if l == nil {
		return nil
	}
	return l.hooks
}

func (l *Ledger) Name() string {
	return l.config.Name
}

func (l *Ledger) Symbol() string {
	return l.config.Symbol
}

func (l *Ledger) Decimals() uint8 {
	return l.config.Decimals
}

// LedgerAddress is the identity bound into every signed message.
func (l *Ledger) LedgerAddress() Address {
	return l.config.Ledger()
}

// BaseToken returns the wrapped asset, preferring the custodian's view.
func (l *Ledger) BaseToken() Address {
	if l.custodian != nil {
		return l.custodian.Asset()
	}
	return l.config.BaseToken()
}

func (l *Ledger) CurrentHeight(ctx context.Context) (uint64, error) {
	return l.heightSource.CurrentHeight(ctx)
}

func (l *Ledger) Sequence() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.sequence
}

func (l *Ledger) TotalSupply() *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return amountPtr(l.state.totalSupply)
}

func (l *Ledger) Account(addr Address) Account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.account(addr)
}

func (l *Ledger) BalanceOf(addr Address) *uint256.Int {
	account := l.Account(addr)
	return amountPtr(account.Balance)
}

func (l *Ledger) ReservedBalanceOf(addr Address) *uint256.Int {
	account := l.Account(addr)
	return amountPtr(account.Reserved)
}

func (l *Ledger) UnreservedBalanceOf(addr Address) *uint256.Int {
	account := l.Account(addr)
	return amountPtr(account.Unreserved())
}

func (l *Ledger) NonceUsed(signer Address, namespace NonceNamespace, nonce *uint256.Int) bool {
	if nonce == nil {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.state.nonces[NonceUse{Signer: signer, Namespace: namespace, Nonce: *nonce}]
	return ok
}

func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.snapshot()
}

// Mint credits amount to to and grows total supply. Controller only.
func (l *Ledger) Mint(ctx context.Context, caller, to Address, amount *uint256.Int) (receipt Receipt, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"caller": caller.Hex(),
		"to":     to.Hex(),
	}
	defer func() {
		l.observeOperation(ctx, startedAt, "mint", err, fields)
	}()

	value, err := requireAmount("amount", amount)
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	fields["amount"] = value.Dec()
	changes, err := l.commit(ctx, "mint", func(_ context.Context, tx *stagedTx) error {
		if !tx.hasRole(RoleController, caller) {
			return controllerRequiredError(caller)
		}
		if to == ZeroAddress {
			return badInputError("core: mint to the zero address", nil)
		}
		return tx.mintTo(to, &value)
	})
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	return receiptFrom(changes), nil
}

// Burn removes unreserved funds from from and shrinks total supply.
// Controller only.
func (l *Ledger) Burn(ctx context.Context, caller, from Address, amount *uint256.Int) (receipt Receipt, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"caller": caller.Hex(),
		"from":   from.Hex(),
	}
	defer func() {
		l.observeOperation(ctx, startedAt, "burn", err, fields)
	}()

	value, err := requireAmount("amount", amount)
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	fields["amount"] = value.Dec()
	changes, err := l.commit(ctx, "burn", func(_ context.Context, tx *stagedTx) error {
		if !tx.hasRole(RoleController, caller) {
			return controllerRequiredError(caller)
		}
		return tx.burnFrom(from, &value)
	})
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	return receiptFrom(changes), nil
}

// Transfer moves unreserved funds from from to to.
func (l *Ledger) Transfer(ctx context.Context, from, to Address, amount *uint256.Int) (receipt Receipt, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"from": from.Hex(),
		"to":   to.Hex(),
	}
	defer func() {
		l.observeOperation(ctx, startedAt, "transfer", err, fields)
	}()

	value, err := requireAmount("amount", amount)
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	fields["amount"] = value.Dec()
	changes, err := l.commit(ctx, "transfer", func(_ context.Context, tx *stagedTx) error {
		if err := requireParties(from, to); err != nil {
			return err
		}
		return tx.move(from, to, &value)
	})
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	return receiptFrom(changes), nil
}

func requireAmount(field string, amount *uint256.Int) (uint256.Int, error) {
	if amount == nil {
		return uint256.Int{}, badInputError(fmt.Sprintf("core: %s is required", field), map[string]any{"field": field})
	}
	return *amount, nil
}

func requireParties(from, to Address) error {
	if from == ZeroAddress {
		return badInputError("core: transfer from the zero address", nil)
	}
	if to == ZeroAddress {
		return badInputError("core: transfer to the zero address", nil)
	}
	return nil
}
