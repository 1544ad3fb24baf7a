package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type ledgerBuilder struct {
	runtimeConfig     Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorMapper       ErrorMapper
	persistenceClient any
	repositoryFactory any
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	heightSource      HeightSource
	stateJournal      StateJournal
	snapshotLoader    SnapshotLoader
	custodian         Custodian
	hooks             *CommitHookCoordinator
	clock             func() time.Time
}

type Option func(*ledgerBuilder)

func WithLogger(logger Logger) Option {
	return func(b *ledgerBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *ledgerBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *ledgerBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *ledgerBuilder) {
		b.errorMapper = mapper
	}
}

func WithPersistenceClient(client any) Option {
	return func(b *ledgerBuilder) {
		b.persistenceClient = client
	}
}

// WithRepositoryFactory accepts a RepositoryStoreFactory or a StoreProvider.
func WithRepositoryFactory(factory any) Option {
	return func(b *ledgerBuilder) {
		b.repositoryFactory = factory
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *ledgerBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *ledgerBuilder) {
		b.optionsResolver = resolver
	}
}

func WithHeightSource(source HeightSource) Option {
	return func(b *ledgerBuilder) {
		b.heightSource = source
	}
}

func WithStateJournal(journal StateJournal) Option {
	return func(b *ledgerBuilder) {
		b.stateJournal = journal
	}
}

func WithSnapshotLoader(loader SnapshotLoader) Option {
	return func(b *ledgerBuilder) {
		b.snapshotLoader = loader
	}
}

func WithCustodian(custodian Custodian) Option {
	return func(b *ledgerBuilder) {
		b.custodian = custodian
	}
}

// WithPreCommitHook registers a veto hook. It runs under the ledger write
// lock, so it sees the staged ChangeSet and must not call Ledger methods.
func WithPreCommitHook(hook CommitHook) Option {
	return func(b *ledgerBuilder) {
		b.hooks.RegisterPreCommit(hook)
	}
}

func WithPostCommitHook(hook CommitHook) Option {
	return func(b *ledgerBuilder) {
		b.hooks.RegisterPostCommit(hook)
	}
}

func WithClock(clock func() time.Time) Option {
	return func(b *ledgerBuilder) {
		b.clock = clock
	}
}

func defaultLedgerBuilder(runtime Config) ledgerBuilder {
	loggerProvider, logger := glog.Resolve("ledger", nil, nil)
	return ledgerBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorMapper:     defaultErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
		hooks:           NewCommitHookCoordinator(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return ledgerErrorMapper(err)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

// StaticConfigLoader serves a fixed raw map, typically decoded from a file.
func StaticConfigLoader(values map[string]any) RawConfigLoader {
	return staticRawConfigLoader{Values: values}
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if hasKey(raw, "decimals") {
		cfg = cfg.WithDecimals(cfg.Decimals)
	}
	return cfg, nil
}

func hasKey(raw map[string]any, key string) bool {
	for k := range raw {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	setString := func(key, value string) {
		if includeZero || strings.TrimSpace(value) != "" {
			layer[key] = value
		}
	}
	setString("name", cfg.Name)
	setString("symbol", cfg.Symbol)
	setString("ledger_address", cfg.LedgerAddress)
	setString("admin", cfg.Admin)
	if includeZero || cfg.decimalsSet || cfg.Decimals != 0 {
		layer["decimals"] = cfg.Decimals
	}

	fees := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Fees.Policy) != "" {
		fees["policy"] = cfg.Fees.Policy
	}
	if includeZero || strings.TrimSpace(cfg.Fees.Sink) != "" {
		fees["sink"] = cfg.Fees.Sink
	}
	if len(fees) > 0 {
		layer["fees"] = fees
	}
	if includeZero || strings.TrimSpace(cfg.Wrapper.BaseToken) != "" {
		layer["wrapper"] = map[string]any{
			"base_token": cfg.Wrapper.BaseToken,
		}
	}
	return layer
}
