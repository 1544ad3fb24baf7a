package gocommand

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/goliatone/go-command"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	ledgercommand "github.com/goliatone/go-ledger/command"
	"github.com/goliatone/go-ledger/core"
	ledgerquery "github.com/goliatone/go-ledger/query"
	"github.com/holiman/uint256"
)

type okMessage struct{}

func (okMessage) Type() string { return "ledger.test.ok" }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "" }

type failingMessage struct{}

func (failingMessage) Type() string { return "ledger.test.fail" }

func (failingMessage) Validate() error { return errors.New("invalid payload") }

type queueMessage struct{}

func (queueMessage) Type() string { return "ledger.test.queue" }

func TestValidateMessageContract(t *testing.T) {
	if err := ValidateMessageContract(okMessage{}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessageContract(invalidMessage{}); err == nil {
		t.Fatalf("expected empty type to fail contract validation")
	}
	if err := ValidateMessageContract(failingMessage{}); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
	if err := ValidateMessageContract(ledgercommand.MintMessage{}); err == nil {
		t.Fatalf("expected empty mint message to fail its own validation")
	}
}

func TestRegisterLedgerHandlers_DispatchAndQuery(t *testing.T) {
	ctx := context.Background()
	admin := newAddress(t)
	holder := newAddress(t)
	ledger := newTestLedger(t, admin)

	adapter := NewRegistryAdapter(command.NewRegistry())
	commands, err := RegisterLedgerCommands(adapter, ledger)
	if err != nil {
		t.Fatalf("register commands: %v", err)
	}
	defer commands.Unsubscribe()
	if len(commands) != 16 {
		t.Fatalf("expected 16 command subscriptions, got %d", len(commands))
	}

	queries, err := RegisterLedgerQueries(adapter, ledger, nil)
	if err != nil {
		t.Fatalf("register queries: %v", err)
	}
	defer queries.Unsubscribe()
	if len(queries) != 8 {
		t.Fatalf("expected events query to be skipped without a reader, got %d", len(queries))
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	if err := Dispatch(ctx, ledgercommand.MintMessage{Caller: admin, To: holder, Amount: uint256.NewInt(40)}); err != nil {
		t.Fatalf("dispatch mint: %v", err)
	}
	err = Dispatch(ctx, ledgercommand.MintMessage{Caller: holder, To: holder, Amount: uint256.NewInt(1)})
	if !core.IsErrorCode(err, core.LedgerErrorUnauthorized) || core.ErrorCode(err) != core.LedgerErrorUnauthorized {
		t.Fatalf("expected unauthorized mint through dispatcher, got %q (%v)", core.ErrorCode(err), err)
	}
	err = Dispatch(ctx, ledgercommand.MintMessage{Caller: admin, To: holder})
	if core.ErrorCode(err) != core.LedgerErrorBadInput {
		t.Fatalf("expected validation code through dispatcher, got %q (%v)", core.ErrorCode(err), err)
	}

	account, err := Query[ledgerquery.AccountMessage, core.Account](ctx, ledgerquery.AccountMessage{Address: holder})
	if err != nil {
		t.Fatalf("query account: %v", err)
	}
	if !account.Balance.Eq(uint256.NewInt(40)) {
		t.Fatalf("expected dispatched mint to credit 40, got %s", account.Balance.Dec())
	}

	info, err := Query[ledgerquery.TokenInfoMessage, ledgerquery.TokenInfo](ctx, ledgerquery.TokenInfoMessage{})
	if err != nil {
		t.Fatalf("query token info: %v", err)
	}
	if !info.TotalSupply.Eq(uint256.NewInt(40)) {
		t.Fatalf("expected supply 40, got %s", info.TotalSupply.Dec())
	}
}

func TestRegisterLedgerHandlers_RequireCollaborators(t *testing.T) {
	adapter := NewRegistryAdapter(nil)
	if _, err := RegisterLedgerCommands(adapter, nil); err == nil {
		t.Fatalf("expected nil service to be rejected")
	}
	if _, err := RegisterLedgerQueries(adapter, nil, nil); err == nil {
		t.Fatalf("expected nil reader to be rejected")
	}
	var unconfigured *RegistryAdapter
	if _, err := RegisterAndSubscribe(unconfigured, ledgercommand.NewMintCommand(nil)); err == nil {
		t.Fatalf("expected unconfigured adapter to be rejected")
	}
}

func TestRegistryResolverWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	executed := 0
	customResolverCalled := 0

	cmd := command.CommandFunc[okMessage](func(context.Context, okMessage) error {
		executed++
		return nil
	})
	subscription, err := RegisterAndSubscribe(adapter, cmd)
	if err != nil {
		t.Fatalf("register and subscribe: %v", err)
	}
	defer subscription.Unsubscribe()

	if err := adapter.AddResolver("custom", func(any, command.CommandMeta, *command.Registry) error {
		customResolverCalled++
		return nil
	}); err != nil {
		t.Fatalf("add resolver: %v", err)
	}
	if !adapter.HasResolver(" custom ") {
		t.Fatalf("expected custom resolver to be registered")
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}
	if customResolverCalled == 0 {
		t.Fatalf("expected resolver hook to run during initialization")
	}
	if err := Dispatch(context.Background(), okMessage{}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if executed != 1 {
		t.Fatalf("expected command execution count=1, got %d", executed)
	}
}

func TestQueueResolverHookWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	queueRegistry := jobqueuecommand.NewRegistry()

	cmd := command.CommandFunc[queueMessage](func(context.Context, queueMessage) error { return nil })

	if err := adapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if err := adapter.AddQueueResolver("queue", nil); err == nil {
		t.Fatalf("expected nil queue registry to be rejected")
	}
	if err := adapter.RegisterCommand(cmd); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	if _, ok := queueRegistry.Get("ledger.test.queue"); !ok {
		t.Fatalf("expected command to be mirrored into queue registry")
	}
}

func newTestLedger(t *testing.T, admin core.Address) *core.Ledger {
	t.Helper()
	cfg := core.DefaultConfig()
	cfg.LedgerAddress = "0x0290FB167208Af455bB137780163b7B7a9a10C16"
	cfg.Admin = admin.Hex()
	ledger, err := core.NewLedger(cfg, core.WithHeightSource(core.NewManualHeightSource(1)))
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	return ledger
}

func newAddress(t *testing.T) core.Address {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return crypto.PubkeyToAddress(key.PublicKey)
}
