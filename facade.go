package ledger

import (
	"fmt"
	"reflect"

	ledgercommand "github.com/goliatone/go-ledger/command"
	"github.com/goliatone/go-ledger/core"
	ledgerquery "github.com/goliatone/go-ledger/query"
)

type CommandQueryService interface {
	ledgercommand.MutatingService
	ledgerquery.LedgerReader
}

type Commands struct {
	Mint         *ledgercommand.MintCommand
	Burn         *ledgercommand.BurnCommand
	Transfer     *ledgercommand.TransferCommand
	Approve      *ledgercommand.ApproveCommand
	TransferFrom *ledgercommand.TransferFromCommand
	GrantRole    *ledgercommand.GrantRoleCommand
	RevokeRole   *ledgercommand.RevokeRoleCommand
	RenounceRole *ledgercommand.RenounceRoleCommand
	Reserve      *ledgercommand.ReserveCommand
	Execute      *ledgercommand.ExecuteCommand
	Reclaim      *ledgercommand.ReclaimCommand
	MetaTransfer *ledgercommand.MetaTransferCommand
	MetaMint     *ledgercommand.MetaMintCommand
	MetaBurn     *ledgercommand.MetaBurnCommand
	WrapperMint  *ledgercommand.WrapperMintCommand
	WrapperBurn  *ledgercommand.WrapperBurnCommand
}

type Queries struct {
	TokenInfo        *ledgerquery.TokenInfoQuery
	Account          *ledgerquery.AccountQuery
	Allowance        *ledgerquery.AllowanceQuery
	HasRole          *ledgerquery.HasRoleQuery
	RoleMembers      *ledgerquery.RoleMembersQuery
	NonceUsed        *ledgerquery.NonceUsedQuery
	GetReservation   *ledgerquery.GetReservationQuery
	ListReservations *ledgerquery.ListReservationsQuery
	// ListEvents is nil when no event reader is configured or resolvable.
	ListEvents *ledgerquery.ListEventsQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	eventReader   core.EventReader
	accountSource ledgerquery.AccountSource
}

func WithEventReader(reader core.EventReader) FacadeOption {
	return func(options *facadeOptions) {
		options.eventReader = reader
	}
}

// WithAccountSource serves account queries from a persisted source, such as
// a cached store reader, instead of the live ledger.
func WithAccountSource(source ledgerquery.AccountSource) FacadeOption {
	return func(options *facadeOptions) {
		options.accountSource = source
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("ledger: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	events := cfg.eventReader
	if events == nil {
		events = resolveEventReader(service)
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		Mint:         ledgercommand.NewMintCommand(service),
		Burn:         ledgercommand.NewBurnCommand(service),
		Transfer:     ledgercommand.NewTransferCommand(service),
		Approve:      ledgercommand.NewApproveCommand(service),
		TransferFrom: ledgercommand.NewTransferFromCommand(service),
		GrantRole:    ledgercommand.NewGrantRoleCommand(service),
		RevokeRole:   ledgercommand.NewRevokeRoleCommand(service),
		RenounceRole: ledgercommand.NewRenounceRoleCommand(service),
		Reserve:      ledgercommand.NewReserveCommand(service),
		Execute:      ledgercommand.NewExecuteCommand(service),
		Reclaim:      ledgercommand.NewReclaimCommand(service),
		MetaTransfer: ledgercommand.NewMetaTransferCommand(service),
		MetaMint:     ledgercommand.NewMetaMintCommand(service),
		MetaBurn:     ledgercommand.NewMetaBurnCommand(service),
		WrapperMint:  ledgercommand.NewWrapperMintCommand(service),
		WrapperBurn:  ledgercommand.NewWrapperBurnCommand(service),
	}
	facade.queries = Queries{
		TokenInfo:        ledgerquery.NewTokenInfoQuery(service),
		Account:          ledgerquery.NewAccountQuery(service),
		Allowance:        ledgerquery.NewAllowanceQuery(service),
		HasRole:          ledgerquery.NewHasRoleQuery(service),
		RoleMembers:      ledgerquery.NewRoleMembersQuery(service),
		NonceUsed:        ledgerquery.NewNonceUsedQuery(service),
		GetReservation:   ledgerquery.NewGetReservationQuery(service),
		ListReservations: ledgerquery.NewListReservationsQuery(service),
	}
	if cfg.accountSource != nil {
		facade.queries.Account = ledgerquery.NewAccountQueryFromSource(cfg.accountSource)
	}
	if events != nil {
		facade.queries.ListEvents = ledgerquery.NewListEventsQuery(events)
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

// resolveEventReader looks for an EventStore() accessor on the repository
// factory the ledger was built with.
func resolveEventReader(service CommandQueryService) core.EventReader {
	if reader, ok := service.(core.EventReader); ok {
		return reader
	}
	provider, ok := service.(interface {
		Dependencies() core.Dependencies
	})
	if !ok {
		return nil
	}
	deps := provider.Dependencies()
	if deps.RepositoryFactory == nil {
		return nil
	}

	factoryValue := reflect.ValueOf(deps.RepositoryFactory)
	if !factoryValue.IsValid() {
		return nil
	}
	if factoryValue.Kind() == reflect.Ptr && factoryValue.IsNil() {
		return nil
	}
	method := factoryValue.MethodByName("EventStore")
	if !method.IsValid() || method.Type().NumIn() != 0 || method.Type().NumOut() != 1 {
		return nil
	}

	results, ok := safeReflectCall(method)
	if !ok || len(results) != 1 {
		return nil
	}
	candidate := results[0]
	if !candidate.IsValid() {
		return nil
	}
	if candidate.Kind() == reflect.Ptr && candidate.IsNil() {
		return nil
	}
	reader, ok := candidate.Interface().(core.EventReader)
	if !ok {
		return nil
	}
	return reader
}

func safeReflectCall(method reflect.Value) (_ []reflect.Value, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return method.Call(nil), true
}
