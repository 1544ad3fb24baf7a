package query

import (
	"context"

	"github.com/goliatone/go-ledger/core"
	"github.com/holiman/uint256"
)

// LedgerReader is the read side of a ledger instance.
type LedgerReader interface {
	Name() string
	Symbol() string
	Decimals() uint8
	LedgerAddress() core.Address
	BaseToken() core.Address
	TotalSupply() *uint256.Int
	Account(addr core.Address) core.Account
	Allowance(owner, spender core.Address) *uint256.Int
	HasRole(role core.Role, account core.Address) bool
	RoleMembers(role core.Role) []core.Address
	NonceUsed(signer core.Address, namespace core.NonceNamespace, nonce *uint256.Int) bool
	GetReservation(owner core.Address, nonce *uint256.Int) (core.Reservation, error)
	Reservations(owner core.Address) []core.Reservation
}

// AccountSource resolves balances; a cached store reader or the in-memory
// ledger both fit.
type AccountSource interface {
	Account(ctx context.Context, address core.Address) (core.Account, error)
}

type TokenInfoQuery struct {
	reader LedgerReader
}

func NewTokenInfoQuery(reader LedgerReader) *TokenInfoQuery {
	return &TokenInfoQuery{reader: reader}
}

func (q *TokenInfoQuery) Query(_ context.Context, _ TokenInfoMessage) (TokenInfo, error) {
	if q == nil || q.reader == nil {
		return TokenInfo{}, queryDependencyError("query: ledger reader is required")
	}
	return TokenInfo{
		Name:          q.reader.Name(),
		Symbol:        q.reader.Symbol(),
		Decimals:      q.reader.Decimals(),
		LedgerAddress: q.reader.LedgerAddress(),
		BaseToken:     q.reader.BaseToken(),
		TotalSupply:   q.reader.TotalSupply(),
	}, nil
}

type AccountQuery struct {
	reader LedgerReader
	source AccountSource
}

func NewAccountQuery(reader LedgerReader) *AccountQuery {
	return &AccountQuery{reader: reader}
}

// NewAccountQueryFromSource serves balances from a persisted source instead
// of the live ledger.
func NewAccountQueryFromSource(source AccountSource) *AccountQuery {
	return &AccountQuery{source: source}
}

func (q *AccountQuery) Query(ctx context.Context, msg AccountMessage) (core.Account, error) {
	if q == nil || (q.reader == nil && q.source == nil) {
		return core.Account{}, queryDependencyError("query: account reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.Account{}, err
	}
	if q.source != nil {
		return q.source.Account(ctx, msg.Address)
	}
	return q.reader.Account(msg.Address), nil
}

type AllowanceQuery struct {
	reader LedgerReader
}

func NewAllowanceQuery(reader LedgerReader) *AllowanceQuery {
	return &AllowanceQuery{reader: reader}
}

func (q *AllowanceQuery) Query(_ context.Context, msg AllowanceMessage) (*uint256.Int, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: ledger reader is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return q.reader.Allowance(msg.Owner, msg.Spender), nil
}

type HasRoleQuery struct {
	reader LedgerReader
}

func NewHasRoleQuery(reader LedgerReader) *HasRoleQuery {
	return &HasRoleQuery{reader: reader}
}

func (q *HasRoleQuery) Query(_ context.Context, msg HasRoleMessage) (bool, error) {
	if q == nil || q.reader == nil {
		return false, queryDependencyError("query: ledger reader is required")
	}
	if err := msg.Validate(); err != nil {
		return false, err
	}
	return q.reader.HasRole(msg.Role, msg.Account), nil
}

type RoleMembersQuery struct {
	reader LedgerReader
}

func NewRoleMembersQuery(reader LedgerReader) *RoleMembersQuery {
	return &RoleMembersQuery{reader: reader}
}

func (q *RoleMembersQuery) Query(_ context.Context, msg RoleMembersMessage) ([]core.Address, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: ledger reader is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return q.reader.RoleMembers(msg.Role), nil
}

type NonceUsedQuery struct {
	reader LedgerReader
}

func NewNonceUsedQuery(reader LedgerReader) *NonceUsedQuery {
	return &NonceUsedQuery{reader: reader}
}

func (q *NonceUsedQuery) Query(_ context.Context, msg NonceUsedMessage) (bool, error) {
	if q == nil || q.reader == nil {
		return false, queryDependencyError("query: ledger reader is required")
	}
	if err := msg.Validate(); err != nil {
		return false, err
	}
	return q.reader.NonceUsed(msg.Signer, msg.Namespace, msg.Nonce), nil
}

type GetReservationQuery struct {
	reader LedgerReader
}

func NewGetReservationQuery(reader LedgerReader) *GetReservationQuery {
	return &GetReservationQuery{reader: reader}
}

func (q *GetReservationQuery) Query(_ context.Context, msg GetReservationMessage) (core.Reservation, error) {
	if q == nil || q.reader == nil {
		return core.Reservation{}, queryDependencyError("query: ledger reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.Reservation{}, err
	}
	return q.reader.GetReservation(msg.Owner, msg.Nonce)
}

type ListReservationsQuery struct {
	reader LedgerReader
}

func NewListReservationsQuery(reader LedgerReader) *ListReservationsQuery {
	return &ListReservationsQuery{reader: reader}
}

func (q *ListReservationsQuery) Query(_ context.Context, msg ListReservationsMessage) ([]core.Reservation, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: ledger reader is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return q.reader.Reservations(msg.Owner), nil
}

type ListEventsQuery struct {
	reader core.EventReader
}

func NewListEventsQuery(reader core.EventReader) *ListEventsQuery {
	return &ListEventsQuery{reader: reader}
}

func (q *ListEventsQuery) Query(ctx context.Context, msg ListEventsMessage) (core.EventPage, error) {
	if q == nil || q.reader == nil {
		return core.EventPage{}, queryDependencyError("query: event reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.EventPage{}, err
	}
	return q.reader.ListEvents(ctx, msg.Filter)
}
