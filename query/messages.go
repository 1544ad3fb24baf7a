package query

import (
	"github.com/goliatone/go-ledger/core"
	"github.com/holiman/uint256"
)

const (
	TypeTokenInfo        = "ledger.query.token_info"
	TypeAccount          = "ledger.query.account"
	TypeAllowance        = "ledger.query.allowance"
	TypeHasRole          = "ledger.query.role.has"
	TypeRoleMembers      = "ledger.query.role.members"
	TypeNonceUsed        = "ledger.query.nonce.used"
	TypeGetReservation   = "ledger.query.reservation.get"
	TypeListReservations = "ledger.query.reservation.list"
	TypeListEvents       = "ledger.query.events.list"
)

// TokenInfo is the token metadata and supply snapshot.
type TokenInfo struct {
	Name          string
	Symbol        string
	Decimals      uint8
	LedgerAddress core.Address
	BaseToken     core.Address
	TotalSupply   *uint256.Int
}

type TokenInfoMessage struct{}

func (TokenInfoMessage) Type() string { return TypeTokenInfo }

func (TokenInfoMessage) Validate() error { return nil }

type AccountMessage struct {
	Address core.Address
}

func (AccountMessage) Type() string { return TypeAccount }

func (m AccountMessage) Validate() error {
	return requireAddress("address", m.Address)
}

type AllowanceMessage struct {
	Owner   core.Address
	Spender core.Address
}

func (AllowanceMessage) Type() string { return TypeAllowance }

func (m AllowanceMessage) Validate() error {
	if err := requireAddress("owner", m.Owner); err != nil {
		return err
	}
	return requireAddress("spender", m.Spender)
}

type HasRoleMessage struct {
	Role    core.Role
	Account core.Address
}

func (HasRoleMessage) Type() string { return TypeHasRole }

func (m HasRoleMessage) Validate() error {
	if err := requireRole(m.Role); err != nil {
		return err
	}
	return requireAddress("account", m.Account)
}

type RoleMembersMessage struct {
	Role core.Role
}

func (RoleMembersMessage) Type() string { return TypeRoleMembers }

func (m RoleMembersMessage) Validate() error {
	return requireRole(m.Role)
}

type NonceUsedMessage struct {
	Signer    core.Address
	Namespace core.NonceNamespace
	Nonce     *uint256.Int
}

func (NonceUsedMessage) Type() string { return TypeNonceUsed }

func (m NonceUsedMessage) Validate() error {
	if err := requireAddress("signer", m.Signer); err != nil {
		return err
	}
	if !m.Namespace.Valid() {
		return queryValidationError("namespace", "nonce namespace is not recognized")
	}
	if m.Nonce == nil {
		return queryValidationError("nonce", "nonce is required")
	}
	return nil
}

type GetReservationMessage struct {
	Owner core.Address
	Nonce *uint256.Int
}

func (GetReservationMessage) Type() string { return TypeGetReservation }

func (m GetReservationMessage) Validate() error {
	if err := requireAddress("owner", m.Owner); err != nil {
		return err
	}
	if m.Nonce == nil {
		return queryValidationError("nonce", "nonce is required")
	}
	return nil
}

type ListReservationsMessage struct {
	Owner core.Address
}

func (ListReservationsMessage) Type() string { return TypeListReservations }

func (m ListReservationsMessage) Validate() error {
	return requireAddress("owner", m.Owner)
}

type ListEventsMessage struct {
	Filter core.EventFilter
}

func (ListEventsMessage) Type() string { return TypeListEvents }

func (m ListEventsMessage) Validate() error {
	if m.Filter.Limit < 0 {
		return queryValidationError("limit", "limit must be >= 0")
	}
	if m.Filter.Offset < 0 {
		return queryValidationError("offset", "offset must be >= 0")
	}
	return nil
}

func requireAddress(field string, value core.Address) error {
	if value == core.ZeroAddress {
		return queryValidationError(field, field+" address is required")
	}
	return nil
}

func requireRole(role core.Role) error {
	if !role.Valid() {
		return queryValidationError("role", "role is not recognized")
	}
	return nil
}
