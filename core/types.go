package core

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Address identifies an account, the ledger itself, or a role member.
type Address = common.Address

// ZeroAddress is never a valid executor and is used as the counterparty of
// mint and burn transfer events.
var ZeroAddress = common.Address{}

type Role string

const (
	RoleAdmin      Role = "DEFAULT_ADMIN_ROLE"
	RoleController Role = "CONTROLLER_ROLE"
	RoleRelayer    Role = "RELAYER_ROLE"
)

// ID returns the keccak256 identifier of the role name.
func (r Role) ID() common.Hash {
	return crypto.Keccak256Hash([]byte(r))
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleController, RoleRelayer:
		return true
	default:
		return false
	}
}

func ParseRole(value string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(value)))
	if !role.Valid() {
		return "", badInputError("core: unknown role", map[string]any{"role": value})
	}
	return role, nil
}

type NonceNamespace string

const (
	// NonceNamespaceTransfer is shared by ETHless transfers and reservations.
	NonceNamespaceTransfer NonceNamespace = "transfer"
	NonceNamespaceMint     NonceNamespace = "mint"
	NonceNamespaceBurn     NonceNamespace = "burn"
)

func (n NonceNamespace) Valid() bool {
	switch n {
	case NonceNamespaceTransfer, NonceNamespaceMint, NonceNamespaceBurn:
		return true
	default:
		return false
	}
}

type Account struct {
	Address  Address
	Balance  uint256.Int
	Reserved uint256.Int
}

// Unreserved returns balance minus reserved. The ledger keeps
// Reserved <= Balance so the subtraction never wraps.
func (a Account) Unreserved() uint256.Int {
	var out uint256.Int
	out.Sub(&a.Balance, &a.Reserved)
	return out
}

type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusExecuted  ReservationStatus = "executed"
	ReservationStatusReclaimed ReservationStatus = "reclaimed"
)

func (s ReservationStatus) Terminal() bool {
	return s == ReservationStatusExecuted || s == ReservationStatusReclaimed
}

type ReservationKey struct {
	Owner Address
	Nonce uint256.Int
}

type Reservation struct {
	Owner         Address
	Nonce         uint256.Int
	Recipient     Address
	Executor      Address
	Amount        uint256.Int
	Fee           uint256.Int
	ExpiryHeight  uint64
	CreatedHeight uint64
	Status        ReservationStatus
}

func (r Reservation) Key() ReservationKey {
	return ReservationKey{Owner: r.Owner, Nonce: r.Nonce}
}

// Total returns amount+fee; the reservation was validated against overflow
// when it was created.
func (r Reservation) Total() uint256.Int {
	var out uint256.Int
	out.Add(&r.Amount, &r.Fee)
	return out
}

// ExpiredAt is strict: at ExpiryHeight the reservation is still executable.
func (r Reservation) ExpiredAt(height uint64) bool {
	return height > r.ExpiryHeight
}

type NonceUse struct {
	Signer    Address
	Namespace NonceNamespace
	Nonce     uint256.Int
}

type AllowanceKey struct {
	Owner   Address
	Spender Address
}

type Allowance struct {
	Owner   Address
	Spender Address
	Amount  uint256.Int
}

type RoleMember struct {
	Role    Role
	Address Address
}

// RoleChange records a membership mutation inside a change set.
type RoleChange struct {
	Role    Role
	Address Address
	Granted bool
}

func amountPtr(in uint256.Int) *uint256.Int {
	out := in
	return &out
}

// MaxAmount returns the largest representable amount.
func MaxAmount() *uint256.Int {
	return new(uint256.Int).SetAllOne()
}
