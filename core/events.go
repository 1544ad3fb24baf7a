package core

import (
	"time"

	"github.com/holiman/uint256"
)

type EventType string

const (
	EventTransfer             EventType = "transfer"
	EventMint                 EventType = "mint"
	EventBurnt                EventType = "burnt"
	EventApproval             EventType = "approval"
	EventReserved             EventType = "reserved"
	EventReservationExecuted  EventType = "reservation_executed"
	EventReservationReclaimed EventType = "reservation_reclaimed"
	EventRoleGranted          EventType = "role_granted"
	EventRoleRevoked          EventType = "role_revoked"
	EventWrapperMint          EventType = "wrapper_mint"
	EventWrapperBurn          EventType = "wrapper_burn"
)

// Event is a ledger notification. Unused fields are left zero.
type Event struct {
	Type         EventType
	From         Address
	To           Address
	Operator     Address
	Amount       uint256.Int
	Fee          uint256.Int
	Nonce        uint256.Int
	Role         Role
	ExpiryHeight uint64
	Height       uint64
}

// Involves reports whether account appears as a party of the event.
func (e Event) Involves(account Address) bool {
	return e.From == account || e.To == account || e.Operator == account
}

// ChangeSet is everything one committed operation wrote. Accounts,
// reservations and allowances carry their post-operation values.
type ChangeSet struct {
	Sequence     uint64
	Operation    string
	Height       uint64
	TotalSupply  uint256.Int
	Accounts     []Account
	Reservations []Reservation
	Nonces       []NonceUse
	Roles        []RoleChange
	Allowances   []Allowance
	Events       []Event
	CommittedAt  time.Time
}

func (c ChangeSet) Empty() bool {
	return len(c.Accounts) == 0 &&
		len(c.Reservations) == 0 &&
		len(c.Nonces) == 0 &&
		len(c.Roles) == 0 &&
		len(c.Allowances) == 0 &&
		len(c.Events) == 0
}

// Snapshot is full ledger state as of Sequence.
type Snapshot struct {
	Sequence     uint64
	TotalSupply  uint256.Int
	Accounts     []Account
	Reservations []Reservation
	Nonces       []NonceUse
	Roles        []RoleMember
	Allowances   []Allowance
}
