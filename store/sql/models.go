package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type commitRecord struct {
	bun.BaseModel `bun:"table:ledger_commits,alias:lc"`

	ID          string    `bun:"id,pk"`
	Sequence    int64     `bun:"sequence,notnull"`
	Operation   string    `bun:"operation,notnull"`
	Height      int64     `bun:"height,notnull"`
	TotalSupply string    `bun:"total_supply,notnull"`
	EventCount  int       `bun:"event_count,notnull"`
	CommittedAt time.Time `bun:"committed_at,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type accountRecord struct {
	bun.BaseModel `bun:"table:ledger_accounts,alias:la"`

	ID        string    `bun:"id,pk"`
	Address   string    `bun:"address,notnull"`
	Balance   string    `bun:"balance,notnull"`
	Reserved  string    `bun:"reserved,notnull"`
	Sequence  int64     `bun:"sequence,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type reservationRecord struct {
	bun.BaseModel `bun:"table:ledger_reservations,alias:lr"`

	ID            string    `bun:"id,pk"`
	Owner         string    `bun:"owner,notnull"`
	Nonce         string    `bun:"nonce,notnull"`
	Recipient     string    `bun:"recipient,notnull"`
	Executor      string    `bun:"executor,notnull"`
	Amount        string    `bun:"amount,notnull"`
	Fee           string    `bun:"fee,notnull"`
	ExpiryHeight  int64     `bun:"expiry_height,notnull"`
	CreatedHeight int64     `bun:"created_height,notnull"`
	Status        string    `bun:"status,notnull"`
	Sequence      int64     `bun:"sequence,notnull"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type nonceRecord struct {
	bun.BaseModel `bun:"table:ledger_nonces,alias:ln"`

	ID        string    `bun:"id,pk"`
	Signer    string    `bun:"signer,notnull"`
	Namespace string    `bun:"namespace,notnull"`
	Nonce     string    `bun:"nonce,notnull"`
	Sequence  int64     `bun:"sequence,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type roleMemberRecord struct {
	bun.BaseModel `bun:"table:ledger_role_members,alias:lrm"`

	ID        string    `bun:"id,pk"`
	Role      string    `bun:"role,notnull"`
	Address   string    `bun:"address,notnull"`
	Sequence  int64     `bun:"sequence,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type allowanceRecord struct {
	bun.BaseModel `bun:"table:ledger_allowances,alias:lal"`

	ID        string    `bun:"id,pk"`
	Owner     string    `bun:"owner,notnull"`
	Spender   string    `bun:"spender,notnull"`
	Amount    string    `bun:"amount,notnull"`
	Sequence  int64     `bun:"sequence,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type eventRecord struct {
	bun.BaseModel `bun:"table:ledger_events,alias:le"`

	ID           string    `bun:"id,pk"`
	Sequence     int64     `bun:"sequence,notnull"`
	Position     int       `bun:"position,notnull"`
	EventType    string    `bun:"event_type,notnull"`
	FromAddress  string    `bun:"from_address,notnull"`
	ToAddress    string    `bun:"to_address,notnull"`
	Operator     string    `bun:"operator,notnull"`
	Amount       string    `bun:"amount,notnull"`
	Fee          string    `bun:"fee,notnull"`
	Nonce        string    `bun:"nonce,notnull"`
	Role         string    `bun:"role,notnull"`
	ExpiryHeight int64     `bun:"expiry_height,notnull"`
	Height       int64     `bun:"height,notnull"`
	CommittedAt  time.Time `bun:"committed_at,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
