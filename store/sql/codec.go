package sqlstore

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goliatone/go-ledger/core"
	"github.com/holiman/uint256"
)

func formatAmount(value uint256.Int) string {
	return value.Dec()
}

func parseAmount(field string, raw string) (uint256.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return uint256.Int{}, nil
	}
	parsed, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("sqlstore: decode %s %q: %w", field, raw, err)
	}
	return *parsed, nil
}

func formatAddress(address core.Address) string {
	return address.Hex()
}

func parseAddress(field string, raw string) (core.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return core.ZeroAddress, nil
	}
	if !common.IsHexAddress(trimmed) {
		return core.ZeroAddress, fmt.Errorf("sqlstore: decode %s %q: invalid hex address", field, raw)
	}
	return common.HexToAddress(trimmed), nil
}

func accountToRecord(account core.Account, sequence int64) *accountRecord {
	return &accountRecord{
		Address:  formatAddress(account.Address),
		Balance:  formatAmount(account.Balance),
		Reserved: formatAmount(account.Reserved),
		Sequence: sequence,
	}
}

func (r *accountRecord) toDomain() (core.Account, error) {
	address, err := parseAddress("account address", r.Address)
	if err != nil {
		return core.Account{}, err
	}
	balance, err := parseAmount("balance", r.Balance)
	if err != nil {
		return core.Account{}, err
	}
	reserved, err := parseAmount("reserved", r.Reserved)
	if err != nil {
		return core.Account{}, err
	}
	return core.Account{Address: address, Balance: balance, Reserved: reserved}, nil
}

func reservationToRecord(reservation core.Reservation, sequence int64) *reservationRecord {
	return &reservationRecord{
		Owner:         formatAddress(reservation.Owner),
		Nonce:         formatAmount(reservation.Nonce),
		Recipient:     formatAddress(reservation.Recipient),
		Executor:      formatAddress(reservation.Executor),
		Amount:        formatAmount(reservation.Amount),
		Fee:           formatAmount(reservation.Fee),
		ExpiryHeight:  int64(reservation.ExpiryHeight),
		CreatedHeight: int64(reservation.CreatedHeight),
		Status:        string(reservation.Status),
		Sequence:      sequence,
	}
}

func (r *reservationRecord) toDomain() (core.Reservation, error) {
	var (
		out core.Reservation
		err error
	)
	if out.Owner, err = parseAddress("owner", r.Owner); err != nil {
		return core.Reservation{}, err
	}
	if out.Nonce, err = parseAmount("nonce", r.Nonce); err != nil {
		return core.Reservation{}, err
	}
	if out.Recipient, err = parseAddress("recipient", r.Recipient); err != nil {
		return core.Reservation{}, err
	}
	if out.Executor, err = parseAddress("executor", r.Executor); err != nil {
		return core.Reservation{}, err
	}
	if out.Amount, err = parseAmount("amount", r.Amount); err != nil {
		return core.Reservation{}, err
	}
	if out.Fee, err = parseAmount("fee", r.Fee); err != nil {
		return core.Reservation{}, err
	}
	out.ExpiryHeight = uint64(r.ExpiryHeight)
	out.CreatedHeight = uint64(r.CreatedHeight)
	out.Status = core.ReservationStatus(strings.TrimSpace(r.Status))
	return out, nil
}

func (r *nonceRecord) toDomain() (core.NonceUse, error) {
	signer, err := parseAddress("signer", r.Signer)
	if err != nil {
		return core.NonceUse{}, err
	}
	nonce, err := parseAmount("nonce", r.Nonce)
	if err != nil {
		return core.NonceUse{}, err
	}
	return core.NonceUse{
		Signer:    signer,
		Namespace: core.NonceNamespace(strings.TrimSpace(r.Namespace)),
		Nonce:     nonce,
	}, nil
}

func (r *roleMemberRecord) toDomain() (core.RoleMember, error) {
	address, err := parseAddress("member address", r.Address)
	if err != nil {
		return core.RoleMember{}, err
	}
	return core.RoleMember{Role: core.Role(strings.TrimSpace(r.Role)), Address: address}, nil
}

func (r *allowanceRecord) toDomain() (core.Allowance, error) {
	owner, err := parseAddress("owner", r.Owner)
	if err != nil {
		return core.Allowance{}, err
	}
	spender, err := parseAddress("spender", r.Spender)
	if err != nil {
		return core.Allowance{}, err
	}
	amount, err := parseAmount("allowance", r.Amount)
	if err != nil {
		return core.Allowance{}, err
	}
	return core.Allowance{Owner: owner, Spender: spender, Amount: amount}, nil
}

func eventToRecord(event core.Event, sequence int64, position int, changes core.ChangeSet) *eventRecord {
	return &eventRecord{
		Sequence:     sequence,
		Position:     position,
		EventType:    string(event.Type),
		FromAddress:  formatAddress(event.From),
		ToAddress:    formatAddress(event.To),
		Operator:     formatAddress(event.Operator),
		Amount:       formatAmount(event.Amount),
		Fee:          formatAmount(event.Fee),
		Nonce:        formatAmount(event.Nonce),
		Role:         string(event.Role),
		ExpiryHeight: int64(event.ExpiryHeight),
		Height:       int64(event.Height),
		CommittedAt:  changes.CommittedAt.UTC(),
	}
}

func (r *eventRecord) toDomain() (core.EventRecord, error) {
	var (
		event core.Event
		err   error
	)
	event.Type = core.EventType(strings.TrimSpace(r.EventType))
	if event.From, err = parseAddress("from", r.FromAddress); err != nil {
		return core.EventRecord{}, err
	}
	if event.To, err = parseAddress("to", r.ToAddress); err != nil {
		return core.EventRecord{}, err
	}
	if event.Operator, err = parseAddress("operator", r.Operator); err != nil {
		return core.EventRecord{}, err
	}
	if event.Amount, err = parseAmount("amount", r.Amount); err != nil {
		return core.EventRecord{}, err
	}
	if event.Fee, err = parseAmount("fee", r.Fee); err != nil {
		return core.EventRecord{}, err
	}
	if event.Nonce, err = parseAmount("nonce", r.Nonce); err != nil {
		return core.EventRecord{}, err
	}
	event.Role = core.Role(strings.TrimSpace(r.Role))
	event.ExpiryHeight = uint64(r.ExpiryHeight)
	event.Height = uint64(r.Height)
	return core.EventRecord{
		Sequence:    uint64(r.Sequence),
		Position:    r.Position,
		CommittedAt: r.CommittedAt.UTC(),
		Event:       event,
	}, nil
}
