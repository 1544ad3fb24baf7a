package core

import (
	"sort"

	"github.com/holiman/uint256"
)

type ledgerState struct {
	sequence     uint64
	totalSupply  uint256.Int
	accounts     map[Address]Account
	reservations map[ReservationKey]Reservation
	nonces       map[NonceUse]struct{}
	roles        map[Role]map[Address]struct{}
	allowances   map[AllowanceKey]uint256.Int
}

func newLedgerState() *ledgerState {
	return &ledgerState{
		accounts:     map[Address]Account{},
		reservations: map[ReservationKey]Reservation{},
		nonces:       map[NonceUse]struct{}{},
		roles:        map[Role]map[Address]struct{}{},
		allowances:   map[AllowanceKey]uint256.Int{},
	}
}

func (s *ledgerState) account(addr Address) Account {
	if account, ok := s.accounts[addr]; ok {
		return account
	}
	return Account{Address: addr}
}

func (s *ledgerState) hasRole(role Role, addr Address) bool {
	members, ok := s.roles[role]
	if !ok {
		return false
	}
	_, ok = members[addr]
	return ok
}

func (s *ledgerState) members(role Role) []Address {
	members := s.roles[role]
	out := make([]Address, 0, len(members))
	for addr := range members {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Cmp(out[j]) < 0
	})
	return out
}

func (s *ledgerState) apply(changes ChangeSet) {
	s.sequence = changes.Sequence
	s.totalSupply = changes.TotalSupply
	for _, account := range changes.Accounts {
		if account.Balance.IsZero() && account.Reserved.IsZero() {
			delete(s.accounts, account.Address)
			continue
		}
		s.accounts[account.Address] = account
	}
	for _, reservation := range changes.Reservations {
		s.reservations[reservation.Key()] = reservation
	}
	for _, use := range changes.Nonces {
		s.nonces[use] = struct{}{}
	}
	for _, change := range changes.Roles {
		s.setRole(change.Role, change.Address, change.Granted)
	}
	for _, allowance := range changes.Allowances {
		key := AllowanceKey{Owner: allowance.Owner, Spender: allowance.Spender}
		if allowance.Amount.IsZero() {
			delete(s.allowances, key)
			continue
		}
		s.allowances[key] = allowance.Amount
	}
}

func (s *ledgerState) setRole(role Role, addr Address, granted bool) {
	members, ok := s.roles[role]
	if !ok {
		if !granted {
			return
		}
		members = map[Address]struct{}{}
		s.roles[role] = members
	}
	if granted {
		members[addr] = struct{}{}
		return
	}
	delete(members, addr)
}

func (s *ledgerState) restore(snapshot Snapshot) {
	s.sequence = snapshot.Sequence
	s.totalSupply = snapshot.TotalSupply
	for _, account := range snapshot.Accounts {
		s.accounts[account.Address] = account
	}
	for _, reservation := range snapshot.Reservations {
		s.reservations[reservation.Key()] = reservation
	}
	for _, use := range snapshot.Nonces {
		s.nonces[use] = struct{}{}
	}
	for _, member := range snapshot.Roles {
		s.setRole(member.Role, member.Address, true)
	}
	for _, allowance := range snapshot.Allowances {
		s.allowances[AllowanceKey{Owner: allowance.Owner, Spender: allowance.Spender}] = allowance.Amount
	}
}

func (s *ledgerState) snapshot() Snapshot {
	out := Snapshot{
		Sequence:     s.sequence,
		TotalSupply:  s.totalSupply,
		Accounts:     make([]Account, 0, len(s.accounts)),
		Reservations: make([]Reservation, 0, len(s.reservations)),
		Nonces:       make([]NonceUse, 0, len(s.nonces)),
		Allowances:   make([]Allowance, 0, len(s.allowances)),
	}
	for _, account := range s.accounts {
		out.Accounts = append(out.Accounts, account)
	}
	sort.Slice(out.Accounts, func(i, j int) bool {
		return out.Accounts[i].Address.Cmp(out.Accounts[j].Address) < 0
	})
	for _, reservation := range s.reservations {
		out.Reservations = append(out.Reservations, reservation)
	}
	sort.Slice(out.Reservations, func(i, j int) bool {
		return reservationKeyLess(out.Reservations[i].Key(), out.Reservations[j].Key())
	})
	for use := range s.nonces {
		out.Nonces = append(out.Nonces, use)
	}
	sort.Slice(out.Nonces, func(i, j int) bool {
		a, b := out.Nonces[i], out.Nonces[j]
		if c := a.Signer.Cmp(b.Signer); c != 0 {
			return c < 0
		}
		if a.Namespace != b.Namespace {
			return a.Namespace < b.Namespace
		}
		return a.Nonce.Lt(&b.Nonce)
	})
	for _, role := range []Role{RoleAdmin, RoleController, RoleRelayer} {
		for _, addr := range s.members(role) {
			out.Roles = append(out.Roles, RoleMember{Role: role, Address: addr})
		}
	}
	for key, amount := range s.allowances {
		out.Allowances = append(out.Allowances, Allowance{Owner: key.Owner, Spender: key.Spender, Amount: amount})
	}
	sort.Slice(out.Allowances, func(i, j int) bool {
		a, b := out.Allowances[i], out.Allowances[j]
		if c := a.Owner.Cmp(b.Owner); c != 0 {
			return c < 0
		}
		return a.Spender.Cmp(b.Spender) < 0
	})
	return out
}

func reservationKeyLess(a, b ReservationKey) bool {
	if c := a.Owner.Cmp(b.Owner); c != 0 {
		return c < 0
	}
	return a.Nonce.Lt(&b.Nonce)
}

// stagedTx collects the writes of one operation on top of the committed
// state. Nothing reaches ledgerState until apply.
type stagedTx struct {
	base      *ledgerState
	operation string
	height    uint64

	totalSupply uint256.Int

	accounts         map[Address]Account
	accountOrder     []Address
	reservations     map[ReservationKey]Reservation
	reservationOrder []ReservationKey
	nonces           map[NonceUse]struct{}
	nonceOrder       []NonceUse
	roles            map[RoleMember]bool
	roleOrder        []RoleChange
	allowances       map[AllowanceKey]uint256.Int
	allowanceOrder   []AllowanceKey
	events           []Event
}

func newStagedTx(base *ledgerState, operation string, height uint64) *stagedTx {
	return &stagedTx{
		base:         base,
		operation:    operation,
		height:       height,
		totalSupply:  base.totalSupply,
		accounts:     map[Address]Account{},
		reservations: map[ReservationKey]Reservation{},
		nonces:       map[NonceUse]struct{}{},
		roles:        map[RoleMember]bool{},
		allowances:   map[AllowanceKey]uint256.Int{},
	}
}

func (tx *stagedTx) account(addr Address) Account {
	if account, ok := tx.accounts[addr]; ok {
		return account
	}
	return tx.base.account(addr)
}

func (tx *stagedTx) putAccount(account Account) {
	if _, ok := tx.accounts[account.Address]; !ok {
		tx.accountOrder = append(tx.accountOrder, account.Address)
	}
	tx.accounts[account.Address] = account
}

func (tx *stagedTx) hasRole(role Role, addr Address) bool {
	if granted, ok := tx.roles[RoleMember{Role: role, Address: addr}]; ok {
		return granted
	}
	return tx.base.hasRole(role, addr)
}

// setRole reports whether membership changed.
func (tx *stagedTx) setRole(role Role, addr Address, granted bool) bool {
	if tx.hasRole(role, addr) == granted {
		return false
	}
	tx.roles[RoleMember{Role: role, Address: addr}] = granted
	tx.roleOrder = append(tx.roleOrder, RoleChange{Role: role, Address: addr, Granted: granted})
	return true
}

func (tx *stagedTx) nonceUsed(use NonceUse) bool {
	if _, ok := tx.nonces[use]; ok {
		return true
	}
	_, ok := tx.base.nonces[use]
	return ok
}

func (tx *stagedTx) consumeNonce(use NonceUse) error {
	if tx.nonceUsed(use) {
		return nonceAlreadyUsedError(use)
	}
	tx.nonces[use] = struct{}{}
	tx.nonceOrder = append(tx.nonceOrder, use)
	return nil
}

func (tx *stagedTx) reservation(key ReservationKey) (Reservation, bool) {
	if reservation, ok := tx.reservations[key]; ok {
		return reservation, true
	}
	reservation, ok := tx.base.reservations[key]
	return reservation, ok
}

func (tx *stagedTx) putReservation(reservation Reservation) {
	key := reservation.Key()
	if _, ok := tx.reservations[key]; !ok {
		tx.reservationOrder = append(tx.reservationOrder, key)
	}
	tx.reservations[key] = reservation
}

func (tx *stagedTx) allowance(key AllowanceKey) uint256.Int {
	if amount, ok := tx.allowances[key]; ok {
		return amount
	}
	return tx.base.allowances[key]
}

func (tx *stagedTx) setAllowance(key AllowanceKey, amount uint256.Int) {
	if _, ok := tx.allowances[key]; !ok {
		tx.allowanceOrder = append(tx.allowanceOrder, key)
	}
	tx.allowances[key] = amount
}

func (tx *stagedTx) emit(event Event) {
	event.Height = tx.height
	tx.events = append(tx.events, event)
}

func (tx *stagedTx) credit(addr Address, amount *uint256.Int) error {
	account := tx.account(addr)
	if _, overflow := account.Balance.AddOverflow(&account.Balance, amount); overflow {
		return overflowError("core: balance overflow")
	}
	tx.putAccount(account)
	return nil
}

func (tx *stagedTx) debitUnreserved(addr Address, amount *uint256.Int) error {
	account := tx.account(addr)
	available := account.Unreserved()
	if available.Lt(amount) {
		return insufficientUnreservedError(addr, amount, &available)
	}
	account.Balance.Sub(&account.Balance, amount)
	tx.putAccount(account)
	return nil
}

func (tx *stagedTx) lockFunds(addr Address, amount *uint256.Int) error {
	account := tx.account(addr)
	available := account.Unreserved()
	if available.Lt(amount) {
		return insufficientUnreservedError(addr, amount, &available)
	}
	account.Reserved.Add(&account.Reserved, amount)
	tx.putAccount(account)
	return nil
}

func (tx *stagedTx) releaseFunds(addr Address, amount *uint256.Int) error {
	account := tx.account(addr)
	if account.Reserved.Lt(amount) {
		return underflowError("core: reserved balance underflow", map[string]any{
			"owner":    addr.Hex(),
			"reserved": account.Reserved.Dec(),
			"release":  amount.Dec(),
		})
	}
	account.Reserved.Sub(&account.Reserved, amount)
	tx.putAccount(account)
	return nil
}

// move transfers unreserved funds and emits Transfer.
func (tx *stagedTx) move(from, to Address, amount *uint256.Int) error {
	if err := requireParties(from, to); err != nil {
		return err
	}
	if err := tx.debitUnreserved(from, amount); err != nil {
		return err
	}
	if err := tx.credit(to, amount); err != nil {
		return err
	}
	tx.emit(Event{Type: EventTransfer, From: from, To: to, Amount: *amount})
	return nil
}

func (tx *stagedTx) mintTo(to Address, amount *uint256.Int) error {
	if _, overflow := tx.totalSupply.AddOverflow(&tx.totalSupply, amount); overflow {
		return overflowError("core: total supply overflow")
	}
	if err := tx.credit(to, amount); err != nil {
		return err
	}
	tx.emit(Event{Type: EventMint, To: to, Amount: *amount})
	tx.emit(Event{Type: EventTransfer, From: ZeroAddress, To: to, Amount: *amount})
	return nil
}

func (tx *stagedTx) burnFrom(from Address, amount *uint256.Int) error {
	if err := tx.debitUnreserved(from, amount); err != nil {
		return err
	}
	if _, underflow := tx.totalSupply.SubOverflow(&tx.totalSupply, amount); underflow {
		return underflowError("core: total supply underflow", nil)
	}
	tx.emit(Event{Type: EventBurnt, From: from, Amount: *amount})
	tx.emit(Event{Type: EventTransfer, From: from, To: ZeroAddress, Amount: *amount})
	return nil
}

func (tx *stagedTx) changeSet(sequence uint64) ChangeSet {
	out := ChangeSet{
		Sequence:    sequence,
		Operation:   tx.operation,
		Height:      tx.height,
		TotalSupply: tx.totalSupply,
		Events:      append([]Event(nil), tx.events...),
		Roles:       append([]RoleChange(nil), tx.roleOrder...),
		Nonces:      append([]NonceUse(nil), tx.nonceOrder...),
	}
	for _, addr := range tx.accountOrder {
		out.Accounts = append(out.Accounts, tx.accounts[addr])
	}
	for _, key := range tx.reservationOrder {
		out.Reservations = append(out.Reservations, tx.reservations[key])
	}
	for _, key := range tx.allowanceOrder {
		out.Allowances = append(out.Allowances, Allowance{Owner: key.Owner, Spender: key.Spender, Amount: tx.allowances[key]})
	}
	return out
}
