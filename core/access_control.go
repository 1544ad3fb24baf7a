package core

import (
	"context"
	"time"
)

func (l *Ledger) HasRole(role Role, account Address) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.hasRole(role, account)
}

// RoleMembers lists members sorted by address.
func (l *Ledger) RoleMembers(role Role) []Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.members(role)
}

// GrantRole adds account to role. Admin only; granting an existing member is
// a no-op that still commits.
func (l *Ledger) GrantRole(ctx context.Context, caller Address, role Role, account Address) (receipt Receipt, err error) {
	return l.changeRole(ctx, "grant_role", caller, role, account, true)
}

// RevokeRole removes account from role. Removing the last member is allowed.
func (l *Ledger) RevokeRole(ctx context.Context, caller Address, role Role, account Address) (receipt Receipt, err error) {
	return l.changeRole(ctx, "revoke_role", caller, role, account, false)
}

// RenounceRole lets caller drop its own membership without admin rights.
func (l *Ledger) RenounceRole(ctx context.Context, caller Address, role Role) (receipt Receipt, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"caller": caller.Hex(),
		"role":   string(role),
	}
	defer func() {
		l.observeOperation(ctx, startedAt, "renounce_role", err, fields)
	}()

	if !role.Valid() {
		err = l.mapError(badInputError("core: unknown role", map[string]any{"role": string(role)}))
		return Receipt{}, err
	}
	changes, err := l.commit(ctx, "renounce_role", func(_ context.Context, tx *stagedTx) error {
		if tx.setRole(role, caller, false) {
			tx.emit(Event{Type: EventRoleRevoked, From: caller, Operator: caller, Role: role})
		}
		return nil
	})
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	return receiptFrom(changes), nil
}

func (l *Ledger) changeRole(
	ctx context.Context,
	operation string,
	caller Address,
	role Role,
	account Address,
	granted bool,
) (receipt Receipt, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"caller":  caller.Hex(),
		"role":    string(role),
		"account": account.Hex(),
	}
	defer func() {
		l.observeOperation(ctx, startedAt, operation, err, fields)
	}()

	if !role.Valid() {
		err = l.mapError(badInputError("core: unknown role", map[string]any{"role": string(role)}))
		return Receipt{}, err
	}
	changes, err := l.commit(ctx, operation, func(_ context.Context, tx *stagedTx) error {
		if !tx.hasRole(RoleAdmin, caller) {
			return unauthorizedError("core: caller is not a role admin", map[string]any{
				"caller": caller.Hex(),
				"role":   string(RoleAdmin),
			})
		}
		if !tx.setRole(role, account, granted) {
			return nil
		}
		if granted {
			tx.emit(Event{Type: EventRoleGranted, To: account, Operator: caller, Role: role})
		} else {
			tx.emit(Event{Type: EventRoleRevoked, From: account, Operator: caller, Role: role})
		}
		return nil
	})
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	return receiptFrom(changes), nil
}
