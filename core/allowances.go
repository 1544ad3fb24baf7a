package core

import (
	"context"
	"time"

	"github.com/holiman/uint256"
)

func (l *Ledger) Allowance(owner, spender Address) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return amountPtr(l.state.allowances[AllowanceKey{Owner: owner, Spender: spender}])
}

// Approve sets the amount spender may move out of owner's unreserved balance.
func (l *Ledger) Approve(ctx context.Context, owner, spender Address, amount *uint256.Int) (receipt Receipt, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"owner":   owner.Hex(),
		"spender": spender.Hex(),
	}
	defer func() {
		l.observeOperation(ctx, startedAt, "approve", err, fields)
	}()

	value, err := requireAmount("amount", amount)
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	fields["amount"] = value.Dec()
	changes, err := l.commit(ctx, "approve", func(_ context.Context, tx *stagedTx) error {
		if owner == ZeroAddress || spender == ZeroAddress {
			return badInputError("core: approve with the zero address", nil)
		}
		tx.setAllowance(AllowanceKey{Owner: owner, Spender: spender}, value)
		tx.emit(Event{Type: EventApproval, From: owner, To: spender, Amount: value})
		return nil
	})
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	return receiptFrom(changes), nil
}

// TransferFrom moves amount from from to to using spender's allowance. A
// maximum allowance is never decremented.
func (l *Ledger) TransferFrom(ctx context.Context, spender, from, to Address, amount *uint256.Int) (receipt Receipt, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"spender": spender.Hex(),
		"from":    from.Hex(),
		"to":      to.Hex(),
	}
	defer func() {
		l.observeOperation(ctx, startedAt, "transfer_from", err, fields)
	}()

	value, err := requireAmount("amount", amount)
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	fields["amount"] = value.Dec()
	changes, err := l.commit(ctx, "transfer_from", func(_ context.Context, tx *stagedTx) error {
		key := AllowanceKey{Owner: from, Spender: spender}
		allowance := tx.allowance(key)
		if allowance.Lt(&value) {
			return insufficientAllowanceError(key)
		}
		if err := tx.move(from, to, &value); err != nil {
			return err
		}
		if allowance.Eq(MaxAmount()) {
			return nil
		}
		allowance.Sub(&allowance, &value)
		tx.setAllowance(key, allowance)
		tx.emit(Event{Type: EventApproval, From: from, To: spender, Amount: allowance})
		return nil
	})
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	return receiptFrom(changes), nil
}
