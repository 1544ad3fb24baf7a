package core

import (
	"context"
	"time"

	"github.com/holiman/uint256"
)

// WrapperMint pulls amount of the base asset from caller into custody and
// credits the same amount. Nothing is credited unless the deposit succeeds.
func (l *Ledger) WrapperMint(ctx context.Context, caller Address, amount *uint256.Int) (receipt Receipt, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"caller": caller.Hex(),
	}
	defer func() {
		l.observeOperation(ctx, startedAt, "wrapper_mint", err, fields)
	}()

	value, err := l.requireCustody(amount)
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	fields["amount"] = value.Dec()
	fields["asset"] = l.custodian.Asset().Hex()

	changes, err := l.commit(ctx, "wrapper_mint", func(ctx context.Context, tx *stagedTx) error {
		if caller == ZeroAddress {
			return badInputError("core: mint to the zero address", nil)
		}
		if err := tx.mintTo(caller, &value); err != nil {
			return err
		}
		tx.emit(Event{Type: EventWrapperMint, To: caller, Operator: caller, Amount: value})
		if err := l.custodian.Deposit(ctx, caller, amountPtr(value)); err != nil {
			return custodyError(err, map[string]any{
				"operation": "deposit",
				"caller":    caller.Hex(),
				"amount":    value.Dec(),
			})
		}
		return nil
	})
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	return receiptFrom(changes), nil
}

// WrapperBurn debits amount from caller and releases the same amount of the
// base asset. A failed release discards the debit.
func (l *Ledger) WrapperBurn(ctx context.Context, caller Address, amount *uint256.Int) (receipt Receipt, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"caller": caller.Hex(),
	}
	defer func() {
		l.observeOperation(ctx, startedAt, "wrapper_burn", err, fields)
	}()

	value, err := l.requireCustody(amount)
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	fields["amount"] = value.Dec()
	fields["asset"] = l.custodian.Asset().Hex()

	changes, err := l.commit(ctx, "wrapper_burn", func(ctx context.Context, tx *stagedTx) error {
		if err := tx.burnFrom(caller, &value); err != nil {
			return err
		}
		tx.emit(Event{Type: EventWrapperBurn, From: caller, Operator: caller, Amount: value})
		if err := l.custodian.Release(ctx, caller, amountPtr(value)); err != nil {
			return custodyError(err, map[string]any{
				"operation": "release",
				"caller":    caller.Hex(),
				"amount":    value.Dec(),
			})
		}
		return nil
	})
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	return receiptFrom(changes), nil
}

func (l *Ledger) requireCustody(amount *uint256.Int) (uint256.Int, error) {
	if l.custodian == nil {
		return uint256.Int{}, badInputError("core: custodian is not configured", nil)
	}
	return requireAmount("amount", amount)
}
