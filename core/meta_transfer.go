package core

import (
	"context"
	"time"

	"github.com/holiman/uint256"
)

// MetaTransferRequest is an ETHless transfer relayed by Submitter on behalf
// of Owner.
type MetaTransferRequest struct {
	Submitter Address
	Owner     Address
	Recipient Address
	Amount    *uint256.Int
	Fee       *uint256.Int
	Nonce     *uint256.Int
	Signature []byte
}

// MetaMintRequest is an ETHless mint of Amount to Owner. Owner must be a
// controller and Submitter a relayer.
type MetaMintRequest struct {
	Submitter Address
	Owner     Address
	Amount    *uint256.Int
	Fee       *uint256.Int
	Nonce     *uint256.Int
	Signature []byte
}

// MetaBurnRequest is an ETHless burn of Amount from Owner. Owner must be a
// controller and Submitter a relayer.
type MetaBurnRequest struct {
	Submitter Address
	Owner     Address
	Amount    *uint256.Int
	Fee       *uint256.Int
	Nonce     *uint256.Int
	Signature []byte
}

type signedOperands struct {
	amount uint256.Int
	fee    uint256.Int
	nonce  uint256.Int
	total  uint256.Int
}

func resolveOperands(amount, fee, nonce *uint256.Int) (signedOperands, error) {
	var out signedOperands
	var err error
	if out.amount, err = requireAmount("amount", amount); err != nil {
		return signedOperands{}, err
	}
	if out.fee, err = requireAmount("fee", fee); err != nil {
		return signedOperands{}, err
	}
	if out.nonce, err = requireAmount("nonce", nonce); err != nil {
		return signedOperands{}, err
	}
	if _, overflow := out.total.AddOverflow(&out.amount, &out.fee); overflow {
		return signedOperands{}, overflowError("core: amount plus fee overflows")
	}
	return out, nil
}

// feeRecipient resolves who collects a fee under the configured policy.
// beneficiary is the executor or submitter of the operation.
func (l *Ledger) feeRecipient(beneficiary Address) Address {
	if l.config.FeePolicy() == FeePolicySink {
		return l.config.FeeSink()
	}
	return beneficiary
}

func (l *Ledger) MetaTransfer(ctx context.Context, req MetaTransferRequest) (receipt Receipt, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"submitter": req.Submitter.Hex(),
		"owner":     req.Owner.Hex(),
		"recipient": req.Recipient.Hex(),
	}
	defer func() {
		l.observeOperation(ctx, startedAt, "meta_transfer", err, fields)
	}()

	operands, err := resolveOperands(req.Amount, req.Fee, req.Nonce)
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	fields["amount"] = operands.amount.Dec()
	fields["fee"] = operands.fee.Dec()
	fields["nonce"] = operands.nonce.Dec()

	msg := SignedMessage{
		Operation: SignedTransfer,
		Ledger:    l.LedgerAddress(),
		Sender:    req.Owner,
		Recipient: req.Recipient,
		Amount:    operands.amount,
		Fee:       operands.fee,
		Nonce:     operands.nonce,
	}
	if err = VerifySigner(msg, req.Signature, req.Owner); err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}

	changes, err := l.commit(ctx, "meta_transfer", func(_ context.Context, tx *stagedTx) error {
		if err := requireParties(req.Owner, req.Recipient); err != nil {
			return err
		}
		if err := requireUnreserved(tx, req.Owner, &operands.total); err != nil {
			return err
		}
		if err := tx.consumeNonce(NonceUse{Signer: req.Owner, Namespace: NonceNamespaceTransfer, Nonce: operands.nonce}); err != nil {
			return err
		}
		if err := tx.move(req.Owner, req.Recipient, &operands.amount); err != nil {
			return err
		}
		return tx.move(req.Owner, l.feeRecipient(req.Submitter), &operands.fee)
	})
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	return receiptFrom(changes), nil
}

func (l *Ledger) MetaMint(ctx context.Context, req MetaMintRequest) (receipt Receipt, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"submitter": req.Submitter.Hex(),
		"owner":     req.Owner.Hex(),
	}
	defer func() {
		l.observeOperation(ctx, startedAt, "meta_mint", err, fields)
	}()

	operands, err := resolveOperands(req.Amount, req.Fee, req.Nonce)
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	fields["amount"] = operands.amount.Dec()
	fields["fee"] = operands.fee.Dec()
	fields["nonce"] = operands.nonce.Dec()

	msg := SignedMessage{
		Operation: SignedMint,
		Ledger:    l.LedgerAddress(),
		Sender:    req.Owner,
		Amount:    operands.amount,
		Fee:       operands.fee,
		Nonce:     operands.nonce,
	}
	if err = VerifySigner(msg, req.Signature, req.Owner); err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}

	changes, err := l.commit(ctx, "meta_mint", func(_ context.Context, tx *stagedTx) error {
		if err := requireRelayer(tx, req.Submitter); err != nil {
			return err
		}
		if !tx.hasRole(RoleController, req.Owner) {
			return controllerRequiredError(req.Owner)
		}
		if err := tx.consumeNonce(NonceUse{Signer: req.Owner, Namespace: NonceNamespaceMint, Nonce: operands.nonce}); err != nil {
			return err
		}
		if err := tx.mintTo(req.Owner, &operands.amount); err != nil {
			return err
		}
		return tx.move(req.Owner, l.feeRecipient(req.Submitter), &operands.fee)
	})
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	return receiptFrom(changes), nil
}

func (l *Ledger) MetaBurn(ctx context.Context, req MetaBurnRequest) (receipt Receipt, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"submitter": req.Submitter.Hex(),
		"owner":     req.Owner.Hex(),
	}
	defer func() {
		l.observeOperation(ctx, startedAt, "meta_burn", err, fields)
	}()

	operands, err := resolveOperands(req.Amount, req.Fee, req.Nonce)
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	fields["amount"] = operands.amount.Dec()
	fields["fee"] = operands.fee.Dec()
	fields["nonce"] = operands.nonce.Dec()

	msg := SignedMessage{
		Operation: SignedBurn,
		Ledger:    l.LedgerAddress(),
		Sender:    req.Owner,
		Amount:    operands.amount,
		Fee:       operands.fee,
		Nonce:     operands.nonce,
	}
	if err = VerifySigner(msg, req.Signature, req.Owner); err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}

	changes, err := l.commit(ctx, "meta_burn", func(_ context.Context, tx *stagedTx) error {
		if err := requireRelayer(tx, req.Submitter); err != nil {
			return err
		}
		if !tx.hasRole(RoleController, req.Owner) {
			return controllerRequiredError(req.Owner)
		}
		if err := requireUnreserved(tx, req.Owner, &operands.total); err != nil {
			return err
		}
		if err := tx.consumeNonce(NonceUse{Signer: req.Owner, Namespace: NonceNamespaceBurn, Nonce: operands.nonce}); err != nil {
			return err
		}
		if err := tx.move(req.Owner, l.feeRecipient(req.Submitter), &operands.fee); err != nil {
			return err
		}
		return tx.burnFrom(req.Owner, &operands.amount)
	})
	if err != nil {
		err = l.mapError(err)
		return Receipt{}, err
	}
	return receiptFrom(changes), nil
}

func requireRelayer(tx *stagedTx, submitter Address) error {
	if tx.hasRole(RoleRelayer, submitter) {
		return nil
	}
	return unauthorizedError("core: submitter is not a relayer", map[string]any{
		"submitter": submitter.Hex(),
		"role":      string(RoleRelayer),
	})
}

func requireUnreserved(tx *stagedTx, owner Address, required *uint256.Int) error {
	account := tx.account(owner)
	available := account.Unreserved()
	if available.Lt(required) {
		return insufficientUnreservedError(owner, required, &available)
	}
	return nil
}
