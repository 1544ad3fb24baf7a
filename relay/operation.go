package relay

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/goliatone/go-ledger/adapters/gojob"
	"github.com/goliatone/go-ledger/core"
	"github.com/holiman/uint256"
)

const (
	paramOperation    = "operation"
	paramOwner        = "owner"
	paramRecipient    = "recipient"
	paramExecutor     = "executor"
	paramAmount       = "amount"
	paramFee          = "fee"
	paramNonce        = "nonce"
	paramExpiryHeight = "expiry_height"
	paramSignature    = "signature"

	// DedupPolicyDrop asks the queue to drop a second message with the same
	// idempotency key.
	DedupPolicyDrop = "drop"
)

// Operation is an owner-signed ETHless operation waiting to be relayed.
type Operation struct {
	Kind         core.SignedOperation
	Owner        core.Address
	Recipient    core.Address
	Executor     core.Address
	Amount       *uint256.Int
	Fee          *uint256.Int
	Nonce        *uint256.Int
	ExpiryHeight uint64
	Signature    []byte
}

func (o Operation) Validate() error {
	switch o.Kind {
	case core.SignedTransfer, core.SignedReserve, core.SignedMint, core.SignedBurn:
	default:
		return relayValidationError(paramOperation, fmt.Sprintf("operation %q is not relayable", o.Kind))
	}
	if o.Owner == core.ZeroAddress {
		return relayValidationError(paramOwner, "owner address is required")
	}
	if o.Kind == core.SignedTransfer || o.Kind == core.SignedReserve {
		if o.Recipient == core.ZeroAddress {
			return relayValidationError(paramRecipient, "recipient address is required")
		}
	}
	if o.Kind == core.SignedReserve {
		if o.Executor == core.ZeroAddress {
			return relayValidationError(paramExecutor, "executor address is required")
		}
		if o.ExpiryHeight == 0 {
			return relayValidationError(paramExpiryHeight, "expiry height is required")
		}
	}
	if o.Amount == nil {
		return relayValidationError(paramAmount, "amount is required")
	}
	if o.Fee == nil {
		return relayValidationError(paramFee, "fee is required")
	}
	if o.Nonce == nil {
		return relayValidationError(paramNonce, "nonce is required")
	}
	if len(o.Signature) != 65 {
		return relayValidationError(paramSignature, "signature must be 65 bytes")
	}
	return nil
}

// JobID maps the operation kind to its relay job id.
func (o Operation) JobID() string {
	return gojob.JobIDFor(o.Kind)
}

// IdempotencyKey is <owner>:<namespace>:<nonce>, the same triple the ledger
// uses for replay protection.
func (o Operation) IdempotencyKey() string {
	nonce := "0"
	if o.Nonce != nil {
		nonce = o.Nonce.Dec()
	}
	return strings.ToLower(o.Owner.Hex()) + ":" + string(o.Kind.Namespace()) + ":" + nonce
}

// Encode turns the operation into a queue message. Every parameter is a
// string so the message survives JSON backed queues unchanged.
func (o Operation) Encode() (*core.JobExecutionMessage, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	params := map[string]any{
		paramOperation: string(o.Kind),
		paramOwner:     o.Owner.Hex(),
		paramAmount:    o.Amount.Dec(),
		paramFee:       o.Fee.Dec(),
		paramNonce:     o.Nonce.Dec(),
		paramSignature: hexutil.Encode(o.Signature),
	}
	if o.Recipient != core.ZeroAddress {
		params[paramRecipient] = o.Recipient.Hex()
	}
	if o.Kind == core.SignedReserve {
		params[paramExecutor] = o.Executor.Hex()
		params[paramExpiryHeight] = strconv.FormatUint(o.ExpiryHeight, 10)
	}
	return &core.JobExecutionMessage{
		JobID:          o.JobID(),
		ScriptPath:     o.JobID(),
		Parameters:     params,
		IdempotencyKey: o.IdempotencyKey(),
		DedupPolicy:    DedupPolicyDrop,
	}, nil
}

// DecodeOperation rebuilds an operation from a queue message.
func DecodeOperation(msg *core.JobExecutionMessage) (Operation, error) {
	if msg == nil {
		return Operation{}, relayValidationError("message", "execution message is required")
	}
	params := msg.Parameters
	kind, err := stringParam(params, paramOperation, true)
	if err != nil {
		return Operation{}, err
	}
	op := Operation{Kind: core.SignedOperation(kind)}
	if op.JobID() != strings.TrimSpace(msg.JobID) {
		return Operation{}, relayValidationError(paramOperation, fmt.Sprintf("operation %q does not match job %q", kind, msg.JobID))
	}
	if op.Owner, err = addressParam(params, paramOwner, true); err != nil {
		return Operation{}, err
	}
	if op.Recipient, err = addressParam(params, paramRecipient, false); err != nil {
		return Operation{}, err
	}
	if op.Executor, err = addressParam(params, paramExecutor, false); err != nil {
		return Operation{}, err
	}
	if op.Amount, err = amountParam(params, paramAmount); err != nil {
		return Operation{}, err
	}
	if op.Fee, err = amountParam(params, paramFee); err != nil {
		return Operation{}, err
	}
	if op.Nonce, err = amountParam(params, paramNonce); err != nil {
		return Operation{}, err
	}
	if raw, err := stringParam(params, paramExpiryHeight, false); err != nil {
		return Operation{}, err
	} else if raw != "" {
		height, parseErr := strconv.ParseUint(raw, 10, 64)
		if parseErr != nil {
			return Operation{}, relayValidationError(paramExpiryHeight, "expiry height must be a decimal integer")
		}
		op.ExpiryHeight = height
	}
	rawSig, err := stringParam(params, paramSignature, true)
	if err != nil {
		return Operation{}, err
	}
	if op.Signature, err = hexutil.Decode(rawSig); err != nil {
		return Operation{}, relayValidationError(paramSignature, "signature must be 0x-prefixed hex")
	}
	if err := op.Validate(); err != nil {
		return Operation{}, err
	}
	return op, nil
}

func stringParam(params map[string]any, key string, required bool) (string, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		if required {
			return "", relayValidationError(key, key+" is required")
		}
		return "", nil
	}
	value, ok := raw.(string)
	if !ok {
		return "", relayValidationError(key, key+" must be a string")
	}
	value = strings.TrimSpace(value)
	if value == "" && required {
		return "", relayValidationError(key, key+" is required")
	}
	return value, nil
}

func addressParam(params map[string]any, key string, required bool) (core.Address, error) {
	raw, err := stringParam(params, key, required)
	if err != nil || raw == "" {
		return core.ZeroAddress, err
	}
	if !common.IsHexAddress(raw) {
		return core.ZeroAddress, relayValidationError(key, key+" must be a hex address")
	}
	return common.HexToAddress(raw), nil
}

func amountParam(params map[string]any, key string) (*uint256.Int, error) {
	raw, err := stringParam(params, key, true)
	if err != nil {
		return nil, err
	}
	value, err := uint256.FromDecimal(raw)
	if err != nil {
		return nil, relayValidationError(key, key+" must be a decimal uint256")
	}
	return value, nil
}
