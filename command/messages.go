package command

import (
	"github.com/goliatone/go-ledger/core"
	"github.com/holiman/uint256"
)

const (
	TypeMint         = "ledger.command.mint"
	TypeBurn         = "ledger.command.burn"
	TypeTransfer     = "ledger.command.transfer"
	TypeApprove      = "ledger.command.approve"
	TypeTransferFrom = "ledger.command.transfer_from"
	TypeGrantRole    = "ledger.command.role.grant"
	TypeRevokeRole   = "ledger.command.role.revoke"
	TypeRenounceRole = "ledger.command.role.renounce"
	TypeReserve      = "ledger.command.reservation.reserve"
	TypeExecute      = "ledger.command.reservation.execute"
	TypeReclaim      = "ledger.command.reservation.reclaim"
	TypeMetaTransfer = "ledger.command.meta.transfer"
	TypeMetaMint     = "ledger.command.meta.mint"
	TypeMetaBurn     = "ledger.command.meta.burn"
	TypeWrapperMint  = "ledger.command.wrapper.mint"
	TypeWrapperBurn  = "ledger.command.wrapper.burn"
)

type MintMessage struct {
	Caller core.Address
	To     core.Address
	Amount *uint256.Int
}

func (MintMessage) Type() string { return TypeMint }

func (m MintMessage) Validate() error {
	if err := requireAddress("caller", m.Caller); err != nil {
		return err
	}
	return requireValue("amount", m.Amount)
}

type BurnMessage struct {
	Caller core.Address
	From   core.Address
	Amount *uint256.Int
}

func (BurnMessage) Type() string { return TypeBurn }

func (m BurnMessage) Validate() error {
	if err := requireAddress("caller", m.Caller); err != nil {
		return err
	}
	if err := requireAddress("from", m.From); err != nil {
		return err
	}
	return requireValue("amount", m.Amount)
}

type TransferMessage struct {
	From   core.Address
	To     core.Address
	Amount *uint256.Int
}

func (TransferMessage) Type() string { return TypeTransfer }

func (m TransferMessage) Validate() error {
	if err := requireAddress("from", m.From); err != nil {
		return err
	}
	return requireValue("amount", m.Amount)
}

type ApproveMessage struct {
	Owner   core.Address
	Spender core.Address
	Amount  *uint256.Int
}

func (ApproveMessage) Type() string { return TypeApprove }

func (m ApproveMessage) Validate() error {
	if err := requireAddress("owner", m.Owner); err != nil {
		return err
	}
	return requireValue("amount", m.Amount)
}

type TransferFromMessage struct {
	Spender core.Address
	From    core.Address
	To      core.Address
	Amount  *uint256.Int
}

func (TransferFromMessage) Type() string { return TypeTransferFrom }

func (m TransferFromMessage) Validate() error {
	if err := requireAddress("spender", m.Spender); err != nil {
		return err
	}
	if err := requireAddress("from", m.From); err != nil {
		return err
	}
	return requireValue("amount", m.Amount)
}

type GrantRoleMessage struct {
	Caller  core.Address
	Role    core.Role
	Account core.Address
}

func (GrantRoleMessage) Type() string { return TypeGrantRole }

func (m GrantRoleMessage) Validate() error {
	return validateRoleChange(m.Caller, m.Role, m.Account)
}

type RevokeRoleMessage struct {
	Caller  core.Address
	Role    core.Role
	Account core.Address
}

func (RevokeRoleMessage) Type() string { return TypeRevokeRole }

func (m RevokeRoleMessage) Validate() error {
	return validateRoleChange(m.Caller, m.Role, m.Account)
}

type RenounceRoleMessage struct {
	Caller core.Address
	Role   core.Role
}

func (RenounceRoleMessage) Type() string { return TypeRenounceRole }

func (m RenounceRoleMessage) Validate() error {
	if err := requireAddress("caller", m.Caller); err != nil {
		return err
	}
	return requireRole(m.Role)
}

type ReserveMessage struct {
	Request core.ReserveRequest
}

func (ReserveMessage) Type() string { return TypeReserve }

func (m ReserveMessage) Validate() error {
	if err := requireAddress("owner", m.Request.Owner); err != nil {
		return err
	}
	if err := requireSigned(m.Request.Amount, m.Request.Fee, m.Request.Nonce, m.Request.Signature); err != nil {
		return err
	}
	if m.Request.ExpiryHeight == 0 {
		return commandValidationError("expiry_height", "expiry height is required")
	}
	return nil
}

type ExecuteMessage struct {
	Caller core.Address
	Owner  core.Address
	Nonce  *uint256.Int
}

func (ExecuteMessage) Type() string { return TypeExecute }

func (m ExecuteMessage) Validate() error {
	return validateReservationRef(m.Caller, m.Owner, m.Nonce)
}

type ReclaimMessage struct {
	Caller core.Address
	Owner  core.Address
	Nonce  *uint256.Int
}

func (ReclaimMessage) Type() string { return TypeReclaim }

func (m ReclaimMessage) Validate() error {
	return validateReservationRef(m.Caller, m.Owner, m.Nonce)
}

type MetaTransferMessage struct {
	Request core.MetaTransferRequest
}

func (MetaTransferMessage) Type() string { return TypeMetaTransfer }

func (m MetaTransferMessage) Validate() error {
	if err := requireAddress("submitter", m.Request.Submitter); err != nil {
		return err
	}
	if err := requireAddress("owner", m.Request.Owner); err != nil {
		return err
	}
	return requireSigned(m.Request.Amount, m.Request.Fee, m.Request.Nonce, m.Request.Signature)
}

type MetaMintMessage struct {
	Request core.MetaMintRequest
}

func (MetaMintMessage) Type() string { return TypeMetaMint }

func (m MetaMintMessage) Validate() error {
	if err := requireAddress("submitter", m.Request.Submitter); err != nil {
		return err
	}
	if err := requireAddress("owner", m.Request.Owner); err != nil {
		return err
	}
	return requireSigned(m.Request.Amount, m.Request.Fee, m.Request.Nonce, m.Request.Signature)
}

type MetaBurnMessage struct {
	Request core.MetaBurnRequest
}

func (MetaBurnMessage) Type() string { return TypeMetaBurn }

func (m MetaBurnMessage) Validate() error {
	if err := requireAddress("submitter", m.Request.Submitter); err != nil {
		return err
	}
	if err := requireAddress("owner", m.Request.Owner); err != nil {
		return err
	}
	return requireSigned(m.Request.Amount, m.Request.Fee, m.Request.Nonce, m.Request.Signature)
}

type WrapperMintMessage struct {
	Caller core.Address
	Amount *uint256.Int
}

func (WrapperMintMessage) Type() string { return TypeWrapperMint }

func (m WrapperMintMessage) Validate() error {
	if err := requireAddress("caller", m.Caller); err != nil {
		return err
	}
	return requireValue("amount", m.Amount)
}

type WrapperBurnMessage struct {
	Caller core.Address
	Amount *uint256.Int
}

func (WrapperBurnMessage) Type() string { return TypeWrapperBurn }

func (m WrapperBurnMessage) Validate() error {
	if err := requireAddress("caller", m.Caller); err != nil {
		return err
	}
	return requireValue("amount", m.Amount)
}

func requireAddress(field string, value core.Address) error {
	if value == core.ZeroAddress {
		return commandValidationError(field, field+" address is required")
	}
	return nil
}

func requireValue(field string, value *uint256.Int) error {
	if value == nil {
		return commandValidationError(field, field+" is required")
	}
	return nil
}

func requireRole(role core.Role) error {
	if !role.Valid() {
		return commandValidationError("role", "role is not recognized")
	}
	return nil
}

func requireSigned(amount, fee, nonce *uint256.Int, signature []byte) error {
	if err := requireValue("amount", amount); err != nil {
		return err
	}
	if err := requireValue("fee", fee); err != nil {
		return err
	}
	if err := requireValue("nonce", nonce); err != nil {
		return err
	}
	if len(signature) == 0 {
		return commandValidationError("signature", "signature is required")
	}
	return nil
}

func validateRoleChange(caller core.Address, role core.Role, account core.Address) error {
	if err := requireAddress("caller", caller); err != nil {
		return err
	}
	if err := requireRole(role); err != nil {
		return err
	}
	return requireAddress("account", account)
}

func validateReservationRef(caller, owner core.Address, nonce *uint256.Int) error {
	if err := requireAddress("caller", caller); err != nil {
		return err
	}
	if err := requireAddress("owner", owner); err != nil {
		return err
	}
	return requireValue("nonce", nonce)
}
