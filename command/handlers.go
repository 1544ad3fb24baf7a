package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-ledger/core"
	"github.com/holiman/uint256"
)

type MutatingService interface {
	Mint(ctx context.Context, caller, to core.Address, amount *uint256.Int) (core.Receipt, error)
	Burn(ctx context.Context, caller, from core.Address, amount *uint256.Int) (core.Receipt, error)
	Transfer(ctx context.Context, from, to core.Address, amount *uint256.Int) (core.Receipt, error)
	Approve(ctx context.Context, owner, spender core.Address, amount *uint256.Int) (core.Receipt, error)
	TransferFrom(ctx context.Context, spender, from, to core.Address, amount *uint256.Int) (core.Receipt, error)
	GrantRole(ctx context.Context, caller core.Address, role core.Role, account core.Address) (core.Receipt, error)
	RevokeRole(ctx context.Context, caller core.Address, role core.Role, account core.Address) (core.Receipt, error)
	RenounceRole(ctx context.Context, caller core.Address, role core.Role) (core.Receipt, error)
	Reserve(ctx context.Context, req core.ReserveRequest) (core.Reservation, error)
	Execute(ctx context.Context, caller, owner core.Address, nonce *uint256.Int) (core.Receipt, error)
	Reclaim(ctx context.Context, caller, owner core.Address, nonce *uint256.Int) (core.Receipt, error)
	MetaTransfer(ctx context.Context, req core.MetaTransferRequest) (core.Receipt, error)
	MetaMint(ctx context.Context, req core.MetaMintRequest) (core.Receipt, error)
	MetaBurn(ctx context.Context, req core.MetaBurnRequest) (core.Receipt, error)
	WrapperMint(ctx context.Context, caller core.Address, amount *uint256.Int) (core.Receipt, error)
	WrapperBurn(ctx context.Context, caller core.Address, amount *uint256.Int) (core.Receipt, error)
}

type MintCommand struct {
	service MutatingService
}

func NewMintCommand(service MutatingService) *MintCommand {
	return &MintCommand{service: service}
}

func (c *MintCommand) Execute(ctx context.Context, msg MintMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: mint service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.Mint(ctx, msg.Caller, msg.To, msg.Amount)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type BurnCommand struct {
	service MutatingService
}

func NewBurnCommand(service MutatingService) *BurnCommand {
	return &BurnCommand{service: service}
}

func (c *BurnCommand) Execute(ctx context.Context, msg BurnMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: burn service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.Burn(ctx, msg.Caller, msg.From, msg.Amount)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type TransferCommand struct {
	service MutatingService
}

func NewTransferCommand(service MutatingService) *TransferCommand {
	return &TransferCommand{service: service}
}

func (c *TransferCommand) Execute(ctx context.Context, msg TransferMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: transfer service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.Transfer(ctx, msg.From, msg.To, msg.Amount)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ApproveCommand struct {
	service MutatingService
}

func NewApproveCommand(service MutatingService) *ApproveCommand {
	return &ApproveCommand{service: service}
}

func (c *ApproveCommand) Execute(ctx context.Context, msg ApproveMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: approve service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.Approve(ctx, msg.Owner, msg.Spender, msg.Amount)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type TransferFromCommand struct {
	service MutatingService
}

func NewTransferFromCommand(service MutatingService) *TransferFromCommand {
	return &TransferFromCommand{service: service}
}

func (c *TransferFromCommand) Execute(ctx context.Context, msg TransferFromMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: transfer-from service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.TransferFrom(ctx, msg.Spender, msg.From, msg.To, msg.Amount)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type GrantRoleCommand struct {
	service MutatingService
}

func NewGrantRoleCommand(service MutatingService) *GrantRoleCommand {
	return &GrantRoleCommand{service: service}
}

func (c *GrantRoleCommand) Execute(ctx context.Context, msg GrantRoleMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: grant role service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.GrantRole(ctx, msg.Caller, msg.Role, msg.Account)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RevokeRoleCommand struct {
	service MutatingService
}

func NewRevokeRoleCommand(service MutatingService) *RevokeRoleCommand {
	return &RevokeRoleCommand{service: service}
}

func (c *RevokeRoleCommand) Execute(ctx context.Context, msg RevokeRoleMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: revoke role service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.RevokeRole(ctx, msg.Caller, msg.Role, msg.Account)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RenounceRoleCommand struct {
	service MutatingService
}

func NewRenounceRoleCommand(service MutatingService) *RenounceRoleCommand {
	return &RenounceRoleCommand{service: service}
}

func (c *RenounceRoleCommand) Execute(ctx context.Context, msg RenounceRoleMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: renounce role service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.RenounceRole(ctx, msg.Caller, msg.Role)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ReserveCommand struct {
	service MutatingService
}

func NewReserveCommand(service MutatingService) *ReserveCommand {
	return &ReserveCommand{service: service}
}

func (c *ReserveCommand) Execute(ctx context.Context, msg ReserveMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: reserve service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.Reserve(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ExecuteCommand struct {
	service MutatingService
}

func NewExecuteCommand(service MutatingService) *ExecuteCommand {
	return &ExecuteCommand{service: service}
}

func (c *ExecuteCommand) Execute(ctx context.Context, msg ExecuteMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: execute service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.Execute(ctx, msg.Caller, msg.Owner, msg.Nonce)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ReclaimCommand struct {
	service MutatingService
}

func NewReclaimCommand(service MutatingService) *ReclaimCommand {
	return &ReclaimCommand{service: service}
}

func (c *ReclaimCommand) Execute(ctx context.Context, msg ReclaimMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: reclaim service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.Reclaim(ctx, msg.Caller, msg.Owner, msg.Nonce)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type MetaTransferCommand struct {
	service MutatingService
}

func NewMetaTransferCommand(service MutatingService) *MetaTransferCommand {
	return &MetaTransferCommand{service: service}
}

func (c *MetaTransferCommand) Execute(ctx context.Context, msg MetaTransferMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: meta transfer service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.MetaTransfer(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type MetaMintCommand struct {
	service MutatingService
}

func NewMetaMintCommand(service MutatingService) *MetaMintCommand {
	return &MetaMintCommand{service: service}
}

func (c *MetaMintCommand) Execute(ctx context.Context, msg MetaMintMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: meta mint service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.MetaMint(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type MetaBurnCommand struct {
	service MutatingService
}

func NewMetaBurnCommand(service MutatingService) *MetaBurnCommand {
	return &MetaBurnCommand{service: service}
}

func (c *MetaBurnCommand) Execute(ctx context.Context, msg MetaBurnMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: meta burn service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.MetaBurn(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type WrapperMintCommand struct {
	service MutatingService
}

func NewWrapperMintCommand(service MutatingService) *WrapperMintCommand {
	return &WrapperMintCommand{service: service}
}

func (c *WrapperMintCommand) Execute(ctx context.Context, msg WrapperMintMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: wrapper mint service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.WrapperMint(ctx, msg.Caller, msg.Amount)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type WrapperBurnCommand struct {
	service MutatingService
}

func NewWrapperBurnCommand(service MutatingService) *WrapperBurnCommand {
	return &WrapperBurnCommand{service: service}
}

func (c *WrapperBurnCommand) Execute(ctx context.Context, msg WrapperBurnMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: wrapper burn service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.service.WrapperBurn(ctx, msg.Caller, msg.Amount)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
