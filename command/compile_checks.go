package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-ledger/core"
)

var (
	_ MutatingService = (*core.Ledger)(nil)

	_ gocmd.Commander[MintMessage]         = (*MintCommand)(nil)
	_ gocmd.Commander[BurnMessage]         = (*BurnCommand)(nil)
	_ gocmd.Commander[TransferMessage]     = (*TransferCommand)(nil)
	_ gocmd.Commander[ApproveMessage]      = (*ApproveCommand)(nil)
	_ gocmd.Commander[TransferFromMessage] = (*TransferFromCommand)(nil)
	_ gocmd.Commander[GrantRoleMessage]    = (*GrantRoleCommand)(nil)
	_ gocmd.Commander[RevokeRoleMessage]   = (*RevokeRoleCommand)(nil)
	_ gocmd.Commander[RenounceRoleMessage] = (*RenounceRoleCommand)(nil)
	_ gocmd.Commander[ReserveMessage]      = (*ReserveCommand)(nil)
	_ gocmd.Commander[ExecuteMessage]      = (*ExecuteCommand)(nil)
	_ gocmd.Commander[ReclaimMessage]      = (*ReclaimCommand)(nil)
	_ gocmd.Commander[MetaTransferMessage] = (*MetaTransferCommand)(nil)
	_ gocmd.Commander[MetaMintMessage]     = (*MetaMintCommand)(nil)
	_ gocmd.Commander[MetaBurnMessage]     = (*MetaBurnCommand)(nil)
	_ gocmd.Commander[WrapperMintMessage]  = (*WrapperMintCommand)(nil)
	_ gocmd.Commander[WrapperBurnMessage]  = (*WrapperBurnCommand)(nil)
)
