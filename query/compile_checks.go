package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-ledger/core"
	"github.com/holiman/uint256"
)

var (
	_ LedgerReader = (*core.Ledger)(nil)

	_ gocmd.Querier[TokenInfoMessage, TokenInfo]                 = (*TokenInfoQuery)(nil)
	_ gocmd.Querier[AccountMessage, core.Account]                = (*AccountQuery)(nil)
	_ gocmd.Querier[AllowanceMessage, *uint256.Int]              = (*AllowanceQuery)(nil)
	_ gocmd.Querier[HasRoleMessage, bool]                        = (*HasRoleQuery)(nil)
	_ gocmd.Querier[RoleMembersMessage, []core.Address]          = (*RoleMembersQuery)(nil)
	_ gocmd.Querier[NonceUsedMessage, bool]                      = (*NonceUsedQuery)(nil)
	_ gocmd.Querier[GetReservationMessage, core.Reservation]     = (*GetReservationQuery)(nil)
	_ gocmd.Querier[ListReservationsMessage, []core.Reservation] = (*ListReservationsQuery)(nil)
	_ gocmd.Querier[ListEventsMessage, core.EventPage]           = (*ListEventsQuery)(nil)
)
