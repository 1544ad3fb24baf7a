package relay

import (
	"github.com/goliatone/go-ledger/core"
	"github.com/goliatone/go-ledger/ratelimit"
)

var (
	_ Service      = (*core.Ledger)(nil)
	_ NonceChecker = (*core.Ledger)(nil)
	_ Throttle     = (*ratelimit.AdaptivePolicy)(nil)
	_ Settler      = (*Submitter)(nil)
)
