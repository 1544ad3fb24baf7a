package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ LedgerService   = (*Ledger)(nil)
	_ HeightSource    = (*ManualHeightSource)(nil)
	_ MetricsRecorder = NopMetricsRecorder{}
	_ CommitHook      = CommitHookFunc{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
