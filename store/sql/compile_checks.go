package sqlstore

import "github.com/goliatone/go-ledger/core"

var (
	_ core.StateJournal           = (*JournalStore)(nil)
	_ core.SnapshotLoader         = (*JournalStore)(nil)
	_ core.EventReader            = (*EventStore)(nil)
	_ core.CommitHook             = (*CachedAccountReader)(nil)
	_ AccountReader               = (*AccountStore)(nil)
	_ AccountReader               = (*CachedAccountReader)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
