package sqlstore

import (
	"fmt"

	"github.com/goliatone/go-ledger/core"
	persistence "github.com/goliatone/go-persistence-bun"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type RepositoryFactory struct {
	db *bun.DB

	journalStore *JournalStore
	eventStore   *EventStore
	accountStore *AccountStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.journalStore != nil && f.eventStore != nil && f.accountStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) StateJournal() core.StateJournal {
	if f == nil || f.journalStore == nil {
		return nil
	}
	return f.journalStore
}

func (f *RepositoryFactory) SnapshotLoader() core.SnapshotLoader {
	if f == nil || f.journalStore == nil {
		return nil
	}
	return f.journalStore
}

func (f *RepositoryFactory) JournalStore() *JournalStore {
	if f == nil {
		return nil
	}
	return f.journalStore
}

func (f *RepositoryFactory) EventStore() *EventStore {
	if f == nil {
		return nil
	}
	return f.eventStore
}

func (f *RepositoryFactory) AccountStore() *AccountStore {
	if f == nil {
		return nil
	}
	return f.accountStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	commits, err := newValidatedRepository(f.db, "commit", commitHandlers())
	if err != nil {
		return err
	}
	accounts, err := newValidatedRepository(f.db, "account", accountHandlers())
	if err != nil {
		return err
	}
	reservations, err := newValidatedRepository(f.db, "reservation", reservationHandlers())
	if err != nil {
		return err
	}
	nonces, err := newValidatedRepository(f.db, "nonce", nonceHandlers())
	if err != nil {
		return err
	}
	roles, err := newValidatedRepository(f.db, "role member", roleMemberHandlers())
	if err != nil {
		return err
	}
	allowances, err := newValidatedRepository(f.db, "allowance", allowanceHandlers())
	if err != nil {
		return err
	}
	events, err := newValidatedRepository(f.db, "event", eventHandlers())
	if err != nil {
		return err
	}

	f.journalStore = &JournalStore{
		db:           f.db,
		commits:      commits,
		accounts:     accounts,
		reservations: reservations,
		nonces:       nonces,
		roles:        roles,
		allowances:   allowances,
		events:       events,
	}
	f.eventStore = &EventStore{repo: events}
	f.accountStore = &AccountStore{repo: accounts}
	return nil
}

func newValidatedRepository[T any](db *bun.DB, label string, handlers repository.ModelHandlers[T]) (repository.Repository[T], error) {
	repo := repository.NewRepository[T](db, handlers)
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid %s repository wiring: %w", label, err)
		}
	}
	return repo, nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
