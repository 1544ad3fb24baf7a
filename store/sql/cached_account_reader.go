package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-ledger/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const accountCacheKeyPrefix = "go-ledger::account::v1"

// CachedAccountReader fronts an AccountReader with a go-repository-cache
// service. Register it as a post-commit hook so committed balances evict
// their cache entries.
type CachedAccountReader struct {
	base  AccountReader
	cache repositorycache.CacheService
}

func NewCachedAccountReader(base AccountReader, cacheService repositorycache.CacheService) (*CachedAccountReader, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base account reader is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: account cache service is required")
	}
	return &CachedAccountReader{base: base, cache: cacheService}, nil
}

// AccountCacheKey returns go-ledger::account::v1::<lowercase hex address>.
func AccountCacheKey(address core.Address) string {
	return accountCacheKeyPrefix + "::" + strings.ToLower(address.Hex())
}

func (r *CachedAccountReader) Account(ctx context.Context, address core.Address) (core.Account, error) {
	if r == nil || r.base == nil || r.cache == nil {
		return core.Account{}, fmt.Errorf("sqlstore: cached account reader is not configured")
	}
	return repositorycache.GetOrFetch(ctx, r.cache, AccountCacheKey(address), func(ctx context.Context) (core.Account, error) {
		return r.base.Account(ctx, address)
	})
}

// Invalidate drops the cached entries for the given accounts.
func (r *CachedAccountReader) Invalidate(ctx context.Context, addresses ...core.Address) error {
	if r == nil || r.cache == nil {
		return fmt.Errorf("sqlstore: cached account reader is not configured")
	}
	var errs []error
	for _, address := range addresses {
		if err := r.cache.Delete(ctx, AccountCacheKey(address)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *CachedAccountReader) Name() string {
	return "sqlstore.cached_account_reader"
}

func (r *CachedAccountReader) OnCommit(ctx context.Context, changes core.ChangeSet) error {
	if len(changes.Accounts) == 0 {
		return nil
	}
	addresses := make([]core.Address, 0, len(changes.Accounts))
	for _, account := range changes.Accounts {
		addresses = append(addresses, account.Address)
	}
	return r.Invalidate(ctx, addresses...)
}
