package sqlstore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goliatone/go-ledger/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/holiman/uint256"
)

type stubAccountReader struct {
	mu       sync.Mutex
	accounts map[core.Address]core.Account
	calls    int
	err      error
}

func (s *stubAccountReader) Account(_ context.Context, address core.Address) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return core.Account{}, s.err
	}
	account, ok := s.accounts[address]
	if !ok {
		return core.Account{Address: address}, nil
	}
	return account, nil
}

func (s *stubAccountReader) set(account core.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.Address] = account
}

var cachedHolder = common.HexToAddress("0xFFcf8FDEE72ac11b5c542428B35EEF5769C409f0")

func TestCachedAccountReader_MissFetchThenHit(t *testing.T) {
	base := &stubAccountReader{accounts: map[core.Address]core.Account{
		cachedHolder: {Address: cachedHolder, Balance: *uint256.NewInt(40), Reserved: *uint256.NewInt(4)},
	}}
	reader, err := NewCachedAccountReader(base, newTestAccountCacheService(t))
	if err != nil {
		t.Fatalf("new cached reader: %v", err)
	}

	first, err := reader.Account(context.Background(), cachedHolder)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	if !first.Balance.Eq(uint256.NewInt(40)) {
		t.Fatalf("unexpected balance %s", first.Balance.Dec())
	}
	if _, err := reader.Account(context.Background(), cachedHolder); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if base.calls != 1 {
		t.Fatalf("expected second read to be a cache hit, base calls=%d", base.calls)
	}
}

func TestCachedAccountReader_OnCommitInvalidatesChangedAccounts(t *testing.T) {
	base := &stubAccountReader{accounts: map[core.Address]core.Account{
		cachedHolder: {Address: cachedHolder, Balance: *uint256.NewInt(40)},
	}}
	reader, err := NewCachedAccountReader(base, newTestAccountCacheService(t))
	if err != nil {
		t.Fatalf("new cached reader: %v", err)
	}
	ctx := context.Background()
	if _, err := reader.Account(ctx, cachedHolder); err != nil {
		t.Fatalf("prime cache: %v", err)
	}

	updated := core.Account{Address: cachedHolder, Balance: *uint256.NewInt(15)}
	base.set(updated)
	if err := reader.OnCommit(ctx, core.ChangeSet{Sequence: 2, Accounts: []core.Account{updated}}); err != nil {
		t.Fatalf("on commit: %v", err)
	}

	account, err := reader.Account(ctx, cachedHolder)
	if err != nil {
		t.Fatalf("read after commit: %v", err)
	}
	if !account.Balance.Eq(uint256.NewInt(15)) {
		t.Fatalf("expected invalidated read to see 15, got %s", account.Balance.Dec())
	}
	if base.calls != 2 {
		t.Fatalf("expected refetch after invalidation, base calls=%d", base.calls)
	}
}

func TestCachedAccountReader_PropagatesBaseErrors(t *testing.T) {
	boom := errors.New("db offline")
	reader, err := NewCachedAccountReader(&stubAccountReader{err: boom}, newTestAccountCacheService(t))
	if err != nil {
		t.Fatalf("new cached reader: %v", err)
	}
	if _, err := reader.Account(context.Background(), cachedHolder); !errors.Is(err, boom) {
		t.Fatalf("expected base error propagation, got %v", err)
	}
}

func TestCachedAccountReader_RequiresCollaborators(t *testing.T) {
	if _, err := NewCachedAccountReader(nil, newTestAccountCacheService(t)); err == nil {
		t.Fatalf("expected missing base reader to fail")
	}
	if _, err := NewCachedAccountReader(&stubAccountReader{}, nil); err == nil {
		t.Fatalf("expected missing cache service to fail")
	}
}

func TestAccountCacheKey_IsCaseInsensitive(t *testing.T) {
	key := AccountCacheKey(cachedHolder)
	if !strings.HasPrefix(key, accountCacheKeyPrefix+"::0x") {
		t.Fatalf("unexpected key prefix %q", key)
	}
	if key != strings.ToLower(key) {
		t.Fatalf("expected lowercase key, got %q", key)
	}
}

func newTestAccountCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}
