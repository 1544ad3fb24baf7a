package core

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

const testLedgerHex = "0x0290FB167208Af455bB137780163b7B7a9a10C16"

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	return l.values, nil
}

type testParty struct {
	key  *ecdsa.PrivateKey
	addr Address
}

func newParty(t *testing.T) testParty {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return testParty{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

func amt(value uint64) *uint256.Int {
	return uint256.NewInt(value)
}

func mustSign(t *testing.T, signer testParty, msg SignedMessage) []byte {
	t.Helper()
	sig, err := SignMessage(msg, signer.key)
	if err != nil {
		t.Fatalf("sign message: %v", err)
	}
	return sig
}

type ledgerFixture struct {
	ledger *Ledger
	height *ManualHeightSource
	admin  testParty
}

func newLedgerFixture(t *testing.T, mutate func(*Config), opts ...Option) ledgerFixture {
	t.Helper()
	admin := newParty(t)
	height := NewManualHeightSource(100)
	cfg := DefaultConfig()
	cfg.LedgerAddress = testLedgerHex
	cfg.Admin = admin.addr.Hex()
	if mutate != nil {
		mutate(&cfg)
	}
	base := []Option{WithHeightSource(height), WithLogger(stubLogger{}), WithLoggerProvider(stubLoggerProvider{logger: stubLogger{}})}
	ledger, err := NewLedger(cfg, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	return ledgerFixture{ledger: ledger, height: height, admin: admin}
}

func (f ledgerFixture) fund(t *testing.T, to Address, value uint64) {
	t.Helper()
	if _, err := f.ledger.Mint(context.Background(), f.admin.addr, to, amt(value)); err != nil {
		t.Fatalf("mint %d: %v", value, err)
	}
}

func (f ledgerFixture) ledgerAddress() Address {
	return common.HexToAddress(testLedgerHex)
}

func (f ledgerFixture) reserve(t *testing.T, owner testParty, req ReserveRequest) (Reservation, error) {
	t.Helper()
	req.Owner = owner.addr
	msg := SignedMessage{
		Operation: SignedReserve,
		Ledger:    f.ledgerAddress(),
		Sender:    owner.addr,
		Recipient: req.Recipient,
		Amount:    *req.Amount,
		Fee:       *req.Fee,
		Nonce:     *req.Nonce,
	}
	req.Signature = mustSign(t, owner, msg)
	return f.ledger.Reserve(context.Background(), req)
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if !IsErrorCode(err, code) {
		t.Fatalf("expected %s, got %q (%v)", code, ErrorCode(err), err)
	}
}

func expectBalance(t *testing.T, ledger *Ledger, addr Address, balance, reserved uint64) {
	t.Helper()
	if got := ledger.BalanceOf(addr); !got.Eq(amt(balance)) {
		t.Fatalf("expected balance %d for %s, got %s", balance, addr.Hex(), got.Dec())
	}
	if got := ledger.ReservedBalanceOf(addr); !got.Eq(amt(reserved)) {
		t.Fatalf("expected reserved %d for %s, got %s", reserved, addr.Hex(), got.Dec())
	}
}

// checkInvariants asserts supply conservation and reserved <= balance.
func checkInvariants(t *testing.T, ledger *Ledger) {
	t.Helper()
	snapshot := ledger.Snapshot()
	var sum uint256.Int
	for _, account := range snapshot.Accounts {
		if account.Balance.Lt(&account.Reserved) {
			t.Fatalf("reserved exceeds balance for %s", account.Address.Hex())
		}
		if _, overflow := sum.AddOverflow(&sum, &account.Balance); overflow {
			t.Fatalf("balance sum overflow")
		}
	}
	if !sum.Eq(&snapshot.TotalSupply) {
		t.Fatalf("expected balances to sum to total supply %s, got %s", snapshot.TotalSupply.Dec(), sum.Dec())
	}
}

type recordingJournal struct {
	mu      sync.Mutex
	commits []ChangeSet
	fail    error
}

func (j *recordingJournal) Commit(_ context.Context, changes ChangeSet) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.fail != nil {
		return j.fail
	}
	j.commits = append(j.commits, changes)
	return nil
}

func (j *recordingJournal) last() ChangeSet {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.commits) == 0 {
		return ChangeSet{}
	}
	return j.commits[len(j.commits)-1]
}

type staticSnapshotLoader struct {
	snapshot Snapshot
}

func (l staticSnapshotLoader) LoadSnapshot(context.Context) (Snapshot, error) {
	return l.snapshot, nil
}

type stubCustodian struct {
	asset      Address
	depositErr error
	releaseErr error
	deposits   []uint64
	releases   []uint64
}

func (c *stubCustodian) Asset() Address {
	return c.asset
}

func (c *stubCustodian) Deposit(_ context.Context, _ Address, amount *uint256.Int) error {
	if c.depositErr != nil {
		return c.depositErr
	}
	c.deposits = append(c.deposits, amount.Uint64())
	return nil
}

func (c *stubCustodian) Release(_ context.Context, _ Address, amount *uint256.Int) error {
	if c.releaseErr != nil {
		return c.releaseErr
	}
	c.releases = append(c.releases, amount.Uint64())
	return nil
}

var errStub = errors.New("stub failure")
