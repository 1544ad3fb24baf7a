package command

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-ledger/core"
	"github.com/holiman/uint256"
)

const testLedgerHex = "0x0290FB167208Af455bB137780163b7B7a9a10C16"

type party struct {
	key  *ecdsa.PrivateKey
	addr core.Address
}

func newParty(t *testing.T) party {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return party{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

func newTestLedger(t *testing.T, admin party, height uint64) *core.Ledger {
	t.Helper()
	cfg := core.DefaultConfig()
	cfg.LedgerAddress = testLedgerHex
	cfg.Admin = admin.addr.Hex()
	ledger, err := core.NewLedger(cfg, core.WithHeightSource(core.NewManualHeightSource(height)))
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	return ledger
}

func sign(t *testing.T, signer party, msg core.SignedMessage) []byte {
	t.Helper()
	sig, err := core.SignMessage(msg, signer.key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return sig
}

func TestMintCommand_ExecuteDelegatesAndStoresReceipt(t *testing.T) {
	admin := newParty(t)
	holder := newParty(t)
	ledger := newTestLedger(t, admin, 1)

	cmd := NewMintCommand(ledger)
	collector := gocmd.NewResult[core.Receipt]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	if err := cmd.Execute(ctx, MintMessage{Caller: admin.addr, To: holder.addr, Amount: uint256.NewInt(25)}); err != nil {
		t.Fatalf("execute mint: %v", err)
	}
	receipt, ok := collector.Load()
	if !ok {
		t.Fatalf("expected receipt to be stored")
	}
	if receipt.Operation != "mint" || len(receipt.Events) != 2 {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	if !ledger.BalanceOf(holder.addr).Eq(uint256.NewInt(25)) {
		t.Fatalf("expected minted balance")
	}
}

func TestReservationCommands_RunLifecycle(t *testing.T) {
	admin := newParty(t)
	owner := newParty(t)
	executor := newParty(t)
	recipient := newParty(t)
	ledger := newTestLedger(t, admin, 100)
	ctx := context.Background()

	if err := NewMintCommand(ledger).Execute(ctx, MintMessage{Caller: admin.addr, To: owner.addr, Amount: uint256.NewInt(100)}); err != nil {
		t.Fatalf("mint: %v", err)
	}

	request := core.ReserveRequest{
		Owner:        owner.addr,
		Recipient:    recipient.addr,
		Executor:     executor.addr,
		Amount:       uint256.NewInt(40),
		Fee:          uint256.NewInt(2),
		Nonce:        uint256.NewInt(1),
		ExpiryHeight: 150,
	}
	request.Signature = sign(t, owner, core.SignedMessage{
		Operation: core.SignedReserve,
		Ledger:    ledger.LedgerAddress(),
		Sender:    owner.addr,
		Recipient: recipient.addr,
		Amount:    *request.Amount,
		Fee:       *request.Fee,
		Nonce:     *request.Nonce,
	})

	collector := gocmd.NewResult[core.Reservation]()
	if err := NewReserveCommand(ledger).Execute(gocmd.ContextWithResult(ctx, collector), ReserveMessage{Request: request}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	reservation, ok := collector.Load()
	if !ok || reservation.Status != core.ReservationStatusActive {
		t.Fatalf("expected stored active reservation, got %+v", reservation)
	}

	if err := NewExecuteCommand(ledger).Execute(ctx, ExecuteMessage{Caller: executor.addr, Owner: owner.addr, Nonce: uint256.NewInt(1)}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !ledger.BalanceOf(recipient.addr).Eq(uint256.NewInt(40)) || !ledger.BalanceOf(executor.addr).Eq(uint256.NewInt(2)) {
		t.Fatalf("expected executed payout")
	}

	err := NewReclaimCommand(ledger).Execute(ctx, ReclaimMessage{Caller: executor.addr, Owner: owner.addr, Nonce: uint256.NewInt(1)})
	if !core.IsErrorCode(err, core.LedgerErrorInvalidStatus) {
		t.Fatalf("expected invalid status on reclaim after execute, got %v", err)
	}
}

func TestMetaTransferCommand_PropagatesLedgerErrors(t *testing.T) {
	admin := newParty(t)
	owner := newParty(t)
	recipient := newParty(t)
	ledger := newTestLedger(t, admin, 1)

	err := NewMetaTransferCommand(ledger).Execute(context.Background(), MetaTransferMessage{Request: core.MetaTransferRequest{
		Submitter: admin.addr,
		Owner:     owner.addr,
		Recipient: recipient.addr,
		Amount:    uint256.NewInt(1),
		Fee:       uint256.NewInt(0),
		Nonce:     uint256.NewInt(1),
		Signature: make([]byte, core.SignatureLength),
	}})
	if !core.IsErrorCode(err, core.LedgerErrorInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestCommands_ValidateBeforeDelegating(t *testing.T) {
	svc := &recordingService{}
	ctx := context.Background()

	cases := []struct {
		name string
		run  func() error
	}{
		{"mint without amount", func() error {
			return NewMintCommand(svc).Execute(ctx, MintMessage{Caller: core.Address{1}})
		}},
		{"burn without from", func() error {
			return NewBurnCommand(svc).Execute(ctx, BurnMessage{Caller: core.Address{1}, Amount: uint256.NewInt(1)})
		}},
		{"grant unknown role", func() error {
			return NewGrantRoleCommand(svc).Execute(ctx, GrantRoleMessage{Caller: core.Address{1}, Role: "OWNER", Account: core.Address{2}})
		}},
		{"reserve without signature", func() error {
			return NewReserveCommand(svc).Execute(ctx, ReserveMessage{Request: core.ReserveRequest{
				Owner:        core.Address{1},
				Amount:       uint256.NewInt(1),
				Fee:          uint256.NewInt(0),
				Nonce:        uint256.NewInt(1),
				ExpiryHeight: 10,
			}})
		}},
		{"reserve without expiry", func() error {
			return NewReserveCommand(svc).Execute(ctx, ReserveMessage{Request: core.ReserveRequest{
				Owner:     core.Address{1},
				Amount:    uint256.NewInt(1),
				Fee:       uint256.NewInt(0),
				Nonce:     uint256.NewInt(1),
				Signature: []byte{1},
			}})
		}},
		{"execute without nonce", func() error {
			return NewExecuteCommand(svc).Execute(ctx, ExecuteMessage{Caller: core.Address{1}, Owner: core.Address{2}})
		}},
		{"meta burn without submitter", func() error {
			return NewMetaBurnCommand(svc).Execute(ctx, MetaBurnMessage{})
		}},
		{"wrapper mint without caller", func() error {
			return NewWrapperMintCommand(svc).Execute(ctx, WrapperMintMessage{Amount: uint256.NewInt(1)})
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run()
			if !core.IsErrorCode(err, core.LedgerErrorBadInput) {
				t.Fatalf("expected bad input validation error, got %v", err)
			}
		})
	}
	if svc.calls != 0 {
		t.Fatalf("expected no service calls for invalid messages, got %d", svc.calls)
	}
}

func TestCommands_ReturnServiceErrorsWithoutStoringResult(t *testing.T) {
	boom := errors.New("journal offline")
	svc := &recordingService{err: boom}
	collector := gocmd.NewResult[core.Receipt]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	err := NewTransferCommand(svc).Execute(ctx, TransferMessage{From: core.Address{1}, To: core.Address{2}, Amount: uint256.NewInt(1)})
	if !errors.Is(err, boom) {
		t.Fatalf("expected service error, got %v", err)
	}
	if _, ok := collector.Load(); ok {
		t.Fatalf("expected no stored result on failure")
	}
}

func TestMessageTypes_AreUnique(t *testing.T) {
	types := []string{
		MintMessage{}.Type(), BurnMessage{}.Type(), TransferMessage{}.Type(),
		ApproveMessage{}.Type(), TransferFromMessage{}.Type(), GrantRoleMessage{}.Type(),
		RevokeRoleMessage{}.Type(), RenounceRoleMessage{}.Type(), ReserveMessage{}.Type(),
		ExecuteMessage{}.Type(), ReclaimMessage{}.Type(), MetaTransferMessage{}.Type(),
		MetaMintMessage{}.Type(), MetaBurnMessage{}.Type(), WrapperMintMessage{}.Type(),
		WrapperBurnMessage{}.Type(),
	}
	seen := map[string]bool{}
	for _, typ := range types {
		if seen[typ] {
			t.Fatalf("duplicate message type %q", typ)
		}
		seen[typ] = true
	}
}

type recordingService struct {
	calls int
	err   error
}

func (s *recordingService) receipt(op string) (core.Receipt, error) {
	s.calls++
	if s.err != nil {
		return core.Receipt{}, s.err
	}
	return core.Receipt{Operation: op}, nil
}

func (s *recordingService) Mint(context.Context, core.Address, core.Address, *uint256.Int) (core.Receipt, error) {
	return s.receipt("mint")
}

func (s *recordingService) Burn(context.Context, core.Address, core.Address, *uint256.Int) (core.Receipt, error) {
	return s.receipt("burn")
}

func (s *recordingService) Transfer(context.Context, core.Address, core.Address, *uint256.Int) (core.Receipt, error) {
	return s.receipt("transfer")
}

func (s *recordingService) Approve(context.Context, core.Address, core.Address, *uint256.Int) (core.Receipt, error) {
	return s.receipt("approve")
}

func (s *recordingService) TransferFrom(context.Context, core.Address, core.Address, core.Address, *uint256.Int) (core.Receipt, error) {
	return s.receipt("transfer_from")
}

func (s *recordingService) GrantRole(context.Context, core.Address, core.Role, core.Address) (core.Receipt, error) {
	return s.receipt("grant_role")
}

func (s *recordingService) RevokeRole(context.Context, core.Address, core.Role, core.Address) (core.Receipt, error) {
	return s.receipt("revoke_role")
}

func (s *recordingService) RenounceRole(context.Context, core.Address, core.Role) (core.Receipt, error) {
	return s.receipt("renounce_role")
}

func (s *recordingService) Reserve(context.Context, core.ReserveRequest) (core.Reservation, error) {
	s.calls++
	if s.err != nil {
		return core.Reservation{}, s.err
	}
	return core.Reservation{Status: core.ReservationStatusActive}, nil
}

func (s *recordingService) Execute(context.Context, core.Address, core.Address, *uint256.Int) (core.Receipt, error) {
	return s.receipt("execute")
}

func (s *recordingService) Reclaim(context.Context, core.Address, core.Address, *uint256.Int) (core.Receipt, error) {
	return s.receipt("reclaim")
}

func (s *recordingService) MetaTransfer(context.Context, core.MetaTransferRequest) (core.Receipt, error) {
	return s.receipt("meta_transfer")
}

func (s *recordingService) MetaMint(context.Context, core.MetaMintRequest) (core.Receipt, error) {
	return s.receipt("meta_mint")
}

func (s *recordingService) MetaBurn(context.Context, core.MetaBurnRequest) (core.Receipt, error) {
	return s.receipt("meta_burn")
}

func (s *recordingService) WrapperMint(context.Context, core.Address, *uint256.Int) (core.Receipt, error) {
	return s.receipt("wrapper_mint")
}

func (s *recordingService) WrapperBurn(context.Context, core.Address, *uint256.Int) (core.Receipt, error) {
	return s.receipt("wrapper_burn")
}
