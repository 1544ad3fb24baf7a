package core

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestWrapperMint_CreditsAfterDeposit(t *testing.T) {
	custodian := &stubCustodian{asset: common.HexToAddress("0x9b1f7F645351AF3631a656421eD2e40f2802E6c0")}
	f := newLedgerFixture(t, nil, WithCustodian(custodian))
	holder := newParty(t)

	receipt, err := f.ledger.WrapperMint(context.Background(), holder.addr, amt(25))
	if err != nil {
		t.Fatalf("wrapper mint: %v", err)
	}
	if len(custodian.deposits) != 1 || custodian.deposits[0] != 25 {
		t.Fatalf("expected one deposit of 25, got %v", custodian.deposits)
	}
	if receipt.Events[len(receipt.Events)-1].Type != EventWrapperMint {
		t.Fatalf("expected wrapper mint event last")
	}
	if f.ledger.BaseToken() != custodian.asset {
		t.Fatalf("expected base token from custodian")
	}
	expectBalance(t, f.ledger, holder.addr, 25, 0)
	checkInvariants(t, f.ledger)
}

func TestWrapperMint_DepositFailureCreditsNothing(t *testing.T) {
	custodian := &stubCustodian{depositErr: errStub}
	f := newLedgerFixture(t, nil, WithCustodian(custodian))
	holder := newParty(t)

	_, err := f.ledger.WrapperMint(context.Background(), holder.addr, amt(25))
	expectCode(t, err, LedgerErrorCustodyFailed)
	expectBalance(t, f.ledger, holder.addr, 0, 0)
	if !f.ledger.TotalSupply().IsZero() {
		t.Fatalf("expected supply unchanged")
	}
}

func TestWrapperBurn_ReleaseFailureKeepsBalance(t *testing.T) {
	custodian := &stubCustodian{}
	f := newLedgerFixture(t, nil, WithCustodian(custodian))
	holder := newParty(t)
	ctx := context.Background()
	if _, err := f.ledger.WrapperMint(ctx, holder.addr, amt(40)); err != nil {
		t.Fatalf("wrapper mint: %v", err)
	}

	custodian.releaseErr = errStub
	_, err := f.ledger.WrapperBurn(ctx, holder.addr, amt(15))
	expectCode(t, err, LedgerErrorCustodyFailed)
	expectBalance(t, f.ledger, holder.addr, 40, 0)

	custodian.releaseErr = nil
	if _, err := f.ledger.WrapperBurn(ctx, holder.addr, amt(15)); err != nil {
		t.Fatalf("wrapper burn: %v", err)
	}
	expectBalance(t, f.ledger, holder.addr, 25, 0)
	if len(custodian.releases) != 1 || custodian.releases[0] != 15 {
		t.Fatalf("expected one release of 15, got %v", custodian.releases)
	}

	_, err = f.ledger.WrapperBurn(ctx, holder.addr, amt(26))
	expectCode(t, err, LedgerErrorInsufficientUnreserved)
	if len(custodian.releases) != 1 {
		t.Fatalf("expected no release when the debit is rejected")
	}
	checkInvariants(t, f.ledger)
}

func TestWrapper_RequiresCustodian(t *testing.T) {
	f := newLedgerFixture(t, nil)
	_, err := f.ledger.WrapperMint(context.Background(), newParty(t).addr, amt(1))
	expectCode(t, err, LedgerErrorBadInput)
}
