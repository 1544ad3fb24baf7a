package core

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/holiman/uint256"
)

func TestLedgerErrorMapper_AssignsStableCodes(t *testing.T) {
	mapped := ledgerErrorMapper(stderrors.New("sql: no rows in result set"))
	if mapped.TextCode != LedgerErrorNotFound {
		t.Fatalf("expected not found text code, got %q", mapped.TextCode)
	}
	if mapped.Code != http.StatusNotFound {
		t.Fatalf("expected http status code on mapped error, got %d", mapped.Code)
	}

	mapped = ledgerErrorMapper(stderrors.New("UNIQUE constraint failed: ledger_nonces.signer"))
	if mapped.TextCode != LedgerErrorNonceAlreadyUsed {
		t.Fatalf("expected nonce conflict code, got %q", mapped.TextCode)
	}
	if mapped.Category != goerrors.CategoryConflict {
		t.Fatalf("expected conflict category, got %q", mapped.Category)
	}
}

func TestLedgerErrorMapper_PreservesRichErrors(t *testing.T) {
	source := reservationExpiredError(ReservationKey{Nonce: *amt(3)}, 10, 11)
	mapped := ledgerErrorMapper(source)
	if mapped != source {
		t.Fatalf("expected rich error to pass through")
	}
	if mapped.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for operation errors, got %d", mapped.Code)
	}
	if mapped.Metadata["expiry_height"] != uint64(10) {
		t.Fatalf("expected expiry metadata, got %#v", mapped.Metadata)
	}
}

func TestErrorKinds_CarryCategories(t *testing.T) {
	cases := []struct {
		err      *goerrors.Error
		code     string
		category goerrors.Category
	}{
		{controllerRequiredError(ZeroAddress), LedgerErrorUnauthorized, goerrors.CategoryAuthz},
		{invalidSignatureError("bad", nil), LedgerErrorInvalidSignature, goerrors.CategoryAuth},
		{nonceAlreadyUsedError(NonceUse{Namespace: NonceNamespaceMint}), LedgerErrorNonceAlreadyUsed, goerrors.CategoryConflict},
		{invalidReserveAmountError(), LedgerErrorInvalidReserveAmount, goerrors.CategoryBadInput},
		{invalidExpiryError(1, 2), LedgerErrorInvalidExpiry, goerrors.CategoryBadInput},
		{invalidExecutorError(), LedgerErrorInvalidExecutor, goerrors.CategoryBadInput},
		{reservationNotFoundError(ReservationKey{}), LedgerErrorNotFound, goerrors.CategoryNotFound},
		{custodyError(stderrors.New("down"), nil), LedgerErrorCustodyFailed, goerrors.CategoryExternal},
	}
	for _, tc := range cases {
		if tc.err.TextCode != tc.code {
			t.Fatalf("expected %s, got %s", tc.code, tc.err.TextCode)
		}
		if tc.err.Category != tc.category {
			t.Fatalf("expected %s category for %s, got %s", tc.category, tc.code, tc.err.Category)
		}
		if !IsErrorCode(tc.err, tc.code) {
			t.Fatalf("expected IsErrorCode match for %s", tc.code)
		}
	}
	if IsErrorCode(stderrors.New("plain"), LedgerErrorInternal) {
		t.Fatalf("expected plain errors to carry no code")
	}
}

func TestErrorCode_SurvivesDispatcherWrapping(t *testing.T) {
	ledgerErr := controllerRequiredError(ZeroAddress)
	// go-command's dispatcher clones the rich error and replaces its text code.
	dispatched := goerrors.Wrap(ledgerErr, goerrors.CategoryHandler, "handler failed for type ledger.mint").
		WithTextCode("HANDLER_EXECUTION_FAILED").
		WithMetadata(map[string]any{"message_type": "ledger.mint"})

	if dispatched.TextCode != "HANDLER_EXECUTION_FAILED" {
		t.Fatalf("expected outer text code to be replaced, got %q", dispatched.TextCode)
	}
	if !IsErrorCode(dispatched, LedgerErrorUnauthorized) {
		t.Fatalf("expected ledger code to be found through the wrapper")
	}
	if got := ErrorCode(dispatched); got != LedgerErrorUnauthorized {
		t.Fatalf("expected innermost ledger code, got %q", got)
	}
	if !IsErrorCode(dispatched, "HANDLER_EXECUTION_FAILED") {
		t.Fatalf("expected outer code to still match")
	}
}

func TestErrorCode_WalksWrappedAndJoinedChains(t *testing.T) {
	inner := insufficientUnreservedError(ZeroAddress, uint256.NewInt(5), uint256.NewInt(1))
	outer := goerrors.New("runner failed", goerrors.CategoryInternal).WithTextCode("RUNNER_FAILED")
	outer.Source = fmt.Errorf("attempt 3: %w", inner)

	if got := ErrorCode(outer); got != LedgerErrorInsufficientUnreserved {
		t.Fatalf("expected innermost ledger code, got %q", got)
	}
	joined := stderrors.Join(stderrors.New("hook failed"), fmt.Errorf("commit: %w", inner))
	if !IsErrorCode(joined, LedgerErrorInsufficientUnreserved) {
		t.Fatalf("expected joined chain to be searched")
	}
	if got := ErrorCode(stderrors.New("plain")); got != "" {
		t.Fatalf("expected no code for plain errors, got %q", got)
	}
	if got := ErrorCode(goerrors.New("x", goerrors.CategoryHandler).WithTextCode("OTHER")); got != "OTHER" {
		t.Fatalf("expected outer code fallback, got %q", got)
	}
	if IsErrorCode(nil, LedgerErrorInternal) || IsErrorCode(inner, " ") {
		t.Fatalf("expected nil error or blank code never to match")
	}
}
