package relay

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-ledger/core"
)

const RelayErrorDuplicate = "LEDGER_RELAY_DUPLICATE"

func relayValidationError(field string, message string) error {
	return core.TagErrorCode(goerrors.NewValidation("relay: validation failed", goerrors.FieldError{
		Field:   field,
		Message: message,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.LedgerErrorBadInput).
		WithSeverity(goerrors.SeverityError))
}

func relayDuplicateError(key string) error {
	return core.TagErrorCode(goerrors.New("relay: operation already submitted", goerrors.CategoryConflict).
		WithCode(http.StatusConflict).
		WithTextCode(RelayErrorDuplicate).
		WithMetadata(map[string]any{"idempotency_key": key}))
}

func relayNonceUsedError(key string) error {
	return core.TagErrorCode(goerrors.New("relay: nonce already used", goerrors.CategoryConflict).
		WithCode(http.StatusConflict).
		WithTextCode(core.LedgerErrorNonceAlreadyUsed).
		WithMetadata(map[string]any{"idempotency_key": key}))
}

func relayDependencyError(message string) error {
	return core.TagErrorCode(goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.LedgerErrorInternal))
}

// IsTerminal reports whether a failed job can never succeed on retry.
// Ledger domain rejections are terminal; internal, custody and untyped
// errors are retried.
func IsTerminal(err error) bool {
	switch code := core.ErrorCode(err); code {
	case core.LedgerErrorInternal, core.LedgerErrorCustodyFailed, "":
		return false
	default:
		return strings.HasPrefix(code, "LEDGER_")
	}
}
