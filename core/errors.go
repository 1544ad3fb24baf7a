package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/holiman/uint256"
)

const (
	LedgerErrorUnauthorized                = "LEDGER_UNAUTHORIZED"
	LedgerErrorInvalidSignature            = "LEDGER_INVALID_SIGNATURE"
	LedgerErrorNonceAlreadyUsed            = "LEDGER_NONCE_ALREADY_USED"
	LedgerErrorInsufficientUnreserved      = "LEDGER_INSUFFICIENT_UNRESERVED_BALANCE"
	LedgerErrorInvalidReserveAmount        = "LEDGER_INVALID_RESERVE_AMOUNT"
	LedgerErrorInvalidExpiry               = "LEDGER_INVALID_EXPIRY"
	LedgerErrorInvalidExecutor             = "LEDGER_INVALID_EXECUTOR"
	LedgerErrorReservationExpired          = "LEDGER_RESERVATION_EXPIRED"
	LedgerErrorReservationNotExpired       = "LEDGER_RESERVATION_NOT_EXPIRED"
	LedgerErrorInvalidStatus               = "LEDGER_INVALID_STATUS"
	LedgerErrorNotFound                    = "LEDGER_NOT_FOUND"
	LedgerErrorOverflow                    = "LEDGER_OVERFLOW"
	LedgerErrorUnderflow                   = "LEDGER_UNDERFLOW"
	LedgerErrorInsufficientAllowance       = "LEDGER_INSUFFICIENT_ALLOWANCE"
	LedgerErrorCustodyFailed               = "LEDGER_CUSTODY_FAILED"
	LedgerErrorBadInput                    = "LEDGER_BAD_INPUT"
	LedgerErrorInternal                    = "LEDGER_INTERNAL_ERROR"
	ledgerErrorUnauthorizedControllerReply = "only controllers can call this method"
)

func unauthorizedError(message string, metadata map[string]any) *goerrors.Error {
	return newLedgerError(message, goerrors.CategoryAuthz, LedgerErrorUnauthorized, metadata)
}

func controllerRequiredError(caller Address) *goerrors.Error {
	return unauthorizedError(ledgerErrorUnauthorizedControllerReply, map[string]any{
		"caller": caller.Hex(),
		"role":   string(RoleController),
	})
}

func invalidSignatureError(message string, metadata map[string]any) *goerrors.Error {
	return newLedgerError(message, goerrors.CategoryAuth, LedgerErrorInvalidSignature, metadata)
}

func nonceAlreadyUsedError(use NonceUse) *goerrors.Error {
	return newLedgerError("core: nonce already used", goerrors.CategoryConflict, LedgerErrorNonceAlreadyUsed, map[string]any{
		"signer":    use.Signer.Hex(),
		"namespace": string(use.Namespace),
		"nonce":     use.Nonce.Dec(),
	})
}

func insufficientUnreservedError(owner Address, required, available *uint256.Int) *goerrors.Error {
	return newLedgerError("core: insufficient unreserved balance", goerrors.CategoryOperation, LedgerErrorInsufficientUnreserved, map[string]any{
		"owner":     owner.Hex(),
		"required":  required.Dec(),
		"available": available.Dec(),
	})
}

func invalidReserveAmountError() *goerrors.Error {
	return newLedgerError("core: reserve amount plus fee must be greater than zero", goerrors.CategoryBadInput, LedgerErrorInvalidReserveAmount, nil)
}

func invalidExpiryError(expiry, current uint64) *goerrors.Error {
	return newLedgerError("core: expiry height must be in the future", goerrors.CategoryBadInput, LedgerErrorInvalidExpiry, map[string]any{
		"expiry_height":  expiry,
		"current_height": current,
	})
}

func invalidExecutorError() *goerrors.Error {
	return newLedgerError("core: executor must not be the zero address", goerrors.CategoryBadInput, LedgerErrorInvalidExecutor, nil)
}

func reservationExpiredError(key ReservationKey, expiry, current uint64) *goerrors.Error {
	return newLedgerError("core: reservation expired", goerrors.CategoryOperation, LedgerErrorReservationExpired, reservationMetadata(key, expiry, current))
}

func reservationNotExpiredError(key ReservationKey, expiry, current uint64) *goerrors.Error {
	return newLedgerError("core: reservation has not expired", goerrors.CategoryOperation, LedgerErrorReservationNotExpired, reservationMetadata(key, expiry, current))
}

func invalidStatusError(key ReservationKey, status ReservationStatus) *goerrors.Error {
	return newLedgerError("core: reservation is not active", goerrors.CategoryConflict, LedgerErrorInvalidStatus, map[string]any{
		"owner":  key.Owner.Hex(),
		"nonce":  key.Nonce.Dec(),
		"status": string(status),
	})
}

func reservationNotFoundError(key ReservationKey) *goerrors.Error {
	return newLedgerError("core: reservation not found", goerrors.CategoryNotFound, LedgerErrorNotFound, map[string]any{
		"owner": key.Owner.Hex(),
		"nonce": key.Nonce.Dec(),
	})
}

func overflowError(message string) *goerrors.Error {
	return newLedgerError(message, goerrors.CategoryBadInput, LedgerErrorOverflow, nil)
}

func underflowError(message string, metadata map[string]any) *goerrors.Error {
	return newLedgerError(message, goerrors.CategoryOperation, LedgerErrorUnderflow, metadata)
}

func insufficientAllowanceError(key AllowanceKey) *goerrors.Error {
	return newLedgerError("core: insufficient allowance", goerrors.CategoryOperation, LedgerErrorInsufficientAllowance, map[string]any{
		"owner":   key.Owner.Hex(),
		"spender": key.Spender.Hex(),
	})
}

func custodyError(err error, metadata map[string]any) *goerrors.Error {
	wrapped := goerrors.Wrap(err, goerrors.CategoryExternal, "core: custodian call failed").
		WithTextCode(LedgerErrorCustodyFailed).
		WithCode(http.StatusBadGateway)
	if len(metadata) > 0 {
		wrapped = wrapped.WithMetadata(metadata)
	}
	return TagErrorCode(wrapped)
}

func badInputError(message string, metadata map[string]any) *goerrors.Error {
	return newLedgerError(message, goerrors.CategoryBadInput, LedgerErrorBadInput, metadata)
}

func reservationMetadata(key ReservationKey, expiry, current uint64) map[string]any {
	return map[string]any{
		"owner":          key.Owner.Hex(),
		"nonce":          key.Nonce.Dec(),
		"expiry_height":  expiry,
		"current_height": current,
	}
}

// ErrorCodeMetadataKey holds the ledger text code in error metadata. Wrappers
// such as the go-command dispatcher replace TextCode but keep metadata.
const ErrorCodeMetadataKey = "ledger_code"

// TagErrorCode copies err's ledger text code into its metadata.
func TagErrorCode(err *goerrors.Error) *goerrors.Error {
	if err == nil || !isLedgerCode(err.TextCode) {
		return err
	}
	return err.WithMetadata(map[string]any{ErrorCodeMetadataKey: err.TextCode})
}

// IsErrorCode reports whether err carries the given ledger text code anywhere
// in its chain.
func IsErrorCode(err error, code string) bool {
	code = strings.TrimSpace(code)
	if err == nil || code == "" {
		return false
	}
	found := false
	walkRichErrors(err, func(rich *goerrors.Error) {
		if strings.EqualFold(strings.TrimSpace(rich.TextCode), code) || strings.EqualFold(taggedCode(rich), code) {
			found = true
		}
	})
	return found
}

// ErrorCode returns the innermost ledger text code in err's chain, falling
// back to the outermost text code when no ledger code is present.
func ErrorCode(err error) string {
	var innermost, outer string
	walkRichErrors(err, func(rich *goerrors.Error) {
		if outer == "" {
			outer = strings.TrimSpace(rich.TextCode)
		}
		if tagged := taggedCode(rich); tagged != "" {
			innermost = tagged
		}
		if isLedgerCode(rich.TextCode) {
			innermost = strings.TrimSpace(rich.TextCode)
		}
	})
	if innermost != "" {
		return innermost
	}
	return outer
}

// walkRichErrors visits every *goerrors.Error in err's chain, outermost
// first, following both single and joined unwraps.
func walkRichErrors(err error, visit func(*goerrors.Error)) {
	for err != nil {
		if rich, ok := err.(*goerrors.Error); ok && rich != nil {
			visit(rich)
		}
		switch unwrapped := err.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range unwrapped.Unwrap() {
				walkRichErrors(inner, visit)
			}
			return
		case interface{ Unwrap() error }:
			err = unwrapped.Unwrap()
		default:
			return
		}
	}
}

func taggedCode(err *goerrors.Error) string {
	if err == nil || err.Metadata == nil {
		return ""
	}
	code, _ := err.Metadata[ErrorCodeMetadataKey].(string)
	return strings.TrimSpace(code)
}

func isLedgerCode(code string) bool {
	return strings.HasPrefix(strings.TrimSpace(code), "LEDGER_")
}

func ledgerErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureLedgerErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "not found"), strings.Contains(msg, "no rows"):
		return newLedgerError(err.Error(), goerrors.CategoryNotFound, LedgerErrorNotFound, nil)
	case strings.Contains(msg, "unique constraint"), strings.Contains(msg, "duplicate key"):
		return newLedgerError(err.Error(), goerrors.CategoryConflict, LedgerErrorNonceAlreadyUsed, nil)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newLedgerError(err.Error(), goerrors.CategoryBadInput, LedgerErrorBadInput, nil)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureLedgerErrorEnvelope(mapped)
}

func newLedgerError(message string, category goerrors.Category, textCode string, metadata map[string]any) *goerrors.Error {
	out := goerrors.New(message, category).WithTextCode(textCode)
	if len(metadata) > 0 {
		out = out.WithMetadata(metadata)
	}
	return ensureLedgerErrorEnvelope(out)
}

func ensureLedgerErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = ledgerHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultLedgerTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return TagErrorCode(err)
}

func defaultLedgerTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return LedgerErrorBadInput
	case goerrors.CategoryNotFound:
		return LedgerErrorNotFound
	case goerrors.CategoryAuth:
		return LedgerErrorInvalidSignature
	case goerrors.CategoryAuthz:
		return LedgerErrorUnauthorized
	case goerrors.CategoryConflict:
		return LedgerErrorInvalidStatus
	case goerrors.CategoryExternal:
		return LedgerErrorCustodyFailed
	default:
		return LedgerErrorInternal
	}
}

func ledgerHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryOperation:
		return http.StatusUnprocessableEntity
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
