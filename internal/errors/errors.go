// Package errors provides custom error types for the Brickvest API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
	ErrWalletLinked   = &AppError{Code: "WALLET_ALREADY_LINKED", Message: "This wallet address is already linked to another user", StatusCode: http.StatusConflict}
)

// Ledger errors. These mirror the transport failures and revert reasons of
// the on-chain asset ledger. The ledger is the source of truth for every
// business rule; this API only decodes its rejections.
var (
	ErrNoWalletProvider    = &AppError{Code: "NO_WALLET_PROVIDER", Message: "No wallet endpoint or signing key is configured", StatusCode: http.StatusServiceUnavailable}
	ErrInvalidAmount       = &AppError{Code: "INVALID_AMOUNT", Message: "Amount is not a valid decimal value", StatusCode: http.StatusBadRequest}
	ErrLedgerUnavailable   = &AppError{Code: "LEDGER_UNAVAILABLE", Message: "The asset ledger could not be reached", StatusCode: http.StatusBadGateway}
	ErrAssetNotFound       = &AppError{Code: "ASSET_NOT_FOUND", Message: "Asset not found on the ledger", StatusCode: http.StatusNotFound}
	ErrPurchaseRejected    = &AppError{Code: "PURCHASE_REJECTED", Message: "The ledger rejected the purchase", StatusCode: http.StatusUnprocessableEntity}
	ErrPermissionDenied    = &AppError{Code: "PERMISSION_DENIED", Message: "The ledger rejected the operation: caller is not the administrator", StatusCode: http.StatusForbidden}
	ErrInsufficientBalance = &AppError{Code: "INSUFFICIENT_BALANCE", Message: "No collected funds are available to withdraw", StatusCode: http.StatusUnprocessableEntity}
	ErrLedgerTimeout       = &AppError{Code: "TIMEOUT", Message: "Timed out waiting for ledger confirmation", StatusCode: http.StatusGatewayTimeout}
)
