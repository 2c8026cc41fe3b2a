package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

// Validation returns a caller-input validation error. Never retried.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("VAL_002", "Invalid amount", http.StatusBadRequest)
}

func ErrInvalidAddress(network string) *AppError {
	return New("VAL_003", fmt.Sprintf("Address is not valid for network %s", network), http.StatusBadRequest)
}

// ---- Payment lookup & lifecycle (PAY) ----

func ErrNotFound(entity string) *AppError {
	return New("PAY_404", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ErrConflict signals a transition attempted on a request that has
// already reached a terminal state.
func ErrConflict(message string) *AppError {
	return New("PAY_409", message, http.StatusConflict)
}

// ---- Networks & chain adapters (NET / CHN) ----

// ErrUnsupportedNetwork rejects an unknown network identifier outright.
// There is deliberately no fallback network.
func ErrUnsupportedNetwork(network string) *AppError {
	return New("NET_001", fmt.Sprintf("Unsupported network: %s", network), http.StatusBadRequest)
}

// ErrUpstream wraps a chain RPC or third-party failure with chain and
// operation context.
func ErrUpstream(network, op string, err error) *AppError {
	return Wrap("CHN_001", fmt.Sprintf("%s %s failed", network, op), http.StatusBadGateway, err)
}

// ErrSendNotSupported marks transaction submission that is deliberately
// unimplemented for a chain family (no UTXO coin selection exists).
func ErrSendNotSupported(network string) *AppError {
	return New("CHN_002", fmt.Sprintf("Sending transactions is not supported on %s", network), http.StatusNotImplemented)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrMerchantSuspended() *AppError {
	return New("AUTH_002", "Merchant account is suspended", http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_002", "Encryption service failure", http.StatusInternalServerError, err)
}
