package models

import "errors"

// Error kinds surfaced by the phone verification and account operations.
// Services wrap these with context; handlers map them with errors.Is.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("phone number already registered")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrExpired         = errors.New("verification code expired")
	ErrDispatchFailure = errors.New("failed to deliver verification code")
	ErrForbidden       = errors.New("phone number not yet verified")
	ErrRateLimited     = errors.New("too many requests")
)

// Machine readable error kinds returned in ErrorResponse.Kind
const (
	KindInvalidInput    = "invalid_input"
	KindConflict        = "conflict"
	KindNotFound        = "not_found"
	KindUnauthorized    = "unauthorized"
	KindExpired         = "expired"
	KindDispatchFailure = "dispatch_failure"
	KindForbidden       = "forbidden"
	KindRateLimited     = "rate_limited"
	KindInternal        = "internal"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// KindOf returns the stable kind for an error chain. Unknown errors are
// reported as internal.
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrExpired):
		return KindExpired
	case errors.Is(err, ErrDispatchFailure):
		return KindDispatchFailure
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	default:
		return KindInternal
	}
}
