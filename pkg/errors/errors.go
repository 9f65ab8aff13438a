package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrSignatureMissing means the delivery carried no signature header.
	// The provider signs every delivery, so this is a rejected request.
	ErrSignatureMissing = NewError("SIGNATURE_MISSING", "signature header is required", http.StatusForbidden)

	// ErrSignatureInvalid means a signature was present but did not match
	// the HMAC of the raw body.
	ErrSignatureInvalid = NewError("SIGNATURE_INVALID", "signature verification failed", http.StatusForbidden)

	// ErrVerifyTokenMismatch covers the subscription handshake.
	ErrVerifyTokenMismatch = NewError("VERIFY_TOKEN_MISMATCH", "verify token mismatch", http.StatusForbidden)

	// ErrConfiguration marks operator misconfiguration (missing secret,
	// missing destination URL). Fatal at startup; 500-class if ever hit
	// on a request path.
	ErrConfiguration = NewError("CONFIGURATION", "gateway misconfigured", http.StatusInternalServerError)

	ErrRoutingMiss = NewError("ROUTING_MISS", "no destination matched", http.StatusOK)
	ErrForwarding  = NewError("FORWARDING", "downstream delivery failed", http.StatusOK)
	ErrRateLimited = NewError("RATE_LIMITED", "rate limit exceeded", http.StatusTooManyRequests)
	ErrInternal    = NewError("INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
)

type Error struct {
	Code    string
	Message string
	Status  int
	Details map[string]interface{}
	Cause   error
}

func NewError(code, message string, status int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) WithCause(cause error) *Error {
	err := *e
	err.Cause = cause
	return &err
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	err := *e
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	err.Details = details
	return &err
}

func Wrap(err error, appErr *Error) *Error {
	if err == nil {
		return nil
	}
	return appErr.WithCause(err)
}

// Is reports whether err carries the given code.
func Is(err error, target *Error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}

func IsConfiguration(err error) bool {
	return Is(err, ErrConfiguration)
}

func ToHTTPStatus(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

func ToErrorResponse(err error) map[string]interface{} {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = ErrInternal.WithCause(err)
	}

	response := map[string]interface{}{
		"error":      appErr.Message,
		"error_code": appErr.Code,
	}

	if len(appErr.Details) > 0 {
		response["details"] = appErr.Details
	}

	return response
}
