package common

import (
	"errors"
	"net/http"
)

// Domain error taxonomy. Lower layers wrap these with fmt.Errorf("%w: ...").
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidCode        = errors.New("invalid event code")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidFormat      = errors.New("invalid format")
	ErrValidation         = errors.New("validation failed")
	ErrDispatchFailure    = errors.New("dispatch failure")
	ErrInternal           = errors.New("internal error")
	ErrRateLimited        = errors.New("too many attempts")
)

type errorMapping struct {
	sentinel error
	status   int
	code     string
	// expose is false when the wrapped detail must not reach the caller
	expose bool
}

var errorMappings = []errorMapping{
	{ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS", false},
	{ErrInvalidCode, http.StatusUnauthorized, "INVALID_CODE", false},
	{ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED", false},
	{ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED", false},
	{ErrForbidden, http.StatusForbidden, "FORBIDDEN", true},
	{ErrNotFound, http.StatusNotFound, "NOT_FOUND", true},
	{ErrConflict, http.StatusConflict, "CONFLICT", true},
	{ErrInvalidFormat, http.StatusBadRequest, "INVALID_FORMAT", true},
	{ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR", true},
	{ErrDispatchFailure, http.StatusBadGateway, "DISPATCH_FAILURE", true},
	{ErrInternal, http.StatusInternalServerError, "INTERNAL_ERROR", false},
}

// StatusFor resolves the HTTP status, public code and message for err.
// Unknown errors are treated as internal.
func StatusFor(err error) (int, string, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.sentinel) {
			if m.expose {
				return m.status, m.code, err.Error()
			}
			return m.status, m.code, m.sentinel.Error()
		}
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR", ErrInternal.Error()
}

// IsInternal reports whether err maps to a 5xx response
func IsInternal(err error) bool {
	status, _, _ := StatusFor(err)
	return status >= http.StatusInternalServerError && !errors.Is(err, ErrDispatchFailure)
}
