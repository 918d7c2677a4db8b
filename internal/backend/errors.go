package backend

import (
	"errors"
	"fmt"
)

// Sentinel errors mapped onto HTTP statuses by the API layer.
var (
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrGuardViolation = errors.New("contact guard violation")
	ErrInvalidRequest = errors.New("invalid request")
)

// RequestError carries a client-facing detail for one of the sentinel kinds.
type RequestError struct {
	Kind   error
	Detail string
}

// Error implements error.
func (e *RequestError) Error() string {
	return e.Detail
}

// Unwrap returns the sentinel kind.
func (e *RequestError) Unwrap() error {
	return e.Kind
}

// reject builds a RequestError of kind with a formatted detail.
func reject(kind error, format string, args ...any) error {
	return &RequestError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
