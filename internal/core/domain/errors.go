package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrForbidden           = errors.New("access forbidden")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("email already registered")
	ErrApplicationNotFound = errors.New("application not found")
	ErrEarningNotFound     = errors.New("earning not found")
)

// Invalid wraps ErrValidation with a field-level message, e.g.
// Invalid("name is required"). errors.Is(err, ErrValidation) holds.
func Invalid(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// ValidationError carries the client-facing message of a rejected input.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func (e *ValidationError) Unwrap() error { return ErrValidation }
