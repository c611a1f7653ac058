// internal/pkg/errs/errors.go

// Package errs defines the error kinds shared by the domain services.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrAuthRequired    = errors.New("authentication required")
	ErrPersistence     = errors.New("persistence failure")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrWeakPassword    = errors.New("password too weak")
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrWrongCredential = errors.New("wrong credential")
	ErrDisabled        = errors.New("account disabled")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("concurrent modification")
)

// Persistence marks err as a backend read/write failure of op.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

// Validation returns a validation error carrying a user-facing message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound returns a not-found error for the named resource.
func NotFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

// Wrap attaches kind to err with a short description.
func Wrap(kind error, msg string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", msg, kind)
	}
	return fmt.Errorf("%s: %w: %w", msg, kind, err)
}

// Kind returns the first known kind found in err's chain, or nil.
func Kind(err error) error {
	for _, kind := range []error{
		ErrAuthRequired,
		ErrForbidden,
		ErrValidation,
		ErrInvalidEmail,
		ErrWeakPassword,
		ErrDuplicateEmail,
		ErrWrongCredential,
		ErrDisabled,
		ErrNotFound,
		ErrConflict,
		ErrPersistence,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
