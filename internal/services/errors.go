package services

import (
	"errors"
	"fmt"

	"storefront/internal/models"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient permissions")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// ValidationError names the offending field. It matches ErrInvalidInput.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Identity is the caller as established by the session token.
type Identity struct {
	UserID uint
	Role   models.UserRole
}

func (i Identity) IsStaff() bool {
	return i.Role.IsStaff()
}

func (i Identity) authenticated() error {
	if i.UserID == 0 {
		return ErrUnauthenticated
	}
	return nil
}

func (i Identity) requireStaff() error {
	if err := i.authenticated(); err != nil {
		return err
	}
	if !i.IsStaff() {
		return ErrForbidden
	}
	return nil
}
