package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrIdentityNotFound      = errors.New("identity not found")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenInvalidSignature = errors.New("token signature invalid")
	ErrHash                  = errors.New("password hash fault")
	ErrUnauthenticated       = errors.New("not authenticated")
	ErrForbidden             = errors.New("access forbidden")
)

// ValidationError carries a message that is safe to show to the caller.
// It matches ErrValidation under errors.Is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError builds a ValidationError from a format string.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// UnauthorizedReason names the branch of the request gate that rejected a request.
type UnauthorizedReason string

const (
	ReasonNoToken      UnauthorizedReason = "no token"
	ReasonExpired      UnauthorizedReason = "expired"
	ReasonInvalid      UnauthorizedReason = "invalid"
	ReasonIdentityGone UnauthorizedReason = "user not found"
)

// UnauthorizedError is returned by the request gate. It matches
// ErrUnauthenticated under errors.Is.
type UnauthorizedError struct {
	Reason UnauthorizedReason
}

func (e *UnauthorizedError) Error() string { return "unauthorized: " + string(e.Reason) }

func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthenticated }

// Unauthorized is shorthand for &UnauthorizedError{Reason: reason}.
func Unauthorized(reason UnauthorizedReason) error {
	return &UnauthorizedError{Reason: reason}
}
