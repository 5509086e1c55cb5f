package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUserAlreadyExists  = errors.New("a user with this email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAuthorization      = errors.New("only administrators can manage users")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrTooManyAttempts    = errors.New("too many failed login attempts, try again later")

	// ErrDuplicateKey is returned by repositories when a uniqueness
	// constraint rejects a write.
	ErrDuplicateKey = errors.New("duplicate key")
)

// ValidationError reports a field that fails an entity or input rule.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// RepositoryError wraps a persistence failure with the operation that failed.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

// credentialsError hides which login check failed behind one message while
// keeping the cause reachable through errors.Is.
type credentialsError struct {
	cause error
}

// NewCredentialsError returns an error whose message is always that of
// ErrInvalidCredentials and which also matches cause.
func NewCredentialsError(cause error) error {
	return &credentialsError{cause: cause}
}

func (e *credentialsError) Error() string { return ErrInvalidCredentials.Error() }

func (e *credentialsError) Unwrap() []error { return []error{ErrInvalidCredentials, e.cause} }
