package ports

import (
	"context"

	"github.com/taskboard/task-manager/internal/core/domain"
)

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches hash. A malformed hash is a mismatch.
	Verify(plaintext, hash string) bool
}

// TokenManager issues and verifies signed session tokens.
type TokenManager interface {
	Issue(claims domain.TokenClaims) (string, error)
	Verify(token string) (domain.TokenClaims, error)
}

// LoginThrottle tracks failed logins per normalized email.
type LoginThrottle interface {
	Allowed(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}
