package ports

import (
	"context"

	"github.com/taskboard/task-manager/internal/core/domain"
)

// RegisterInput is a self-service sign-up. It has no role field: new
// accounts are always colaborador.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// CreateUserInput is an admin-initiated account creation.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// AuthResult is returned by every operation that issues a session token.
type AuthResult struct {
	Token string          `json:"token"`
	User  domain.SafeUser `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	CreateUser(ctx context.Context, actingUserID int64, in CreateUserInput) (*AuthResult, error)
	GetUsers(ctx context.Context) ([]domain.SafeUser, error)
	VerifyToken(token string) (domain.TokenClaims, error)
}
