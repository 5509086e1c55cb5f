package ports

import (
	"context"

	"github.com/taskboard/task-manager/internal/core/domain"
)

// NewUser carries the fields a repository needs to persist an account.
type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
	Role         domain.Role
}

// UserRepository defines the persistence operations the auth core relies on.
// Lookups return domain.ErrUserNotFound when no account matches; Create returns
// domain.ErrDuplicateKey when the email uniqueness constraint rejects the row.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, user NewUser) (*domain.User, error)
	// FindAll returns every account ordered by name ascending.
	FindAll(ctx context.Context) ([]*domain.User, error)
}
