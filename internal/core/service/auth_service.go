package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/taskboard/task-manager/internal/core/domain"
	"github.com/taskboard/task-manager/internal/core/ports"
)

// AuthService implements registration, login and admin user management.
// It holds no per-request state.
type AuthService struct {
	repo     ports.UserRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenManager
	throttle ports.LoginThrottle
	log      zerolog.Logger

	// dummyHash is compared on unknown emails so both login failures cost
	// one bcrypt round.
	dummyOnce sync.Once
	dummyHash string
}

type AuthOption func(*AuthService)

// WithLoginThrottle enables failed-login tracking. Without it logins are
// never throttled.
func WithLoginThrottle(t ports.LoginThrottle) AuthOption {
	return func(s *AuthService) { s.throttle = t }
}

func NewAuthService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenManager,
	log zerolog.Logger,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a colaborador account. The role is never taken from the caller.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	email := domain.NormalizeEmail(in.Email)

	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}

	user, err := s.createAccount(ctx, in.Name, email, in.Password, domain.RoleColaborador)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return s.authResult(user)
}

// CreateUser lets an admin create an account with any role. The capability
// check runs before the email lookup so non-admins learn nothing about which
// emails exist.
func (s *AuthService) CreateUser(ctx context.Context, actingUserID int64, in ports.CreateUserInput) (*ports.AuthResult, error) {
	acting, err := s.repo.FindByID(ctx, actingUserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, &domain.RepositoryError{Op: "find user by id", Err: err}
	}

	if !acting.CanManageUsers() {
		s.log.Warn().Int64("acting_user_id", actingUserID).Str("role", string(acting.Role)).Msg("user creation denied")
		return nil, domain.ErrAuthorization
	}

	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	email := domain.NormalizeEmail(in.Email)
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}

	user, err := s.createAccount(ctx, in.Name, email, in.Password, role)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("user_id", user.ID).
		Int64("acting_user_id", actingUserID).
		Str("role", string(user.Role)).
		Msg("user created by admin")
	return s.authResult(user)
}

// Login checks credentials. Unknown email and wrong password produce errors
// with the same message; the distinct kind is only logged.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = domain.NormalizeEmail(email)

	if s.throttle != nil {
		allowed, err := s.throttle.Allowed(ctx, email)
		if err != nil {
			s.log.Warn().Err(err).Msg("login throttle check failed, allowing attempt")
		} else if !allowed {
			return nil, domain.ErrTooManyAttempts
		}
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Verify(password, s.dummyPasswordHash())
			s.loginFailed(ctx, email, "user_not_found")
			return nil, domain.NewCredentialsError(domain.ErrUserNotFound)
		}
		return nil, &domain.RepositoryError{Op: "find user by email", Err: err}
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.loginFailed(ctx, email, "invalid_password")
		return nil, domain.NewCredentialsError(domain.ErrInvalidPassword)
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, email); err != nil {
			s.log.Warn().Err(err).Msg("failed to reset login throttle")
		}
	}

	return s.authResult(user)
}

// GetUsers lists every account by name. Access control for this listing is
// applied by the caller.
func (s *AuthService) GetUsers(ctx context.Context) ([]domain.SafeUser, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, &domain.RepositoryError{Op: "find all users", Err: err}
	}
	return domain.ToSafeList(users), nil
}

func (s *AuthService) VerifyToken(token string) (domain.TokenClaims, error) {
	return s.tokens.Verify(token)
}

// BootstrapAdmin creates the initial admin account unless the email is
// already registered. It reports whether an account was created.
func (s *AuthService) BootstrapAdmin(ctx context.Context, name, email, password string) (bool, error) {
	email = domain.NormalizeEmail(email)

	err := s.ensureEmailFree(ctx, email)
	if errors.Is(err, domain.ErrUserAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	user, err := s.createAccount(ctx, name, email, password, domain.RoleAdmin)
	if errors.Is(err, domain.ErrUserAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.log.Info().Int64("user_id", user.ID).Msg("initial admin created")
	return true, nil
}

func (s *AuthService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return domain.ErrUserAlreadyExists
	case errors.Is(err, domain.ErrUserNotFound):
		return nil
	default:
		return &domain.RepositoryError{Op: "find user by email", Err: err}
	}
}

// createAccount validates the input before hashing so bad input never costs
// a bcrypt round. Only the normalized name and email are persisted.
func (s *AuthService) createAccount(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	name, email, err := domain.ValidateAccount(name, email, role)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, ports.NewUser{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return nil, domain.ErrUserAlreadyExists
		}
		return nil, &domain.RepositoryError{Op: "create user", Err: err}
	}
	return user, nil
}

func (s *AuthService) authResult(user *domain.User) (*ports.AuthResult, error) {
	token, err := s.tokens.Issue(domain.TokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{Token: token, User: user.ToSafe()}, nil
}

func (s *AuthService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("unknown-account-placeholder")
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to prepare dummy password hash")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *AuthService) loginFailed(ctx context.Context, email, reason string) {
	s.log.Info().Str("reason", reason).Msg("login failed")
	if s.throttle == nil {
		return
	}
	if err := s.throttle.RecordFailure(ctx, email); err != nil {
		s.log.Warn().Err(err).Msg("failed to record login failure")
	}
}
