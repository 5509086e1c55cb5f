package security

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskboard/task-manager/internal/core/domain"
)

// DefaultTokenTTL is the validity window of a session token.
const DefaultTokenTTL = 7 * 24 * time.Hour

var ErrMissingSecret = errors.New("security: token signing secret is required")

type sessionClaims struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager signs HS256 session tokens with a secret injected at construction.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*JWTManager)

// WithClock overrides the time source used for issuance and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *JWTManager) { m.now = now }
}

func NewTokenManager(secret string, ttl time.Duration, opts ...Option) (*JWTManager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	m := &JWTManager{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Issue encodes claims with iat = now and exp = now + ttl. IssuedAt and
// ExpiresAt on the input are ignored.
func (m *JWTManager) Issue(claims domain.TokenClaims) (string, error) {
	now := m.now().UTC().Truncate(time.Second)
	sc := sessionClaims{
		ID:    claims.UserID,
		Email: claims.Email,
		Role:  string(claims.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(claims.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, sc)
	return t.SignedString(m.secret)
}

// Verify checks signature, algorithm and expiry. It returns
// domain.ErrExpiredToken past exp and domain.ErrInvalidToken otherwise.
func (m *JWTManager) Verify(token string) (domain.TokenClaims, error) {
	var sc sessionClaims
	_, err := jwt.ParseWithClaims(token, &sc, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.TokenClaims{}, domain.ErrExpiredToken
		}
		return domain.TokenClaims{}, domain.ErrInvalidToken
	}

	role, err := domain.ParseRole(sc.Role)
	if err != nil {
		return domain.TokenClaims{}, domain.ErrInvalidToken
	}

	out := domain.TokenClaims{
		UserID: sc.ID,
		Email:  sc.Email,
		Role:   role,
	}
	if sc.IssuedAt != nil {
		out.IssuedAt = sc.IssuedAt.Time
	}
	if sc.ExpiresAt != nil {
		out.ExpiresAt = sc.ExpiresAt.Time
	}
	return out, nil
}
