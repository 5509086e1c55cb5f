package domain

import "time"

// TokenClaims is the identity encoded in a session token.
type TokenClaims struct {
	UserID    int64
	Email     string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}
