package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleGestor      Role = "gestor"
	RoleColaborador Role = "colaborador"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleGestor, RoleColaborador}

// ParseRole converts s into a Role, rejecting anything outside Roles.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", &ValidationError{Field: "role", Reason: "must be one of: admin, gestor, colaborador"}
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleGestor, RoleColaborador:
		return true
	}
	return false
}

// CanManageUsers reports whether the role may create accounts and list all users.
func (r Role) CanManageUsers() bool {
	return r == RoleAdmin
}

var emailValidator = validator.New()

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// User is an account as stored by the persistence layer. It never carries a
// plaintext password.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SafeUser is the projection of User returned across the service boundary.
type SafeUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// ValidateAccount checks the caller-supplied fields of an account and returns
// the trimmed name and normalized email to persist.
func ValidateAccount(name, email string, role Role) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", &ValidationError{Field: "name", Reason: "is required"}
	}
	email = NormalizeEmail(email)
	if err := emailValidator.Var(email, "required,email"); err != nil {
		return "", "", &ValidationError{Field: "email", Reason: "must be a valid email"}
	}
	if !role.Valid() {
		return "", "", &ValidationError{Field: "role", Reason: "must be one of: admin, gestor, colaborador"}
	}
	return name, email, nil
}

// ValidatePassword rejects plaintext passwords bcrypt cannot hash.
func ValidatePassword(password string) error {
	if password == "" {
		return &ValidationError{Field: "password", Reason: "is required"}
	}
	if len(password) > MaxPasswordBytes {
		return &ValidationError{Field: "password", Reason: fmt.Sprintf("must be at most %d bytes", MaxPasswordBytes)}
	}
	return nil
}

// NewUser builds a User after checking every field. The email is normalized.
func NewUser(id int64, name, email, passwordHash string, role Role) (*User, error) {
	name, email, err := ValidateAccount(name, email, role)
	if err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, &ValidationError{Field: "password_hash", Reason: "is required"}
	}

	return &User{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}, nil
}

// WithTimestamps sets the audit timestamps and returns u.
func (u *User) WithTimestamps(createdAt, updatedAt time.Time) *User {
	u.CreatedAt = createdAt
	u.UpdatedAt = updatedAt
	return u
}

func (u *User) CanManageUsers() bool {
	return u.Role.CanManageUsers()
}

// ToSafe strips the password hash.
func (u *User) ToSafe() SafeUser {
	return SafeUser{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// ToSafeList projects every user in users.
func ToSafeList(users []*User) []SafeUser {
	out := make([]SafeUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToSafe())
	}
	return out
}
