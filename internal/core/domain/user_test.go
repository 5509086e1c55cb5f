package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNewUser_NormalizesEmail(t *testing.T) {
	u, err := NewUser(1, "  Alice ", " Alice@Example.COM ", "hash", RoleColaborador)
	if err != nil {
		t.Fatalf("NewUser returned error: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", u.Email)
	}
	if u.Name != "Alice" {
		t.Fatalf("expected trimmed name, got %q", u.Name)
	}
}

func TestNewUser_Validation(t *testing.T) {
	cases := []struct {
		name  string
		uname string
		email string
		hash  string
		role  Role
		field string
	}{
		{"empty name", " ", "a@x.com", "hash", RoleAdmin, "name"},
		{"bad email", "A", "not-an-email", "hash", RoleAdmin, "email"},
		{"empty email", "A", "", "hash", RoleAdmin, "email"},
		{"empty hash", "A", "a@x.com", "", RoleAdmin, "password_hash"},
		{"unknown role", "A", "a@x.com", "hash", Role("superuser"), "role"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewUser(1, tc.uname, tc.email, tc.hash, tc.role)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, ve.Field)
			}
		})
	}
}

func TestValidateAccount_Normalizes(t *testing.T) {
	name, email, err := ValidateAccount("  Zed  ", " ZED@Example.com ", RoleGestor)
	if err != nil {
		t.Fatalf("ValidateAccount returned error: %v", err)
	}
	if name != "Zed" || email != "zed@example.com" {
		t.Fatalf("unexpected normalized values: %q %q", name, email)
	}
}

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		pw string
		ok bool
	}{
		{"", false},
		{"secret", true},
		{strings.Repeat("a", MaxPasswordBytes), true},
		{strings.Repeat("a", MaxPasswordBytes+1), false},
	}
	for _, tc := range cases {
		pw, ok := tc.pw, tc.ok
		err := ValidatePassword(pw)
		if ok && err != nil {
			t.Fatalf("ValidatePassword(len %d) = %v, want nil", len(pw), err)
		}
		var ve *ValidationError
		if !ok && (!errors.As(err, &ve) || ve.Field != "password") {
			t.Fatalf("ValidatePassword(len %d) = %v, want password ValidationError", len(pw), err)
		}
	}
}

func TestParseRole(t *testing.T) {
	for _, r := range Roles {
		got, err := ParseRole(string(r))
		if err != nil || got != r {
			t.Fatalf("ParseRole(%q) = %q, %v", r, got, err)
		}
	}
	if _, err := ParseRole("Admin"); err == nil {
		t.Fatalf("expected role parsing to be case-sensitive")
	}
}

func TestCanManageUsers(t *testing.T) {
	want := map[Role]bool{
		RoleAdmin:       true,
		RoleGestor:      false,
		RoleColaborador: false,
	}
	for role, expected := range want {
		u, err := NewUser(1, "A", "a@x.com", "hash", role)
		if err != nil {
			t.Fatalf("NewUser: %v", err)
		}
		if u.CanManageUsers() != expected {
			t.Fatalf("role %s: expected %v", role, expected)
		}
	}
}

func TestToSafe_OmitsPasswordHash(t *testing.T) {
	for _, role := range Roles {
		u, err := NewUser(7, "Bob", "bob@x.com", "$2a$10$secret-hash", role)
		if err != nil {
			t.Fatalf("NewUser: %v", err)
		}

		raw, err := json.Marshal(u.ToSafe())
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if strings.Contains(string(raw), "secret-hash") || strings.Contains(string(raw), "password") {
			t.Fatalf("safe view leaks password: %s", raw)
		}

		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(fields) != 4 || fields["email"] != "bob@x.com" || fields["role"] != string(role) {
			t.Fatalf("unexpected safe view: %v", fields)
		}
	}
}

func TestUserJSON_HidesHash(t *testing.T) {
	u, _ := NewUser(1, "A", "a@x.com", "topsecret", RoleAdmin)
	raw, _ := json.Marshal(u)
	if strings.Contains(string(raw), "topsecret") {
		t.Fatalf("user json leaks hash: %s", raw)
	}
}

func TestCredentialsError(t *testing.T) {
	notFound := NewCredentialsError(ErrUserNotFound)
	badPassword := NewCredentialsError(ErrInvalidPassword)

	if notFound.Error() != badPassword.Error() {
		t.Fatalf("messages differ: %q vs %q", notFound, badPassword)
	}
	if !errors.Is(notFound, ErrInvalidCredentials) || !errors.Is(notFound, ErrUserNotFound) {
		t.Fatalf("not-found credentials error does not match its kinds")
	}
	if !errors.Is(badPassword, ErrInvalidPassword) || errors.Is(badPassword, ErrUserNotFound) {
		t.Fatalf("bad-password credentials error matches the wrong kinds")
	}
}

func TestRepositoryError_Unwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(&RepositoryError{Op: "find user by id", Err: cause})
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable")
	}
	if err.Error() != "find user by id: connection refused" {
		t.Fatalf("unexpected message: %q", err)
	}
}
