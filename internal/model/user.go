package model

import (
	"fmt"
	"strings"
)

// Role is a user's access level.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole validates a role string. Only "admin" and "user" are accepted.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.TrimSpace(s)); r {
	case RoleAdmin, RoleUser:
		return r, nil
	default:
		return "", fmt.Errorf("invalid role %q", s)
	}
}

// UnmarshalText rejects roles outside the known set, so a malformed
// stored or received user never decodes with an unexpected role.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// IsAdmin reports whether the role grants access to every user's documents.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// User is the account record shared by the API and the dashboard.
// PasswordHash and IsActive never leave the server.
type User struct {
	ID           int64   `json:"id"`
	Email        string  `json:"email"`
	FullName     string  `json:"full_name"`
	Phone        *string `json:"phone,omitempty"`
	Position     *string `json:"position,omitempty"`
	Department   *string `json:"department,omitempty"`
	Role         Role    `json:"role"`
	PasswordHash string  `json:"-"`
	IsActive     bool    `json:"-"`
}

// Initials returns the first letter of each word of the full name.
func (u User) Initials() string {
	var b strings.Builder
	for _, part := range strings.Fields(u.FullName) {
		r := []rune(part)
		b.WriteRune(r[0])
	}
	return strings.ToUpper(b.String())
}
