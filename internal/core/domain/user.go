package domain

import (
	"strings"
	"time"
)

// Role is the closed set of roles a user may hold.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
)

// Roles lists every valid role, in declaration order.
var Roles = []Role{RoleEmployee, RoleManager}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// User models an account that can own refunds.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// AuthUser is the identity reconstructed from a verified bearer token.
// It is never persisted.
type AuthUser struct {
	ID   string
	Role Role
}

// IsManager reports whether the actor holds the manager role.
func (a AuthUser) IsManager() bool {
	return a.Role == RoleManager
}

// NormalizeEmail case-folds and trims an address so that comparisons and
// the unique index are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
