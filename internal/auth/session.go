// Package auth verifies dashboard credentials and carries the resulting
// session explicitly through each call.
package auth

import (
	"errors"
	"time"
)

// Roles stored alongside each credential.
const (
	RoleAdmin  = "admin"
	RoleVendor = "vendor"
)

var (
	// ErrInvalidCredentials is returned for an unknown user or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden is returned when a session lacks the required role.
	ErrForbidden = errors.New("administrator role required")
	// ErrUnauthenticated is returned for a missing, expired or tampered token.
	ErrUnauthenticated = errors.New("authentication required")
)

// Session identifies the caller of a ledger operation.
type Session struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsAdmin reports whether the session may run administrative operations.
func (s Session) IsAdmin() bool {
	return s.Username != "" && s.Role == RoleAdmin
}

// RequireAdmin returns ErrForbidden unless the session is an administrator.
func RequireAdmin(s Session) error {
	if !s.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleVendor
}
