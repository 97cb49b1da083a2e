package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
)

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
type Role string

const (
	RoleStudent           Role = "student"
	RoleAdmin             Role = "admin"
	RoleDepartmentOfficer Role = "department_officer"
)

// Roles lists every valid role in a stable order.
func Roles() []Role {
	return []Role{RoleStudent, RoleAdmin, RoleDepartmentOfficer}
}

// Valid reports whether r is one of the closed set of roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleAdmin, RoleDepartmentOfficer:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// ParseRole normalizes a role string and reports whether it is supported.
// "officer" and "department-officer" are accepted as aliases for department_officer.
func ParseRole(value string) (Role, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "officer", "department-officer":
		v = string(RoleDepartmentOfficer)
	}
	r := Role(v)
	if !r.Valid() {
		return "", false
	}
	return r, true
}

// Identity represents the authenticated principal returned by an IdP or the
// local password check. Adapters map provider-specific claims into this shape.
type Identity struct {
	Subject   string // provider subject; for local logins this equals the directory user ID
	FullName  string
	Email     string
	ExpiresAt time.Time // absolute expiry from IdP token; zero means use the configured session TTL
}

// Session is the server-side record we persist for an authenticated user.
// ID is the opaque token carried in the session cookie. UserID is the principal:
// the directory user the session belongs to. The role is intentionally absent;
// it is read from the user directory on every request.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }

// Principal is the authenticated caller as seen by handlers: the session
// owner together with the role resolved from the directory for this request.
type Principal struct {
	UserID string
	Email  string
	Role   Role
}

// Is reports whether the principal holds role r.
func (p Principal) Is(r Role) bool { return p.Role == r }
