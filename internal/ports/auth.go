package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
)

var (
	// ErrSessionNotFound is returned by SessionStore.Get for missing or expired sessions.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUnknownPrincipal is returned by UserDirectory when the principal has no directory entry.
	ErrUnknownPrincipal = errors.New("unknown principal")
)

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
	// LoginHint is an optional email forwarded to the IdP to preselect an account.
	LoginHint string
}

// AuthProvider initiates and completes an authentication flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteByUser removes every session of userID and returns how many were removed.
	DeleteByUser(ctx context.Context, userID string) (int, error)
}

// UserDirectory resolves the current role of a principal.
type UserDirectory interface {
	RoleOf(ctx context.Context, userID string) (domainauth.Role, error)
}

// PasswordHasher hashes and verifies local passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// LoginLimiter throttles failed password attempts per key (normally the email).
type LoginLimiter interface {
	// Allow reports whether another attempt is permitted and, if not, how long until it is.
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}
