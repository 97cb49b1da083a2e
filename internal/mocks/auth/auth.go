package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider  = (*MockAuthProvider)(nil)
	_ ports.SessionStore  = (*MemorySessionStore)(nil)
	_ ports.UserDirectory = (*StaticDirectory)(nil)
	_ ports.LoginLimiter  = (*MemoryLoginLimiter)(nil)
)

// MockAuthProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	// Deterministic values for predictable testing
	AuthURL     string
	StatePrefix string
	NoncePrefix string
	DefaultUser domainauth.Identity

	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://mock-idp/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultUser: defaultIdentity(),
	}
}

func defaultIdentity() domainauth.Identity {
	return domainauth.Identity{
		Subject:  "mock-subject-1",
		FullName: "Mock Student",
		Email:    "mock.student@example.edu",
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.callCount++
	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}
	statePrefix := m.StatePrefix
	if statePrefix == "" {
		statePrefix = "state"
	}
	noncePrefix := m.NoncePrefix
	if noncePrefix == "" {
		noncePrefix = "nonce"
	}

	state := fmt.Sprintf("%s-%d", statePrefix, m.callCount)
	nonce := fmt.Sprintf("%s-%d", noncePrefix, m.callCount)
	return authURL, state, nonce, nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	id := m.DefaultUser
	if id.Email == "" {
		id = defaultIdentity()
	}
	id.ExpiresAt = time.Now().Add(time.Hour)
	return id, nil
}

// MemorySessionStore is an in-memory session store for unit tests.
// GetErr, when set, is returned by Get to simulate a backend outage.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
	GetErr   error
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	if m.GetErr != nil {
		return domainauth.Session{}, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok || id == "" || sess.Expired(time.Now()) {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemorySessionStore) DeleteByUser(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// StaticDirectory resolves roles from a fixed map. Err, when set, is returned
// for every lookup.
type StaticDirectory struct {
	Roles map[string]domainauth.Role
	Err   error
	Calls int
}

func (d *StaticDirectory) RoleOf(_ context.Context, userID string) (domainauth.Role, error) {
	d.Calls++
	if d.Err != nil {
		return "", d.Err
	}
	role, ok := d.Roles[userID]
	if !ok {
		return "", ports.ErrUnknownPrincipal
	}
	return role, nil
}

// MemoryLoginLimiter blocks a key after Max recorded failures.
type MemoryLoginLimiter struct {
	Max      int
	Window   time.Duration
	failures map[string]int
}

// NewMemoryLoginLimiter creates a limiter allowing max failures per key.
func NewMemoryLoginLimiter(maxFailures int) *MemoryLoginLimiter {
	return &MemoryLoginLimiter{Max: maxFailures, Window: time.Minute, failures: make(map[string]int)}
}

func (l *MemoryLoginLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	if l.failures[key] >= l.Max {
		return false, l.Window, nil
	}
	return true, 0, nil
}

func (l *MemoryLoginLimiter) RecordFailure(_ context.Context, key string) error {
	if l.failures == nil {
		l.failures = make(map[string]int)
	}
	l.failures[key]++
	return nil
}

func (l *MemoryLoginLimiter) Reset(_ context.Context, key string) error {
	delete(l.failures, key)
	return nil
}

// Failures returns the recorded failure count for key.
func (l *MemoryLoginLimiter) Failures(key string) int { return l.failures[key] }
