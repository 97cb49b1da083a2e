package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/acadly/complaintdesk/internal/core"
	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/domain/model"
	apperrors "github.com/acadly/complaintdesk/internal/errors"
	"github.com/acadly/complaintdesk/internal/observability/metrics"
	"github.com/acadly/complaintdesk/internal/ports"
)

// DefaultSessionTTL is used when AuthServiceOptions.SessionTTL is unset.
const DefaultSessionTTL = 8 * time.Hour

const (
	loginMethodPassword = "password"
	loginMethodSSO      = "sso"
)

// AuthServiceOptions groups dependencies for AuthService. Provider is only
// needed for SSO logins; Hasher only for password logins and registration.
type AuthServiceOptions struct {
	Provider   ports.AuthProvider
	Sessions   ports.SessionStore
	Users      core.UserRepository
	Hasher     ports.PasswordHasher
	Limiter    ports.LoginLimiter
	SessionTTL time.Duration
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	Now        func() time.Time
}

// AuthService orchestrates authentication flows by coordinating the identity
// provider, the user directory, and session persistence.
type AuthService struct {
	provider ports.AuthProvider
	sessions ports.SessionStore
	users    core.UserRepository
	hasher   ports.PasswordHasher
	limiter  ports.LoginLimiter
	ttl      time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

var (
	errSessionExpired = errors.New("session expired")

	// ErrInvalidCredentials is returned for any failed password login.
	ErrInvalidCredentials = apperrors.Unauthorized("invalid email or password")
	// ErrNotProvisioned is returned when an IdP identity has no directory entry.
	ErrNotProvisioned = apperrors.Unauthorized("no account is registered for this identity")
	// ErrSSOUnavailable is returned by the SSO flow when no provider is configured.
	ErrSSOUnavailable = apperrors.Validation("single sign-on is not enabled")
)

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		provider: opts.Provider,
		sessions: opts.Sessions,
		users:    opts.Users,
		hasher:   opts.Hasher,
		limiter:  opts.Limiter,
		ttl:      ttl,
		metrics:  opts.Metrics,
		logger:   logger.With("component", "auth_service"),
		now:      now,
	}
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Session domainauth.Session
	User    *model.User
}

// PasswordLogin checks email and password against the directory and opens a
// session. Failures are counted per email; once the limit is reached further
// attempts are refused until the window passes.
func (s *AuthService) PasswordLogin(ctx context.Context, email, password string) (*LoginResult, error) {
	if s.hasher == nil {
		return nil, errors.New("password login is not configured")
	}
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	if s.limiter != nil {
		ok, retryIn, err := s.limiter.Allow(ctx, email)
		if err != nil {
			s.metrics.RecordLogin(loginMethodPassword, metrics.LoginError)
			return nil, fmt.Errorf("check login limit: %w", err)
		}
		if !ok {
			s.metrics.RecordLogin(loginMethodPassword, metrics.LoginThrottled)
			return nil, apperrors.RateLimited(fmt.Sprintf(
				"too many failed attempts, try again in %s", retryIn.Round(time.Second)))
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil && !apperrors.IsNotFound(err) {
		s.metrics.RecordLogin(loginMethodPassword, metrics.LoginError)
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil || !user.HasPassword() {
		return nil, s.rejectPassword(ctx, email)
	}

	match, err := s.hasher.Verify(password, *user.PasswordHash)
	if err != nil {
		s.logger.WarnContext(ctx, "stored password hash is unreadable", "user_id", user.ID, "error", err)
	}
	if !match {
		return nil, s.rejectPassword(ctx, email)
	}

	if s.limiter != nil {
		if resetErr := s.limiter.Reset(ctx, email); resetErr != nil {
			s.logger.WarnContext(ctx, "reset login limiter failed", "error", resetErr)
		}
	}

	sess, err := s.openSession(ctx, user, time.Time{})
	if err != nil {
		s.metrics.RecordLogin(loginMethodPassword, metrics.LoginError)
		return nil, err
	}
	s.metrics.RecordLogin(loginMethodPassword, metrics.LoginSuccess)
	return &LoginResult{Session: sess, User: user}, nil
}

func (s *AuthService) rejectPassword(ctx context.Context, email string) error {
	s.metrics.RecordLogin(loginMethodPassword, metrics.LoginRejected)
	if s.limiter != nil {
		if err := s.limiter.RecordFailure(ctx, email); err != nil {
			s.logger.WarnContext(ctx, "record login failure failed", "error", err)
		}
	}
	return ErrInvalidCredentials
}

// Register creates a student account with a local password and signs it in.
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*LoginResult, error) {
	if s.hasher == nil {
		return nil, errors.New("password registration is not configured")
	}
	if req == nil {
		return nil, errors.New("register request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.users.Create(ctx, &model.CreateUserRequest{
		Email:         req.Email,
		FullName:      req.FullName,
		Role:          domainauth.RoleStudent,
		StudentNumber: req.StudentNumber,
	}, &hash)
	if err != nil {
		return nil, err
	}

	sess, err := s.openSession(ctx, user, time.Time{})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "student registered", "user_id", user.ID)
	return &LoginResult{Session: sess, User: user}, nil
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an SSO flow and returns the provider auth URL with
// state and nonce. loginHint is optional.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL, loginHint string) (*BeginLoginResult, error) {
	if s.provider == nil {
		return nil, ErrSSOUnavailable
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	input := ports.BeginInput{RedirectURL: redirectURL, LoginHint: strings.TrimSpace(loginHint)}
	authURL, state, nonce, err := s.provider.Begin(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}

	return &BeginLoginResult{
		AuthURL: authURL,
		State:   state,
		Nonce:   nonce,
	}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLogin exchanges the code for an identity, resolves that identity
// to a directory user by email, and persists a session for the user. An
// identity without a directory entry is refused.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*LoginResult, error) {
	if s.provider == nil {
		return nil, ErrSSOUnavailable
	}
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		s.metrics.RecordLogin(loginMethodSSO, metrics.LoginError)
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	user, err := s.users.GetByEmail(ctx, identity.Email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.metrics.RecordLogin(loginMethodSSO, metrics.LoginRejected)
			s.logger.InfoContext(ctx, "sso identity not provisioned", "subject", identity.Subject)
			return nil, ErrNotProvisioned
		}
		s.metrics.RecordLogin(loginMethodSSO, metrics.LoginError)
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	sess, err := s.openSession(ctx, user, identity.ExpiresAt)
	if err != nil {
		s.metrics.RecordLogin(loginMethodSSO, metrics.LoginError)
		return nil, err
	}
	s.metrics.RecordLogin(loginMethodSSO, metrics.LoginSuccess)
	return &LoginResult{Session: sess, User: user}, nil
}

// openSession persists a new session for user. The session lasts for the
// configured TTL, capped at idpExpiry when the IdP supplied one.
func (s *AuthService) openSession(ctx context.Context, user *model.User, idpExpiry time.Time) (domainauth.Session, error) {
	now := s.now().UTC()
	expires := now.Add(s.ttl)
	if !idpExpiry.IsZero() && idpExpiry.Before(expires) && idpExpiry.After(now) {
		expires = idpExpiry.UTC()
	}

	session := domainauth.Session{
		ID:        generateSessionID(),
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		CreatedAt: now,
		ExpiresAt: expires,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return domainauth.Session{}, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// GetSession retrieves a session by ID.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if session.Expired(s.now()) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(errSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, errSessionExpired
	}

	return &session, nil
}

// Logout removes a session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to logout
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// LogoutAll removes every session of a user and returns how many were open.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, errors.New("user ID is required")
	}
	n, err := s.sessions.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	s.logger.InfoContext(ctx, "sessions revoked", "user_id", userID, "count", n)
	return n, nil
}

// generateSessionID creates a cryptographically secure random session ID.
func generateSessionID() string {
	// Use UUID for session ID - it's URL-safe and has good entropy
	id := uuid.New()
	return id.String()
}
