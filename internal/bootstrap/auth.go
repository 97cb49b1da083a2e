package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/acadly/complaintdesk/config"
	"github.com/acadly/complaintdesk/internal/adapters/devauth"
	"github.com/acadly/complaintdesk/internal/adapters/oidc"
	"github.com/acadly/complaintdesk/internal/adapters/password"
	redisadapter "github.com/acadly/complaintdesk/internal/adapters/redis"
	"github.com/acadly/complaintdesk/internal/core"
	"github.com/acadly/complaintdesk/internal/observability/metrics"
	"github.com/acadly/complaintdesk/internal/ports"
	"github.com/acadly/complaintdesk/internal/service"
)

const (
	sessionKeyPrefix = "session:"
	loginKeyPrefix   = "login:fail:"
)

// AuthConfig contains configuration for auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	Users       core.UserRepository
	Hasher      ports.PasswordHasher
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// AuthBundle is the auth service plus the session store it writes, which the
// access gate and user admin share.
type AuthBundle struct {
	Service  *service.AuthService
	Sessions *redisadapter.SessionStore
	SSO      bool
}

// BuildAuthService creates an auth service for the configured auth mode.
// Password login is always available; oauth and mock add an SSO provider.
func BuildAuthService(cfg AuthConfig) (AuthBundle, error) {
	if cfg.RedisClient == nil {
		return AuthBundle{}, errors.New("auth: redis client is required for sessions")
	}
	if cfg.Users == nil {
		return AuthBundle{}, errors.New("auth: user repository is required")
	}
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = password.NewArgon2idHasher()
	}

	sessions := NewSessionStore(cfg.RedisClient)
	limiter := redisadapter.NewLoginLimiter(cfg.RedisClient, redisadapter.LoginLimiterOptions{
		MaxAttempts: cfg.Auth.LoginMaxAttempts,
		Window:      cfg.Auth.LoginLockoutWindow,
		Prefix:      loginKeyPrefix,
	})

	provider, err := buildProvider(cfg.Auth)
	if err != nil {
		return AuthBundle{}, err
	}
	if provider != nil && cfg.Logger != nil {
		cfg.Logger.Info("single sign-on enabled", "mode", cfg.Auth.Mode)
	}

	svc := service.NewAuthService(service.AuthServiceOptions{
		Provider:   provider,
		Sessions:   sessions,
		Users:      cfg.Users,
		Hasher:     hasher,
		Limiter:    limiter,
		SessionTTL: cfg.Auth.SessionTTL,
		Metrics:    cfg.Metrics,
		Logger:     cfg.Logger,
	})

	return AuthBundle{Service: svc, Sessions: sessions, SSO: provider != nil}, nil
}

// NewSessionStore returns the Redis session store under the server's key prefix.
func NewSessionStore(client redis.UniversalClient) *redisadapter.SessionStore {
	return redisadapter.NewSessionStoreWithPrefix(client, sessionKeyPrefix)
}

//nolint:ireturn // the provider is chosen by mode at runtime.
func buildProvider(auth config.AuthConfig) (ports.AuthProvider, error) {
	switch auth.Mode {
	case config.AuthModeMock:
		prov, err := devauth.NewProvider(devauth.Config{
			Email:           auth.DevAuth.Email,
			FullName:        auth.DevAuth.FullName,
			Allowed:         auth.DevAuth.Allowed,
			SessionDuration: auth.SessionTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("create dev auth provider: %w", err)
		}
		return prov, nil

	case config.AuthModeOAuth:
		oauth := auth.OAuth
		prov, err := oidc.NewProvider(oidc.ProviderConfig{
			ClientID:     oauth.ClientID,
			ClientSecret: oauth.ClientSecret,
			RedirectURL:  oauth.RedirectURL,
			Scope:        oauth.Scope,
			DiscoveryURL: oauth.DiscoveryURL,
			LogoutURL:    oauth.LogoutURL,
		})
		if err != nil {
			return nil, fmt.Errorf("create OIDC provider: %w", err)
		}
		return prov, nil

	default:
		return nil, nil
	}
}
