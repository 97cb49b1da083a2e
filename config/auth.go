package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModePassword authenticates against stored argon2id hashes only.
	AuthModePassword AuthMode = "password"
	// AuthModeOAuth enables OIDC single sign-on alongside password login.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "password", "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: password, oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	LogoutURL    string `env:"LOGOUT_URL"`
}

// DevAuthConfig controls the mock identity used when AUTH_MODE=mock.
// Allowed lists further seeded emails that may be picked via login_hint.
type DevAuthConfig struct {
	Email    string   `env:"EMAIL"     envDefault:"student@example.edu"`
	FullName string   `env:"FULL_NAME" envDefault:"Dev Student"`
	Allowed  []string `env:"ALLOWED"   envDefault:"admin@example.edu;officer@example.edu" envSeparator:";"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"password"`

	// SessionTTL bounds every session regardless of the IdP token expiry.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"8h"`

	// LoginMaxAttempts failed password logins per email lock it for LoginLockoutWindow.
	LoginMaxAttempts   int           `env:"LOGIN_MAX_ATTEMPTS"   envDefault:"5"`
	LoginLockoutWindow time.Duration `env:"LOGIN_LOCKOUT_WINDOW" envDefault:"15m"`

	OAuth   OAuthConfig   `envPrefix:"OAUTH_"`
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
}

// Sanitize clamps session and lockout settings.
func (a *AuthConfig) Sanitize() {
	if a.SessionTTL < time.Minute {
		a.SessionTTL = 8 * time.Hour
	}
	if a.LoginMaxAttempts < 1 {
		a.LoginMaxAttempts = 5
	}
	if a.LoginLockoutWindow <= 0 {
		a.LoginLockoutWindow = 15 * time.Minute
	}
	a.OAuth.DiscoveryURL = strings.TrimSpace(a.OAuth.DiscoveryURL)
	a.DevAuth.Email = strings.ToLower(strings.TrimSpace(a.DevAuth.Email))
}

// Validate checks mode-specific requirements.
func (a *AuthConfig) Validate() error {
	switch a.Mode {
	case AuthModeOAuth:
		var missing []string
		if a.OAuth.DiscoveryURL == "" {
			missing = append(missing, "OAUTH_DISCOVERY_URL")
		}
		if a.OAuth.ClientID == "" {
			missing = append(missing, "OAUTH_CLIENT_ID")
		}
		if a.OAuth.ClientSecret == "" {
			missing = append(missing, "OAUTH_CLIENT_SECRET")
		}
		if len(missing) > 0 {
			return fmt.Errorf("AUTH_MODE=oauth requires %s", strings.Join(missing, ", "))
		}
	case AuthModeMock:
		if a.DevAuth.Email == "" {
			return errors.New("AUTH_MODE=mock requires DEV_AUTH_EMAIL")
		}
	}
	return nil
}
