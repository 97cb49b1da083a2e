package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Authentication and session configuration
//   - database.go: Postgres and Redis configuration
//   - http.go: HTTP server configuration
//   - complaints.go: Attachment and analytics limits
//   - metrics.go: Prometheus exposition
//   - services.go: Service mode and reaper configuration
type AppConfig struct {
	// IsDev controls development mode behavior (text logs, dev seed, etc.)
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Auth AuthConfig

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	HTTP HTTPConfig

	// Services is a comma-delimited list of service modes to run.
	Services string `env:"SERVICES" envDefault:"http"`

	Reaper ReaperConfig

	Complaints ComplaintsConfig

	Metrics MetricsConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Auth.Sanitize()
	c.HTTP.Sanitize()
	c.Reaper.Sanitize()
	c.Complaints.Sanitize()
	c.Metrics.Sanitize()
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	c.detectDevMode()
}

// Validate reports settings that cannot be corrected by Sanitize.
func (c *AppConfig) Validate() error {
	if _, err := c.GetEnabledServices(); err != nil {
		return err
	}
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if c.Auth.Mode == AuthModeMock && !c.IsDev {
		return errors.New("AUTH_MODE=mock is only allowed in development (set DEV=true)")
	}
	return nil
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	services, err := ParseServices(c.Services)
	if err != nil {
		return nil, fmt.Errorf("SERVICES: %w", err)
	}
	return services, nil
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeHTTP]
}

// IsReaperEnabled returns true if the notification reaper is enabled.
func (c *AppConfig) IsReaperEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeReaper]
}
