package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/acadly/complaintdesk/config"
)

// logLevel backs the default logger so LOG_LEVEL can be applied after the
// config is loaded.
var logLevel slog.LevelVar

// InitLogger initializes the structured logger.
func InitLogger() *slog.Logger {
	return initLogger(os.Stdout, false)
}

func initLogger(w io.Writer, text bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: &logLevel}
	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if text {
		handler = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ConfigureLogger applies LOG_LEVEL and switches to text output in dev mode.
func ConfigureLogger(cfg *config.AppConfig) (*slog.Logger, error) {
	if cfg == nil {
		return slog.Default(), nil
	}
	if cfg.LogLevel != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return slog.Default(), fmt.Errorf("LOG_LEVEL: %w", err)
		}
		logLevel.Set(lvl)
	}
	if cfg.IsDev {
		return initLogger(os.Stdout, true), nil
	}
	return slog.Default(), nil
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}

// ValidateServiceConfig validates the loaded configuration, including that
// at least one service is enabled.
func ValidateServiceConfig(cfg *config.AppConfig) error {
	if cfg == nil {
		return errors.New("service config is required")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// GetEnabledServices returns the enabled service names in a stable order.
func GetEnabledServices(cfg *config.AppConfig) []string {
	if cfg == nil {
		return []string{}
	}
	services, err := cfg.GetEnabledServices()
	if err != nil {
		// Return empty list on error - validation will catch this
		return []string{}
	}

	enabled := make([]string, 0, len(services))
	for _, mode := range config.ValidServiceModes() {
		if services[mode] {
			enabled = append(enabled, string(mode))
		}
	}
	slices.Sort(enabled)
	return enabled
}
