package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeReaper runs the notification retention reaper.
	ServiceModeReaper ServiceMode = "reaper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{ServiceModeHTTP, ServiceModeReaper}
}

// ParseServices parses a comma-separated SERVICES value. Names are
// case-insensitive and blanks between commas are skipped.
func ParseServices(raw string) (map[ServiceMode]bool, error) {
	valid := ValidServiceModes()
	enabled := make(map[ServiceMode]bool, len(valid))
	for part := range strings.SplitSeq(raw, ",") {
		name := ServiceMode(strings.ToLower(strings.TrimSpace(part)))
		if name == "" {
			continue
		}
		if !slices.Contains(valid, name) {
			return nil, fmt.Errorf("invalid service name: %q (valid options: %s)", name, joinModes(valid))
		}
		enabled[name] = true
	}
	if len(enabled) == 0 {
		return nil, errors.New("at least one service must be specified")
	}
	return enabled, nil
}

func joinModes(modes []ServiceMode) string {
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// ReaperConfig contains notification reaper configuration.
type ReaperConfig struct {
	// Interval is the reaper tick interval.
	Interval time.Duration `env:"REAPER_INTERVAL" envDefault:"1h"`

	// ReadMaxAge is how long a read notification is kept before deletion.
	ReadMaxAge time.Duration `env:"REAPER_READ_MAX_AGE" envDefault:"720h"` // 30 days

	// UnreadMaxAge removes notifications nobody opened; zero keeps them forever.
	UnreadMaxAge time.Duration `env:"REAPER_UNREAD_MAX_AGE" envDefault:"0"`

	// BatchSize is the maximum number of rows deleted per statement.
	// Batching prevents long locks and I/O spikes on large tables.
	BatchSize int `env:"REAPER_BATCH_SIZE" envDefault:"1000"`
}

// Sanitize applies guardrails to reaper configuration values.
func (r *ReaperConfig) Sanitize() {
	// Enforce minimum intervals to prevent excessive database load
	if r.Interval < time.Minute {
		r.Interval = time.Minute
	}
	if r.ReadMaxAge < 24*time.Hour {
		r.ReadMaxAge = 24 * time.Hour
	}
	if r.UnreadMaxAge < 0 {
		r.UnreadMaxAge = 0
	}
	if r.UnreadMaxAge > 0 && r.UnreadMaxAge < r.ReadMaxAge {
		r.UnreadMaxAge = r.ReadMaxAge
	}

	if r.BatchSize < 1 {
		r.BatchSize = 1
	}
	if r.BatchSize > 10000 {
		r.BatchSize = 10000
	}
}
