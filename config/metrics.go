package config

import "strings"

// MetricsConfig controls the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"METRICS_PATH"    envDefault:"/metrics"`
}

// Sanitize ensures Path is rooted.
func (c *MetricsConfig) Sanitize() {
	c.Path = strings.TrimSpace(c.Path)
	if c.Path == "" {
		c.Path = "/metrics"
	}
	if !strings.HasPrefix(c.Path, "/") {
		c.Path = "/" + c.Path
	}
}
