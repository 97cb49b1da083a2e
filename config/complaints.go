package config

import "time"

const (
	defaultAttachmentMaxBytes = 10 << 20
	maxAttachmentMaxBytes     = 100 << 20
)

// ComplaintsConfig bounds attachment uploads and analytics caching.
type ComplaintsConfig struct {
	AttachmentMaxBytes int64         `env:"ATTACHMENT_MAX_BYTES" envDefault:"10485760"`
	AnalyticsCacheTTL  time.Duration `env:"ANALYTICS_CACHE_TTL"  envDefault:"1m"`
}

// Sanitize clamps the attachment limit to (0, 100MiB].
func (c *ComplaintsConfig) Sanitize() {
	if c.AttachmentMaxBytes <= 0 {
		c.AttachmentMaxBytes = defaultAttachmentMaxBytes
	}
	if c.AttachmentMaxBytes > maxAttachmentMaxBytes {
		c.AttachmentMaxBytes = maxAttachmentMaxBytes
	}
	if c.AnalyticsCacheTTL < 0 {
		c.AnalyticsCacheTTL = 0
	}
}
