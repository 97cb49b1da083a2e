package config

import (
	"fmt"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BaseURL is the base URL of the application (e.g., "https://complaints.example.edu").
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`
}

// Sanitize normalises the cookie domain and base URL.
func (h *HTTPConfig) Sanitize() {
	h.CookieDomain = strings.ToLower(strings.TrimSpace(h.CookieDomain))
	h.BaseURL = strings.TrimRight(strings.TrimSpace(h.BaseURL), "/")
}

// Validate rejects a cookie domain that is a public suffix.
func (h *HTTPConfig) Validate() error {
	return ValidateCookieDomain(h.CookieDomain)
}

// ValidateCookieDomain rejects public suffixes such as "co.uk" or "edu",
// which browsers refuse and which would share the session across tenants.
func ValidateCookieDomain(domain string) error {
	d := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if d == "" || d == "localhost" {
		return nil
	}
	suffix, _ := publicsuffix.PublicSuffix(d)
	if suffix == d {
		return fmt.Errorf("APP_COOKIE_DOMAIN %q is a public suffix", domain)
	}
	return nil
}
