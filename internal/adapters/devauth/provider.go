package devauth

// Package devauth provides a config-driven AuthProvider for local development
// (AUTH_MODE=mock). It short-circuits SSO so each seeded role can be tried
// without an identity provider.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/ports"
)

// Config controls the dev auth provider behavior.
// Email is the default identity; Allowed lists further emails that may be
// selected through the login hint. The directory still decides the role.
type Config struct {
	Email           string
	FullName        string
	Allowed         []string
	SessionDuration time.Duration // default 8h when zero
}

// Provider implements ports.AuthProvider for local development.
// Begin redirects straight back to our own callback with the chosen email
// encoded in the code; Exchange decodes it.
type Provider struct {
	defaultEmail    string
	fullName        string
	allowed         []string
	sessionDuration time.Duration
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	dur := cfg.SessionDuration
	if dur == 0 {
		dur = 8 * time.Hour
	}
	allowed := []string{email}
	for _, a := range cfg.Allowed {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" && !slices.Contains(allowed, a) {
			allowed = append(allowed, a)
		}
	}
	return &Provider{
		defaultEmail:    email,
		fullName:        cfg.FullName,
		allowed:         allowed,
		sessionDuration: dur,
	}, nil
}

// Begin returns a local callback URL and cryptographically secure state and nonce.
func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	email := p.defaultEmail
	if hint := strings.ToLower(strings.TrimSpace(in.LoginHint)); hint != "" {
		if !slices.Contains(p.allowed, hint) {
			return "", "", "", fmt.Errorf("dev auth: %s is not an allowed dev identity", hint)
		}
		email = hint
	}
	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	q := url.Values{}
	q.Set("code", base64.RawURLEncoding.EncodeToString([]byte(email)))
	q.Set("state", state)
	return "/auth/callback?" + q.Encode(), state, nonce, nil
}

// Exchange decodes the email from code (state/nonce validation is done by the
// service) and returns the dev identity.
func (p *Provider) Exchange(_ context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	email := p.defaultEmail
	if in.Code != "" {
		raw, err := base64.RawURLEncoding.DecodeString(in.Code)
		if err != nil {
			return domainauth.Identity{}, fmt.Errorf("dev auth: decode code: %w", err)
		}
		email = string(raw)
	}
	if !slices.Contains(p.allowed, email) {
		return domainauth.Identity{}, fmt.Errorf("dev auth: %s is not an allowed dev identity", email)
	}
	name := p.fullName
	if name == "" || email != p.defaultEmail {
		name = email
	}
	return domainauth.Identity{
		Subject:   "dev:" + email,
		FullName:  name,
		Email:     email,
		ExpiresAt: time.Now().Add(p.sessionDuration),
	}, nil
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, (n*3+3)/4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	for len(s) < n {
		extra := make([]byte, 3)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:n], nil
}
