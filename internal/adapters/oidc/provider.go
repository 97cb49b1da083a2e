// Package oidc signs users in through the institution's identity provider
// using the OpenID Connect authorization code flow.
package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/ports"
)

const (
	wellKnownSuffix   = "/.well-known/openid-configuration"
	randomTokenBytes  = 24
	defaultHTTPTimout = 30 * time.Second
	fallbackTokenTTL  = time.Hour
)

// ProviderConfig holds the client registration at the identity provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Scope is space separated; empty means "openid profile email".
	Scope string
	// DiscoveryURL is the issuer URL, with or without the well-known suffix.
	DiscoveryURL string
	LogoutURL    string
	HTTPClient   *http.Client
}

func (c ProviderConfig) validate() error {
	var missing []string
	for name, v := range map[string]string{
		"client ID":     c.ClientID,
		"client secret": c.ClientSecret,
		"redirect URL":  c.RedirectURL,
		"discovery URL": c.DiscoveryURL,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return fmt.Errorf("oidc: %s required", strings.Join(missing, ", "))
}

// Provider implements ports.AuthProvider.
type Provider struct {
	oauth     oauth2.Config
	idp       *gooidc.Provider
	verifier  *gooidc.IDTokenVerifier
	client    *http.Client
	logoutURL string
	now       func() time.Time
}

var _ ports.AuthProvider = (*Provider)(nil)

// NewProvider fetches the discovery document and returns a ready provider.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	return newProvider(context.Background(), cfg, nil)
}

func newProvider(ctx context.Context, cfg ProviderConfig, verifierCfg *gooidc.Config) (*Provider, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimout}
	}

	issuer := strings.TrimSuffix(strings.TrimSuffix(cfg.DiscoveryURL, "/"), wellKnownSuffix)
	idp, err := gooidc.NewProvider(gooidc.ClientContext(ctx, client), issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	if verifierCfg == nil {
		verifierCfg = &gooidc.Config{}
	}
	verifierCfg.ClientID = cfg.ClientID

	scopes := strings.Fields(cfg.Scope)
	if len(scopes) == 0 {
		scopes = []string{gooidc.ScopeOpenID, "profile", "email"}
	}

	return &Provider{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     idp.Endpoint(),
		},
		idp:       idp,
		verifier:  idp.Verifier(verifierCfg),
		client:    client,
		logoutURL: cfg.LogoutURL,
		now:       time.Now,
	}, nil
}

// LogoutURL returns the IdP end-session URL, if configured.
func (p *Provider) LogoutURL() string { return p.logoutURL }

// Begin returns the IdP authorization URL with fresh state and nonce values.
// The redirect_uri sent is always the registered one.
func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}
	state, err := randomToken()
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomToken()
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	opts := []oauth2.AuthCodeOption{
		gooidc.Nonce(nonce),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	}
	if hint := strings.TrimSpace(in.LoginHint); hint != "" {
		opts = append(opts, oauth2.SetAuthURLParam("login_hint", hint))
	}
	return p.oauth.AuthCodeURL(state, opts...), state, nonce, nil
}

// Exchange redeems the authorization code. Identity fields come from the
// verified ID token first and from the userinfo endpoint for whatever is
// still missing.
func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	switch {
	case in.Code == "":
		return domainauth.Identity{}, errors.New("authorization code is required")
	case in.State == "":
		return domainauth.Identity{}, errors.New("state is required")
	case in.Nonce == "":
		return domainauth.Identity{}, errors.New("nonce is required")
	}

	ctx = gooidc.ClientContext(ctx, p.client)
	tok, err := p.oauth.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("exchange code for token: %w", err)
	}

	var id profile
	if slices.Contains(p.oauth.Scopes, gooidc.ScopeOpenID) {
		if id, err = p.fromIDToken(ctx, tok, in.Nonce); err != nil {
			return domainauth.Identity{}, err
		}
	}
	if id.subject == "" || id.email == "" {
		ui, err := p.idp.UserInfo(ctx, oauth2.StaticTokenSource(tok))
		if err != nil {
			return domainauth.Identity{}, fmt.Errorf("fetch user info: %w", err)
		}
		var c claims
		if err := ui.Claims(&c); err != nil {
			return domainauth.Identity{}, fmt.Errorf("decode user info: %w", err)
		}
		id = id.merge(c.profile())
	}
	if id.email == "" {
		return domainauth.Identity{}, errors.New("identity provider returned no email")
	}

	expires := tok.Expiry
	if expires.IsZero() {
		expires = p.now().Add(fallbackTokenTTL)
	}
	return domainauth.Identity{
		Subject:   id.subject,
		FullName:  id.fullName(),
		Email:     strings.ToLower(id.email),
		ExpiresAt: expires,
	}, nil
}

func (p *Provider) fromIDToken(ctx context.Context, tok *oauth2.Token, nonce string) (profile, error) {
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return profile{}, errors.New("missing id_token in token response")
	}
	idTok, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return profile{}, fmt.Errorf("verify id_token: %w", err)
	}
	if idTok.Nonce != nonce {
		return profile{}, errors.New("id_token nonce mismatch")
	}
	var c claims
	if err := idTok.Claims(&c); err != nil {
		return profile{}, fmt.Errorf("decode id_token claims: %w", err)
	}
	return c.profile(), nil
}

// claims covers standard OIDC claims plus the Azure AD variant where the
// address arrives as upn or preferred_username.
type claims struct {
	Sub               string `json:"sub"`
	Email             string `json:"email"`
	EmailVerified     *bool  `json:"email_verified"`
	Name              string `json:"name"`
	GivenName         string `json:"given_name"`
	FamilyName        string `json:"family_name"`
	PreferredUsername string `json:"preferred_username"`
	UPN               string `json:"upn"`
}

// profile drops an email the IdP marks unverified.
func (c claims) profile() profile {
	email := c.Email
	if c.EmailVerified != nil && !*c.EmailVerified {
		email = ""
	}
	if email == "" {
		if i := slices.IndexFunc([]string{c.UPN, c.PreferredUsername}, func(s string) bool {
			return strings.Contains(s, "@")
		}); i >= 0 {
			email = []string{c.UPN, c.PreferredUsername}[i]
		}
	}
	return profile{subject: c.Sub, email: email, name: c.Name, given: c.GivenName, family: c.FamilyName}
}

type profile struct {
	subject, email, name, given, family string
}

// merge keeps p's values and fills blanks from o.
func (p profile) merge(o profile) profile {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	return profile{
		subject: pick(p.subject, o.subject),
		email:   pick(p.email, o.email),
		name:    pick(p.name, o.name),
		given:   pick(p.given, o.given),
		family:  pick(p.family, o.family),
	}
}

func (p profile) fullName() string {
	if p.name != "" {
		return p.name
	}
	return strings.TrimSpace(p.given + " " + p.family)
}

func randomToken() (string, error) {
	b := make([]byte, randomTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
