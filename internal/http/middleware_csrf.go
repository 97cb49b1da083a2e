package httpx

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultCSRFCookieName  = "csrf_token"
	DefaultCSRFHeaderName  = "X-Csrf-Token"
	DefaultCSRFTokenLength = 32

	csrfCookieTTL = 12 * time.Hour
)

var errCSRFMismatch = errors.New("CSRF token missing or invalid")

// CSRFConfig configures CSRFProtection. Zero fields take the Default* values.
type CSRFConfig struct {
	CookieName   string
	HeaderName   string
	CookieDomain string
	TokenLength  int
}

type csrfGuard struct {
	CSRFConfig
}

// CSRFProtection implements double-submit cookies. Every response without a
// token cookie gets one. An unsafe request carrying a session cookie must echo
// the cookie value in the CSRF header; without a session there is nothing for
// a cross-site request to ride on, so it passes.
func CSRFProtection(cfg CSRFConfig) func(http.Handler) http.Handler {
	g := csrfGuard{cfg}
	if g.CookieName == "" {
		g.CookieName = DefaultCSRFCookieName
	}
	if g.HeaderName == "" {
		g.HeaderName = DefaultCSRFHeaderName
	}
	if g.TokenLength <= 0 {
		g.TokenLength = DefaultCSRFTokenLength
	}
	return g.wrap
}

func (g csrfGuard) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sent := g.cookieToken(r)
		token := sent
		if token == "" {
			var err error
			if token, err = newCSRFToken(g.TokenLength); err != nil {
				WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal", Err: errInternal})
				return
			}
			g.issue(w, r, token)
		}

		if isUnsafeMethod(r.Method) && sessionToken(r) != "" && !tokensMatch(sent, r.Header.Get(g.HeaderName)) {
			WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "csrf_failed", Err: errCSRFMismatch})
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfTokenKey{}, token)))
	})
}

func (g csrfGuard) cookieToken(r *http.Request) string {
	if c, err := r.Cookie(g.CookieName); err == nil {
		return c.Value
	}
	return ""
}

func (g csrfGuard) issue(w http.ResponseWriter, r *http.Request, token string) {
	// Not HttpOnly: the client reads it to fill the header.
	http.SetCookie(w, &http.Cookie{
		Name:     g.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   g.CookieDomain,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(csrfCookieTTL.Seconds()),
	})
}

func isUnsafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	}
	return true
}

func tokensMatch(cookie, header string) bool {
	return cookie != "" && header != "" && subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) == 1
}

func newCSRFToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// isSecureRequest reports whether the request arrived over HTTPS, directly or
// behind a proxy that set X-Forwarded-Proto.
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	for proto := range strings.SplitSeq(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}

type csrfTokenKey struct{}

// GetCSRFToken returns the token CSRFProtection issued or accepted for r.
func GetCSRFToken(r *http.Request) string {
	token, _ := r.Context().Value(csrfTokenKey{}).(string)
	return token
}
