package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/acadly/complaintdesk/internal/domain/access"
	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/domain/model"
	"github.com/acadly/complaintdesk/internal/service"
)

const (
	oauthStateCookie    = "oauth_state"
	oauthNonceCookie    = "oauth_nonce"
	postLoginCookie     = "post_login_redirect"
	oauthCookieLifetime = 600 // seconds
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	PasswordLogin(ctx context.Context, email, password string) (*service.LoginResult, error)
	Register(ctx context.Context, req *model.RegisterRequest) (*service.LoginResult, error)
	BeginLogin(ctx context.Context, redirectURL, loginHint string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.LoginResult, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc             AuthServiceInterface
	Principals      PrincipalResolver
	Policy          *access.Policy
	PasswordEnabled bool
	SSOEnabled      bool
	CookieDomain    string
	Logger          *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) policy() *access.Policy {
	if h.Policy != nil {
		return h.Policy
	}
	return access.DefaultPolicy()
}

type loginPageModel struct {
	Page            string `json:"page"`
	Role            string `json:"role,omitempty"`
	RedirectTo      string `json:"redirect_to,omitempty"`
	PasswordEnabled bool   `json:"password_enabled"`
	SSOEnabled      bool   `json:"sso_enabled"`
	CSRFToken       string `json:"csrf_token,omitempty"`
}

// LoginPage describes a login page. Signed-in callers never reach it; the
// gate sends them to their home page first.
// GET /login, /admin/login, /department/login.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	m := loginPageModel{
		Page:            "login",
		PasswordEnabled: h.PasswordEnabled,
		SSOEnabled:      h.SSOEnabled,
		CSRFToken:       GetCSRFToken(r),
	}
	if role, ok := h.loginRole(r.URL.Path); ok {
		m.Role = string(role)
	}
	if rt := r.URL.Query().Get(access.RedirectParam); rt != "" {
		m.RedirectTo = safeRedirectPath(rt)
	}
	WriteJSON(w, http.StatusOK, m)
}

// loginRole returns the role whose login page is urlPath.
func (h *AuthHandlers) loginRole(urlPath string) (domainauth.Role, bool) {
	p := h.policy()
	for _, role := range domainauth.Roles() {
		if p.LoginFor(role) == urlPath {
			return role, true
		}
	}
	return "", false
}

type passwordLoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

type loginResponse struct {
	User       *model.User `json:"user"`
	RedirectTo string      `json:"redirect_to"`
	ExpiresAt  time.Time   `json:"expires_at"`
}

// Login signs a user in with email and password.
// POST /auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if !h.PasswordEnabled {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "not_found",
			Err:     errors.New("password login is not enabled"),
		})
		return
	}

	var req passwordLoginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	res, err := h.Svc.PasswordLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteServiceError(w, r, h.logger(), err)
		return
	}

	h.setSessionCookie(w, r, res.Session)
	WriteJSON(w, http.StatusOK, loginResponse{
		User:       res.User,
		RedirectTo: h.postLoginTarget(req.RedirectTo, res.User.Role),
		ExpiresAt:  res.Session.ExpiresAt,
	})
}

// Register creates a student account and signs it in.
// POST /auth/register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	if !h.PasswordEnabled {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "not_found",
			Err:     errors.New("self registration is not enabled"),
		})
		return
	}

	var req model.RegisterRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	res, err := h.Svc.Register(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, r, h.logger(), err)
		return
	}

	h.setSessionCookie(w, r, res.Session)
	WriteJSON(w, http.StatusCreated, loginResponse{
		User:       res.User,
		RedirectTo: h.policy().HomeFor(res.User.Role),
		ExpiresAt:  res.Session.ExpiresAt,
	})
}

// SSOLogin starts the single sign-on flow.
// GET /auth/sso/login?redirectTo=<optional>&login_hint=<optional>.
func (h *AuthHandlers) SSOLogin(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	redirectTo := ""
	if rt := q.Get(access.RedirectParam); rt != "" {
		redirectTo = safeRedirectPath(rt)
	}

	result, err := h.Svc.BeginLogin(r.Context(), nonEmpty(redirectTo, "/"), q.Get("login_hint"))
	if err != nil {
		WriteServiceError(w, r, h.logger(), err)
		return
	}

	h.setOAuthCookies(w, r, oauthCookieParams{State: result.State, Nonce: result.Nonce, RedirectTo: redirectTo})
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback completes the single sign-on flow.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	if state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_state",
			Err:     errors.New("state parameter is required"),
		})
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie(oauthNonceCookie)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	res, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		WriteServiceError(w, r, h.logger(), err)
		return
	}

	h.setSessionCookie(w, r, res.Session)
	h.clearCookie(w, r, oauthStateCookie)
	h.clearCookie(w, r, oauthNonceCookie)

	target := h.postLoginTarget(h.takePostLoginRedirect(w, r), res.User.Role)
	http.Redirect(w, r, target, http.StatusFound)
}

// Logout ends the caller's session.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := h.Svc.Logout(r.Context(), token); err != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", err)
		}
	}
	h.clearCookie(w, r, SessionCookieName)

	target := h.policy().GenericLogin()
	if wantsJSON(r) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "signed_out",
			"redirect_to": target,
		})
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

type statusUser struct {
	ID       string          `json:"id"`
	Email    string          `json:"email"`
	FullName string          `json:"full_name"`
	Role     domainauth.Role `json:"role"`
}

type statusResponse struct {
	Authenticated bool        `json:"authenticated"`
	User          *statusUser `json:"user,omitempty"`
	Home          string      `json:"home,omitempty"`
	ExpiresAt     *time.Time  `json:"expires_at,omitempty"`
	CSRFToken     string      `json:"csrf_token,omitempty"`
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	out := statusResponse{CSRFToken: GetCSRFToken(r)}

	token := sessionToken(r)
	if token == "" {
		WriteJSON(w, http.StatusOK, out)
		return
	}

	sess, err := h.Svc.GetSession(r.Context(), token)
	if err != nil {
		h.clearCookie(w, r, SessionCookieName)
		WriteJSON(w, http.StatusOK, out)
		return
	}
	p, err := h.Principals.ResolvePrincipal(r.Context(), token)
	if err != nil {
		WriteJSON(w, http.StatusOK, out)
		return
	}

	out.Authenticated = true
	out.User = &statusUser{ID: p.UserID, Email: p.Email, FullName: sess.FullName, Role: p.Role}
	out.Home = h.policy().HomeFor(p.Role)
	out.ExpiresAt = &sess.ExpiresAt
	WriteJSON(w, http.StatusOK, out)
}

// postLoginTarget returns candidate when it is a same-origin path that role
// may open, and the role's home page otherwise.
func (h *AuthHandlers) postLoginTarget(candidate string, role domainauth.Role) string {
	p := h.policy()
	home := p.HomeFor(role)
	if candidate == "" {
		return home
	}
	safe := safeRedirectPath(candidate)
	u, err := url.Parse(safe)
	if err != nil {
		return home
	}
	d := p.Evaluate(access.Request{Path: u.Path}, access.SignedIn(role))
	if !d.Allowed() || p.IsLoginPath(u.Path) {
		return home
	}
	return safe
}

// clearCookie clears a cookie by setting it to expire immediately.
// It mirrors the attributes used when setting cookies so browsers match it.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

type oauthCookieParams struct {
	State      string
	Nonce      string
	RedirectTo string
}

// setOAuthCookies stores OAuth state, nonce, and the post-login redirect in short-lived cookies.
func (h *AuthHandlers) setOAuthCookies(w http.ResponseWriter, r *http.Request, p oauthCookieParams) {
	values := [][2]string{{oauthStateCookie, p.State}, {oauthNonceCookie, p.Nonce}}
	if p.RedirectTo != "" {
		values = append(values, [2]string{postLoginCookie, p.RedirectTo})
	}
	for _, kv := range values {
		http.SetCookie(w, &http.Cookie{
			Name:     kv[0],
			Value:    kv[1],
			Path:     "/",
			Domain:   h.CookieDomain,
			HttpOnly: true,
			Secure:   isSecureRequest(r),
			SameSite: http.SameSiteLaxMode,
			MaxAge:   oauthCookieLifetime,
		})
	}
}

// setSessionCookie writes the session cookie based on the session's expiry.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.ID,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
	})
}

// takePostLoginRedirect returns the stored post-login path and clears the cookie.
func (h *AuthHandlers) takePostLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(postLoginCookie)
	if err != nil {
		return ""
	}
	h.clearCookie(w, r, postLoginCookie)
	return c.Value
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	if strings.HasPrefix(candidate, "//") || strings.Contains(candidate, "\\") {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
}

func nonEmpty(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
