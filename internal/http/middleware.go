package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"time"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/observability/metrics"
	"github.com/acadly/complaintdesk/internal/ports"
	"github.com/acadly/complaintdesk/internal/service"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session_id"

// Logging returns a middleware that logs HTTP requests and responses.
// Server errors are logged at error level, everything else at info.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := newRespWriter(w)
			next.ServeHTTP(ww, r)
			level := slog.LevelInfo
			if ww.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(r.Context(), level, "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func newRespWriter(w http.ResponseWriter) *respWriter {
	return &respWriter{ResponseWriter: w, status: http.StatusOK}
}

func (w *respWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.ErrorContext(r.Context(), "panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal", Err: errInternal})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Metrics returns a middleware that records request latency by method and
// status. A nil m disables recording.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := newRespWriter(w)
			next.ServeHTTP(ww, r)
			m.ObserveRequest(r.Method, ww.status, time.Since(start))
		})
	}
}

// PrincipalResolver resolves the caller behind a session token.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, sessionToken string) (*domainauth.Principal, error)
}

// RequireAuth returns a middleware that requires a signed-in caller.
// Unauthenticated API requests get a 401 JSON response.
func RequireAuth(resolver PrincipalResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return RequireRole(resolver, logger)
}

// RequireRole returns a middleware that requires a signed-in caller holding
// one of roles. With no roles any signed-in caller passes. Callers without a
// session get 401; callers with another role get 403.
func RequireRole(
	resolver PrincipalResolver,
	logger *slog.Logger,
	roles ...domainauth.Role,
) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := principalForRequest(r, resolver, logger)
			if !ok {
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errors.New("authentication required"),
				})
				return
			}

			if len(roles) > 0 && !slices.Contains(roles, p.Role) {
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errors.New("insufficient permissions"),
				})
				return
			}

			ctx := SetPrincipalInContext(r.Context(), p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// principalForRequest reuses a principal placed in the context by an outer
// middleware and otherwise resolves the session cookie.
func principalForRequest(r *http.Request, resolver PrincipalResolver, logger *slog.Logger) (*domainauth.Principal, bool) {
	if p, ok := PrincipalFromContext(r.Context()); ok {
		return p, true
	}
	token := sessionToken(r)
	if token == "" {
		return nil, false
	}
	p, err := resolver.ResolvePrincipal(r.Context(), token)
	if err != nil {
		if !errors.Is(err, service.ErrNoSession) && !errors.Is(err, ports.ErrUnknownPrincipal) {
			logger.WarnContext(r.Context(), "principal lookup failed", "path", r.URL.Path, "error", err)
		}
		return nil, false
	}
	return p, true
}

// sessionToken returns the session cookie value or "".
func sessionToken(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
