package httpx

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/observability/metrics"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestLogging(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"success logs at info", http.StatusCreated, "level=INFO"},
		{"client error logs at info", http.StatusNotFound, "level=INFO"},
		{"server error logs at error", http.StatusBadGateway, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))
			h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/complaints/mine", nil))

			assert.Equal(t, tt.status, w.Code)
			out := buf.String()
			assert.Contains(t, out, tt.wantLevel)
			assert.Contains(t, out, "path=/api/complaints/mine")
			assert.Contains(t, out, "method=GET")
		})
	}
}

func TestLogging_DefaultStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("hi"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, buf.String(), "status=200")
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := Recover(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	decodeBody(t, w, &body)
	assert.Equal(t, "internal", body["error"])
	assert.NotContains(t, w.Body.String(), "boom")
	assert.Contains(t, buf.String(), "boom")
}

func TestMetrics(t *testing.T) {
	t.Run("records latency", func(t *testing.T) {
		m := metrics.New(prometheus.NewRegistry())
		h := Metrics(m)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/auth/login", nil))

		assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
	})

	t.Run("nil metrics passes through", func(t *testing.T) {
		w := httptest.NewRecorder()
		Metrics(nil)(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

type resolverFunc func(ctx context.Context, token string) (*domainauth.Principal, error)

func (f resolverFunc) ResolvePrincipal(ctx context.Context, token string) (*domainauth.Principal, error) {
	return f(ctx, token)
}

func TestRequireRole(t *testing.T) {
	env := newGateEnv()
	student := env.signIn(t, "stu", domainauth.RoleStudent)
	officer := env.signIn(t, "off", domainauth.RoleDepartmentOfficer)
	admin := env.signIn(t, "adm", domainauth.RoleAdmin)

	tests := []struct {
		name     string
		roles    []domainauth.Role
		cookie   *http.Cookie
		wantCode int
		wantErr  string
	}{
		{"no cookie", nil, nil, http.StatusUnauthorized, "authentication_required"},
		{"unknown token", nil, &http.Cookie{Name: SessionCookieName, Value: "missing"}, http.StatusUnauthorized, "authentication_required"},
		{"any signed in caller", nil, student, http.StatusOK, ""},
		{"role matches", []domainauth.Role{domainauth.RoleStudent}, student, http.StatusOK, ""},
		{"one of several roles", []domainauth.Role{domainauth.RoleDepartmentOfficer, domainauth.RoleAdmin}, admin, http.StatusOK, ""},
		{"wrong role", []domainauth.Role{domainauth.RoleAdmin}, officer, http.StatusForbidden, "insufficient_permissions"},
		{"student on handler route", []domainauth.Role{domainauth.RoleDepartmentOfficer, domainauth.RoleAdmin}, student, http.StatusForbidden, "insufficient_permissions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *domainauth.Principal
			h := RequireRole(env.gate, slog.Default(), tt.roles...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = PrincipalFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/anything", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantErr != "" {
				var body map[string]string
				decodeBody(t, w, &body)
				assert.Equal(t, tt.wantErr, body["error"])
				assert.Nil(t, seen)
				return
			}
			require.NotNil(t, seen)
		})
	}
}

func TestRequireRole_ReusesContextPrincipal(t *testing.T) {
	calls := 0
	resolver := resolverFunc(func(context.Context, string) (*domainauth.Principal, error) {
		calls++
		return nil, errors.New("should not be called")
	})
	h := RequireAuth(resolver, nil)(okHandler())

	req := withPrincipal(httptest.NewRequest(http.MethodGet, "/api/notifications", nil),
		domainauth.Principal{UserID: "u1", Role: domainauth.RoleStudent})
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, calls)
}

func TestRequireRole_BackendErrorIsUnauthorized(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	resolver := resolverFunc(func(context.Context, string) (*domainauth.Principal, error) {
		return nil, errors.New("redis unreachable")
	})
	h := RequireAuth(resolver, logger)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, buf.String(), "principal lookup failed")
}
