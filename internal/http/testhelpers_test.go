package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	authmocks "github.com/acadly/complaintdesk/internal/mocks/auth"
	"github.com/acadly/complaintdesk/internal/service"
)

// gateEnv bundles an in-memory session store and directory behind a real
// AccessGate.
type gateEnv struct {
	sessions *authmocks.MemorySessionStore
	dir      *authmocks.StaticDirectory
	gate     *service.AccessGate
}

func newGateEnv() *gateEnv {
	sessions := authmocks.NewMemorySessionStore()
	dir := &authmocks.StaticDirectory{Roles: map[string]domainauth.Role{}}
	return &gateEnv{
		sessions: sessions,
		dir:      dir,
		gate:     service.NewAccessGate(service.AccessGateOptions{Sessions: sessions, Directory: dir}),
	}
}

// signIn stores a live session for userID with role and returns its cookie.
func (e *gateEnv) signIn(t *testing.T, userID string, role domainauth.Role) *http.Cookie {
	t.Helper()
	e.dir.Roles[userID] = role
	token := "tok-" + userID
	require.NoError(t, e.sessions.Save(context.Background(), domainauth.Session{
		ID:        token,
		UserID:    userID,
		Email:     userID + "@example.edu",
		FullName:  "Test " + userID,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	return &http.Cookie{Name: SessionCookieName, Value: token}
}

// withPrincipal returns req carrying p in its context, as the gate would.
func withPrincipal(req *http.Request, p domainauth.Principal) *http.Request {
	return req.WithContext(SetPrincipalInContext(req.Context(), &p))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), "body: %s", w.Body.String())
}
