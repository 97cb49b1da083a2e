package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/domain/model"
	apperrors "github.com/acadly/complaintdesk/internal/errors"
	"github.com/acadly/complaintdesk/internal/mocks"
	authmocks "github.com/acadly/complaintdesk/internal/mocks/auth"
	"github.com/acadly/complaintdesk/internal/ports"
)

// plainHasher stores passwords with a marker prefix so tests can read them.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

func (plainHasher) Verify(password, encoded string) (bool, error) {
	if !strings.HasPrefix(encoded, "plain:") {
		return false, errors.New("unknown hash format")
	}
	return encoded == "plain:"+password, nil
}

// mockSessionStore is a test helper for testing session store errors.
type mockSessionStore struct {
	saveFunc   func(context.Context, domainauth.Session) error
	getFunc    func(context.Context, string) (domainauth.Session, error)
	deleteFunc func(context.Context, string) error
}

func (m *mockSessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, sess)
	}
	return nil
}

func (m *mockSessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return domainauth.Session{}, nil
}

func (m *mockSessionStore) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockSessionStore) DeleteByUser(context.Context, string) (int, error) { return 0, nil }

type authFixture struct {
	provider *authmocks.MockAuthProvider
	sessions *authmocks.MemorySessionStore
	users    *mocks.MockUserRepository
	limiter  *authmocks.MemoryLoginLimiter
	svc      *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &authFixture{
		provider: authmocks.NewMockAuthProvider(),
		sessions: authmocks.NewMemorySessionStore(),
		users:    mocks.NewMockUserRepository(ctrl),
		limiter:  authmocks.NewMemoryLoginLimiter(3),
	}
	f.svc = NewAuthService(AuthServiceOptions{
		Provider:   f.provider,
		Sessions:   f.sessions,
		Users:      f.users,
		Hasher:     plainHasher{},
		Limiter:    f.limiter,
		SessionTTL: time.Hour,
	})
	return f
}

func studentWithPassword(password string) *model.User {
	hash := "plain:" + password
	return &model.User{
		ID:           "user-1",
		Email:        "ada@example.edu",
		FullName:     "Ada Student",
		Role:         domainauth.RoleStudent,
		PasswordHash: &hash,
	}
}

func TestAuthService_PasswordLogin_Success(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.users.EXPECT().GetByEmail(ctx, "ada@example.edu").Return(studentWithPassword("s3cret-pass"), nil)

	res, err := f.svc.PasswordLogin(ctx, "  Ada@Example.edu ", "s3cret-pass")
	require.NoError(t, err)

	assert.Equal(t, "user-1", res.Session.UserID)
	assert.Equal(t, "ada@example.edu", res.Session.Email)
	assert.NotEmpty(t, res.Session.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), res.Session.ExpiresAt, 5*time.Second)
	assert.Equal(t, 1, f.sessions.Len())
}

func TestAuthService_PasswordLogin_WrongPasswordCountsFailure(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.users.EXPECT().GetByEmail(ctx, "ada@example.edu").Return(studentWithPassword("s3cret-pass"), nil)

	_, err := f.svc.PasswordLogin(ctx, "ada@example.edu", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 1, f.limiter.Failures("ada@example.edu"))
	assert.Equal(t, 0, f.sessions.Len())
}

func TestAuthService_PasswordLogin_UnknownEmailLooksLikeWrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.users.EXPECT().GetByEmail(ctx, "nobody@example.edu").Return(nil, apperrors.NotFound("user not found"))

	_, err := f.svc.PasswordLogin(ctx, "nobody@example.edu", "whatever")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 1, f.limiter.Failures("nobody@example.edu"))
}

func TestAuthService_PasswordLogin_SSOOnlyAccount(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u := studentWithPassword("x")
	u.PasswordHash = nil
	f.users.EXPECT().GetByEmail(ctx, "ada@example.edu").Return(u, nil)

	_, err := f.svc.PasswordLogin(ctx, "ada@example.edu", "anything")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_PasswordLogin_Throttled(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	for range 3 {
		require.NoError(t, f.limiter.RecordFailure(ctx, "ada@example.edu"))
	}

	_, err := f.svc.PasswordLogin(ctx, "ada@example.edu", "s3cret-pass")
	require.Error(t, err)
	assert.True(t, apperrors.IsRateLimited(err))
}

func TestAuthService_PasswordLogin_SuccessResetsLimiter(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	require.NoError(t, f.limiter.RecordFailure(ctx, "ada@example.edu"))
	f.users.EXPECT().GetByEmail(ctx, "ada@example.edu").Return(studentWithPassword("s3cret-pass"), nil)

	_, err := f.svc.PasswordLogin(ctx, "ada@example.edu", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, 0, f.limiter.Failures("ada@example.edu"))
}

func TestAuthService_PasswordLogin_EmptyInput(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.PasswordLogin(context.Background(), "", "pw")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.PasswordLogin(context.Background(), "ada@example.edu", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_PasswordLogin_DirectoryError(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.users.EXPECT().GetByEmail(ctx, "ada@example.edu").Return(nil, errors.New("db down"))

	_, err := f.svc.PasswordLogin(ctx, "ada@example.edu", "pw")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 0, f.limiter.Failures("ada@example.edu"))
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.users.EXPECT().
		Create(ctx, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *model.CreateUserRequest, hash *string) (*model.User, error) {
			assert.Equal(t, domainauth.RoleStudent, req.Role)
			assert.Equal(t, "new@example.edu", req.Email)
			require.NotNil(t, hash)
			assert.Equal(t, "plain:long-enough-pw", *hash)
			return &model.User{ID: "user-9", Email: req.Email, FullName: req.FullName, Role: req.Role}, nil
		})

	res, err := f.svc.Register(ctx, &model.RegisterRequest{
		Email:    "New@Example.edu",
		FullName: "New Student",
		Password: "long-enough-pw",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-9", res.Session.UserID)
	assert.Equal(t, 1, f.sessions.Len())
}

func TestAuthService_Register_Validation(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), &model.RegisterRequest{Email: "bad", FullName: "x", Password: "short"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestAuthService_BeginLogin(t *testing.T) {
	f := newAuthFixture(t)
	var got ports.BeginInput
	f.provider.BeginFunc = func(_ context.Context, in ports.BeginInput) (string, string, string, error) {
		got = in
		return "https://idp/auth", "st", "no", nil
	}

	res, err := f.svc.BeginLogin(context.Background(), "https://app/auth/callback", " ada@example.edu ")
	require.NoError(t, err)
	assert.Equal(t, "https://idp/auth", res.AuthURL)
	assert.Equal(t, "st", res.State)
	assert.Equal(t, "no", res.Nonce)
	assert.Equal(t, "ada@example.edu", got.LoginHint)
}

func TestAuthService_BeginLogin_Errors(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.BeginLogin(context.Background(), "", "")
	require.Error(t, err)

	f.provider.BeginFunc = func(context.Context, ports.BeginInput) (string, string, string, error) {
		return "", "", "", errors.New("idp down")
	}
	_, err = f.svc.BeginLogin(context.Background(), "https://app/cb", "")
	require.ErrorContains(t, err, "begin auth flow")
}

func TestAuthService_SSO_NotConfigured(t *testing.T) {
	svc := NewAuthService(AuthServiceOptions{Sessions: authmocks.NewMemorySessionStore()})

	_, err := svc.BeginLogin(context.Background(), "https://app/cb", "")
	require.ErrorIs(t, err, ErrSSOUnavailable)
	_, err = svc.CompleteLogin(context.Background(), CompleteLoginInput{Code: "c", State: "s", Nonce: "n"})
	require.ErrorIs(t, err, ErrSSOUnavailable)
}

func TestAuthService_CompleteLogin_ResolvesDirectoryUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	officerDept := "dept-1"
	f.users.EXPECT().GetByEmail(ctx, "mock.student@example.edu").Return(&model.User{
		ID:           "user-42",
		Email:        "mock.student@example.edu",
		FullName:     "Directory Name",
		Role:         domainauth.RoleDepartmentOfficer,
		DepartmentID: &officerDept,
	}, nil)

	res, err := f.svc.CompleteLogin(ctx, CompleteLoginInput{Code: "code", State: "state", Nonce: "nonce"})
	require.NoError(t, err)
	assert.Equal(t, "user-42", res.Session.UserID)
	assert.Equal(t, "Directory Name", res.Session.FullName)
	assert.Equal(t, domainauth.RoleDepartmentOfficer, res.User.Role)

	stored, err := f.sessions.Get(ctx, res.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-42", stored.UserID)
}

func TestAuthService_CompleteLogin_ExpiryCappedByIdP(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	idpExpiry := time.Now().Add(10 * time.Minute)
	f.provider.ExchangeFunc = func(context.Context, ports.ExchangeInput) (domainauth.Identity, error) {
		return domainauth.Identity{Subject: "s", Email: "ada@example.edu", ExpiresAt: idpExpiry}, nil
	}
	f.users.EXPECT().GetByEmail(ctx, "ada@example.edu").Return(studentWithPassword("x"), nil)

	res, err := f.svc.CompleteLogin(ctx, CompleteLoginInput{Code: "c", State: "s", Nonce: "n"})
	require.NoError(t, err)
	assert.WithinDuration(t, idpExpiry, res.Session.ExpiresAt, time.Second)
}

func TestAuthService_CompleteLogin_NotProvisioned(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.users.EXPECT().GetByEmail(ctx, "mock.student@example.edu").Return(nil, apperrors.NotFound("user not found"))

	_, err := f.svc.CompleteLogin(ctx, CompleteLoginInput{Code: "c", State: "s", Nonce: "n"})
	require.ErrorIs(t, err, ErrNotProvisioned)
	assert.Equal(t, 0, f.sessions.Len())
}

func TestAuthService_CompleteLogin_ValidationErrors(t *testing.T) {
	f := newAuthFixture(t)
	tests := []struct {
		name  string
		input CompleteLoginInput
		want  string
	}{
		{"missing code", CompleteLoginInput{State: "s", Nonce: "n"}, "authorization code is required"},
		{"missing state", CompleteLoginInput{Code: "c", Nonce: "n"}, "state parameter is required"},
		{"missing nonce", CompleteLoginInput{Code: "c", State: "s"}, "nonce parameter is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CompleteLogin(context.Background(), tt.input)
			require.EqualError(t, err, tt.want)
		})
	}
}

func TestAuthService_CompleteLogin_SaveError(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)
	users.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(studentWithPassword("x"), nil)
	svc := NewAuthService(AuthServiceOptions{
		Provider: authmocks.NewMockAuthProvider(),
		Sessions: &mockSessionStore{saveFunc: func(context.Context, domainauth.Session) error {
			return errors.New("redis down")
		}},
		Users: users,
	})

	_, err := svc.CompleteLogin(context.Background(), CompleteLoginInput{Code: "c", State: "s", Nonce: "n"})
	require.ErrorContains(t, err, "save session")
}

func TestAuthService_GetSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sessions.Save(ctx, domainauth.Session{ID: "s1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}))

	sess, err := f.svc.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UserID)

	_, err = f.svc.GetSession(ctx, "")
	require.Error(t, err)

	_, err = f.svc.GetSession(ctx, "missing")
	require.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestAuthService_GetSession_ExpiredIsDeleted(t *testing.T) {
	deleted := ""
	store := &mockSessionStore{
		getFunc: func(_ context.Context, id string) (domainauth.Session, error) {
			return domainauth.Session{ID: id, ExpiresAt: time.Now().Add(-time.Minute)}, nil
		},
		deleteFunc: func(_ context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	svc := NewAuthService(AuthServiceOptions{Sessions: store})

	_, err := svc.GetSession(context.Background(), "old")
	require.ErrorIs(t, err, errSessionExpired)
	assert.Equal(t, "old", deleted)
}

func TestAuthService_LogoutAndLogoutAll(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)
	require.NoError(t, f.sessions.Save(ctx, domainauth.Session{ID: "a", UserID: "u1", ExpiresAt: exp}))
	require.NoError(t, f.sessions.Save(ctx, domainauth.Session{ID: "b", UserID: "u1", ExpiresAt: exp}))
	require.NoError(t, f.sessions.Save(ctx, domainauth.Session{ID: "c", UserID: "u2", ExpiresAt: exp}))

	require.NoError(t, f.svc.Logout(ctx, ""))
	require.NoError(t, f.svc.Logout(ctx, "c"))
	assert.Equal(t, 2, f.sessions.Len())

	n, err := f.svc.LogoutAll(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, f.sessions.Len())

	_, err = f.svc.LogoutAll(ctx, "")
	require.Error(t, err)
}

func TestAuthService_Logout_StoreError(t *testing.T) {
	svc := NewAuthService(AuthServiceOptions{Sessions: &mockSessionStore{
		deleteFunc: func(context.Context, string) error { return errors.New("boom") },
	}})

	err := svc.Logout(context.Background(), "s")
	require.ErrorContains(t, err, "delete session")
}

func TestGenerateSessionID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := generateSessionID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}
