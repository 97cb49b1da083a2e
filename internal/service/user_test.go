package service

import (
	"context"
	"errors"
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
)

const testDeptID = "7b0a3a1e-4f7e-4d55-9a57-2d3c1b0f0a11"

func newUserService(t *testing.T) (*mocks.MockUserRepository, *authmocks.MemorySessionStore, *UserService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockUserRepository(ctrl)
	sessions := authmocks.NewMemorySessionStore()
	svc := NewUserService(UserServiceOptions{Repo: repo, Hasher: plainHasher{}, Sessions: sessions})
	return repo, sessions, svc
}

func TestUserService_Create_HashesPassword(t *testing.T) {
	repo, _, svc := newUserService(t)
	ctx := context.Background()
	req := &model.CreateUserRequest{
		Email:        "Officer@Example.edu",
		FullName:     "Olu Officer",
		Role:         domainauth.RoleDepartmentOfficer,
		DepartmentID: stringPtr(testDeptID),
		Password:     "correct-horse",
	}

	repo.EXPECT().Create(ctx, req, gomock.Any()).
		DoAndReturn(func(_ context.Context, r *model.CreateUserRequest, hash *string) (*model.User, error) {
			require.NotNil(t, hash)
			assert.Equal(t, "plain:correct-horse", *hash)
			assert.Equal(t, "officer@example.edu", r.Email)
			return &model.User{ID: "u1", Email: r.Email, Role: r.Role, DepartmentID: r.DepartmentID}, nil
		})

	u, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestUserService_Create_WithoutPassword(t *testing.T) {
	repo, _, svc := newUserService(t)
	ctx := context.Background()
	req := &model.CreateUserRequest{Email: "sso@example.edu", FullName: "SSO Admin", Role: domainauth.RoleAdmin}

	repo.EXPECT().Create(ctx, req, (*string)(nil)).Return(&model.User{ID: "u2"}, nil)

	_, err := svc.Create(ctx, req)
	require.NoError(t, err)
}

func TestUserService_Create_OfficerNeedsDepartment(t *testing.T) {
	_, _, svc := newUserService(t)

	_, err := svc.Create(context.Background(), &model.CreateUserRequest{
		Email:    "o@example.edu",
		FullName: "O",
		Role:     domainauth.RoleDepartmentOfficer,
	})
	require.Error(t, err)
	assert.Equal(t, "department_id", apperrors.GetField(err))
}

func TestUserService_SetRole(t *testing.T) {
	repo, _, svc := newUserService(t)
	ctx := context.Background()

	repo.EXPECT().Update(ctx, "u1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req model.UpdateUserRequest) (*model.User, error) {
			require.NotNil(t, req.Role)
			assert.Equal(t, domainauth.RoleAdmin, *req.Role)
			assert.True(t, req.ClearDepartment)
			assert.Nil(t, req.DepartmentID)
			return &model.User{ID: "u1", Role: domainauth.RoleAdmin}, nil
		})
	_, err := svc.SetRole(ctx, "u1", domainauth.RoleAdmin, "")
	require.NoError(t, err)

	repo.EXPECT().Update(ctx, "u2", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req model.UpdateUserRequest) (*model.User, error) {
			require.NotNil(t, req.DepartmentID)
			assert.Equal(t, testDeptID, *req.DepartmentID)
			assert.False(t, req.ClearDepartment)
			return &model.User{ID: "u2"}, nil
		})
	_, err = svc.SetRole(ctx, "u2", domainauth.RoleDepartmentOfficer, testDeptID)
	require.NoError(t, err)
}

func TestUserService_ResetPassword_RevokesSessions(t *testing.T) {
	repo, sessions, svc := newUserService(t)
	ctx := context.Background()
	require.NoError(t, sessions.Save(ctx, domainauth.Session{ID: "s1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}))

	repo.EXPECT().SetPassword(ctx, "u1", "plain:new-password").Return(nil)

	require.NoError(t, svc.ResetPassword(ctx, "u1", "new-password"))
	assert.Equal(t, 0, sessions.Len())
}

func TestUserService_ResetPassword_TooShort(t *testing.T) {
	_, _, svc := newUserService(t)

	err := svc.ResetPassword(context.Background(), "u1", "short")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestUserService_ResetPassword_RepoError(t *testing.T) {
	repo, sessions, svc := newUserService(t)
	ctx := context.Background()
	require.NoError(t, sessions.Save(ctx, domainauth.Session{ID: "s1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}))
	repo.EXPECT().SetPassword(ctx, "u1", gomock.Any()).Return(errors.New("db down"))

	require.Error(t, svc.ResetPassword(ctx, "u1", "new-password"))
	assert.Equal(t, 1, sessions.Len())
}

func TestUserService_Delete(t *testing.T) {
	repo, sessions, svc := newUserService(t)
	ctx := context.Background()
	require.NoError(t, sessions.Save(ctx, domainauth.Session{ID: "s1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}))

	repo.EXPECT().Delete(ctx, "u1").Return(true, nil)
	ok, err := svc.Delete(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, sessions.Len())

	repo.EXPECT().Delete(ctx, "missing").Return(false, nil)
	ok, err = svc.Delete(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserService_PassThrough(t *testing.T) {
	repo, _, svc := newUserService(t)
	ctx := context.Background()
	role := domainauth.RoleStudent
	opts := model.UserListOptions{Role: &role, Limit: 20}

	repo.EXPECT().List(ctx, opts).Return([]*model.User{{ID: "a"}}, nil)
	repo.EXPECT().GetByID(ctx, "a").Return(&model.User{ID: "a"}, nil)
	repo.EXPECT().GetByEmail(ctx, "a@example.edu").Return(&model.User{ID: "a"}, nil)

	list, err := svc.List(ctx, opts)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	_, err = svc.GetByID(ctx, "a")
	require.NoError(t, err)
	_, err = svc.GetByEmail(ctx, "a@example.edu")
	require.NoError(t, err)
}

func stringPtr(s string) *string { return &s }
