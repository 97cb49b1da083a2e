package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/acadly/complaintdesk/internal/domain/model"
	apperrors "github.com/acadly/complaintdesk/internal/errors"
	"github.com/acadly/complaintdesk/internal/mocks"
)

func newDepartmentService(t *testing.T) (*mocks.MockDepartmentRepository, *mocks.MockUserRepository, *DepartmentService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockDepartmentRepository(ctrl)
	users := mocks.NewMockUserRepository(ctrl)
	return repo, users, NewDepartmentService(DepartmentServiceOptions{Repo: repo, Users: users})
}

func TestDepartmentService_CRUD(t *testing.T) {
	repo, _, svc := newDepartmentService(t)
	ctx := context.Background()
	dept := &model.Department{ID: testDeptID, Code: "CS", Name: "Computer Science"}
	createReq := &model.CreateDepartmentRequest{Code: "cs", Name: "Computer Science"}
	name := "Computing"
	updateReq := model.UpdateDepartmentRequest{Name: &name}

	repo.EXPECT().Create(ctx, createReq).Return(dept, nil)
	repo.EXPECT().GetByID(ctx, testDeptID).Return(dept, nil)
	repo.EXPECT().GetByCode(ctx, "cs").Return(dept, nil)
	repo.EXPECT().List(ctx, 10, 0).Return([]*model.Department{dept}, nil)
	repo.EXPECT().Update(ctx, testDeptID, updateReq).Return(dept, nil)
	repo.EXPECT().Delete(ctx, testDeptID).Return(true, nil)

	got, err := svc.Create(ctx, createReq)
	require.NoError(t, err)
	assert.Equal(t, dept, got)
	_, err = svc.GetByID(ctx, testDeptID)
	require.NoError(t, err)
	_, err = svc.GetByCode(ctx, "cs")
	require.NoError(t, err)
	list, err := svc.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	_, err = svc.Update(ctx, testDeptID, updateReq)
	require.NoError(t, err)
	ok, err := svc.Delete(ctx, testDeptID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDepartmentService_Officers(t *testing.T) {
	repo, users, svc := newDepartmentService(t)
	ctx := context.Background()

	repo.EXPECT().GetByID(ctx, testDeptID).Return(&model.Department{ID: testDeptID}, nil)
	users.EXPECT().ListOfficers(ctx, testDeptID).Return(nil, nil)

	officers, err := svc.Officers(ctx, testDeptID)
	require.NoError(t, err)
	assert.NotNil(t, officers)
	assert.Empty(t, officers)
}

func TestDepartmentService_Officers_UnknownDepartment(t *testing.T) {
	repo, _, svc := newDepartmentService(t)
	ctx := context.Background()

	repo.EXPECT().GetByID(ctx, "nope").Return(nil, apperrors.NotFound("department not found"))

	_, err := svc.Officers(ctx, "nope")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
