package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	apperrors "github.com/acadly/complaintdesk/internal/errors"
)

func strPtr(s string) *string { return &s }

const deptID = "5b0f2d4e-8f57-4c39-9a53-1f1e2c6b7a10"

func TestCreateUserRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateUserRequest
		wantErr bool
		field   string
	}{
		{
			name: "student ok",
			req:  CreateUserRequest{Email: " Ada@Uni.EDU ", FullName: "Ada", Role: "student"},
		},
		{
			name: "officer with department",
			req:  CreateUserRequest{Email: "o@uni.edu", FullName: "Officer", Role: "officer", DepartmentID: strPtr(deptID)},
		},
		{
			name:    "officer without department",
			req:     CreateUserRequest{Email: "o@uni.edu", FullName: "Officer", Role: domainauth.RoleDepartmentOfficer},
			wantErr: true,
			field:   "department_id",
		},
		{
			name:    "admin with department",
			req:     CreateUserRequest{Email: "a@uni.edu", FullName: "Admin", Role: domainauth.RoleAdmin, DepartmentID: strPtr(deptID)},
			wantErr: true,
			field:   "department_id",
		},
		{
			name:    "bad email",
			req:     CreateUserRequest{Email: "nope", FullName: "X", Role: domainauth.RoleStudent},
			wantErr: true,
			field:   "email",
		},
		{
			name:    "unknown role",
			req:     CreateUserRequest{Email: "x@uni.edu", FullName: "X", Role: "guest"},
			wantErr: true,
			field:   "role",
		},
		{
			name:    "blank name",
			req:     CreateUserRequest{Email: "x@uni.edu", FullName: "   ", Role: domainauth.RoleStudent},
			wantErr: true,
			field:   "full_name",
		},
		{
			name:    "short password",
			req:     CreateUserRequest{Email: "x@uni.edu", FullName: "X", Role: domainauth.RoleStudent, Password: "short"},
			wantErr: true,
			field:   "password",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.field, apperrors.GetField(err))
		})
	}
}

func TestCreateUserRequest_Normalizes(t *testing.T) {
	req := CreateUserRequest{Email: " Ada@Uni.EDU ", FullName: " Ada ", Role: "Officer", DepartmentID: strPtr(deptID)}
	require.NoError(t, req.Validate())
	assert.Equal(t, "ada@uni.edu", req.Email)
	assert.Equal(t, "Ada", req.FullName)
	assert.Equal(t, domainauth.RoleDepartmentOfficer, req.Role)
}

func TestUpdateUserRequest_Apply(t *testing.T) {
	officer := User{ID: "u1", Role: domainauth.RoleDepartmentOfficer, DepartmentID: strPtr(deptID)}

	toAdmin := domainauth.RoleAdmin
	req := UpdateUserRequest{Role: &toAdmin}
	require.NoError(t, req.Validate())
	_, err := req.Apply(officer)
	require.Error(t, err, "admin cannot keep a department")

	req = UpdateUserRequest{Role: &toAdmin, ClearDepartment: true}
	require.NoError(t, req.Validate())
	got, err := req.Apply(officer)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, got.Role)
	assert.Nil(t, got.DepartmentID)
}

func TestUpdateUserRequest_Validate(t *testing.T) {
	empty := UpdateUserRequest{}
	assert.Error(t, empty.Validate())

	both := UpdateUserRequest{DepartmentID: strPtr(deptID), ClearDepartment: true}
	assert.Error(t, both.Validate())

	bad := domainauth.Role("root")
	assert.Error(t, (&UpdateUserRequest{Role: &bad}).Validate())
}

func TestRegisterRequest_Validate(t *testing.T) {
	req := RegisterRequest{Email: "S@Uni.edu", FullName: "Sam", Password: "correct horse", StudentNumber: strPtr(" ")}
	require.NoError(t, req.Validate())
	assert.Equal(t, "s@uni.edu", req.Email)
	assert.Nil(t, req.StudentNumber)

	req.Password = ""
	err := req.Validate()
	require.Error(t, err)
	assert.Equal(t, "password", apperrors.GetField(err))
}

func TestDepartmentRequests_Validate(t *testing.T) {
	req := CreateDepartmentRequest{Code: " cs ", Name: "Computer Science"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "CS", req.Code)

	bad := CreateDepartmentRequest{Code: "C-S", Name: "x"}
	err := bad.Validate()
	require.Error(t, err)
	assert.Equal(t, "code", apperrors.GetField(err))

	assert.Error(t, (&UpdateDepartmentRequest{}).Validate())
	upd := UpdateDepartmentRequest{Code: strPtr("math")}
	require.NoError(t, upd.Validate())
	assert.Equal(t, "MATH", *upd.Code)
}
