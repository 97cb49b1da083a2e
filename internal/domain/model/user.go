//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"strings"
	"time"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	apperrors "github.com/acadly/complaintdesk/internal/errors"
)

// User is a directory entry. Role is authoritative for access decisions.
type User struct {
	ID            string          `json:"id"                       db:"id"`
	Email         string          `json:"email"                    db:"email"`
	FullName      string          `json:"full_name"                db:"full_name"`
	Role          domainauth.Role `json:"role"                     db:"role"`
	DepartmentID  *string         `json:"department_id,omitempty"  db:"department_id"`
	StudentNumber *string         `json:"student_number,omitempty" db:"student_number"`
	PasswordHash  *string         `json:"-"                        db:"password_hash"`
	CreatedAt     time.Time       `json:"created_at"               db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"               db:"updated_at"`
}

// HasPassword reports whether the user can sign in with a local password.
func (u *User) HasPassword() bool { return u.PasswordHash != nil && *u.PasswordHash != "" }

// CheckDepartment enforces that officers belong to a department and nobody
// else does.
func CheckDepartment(role domainauth.Role, departmentID *string) error {
	hasDept := departmentID != nil && strings.TrimSpace(*departmentID) != ""
	if role == domainauth.RoleDepartmentOfficer && !hasDept {
		return apperrors.ValidationField("department_id", "department_id is required for department officers")
	}
	if role != domainauth.RoleDepartmentOfficer && hasDept {
		return apperrors.ValidationField("department_id", "department_id is only allowed for department officers")
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(v string) string { return strings.ToLower(strings.TrimSpace(v)) }

// CreateUserRequest is the admin-side request to add a user.
// Password may be empty for SSO-only accounts.
type CreateUserRequest struct {
	Email         string          `json:"email"                    validate:"required,email,max=254"`
	FullName      string          `json:"full_name"                validate:"notblank,max=200"`
	Role          domainauth.Role `json:"role"                     validate:"role"`
	DepartmentID  *string         `json:"department_id,omitempty"  validate:"omitempty,uuid"`
	StudentNumber *string         `json:"student_number,omitempty" validate:"omitempty,max=32"`
	Password      string          `json:"password,omitempty"       validate:"omitempty,min=8,max=128"`
}

// Validate normalizes and validates CreateUserRequest.
func (r *CreateUserRequest) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	r.FullName = strings.TrimSpace(r.FullName)
	if role, ok := domainauth.ParseRole(string(r.Role)); ok {
		r.Role = role
	}
	r.DepartmentID = emptyToNil(r.DepartmentID)
	r.StudentNumber = emptyToNil(r.StudentNumber)
	if err := validateStruct(r); err != nil {
		return err
	}
	return CheckDepartment(r.Role, r.DepartmentID)
}

// RegisterRequest is a student's self sign-up.
type RegisterRequest struct {
	Email         string  `json:"email"                    validate:"required,email,max=254"`
	FullName      string  `json:"full_name"                validate:"notblank,max=200"`
	Password      string  `json:"password"                 validate:"required,min=8,max=128"`
	StudentNumber *string `json:"student_number,omitempty" validate:"omitempty,max=32"`
}

// Validate normalizes and validates RegisterRequest.
func (r *RegisterRequest) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	r.FullName = strings.TrimSpace(r.FullName)
	r.StudentNumber = emptyToNil(r.StudentNumber)
	return validateStruct(r)
}

// UpdateUserRequest changes profile or role data. ClearDepartment removes the
// department link, which is needed when an officer changes role.
type UpdateUserRequest struct {
	FullName        *string          `json:"full_name,omitempty"      validate:"omitempty,notblank,max=200"`
	Role            *domainauth.Role `json:"role,omitempty"           validate:"omitempty,role"`
	DepartmentID    *string          `json:"department_id,omitempty"  validate:"omitempty,uuid"`
	ClearDepartment bool             `json:"clear_department,omitempty"`
	StudentNumber   *string          `json:"student_number,omitempty" validate:"omitempty,max=32"`
}

// HasUpdates reports whether any field is set in UpdateUserRequest.
func (r *UpdateUserRequest) HasUpdates() bool {
	return r.FullName != nil || r.Role != nil || r.DepartmentID != nil || r.ClearDepartment || r.StudentNumber != nil
}

// Validate validates UpdateUserRequest.
func (r *UpdateUserRequest) Validate() error {
	if !r.HasUpdates() {
		return apperrors.Validation("at least one field must be updated")
	}
	r.FullName = trimPtr(r.FullName)
	if r.Role != nil {
		if role, ok := domainauth.ParseRole(string(*r.Role)); ok {
			*r.Role = role
		}
	}
	if r.DepartmentID != nil && r.ClearDepartment {
		return apperrors.ValidationField("department_id", "department_id and clear_department are mutually exclusive")
	}
	return validateStruct(r)
}

// Apply merges r into u and re-checks the department rule on the result.
func (r *UpdateUserRequest) Apply(u User) (User, error) {
	if r.FullName != nil {
		u.FullName = *r.FullName
	}
	if r.Role != nil {
		u.Role = *r.Role
	}
	if r.DepartmentID != nil {
		u.DepartmentID = r.DepartmentID
	}
	if r.ClearDepartment {
		u.DepartmentID = nil
	}
	if r.StudentNumber != nil {
		u.StudentNumber = emptyToNil(r.StudentNumber)
	}
	if err := CheckDepartment(u.Role, u.DepartmentID); err != nil {
		return User{}, err
	}
	return u, nil
}

// UserListOptions controls paging and filtering for listing users.
type UserListOptions struct {
	Limit        int
	Offset       int
	Role         *domainauth.Role
	DepartmentID *string
	Q            *string // substring match on email or full name (ILIKE)
}
