//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"strings"
	"time"

	apperrors "github.com/acadly/complaintdesk/internal/errors"
)

// Department groups officers and the complaints routed to them.
type Department struct {
	ID          string    `json:"id"                    db:"id"`
	Code        string    `json:"code"                  db:"code"`
	Name        string    `json:"name"                  db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at"            db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"            db:"updated_at"`
}

// CreateDepartmentRequest represents parameters to create a Department.
type CreateDepartmentRequest struct {
	Code        string  `json:"code"                  validate:"required,alphanum,max=16"`
	Name        string  `json:"name"                  validate:"notblank,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// Validate normalizes and validates CreateDepartmentRequest. Codes are stored
// upper case.
func (r *CreateDepartmentRequest) Validate() error {
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	r.Name = strings.TrimSpace(r.Name)
	r.Description = emptyToNil(r.Description)
	return validateStruct(r)
}

// UpdateDepartmentRequest represents parameters to update a Department.
type UpdateDepartmentRequest struct {
	Code        *string `json:"code,omitempty"        validate:"omitempty,alphanum,max=16"`
	Name        *string `json:"name,omitempty"        validate:"omitempty,notblank,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// HasUpdates reports whether any field is set in UpdateDepartmentRequest.
func (r *UpdateDepartmentRequest) HasUpdates() bool {
	return r.Code != nil || r.Name != nil || r.Description != nil
}

// Validate validates UpdateDepartmentRequest.
func (r *UpdateDepartmentRequest) Validate() error {
	if !r.HasUpdates() {
		return apperrors.Validation("at least one field must be updated")
	}
	if r.Code != nil {
		c := strings.ToUpper(strings.TrimSpace(*r.Code))
		r.Code = &c
	}
	r.Name = trimPtr(r.Name)
	r.Description = trimPtr(r.Description)
	return validateStruct(r)
}
