//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"strings"
	"time"

	apperrors "github.com/acadly/complaintdesk/internal/errors"
)

// ComplaintCategory classifies what a complaint is about.
type ComplaintCategory string

const (
	ComplaintCategoryGrade  ComplaintCategory = "grade"
	ComplaintCategoryCourse ComplaintCategory = "course"
	ComplaintCategoryOther  ComplaintCategory = "other"
)

// Valid reports whether the category is supported.
func (c ComplaintCategory) Valid() bool {
	switch c {
	case ComplaintCategoryGrade, ComplaintCategoryCourse, ComplaintCategoryOther:
		return true
	default:
		return false
	}
}

// NeedsCourse reports whether complaints of this category must name a course.
func (c ComplaintCategory) NeedsCourse() bool {
	return c == ComplaintCategoryGrade || c == ComplaintCategoryCourse
}

// ComplaintStatus tracks a complaint through triage.
type ComplaintStatus string

const (
	ComplaintStatusPending  ComplaintStatus = "pending"
	ComplaintStatusInReview ComplaintStatus = "in_review"
	ComplaintStatusResolved ComplaintStatus = "resolved"
	ComplaintStatusRejected ComplaintStatus = "rejected"
)

// ComplaintStatuses lists every status in workflow order.
func ComplaintStatuses() []ComplaintStatus {
	return []ComplaintStatus{
		ComplaintStatusPending, ComplaintStatusInReview, ComplaintStatusResolved, ComplaintStatusRejected,
	}
}

// Valid reports whether the status is supported.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintStatusPending, ComplaintStatusInReview, ComplaintStatusResolved, ComplaintStatusRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transitions are possible.
func (s ComplaintStatus) Terminal() bool {
	return s == ComplaintStatusResolved || s == ComplaintStatusRejected
}

// CanTransition reports whether a complaint may move from s to next.
func (s ComplaintStatus) CanTransition(next ComplaintStatus) bool {
	switch s {
	case ComplaintStatusPending:
		return next == ComplaintStatusInReview || next == ComplaintStatusResolved || next == ComplaintStatusRejected
	case ComplaintStatusInReview:
		return next == ComplaintStatusResolved || next == ComplaintStatusRejected
	default:
		return false
	}
}

// ParseComplaintStatus normalizes a status string and reports whether it is supported.
func ParseComplaintStatus(value string) (ComplaintStatus, bool) {
	s := ComplaintStatus(strings.ToLower(strings.TrimSpace(value)))
	if s.Valid() {
		return s, true
	}
	return "", false
}

// ComplaintPriority orders the officer queue.
type ComplaintPriority string

const (
	ComplaintPriorityLow    ComplaintPriority = "low"
	ComplaintPriorityNormal ComplaintPriority = "normal"
	ComplaintPriorityHigh   ComplaintPriority = "high"
)

// Complaint is a student's grievance routed to a department.
type Complaint struct {
	ID                string            `json:"id"                            db:"id"`
	StudentID         string            `json:"student_id"                    db:"student_id"`
	DepartmentID      string            `json:"department_id"                 db:"department_id"`
	Category          ComplaintCategory `json:"category"                      db:"category"`
	CourseCode        *string           `json:"course_code,omitempty"         db:"course_code"`
	Title             string            `json:"title"                         db:"title"`
	Description       string            `json:"description"                   db:"description"`
	Status            ComplaintStatus   `json:"status"                        db:"status"`
	Priority          ComplaintPriority `json:"priority"                      db:"priority"`
	AssignedOfficerID *string           `json:"assigned_officer_id,omitempty" db:"assigned_officer_id"`
	CreatedAt         time.Time         `json:"created_at"                    db:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"                    db:"updated_at"`
	ResolvedAt        *time.Time        `json:"resolved_at,omitempty"         db:"resolved_at"`
}

// CreateComplaintRequest is a student's submission. StudentID is set by the
// server from the session, never from the body.
type CreateComplaintRequest struct {
	StudentID    string            `json:"-"`
	DepartmentID string            `json:"department_id"         validate:"required,uuid"`
	Category     ComplaintCategory `json:"category"              validate:"required,oneof=grade course other"`
	CourseCode   *string           `json:"course_code,omitempty" validate:"omitempty,max=32"`
	Title        string            `json:"title"                 validate:"notblank,max=200"`
	Description  string            `json:"description"           validate:"notblank,max=5000"`
	Priority     ComplaintPriority `json:"priority,omitempty"    validate:"omitempty,oneof=low normal high"`
}

// Validate normalizes and validates CreateComplaintRequest.
func (r *CreateComplaintRequest) Validate() error {
	r.Category = ComplaintCategory(strings.ToLower(strings.TrimSpace(string(r.Category))))
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.DepartmentID = strings.TrimSpace(r.DepartmentID)
	if r.CourseCode = emptyToNil(r.CourseCode); r.CourseCode != nil {
		c := strings.ToUpper(*r.CourseCode)
		r.CourseCode = &c
	}
	r.Priority = ComplaintPriority(strings.ToLower(strings.TrimSpace(string(r.Priority))))
	if r.Priority == "" {
		r.Priority = ComplaintPriorityNormal
	}
	if err := validateStruct(r); err != nil {
		return err
	}
	if r.Category.NeedsCourse() && r.CourseCode == nil {
		return apperrors.ValidationField("course_code", "course_code is required for grade and course complaints")
	}
	return nil
}

// UpdateComplaintStatusRequest moves a complaint along the workflow. Note, when
// given, is recorded as an officer response.
type UpdateComplaintStatusRequest struct {
	Status ComplaintStatus `json:"status"         validate:"required,oneof=pending in_review resolved rejected"`
	Note   *string         `json:"note,omitempty" validate:"omitempty,max=5000"`
}

// Validate validates UpdateComplaintStatusRequest.
func (r *UpdateComplaintStatusRequest) Validate() error {
	r.Status = ComplaintStatus(strings.ToLower(strings.TrimSpace(string(r.Status))))
	r.Note = emptyToNil(r.Note)
	return validateStruct(r)
}

// ComplaintStatusChange moves a complaint from one status to another. The
// write only applies while the stored status still equals From.
type ComplaintStatusChange struct {
	ID   string
	From ComplaintStatus
	To   ComplaintStatus
	At   time.Time
}

// AssignComplaintRequest hands a complaint to an officer.
type AssignComplaintRequest struct {
	OfficerID string `json:"officer_id" validate:"required,uuid"`
}

// Validate validates AssignComplaintRequest.
func (r *AssignComplaintRequest) Validate() error {
	r.OfficerID = strings.TrimSpace(r.OfficerID)
	return validateStruct(r)
}

// ComplaintListOptions controls paging and filtering for listing complaints.
// Sort supports "created_at" (default), "updated_at" and "title"; Dir is "asc" or "desc".
type ComplaintListOptions struct {
	Limit             int
	Offset            int
	StudentID         *string
	DepartmentID      *string
	AssignedOfficerID *string
	Status            *ComplaintStatus
	Category          *ComplaintCategory
	Sort              string
	Dir               string
}

// ComplaintResponse is a message on a complaint's thread.
type ComplaintResponse struct {
	ID          string    `json:"id"           db:"id"`
	ComplaintID string    `json:"complaint_id" db:"complaint_id"`
	AuthorID    string    `json:"author_id"    db:"author_id"`
	AuthorName  string    `json:"author_name"  db:"author_name"`
	Message     string    `json:"message"      db:"message"`
	CreatedAt   time.Time `json:"created_at"   db:"created_at"`
}

// CreateResponseRequest adds a message to a complaint's thread.
type CreateResponseRequest struct {
	ComplaintID string `json:"-"`
	AuthorID    string `json:"-"`
	Message     string `json:"message" validate:"notblank,max=5000"`
}

// Validate validates CreateResponseRequest.
func (r *CreateResponseRequest) Validate() error {
	r.Message = strings.TrimSpace(r.Message)
	return validateStruct(r)
}

// ComplaintDetail is a complaint with its thread and attachment metadata.
type ComplaintDetail struct {
	Complaint   Complaint           `json:"complaint"`
	Department  *Department         `json:"department,omitempty"`
	Responses   []ComplaintResponse `json:"responses"`
	Attachments []Attachment        `json:"attachments"`
}
