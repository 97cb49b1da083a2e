// Package testutil provides database harnesses and fixture builders for tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/domain/model"
)

var fixtureSeq atomic.Int64

// Unique returns prefix followed by a process-unique suffix.
func Unique(prefix string) string {
	return fmt.Sprintf("%s%d%d", prefix, time.Now().UnixNano()%1_000_000, fixtureSeq.Add(1))
}

// ComplaintRequestBuilder provides a fluent interface for building CreateComplaintRequest objects for testing.
type ComplaintRequestBuilder struct {
	req *model.CreateComplaintRequest
}

// NewComplaintRequest creates a new ComplaintRequestBuilder with sensible defaults.
func NewComplaintRequest(studentID, departmentID string) *ComplaintRequestBuilder {
	course := "CS101"
	return &ComplaintRequestBuilder{
		req: &model.CreateComplaintRequest{
			StudentID:    studentID,
			DepartmentID: departmentID,
			Category:     model.ComplaintCategoryGrade,
			CourseCode:   &course,
			Title:        "Midterm grade missing",
			Description:  "My midterm grade has not been published.",
			Priority:     model.ComplaintPriorityNormal,
		},
	}
}

// WithCategory sets the category. Non-course categories drop the course code.
func (b *ComplaintRequestBuilder) WithCategory(c model.ComplaintCategory) *ComplaintRequestBuilder {
	b.req.Category = c
	if !c.NeedsCourse() {
		b.req.CourseCode = nil
	}
	return b
}

// WithTitle sets the title.
func (b *ComplaintRequestBuilder) WithTitle(title string) *ComplaintRequestBuilder {
	b.req.Title = title
	return b
}

// WithPriority sets the priority.
func (b *ComplaintRequestBuilder) WithPriority(p model.ComplaintPriority) *ComplaintRequestBuilder {
	b.req.Priority = p
	return b
}

// Build returns the constructed CreateComplaintRequest.
func (b *ComplaintRequestBuilder) Build() *model.CreateComplaintRequest {
	return b.req
}

// UserRequestBuilder provides a fluent interface for building CreateUserRequest objects for testing.
type UserRequestBuilder struct {
	req *model.CreateUserRequest
}

// NewUserRequest creates a builder for a user with a unique email.
func NewUserRequest(role domainauth.Role) *UserRequestBuilder {
	return &UserRequestBuilder{
		req: &model.CreateUserRequest{
			Email:    Unique(string(role)) + "@uni.example",
			FullName: "Test " + string(role),
			Role:     role,
		},
	}
}

// WithDepartment sets the department.
func (b *UserRequestBuilder) WithDepartment(id string) *UserRequestBuilder {
	b.req.DepartmentID = &id
	return b
}

// WithEmail sets the email.
func (b *UserRequestBuilder) WithEmail(email string) *UserRequestBuilder {
	b.req.Email = email
	return b
}

// Build returns the constructed CreateUserRequest.
func (b *UserRequestBuilder) Build() *model.CreateUserRequest {
	return b.req
}

// InsertDepartment writes a department row directly and returns its id.
func InsertDepartment(t TestingTB, db *sql.DB, code string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var id string
	err := db.QueryRowContext(ctx,
		`INSERT INTO departments (code, name) VALUES ($1, $2) RETURNING id`, code, "Department "+code).Scan(&id)
	if err != nil {
		t.Fatalf("insert department %s: %v", code, err)
	}
	return id
}

// InsertUser writes a user row directly and returns its id. departmentID
// may be empty.
func InsertUser(t TestingTB, db *sql.DB, role domainauth.Role, departmentID string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var dept any
	if departmentID != "" {
		dept = departmentID
	}
	var id string
	err := db.QueryRowContext(ctx,
		`INSERT INTO users (email, full_name, role, department_id) VALUES ($1, $2, $3, $4) RETURNING id`,
		Unique(string(role))+"@uni.example", "Test "+string(role), string(role), dept).Scan(&id)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}
