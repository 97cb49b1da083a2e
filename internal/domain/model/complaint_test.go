package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/acadly/complaintdesk/internal/errors"
)

func TestComplaintStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to ComplaintStatus
		ok       bool
	}{
		{ComplaintStatusPending, ComplaintStatusInReview, true},
		{ComplaintStatusPending, ComplaintStatusResolved, true},
		{ComplaintStatusPending, ComplaintStatusRejected, true},
		{ComplaintStatusPending, ComplaintStatusPending, false},
		{ComplaintStatusInReview, ComplaintStatusResolved, true},
		{ComplaintStatusInReview, ComplaintStatusRejected, true},
		{ComplaintStatusInReview, ComplaintStatusPending, false},
		{ComplaintStatusResolved, ComplaintStatusInReview, false},
		{ComplaintStatusRejected, ComplaintStatusResolved, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to))
		})
	}
	assert.True(t, ComplaintStatusResolved.Terminal())
	assert.False(t, ComplaintStatusInReview.Terminal())
}

func TestParseComplaintStatus(t *testing.T) {
	s, ok := ParseComplaintStatus(" In_Review ")
	assert.True(t, ok)
	assert.Equal(t, ComplaintStatusInReview, s)

	_, ok = ParseComplaintStatus("closed")
	assert.False(t, ok)
}

func TestCreateComplaintRequest_Validate(t *testing.T) {
	valid := func() CreateComplaintRequest {
		return CreateComplaintRequest{
			DepartmentID: deptID,
			Category:     ComplaintCategoryGrade,
			CourseCode:   strPtr("cs101"),
			Title:        "Midterm grade",
			Description:  "My midterm was marked incorrectly.",
		}
	}

	req := valid()
	require.NoError(t, req.Validate())
	assert.Equal(t, ComplaintPriorityNormal, req.Priority)
	assert.Equal(t, "CS101", *req.CourseCode)

	tests := []struct {
		name   string
		mutate func(*CreateComplaintRequest)
		field  string
	}{
		{"missing course for grade", func(r *CreateComplaintRequest) { r.CourseCode = nil }, "course_code"},
		{"bad category", func(r *CreateComplaintRequest) { r.Category = "fees" }, "category"},
		{"bad priority", func(r *CreateComplaintRequest) { r.Priority = "urgent" }, "priority"},
		{"blank title", func(r *CreateComplaintRequest) { r.Title = " " }, "title"},
		{"long description", func(r *CreateComplaintRequest) { r.Description = strings.Repeat("x", 5001) }, "description"},
		{"bad department", func(r *CreateComplaintRequest) { r.DepartmentID = "cs" }, "department_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(&r)
			err := r.Validate()
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.field, apperrors.GetField(err))
		})
	}

	other := valid()
	other.Category = ComplaintCategoryOther
	other.CourseCode = nil
	assert.NoError(t, other.Validate())
}

func TestUpdateComplaintStatusRequest_Validate(t *testing.T) {
	req := UpdateComplaintStatusRequest{Status: "Resolved", Note: strPtr("  ")}
	require.NoError(t, req.Validate())
	assert.Equal(t, ComplaintStatusResolved, req.Status)
	assert.Nil(t, req.Note)

	assert.Error(t, (&UpdateComplaintStatusRequest{Status: "closed"}).Validate())
}

func TestCreateAttachmentRequest_Validate(t *testing.T) {
	req := CreateAttachmentRequest{FileName: `C:\Users\me\transcript.pdf`, ContentType: "application/pdf", Content: []byte("%PDF-1.4")}
	require.NoError(t, req.Validate(1024))
	assert.Equal(t, "transcript.pdf", req.FileName)

	big := CreateAttachmentRequest{FileName: "a.txt", ContentType: "text/plain; charset=utf-8", Content: make([]byte, 2048)}
	assert.Error(t, big.Validate(1024))
	assert.NoError(t, big.Validate(0))
	assert.Equal(t, "text/plain", big.ContentType)

	exe := CreateAttachmentRequest{FileName: "a.exe", ContentType: "application/x-msdownload", Content: []byte("MZ")}
	assert.Error(t, exe.Validate(1024))

	empty := CreateAttachmentRequest{FileName: "a.txt", ContentType: "text/plain"}
	assert.Error(t, empty.Validate(1024))
}
