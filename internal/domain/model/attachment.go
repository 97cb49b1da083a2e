//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"fmt"
	"path"
	"strings"
	"time"

	apperrors "github.com/acadly/complaintdesk/internal/errors"
)

// AllowedAttachmentTypes are the content types accepted for upload.
func AllowedAttachmentTypes() []string {
	return []string{"application/pdf", "image/png", "image/jpeg", "text/plain"}
}

// Attachment is a file uploaded against a complaint. Content is only loaded
// when downloading.
type Attachment struct {
	ID          string    `json:"id"           db:"id"`
	ComplaintID string    `json:"complaint_id" db:"complaint_id"`
	FileName    string    `json:"file_name"    db:"file_name"`
	ContentType string    `json:"content_type" db:"content_type"`
	SizeBytes   int64     `json:"size_bytes"   db:"size_bytes"`
	UploadedBy  string    `json:"uploaded_by"  db:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"   db:"created_at"`
	Content     []byte    `json:"-"            db:"-"`
}

// CreateAttachmentRequest represents an upload.
type CreateAttachmentRequest struct {
	ComplaintID string
	UploadedBy  string
	FileName    string
	ContentType string
	Content     []byte
}

// Validate checks the upload against maxBytes and the allowed content types.
// FileName is reduced to its base name.
func (r *CreateAttachmentRequest) Validate(maxBytes int64) error {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(r.FileName), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return apperrors.ValidationField("file", "file name is required")
	}
	if len(name) > 255 {
		return apperrors.ValidationField("file", "file name cannot exceed 255 characters")
	}
	r.FileName = name

	if len(r.Content) == 0 {
		return apperrors.ValidationField("file", "file is empty")
	}
	if maxBytes > 0 && int64(len(r.Content)) > maxBytes {
		return apperrors.ValidationField("file", fmt.Sprintf("file cannot exceed %d bytes", maxBytes))
	}

	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(r.ContentType, ";", 2)[0]))
	for _, allowed := range AllowedAttachmentTypes() {
		if ct == allowed {
			r.ContentType = ct
			return nil
		}
	}
	return apperrors.ValidationField("file", "unsupported file type "+ct)
}
