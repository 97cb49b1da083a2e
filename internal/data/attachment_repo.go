package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/acadly/complaintdesk/internal/data/pgxutil"
	"github.com/acadly/complaintdesk/internal/domain/model"
)

// AttachmentRepo stores complaint attachments in Postgres.
type AttachmentRepo struct {
	DB *sql.DB
}

// NewAttachmentRepo creates a new AttachmentRepo.
func NewAttachmentRepo(db *sql.DB) *AttachmentRepo {
	return &AttachmentRepo{DB: db}
}

const attachmentColumnsSQL = `id, complaint_id, file_name, content_type, size_bytes, uploaded_by, created_at`

// Create stores an upload. The request must already be validated.
func (r *AttachmentRepo) Create(ctx context.Context, req *model.CreateAttachmentRequest) (*model.Attachment, error) {
	if req == nil {
		return nil, errors.New("create attachment request is required")
	}

	var out model.Attachment
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO complaint_attachments (complaint_id, file_name, content_type, size_bytes, content, uploaded_by)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+attachmentColumnsSQL,
			req.ComplaintID, req.FileName, req.ContentType, int64(len(req.Content)), req.Content, req.UploadedBy,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Attachment])
		return err
	})
	if err != nil {
		return nil, mapWriteErr(err, nil)
	}
	return &out, nil
}

// ListByComplaint returns attachment metadata without content.
func (r *AttachmentRepo) ListByComplaint(ctx context.Context, complaintID string) ([]model.Attachment, error) {
	var out []model.Attachment
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+attachmentColumnsSQL+`
			FROM complaint_attachments WHERE complaint_id = $1
			ORDER BY created_at, id`, complaintID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Attachment])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	if out == nil {
		out = []model.Attachment{}
	}
	return out, nil
}

// Get loads one attachment including its content. The attachment must belong
// to complaintID.
func (r *AttachmentRepo) Get(ctx context.Context, complaintID, id string) (*model.Attachment, error) {
	var a model.Attachment
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, `
			SELECT id, complaint_id, file_name, content_type, size_bytes, uploaded_by, created_at, content
			FROM complaint_attachments WHERE id = $1 AND complaint_id = $2`, id, complaintID).
			Scan(&a.ID, &a.ComplaintID, &a.FileName, &a.ContentType, &a.SizeBytes, &a.UploadedBy, &a.CreatedAt, &a.Content)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	return &a, nil
}
