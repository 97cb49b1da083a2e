package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/acadly/complaintdesk/internal/data/database"
	"github.com/acadly/complaintdesk/internal/data/pgxutil"
	"github.com/acadly/complaintdesk/internal/domain/model"
)

const (
	sortDirAsc  = "ASC"
	sortDirDesc = "DESC"
)

// ComplaintRepo provides database operations for complaints and their
// response threads.
type ComplaintRepo struct {
	DB  *sql.DB
	now Clock
}

// NewComplaintRepo creates a ComplaintRepo on the wall clock.
func NewComplaintRepo(db *sql.DB) *ComplaintRepo {
	return NewComplaintRepoWithClock(db, time.Now)
}

// NewComplaintRepoWithClock creates a ComplaintRepo that stamps rows with now.
func NewComplaintRepoWithClock(db *sql.DB, now Clock) *ComplaintRepo {
	return &ComplaintRepo{DB: db, now: now}
}

const (
	complaintColumnsSQL = `id, student_id, department_id, category, course_code, title, description,
		status, priority, assigned_officer_id, created_at, updated_at, resolved_at`

	complaintGetByIDQuery = `SELECT ` + complaintColumnsSQL + ` FROM complaints WHERE id = $1`

	complaintResponsesQuery = `
		SELECT r.id, r.complaint_id, r.author_id, u.full_name AS author_name, r.message, r.created_at
		FROM complaint_responses r
		JOIN users u ON u.id = r.author_id
		WHERE r.complaint_id = $1
		ORDER BY r.created_at, r.id`
)

func complaintColumns() []string {
	return []string{
		"id", "student_id", "department_id", "category", "course_code", "title", "description",
		"status", "priority", "assigned_officer_id", "created_at", "updated_at", "resolved_at",
	}
}

// Create inserts a new complaint in pending status.
func (r *ComplaintRepo) Create(ctx context.Context, req *model.CreateComplaintRequest) (*model.Complaint, error) {
	if req == nil {
		return nil, errors.New("create complaint request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.StudentID) == "" {
		return nil, errors.New("student id is required")
	}

	createdAt := r.now().UTC()
	var out model.Complaint
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO complaints (
				student_id, department_id, category, course_code, title, description, status, priority, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
			RETURNING `+complaintColumnsSQL,
			req.StudentID,
			req.DepartmentID,
			req.Category,
			req.CourseCode,
			req.Title,
			req.Description,
			model.ComplaintStatusPending,
			req.Priority,
			createdAt,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Complaint])
		return err
	})
	if err != nil {
		return nil, mapWriteErr(err, nil)
	}
	return &out, nil
}

// GetByID retrieves a complaint by ID.
func (r *ComplaintRepo) GetByID(ctx context.Context, id string) (*model.Complaint, error) {
	var c model.Complaint
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, complaintGetByIDQuery, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		c, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Complaint])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrComplaintNotFound
		}
		return nil, fmt.Errorf("failed to get complaint: %w", err)
	}
	return &c, nil
}

// List retrieves complaints with optional filters and sorting.
func (r *ComplaintRepo) List(ctx context.Context, opts model.ComplaintListOptions) ([]*model.Complaint, error) {
	query, args := database.BuildListQuery(buildComplaintQueryOptions(opts))

	var rowsOut []model.Complaint
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Complaint])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	return collectPtrs(rowsOut), nil
}

// UpdateStatus applies a status change. Terminal statuses stamp resolved_at.
// ErrStatusChanged is returned when the stored status no longer equals
// change.From.
func (r *ComplaintRepo) UpdateStatus(ctx context.Context, change model.ComplaintStatusChange) (*model.Complaint, error) {
	at := change.At
	if at.IsZero() {
		at = r.now()
	}
	var resolvedAt any
	if change.To.Terminal() {
		resolvedAt = at.UTC()
	}

	var out model.Complaint
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			UPDATE complaints SET status = $1, resolved_at = $2
			WHERE id = $3 AND status = $4
			RETURNING `+complaintColumnsSQL,
			change.To, resolvedAt, change.ID, change.From,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Complaint])
		return err
	})
	if err == nil {
		return &out, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, mapWriteErr(err, nil)
	}
	if _, getErr := r.GetByID(ctx, change.ID); getErr != nil {
		return nil, getErr
	}
	return nil, ErrStatusChanged
}

// Assign sets the officer responsible for a complaint. An empty officerID
// clears the assignment.
func (r *ComplaintRepo) Assign(ctx context.Context, id, officerID string) (*model.Complaint, error) {
	var officer any
	if strings.TrimSpace(officerID) != "" {
		officer = officerID
	}
	var out model.Complaint
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			UPDATE complaints SET assigned_officer_id = $1 WHERE id = $2
			RETURNING `+complaintColumnsSQL, officer, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Complaint])
		return err
	})
	if err != nil {
		return nil, mapWriteErr(err, ErrComplaintNotFound)
	}
	return &out, nil
}

// AddResponse appends a message to a complaint's thread and touches the
// complaint's updated_at.
func (r *ComplaintRepo) AddResponse(
	ctx context.Context,
	req *model.CreateResponseRequest,
) (*model.ComplaintResponse, error) {
	if req == nil {
		return nil, errors.New("create response request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.ComplaintResponse
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			WITH ins AS (
				INSERT INTO complaint_responses (complaint_id, author_id, message)
				VALUES ($1, $2, $3)
				RETURNING id, complaint_id, author_id, message, created_at
			)
			SELECT ins.id, ins.complaint_id, ins.author_id, u.full_name AS author_name, ins.message, ins.created_at
			FROM ins JOIN users u ON u.id = ins.author_id`,
			req.ComplaintID, req.AuthorID, req.Message,
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.ComplaintResponse])
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE complaints SET updated_at = now() WHERE id = $1`, req.ComplaintID)
		return err
	}})
	if err != nil {
		return nil, mapWriteErr(err, nil)
	}
	return &out, nil
}

// ListResponses returns a complaint's thread, oldest first.
func (r *ComplaintRepo) ListResponses(ctx context.Context, complaintID string) ([]model.ComplaintResponse, error) {
	var out []model.ComplaintResponse
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, complaintResponsesQuery, complaintID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.ComplaintResponse])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	if out == nil {
		out = []model.ComplaintResponse{}
	}
	return out, nil
}

func buildComplaintQueryOptions(opts model.ComplaintListOptions) *database.ListQueryOptions {
	limit, offset := clampPage(opts.Limit, opts.Offset)
	queryOpts := []database.ListQueryOption{
		database.WithColumns(complaintColumns()...),
		database.WithLimit(limit),
		database.WithOffset(offset),
	}

	eq := func(field string, v *string) {
		if v != nil && strings.TrimSpace(*v) != "" {
			queryOpts = append(queryOpts, database.WithCondition(
				database.WhereCond(field, database.Equal, strings.TrimSpace(*v)),
			))
		}
	}
	eq("student_id", opts.StudentID)
	eq("department_id", opts.DepartmentID)
	eq("assigned_officer_id", opts.AssignedOfficerID)
	if opts.Status != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("status", database.Equal, string(*opts.Status)),
		))
	}
	if opts.Category != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("category", database.Equal, string(*opts.Category)),
		))
	}

	sortCol, sortDir := validateComplaintSort(opts.Sort, opts.Dir)
	queryOpts = append(queryOpts, database.WithOrderBy(sortCol, sortDir))

	return database.NewListQueryOptions("complaints", queryOpts...)
}

// validateComplaintSort validates and returns safe sort column and direction.
func validateComplaintSort(sort, dir string) (string, string) {
	sortCol := "created_at"
	sortDir := sortDirDesc

	allowedSorts := map[string]string{
		"created_at": "created_at",
		"updated_at": "updated_at",
		"title":      "title",
	}
	if validSort, ok := allowedSorts[strings.ToLower(strings.TrimSpace(sort))]; ok {
		sortCol = validSort
	}
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		sortDir = sortDirAsc
	}
	return sortCol, sortDir
}
