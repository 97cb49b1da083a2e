package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/acadly/complaintdesk/internal/data/pgxutil"
	"github.com/acadly/complaintdesk/internal/domain/model"
)

// DepartmentRepo provides database operations for departments.
type DepartmentRepo struct {
	DB *sql.DB
}

// NewDepartmentRepo creates a new DepartmentRepo.
func NewDepartmentRepo(db *sql.DB) *DepartmentRepo {
	return &DepartmentRepo{DB: db}
}

const (
	departmentColumnsSQL = `id, code, name, description, created_at, updated_at`

	departmentGetByIDQuery   = `SELECT ` + departmentColumnsSQL + ` FROM departments WHERE id = $1`
	departmentGetByCodeQuery = `SELECT ` + departmentColumnsSQL + ` FROM departments WHERE code = upper($1)`
	departmentListQuery      = `SELECT ` + departmentColumnsSQL + ` FROM departments ORDER BY code LIMIT $1 OFFSET $2`
)

// Create inserts a new department.
func (r *DepartmentRepo) Create(ctx context.Context, req *model.CreateDepartmentRequest) (*model.Department, error) {
	if req == nil {
		return nil, errors.New("create department request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.Department
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO departments (code, name, description) VALUES ($1, $2, $3)
			RETURNING `+departmentColumnsSQL,
			req.Code, req.Name, req.Description,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Department])
		return err
	})
	if err != nil {
		return nil, mapWriteErr(err, nil)
	}
	return &out, nil
}

// GetByID retrieves a department by ID.
func (r *DepartmentRepo) GetByID(ctx context.Context, id string) (*model.Department, error) {
	return r.getByQuery(ctx, departmentGetByIDQuery, id)
}

// GetByCode retrieves a department by its code.
func (r *DepartmentRepo) GetByCode(ctx context.Context, code string) (*model.Department, error) {
	return r.getByQuery(ctx, departmentGetByCodeQuery, strings.TrimSpace(code))
}

// List retrieves departments ordered by code.
func (r *DepartmentRepo) List(ctx context.Context, limit, offset int) ([]*model.Department, error) {
	limit, offset = clampPage(limit, offset)

	var rowsOut []model.Department
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, departmentListQuery, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Department])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return collectPtrs(rowsOut), nil
}

// Update updates fields of a department.
func (r *DepartmentRepo) Update(
	ctx context.Context,
	id string,
	req model.UpdateDepartmentRequest,
) (*model.Department, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	setParts := make([]string, 0, 3)
	args := make([]any, 0, 4)
	nextIdx := func() int { return len(args) + 1 }
	if req.Code != nil {
		setParts = append(setParts, fmt.Sprintf("code = $%d", nextIdx()))
		args = append(args, *req.Code)
	}
	if req.Name != nil {
		setParts = append(setParts, fmt.Sprintf("name = $%d", nextIdx()))
		args = append(args, *req.Name)
	}
	if req.Description != nil {
		if *req.Description == "" {
			setParts = append(setParts, "description = NULL")
		} else {
			setParts = append(setParts, fmt.Sprintf("description = $%d", nextIdx()))
			args = append(args, *req.Description)
		}
	}
	args = append(args, id)
	query := "UPDATE departments SET " + strings.Join(setParts, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) + " RETURNING " + departmentColumnsSQL

	var out model.Department
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Department])
		return err
	})
	if err != nil {
		return nil, mapWriteErr(err, ErrDepartmentNotFound)
	}
	return &out, nil
}

// Delete deletes a department. Departments still referenced by officers or
// complaints fail with a foreign key AppError.
func (r *DepartmentRepo) Delete(ctx context.Context, id string) (bool, error) {
	var affected int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
		if err != nil {
			return err
		}
		affected = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, mapWriteErr(err, nil)
	}
	return affected > 0, nil
}

func (r *DepartmentRepo) getByQuery(ctx context.Context, q string, args ...any) (*model.Department, error) {
	var d model.Department
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		d, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Department])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("failed to get department: %w", err)
	}
	return &d, nil
}
