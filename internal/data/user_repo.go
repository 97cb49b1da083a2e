package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/acadly/complaintdesk/internal/data/database"
	"github.com/acadly/complaintdesk/internal/data/pgxutil"
	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/domain/model"
	"github.com/acadly/complaintdesk/internal/ports"
)

// UserRepo provides database operations for the user directory.
type UserRepo struct {
	DB *sql.DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

const (
	userSelect = `
		SELECT id, email, full_name, role, department_id, student_number, password_hash, created_at, updated_at
		FROM users`

	userReturning = ` RETURNING id, email, full_name, role, department_id, student_number, password_hash, created_at, updated_at`

	userGetByIDQuery    = userSelect + ` WHERE id = $1`
	userGetByEmailQuery = userSelect + ` WHERE lower(email) = lower($1)`
	userOfficersQuery   = userSelect + ` WHERE role = 'department_officer' AND department_id = $1 ORDER BY full_name`
)

func userColumns() []string {
	return []string{
		"id", "email", "full_name", "role", "department_id",
		"student_number", "password_hash", "created_at", "updated_at",
	}
}

// Create inserts a user. passwordHash may be nil for SSO-only accounts.
func (r *UserRepo) Create(
	ctx context.Context,
	req *model.CreateUserRequest,
	passwordHash *string,
) (*model.User, error) {
	if req == nil {
		return nil, errors.New("create user request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO users (email, full_name, role, department_id, student_number, password_hash)
			VALUES ($1, $2, $3, $4, $5, $6)`+userReturning,
			req.Email, req.FullName, req.Role, req.DepartmentID, req.StudentNumber, passwordHash,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return err
	})
	if err != nil {
		return nil, mapWriteErr(err, nil)
	}
	return &out, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getByQuery(ctx, userGetByIDQuery, id)
}

// GetByEmail retrieves a user by email, case-insensitively.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getByQuery(ctx, userGetByEmailQuery, model.NormalizeEmail(email))
}

// RoleOf resolves the directory role for a principal. It satisfies
// ports.UserDirectory; a missing user is ports.ErrUnknownPrincipal.
func (r *UserRepo) RoleOf(ctx context.Context, userID string) (domainauth.Role, error) {
	var role domainauth.Role
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&role)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ports.ErrUnknownPrincipal
		}
		return "", fmt.Errorf("resolve role: %w", err)
	}
	if !role.Valid() {
		return "", ports.ErrUnknownPrincipal
	}
	return role, nil
}

// List retrieves users with optional filters, ordered by name.
func (r *UserRepo) List(ctx context.Context, opts model.UserListOptions) ([]*model.User, error) {
	limit, offset := clampPage(opts.Limit, opts.Offset)
	queryOpts := []database.ListQueryOption{
		database.WithColumns(userColumns()...),
		database.WithLimit(limit),
		database.WithOffset(offset),
		database.WithOrderBy("full_name", sortDirAsc),
	}
	if opts.Role != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("role", database.Equal, string(*opts.Role)),
		))
	}
	if opts.DepartmentID != nil && strings.TrimSpace(*opts.DepartmentID) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("department_id", database.Equal, strings.TrimSpace(*opts.DepartmentID)),
		))
	}
	if opts.Q != nil && strings.TrimSpace(*opts.Q) != "" {
		pattern := "%" + strings.TrimSpace(*opts.Q) + "%"
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereRawCond("(email ILIKE $1 OR full_name ILIKE $1)", pattern),
		))
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions("users", queryOpts...))

	var rowsOut []model.User
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.User])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return collectPtrs(rowsOut), nil
}

// ListOfficers returns the officers of a department.
func (r *UserRepo) ListOfficers(ctx context.Context, departmentID string) ([]*model.User, error) {
	var rowsOut []model.User
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, userOfficersQuery, departmentID)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.User])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list officers: %w", err)
	}
	return collectPtrs(rowsOut), nil
}

// Update applies req to the stored user inside one transaction so the
// department rule is checked against the merged row.
func (r *UserRepo) Update(ctx context.Context, id string, req model.UpdateUserRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.User
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, userGetByIDQuery+` FOR UPDATE`, id)
		if err != nil {
			return err
		}
		current, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		if err != nil {
			return err
		}
		merged, err := req.Apply(current)
		if err != nil {
			return err
		}
		rows, err = tx.Query(ctx, `
			UPDATE users SET full_name = $1, role = $2, department_id = $3, student_number = $4
			WHERE id = $5`+userReturning,
			merged.FullName, merged.Role, merged.DepartmentID, merged.StudentNumber, id,
		)
		if err != nil {
			return err
		}
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return err
	}})
	if err != nil {
		return nil, mapWriteErr(err, ErrUserNotFound)
	}
	return &out, nil
}

// SetPassword replaces the stored password hash.
func (r *UserRepo) SetPassword(ctx context.Context, id, hash string) error {
	var affected int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash, id)
		if err != nil {
			return err
		}
		affected = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete deletes a user by ID.
func (r *UserRepo) Delete(ctx context.Context, id string) (bool, error) {
	var affected int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
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

func (r *UserRepo) getByQuery(ctx context.Context, q string, args ...any) (*model.User, error) {
	var u model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		u, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
