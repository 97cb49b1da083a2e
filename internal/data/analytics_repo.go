package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/acadly/complaintdesk/internal/data/pgxutil"
	"github.com/acadly/complaintdesk/internal/domain/model"
)

// AnalyticsRepo runs the aggregate queries behind the admin analytics page.
// Every query honours scope.DepartmentID when set.
type AnalyticsRepo struct {
	DB *sql.DB
}

// NewAnalyticsRepo creates a new AnalyticsRepo.
func NewAnalyticsRepo(db *sql.DB) *AnalyticsRepo {
	return &AnalyticsRepo{DB: db}
}

// scopeFilter returns a WHERE fragment on complaints aliased as c, starting
// with placeholder $1.
func scopeFilter(scope model.AnalyticsScope) (string, []any) {
	if scope.DepartmentID == nil || *scope.DepartmentID == "" {
		return "TRUE", nil
	}
	return "c.department_id = $1", []any{*scope.DepartmentID}
}

// CountByStatus returns complaint counts keyed by status. Statuses with no
// complaints are present with zero.
func (r *AnalyticsRepo) CountByStatus(
	ctx context.Context,
	scope model.AnalyticsScope,
) (map[model.ComplaintStatus]int, error) {
	where, args := scopeFilter(scope)
	out := make(map[model.ComplaintStatus]int, 4)
	for _, s := range model.ComplaintStatuses() {
		out[s] = 0
	}
	err := r.groupCount(ctx, `SELECT c.status, COUNT(*) FROM complaints c WHERE `+where+` GROUP BY c.status`,
		args, func(key string, n int) { out[model.ComplaintStatus(key)] = n })
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	return out, nil
}

// CountByCategory returns complaint counts keyed by category.
func (r *AnalyticsRepo) CountByCategory(
	ctx context.Context,
	scope model.AnalyticsScope,
) (map[model.ComplaintCategory]int, error) {
	where, args := scopeFilter(scope)
	out := map[model.ComplaintCategory]int{
		model.ComplaintCategoryGrade:  0,
		model.ComplaintCategoryCourse: 0,
		model.ComplaintCategoryOther:  0,
	}
	err := r.groupCount(ctx, `SELECT c.category, COUNT(*) FROM complaints c WHERE `+where+` GROUP BY c.category`,
		args, func(key string, n int) { out[model.ComplaintCategory(key)] = n })
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	return out, nil
}

// CountByDepartment returns complaint counts for every department, busiest first.
func (r *AnalyticsRepo) CountByDepartment(
	ctx context.Context,
	scope model.AnalyticsScope,
) ([]model.DepartmentCount, error) {
	where, args := scopeFilter(scope)
	var out []model.DepartmentCount
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT d.id AS department_id, d.code, d.name, COUNT(c.id)::int AS count
			FROM departments d
			LEFT JOIN complaints c ON c.department_id = d.id
			WHERE `+where+` OR c.id IS NULL
			GROUP BY d.id, d.code, d.name
			ORDER BY count DESC, d.code`, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.DepartmentCount])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("count by department: %w", err)
	}
	if scope.DepartmentID != nil && *scope.DepartmentID != "" {
		filtered := out[:0]
		for _, dc := range out {
			if dc.DepartmentID == *scope.DepartmentID {
				filtered = append(filtered, dc)
			}
		}
		out = filtered
	}
	if out == nil {
		out = []model.DepartmentCount{}
	}
	return out, nil
}

// AvgResolutionHours returns the mean time from submission to a terminal
// status, or nil when nothing has been closed.
func (r *AnalyticsRepo) AvgResolutionHours(ctx context.Context, scope model.AnalyticsScope) (*float64, error) {
	where, args := scopeFilter(scope)
	var avg *float64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, `
			SELECT AVG(EXTRACT(EPOCH FROM (c.resolved_at - c.created_at)) / 3600.0)::float8
			FROM complaints c
			WHERE c.resolved_at IS NOT NULL AND `+where, args...).Scan(&avg)
	})
	if err != nil {
		return nil, fmt.Errorf("average resolution: %w", err)
	}
	return avg, nil
}

// CountCreatedSince counts complaints created at or after scope.Since.
func (r *AnalyticsRepo) CountCreatedSince(ctx context.Context, scope model.AnalyticsScope) (int, error) {
	where, args := scopeFilter(scope)
	args = append(args, scope.Since.UTC())
	var n int
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, fmt.Sprintf(
			`SELECT COUNT(*) FROM complaints c WHERE %s AND c.created_at >= $%d`, where, len(args)),
			args...).Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("count created since: %w", err)
	}
	return n, nil
}

func (r *AnalyticsRepo) groupCount(ctx context.Context, q string, args []any, fn func(string, int)) error {
	return pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		var (
			key string
			n   int
		)
		_, err = pgx.ForEachRow(rows, []any{&key, &n}, func() error {
			fn(key, n)
			return nil
		})
		return err
	})
}
