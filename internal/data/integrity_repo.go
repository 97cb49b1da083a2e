package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/acadly/complaintdesk/internal/data/pgxutil"
)

// IntegrityReport summarizes a database verification run.
type IntegrityReport struct {
	MissingTables         []string       `json:"missing_tables"`
	OfficersWithoutDept   int            `json:"officers_without_department"`
	ComplaintsWithoutDept int            `json:"complaints_without_department"`
	AssigneesNotOfficers  int            `json:"assignees_not_officers"`
	RowCounts             map[string]int `json:"row_counts"`
}

// OK reports whether the verification found no problems.
func (r *IntegrityReport) OK() bool {
	return len(r.MissingTables) == 0 && r.OfficersWithoutDept == 0 &&
		r.ComplaintsWithoutDept == 0 && r.AssigneesNotOfficers == 0
}

// IntegrityRepo checks schema presence and cross-table invariants.
type IntegrityRepo struct {
	DB *sql.DB
}

// NewIntegrityRepo creates a new IntegrityRepo.
func NewIntegrityRepo(db *sql.DB) *IntegrityRepo {
	return &IntegrityRepo{DB: db}
}

// Tables lists the tables the application requires.
func Tables() []string {
	return []string{
		"departments", "users", "complaints", "complaint_responses", "complaint_attachments", "notifications",
	}
}

// Verify runs every check in one connection.
func (r *IntegrityRepo) Verify(ctx context.Context) (*IntegrityReport, error) {
	rep := &IntegrityReport{RowCounts: make(map[string]int)}
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		for _, table := range Tables() {
			var exists bool
			if err := conn.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, table).Scan(&exists); err != nil {
				return fmt.Errorf("check table %s: %w", table, err)
			}
			if !exists {
				rep.MissingTables = append(rep.MissingTables, table)
				continue
			}
			var n int
			q := `SELECT COUNT(*) FROM ` + pgx.Identifier{table}.Sanitize()
			if err := conn.QueryRow(ctx, q).Scan(&n); err != nil {
				return fmt.Errorf("count %s: %w", table, err)
			}
			rep.RowCounts[table] = n
		}
		if len(rep.MissingTables) > 0 {
			return nil
		}

		checks := []struct {
			dst *int
			q   string
		}{
			{&rep.OfficersWithoutDept, `
				SELECT COUNT(*) FROM users u
				LEFT JOIN departments d ON d.id = u.department_id
				WHERE u.role = 'department_officer' AND d.id IS NULL`},
			{&rep.ComplaintsWithoutDept, `
				SELECT COUNT(*) FROM complaints c
				LEFT JOIN departments d ON d.id = c.department_id
				WHERE d.id IS NULL`},
			{&rep.AssigneesNotOfficers, `
				SELECT COUNT(*) FROM complaints c
				JOIN users u ON u.id = c.assigned_officer_id
				WHERE u.role <> 'department_officer' OR u.department_id IS DISTINCT FROM c.department_id`},
		}
		for _, c := range checks {
			if err := conn.QueryRow(ctx, c.q).Scan(c.dst); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("verify database: %w", err)
	}
	return rep, nil
}
