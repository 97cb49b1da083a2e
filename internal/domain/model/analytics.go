//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// DepartmentCount is the number of complaints routed to one department.
type DepartmentCount struct {
	DepartmentID string `json:"department_id" db:"department_id"`
	Code         string `json:"code"          db:"code"`
	Name         string `json:"name"          db:"name"`
	Count        int    `json:"count"         db:"count"`
}

// AnalyticsSummary aggregates complaint activity for the admin dashboard.
type AnalyticsSummary struct {
	Total              int                       `json:"total"`
	ByStatus           map[ComplaintStatus]int   `json:"by_status"`
	ByCategory         map[ComplaintCategory]int `json:"by_category"`
	ByDepartment       []DepartmentCount         `json:"by_department"`
	AvgResolutionHours *float64                  `json:"avg_resolution_hours,omitempty"`
	CreatedLast30Days  int                       `json:"created_last_30_days"`
	GeneratedAt        time.Time                 `json:"generated_at"`
}

// AnalyticsScope restricts analytics to one department when set.
type AnalyticsScope struct {
	DepartmentID *string
	Since        time.Time
}
