package httpx

import (
	"log/slog"
	"net/http"
	"strings"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/domain/model"
	"github.com/acadly/complaintdesk/internal/service"
)

// Page identifiers returned in the "page" field of every view model.
const (
	PageStudentDashboard    = "student_dashboard"
	PageComplaint           = "complaint"
	PageAdminDashboard      = "admin_dashboard"
	PageAdminUsers          = "admin_users"
	PageAdminDepartments    = "admin_departments"
	PageAdminAnalytics      = "admin_analytics"
	PageDepartmentDashboard = "department_dashboard"
)

const (
	dashboardListLimit     = 20
	dashboardNoticeLimit   = 5
	adminRecentListLimit   = 10
	adminDirectoryPageSize = 50
)

// PageHandlers serves the JSON view models behind the gate-protected pages.
// Every handler relies on the gate having placed the principal in the context.
type PageHandlers struct {
	Complaints    *service.ComplaintService
	Users         *service.UserService
	Departments   *service.DepartmentService
	Notifications *service.NotificationService
	Analytics     *service.AnalyticsService
	Logger        *slog.Logger
}

type pageUser struct {
	ID    string          `json:"id"`
	Email string          `json:"email"`
	Role  domainauth.Role `json:"role"`
}

type pageBase struct {
	Page string   `json:"page"`
	User pageUser `json:"user"`
}

func newPageBase(page string, p domainauth.Principal) pageBase {
	return pageBase{Page: page, User: pageUser{ID: p.UserID, Email: p.Email, Role: p.Role}}
}

type dashboardPage struct {
	pageBase
	Complaints    []*model.Complaint         `json:"complaints"`
	Notifications *service.NotificationPage `json:"notifications"`
}

// StudentDashboard lists the student's recent complaints and notifications.
// GET /dashboard.
func (h *PageHandlers) StudentDashboard(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	complaints, err := h.Complaints.ListMine(r.Context(), p, model.ComplaintListOptions{Limit: dashboardListLimit})
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	h.writeDashboard(w, r, newPageBase(PageStudentDashboard, p), complaints)
}

// DepartmentDashboard lists the officer's triage queue and notifications.
// GET /department/dashboard?status=<optional>.
func (h *PageHandlers) DepartmentDashboard(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	opts, err := ParseComplaintListOptions(r)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	queue, err := h.Complaints.ListForDepartment(r.Context(), p, opts)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	h.writeDashboard(w, r, newPageBase(PageDepartmentDashboard, p), queue)
}

func (h *PageHandlers) writeDashboard(
	w http.ResponseWriter,
	r *http.Request,
	base pageBase,
	complaints []*model.Complaint,
) {
	notices, err := h.Notifications.List(r.Context(), model.NotificationListOptions{
		UserID: base.User.ID,
		Limit:  dashboardNoticeLimit,
	})
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	if complaints == nil {
		complaints = []*model.Complaint{}
	}
	WriteJSON(w, http.StatusOK, dashboardPage{pageBase: base, Complaints: complaints, Notifications: notices})
}

type complaintPage struct {
	pageBase
	*model.ComplaintDetail
}

// Complaint shows one complaint to its student or to a handling officer.
// GET /complaints/{id}, /department/complaints/{id}.
func (h *PageHandlers) Complaint(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	detail, err := h.Complaints.Get(r.Context(), p, id)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, complaintPage{pageBase: newPageBase(PageComplaint, p), ComplaintDetail: detail})
}

type adminDashboardPage struct {
	pageBase
	Summary *model.AnalyticsSummary `json:"summary"`
	Recent  []*model.Complaint      `json:"recent"`
}

// AdminDashboard shows the global summary and the latest complaints.
// GET /admin/dashboard.
func (h *PageHandlers) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	sum, err := h.Analytics.Summary(r.Context(), nil)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	recent, err := h.Complaints.ListForDepartment(r.Context(), p, model.ComplaintListOptions{Limit: adminRecentListLimit})
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	if recent == nil {
		recent = []*model.Complaint{}
	}
	WriteJSON(w, http.StatusOK, adminDashboardPage{pageBase: newPageBase(PageAdminDashboard, p), Summary: sum, Recent: recent})
}

type adminUsersPage struct {
	pageBase
	Users []*model.User `json:"users"`
}

// AdminUsers lists the directory.
// GET /admin/users?role=&department_id=&q=.
func (h *PageHandlers) AdminUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	opts, err := ParseUserListOptions(r)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	if r.URL.Query().Get("limit") == "" {
		opts.Limit = adminDirectoryPageSize
	}
	users, err := h.Users.List(r.Context(), opts)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	if users == nil {
		users = []*model.User{}
	}
	WriteJSON(w, http.StatusOK, adminUsersPage{pageBase: newPageBase(PageAdminUsers, p), Users: users})
}

type adminDepartmentsPage struct {
	pageBase
	Departments []*model.Department `json:"departments"`
}

// AdminDepartments lists departments.
// GET /admin/departments.
func (h *PageHandlers) AdminDepartments(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	limit, offset := ParseLimitOffset(r, adminDirectoryPageSize, maxListLimit)
	depts, err := h.Departments.List(r.Context(), limit, offset)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	if depts == nil {
		depts = []*model.Department{}
	}
	WriteJSON(w, http.StatusOK, adminDepartmentsPage{pageBase: newPageBase(PageAdminDepartments, p), Departments: depts})
}

type adminAnalyticsPage struct {
	pageBase
	DepartmentID string                  `json:"department_id,omitempty"`
	Summary      *model.AnalyticsSummary `json:"summary"`
}

// AdminAnalytics shows the summary, optionally for one department.
// GET /admin/analytics?department_id=<optional>.
func (h *PageHandlers) AdminAnalytics(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var dept *string
	deptID := strings.TrimSpace(r.URL.Query().Get("department_id"))
	if deptID != "" {
		dept = &deptID
	}
	sum, err := h.Analytics.Summary(r.Context(), dept)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, adminAnalyticsPage{
		pageBase:     newPageBase(PageAdminAnalytics, p),
		DepartmentID: deptID,
		Summary:      sum,
	})
}
