package httpx

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/observability/metrics"
	"github.com/acadly/complaintdesk/internal/service"
)

// DefaultMetricsPath is where Prometheus metrics are served when
// RouterServices.MetricsPath is empty.
const DefaultMetricsPath = "/metrics"

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Gate          *service.AccessGate
	Auth          *service.AuthService
	Complaints    *service.ComplaintService
	Users         *service.UserService
	Departments   *service.DepartmentService
	Notifications *service.NotificationService
	Analytics     *service.AnalyticsService
	HealthChecks  []HealthCheck

	// Optional: request metrics and the /metrics endpoint.
	Metrics         *metrics.Metrics
	MetricsGatherer prometheus.Gatherer
	MetricsPath     string

	PasswordEnabled bool
	SSOEnabled      bool
	CookieDomain    string
	Logger          *slog.Logger
}

type middleware = func(http.Handler) http.Handler

// router registers routes on a ServeMux with per-route middleware.
type router struct {
	mux *http.ServeMux
}

func (rt router) handle(pattern string, h http.HandlerFunc, mws ...middleware) {
	var handler http.Handler = h
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	rt.mux.Handle(pattern, handler)
}

// NewRouter creates the HTTP handler: every request passes recovery, logging,
// metrics and the access gate before reaching its route.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rt := router{mux: http.NewServeMux()}
	csrf := CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain})

	registerHealthRoutes(rt, services, logger)
	registerAuthRoutes(rt, services, logger, csrf)
	registerPageRoutes(rt, services, logger)
	registerAPIRoutes(rt, services, logger, csrf)

	var handler http.Handler = rt.mux
	handler = Gate(services.Gate)(handler)
	handler = Metrics(services.Metrics)(handler)
	handler = Logging(logger)(handler)
	return Recover(logger)(handler)
}

func registerHealthRoutes(rt router, services RouterServices, logger *slog.Logger) {
	health := &HealthHandlers{Checks: services.HealthChecks, Logger: logger}
	rt.handle("GET /healthz", health.Health)
	rt.handle("HEAD /healthz", health.Health)

	if services.MetricsGatherer != nil {
		path := services.MetricsPath
		if path == "" {
			path = DefaultMetricsPath
		}
		rt.mux.Handle("GET "+path, promhttp.HandlerFor(services.MetricsGatherer, promhttp.HandlerOpts{}))
	}
}

func registerAuthRoutes(rt router, services RouterServices, logger *slog.Logger, csrf middleware) {
	policy := services.Gate.Policy()
	h := &AuthHandlers{
		Svc:             services.Auth,
		Principals:      services.Gate,
		Policy:          policy,
		PasswordEnabled: services.PasswordEnabled,
		SSOEnabled:      services.SSOEnabled,
		CookieDomain:    services.CookieDomain,
		Logger:          logger,
	}

	loginPaths := map[string]bool{policy.GenericLogin(): true}
	for _, role := range domainauth.Roles() {
		loginPaths[policy.LoginFor(role)] = true
	}
	for p := range loginPaths {
		rt.handle("GET "+p, h.LoginPage, csrf)
	}

	rt.handle("POST /auth/login", h.Login, csrf)
	rt.handle("POST /auth/register", h.Register, csrf)
	rt.handle("POST /auth/logout", h.Logout, csrf)
	rt.handle("GET /auth/status", h.Status, csrf)
	rt.handle("GET /auth/sso/login", h.SSOLogin)
	rt.handle("GET /auth/callback", h.Callback)
}

// registerPageRoutes wires the page view models. Access is enforced by the
// gate, which runs in front of the mux.
func registerPageRoutes(rt router, services RouterServices, logger *slog.Logger) {
	h := &PageHandlers{
		Complaints:    services.Complaints,
		Users:         services.Users,
		Departments:   services.Departments,
		Notifications: services.Notifications,
		Analytics:     services.Analytics,
		Logger:        logger,
	}

	rt.handle("GET /dashboard", h.StudentDashboard)
	rt.handle("GET /complaints/{id}", h.Complaint)

	rt.handle("GET /admin/dashboard", h.AdminDashboard)
	rt.handle("GET /admin/users", h.AdminUsers)
	rt.handle("GET /admin/departments", h.AdminDepartments)
	rt.handle("GET /admin/analytics", h.AdminAnalytics)

	rt.handle("GET /department/dashboard", h.DepartmentDashboard)
	rt.handle("GET /department/complaints/{id}", h.Complaint)
}

func registerAPIRoutes(rt router, services RouterServices, logger *slog.Logger, csrf middleware) {
	signedIn := RequireAuth(services.Gate, logger)
	student := RequireRole(services.Gate, logger, domainauth.RoleStudent)
	handler := RequireRole(services.Gate, logger, domainauth.RoleDepartmentOfficer, domainauth.RoleAdmin)
	admin := RequireRole(services.Gate, logger, domainauth.RoleAdmin)

	complaints := &ComplaintHandlers{Svc: services.Complaints, Logger: logger}
	rt.handle("POST /api/complaints", complaints.Create, csrf, student)
	rt.handle("GET /api/complaints/mine", complaints.Mine, csrf, student)
	rt.handle("POST /api/complaints/{id}/attachments", complaints.Upload, csrf, student)
	rt.handle("GET /api/complaints/{id}", complaints.Get, csrf, signedIn)
	rt.handle("GET /api/complaints/{id}/responses", complaints.Responses, csrf, signedIn)
	rt.handle("GET /api/complaints/{id}/attachments/{attachmentId}", complaints.Download, csrf, signedIn)
	rt.handle("GET /api/department/complaints", complaints.Queue, csrf, handler)
	rt.handle("POST /api/complaints/{id}/status", complaints.ChangeStatus, csrf, handler)
	rt.handle("POST /api/complaints/{id}/responses", complaints.Respond, csrf, handler)
	rt.handle("POST /api/complaints/{id}/assign", complaints.Assign, csrf, handler)

	users := &UserHandlers{Svc: services.Users, Logger: logger}
	rt.handle("GET /api/users", users.List, csrf, admin)
	rt.handle("POST /api/users", users.Create, csrf, admin)
	rt.handle("GET /api/users/{id}", users.GetByID, csrf, admin)
	rt.handle("PATCH /api/users/{id}", users.Update, csrf, admin)
	rt.handle("PUT /api/users/{id}/role", users.SetRole, csrf, admin)
	rt.handle("POST /api/users/{id}/password", users.ResetPassword, csrf, admin)
	rt.handle("DELETE /api/users/{id}", users.Delete, csrf, admin)

	depts := &DepartmentHandlers{Svc: services.Departments, Logger: logger}
	rt.handle("GET /api/departments", depts.List, csrf, signedIn)
	rt.handle("POST /api/departments", depts.Create, csrf, admin)
	rt.handle("GET /api/departments/{id}", depts.GetByID, csrf, signedIn)
	rt.handle("GET /api/departments/{id}/officers", depts.Officers, csrf, handler)
	rt.handle("PATCH /api/departments/{id}", depts.Update, csrf, admin)
	rt.handle("DELETE /api/departments/{id}", depts.Delete, csrf, admin)

	analytics := &AnalyticsHandlers{Svc: services.Analytics, Logger: logger}
	rt.handle("GET /api/analytics", analytics.Summary, csrf, admin)

	notifications := &NotificationHandlers{Svc: services.Notifications, Logger: logger}
	rt.handle("GET /api/notifications", notifications.List, csrf, signedIn)
	rt.handle("POST /api/notifications/{id}/read", notifications.MarkRead, csrf, signedIn)
	rt.handle("POST /api/notifications/read-all", notifications.MarkAllRead, csrf, signedIn)
}
