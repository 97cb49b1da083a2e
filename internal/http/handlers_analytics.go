package httpx

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/acadly/complaintdesk/internal/service"
)

// AnalyticsHandlers serves the complaint activity summary.
type AnalyticsHandlers struct {
	Svc    *service.AnalyticsService
	Logger *slog.Logger
}

// Summary returns totals, optionally for one department.
// GET /api/analytics?department_id=<optional>.
func (h *AnalyticsHandlers) Summary(w http.ResponseWriter, r *http.Request) {
	var dept *string
	if v := strings.TrimSpace(r.URL.Query().Get("department_id")); v != "" {
		dept = &v
	}

	sum, err := h.Svc.Summary(r.Context(), dept)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, sum)
}
