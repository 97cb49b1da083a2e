package httpx

import (
	"log/slog"
	"net/http"

	"github.com/acadly/complaintdesk/internal/domain/model"
	"github.com/acadly/complaintdesk/internal/service"
)

// NotificationHandlers serves the caller's in-app notifications.
type NotificationHandlers struct {
	Svc    *service.NotificationService
	Logger *slog.Logger
}

// List returns a page of the caller's notifications and the unread count.
// GET /api/notifications?unread=true.
func (h *NotificationHandlers) List(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	limit, offset := ParseLimitOffset(r, defaultListLimit, maxListLimit)

	page, err := h.Svc.List(r.Context(), model.NotificationListOptions{
		UserID:     p.UserID,
		UnreadOnly: r.URL.Query().Get("unread") == "true",
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

// MarkRead marks one notification as read.
// POST /api/notifications/{id}/read.
func (h *NotificationHandlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Svc.MarkRead(r.Context(), p.UserID, id); err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead marks every unread notification of the caller as read.
// POST /api/notifications/read-all.
func (h *NotificationHandlers) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	n, err := h.Svc.MarkAllRead(r.Context(), p.UserID)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"marked": n})
}
