package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/acadly/complaintdesk/internal/domain/model"
	"github.com/acadly/complaintdesk/internal/service"
)

// DepartmentHandlers provides HTTP handlers for department administration.
type DepartmentHandlers struct {
	Svc    *service.DepartmentService
	Logger *slog.Logger
}

// Create handles HTTP requests to create a new department.
func (h *DepartmentHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateDepartmentRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	d, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, d)
}

// List handles HTTP requests to list departments with pagination.
func (h *DepartmentHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, defaultListLimit, maxListLimit)

	depts, err := h.Svc.List(r.Context(), limit, offset)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	if depts == nil {
		depts = []*model.Department{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"departments": depts,
		"limit":       limit,
		"offset":      offset,
	})
}

// GetByID handles HTTP requests to get a department by ID.
func (h *DepartmentHandlers) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	d, err := h.Svc.GetByID(r.Context(), id)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, d)
}

// Officers lists the officers of a department.
// GET /api/departments/{id}/officers.
func (h *DepartmentHandlers) Officers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	officers, err := h.Svc.Officers(r.Context(), id)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"officers": officers})
}

// Update handles HTTP requests to update a department.
func (h *DepartmentHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req model.UpdateDepartmentRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	d, err := h.Svc.Update(r.Context(), id, req)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, d)
}

// Delete handles HTTP requests to delete a department. Departments that
// still have complaints or officers are rejected with 409.
func (h *DepartmentHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	deleted, err := h.Svc.Delete(r.Context(), id)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	if !deleted {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errors.New("department not found")})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
