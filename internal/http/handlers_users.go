package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/domain/model"
	"github.com/acadly/complaintdesk/internal/service"
)

// UserHandlers provides HTTP handlers for directory administration.
type UserHandlers struct {
	Svc    *service.UserService
	Logger *slog.Logger
}

// Create handles HTTP requests to create a new user.
func (h *UserHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	u, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, u)
}

// List handles HTTP requests to list users with pagination and filters.
func (h *UserHandlers) List(w http.ResponseWriter, r *http.Request) {
	opts, err := ParseUserListOptions(r)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}

	users, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	if users == nil {
		users = []*model.User{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"users":  users,
		"limit":  opts.Limit,
		"offset": opts.Offset,
	})
}

// GetByID handles HTTP requests to get a user by ID.
func (h *UserHandlers) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	u, err := h.Svc.GetByID(r.Context(), id)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, u)
}

// Update handles HTTP requests to update a user.
func (h *UserHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req model.UpdateUserRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	u, err := h.Svc.Update(r.Context(), id, req)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, u)
}

type setRoleRequest struct {
	Role         string `json:"role"`
	DepartmentID string `json:"department_id,omitempty"`
}

// SetRole changes a user's role and department link.
// PUT /api/users/{id}/role.
func (h *UserHandlers) SetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req setRoleRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	role, valid := domainauth.ParseRole(req.Role)
	if !valid {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "validation",
			Err:     errors.New("unknown role"),
			Field:   "role",
		})
		return
	}

	u, err := h.Svc.SetRole(r.Context(), id, role, req.DepartmentID)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, u)
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

// ResetPassword replaces a user's password and signs them out.
// POST /api/users/{id}/password.
func (h *UserHandlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req resetPasswordRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := h.Svc.ResetPassword(r.Context(), id, req.Password); err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles HTTP requests to delete a user.
func (h *UserHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if p, signedIn := PrincipalFromContext(r.Context()); signedIn && p.UserID == id {
		WriteError(w, ErrorParams{
			Code:    http.StatusConflict,
			ErrCode: "conflict",
			Err:     errors.New("administrators cannot delete their own account"),
		})
		return
	}

	deleted, err := h.Svc.Delete(r.Context(), id)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	if !deleted {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errors.New("user not found")})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
