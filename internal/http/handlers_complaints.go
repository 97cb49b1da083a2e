package httpx

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/acadly/complaintdesk/internal/domain/model"
	"github.com/acadly/complaintdesk/internal/service"
)

// multipartOverhead is the allowance for multipart framing on top of the
// attachment size limit.
const multipartOverhead = 64 << 10

// ComplaintHandlers provides HTTP handlers for complaint operations.
type ComplaintHandlers struct {
	Svc    *service.ComplaintService
	Logger *slog.Logger
}

// Create files a complaint for the calling student.
// POST /api/complaints.
func (h *ComplaintHandlers) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req model.CreateComplaintRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	c, err := h.Svc.Submit(r.Context(), p, &req)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, c)
}

// Mine lists the calling student's complaints.
// GET /api/complaints/mine.
func (h *ComplaintHandlers) Mine(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	opts, err := ParseComplaintListOptions(r)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}

	items, err := h.Svc.ListMine(r.Context(), p, opts)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	writeComplaintPage(w, items, opts)
}

// Queue lists complaints for triage.
// GET /api/department/complaints.
func (h *ComplaintHandlers) Queue(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	opts, err := ParseComplaintListOptions(r)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}

	items, err := h.Svc.ListForDepartment(r.Context(), p, opts)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	writeComplaintPage(w, items, opts)
}

func writeComplaintPage(w http.ResponseWriter, items []*model.Complaint, opts model.ComplaintListOptions) {
	if items == nil {
		items = []*model.Complaint{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"complaints": items,
		"limit":      opts.Limit,
		"offset":     opts.Offset,
	})
}

// Get returns a complaint with its thread and attachments.
// GET /api/complaints/{id}.
func (h *ComplaintHandlers) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.Svc.Get(r.Context(), p, id)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, detail)
}

// Responses lists a complaint's thread.
// GET /api/complaints/{id}/responses.
func (h *ComplaintHandlers) Responses(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	items, err := h.Svc.ListResponses(r.Context(), p, id)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	if items == nil {
		items = []model.ComplaintResponse{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"responses": items})
}

// Respond adds an officer response.
// POST /api/complaints/{id}/responses.
func (h *ComplaintHandlers) Respond(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req model.CreateResponseRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	resp, err := h.Svc.AddResponse(r.Context(), p, id, &req)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, resp)
}

// ChangeStatus moves a complaint along the workflow.
// POST /api/complaints/{id}/status.
func (h *ComplaintHandlers) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req model.UpdateComplaintStatusRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	c, err := h.Svc.ChangeStatus(r.Context(), p, id, &req)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

// Assign hands a complaint to an officer.
// POST /api/complaints/{id}/assign.
func (h *ComplaintHandlers) Assign(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req model.AssignComplaintRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	c, err := h.Svc.Assign(r.Context(), p, id, &req)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

// Upload stores a file sent as the "file" part of a multipart form.
// POST /api/complaints/{id}/attachments.
func (h *ComplaintHandlers) Upload(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	limit := h.Svc.AttachmentMaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(limit); err != nil {
		writeUploadError(w, err)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeUploadError(w, err)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		writeUploadError(w, err)
		return
	}
	contentType := hdr.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(content)
	}

	att, err := h.Svc.UploadAttachment(r.Context(), p, id, &model.CreateAttachmentRequest{
		FileName:    hdr.Filename,
		ContentType: contentType,
		Content:     content,
	})
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, att)
}

func writeUploadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		WriteError(w, ErrorParams{Code: http.StatusRequestEntityTooLarge, ErrCode: "payload_too_large", Err: err, Field: "file"})
		return
	}
	WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_upload", Err: err, Field: "file"})
}

// Download streams an attachment's content.
// GET /api/complaints/{id}/attachments/{attachmentId}.
func (h *ComplaintHandlers) Download(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	attID, ok := pathID(w, r, "attachmentId")
	if !ok {
		return
	}

	att, err := h.Svc.GetAttachment(r.Context(), p, id, attID)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}

	w.Header().Set("Content-Type", att.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(att.Content)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": att.FileName}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(att.Content); err != nil {
		return
	}
}
