package httpx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/acadly/complaintdesk/internal/errors"
)

func TestDetermineErrorStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   apperrors.ErrorCode
	}{
		{"not found", apperrors.NotFound("complaint not found"), http.StatusNotFound, apperrors.ErrCodeNotFound},
		{"conflict", apperrors.Conflict("email taken"), http.StatusConflict, apperrors.ErrCodeConflict},
		{"validation", apperrors.ValidationField("title", "required"), http.StatusBadRequest, apperrors.ErrCodeValidation},
		{"foreign key", apperrors.ForeignKey("department in use"), http.StatusConflict, apperrors.ErrCodeForeignKey},
		{"unauthorized", apperrors.Unauthorized("bad credentials"), http.StatusUnauthorized, apperrors.ErrCodeUnauthorized},
		{"forbidden", apperrors.Forbidden("not yours"), http.StatusForbidden, apperrors.ErrCodeForbidden},
		{"rate limited", apperrors.RateLimited("slow down"), http.StatusTooManyRequests, apperrors.ErrCodeRateLimited},
		{"wrapped app error", fmt.Errorf("svc: %w", apperrors.NotFound("gone")), http.StatusNotFound, apperrors.ErrCodeNotFound},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, apperrors.ErrCodeTimeout},
		{"canceled", fmt.Errorf("query: %w", context.Canceled), http.StatusRequestTimeout, apperrors.ErrCodeCanceled},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, apperrors.ErrCodeInternal},
		{"unknown code", &apperrors.AppError{Code: "weird", Message: "x"}, http.StatusInternalServerError, apperrors.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := DetermineErrorStatus(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestWriteServiceError_ClientError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/complaints", nil)

	WriteServiceError(w, r, nil, apperrors.ValidationField("title", "title is required"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body errorBody
	decodeBody(t, w, &body)
	assert.Equal(t, "validation", body.Error)
	assert.Equal(t, "title is required", body.Message)
	assert.Equal(t, "title", body.Field)
}

func TestWriteServiceError_HidesDriverDetails(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           pgerrcode.UniqueViolation,
		ConstraintName: "users_email_key",
		Detail:         "Key (email)=(a@b.c) already exists.",
	}
	err := apperrors.MapDBError(pgErr)

	w := httptest.NewRecorder()
	WriteServiceError(w, httptest.NewRequest(http.MethodPost, "/api/users", nil), nil, err)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NotContains(t, w.Body.String(), "already exists.")
	assert.NotContains(t, w.Body.String(), "users_email_key")
}

func TestWriteServiceError_ServerErrorIsLoggedAndMasked(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/analytics", nil)

	WriteServiceError(w, r, logger, errors.New("pq: relation does not exist"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body errorBody
	decodeBody(t, w, &body)
	assert.Equal(t, "internal", body.Error)
	assert.Equal(t, errInternal.Error(), body.Message)
	assert.NotContains(t, w.Body.String(), "relation")

	logged := buf.String()
	assert.Contains(t, logged, "request failed")
	assert.Contains(t, logged, "relation does not exist")
	assert.Contains(t, logged, "error_class=")
}

func TestWriteError_DefaultsMessageToStatusText(t *testing.T) {
	w := httptest.NewRecorder()

	WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found"})

	var body errorBody
	decodeBody(t, w, &body)
	assert.Equal(t, "Not Found", body.Message)
	assert.Empty(t, body.Field)
}
