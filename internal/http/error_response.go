package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/acadly/complaintdesk/internal/errors"
	obserrors "github.com/acadly/complaintdesk/internal/observability/errors"
)

var errInternal = errors.New("internal server error")

// statusForCode maps application error codes onto HTTP status codes.
//
//nolint:gochecknoglobals // static read-only lookup
var statusForCode = map[apperrors.ErrorCode]int{
	apperrors.ErrCodeNotFound:     http.StatusNotFound,
	apperrors.ErrCodeConflict:     http.StatusConflict,
	apperrors.ErrCodeValidation:   http.StatusBadRequest,
	apperrors.ErrCodeForeignKey:   http.StatusConflict,
	apperrors.ErrCodeUnauthorized: http.StatusUnauthorized,
	apperrors.ErrCodeForbidden:    http.StatusForbidden,
	apperrors.ErrCodeRateLimited:  http.StatusTooManyRequests,
	apperrors.ErrCodeTimeout:      http.StatusGatewayTimeout,
	apperrors.ErrCodeCanceled:     http.StatusRequestTimeout,
	apperrors.ErrCodeInternal:     http.StatusInternalServerError,
}

// DetermineErrorStatus returns the HTTP status and error code for err.
// Errors that are not AppErrors are internal unless they carry a context
// deadline or cancellation.
func DetermineErrorStatus(err error) (int, apperrors.ErrorCode) {
	code := apperrors.GetCode(err)
	if code == "" {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			code = apperrors.ErrCodeTimeout
		case errors.Is(err, context.Canceled):
			code = apperrors.ErrCodeCanceled
		default:
			code = apperrors.ErrCodeInternal
		}
	}
	status, ok := statusForCode[code]
	if !ok {
		return http.StatusInternalServerError, apperrors.ErrCodeInternal
	}
	return status, code
}

// WriteServiceError writes err as a JSON error response. Server errors are
// logged and their message replaced so internals never reach the client.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := DetermineErrorStatus(err)
	if status >= http.StatusInternalServerError {
		if logger == nil {
			logger = slog.Default()
		}
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error_class", obserrors.Classify(err),
			"error", err,
		)
		WriteError(w, ErrorParams{Code: status, ErrCode: string(code), Err: errInternal})
		return
	}
	WriteError(w, ErrorParams{Code: status, ErrCode: string(code), Err: publicError(err), Field: apperrors.GetField(err)})
}

// publicError drops the wrapped cause of an AppError, which may carry driver
// details.
func publicError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return errors.New(appErr.Message)
	}
	return err
}
