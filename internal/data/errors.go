package data

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/acadly/complaintdesk/internal/errors"
)

// Shared sentinel errors for data-layer repositories. They are AppErrors so
// the HTTP layer can map them by code without importing this package.
var (
	ErrUserNotFound         = apperrors.NotFound("user not found")
	ErrDepartmentNotFound   = apperrors.NotFound("department not found")
	ErrComplaintNotFound    = apperrors.NotFound("complaint not found")
	ErrAttachmentNotFound   = apperrors.NotFound("attachment not found")
	ErrNotificationNotFound = apperrors.NotFound("notification not found")

	// ErrStatusChanged is returned when a complaint left the expected status
	// between read and write.
	ErrStatusChanged = apperrors.Conflict("complaint status was changed by someone else")
)

// mapWriteErr converts driver errors into AppErrors. pgx.ErrNoRows becomes
// notFound when one is given.
func mapWriteErr(err, notFound error) error {
	if err == nil {
		return nil
	}
	if notFound != nil && errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return apperrors.MapDBError(err)
	}
	return err
}

// collectPtrs converts a slice of values into a slice of pointers.
func collectPtrs[T any](in []T) []*T {
	out := make([]*T, len(in))
	for i := range in {
		out[i] = &in[i]
	}
	return out
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	return limit, max(offset, 0)
}
