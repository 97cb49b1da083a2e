package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/acadly/complaintdesk/internal/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"canceled", fmt.Errorf("delete: %w", context.Canceled), "canceled"},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"app error", fmt.Errorf("svc: %w", apperrors.NotFound("gone")), string(apperrors.ErrCodeNotFound)},
		{"unique violation", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, "pg_constraint"},
		{"serialization", fmt.Errorf("tx: %w", &pgconn.PgError{Code: pgerrcode.SerializationFailure}), "pg_rollback"},
		{"admin shutdown", &pgconn.PgError{Code: pgerrcode.AdminShutdown}, "pg_operator"},
		{"other pg", &pgconn.PgError{Code: pgerrcode.UndefinedTable}, "pg_error"},
		{"plain", fmt.Errorf("wrap: %w", goerrors.New("boom")), "errors_errorstring"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
