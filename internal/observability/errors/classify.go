// Package errors maps errors onto the low-cardinality labels used in metrics
// and logs.
package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/acadly/complaintdesk/internal/errors"
)

// Classify returns a short label for err. Application errors use their code,
// Postgres errors their SQLSTATE class, and anything else the snake_cased
// type name of the innermost error.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case goerrors.Is(err, context.Canceled):
		return "canceled"
	case goerrors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}

	var appErr *apperrors.AppError
	if goerrors.As(err, &appErr) && appErr.Code != "" {
		return string(appErr.Code)
	}

	var pgErr *pgconn.PgError
	if goerrors.As(err, &pgErr) {
		return pgClass(pgErr.Code)
	}

	return typeName(err)
}

func pgClass(code string) string {
	switch {
	case pgerrcode.IsIntegrityConstraintViolation(code):
		return "pg_constraint"
	case pgerrcode.IsTransactionRollback(code):
		return "pg_rollback"
	case pgerrcode.IsConnectionException(code):
		return "pg_connection"
	case pgerrcode.IsInsufficientResources(code):
		return "pg_resources"
	case pgerrcode.IsOperatorIntervention(code):
		return "pg_operator"
	default:
		return "pg_error"
	}
}

func typeName(err error) string {
	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), ".", "_"))
	if name == "" {
		return "unknown"
	}
	return name
}
