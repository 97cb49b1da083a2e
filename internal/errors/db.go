package errors

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres names implicit constraints <table>_<column>_<suffix>.
var constraintSuffixes = []string{"_fkey", "_check", "_chk", "_key"}

// tables maps schema tables to the nouns used in client messages.
var tables = map[string]string{
	"complaint_attachments": "attachment",
	"complaint_responses":   "response",
	"complaints":            "complaint",
	"departments":           "department",
	"notifications":         "notification",
	"users":                 "user",
}

var (
	reDetailKey    = regexp.MustCompile(`Key \(([^)]+)\)=`)
	reReferencedBy = regexp.MustCompile(`still referenced from table "?([a-z_]+)"?`)
	reMissingIn    = regexp.MustCompile(`not present in table "?([a-z_]+)"?`)
)

// constraintMessages overrides the generic text for table-level checks.
var constraintMessages = map[string]struct{ field, message string }{
	"users_officer_department_chk": {
		"department_id",
		"Department officers must belong to exactly one department; other roles must not.",
	},
}

// MapDBError turns driver and context errors into AppErrors. Errors it does
// not recognize are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, ErrCodeTimeout, "Request timed out. Please try again.")
	case errors.Is(err, context.Canceled):
		return Wrap(err, ErrCodeCanceled, "Request was canceled.")
	case errors.Is(err, pgx.ErrNoRows):
		return Wrap(err, ErrCodeNotFound, "Resource not found")
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	if o, ok := constraintMessages[pgErr.ConstraintName]; ok {
		return &AppError{Code: ErrCodeValidation, Message: o.message, Field: o.field, Cause: pgErr}
	}

	field := fieldOf(pgErr)
	out := &AppError{Field: field, Cause: pgErr}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		out.Code = ErrCodeConflict
		out.Message = "This value already exists. Please choose a different one."
	case pgerrcode.ForeignKeyViolation:
		out.Code = ErrCodeForeignKey
		out.Message = foreignKeyMessage(pgErr)
	case pgerrcode.CheckViolation:
		out.Code = ErrCodeValidation
		out.Message = "Invalid data. Please check your input."
		if field != "" {
			out.Message = "This field has an invalid value."
		}
	case pgerrcode.NotNullViolation:
		out.Code = ErrCodeValidation
		out.Message = "Required field is missing. Please check your input."
		if field != "" {
			out.Message = "This field is required."
		}
	default:
		out.Code = ErrCodeInternal
		out.Message = "A database error occurred. Please try again."
		out.Field = ""
	}
	return out
}

// fieldOf names the column behind a violation, preferring driver metadata,
// then the constraint name, then the "Key (col)=" detail text.
func fieldOf(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if f := columnFromConstraint(pgErr.TableName, pgErr.ConstraintName); f != "" {
		return f
	}
	if m := reDetailKey.FindStringSubmatch(pgErr.Detail); m != nil && !strings.ContainsAny(m[1], ",(") {
		return m[1]
	}
	return ""
}

// columnFromConstraint strips the table prefix and the constraint suffix, so
// "complaints_department_id_fkey" yields "department_id".
func columnFromConstraint(table, constraint string) string {
	if constraint == "" {
		return ""
	}
	prefix := ""
	if table != "" && strings.HasPrefix(constraint, table+"_") {
		prefix = table + "_"
	} else {
		for t := range tables {
			if strings.HasPrefix(constraint, t+"_") && len(t)+1 > len(prefix) {
				prefix = t + "_"
			}
		}
	}
	if prefix == "" {
		return ""
	}
	rest := strings.TrimPrefix(constraint, prefix)
	for _, suffix := range constraintSuffixes {
		if strings.HasSuffix(rest, suffix) {
			return strings.TrimSuffix(rest, suffix)
		}
	}
	return ""
}

func foreignKeyMessage(pgErr *pgconn.PgError) string {
	if m := reReferencedBy.FindStringSubmatch(pgErr.Detail); m != nil {
		return "Cannot delete because this item is in use by a " + noun(m[1]) + "."
	}
	if m := reMissingIn.FindStringSubmatch(pgErr.Detail); m != nil {
		return "Cannot complete operation because the referenced " + noun(m[1]) + " does not exist."
	}
	if col := columnFromConstraint(pgErr.TableName, pgErr.ConstraintName); col != "" {
		return "Cannot complete operation because the referenced " + strings.ReplaceAll(strings.TrimSuffix(col, "_id"), "_", " ") + " is in use or does not exist."
	}
	return "Cannot complete operation because this item is in use."
}

func noun(table string) string {
	if n, ok := tables[table]; ok {
		return n
	}
	return strings.ReplaceAll(strings.TrimSuffix(table, "s"), "_", " ")
}
