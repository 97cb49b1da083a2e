// Package errors defines the application error type shared by repositories,
// services and the HTTP layer. Handlers map ErrorCode to a status code.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies an AppError.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "not_found"
	ErrCodeConflict     ErrorCode = "conflict"
	ErrCodeValidation   ErrorCode = "validation"
	ErrCodeForeignKey   ErrorCode = "foreign_key"
	ErrCodeInternal     ErrorCode = "internal"
	ErrCodeTimeout      ErrorCode = "timeout"
	ErrCodeCanceled     ErrorCode = "canceled"
	ErrCodeForbidden    ErrorCode = "forbidden"
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	ErrCodeRateLimited  ErrorCode = "rate_limited"
)

// AppError carries a code, a client-safe message and the optional field and
// cause behind it.
type AppError struct {
	Code    ErrorCode
	Message string
	Field   string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// New returns an AppError with the given code.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap attaches code and message to err. It returns nil for a nil err.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

func NotFound(message string) *AppError     { return New(ErrCodeNotFound, message) }
func Conflict(message string) *AppError     { return New(ErrCodeConflict, message) }
func Validation(message string) *AppError   { return New(ErrCodeValidation, message) }
func ForeignKey(message string) *AppError   { return New(ErrCodeForeignKey, message) }
func Forbidden(message string) *AppError    { return New(ErrCodeForbidden, message) }
func Unauthorized(message string) *AppError { return New(ErrCodeUnauthorized, message) }
func RateLimited(message string) *AppError  { return New(ErrCodeRateLimited, message) }

// Conflictf formats a Conflict message.
func Conflictf(format string, args ...any) *AppError {
	return New(ErrCodeConflict, fmt.Sprintf(format, args...))
}

// ValidationField reports an invalid request field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

func as(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// HasCode reports whether any AppError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	e, ok := as(err)
	return ok && e.Code == code
}

func IsNotFound(err error) bool    { return HasCode(err, ErrCodeNotFound) }
func IsConflict(err error) bool    { return HasCode(err, ErrCodeConflict) }
func IsValidation(err error) bool  { return HasCode(err, ErrCodeValidation) }
func IsForeignKey(err error) bool  { return HasCode(err, ErrCodeForeignKey) }
func IsForbidden(err error) bool   { return HasCode(err, ErrCodeForbidden) }
func IsRateLimited(err error) bool { return HasCode(err, ErrCodeRateLimited) }

// GetCode returns the code of the first AppError in err's chain, or "".
func GetCode(err error) ErrorCode {
	if e, ok := as(err); ok {
		return e.Code
	}
	return ""
}

// GetField returns the field of the first AppError in err's chain, or "".
func GetField(err error) string {
	if e, ok := as(err); ok {
		return e.Field
	}
	return ""
}
