package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound         = "NOT_FOUND"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeInvalidArgument  = "INVALID_ARGUMENT"
	CodeConflict         = "CONFLICT"
	CodeInternal         = "INTERNAL"
)

// AppError is the error type services hand back to the transport layer.
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Is matches on Code, so errors.Is(err, ErrNotFound) holds for any not-found error.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

func New(statusCode int, code, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound         = New(http.StatusNotFound, CodeNotFound, "not found")
	ErrPermissionDenied = New(http.StatusForbidden, CodePermissionDenied, "permission denied")
	ErrInvalidArgument  = New(http.StatusBadRequest, CodeInvalidArgument, "invalid argument")
	ErrConflict         = New(http.StatusConflict, CodeConflict, "conflict")
	ErrInternal         = New(http.StatusInternalServerError, CodeInternal, "internal error")
)

func NotFound(format string, args ...any) *AppError {
	return New(http.StatusNotFound, CodeNotFound, fmt.Sprintf(format, args...))
}

func PermissionDenied(format string, args ...any) *AppError {
	return New(http.StatusForbidden, CodePermissionDenied, fmt.Sprintf(format, args...))
}

func InvalidArgument(format string, args ...any) *AppError {
	return New(http.StatusBadRequest, CodeInvalidArgument, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) *AppError {
	return New(http.StatusConflict, CodeConflict, fmt.Sprintf(format, args...))
}

func Internal(format string, args ...any) *AppError {
	return New(http.StatusInternalServerError, CodeInternal, fmt.Sprintf(format, args...))
}

// From unwraps err into an AppError, falling back to Internal for anything
// that did not originate here.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("internal server error")
}
