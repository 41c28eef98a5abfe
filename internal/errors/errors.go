package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a categorized error code
type ErrorCode string

const (
	// Validation errors
	CodeValidation   ErrorCode = "VALIDATION_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Normalization misses
	CodeNoYearFound        ErrorCode = "NO_YEAR_FOUND"
	CodeNoShowPatternFound ErrorCode = "NO_SHOW_PATTERN_FOUND"
	CodeUnchanged          ErrorCode = "UNCHANGED"

	// Filesystem errors
	CodeFilesystem   ErrorCode = "FILESYSTEM_ERROR"
	CodeMarkerWrite  ErrorCode = "MARKER_WRITE_ERROR"
	CodePathNotFound ErrorCode = "PATH_NOT_FOUND"

	// Database errors
	CodeDatabase ErrorCode = "DATABASE_ERROR"
	CodeNotFound ErrorCode = "NOT_FOUND"

	// Config errors
	CodeConfig        ErrorCode = "CONFIG_ERROR"
	CodeMissingConfig ErrorCode = "MISSING_CONFIG"
	CodeInvalidConfig ErrorCode = "INVALID_CONFIG"

	// Run errors
	CodeLock ErrorCode = "LOCK_ERROR"

	// Internal errors
	CodeInternal ErrorCode = "INTERNAL_ERROR"
	CodeUnknown  ErrorCode = "UNKNOWN_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError creates a validation error
func ValidationError(message string) *AppError {
	return New(CodeValidation, message)
}

// DatabaseError creates a database error
func DatabaseError(message string, err error) *AppError {
	return Wrap(err, CodeDatabase, message)
}

// NoYearFound reports a movie directory name without a usable year
func NoYearFound(name string) *AppError {
	return New(CodeNoYearFound, fmt.Sprintf("year not found in %q", name)).
		WithContext("name", name)
}

// NoShowPatternFound reports a directory name without an SxxExx marker
func NoShowPatternFound(name string) *AppError {
	return New(CodeNoShowPatternFound, fmt.Sprintf("no show pattern found in %q", name)).
		WithContext("name", name)
}

// Unchanged reports a name that is already in canonical form
func Unchanged(name string) *AppError {
	return New(CodeUnchanged, fmt.Sprintf("%q is already canonical", name)).
		WithContext("name", name)
}

// FilesystemError wraps a failed rename, move, delete or mkdir
func FilesystemError(op, path string, err error) *AppError {
	return Wrap(err, CodeFilesystem, fmt.Sprintf("%s %s failed", op, path)).
		WithContext("op", op).
		WithContext("path", path)
}

// MarkerWriteError wraps a failed ledger append
func MarkerWriteError(path string, err error) *AppError {
	return Wrap(err, CodeMarkerWrite, fmt.Sprintf("unable to write marker in %s", path)).
		WithContext("path", path)
}

// ConfigError creates a configuration error
func ConfigError(message string, err error) *AppError {
	if err != nil {
		return Wrap(err, CodeConfig, message)
	}
	return New(CodeConfig, message)
}

// LockError reports that another run holds the process lock
func LockError(path string, err error) *AppError {
	if err != nil {
		return Wrap(err, CodeLock, fmt.Sprintf("unable to lock %s", path))
	}
	return New(CodeLock, fmt.Sprintf("another run holds %s", path))
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == CodeValidation || appErr.Code == CodeInvalidInput
	}
	return false
}

// IsSkip reports whether err is a normalization miss or an unchanged name.
// Those end processing of an entry without being failures.
func IsSkip(err error) bool {
	switch GetErrorCode(err) {
	case CodeNoYearFound, CodeNoShowPatternFound, CodeUnchanged:
		return true
	}
	return false
}

// IsFatal reports whether err must abort the whole run
func IsFatal(err error) bool {
	switch GetErrorCode(err) {
	case CodeConfig, CodeMissingConfig, CodeInvalidConfig, CodeLock:
		return true
	}
	return false
}

// NotFoundError creates a not found error
func NotFoundError(resource, identifier string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found: %s", resource, identifier))
}
