package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Configuration errors (2xxx)
	ErrCodeConfigNotFound ErrorCode = "PM2001"
	ErrCodeConfigInvalid  ErrorCode = "PM2002"
	ErrCodeConfigWrite    ErrorCode = "PM2003"

	// Input errors (3xxx)
	ErrCodeInputNotFound    ErrorCode = "PM3001"
	ErrCodeInputMalformed   ErrorCode = "PM3002"
	ErrCodeInputUnsupported ErrorCode = "PM3003"

	// Data errors (4xxx)
	ErrCodeColumnMissing ErrorCode = "PM4001"
	ErrCodeInvalidDate   ErrorCode = "PM4002"
	ErrCodeInvalidNumber ErrorCode = "PM4003"
	ErrCodeRowMismatch   ErrorCode = "PM4004"

	// File system errors (5xxx)
	ErrCodeFileNotFound   ErrorCode = "PM5001"
	ErrCodeFilePermission ErrorCode = "PM5002"
	ErrCodeFileOperation  ErrorCode = "PM5005"

	// Validation errors (6xxx)
	ErrCodeValidationFailed ErrorCode = "PM6001"
	ErrCodeInvalidInput     ErrorCode = "PM6002"

	// Rendering errors (7xxx)
	ErrCodeChartRender  ErrorCode = "PM7001"
	ErrCodeReportExport ErrorCode = "PM7002"

	// System errors (9xxx)
	ErrCodeInternal ErrorCode = "PM9001"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL"
	SeverityError    ErrorSeverity = "ERROR"
	SeverityWarning  ErrorSeverity = "WARNING"
	SeverityInfo     ErrorSeverity = "INFO"
)

// AppError represents a structured application error with context
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Stack       string
	Timestamp   time.Time
	Suggestions []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\nCaused by: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return b.String()
}

// Unwrap returns the cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another AppError by code
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  SeverityError,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error with AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	var ae *AppError
	if errors.As(err, &ae) {
		for k, v := range ae.Context {
			appErr.Context[k] = v
		}
	}

	return appErr
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			b.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return b.String()
}

// Common error constructors

// ConfigError creates a configuration-related error
func ConfigError(message string, field string) *AppError {
	return New(ErrCodeConfigInvalid, message).
		WithContext("field", field).
		WithSuggestions(
			fmt.Sprintf("Check the '%s' configuration value", field),
			"Run 'policymetrics config show' to inspect the effective configuration",
		)
}

// InputError creates an error for a dataset that cannot be read or parsed
func InputError(message string, path string, cause error) *AppError {
	err := New(ErrCodeInputMalformed, message).WithContext("path", path)
	err.Cause = cause
	return err.WithSuggestions(
		"Check that the file is a JSON array of records or a JSON object of columns",
	)
}

// CellError creates a data error for a single table cell
func CellError(code ErrorCode, column string, row int, value interface{}, reason string) *AppError {
	return New(code, fmt.Sprintf("column %q row %d: %s", column, row, reason)).
		WithContext("column", column).
		WithContext("row", row).
		WithContext("value", truncateString(fmt.Sprint(value), 80)).
		WithSuggestions("Fix the value in the source data or rerun with --coerce to treat it as missing")
}

// ValidationError creates a validation error
func ValidationError(field string, value interface{}, reason string) *AppError {
	return New(ErrCodeValidationFailed, fmt.Sprintf("Validation failed for %s: %s", field, reason)).
		WithContext("field", field).
		WithContext("value", value).
		WithSeverity(SeverityWarning)
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
