// Package errors provides a lightweight structured error type (BlogPressError)
// for category-based classification and exit-code mapping in the CLI.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrCompletedWithWarnings signals that a build or publish run finished and
// produced output, but skipped one or more content units. Callers wrap it so
// the CLI can report partial success distinctly from a clean run.
var ErrCompletedWithWarnings = stderrors.New("completed with warnings")

// ErrorCategory represents the category of a BlogPress error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryAuth       ErrorCategory = "auth"

	// External system integration errors
	CategoryNetwork ErrorCategory = "network"
	CategoryGit     ErrorCategory = "git"

	// Pipeline errors
	CategoryContent    ErrorCategory = "content"
	CategoryRender     ErrorCategory = "render"
	CategoryPublish    ErrorCategory = "publish"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Runtime and infrastructure errors
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// BlogPressError is a structured error with category, retryability, and context
type BlogPressError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for BlogPressError
type ContextFields map[string]any

// Error implements the error interface
func (e *BlogPressError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *BlogPressError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *BlogPressError) WithContext(key string, value any) *BlogPressError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new BlogPressError
func New(category ErrorCategory, severity ErrorSeverity, message string) *BlogPressError {
	return &BlogPressError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new BlogPressError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *BlogPressError {
	return &BlogPressError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// WrapRetryable creates a new retryable BlogPressError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *BlogPressError {
	return &BlogPressError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	var bpe *BlogPressError
	if stderrors.As(err, &bpe) {
		return bpe.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var bpe *BlogPressError
	if stderrors.As(err, &bpe) {
		return bpe.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a BlogPressError
func GetCategory(err error) ErrorCategory {
	var bpe *BlogPressError
	if stderrors.As(err, &bpe) {
		return bpe.Category
	}
	return CategoryInternal
}
