package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
)

// Exit codes for the blogpress CLI. A run that produced output despite
// skipped units exits with ExitWarnings so callers can tell partial success
// from a clean run or an aborted one.
const (
	ExitClean    = 0
	ExitAborted  = 1
	ExitWarnings = 2
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return ExitClean
	}
	if stderrors.Is(err, ErrCompletedWithWarnings) {
		return ExitWarnings
	}
	return ExitAborted
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	// A warnings exit is a partial success, not an error.
	if stderrors.Is(err, ErrCompletedWithWarnings) {
		return err.Error()
	}

	var bpe *BlogPressError
	if stderrors.As(err, &bpe) {
		return a.formatBlogPress(bpe)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatBlogPress formats a BlogPressError for display.
func (a *CLIErrorAdapter) formatBlogPress(err *BlogPressError) string {
	if a.verbose {
		return err.Error()
	}

	switch err.Category {
	case CategoryConfig, CategoryValidation, CategoryAuth:
		return err.Message
	default:
		return fmt.Sprintf("%s: %s", err.Category, err.Message)
	}
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if stderrors.Is(err, ErrCompletedWithWarnings) {
		return false
	}
	if a.verbose {
		return true
	}

	var bpe *BlogPressError
	if stderrors.As(err, &bpe) {
		return bpe.Category == CategoryInternal ||
			bpe.Category == CategoryRuntime ||
			bpe.Severity == SeverityFatal
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	var bpe *BlogPressError
	if stderrors.As(err, &bpe) {
		level := a.slogLevelFromSeverity(bpe.Severity)
		attrs := []slog.Attr{
			slog.String("category", string(bpe.Category)),
		}
		if bpe.Retryable {
			attrs = append(attrs, slog.Bool("retryable", true))
		}

		a.logger.LogAttrs(context.Background(), level, bpe.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

// slogLevelFromSeverity converts BlogPressError severity to slog level.
func (a *CLIErrorAdapter) slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityFatal:
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
