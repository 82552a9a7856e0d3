package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *BlogPressError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *BlogPressError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(field, reason string) *BlogPressError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Pipeline errors

func ContentError(path string, cause error) *BlogPressError {
	return Wrap(cause, CategoryContent, SeverityWarning, "content unit failed to load").
		WithContext("path", path)
}

func RenderError(path string, cause error) *BlogPressError {
	return Wrap(cause, CategoryRender, SeverityWarning, "content unit failed to render").
		WithContext("path", path)
}

func BuildFailed(stage string, cause error) *BlogPressError {
	return Wrap(cause, CategoryRender, SeverityFatal, "build failed").
		WithContext("stage", stage)
}

func WorkspaceError(operation string, cause error) *BlogPressError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "workspace operation failed").
		WithContext("operation", operation)
}

// Git and publish errors

func GitCloneError(repo string, cause error) *BlogPressError {
	return Wrap(cause, CategoryGit, SeverityFatal, "repository clone failed").
		WithContext("repository", repo)
}

func GitAuthError(repo string, cause error) *BlogPressError {
	return Wrap(cause, CategoryAuth, SeverityFatal, "git authentication failed").
		WithContext("repository", repo)
}

func GitNetworkError(repo string, cause error) *BlogPressError {
	return WrapRetryable(cause, CategoryGit, SeverityWarning, "git network error").
		WithContext("repository", repo)
}

func PublishFailed(branch string, cause error) *BlogPressError {
	return Wrap(cause, CategoryPublish, SeverityFatal, "publish failed").
		WithContext("branch", branch)
}

// Internal errors

func InternalError(message string, cause error) *BlogPressError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
