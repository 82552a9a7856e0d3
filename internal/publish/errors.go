package publish

import "errors"

var (
	// ErrNotConfigured is returned when no hosting repository URL is set.
	ErrNotConfigured = errors.New("blogpress: publishing not configured")
	// ErrPush indicates the hosting branch could not be pushed.
	ErrPush = errors.New("blogpress: push error")
)
