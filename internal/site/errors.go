package site

import "errors"

// Sentinel domain errors used to classify pipeline failures. They should
// always be wrapped with contextual information at the call site.
var (
	ErrStaging       = errors.New("blogpress: staging error")
	ErrDiscovery     = errors.New("blogpress: content discovery error")
	ErrUnitsSkipped  = errors.New("blogpress: content units skipped")
	ErrAssetConflict = errors.New("blogpress: conflicting asset copies")
	ErrIndexRender   = errors.New("blogpress: index render error")
	ErrFeedWrite     = errors.New("blogpress: feed write error")
	ErrBrokenRefs    = errors.New("blogpress: unresolved references in output")
)
