package render

import "errors"

var (
	// ErrAssetNotFound indicates a post references a co-located asset that
	// does not exist in the content tree.
	ErrAssetNotFound = errors.New("blogpress: referenced asset not found")

	// ErrAssetOutsideRoot indicates a relative reference escapes the content root.
	ErrAssetOutsideRoot = errors.New("blogpress: asset reference escapes content root")

	// ErrBodyRender indicates the markdown body could not be converted.
	ErrBodyRender = errors.New("blogpress: body render failed")

	// ErrTemplateRender indicates the page template failed to execute.
	ErrTemplateRender = errors.New("blogpress: template render failed")
)
