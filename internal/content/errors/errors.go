package errors

// Package errors provides sentinel errors for content store operations.
// These enable consistent classification of scan and load failures.

import "errors"

var (
	// ErrContentRootNotFound indicates the configured content root does not exist.
	ErrContentRootNotFound = errors.New("content root not found")

	// ErrContentWalkFailed indicates filesystem traversal of the content root failed.
	ErrContentWalkFailed = errors.New("content directory walk failed")

	// ErrPostReadFailed indicates reading a post file from disk failed.
	ErrPostReadFailed = errors.New("post file read failed")

	// ErrFrontMatter indicates the front matter block of a post could not be parsed.
	ErrFrontMatter = errors.New("invalid front matter")

	// ErrInvalidDate indicates a post date value could not be parsed.
	ErrInvalidDate = errors.New("invalid date value")

	// ErrInvalidRelativePath indicates calculating a path relative to the content root failed.
	ErrInvalidRelativePath = errors.New("invalid relative path calculation")

	// ErrOutputCollision indicates two posts map to the same output location.
	ErrOutputCollision = errors.New("output path collision")
)
