package render

import "git.home.luguber.info/inful/blogpress/internal/content"

// AssetCopy maps a source file into the output tree.
type AssetCopy struct {
	SourcePath string // absolute path of the asset on disk
	TargetPath string // path relative to the output root
}

// Output is a successfully rendered page plus the asset copies it needs.
type Output struct {
	Dir    string // output directory relative to the output root
	HTML   []byte
	Assets []AssetCopy
}

// Result carries either a rendered output, a skip, or a per-unit failure.
// Exactly one of Output and Err is set unless the unit was skipped.
type Result struct {
	Post       content.Post
	Skipped    bool
	SkipReason string
	Output     *Output
	Err        error
}

// Ok reports whether the unit produced output.
func (r Result) Ok() bool {
	return !r.Skipped && r.Err == nil && r.Output != nil
}
