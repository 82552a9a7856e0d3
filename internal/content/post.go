package content

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	cerrors "git.home.luguber.info/inful/blogpress/internal/content/errors"
)

// Post represents a single publishable content unit.
type Post struct {
	Path       string         // Path relative to the content root; unit identity
	SourcePath string         // Absolute path to the source file
	Section    string         // Top-level directory ("" for root-level posts)
	Slug       string         // URL segment, explicit or derived from the file name
	Title      string
	Summary    string
	Author     string
	Date       time.Time // Zero when the post carries no date
	Tags       []string  // Deduplicated, empty entries dropped, source order kept
	Draft      bool
	Custom     map[string]any // Front matter keys outside the known set
	Body       []byte         // Markdown body without the front matter block
}

// HasDate reports whether the post carries an explicit date.
func (p *Post) HasDate() bool {
	return !p.Date.IsZero()
}

// OutputDir returns the directory for this post's rendered page,
// relative to the site output root: {section}/{slug} or {slug}.
func (p *Post) OutputDir() string {
	if p.Section == "" {
		return p.Slug
	}
	return filepath.Join(p.Section, p.Slug)
}

// postEnvelope is the typed front matter shape. Dates are kept as strings
// so multi-format parsing stays explicit instead of depending on YAML
// timestamp resolution.
type postEnvelope struct {
	Title   string         `yaml:"title"`
	Slug    string         `yaml:"slug"`
	Summary string         `yaml:"summary"`
	Author  string         `yaml:"author"`
	Date    string         `yaml:"date"`
	Tags    []string       `yaml:"tags"`
	Draft   bool           `yaml:"draft"`
	Custom  map[string]any `yaml:",inline"`
}

// dateLayouts are accepted front matter date formats, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parsePost builds a Post from raw file bytes. The relative path provides
// identity, section, and the fallback slug/title.
func parsePost(relPath, sourcePath string, raw []byte) (Post, error) {
	var env postEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(raw), &env)
	if err != nil {
		return Post{}, fmt.Errorf("%w: %w", cerrors.ErrFrontMatter, err)
	}

	date := time.Time{}
	if env.Date != "" {
		date, err = parseDate(env.Date)
		if err != nil {
			return Post{}, err
		}
	}

	base := strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))

	slug := env.Slug
	if slug == "" {
		slug = Slugify(base)
	} else {
		slug = Slugify(slug)
	}

	title := env.Title
	if title == "" {
		title = titleFromName(base)
	}

	return Post{
		Path:       relPath,
		SourcePath: sourcePath,
		Section:    sectionOf(relPath),
		Slug:       slug,
		Title:      title,
		Summary:    env.Summary,
		Author:     env.Author,
		Date:       date,
		Tags:       normalizeTags(env.Tags),
		Draft:      env.Draft,
		Custom:     env.Custom,
		Body:       body,
	}, nil
}

// parseDate tries each accepted layout in order.
func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", cerrors.ErrInvalidDate, value)
}

// sectionOf extracts the top-level directory of a relative path.
func sectionOf(relPath string) string {
	dir := filepath.Dir(relPath)
	if dir == "." {
		return ""
	}
	parts := strings.Split(filepath.ToSlash(dir), "/")
	return parts[0]
}

// normalizeTags trims whitespace, drops empty entries, and removes
// duplicates while keeping the first occurrence order.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Slugify lowercases a name and collapses runs of non-alphanumeric
// characters into single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

var titleCaser = cases.Title(language.English)

// titleFromName derives a human title from a file name,
// e.g. "my-first-post" becomes "My First Post".
func titleFromName(name string) string {
	cleaned := strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return titleCaser.String(cleaned)
}
