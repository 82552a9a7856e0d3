package theme

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogpress/internal/logfields"
)

// Template kinds the render pipeline can execute. "post" renders a single
// article, "list" renders any post listing (home, section, archive, tag),
// "tags" renders the tag index.
const (
	KindPost = "post"
	KindList = "list"
	KindTags = "tags"
)

//go:embed templates_defaults/*.tmpl
var embeddedTemplates embed.FS

// Site carries site-wide metadata available to every template.
type Site struct {
	Title       string
	Description string
	BaseURL     string
	Author      string
	Language    string
}

// TagRef links a tag name to its index page.
type TagRef struct {
	Name      string
	Permalink string
}

// PostView is the template-facing projection of a post.
type PostView struct {
	Title     string
	Author    string
	Summary   string
	Date      time.Time
	HasDate   bool
	Permalink string
	Tags      []TagRef
	Content   template.HTML
}

// PostPage is the data for a single article page.
type PostPage struct {
	Site Site
	Post PostView
}

// ListPage is the data for any post listing page.
type ListPage struct {
	Site  Site
	Title string
	Posts []PostView
}

// TagGroup is one tag's entry on the tag index.
type TagGroup struct {
	Tag   TagRef
	Count int
}

// TagsPage is the data for the tag index page.
type TagsPage struct {
	Site Site
	Tags []TagGroup
}

// Theme holds the parsed template set. Load resolves each kind against an
// optional override directory before falling back to the embedded defaults.
type Theme struct {
	templates map[string]*template.Template
	sources   map[string]string // kind -> "embedded" or override path
}

var themeFuncs = template.FuncMap{
	"formatDate": func(t time.Time) string { return t.Format("January 2, 2006") },
	"isoDate":    func(t time.Time) string { return t.Format("2006-01-02") },
	"lower":      strings.ToLower,
}

// Load parses the template set. dir may be empty to use only the embedded
// defaults; when set, any {kind}.tmpl or base.tmpl found there replaces the
// corresponding default.
func Load(dir string) (*Theme, error) {
	t := &Theme{
		templates: make(map[string]*template.Template),
		sources:   make(map[string]string),
	}

	base, baseSource, err := resolveTemplate(dir, "base")
	if err != nil {
		return nil, err
	}

	for _, kind := range []string{KindPost, KindList, KindTags} {
		raw, source, err := resolveTemplate(dir, kind)
		if err != nil {
			return nil, err
		}

		tpl, err := template.New("base").Funcs(themeFuncs).Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse base template: %w", err)
		}
		if _, err := tpl.Parse(raw); err != nil {
			return nil, fmt.Errorf("parse %s template: %w", kind, err)
		}

		t.templates[kind] = tpl
		t.sources[kind] = source
		slog.Debug("Loaded theme template", slog.String("kind", kind), slog.String("source", source))
	}
	t.sources["base"] = baseSource

	return t, nil
}

// Execute renders the template kind with the given data.
func (t *Theme) Execute(kind string, data any) ([]byte, error) {
	tpl, ok := t.templates[kind]
	if !ok {
		return nil, fmt.Errorf("unknown template kind: %s", kind)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute %s template: %w", kind, err)
	}
	return buf.Bytes(), nil
}

// Source reports where a template kind came from ("embedded" or a path).
func (t *Theme) Source(kind string) string {
	return t.sources[kind]
}

// resolveTemplate returns an override template body when one exists, the
// embedded default otherwise. Panics only if an embedded default is missing
// (programmer error), not on user absence.
func resolveTemplate(dir, kind string) (string, string, error) {
	if dir != "" {
		p := filepath.Join(dir, kind+".tmpl")
		// #nosec G304 -- p derives from the configured theme directory
		if b, err := os.ReadFile(p); err == nil {
			if strings.TrimSpace(string(b)) == "" {
				return "", "", fmt.Errorf("theme override is empty: %s", p)
			}
			slog.Debug("Loaded theme template override", logfields.Path(p))
			return string(b), p, nil
		}
	}

	name := fmt.Sprintf("templates_defaults/%s.tmpl", kind)
	b, err := embeddedTemplates.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("embedded default template missing for kind %s: %v", kind, err))
	}
	return string(b), "embedded", nil
}
