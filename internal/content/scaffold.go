package content

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// scaffoldEnvelope is the front matter written into new post files. Dates are
// strings in the canonical day layout so the scaffold round-trips through the
// same parsing the store applies.
type scaffoldEnvelope struct {
	Title string   `yaml:"title"`
	Date  string   `yaml:"date"`
	Tags  []string `yaml:"tags,omitempty"`
	Draft bool     `yaml:"draft"`
}

// Scaffold returns the initial bytes for a new post file. An empty title is
// derived from the file name the same way parsing derives fallback titles.
func Scaffold(filename, title string, date time.Time, tags []string, draft bool) ([]byte, error) {
	if title == "" {
		base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
		title = titleFromName(base)
	}

	env := scaffoldEnvelope{
		Title: title,
		Date:  date.Format("2006-01-02"),
		Tags:  normalizeTags(tags),
		Draft: draft,
	}
	fm, err := yaml.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal front matter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(fm)
	b.WriteString("---\n\n")
	return []byte(b.String()), nil
}
