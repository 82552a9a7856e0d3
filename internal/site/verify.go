package site

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/blogpress/internal/logfields"
)

// stageVerifyOutput walks the staged HTML and confirms every internal
// href/src resolves inside the staged tree. Per-unit resolution already
// guarded the markdown side; this catches template mistakes and copy gaps.
// Findings are warnings; the site still publishes.
func stageVerifyOutput(ctx context.Context, bs *BuildState) error {
	b := bs.Builder
	broken := 0

	err := filepath.WalkDir(b.stageDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}

		refs, err := extractHTMLRefs(p)
		if err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		pageDir := filepath.Dir(p)
		for _, ref := range refs {
			if !isInternalRef(ref) {
				continue
			}
			if !b.stagedRefExists(pageDir, ref) {
				broken++
				rel, _ := filepath.Rel(b.stageDir, p)
				slog.Warn("Unresolved reference in rendered output",
					logfields.Path(rel), slog.String("ref", ref))
			}
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return newCanceledStageError(StageVerifyOutput, ctx.Err())
		}
		return newFatalStageError(StageVerifyOutput, err)
	}

	if broken > 0 {
		return newWarnStageError(StageVerifyOutput,
			fmt.Errorf("%w: %d references", ErrBrokenRefs, broken))
	}
	return nil
}

// stagedRefExists resolves a reference against the staged tree. Directory
// style links resolve to their index.html.
func (b *Builder) stagedRefExists(pageDir, ref string) bool {
	ref = trimRefSuffix(ref)
	if ref == "" {
		return true
	}

	var target string
	if strings.HasPrefix(ref, "/") {
		target = filepath.Join(b.stageDir, filepath.FromSlash(path.Clean(ref)))
	} else {
		target = filepath.Join(pageDir, filepath.FromSlash(path.Clean(ref)))
	}

	info, err := os.Stat(target)
	if err != nil {
		return false
	}
	if info.IsDir() {
		_, err := os.Stat(filepath.Join(target, "index.html"))
		return err == nil
	}
	return true
}

// extractHTMLRefs parses an HTML file and collects href/src references.
func extractHTMLRefs(htmlPath string) ([]string, error) {
	// #nosec G304 -- htmlPath comes from walking our own staging directory
	f, err := os.Open(htmlPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return extractRefsFromReader(f)
}

func extractRefsFromReader(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var refs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a", "link":
				if href := getAttr(n, "href"); href != "" {
					refs = append(refs, href)
				}
			case "img", "script":
				if src := getAttr(n, "src"); src != "" {
					refs = append(refs, src)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return refs, nil
}

func getAttr(n *html.Node, name string) string {
	for _, attr := range n.Attr {
		if attr.Key == name {
			return attr.Val
		}
	}
	return ""
}

// isInternalRef reports whether a reference should resolve inside the site.
func isInternalRef(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "#") {
		return false
	}
	if strings.Contains(ref, "://") || strings.HasPrefix(ref, "//") {
		return false
	}
	if strings.HasPrefix(ref, "mailto:") || strings.HasPrefix(ref, "data:") || strings.HasPrefix(ref, "tel:") {
		return false
	}
	return true
}

// trimRefSuffix drops a trailing #fragment or ?query.
func trimRefSuffix(ref string) string {
	if i := strings.IndexAny(ref, "#?"); i >= 0 {
		ref = ref[:i]
	}
	return ref
}
