package render

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/blogpress/internal/content"
	"git.home.luguber.info/inful/blogpress/internal/logfields"
	"git.home.luguber.info/inful/blogpress/internal/markdown"
	"git.home.luguber.info/inful/blogpress/internal/theme"
)

// Options carries the per-run configuration the engine needs. It is passed
// in explicitly so multiple engines (tests, different themes) can coexist.
type Options struct {
	Theme         *theme.Theme
	Site          theme.Site
	IncludeDrafts bool
	HardWraps     bool
}

// Engine renders posts into full HTML pages.
type Engine struct {
	md            *markdown.Engine
	theme         *theme.Theme
	site          theme.Site
	includeDrafts bool
}

// NewEngine creates a render engine.
func NewEngine(opts Options) *Engine {
	return &Engine{
		md:            markdown.NewEngine(markdown.Options{HardWraps: opts.HardWraps}),
		theme:         opts.Theme,
		site:          opts.Site,
		includeDrafts: opts.IncludeDrafts,
	}
}

// Lookup indexes an inventory for reference resolution. Draft posts are
// only indexed when they will be rendered, so published pages never link
// to pages that do not exist.
type Lookup struct {
	permalinks map[string]string
	assets     map[string]content.Asset
}

// NewLookup builds a resolution index over a scanned inventory.
func NewLookup(inv *content.Inventory, includeDrafts bool) *Lookup {
	lk := &Lookup{
		permalinks: make(map[string]string, len(inv.Posts)),
		assets:     make(map[string]content.Asset, len(inv.Assets)),
	}
	for _, post := range inv.Posts {
		if post.Draft && !includeDrafts {
			continue
		}
		lk.permalinks[post.Path] = Permalink(post)
	}
	for _, asset := range inv.Assets {
		lk.assets[asset.Path] = asset
	}
	return lk
}

// Permalink returns the root-relative URL of a post's page.
func Permalink(post content.Post) string {
	return "/" + filepath.ToSlash(post.OutputDir()) + "/"
}

// TagPermalink returns the root-relative URL of a tag's listing page.
func TagPermalink(tag string) string {
	return "/tags/" + content.Slugify(tag) + "/"
}

// RenderPost renders one post against the active theme. Draft posts are
// skipped unless the engine was created with IncludeDrafts. Failures are
// returned in the Result, never panicked or escalated.
func (e *Engine) RenderPost(post content.Post, lk *Lookup) Result {
	if post.Draft && !e.includeDrafts {
		slog.Debug("Skipping draft post", logfields.Post(post.Path))
		return Result{Post: post, Skipped: true, SkipReason: "draft"}
	}

	var assets []AssetCopy
	resolver := e.destinationResolver(post, lk, &assets)

	body, err := e.md.RenderResolved(post.Body, resolver)
	if err != nil {
		if !errors.Is(err, ErrAssetNotFound) && !errors.Is(err, ErrAssetOutsideRoot) {
			err = fmt.Errorf("%w: %w", ErrBodyRender, err)
		}
		return Result{Post: post, Err: err}
	}

	page := theme.PostPage{
		Site: e.site,
		Post: e.view(post, template.HTML(body)),
	}
	html, err := e.theme.Execute(theme.KindPost, page)
	if err != nil {
		return Result{Post: post, Err: fmt.Errorf("%w: %w", ErrTemplateRender, err)}
	}

	return Result{
		Post: post,
		Output: &Output{
			Dir:    post.OutputDir(),
			HTML:   html,
			Assets: assets,
		},
	}
}

// View exposes the listing projection of a post for index pages.
func (e *Engine) View(post content.Post) theme.PostView {
	return e.view(post, "")
}

// ExecuteList renders a listing page with the active theme.
func (e *Engine) ExecuteList(page theme.ListPage) ([]byte, error) {
	html, err := e.theme.Execute(theme.KindList, page)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplateRender, err)
	}
	return html, nil
}

// ExecuteTags renders the tag index page with the active theme.
func (e *Engine) ExecuteTags(page theme.TagsPage) ([]byte, error) {
	html, err := e.theme.Execute(theme.KindTags, page)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplateRender, err)
	}
	return html, nil
}

// Site returns the site metadata the engine renders with.
func (e *Engine) Site() theme.Site {
	return e.site
}

func (e *Engine) view(post content.Post, body template.HTML) theme.PostView {
	author := post.Author
	if author == "" {
		author = e.site.Author
	}

	var tags []theme.TagRef
	for _, tag := range post.Tags {
		tags = append(tags, theme.TagRef{Name: tag, Permalink: TagPermalink(tag)})
	}

	return theme.PostView{
		Title:     post.Title,
		Author:    author,
		Summary:   post.Summary,
		Date:      post.Date,
		HasDate:   post.HasDate(),
		Permalink: Permalink(post),
		Tags:      tags,
		Content:   body,
	}
}

// destinationResolver rewrites body references while collecting the asset
// copies the page needs. Markdown links to other posts become permalinks;
// references to co-located assets keep their relative form and schedule a
// copy into the page's output directory. A missing or escaping asset
// reference fails the unit.
func (e *Engine) destinationResolver(post content.Post, lk *Lookup, assets *[]AssetCopy) markdown.DestinationResolver {
	sourceDir := path.Dir(post.Path)
	if sourceDir == "." {
		sourceDir = ""
	}

	return func(dest string, kind markdown.RefKind) (string, error) {
		ref := markdown.Ref{Kind: kind, Destination: dest}
		if !ref.IsLocal() {
			return dest, nil
		}

		relDest, suffix := splitRefSuffix(dest)
		if relDest == "" {
			return dest, nil
		}

		target := path.Clean(path.Join(sourceDir, relDest))
		if target == ".." || strings.HasPrefix(target, "../") {
			if kind == markdown.RefKindImage {
				return "", fmt.Errorf("%w: %s (from %s)", ErrAssetOutsideRoot, dest, post.Path)
			}
			return dest, nil
		}

		// Cross-content link to another post.
		if permalink, ok := lk.permalinks[target]; ok {
			return permalink + suffix, nil
		}

		// Co-located asset: schedule the copy, keep the relative reference.
		if asset, ok := lk.assets[target]; ok {
			copyTarget := path.Clean(path.Join(filepath.ToSlash(post.OutputDir()), relDest))
			if strings.HasPrefix(copyTarget, "../") {
				return "", fmt.Errorf("%w: %s (from %s)", ErrAssetOutsideRoot, dest, post.Path)
			}
			*assets = append(*assets, AssetCopy{SourcePath: asset.SourcePath, TargetPath: copyTarget})
			return dest, nil
		}

		// Unresolvable image references fail the unit; dead markdown links
		// (to drafts or removed posts) pass through untouched.
		if kind == markdown.RefKindImage {
			return "", fmt.Errorf("%w: %s (from %s)", ErrAssetNotFound, dest, post.Path)
		}
		return dest, nil
	}
}

// splitRefSuffix separates a destination's path from a trailing #fragment
// or ?query so the suffix survives permalink rewriting.
func splitRefSuffix(dest string) (string, string) {
	if i := strings.IndexAny(dest, "#?"); i >= 0 {
		return dest[:i], dest[i:]
	}
	return dest, ""
}
