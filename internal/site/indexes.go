package site

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/blogpress/internal/content"
	"git.home.luguber.info/inful/blogpress/internal/logfields"
	"git.home.luguber.info/inful/blogpress/internal/render"
	"git.home.luguber.info/inful/blogpress/internal/theme"
)

// homePageSize bounds the post list on the landing page; the archive lists
// everything.
const homePageSize = 10

// stageRenderIndexes writes the landing page, archive, section listings, the
// tag index with per-tag pages, and the Atom feed. Inputs are the rendered
// posts only, already sorted newest first, so every listing is deterministic.
func stageRenderIndexes(_ context.Context, bs *BuildState) error {
	b := bs.Builder
	site := b.engine.Site()

	views := make([]theme.PostView, 0, len(bs.Outputs))
	for _, res := range bs.Outputs {
		views = append(views, b.engine.View(res.Post))
	}

	home := views
	if len(home) > homePageSize {
		home = home[:homePageSize]
	}
	if err := b.renderListPage("index.html", theme.ListPage{Site: site, Posts: home}); err != nil {
		return newFatalStageError(StageRenderIndexes, err)
	}
	if err := b.renderListPage("archive/index.html", theme.ListPage{Site: site, Title: "Archive", Posts: views}); err != nil {
		return newFatalStageError(StageRenderIndexes, err)
	}

	skippedSections, err := b.renderSectionPages(bs)
	if err != nil {
		return newFatalStageError(StageRenderIndexes, err)
	}

	if err := b.renderTagPages(bs, site); err != nil {
		return newFatalStageError(StageRenderIndexes, err)
	}

	feed, err := buildFeed(site, bs.Outputs)
	if err != nil {
		return newFatalStageError(StageRenderIndexes, fmt.Errorf("%w: %w", ErrFeedWrite, err))
	}
	if err := b.writeStaged("feed.xml", feed); err != nil {
		return newFatalStageError(StageRenderIndexes, fmt.Errorf("%w: %w", ErrFeedWrite, err))
	}

	if skippedSections > 0 {
		return newWarnStageError(StageRenderIndexes,
			fmt.Errorf("%w: %d section indexes shadowed by posts", ErrIndexRender, skippedSections))
	}
	return nil
}

// renderListPage executes the list template and writes it under staging.
func (b *Builder) renderListPage(relPath string, page theme.ListPage) error {
	html, err := b.engine.ExecuteList(page)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrIndexRender, relPath, err)
	}
	return b.writeStaged(relPath, html)
}

// renderSectionPages writes one listing per section. A root-level post whose
// slug matches a section name already claimed <section>/index.html; the
// listing is skipped with a warning so explicit content wins.
func (b *Builder) renderSectionPages(bs *BuildState) (int, error) {
	site := b.engine.Site()
	bySection := make(map[string][]theme.PostView)
	for _, res := range bs.Outputs {
		if res.Post.Section == "" {
			continue
		}
		bySection[res.Post.Section] = append(bySection[res.Post.Section], b.engine.View(res.Post))
	}

	sections := make([]string, 0, len(bySection))
	for section := range bySection {
		sections = append(sections, section)
	}
	sort.Strings(sections)

	skipped := 0
	for _, section := range sections {
		rel := path.Join(section, "index.html")
		if _, err := os.Stat(filepath.Join(b.stageDir, filepath.FromSlash(rel))); err == nil {
			skipped++
			slog.Warn("Section index shadowed by a post with the same path",
				logfields.Section(section), logfields.Path(rel))
			continue
		}
		page := theme.ListPage{Site: site, Title: section, Posts: bySection[section]}
		if err := b.renderListPage(rel, page); err != nil {
			return skipped, err
		}
	}
	return skipped, nil
}

// renderTagPages writes tags/index.html plus one listing per tag. Tags that
// slugify identically share one page; the first-seen spelling is displayed.
func (b *Builder) renderTagPages(bs *BuildState, site theme.Site) error {
	type tagBucket struct {
		name  string
		posts []theme.PostView
	}
	buckets := make(map[string]*tagBucket)
	for _, res := range bs.Outputs {
		view := b.engine.View(res.Post)
		for _, tag := range res.Post.Tags {
			slug := content.Slugify(tag)
			if slug == "" {
				continue
			}
			bucket, ok := buckets[slug]
			if !ok {
				bucket = &tagBucket{name: tag}
				buckets[slug] = bucket
			}
			bucket.posts = append(bucket.posts, view)
		}
	}

	slugs := make([]string, 0, len(buckets))
	for slug := range buckets {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	groups := make([]theme.TagGroup, 0, len(slugs))
	for _, slug := range slugs {
		bucket := buckets[slug]
		groups = append(groups, theme.TagGroup{
			Tag:   theme.TagRef{Name: bucket.name, Permalink: render.TagPermalink(bucket.name)},
			Count: len(bucket.posts),
		})
		page := theme.ListPage{Site: site, Title: bucket.name, Posts: bucket.posts}
		if err := b.renderListPage(path.Join("tags", slug, "index.html"), page); err != nil {
			return err
		}
	}

	html, err := b.engine.ExecuteTags(theme.TagsPage{Site: site, Tags: groups})
	if err != nil {
		return fmt.Errorf("%w: tags/index.html: %w", ErrIndexRender, err)
	}
	return b.writeStaged("tags/index.html", html)
}
