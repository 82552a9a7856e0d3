package content

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	cerrors "git.home.luguber.info/inful/blogpress/internal/content/errors"
	"git.home.luguber.info/inful/blogpress/internal/logfields"
)

// Asset represents a non-markdown file living next to posts.
type Asset struct {
	Path       string // Path relative to the content root
	SourcePath string // Absolute path to the file
	Dir        string // Containing directory relative to the root ("" for root)
}

// LoadFailure records a content unit that could not be loaded. The unit is
// skipped; the rest of the scan continues.
type LoadFailure struct {
	Path   string
	Reason string
	Err    error
}

// Inventory is the result of scanning a content root.
type Inventory struct {
	Posts    []Post
	Assets   []Asset
	Failures []LoadFailure
}

// PostsByTag groups posts by tag, keeping each group's scan order.
func (inv *Inventory) PostsByTag() map[string][]Post {
	result := make(map[string][]Post)
	for _, post := range inv.Posts {
		for _, tag := range post.Tags {
			result[tag] = append(result[tag], post)
		}
	}
	return result
}

// PostsBySection groups posts by their top-level section.
func (inv *Inventory) PostsBySection() map[string][]Post {
	result := make(map[string][]Post)
	for _, post := range inv.Posts {
		result[post.Section] = append(result[post.Section], post)
	}
	return result
}

// AssetsByDir groups assets by containing directory for sibling lookups.
func (inv *Inventory) AssetsByDir() map[string][]Asset {
	result := make(map[string][]Asset)
	for _, asset := range inv.Assets {
		result[asset.Dir] = append(result[asset.Dir], asset)
	}
	return result
}

// Store scans a content root for posts and assets.
type Store struct {
	root string
}

// NewStore creates a content store rooted at the given directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the content root path.
func (s *Store) Root() string {
	return s.root
}

// Scan walks the content root and loads every post it finds. Units that
// fail to load are recorded as failures without stopping the scan. An
// existing but empty root yields an empty inventory.
func (s *Store) Scan() (*Inventory, error) {
	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", cerrors.ErrContentRootNotFound, s.root)
	}

	inv := &Inventory{}
	outputs := make(map[string]string) // output dir -> first claiming post path

	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip hidden files and directories
		if strings.HasPrefix(info.Name(), ".") && path != s.root {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(s.root, path)
		if err != nil {
			return fmt.Errorf("%w: %w", cerrors.ErrInvalidRelativePath, err)
		}
		relPath = filepath.ToSlash(relPath)

		if !isMarkdownFile(path) {
			dir := filepath.ToSlash(filepath.Dir(relPath))
			if dir == "." {
				dir = ""
			}
			inv.Assets = append(inv.Assets, Asset{
				Path:       relPath,
				SourcePath: path,
				Dir:        dir,
			})
			slog.Debug("Discovered asset", logfields.Path(relPath))
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			inv.Failures = append(inv.Failures, LoadFailure{
				Path:   relPath,
				Reason: "unreadable",
				Err:    fmt.Errorf("%w: %w", cerrors.ErrPostReadFailed, err),
			})
			slog.Warn("Skipping unreadable post", logfields.Path(relPath), logfields.Error(err))
			return nil
		}

		post, err := parsePost(relPath, path, raw)
		if err != nil {
			inv.Failures = append(inv.Failures, LoadFailure{
				Path:   relPath,
				Reason: failureReason(err),
				Err:    err,
			})
			slog.Warn("Skipping malformed post", logfields.Path(relPath), logfields.Error(err))
			return nil
		}

		// Two posts claiming one output location would silently overwrite
		// each other; the later unit (walk order is lexical) is skipped.
		outDir := post.OutputDir()
		if first, taken := outputs[outDir]; taken {
			collisionErr := fmt.Errorf("%w: %s and %s both map to %s", cerrors.ErrOutputCollision, first, relPath, outDir)
			inv.Failures = append(inv.Failures, LoadFailure{
				Path:   relPath,
				Reason: "output collision",
				Err:    collisionErr,
			})
			slog.Warn("Skipping post with colliding output path", logfields.Path(relPath), logfields.Error(collisionErr))
			return nil
		}
		outputs[outDir] = relPath

		inv.Posts = append(inv.Posts, post)
		slog.Debug("Discovered post",
			logfields.Path(relPath),
			logfields.Section(post.Section),
			slog.Bool("draft", post.Draft))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", cerrors.ErrContentWalkFailed, err)
	}

	sortPosts(inv.Posts)

	slog.Info("Content scan complete",
		slog.Int("posts", len(inv.Posts)),
		slog.Int("assets", len(inv.Assets)),
		slog.Int("failures", len(inv.Failures)))
	return inv, nil
}

// sortPosts orders posts newest first. Undated posts sort after dated
// ones; ties fall back to the relative path so ordering stays stable.
func sortPosts(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		switch {
		case a.HasDate() && !b.HasDate():
			return true
		case !a.HasDate() && b.HasDate():
			return false
		case a.HasDate() && b.HasDate() && !a.Date.Equal(b.Date):
			return a.Date.After(b.Date)
		default:
			return a.Path < b.Path
		}
	})
}

// failureReason maps a load error to a short human-readable reason.
func failureReason(err error) string {
	switch {
	case errors.Is(err, cerrors.ErrInvalidDate):
		return "invalid date"
	case errors.Is(err, cerrors.ErrFrontMatter):
		return "invalid front matter"
	default:
		return "load failed"
	}
}

// isMarkdownFile checks if a file is a markdown file
func isMarkdownFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".md" || ext == ".markdown" || ext == ".mdown" || ext == ".mkd"
}
