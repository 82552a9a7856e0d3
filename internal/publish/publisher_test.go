package publish

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogpress/internal/config"
)

func newBareRemote(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := gogit.PlainInit(dir, true)
	require.NoError(t, err)
	return dir
}

// seedRemote pushes a master branch with one commit to the bare remote, plus
// any extra branch names pointing at the same commit.
func seedRemote(t *testing.T, bare string, extraBranches ...string) string {
	t.Helper()
	seed := t.TempDir()
	repo, err := gogit.PlainInit(seed, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(seed, "README.md"), []byte("legacy"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	hash, err := wt.Commit("seed", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Seed", Email: "seed@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	_, err = repo.CreateRemote(&gitcfg.RemoteConfig{Name: "origin", URLs: []string{bare}})
	require.NoError(t, err)
	specs := []gitcfg.RefSpec{"refs/heads/master:refs/heads/master"}
	for _, b := range extraBranches {
		specs = append(specs, gitcfg.RefSpec("refs/heads/master:refs/heads/"+b))
	}
	require.NoError(t, repo.Push(&gogit.PushOptions{RemoteName: "origin", RefSpecs: specs}))
	return hash.String()
}

func siteDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func newTestPublisher(t *testing.T, bare, branch string) *Publisher {
	t.Helper()
	cfg := config.PublishConfig{
		URL:            bare,
		Branch:         branch,
		CommitterName:  "Press Bot",
		CommitterEmail: "press@example.com",
	}
	return NewPublisher(cfg, t.TempDir())
}

func branchCommit(t *testing.T, bare, branch string) *object.Commit {
	t.Helper()
	repo, err := gogit.PlainOpen(bare)
	require.NoError(t, err)
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	require.NoError(t, err)
	commit, err := repo.CommitObject(ref.Hash())
	require.NoError(t, err)
	return commit
}

func branchFiles(t *testing.T, bare, branch string) map[string]string {
	t.Helper()
	commit := branchCommit(t, bare, branch)
	tree, err := commit.Tree()
	require.NoError(t, err)
	files := map[string]string{}
	require.NoError(t, tree.Files().ForEach(func(f *object.File) error {
		content, err := f.Contents()
		if err != nil {
			return err
		}
		files[f.Name] = content
		return nil
	}))
	return files
}

func TestPublishToEmptyRemote(t *testing.T) {
	bare := newBareRemote(t)
	pub := newTestPublisher(t, bare, "gh-pages")
	out := siteDir(t, map[string]string{
		"index.html":         "<html>home</html>",
		".nojekyll":          "",
		"posts/a/index.html": "<html>a</html>",
		"build-report.json":  "{}",
		"build-report.txt":   "report",
	})

	res, err := pub.Publish(context.Background(), out, "")
	require.NoError(t, err)
	require.False(t, res.Skipped)
	require.NotEmpty(t, res.Commit)
	require.Equal(t, "gh-pages", res.Branch)

	files := branchFiles(t, bare, "gh-pages")
	require.Equal(t, "<html>home</html>", files["index.html"])
	require.Contains(t, files, ".nojekyll")
	require.Contains(t, files, "posts/a/index.html")
	require.NotContains(t, files, "build-report.json")
	require.NotContains(t, files, "build-report.txt")

	commit := branchCommit(t, bare, "gh-pages")
	require.Equal(t, "Publish site", strings.TrimSpace(commit.Message))
	require.Equal(t, "Press Bot", commit.Author.Name)
	require.Zero(t, commit.NumParents())
}

func TestPublishRepeatUnchangedSkipsCommit(t *testing.T) {
	bare := newBareRemote(t)
	out := siteDir(t, map[string]string{"index.html": "same"})

	pub := newTestPublisher(t, bare, "gh-pages")
	first, err := pub.Publish(context.Background(), out, "")
	require.NoError(t, err)
	require.False(t, first.Skipped)

	second, err := pub.Publish(context.Background(), out, "")
	require.NoError(t, err)
	require.True(t, second.Skipped)
	require.Equal(t, first.Commit, second.Commit)

	// Remote history stays at a single commit.
	commit := branchCommit(t, bare, "gh-pages")
	require.Equal(t, first.Commit, commit.Hash.String())
	require.Zero(t, commit.NumParents())
}

func TestPublishFreshWorkspaceStillSkipsUnchanged(t *testing.T) {
	// Same tree published from a second machine with its own workspace.
	bare := newBareRemote(t)
	out := siteDir(t, map[string]string{"index.html": "same"})

	first, err := newTestPublisher(t, bare, "gh-pages").Publish(context.Background(), out, "")
	require.NoError(t, err)

	second, err := newTestPublisher(t, bare, "gh-pages").Publish(context.Background(), out, "")
	require.NoError(t, err)
	require.True(t, second.Skipped)
	require.Equal(t, first.Commit, second.Commit)
}

func TestPublishUpdatesAndRemoves(t *testing.T) {
	bare := newBareRemote(t)
	pub := newTestPublisher(t, bare, "gh-pages")

	out1 := siteDir(t, map[string]string{
		"index.html":     "v1",
		"old/index.html": "going away",
	})
	first, err := pub.Publish(context.Background(), out1, "")
	require.NoError(t, err)

	out2 := siteDir(t, map[string]string{
		"index.html":     "v2",
		"new/index.html": "fresh",
	})
	second, err := pub.Publish(context.Background(), out2, "")
	require.NoError(t, err)
	require.False(t, second.Skipped)
	require.NotEqual(t, first.Commit, second.Commit)

	files := branchFiles(t, bare, "gh-pages")
	require.Equal(t, "v2", files["index.html"])
	require.Contains(t, files, "new/index.html")
	require.NotContains(t, files, "old/index.html")

	commit := branchCommit(t, bare, "gh-pages")
	require.Equal(t, 1, commit.NumParents())
	require.Equal(t, first.Commit, commit.ParentHashes[0].String())
}

func TestPublishOrphanBranchIgnoresDefaultBranch(t *testing.T) {
	bare := newBareRemote(t)
	seedRemote(t, bare) // hosting repo already has an unrelated master branch
	pub := newTestPublisher(t, bare, "pages")
	out := siteDir(t, map[string]string{"index.html": "site"})

	res, err := pub.Publish(context.Background(), out, "")
	require.NoError(t, err)
	require.False(t, res.Skipped)

	commit := branchCommit(t, bare, "pages")
	require.Zero(t, commit.NumParents())

	files := branchFiles(t, bare, "pages")
	require.NotContains(t, files, "README.md")
	require.Equal(t, "site", files["index.html"])
}

func TestPublishOntoExistingRemoteBranch(t *testing.T) {
	bare := newBareRemote(t)
	seedHash := seedRemote(t, bare, "pages")
	pub := newTestPublisher(t, bare, "pages")
	out := siteDir(t, map[string]string{"index.html": "replaced"})

	res, err := pub.Publish(context.Background(), out, "rebuild")
	require.NoError(t, err)
	require.False(t, res.Skipped)

	commit := branchCommit(t, bare, "pages")
	require.Equal(t, "rebuild", strings.TrimSpace(commit.Message))
	require.Equal(t, 1, commit.NumParents())
	require.Equal(t, seedHash, commit.ParentHashes[0].String())

	files := branchFiles(t, bare, "pages")
	require.NotContains(t, files, "README.md")
	require.Equal(t, "replaced", files["index.html"])
}

func TestPublishEmptyOutputNothingToPublish(t *testing.T) {
	bare := newBareRemote(t)
	pub := newTestPublisher(t, bare, "gh-pages")

	res, err := pub.Publish(context.Background(), t.TempDir(), "")
	require.NoError(t, err)
	require.True(t, res.Skipped)
	require.Empty(t, res.Commit)
}

func TestPublishNotConfigured(t *testing.T) {
	pub := NewPublisher(config.PublishConfig{}, t.TempDir())

	_, err := pub.Publish(context.Background(), t.TempDir(), "")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestReplaceWorktreeExcludesReports(t *testing.T) {
	repoPath := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(repoPath, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "stale.html"), []byte("x"), 0o644))

	out := siteDir(t, map[string]string{
		"index.html":        "fresh",
		"build-report.json": "{}",
	})
	require.NoError(t, replaceWorktree(repoPath, out))

	require.FileExists(t, filepath.Join(repoPath, "index.html"))
	require.NoFileExists(t, filepath.Join(repoPath, "stale.html"))
	require.NoFileExists(t, filepath.Join(repoPath, "build-report.json"))
	require.DirExists(t, filepath.Join(repoPath, ".git"))
}
