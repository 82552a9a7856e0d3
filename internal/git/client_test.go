package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogpress/internal/config"
)

// initSourceRepo creates a non-bare repository with a single commit so it can
// be cloned over the file protocol.
func initSourceRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("index.html")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir, hash.String()
}

func TestOpenOrCloneClonesRepository(t *testing.T) {
	src, want := initSourceRepo(t)
	client := NewClient(t.TempDir())
	require.NoError(t, client.EnsureWorkspace())

	repo, repoPath, err := client.OpenOrClone(context.Background(), "site", src, "origin", "master", nil)
	require.NoError(t, err)

	head, err := repo.Head()
	require.NoError(t, err)
	require.Equal(t, want, head.Hash().String())
	require.FileExists(t, filepath.Join(repoPath, "index.html"))
}

func TestOpenOrCloneFallsBackToDefaultBranch(t *testing.T) {
	src, want := initSourceRepo(t)
	client := NewClient(t.TempDir())
	require.NoError(t, client.EnsureWorkspace())

	// Hosting branch does not exist yet; the remote default is taken instead.
	repo, _, err := client.OpenOrClone(context.Background(), "site", src, "origin", "pages", nil)
	require.NoError(t, err)

	head, err := repo.Head()
	require.NoError(t, err)
	require.Equal(t, want, head.Hash().String())
}

func TestOpenOrCloneUnbornRemoteHead(t *testing.T) {
	// A bare repository that only ever received the hosting branch keeps its
	// HEAD pointing at an unborn default branch. Cloning by branch name must
	// still work.
	src, want := initSourceRepo(t)
	bare := t.TempDir()
	_, err := gogit.PlainInit(bare, true)
	require.NoError(t, err)

	srcRepo, err := gogit.PlainOpen(src)
	require.NoError(t, err)
	_, err = srcRepo.CreateRemote(&gitcfg.RemoteConfig{Name: "hosting", URLs: []string{bare}})
	require.NoError(t, err)
	require.NoError(t, srcRepo.Push(&gogit.PushOptions{
		RemoteName: "hosting",
		RefSpecs:   []gitcfg.RefSpec{"refs/heads/master:refs/heads/gh-pages"},
	}))

	client := NewClient(t.TempDir())
	require.NoError(t, client.EnsureWorkspace())

	repo, repoPath, err := client.OpenOrClone(context.Background(), "site", bare, "origin", "gh-pages", nil)
	require.NoError(t, err)

	head, err := repo.Head()
	require.NoError(t, err)
	require.Equal(t, want, head.Hash().String())
	require.FileExists(t, filepath.Join(repoPath, "index.html"))
}

func TestOpenOrCloneReusesExistingCheckout(t *testing.T) {
	src, _ := initSourceRepo(t)
	client := NewClient(t.TempDir())
	require.NoError(t, client.EnsureWorkspace())

	_, repoPath, err := client.OpenOrClone(context.Background(), "site", src, "origin", "master", nil)
	require.NoError(t, err)

	marker := filepath.Join(repoPath, "marker.txt")
	require.NoError(t, os.WriteFile(marker, []byte("keep"), 0o644))

	_, repoPath2, err := client.OpenOrClone(context.Background(), "site", src, "origin", "master", nil)
	require.NoError(t, err)
	require.Equal(t, repoPath, repoPath2)
	require.FileExists(t, marker)
}

func TestOpenOrCloneDiscardsMismatchedRemote(t *testing.T) {
	srcA, _ := initSourceRepo(t)
	srcB, _ := initSourceRepo(t)
	client := NewClient(t.TempDir())
	require.NoError(t, client.EnsureWorkspace())

	_, repoPath, err := client.OpenOrClone(context.Background(), "site", srcA, "origin", "master", nil)
	require.NoError(t, err)
	marker := filepath.Join(repoPath, "marker.txt")
	require.NoError(t, os.WriteFile(marker, []byte("stale"), 0o644))

	repo, _, err := client.OpenOrClone(context.Background(), "site", srcB, "origin", "master", nil)
	require.NoError(t, err)
	require.NoFileExists(t, marker)

	remote, err := repo.Remote("origin")
	require.NoError(t, err)
	require.Equal(t, srcB, remote.Config().URLs[0])
}

func TestOpenOrCloneEmptyRemoteInitializes(t *testing.T) {
	bare := t.TempDir()
	_, err := gogit.PlainInit(bare, true)
	require.NoError(t, err)

	client := NewClient(t.TempDir())
	require.NoError(t, client.EnsureWorkspace())

	repo, repoPath, err := client.OpenOrClone(context.Background(), "site", bare, "origin", "pages", nil)
	require.NoError(t, err)
	require.DirExists(t, filepath.Join(repoPath, ".git"))

	remote, err := repo.Remote("origin")
	require.NoError(t, err)
	require.Equal(t, bare, remote.Config().URLs[0])

	// A fresh init has no commits yet.
	_, err = repo.Head()
	require.Error(t, err)
}

func TestCleanWorkspace(t *testing.T) {
	ws := filepath.Join(t.TempDir(), "publish")
	client := NewClient(ws)
	require.NoError(t, client.EnsureWorkspace())
	require.DirExists(t, ws)
	require.NoError(t, client.CleanWorkspace())
	require.NoDirExists(t, ws)
}

func TestAuthenticationNone(t *testing.T) {
	client := NewClient(t.TempDir())

	auth, err := client.Authentication(nil)
	require.NoError(t, err)
	require.Nil(t, auth)

	auth, err = client.Authentication(&config.AuthConfig{Type: "none"})
	require.NoError(t, err)
	require.Nil(t, auth)
}

func TestAuthenticationToken(t *testing.T) {
	client := NewClient(t.TempDir())

	auth, err := client.Authentication(&config.AuthConfig{Type: "token", Token: "secret"})
	require.NoError(t, err)
	basic, ok := auth.(*githttp.BasicAuth)
	require.True(t, ok)
	require.Equal(t, "token", basic.Username)
	require.Equal(t, "secret", basic.Password)

	_, err = client.Authentication(&config.AuthConfig{Type: "token"})
	require.Error(t, err)
}

func TestAuthenticationBasic(t *testing.T) {
	client := NewClient(t.TempDir())

	auth, err := client.Authentication(&config.AuthConfig{Type: "basic", Username: "inful", Password: "pw"})
	require.NoError(t, err)
	basic, ok := auth.(*githttp.BasicAuth)
	require.True(t, ok)
	require.Equal(t, "inful", basic.Username)

	_, err = client.Authentication(&config.AuthConfig{Type: "basic", Username: "inful"})
	require.Error(t, err)
}

func TestAuthenticationSSHMissingKey(t *testing.T) {
	client := NewClient(t.TempDir())

	_, err := client.Authentication(&config.AuthConfig{
		Type:    "ssh",
		KeyPath: filepath.Join(t.TempDir(), "missing_key"),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing_key")
}

func TestAuthenticationUnsupportedType(t *testing.T) {
	client := NewClient(t.TempDir())

	_, err := client.Authentication(&config.AuthConfig{Type: "kerberos"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported auth type")
}

func TestReadHead(t *testing.T) {
	src, want := initSourceRepo(t)

	got, err := ReadHead(src)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestReadHeadNotARepository(t *testing.T) {
	_, err := ReadHead(t.TempDir())
	require.Error(t, err)
}
