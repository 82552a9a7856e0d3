package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"git.home.luguber.info/inful/blogpress/internal/config"
	"git.home.luguber.info/inful/blogpress/internal/logfields"
)

// Client handles git operations against the publish workspace.
type Client struct {
	workspaceDir string
}

// NewClient creates a new git client rooted at the given workspace directory.
func NewClient(workspaceDir string) *Client {
	return &Client{workspaceDir: workspaceDir}
}

// WorkspaceDir returns the directory the client clones into.
func (c *Client) WorkspaceDir() string {
	return c.workspaceDir
}

// EnsureWorkspace creates the workspace directory if it doesn't exist.
func (c *Client) EnsureWorkspace() error {
	if err := os.MkdirAll(c.workspaceDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	return nil
}

// CleanWorkspace removes the entire workspace directory.
func (c *Client) CleanWorkspace() error {
	if err := os.RemoveAll(c.workspaceDir); err != nil {
		return fmt.Errorf("failed to clean workspace: %w", err)
	}
	return nil
}

// OpenOrClone returns an open repository for url inside the workspace,
// cloning it when no usable checkout exists yet. A checkout whose remote no
// longer matches url is discarded and cloned fresh.
//
// The clone asks for branch first, so a hosting repository whose HEAD points
// at a branch nobody ever pushed still clones. When branch does not exist on
// the remote either, the remote default is taken instead. A remote with
// nothing clonable at all yields an initialized repository with the remote
// configured and no commits, ready for the first publish.
func (c *Client) OpenOrClone(ctx context.Context, name, url, remoteName, branch string, auth transport.AuthMethod) (*gogit.Repository, string, error) {
	repoPath := filepath.Join(c.workspaceDir, name)

	if _, err := os.Stat(filepath.Join(repoPath, ".git")); err == nil {
		repo, openErr := gogit.PlainOpen(repoPath)
		if openErr == nil && remoteMatches(repo, remoteName, url) {
			return repo, repoPath, nil
		}
		slog.Info("Discarding stale hosting checkout", logfields.Path(repoPath))
		if err := os.RemoveAll(repoPath); err != nil {
			return nil, "", fmt.Errorf("failed to remove stale checkout %s: %w", repoPath, err)
		}
	}

	repo, err := gogit.PlainCloneContext(ctx, repoPath, false, &gogit.CloneOptions{
		URL:           url,
		RemoteName:    remoteName,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		Auth:          auth,
	})
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		// Hosting branch not on the remote yet; take the remote default.
		_ = os.RemoveAll(repoPath)
		repo, err = gogit.PlainCloneContext(ctx, repoPath, false, &gogit.CloneOptions{
			URL:        url,
			RemoteName: remoteName,
			Auth:       auth,
		})
	}
	if err == nil {
		return repo, repoPath, nil
	}
	if !errors.Is(err, transport.ErrEmptyRemoteRepository) && !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, "", fmt.Errorf("%w: %s: %w", ErrClone, url, err)
	}

	// Nothing clonable on the remote. Initialize locally and wire the remote
	// so the first publish can push the hosting branch.
	if err := os.RemoveAll(repoPath); err != nil {
		return nil, "", fmt.Errorf("failed to reset checkout %s: %w", repoPath, err)
	}
	repo, err = gogit.PlainInit(repoPath, false)
	if err != nil {
		return nil, "", fmt.Errorf("failed to init checkout %s: %w", repoPath, err)
	}
	if _, err := repo.CreateRemote(&gitcfg.RemoteConfig{Name: remoteName, URLs: []string{url}}); err != nil {
		return nil, "", fmt.Errorf("failed to configure remote %s: %w", remoteName, err)
	}
	slog.Info("Hosting repository has no usable refs, initialized fresh checkout", logfields.URL(url))
	return repo, repoPath, nil
}

// Fetch updates the remote-tracking refs for the checkout. Already-up-to-date
// and still-empty remotes are not errors.
func (c *Client) Fetch(ctx context.Context, repo *gogit.Repository, remoteName string, auth transport.AuthMethod) error {
	err := repo.FetchContext(ctx, &gogit.FetchOptions{
		RemoteName: remoteName,
		Auth:       auth,
		Force:      true,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) && !errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return fmt.Errorf("failed to fetch %s: %w", remoteName, err)
	}
	return nil
}

// Authentication builds the go-git auth method for the configured auth type.
func (c *Client) Authentication(auth *config.AuthConfig) (transport.AuthMethod, error) {
	if auth == nil {
		return nil, nil
	}

	switch auth.Type {
	case config.AuthTypeNone, "":
		return nil, nil // No authentication needed for public repositories

	case config.AuthTypeSSH:
		keyPath := auth.KeyPath
		if keyPath == "" {
			keyPath = filepath.Join(os.Getenv("HOME"), ".ssh", "id_rsa")
		} else if rest, ok := strings.CutPrefix(keyPath, "~/"); ok {
			keyPath = filepath.Join(os.Getenv("HOME"), rest)
		}

		publicKeys, err := ssh.NewPublicKeysFromFile("git", keyPath, "")
		if err != nil {
			return nil, fmt.Errorf("failed to load SSH key from %s: %w", keyPath, err)
		}
		return publicKeys, nil

	case config.AuthTypeToken:
		if auth.Token == "" {
			return nil, fmt.Errorf("token authentication requires a token")
		}
		return &http.BasicAuth{
			Username: "token", // forges accept any non-empty username with a token
			Password: auth.Token,
		}, nil

	case config.AuthTypeBasic:
		if auth.Username == "" || auth.Password == "" {
			return nil, fmt.Errorf("basic authentication requires username and password")
		}
		return &http.BasicAuth{
			Username: auth.Username,
			Password: auth.Password,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported auth type: %s", auth.Type)
	}
}

func remoteMatches(repo *gogit.Repository, name, url string) bool {
	remote, err := repo.Remote(name)
	if err != nil {
		return false
	}
	urls := remote.Config().URLs
	return len(urls) > 0 && urls[0] == url
}
