// Package publish replaces the contents of a git hosting branch with a
// rendered site tree. Each publish produces at most one commit: the checkout
// is synced to the build output, and an unchanged tree results in no commit
// at all, so republishing identical content is a no-op.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/blogpress/internal/config"
	"git.home.luguber.info/inful/blogpress/internal/git"
	"git.home.luguber.info/inful/blogpress/internal/logfields"
)

// checkoutName is the subdirectory of the workspace holding the hosting clone.
const checkoutName = "site"

// Result describes a completed publish.
type Result struct {
	Branch   string
	Commit   string // head of the hosting branch after the publish
	Skipped  bool   // true when the rendered tree matched the published one
	Duration time.Duration
}

// Publisher pushes rendered site trees to the configured hosting branch.
type Publisher struct {
	cfg    config.PublishConfig
	client *git.Client
}

// NewPublisher creates a publisher that keeps its hosting checkout under
// workspaceDir. Reusing the same workspace across publishes avoids a fresh
// clone each time.
func NewPublisher(cfg config.PublishConfig, workspaceDir string) *Publisher {
	return &Publisher{
		cfg:    cfg,
		client: git.NewClient(workspaceDir),
	}
}

// Configured reports whether a hosting repository is set up at all.
func (p *Publisher) Configured() bool {
	return p.cfg.URL != ""
}

// Publish syncs the hosting branch to the rendered tree at outputDir,
// committing and pushing only when something changed. The returned result
// carries the branch head even when the commit was skipped.
func (p *Publisher) Publish(ctx context.Context, outputDir, message string) (*Result, error) {
	start := time.Now()
	if !p.Configured() {
		return nil, fmt.Errorf("%w: no hosting repository URL", ErrNotConfigured)
	}
	branch := p.branch()

	auth, err := p.client.Authentication(p.cfg.Auth)
	if err != nil {
		return nil, err
	}
	if err := p.client.EnsureWorkspace(); err != nil {
		return nil, err
	}

	repo, repoPath, err := p.client.OpenOrClone(ctx, checkoutName, p.cfg.URL, p.remoteName(), branch, auth)
	if err != nil {
		return nil, err
	}
	if err := p.client.Fetch(ctx, repo, p.remoteName(), auth); err != nil {
		return nil, err
	}
	if err := p.checkoutBranch(repo, branch); err != nil {
		return nil, err
	}

	if err := replaceWorktree(repoPath, outputDir); err != nil {
		return nil, fmt.Errorf("failed to sync rendered tree: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}
	if err := wt.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		return nil, fmt.Errorf("failed to stage changes: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read worktree status: %w", err)
	}

	result := &Result{Branch: branch}
	if status.IsClean() {
		result.Skipped = true
		head, headErr := repo.Head()
		if headErr != nil {
			// Unborn branch with an empty tree. Nothing exists to publish.
			result.Duration = time.Since(start)
			slog.Info("Nothing to publish", logfields.Branch(branch))
			return result, nil
		}
		result.Commit = head.Hash().String()
		// Push regardless so an earlier commit that never made it out
		// still lands on the remote.
		if err := p.push(ctx, repo, branch, auth); err != nil {
			return nil, err
		}
		result.Duration = time.Since(start)
		slog.Info("Site unchanged, commit skipped",
			logfields.Branch(branch), logfields.Commit(result.Commit))
		return result, nil
	}

	if message == "" {
		message = "Publish site"
	}
	commit, err := wt.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  p.committerName(),
			Email: p.committerEmail(),
			When:  time.Now(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	result.Commit = commit.String()

	if err := p.push(ctx, repo, branch, auth); err != nil {
		return nil, err
	}
	result.Duration = time.Since(start)
	slog.Info("Published site",
		logfields.Branch(branch),
		logfields.Commit(result.Commit),
		logfields.URL(p.cfg.URL))
	return result, nil
}

// checkoutBranch puts the worktree on the hosting branch, aligned with the
// remote when the branch exists there.
func (p *Publisher) checkoutBranch(repo *gogit.Repository, branch string) error {
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}

	branchRef := plumbing.NewBranchReferenceName(branch)
	remoteRef, remoteErr := repo.Reference(plumbing.NewRemoteReferenceName(p.remoteName(), branch), true)

	if _, err := repo.Reference(branchRef, false); err == nil {
		// Local branch survives from a previous publish.
		if err := wt.Checkout(&gogit.CheckoutOptions{Branch: branchRef, Force: true}); err != nil {
			return fmt.Errorf("failed to checkout %s: %w", branch, err)
		}
		if remoteErr == nil {
			if err := wt.Reset(&gogit.ResetOptions{Commit: remoteRef.Hash(), Mode: gogit.HardReset}); err != nil {
				return fmt.Errorf("failed to reset %s to remote: %w", branch, err)
			}
		}
		return nil
	}

	if remoteErr == nil {
		if err := wt.Checkout(&gogit.CheckoutOptions{
			Branch: branchRef,
			Create: true,
			Hash:   remoteRef.Hash(),
			Force:  true,
		}); err != nil {
			return fmt.Errorf("failed to checkout %s: %w", branch, err)
		}
		return nil
	}

	// Brand-new hosting branch. Pointing HEAD at the unborn ref makes the
	// next commit its root, without parents from the default branch.
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, branchRef)); err != nil {
		return fmt.Errorf("failed to create branch %s: %w", branch, err)
	}
	return nil
}

func (p *Publisher) push(ctx context.Context, repo *gogit.Repository, branch string, auth transport.AuthMethod) error {
	refSpec := gitcfg.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch))
	err := repo.PushContext(ctx, &gogit.PushOptions{
		RemoteName: p.remoteName(),
		RefSpecs:   []gitcfg.RefSpec{refSpec},
		Auth:       auth,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("%w: %w", ErrPush, err)
	}
	return nil
}

func (p *Publisher) branch() string {
	if p.cfg.Branch != "" {
		return p.cfg.Branch
	}
	return config.DefaultPublishBranch
}

func (p *Publisher) remoteName() string {
	if p.cfg.Remote != "" {
		return p.cfg.Remote
	}
	return config.DefaultPublishRemote
}

func (p *Publisher) committerName() string {
	if p.cfg.CommitterName != "" {
		return p.cfg.CommitterName
	}
	return config.DefaultCommitterName
}

func (p *Publisher) committerEmail() string {
	if p.cfg.CommitterEmail != "" {
		return p.cfg.CommitterEmail
	}
	return config.DefaultCommitterEmail
}
