// Package git wraps go-git so the workflow graph's prepare-environment
// and finalize-pr nodes never shell out to the git binary. Grounded on
// spec.md §6's Git client contract (clone/checkout/add-all/commit/push/
// diff-names-cached); the teacher has no git collaborator of its own,
// so the shape here follows the contract directly, in the teacher's
// thin-wrapper-over-an-SDK style (see pkg/slack.Client).
package git

import (
	"context"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// Client operates on a single cloned working tree rooted at a scratch
// workspace directory. It is not safe for concurrent use by multiple
// goroutines against the same workspace.
type Client struct {
	authorName  string
	authorEmail string
	repo        *git.Repository
	workspace   string
}

// NewClient constructs a Client. The commit author identity is fixed
// for the life of the process, matching the single service-account
// identity the teacher's own commit paths use.
func NewClient(authorName, authorEmail string) *Client {
	return &Client{authorName: authorName, authorEmail: authorEmail}
}

// Clone clones url into workspace and checks it out at branch (or the
// remote's default branch when branch is empty).
func (c *Client) Clone(ctx context.Context, url, branch, workspace string) error {
	opts := &git.CloneOptions{URL: url}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
		opts.SingleBranch = true
	}
	repo, err := git.PlainCloneContext(ctx, workspace, false, opts)
	if err != nil {
		return fmt.Errorf("clone %s: %w", url, err)
	}
	c.repo = repo
	c.workspace = workspace
	return nil
}

// Open reopens a workspace cloned by a previous Client instance — used
// when a later node (finalize-pr) needs the same working tree a
// prior node (prepare-environment) cloned in an earlier Runtime.Run
// call, since State itself carries only the workspace path, not a
// live repository handle.
func (c *Client) Open(workspace string) error {
	repo, err := git.PlainOpen(workspace)
	if err != nil {
		return fmt.Errorf("open workspace %s: %w", workspace, err)
	}
	c.repo = repo
	c.workspace = workspace
	return nil
}

// Workspace returns the directory the Client currently operates on.
func (c *Client) Workspace() string { return c.workspace }

// Checkout switches to branch, creating it from the current HEAD when
// create is true and the branch does not already exist.
func (c *Client) Checkout(branch string, create bool) error {
	wt, err := c.repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}
	ref := plumbing.NewBranchReferenceName(branch)
	opts := &git.CheckoutOptions{Branch: ref}
	if create {
		if _, err := c.repo.Reference(ref, true); err != nil {
			opts.Create = true
		}
	}
	if err := wt.Checkout(opts); err != nil {
		return fmt.Errorf("checkout %s: %w", branch, err)
	}
	return nil
}

// AddAll stages every change in the working tree.
func (c *Client) AddAll() error {
	wt, err := c.repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("add all: %w", err)
	}
	return nil
}

// DiffNamesCached lists the paths currently staged relative to HEAD,
// used to verify a non-empty change set before committing (spec.md
// §6's diff-names-cached).
func (c *Client) DiffNamesCached() ([]string, error) {
	wt, err := c.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	var names []string
	for path, s := range status {
		if s.Staging != git.Unmodified {
			names = append(names, path)
		}
	}
	return names, nil
}

// Commit records a commit with the fixed service-account author.
func (c *Client) Commit(message string) (string, error) {
	wt, err := c.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("worktree: %w", err)
	}
	sig := &object.Signature{Name: c.authorName, Email: c.authorEmail, When: time.Now().UTC()}
	hash, err := wt.Commit(message, &git.CommitOptions{Author: sig})
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return hash.String(), nil
}

// Push pushes branch to the remote, authenticating with token when
// non-empty (a GitHub personal-access or app-install token used as the
// HTTP basic-auth password, matching GitHub's own convention).
func (c *Client) Push(ctx context.Context, branch, token string) error {
	opts := &git.PushOptions{
		RefSpecs: []config.RefSpec{config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch))},
	}
	if token != "" {
		opts.Auth = &http.BasicAuth{Username: "x-access-token", Password: token}
	}
	if err := c.repo.PushContext(ctx, opts); err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("push %s: %w", branch, err)
	}
	return nil
}
