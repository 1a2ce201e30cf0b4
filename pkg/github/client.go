// Package github wraps google/go-github for the PR-mechanics half of
// spec.md §6's GitHub-like client contract (the runbook-fetch half is
// served by the teacher's own pkg/runbook.GitHubClient, kept as-is).
package github

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gogithub "github.com/google/go-github/v74/github"
	"golang.org/x/oauth2"
)

// PullRequest is the subset of go-github's PullRequest the graph
// persists into a Pull Request row.
type PullRequest struct {
	Number int
	URL    string
}

// Client is a thin wrapper over *gogithub.Client scoped to create-pr/
// merge-pr/delete-branch, the three operations finalize-pr and
// merge-after-validation need.
type Client struct {
	api *gogithub.Client
}

// NewClient builds a token-authenticated client. token is a GitHub
// personal-access or app-installation token.
func NewClient(ctx context.Context, token string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Client{api: gogithub.NewClient(oauth2.NewClient(ctx, ts))}
}

// CreatePR opens a pull request from head into base. If a PR already
// exists for this head/base pair (GitHub returns 422 "A pull request
// already exists"), the existing PR is looked up and returned instead
// — the operation is idempotent per spec.md §6.
func (c *Client) CreatePR(ctx context.Context, owner, repo, title, body, head, base string) (PullRequest, error) {
	pr, _, err := c.api.PullRequests.Create(ctx, owner, repo, &gogithub.NewPullRequest{
		Title: gogithub.Ptr(title),
		Body:  gogithub.Ptr(body),
		Head:  gogithub.Ptr(head),
		Base:  gogithub.Ptr(base),
	})
	if err == nil {
		return PullRequest{Number: pr.GetNumber(), URL: pr.GetHTMLURL()}, nil
	}

	if !isAlreadyExistsError(err) {
		return PullRequest{}, fmt.Errorf("create pr %s/%s %s->%s: %w", owner, repo, head, base, err)
	}

	existing, _, lerr := c.api.PullRequests.List(ctx, owner, repo, &gogithub.PullRequestListOptions{
		Head:  fmt.Sprintf("%s:%s", owner, head),
		Base:  base,
		State: "open",
	})
	if lerr != nil || len(existing) == 0 {
		return PullRequest{}, fmt.Errorf("create pr %s/%s %s->%s: already exists but lookup failed: %w", owner, repo, head, base, errors.Join(err, lerr))
	}
	return PullRequest{Number: existing[0].GetNumber(), URL: existing[0].GetHTMLURL()}, nil
}

// MergePR merges an open PR using the given method ("merge", "squash",
// or "rebase").
func (c *Client) MergePR(ctx context.Context, owner, repo string, number int, method, message string) (string, error) {
	result, _, err := c.api.PullRequests.Merge(ctx, owner, repo, number, message, &gogithub.PullRequestOptions{
		MergeMethod: method,
	})
	if err != nil {
		return "", fmt.Errorf("merge pr %s/%s #%d: %w", owner, repo, number, err)
	}
	return result.GetSHA(), nil
}

// DeleteBranch removes a branch ref after a successful merge.
func (c *Client) DeleteBranch(ctx context.Context, owner, repo, branch string) error {
	_, err := c.api.Git.DeleteRef(ctx, owner, repo, "refs/heads/"+branch)
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("delete branch %s/%s %s: %w", owner, repo, branch, err)
	}
	return nil
}

func isAlreadyExistsError(err error) bool {
	var ghErr *gogithub.ErrorResponse
	if errors.As(err, &ghErr) {
		for _, e := range ghErr.Errors {
			if strings.Contains(strings.ToLower(e.Message), "already exists") {
				return true
			}
		}
		return strings.Contains(strings.ToLower(ghErr.Message), "already exists")
	}
	return false
}

func isNotFoundError(err error) bool {
	var ghErr *gogithub.ErrorResponse
	if errors.As(err, &ghErr) {
		return ghErr.Response != nil && ghErr.Response.StatusCode == 404
	}
	return false
}
