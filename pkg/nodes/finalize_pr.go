package nodes

import (
	"context"
	"fmt"

	"github.com/vydata/orchestrator/pkg/store"
	"github.com/vydata/orchestrator/pkg/workflow"
)

// FinalizePR implements spec.md §4.9 node 8: commits and pushes the
// run's working tree, opens (or reuses) a GitHub pull request, and
// persists a Pull Request row. Per invariant I-1, a null task-id or
// run-id here is a hard failure — the Persistence Store's
// CreatePullRequest call refuses the write and this node propagates a
// PermanentError rather than degrading, since a PR this system cannot
// later find by task/run id is worse than no PR at all.
func (d *Deps) FinalizePR(ctx context.Context, s *workflow.State) (workflow.Delta, error) {
	if s.DBTaskID == 0 || s.DBRunID == 0 {
		return workflow.Delta{}, workflow.Permanent(fmt.Errorf("finalize-pr: db-task-id/db-run-id must be set (I-1)"))
	}

	client, err := d.workspaceClient(s.RunID)
	if err != nil {
		return workflow.Delta{}, workflow.Permanent(fmt.Errorf("finalize-pr: %w", err))
	}

	if err := client.AddAll(); err != nil {
		return workflow.Delta{}, fmt.Errorf("finalize-pr: add all: %w", err)
	}
	names, err := client.DiffNamesCached()
	if err != nil {
		return workflow.Delta{}, fmt.Errorf("finalize-pr: diff names cached: %w", err)
	}
	if len(names) == 0 {
		return workflow.Delta{
			ErrorLogsAdd: []string{"finalize-pr: no staged changes, nothing to commit"},
		}, nil
	}

	commitMessage := fmt.Sprintf("%s\n\n%s", s.Task.Title, s.Task.Description)
	if _, err := client.Commit(commitMessage); err != nil {
		return workflow.Delta{}, fmt.Errorf("finalize-pr: commit: %w", err)
	}

	if err := client.Push(ctx, s.Task.BranchName, d.GitHubToken); err != nil {
		return workflow.Delta{}, fmt.Errorf("finalize-pr: push: %w", err)
	}

	owner, repo, err := ownerRepo(s.Task.RepositoryURL)
	if err != nil {
		return workflow.Delta{}, workflow.Permanent(fmt.Errorf("finalize-pr: %w", err))
	}

	base := d.Config.GitHub.DefaultBaseBranch
	if base == "" {
		base = "main"
	}
	body := fmt.Sprintf("Automated implementation for: %s\n\n%s", s.Task.Title, s.Results.RequirementsAnalysis)
	pr, err := d.GitHub.CreatePR(ctx, owner, repo, s.Task.Title, body, s.Task.BranchName, base)
	if err != nil {
		return workflow.Delta{}, fmt.Errorf("finalize-pr: create pr: %w", err)
	}

	record, err := d.Store.PRs.CreatePullRequest(ctx, store.PullRequestInput{
		TaskID:         s.DBTaskID,
		RunID:          s.DBRunID,
		ExternalNumber: pr.Number,
		URL:            pr.URL,
		Title:          s.Task.Title,
		HeadBranch:     s.Task.BranchName,
		BaseBranch:     base,
	})
	if err != nil {
		return workflow.Delta{}, workflow.Permanent(fmt.Errorf("finalize-pr: persist pull request: %w", err))
	}

	return workflow.Delta{
		PRInfo: map[string]string{
			"number": fmt.Sprintf("%d", pr.Number),
			"url":    pr.URL,
			"owner":  owner,
			"repo":   repo,
			"branch": s.Task.BranchName,
			"base":   base,
			"id":     fmt.Sprintf("%d", record.ID),
		},
	}, nil
}
