package nodes

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vydata/orchestrator/pkg/workflow"
)

// MergeAfterValidation implements spec.md §4.9 node 11: entered only
// when the monday-validation router decided "merge" (a human approved,
// or the timeout auto-approve policy did). Delegates the actual merge
// to the GitHub collaborator, records the merge commit against the PR
// row, and deletes the now-merged branch best-effort.
func (d *Deps) MergeAfterValidation(ctx context.Context, s *workflow.State) (workflow.Delta, error) {
	owner := s.Results.PRInfo["owner"]
	repo := s.Results.PRInfo["repo"]
	numberStr := s.Results.PRInfo["number"]
	branch := s.Results.PRInfo["branch"]
	prIDStr := s.Results.PRInfo["id"]
	if owner == "" || repo == "" || numberStr == "" {
		return workflow.Delta{}, workflow.Permanent(fmt.Errorf("merge-after-validation: missing pr-info (owner/repo/number)"))
	}
	number, err := strconv.Atoi(numberStr)
	if err != nil {
		return workflow.Delta{}, workflow.Permanent(fmt.Errorf("merge-after-validation: malformed pr number %q: %w", numberStr, err))
	}

	method := d.Config.GitHub.MergeMethod
	if method == "" {
		method = "squash"
	}
	message := fmt.Sprintf("Merge pull request #%d: %s", number, s.Task.Title)

	sha, err := d.GitHub.MergePR(ctx, owner, repo, number, method, message)
	if err != nil {
		falseVal := false
		return workflow.Delta{
			MergeSuccessful: &falseVal,
			ErrorLogsAdd:    []string{d.mask("merge-after-validation: " + err.Error())},
		}, fmt.Errorf("merge-after-validation: merge pr: %w", err)
	}

	if prIDStr != "" {
		if prID, convErr := strconv.Atoi(prIDStr); convErr == nil {
			_ = d.Store.PRs.MarkMerged(ctx, prID, sha)
		}
	}
	_ = d.Store.Runs.UpdateLastMergedPRURL(ctx, s.DBRunID, s.Results.PRInfo["url"])

	if branch != "" {
		_ = d.GitHub.DeleteBranch(ctx, owner, repo, branch)
	}

	d.releaseWorkspace(s.RunID)

	success := true
	return workflow.Delta{
		MergeSuccessful: &success,
		PRInfo:          map[string]string{"merge_commit_sha": sha},
	}, nil
}
