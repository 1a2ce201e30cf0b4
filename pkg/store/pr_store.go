package store

import (
	"context"
	"fmt"

	"github.com/vydata/orchestrator/ent"
	"github.com/vydata/orchestrator/ent/pullrequest"
)

// PullRequestInput describes a PR opened against a task's run.
type PullRequestInput struct {
	TaskID         int
	RunID          int
	ExternalNumber int
	URL            string
	Title          string
	HeadBranch     string
	BaseBranch     string
	HeadSHA        string
}

// PRStore implements the PullRequest slice of the Persistence Store
// contract.
type PRStore struct {
	client *ent.Client
}

// NewPRStore constructs a PRStore over an initialized ent client.
func NewPRStore(client *ent.Client) *PRStore {
	return &PRStore{client: client}
}

// CreatePullRequest records a newly opened PR. It refuses to write a
// row whose task-id or run-id is unset: a PR with no task/run reference
// would be unreachable from any validation or merge flow.
func (s *PRStore) CreatePullRequest(ctx context.Context, in PullRequestInput) (*ent.PullRequest, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	if in.TaskID == 0 || in.RunID == 0 {
		return nil, ErrMissingReference
	}
	if in.URL == "" || in.HeadBranch == "" {
		return nil, NewValidationError("url/head_branch", "required")
	}

	var out *ent.PullRequest
	err := withRetry(ctx, func() error {
		created, err := s.client.PullRequest.Create().
			SetTaskID(in.TaskID).
			SetRunID(in.RunID).
			SetExternalNumber(in.ExternalNumber).
			SetURL(in.URL).
			SetTitle(in.Title).
			SetHeadBranch(in.HeadBranch).
			SetBaseBranch(in.BaseBranch).
			SetHeadSha(in.HeadSHA).
			Save(ctx)
		if err != nil {
			if ent.IsConstraintError(err) {
				return classifyConstraintError(err)
			}
			if ent.IsNotFound(err) {
				return ErrMissingReference
			}
			return fmt.Errorf("create pull request: %w", err)
		}
		out = created
		return nil
	})
	return out, err
}

// MarkMerged transitions a PR to merged and records the merge commit.
func (s *PRStore) MarkMerged(ctx context.Context, id int, mergeCommitHash string) error {
	if s.client == nil {
		return ErrUnavailable
	}
	return withRetry(ctx, func() error {
		_, err := s.client.PullRequest.UpdateOneID(id).
			SetStatus(pullrequest.StatusMerged).
			SetMergeCommitHash(mergeCommitHash).
			Save(ctx)
		if err != nil {
			if ent.IsNotFound(err) {
				return ErrNotFound
			}
			return fmt.Errorf("mark pr merged: %w", err)
		}
		return nil
	})
}

// LatestForRun returns the most recently created PullRequest for a run.
func (s *PRStore) LatestForRun(ctx context.Context, runID int) (*ent.PullRequest, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	pr, err := s.client.PullRequest.Query().
		Where(pullrequest.RunIDEQ(runID)).
		Order(ent.Desc(pullrequest.FieldID)).
		First(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("latest pr for run: %w", err)
	}
	return pr, nil
}
