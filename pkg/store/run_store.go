package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vydata/orchestrator/ent"
	"github.com/vydata/orchestrator/ent/run"
)

// RunStore implements the Run slice of the Persistence Store contract.
type RunStore struct {
	client *ent.Client
}

// NewRunStore constructs a RunStore over an initialized ent client.
func NewRunStore(client *ent.Client) *RunStore {
	return &RunStore{client: client}
}

// StartRun creates a new Run under taskID. If precreatedRunID is
// non-empty it is used as the run's correlation id instead of a freshly
// generated one, letting a caller that already announced the id (e.g.
// in a Slack notification) keep it stable.
func (s *RunStore) StartRun(ctx context.Context, taskID int, workflowID, correlationID, precreatedRunID string) (*ent.Run, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	if taskID == 0 {
		return nil, ErrMissingReference
	}
	if workflowID == "" {
		return nil, NewValidationError("workflow_id", "required")
	}

	runID := precreatedRunID
	if runID == "" {
		runID = uuid.New().String()
	}

	var out *ent.Run
	err := withRetry(ctx, func() error {
		created, err := s.client.Run.Create().
			SetUUIDRunID(runID).
			SetTaskID(taskID).
			SetWorkflowID(workflowID).
			SetStatus(run.StatusPending).
			SetStartedAt(time.Now()).
			Save(ctx)
		if err != nil {
			if ent.IsConstraintError(err) {
				return classifyConstraintError(err)
			}
			if ent.IsNotFound(err) || ent.IsValidationError(err) {
				return ErrMissingReference
			}
			return fmt.Errorf("create run: %w", err)
		}
		out = created
		return nil
	})
	return out, err
}

// GetRun loads a Run by its internal id.
func (s *RunStore) GetRun(ctx context.Context, id int) (*ent.Run, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	r, err := s.client.Run.Get(ctx, id)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// GetRunByCorrelationID loads a Run by its process-generated uuid.
func (s *RunStore) GetRunByCorrelationID(ctx context.Context, correlationID string) (*ent.Run, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	r, err := s.client.Run.Query().
		Where(run.UUIDRunIDEQ(correlationID)).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get run by correlation id: %w", err)
	}
	return r, nil
}

// CompleteRun marks a Run terminal, optionally attaching an error blob.
func (s *RunStore) CompleteRun(ctx context.Context, id int, status string, errBlob string) error {
	if s.client == nil {
		return ErrUnavailable
	}
	return withRetry(ctx, func() error {
		update := s.client.Run.UpdateOneID(id).
			SetStatus(run.Status(status)).
			SetCompletedAt(time.Now())
		if errBlob != "" {
			update = update.SetErrorBlob(errBlob)
		}
		_, err := update.Save(ctx)
		if err != nil {
			if ent.IsNotFound(err) {
				return ErrNotFound
			}
			return fmt.Errorf("complete run: %w", err)
		}
		return nil
	})
}

// UpdateLastMergedPRURL is a convenience write used by finalize-pr /
// merge-after-validation to stash the merged PR's url on the run's
// metrics blob for quick retrieval without a join.
func (s *RunStore) UpdateLastMergedPRURL(ctx context.Context, runID int, url string) error {
	if s.client == nil {
		return ErrUnavailable
	}
	return withRetry(ctx, func() error {
		r, err := s.client.Run.Get(ctx, runID)
		if err != nil {
			if ent.IsNotFound(err) {
				return ErrMissingReference
			}
			return fmt.Errorf("load run: %w", err)
		}
		blob := map[string]interface{}{}
		for k, v := range r.MetricsBlob {
			blob[k] = v
		}
		blob["last_merged_pr_url"] = url
		_, err = r.Update().SetMetricsBlob(blob).Save(ctx)
		if err != nil {
			return fmt.Errorf("update last merged pr url: %w", err)
		}
		return nil
	})
}

// ListStaleRunning returns Runs stuck in status=running with a
// started-at older than before — the orphan signal this schema can
// actually support, since no pod-id/heartbeat column exists on Run
// (unlike the teacher's AlertSession). Used by the queue package's
// periodic orphan sweep.
func (s *RunStore) ListStaleRunning(ctx context.Context, before time.Time) ([]*ent.Run, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	runs, err := s.client.Run.Query().
		Where(run.StatusEQ(run.StatusRunning), run.StartedAtLT(before)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stale running runs: %w", err)
	}
	return runs, nil
}

// SetReactivationMetadata stamps a Run as a reactivation: the branch
// the new attempt should clone from, and the reactivation count it
// carries forward from the task's prior run. Called once by the
// Orchestrator right after StartRun, before the Run is handed to the
// worker pool.
func (s *RunStore) SetReactivationMetadata(ctx context.Context, id int, sourceBranch string, reactivationCount int) error {
	if s.client == nil {
		return ErrUnavailable
	}
	return withRetry(ctx, func() error {
		_, err := s.client.Run.UpdateOneID(id).
			SetSourceBranch(sourceBranch).
			SetReactivationCount(reactivationCount).
			Save(ctx)
		if err != nil {
			if ent.IsNotFound(err) {
				return ErrNotFound
			}
			return fmt.Errorf("set reactivation metadata: %w", err)
		}
		return nil
	})
}

// IncrementReactivationCount bumps reactivation_count when an existing
// Run is reactivated by a later Monday comment rather than a new Run
// being spawned.
func (s *RunStore) IncrementReactivationCount(ctx context.Context, id int) error {
	if s.client == nil {
		return ErrUnavailable
	}
	return withRetry(ctx, func() error {
		_, err := s.client.Run.UpdateOneID(id).
			AddReactivationCount(1).
			Save(ctx)
		if err != nil {
			if ent.IsNotFound(err) {
				return ErrNotFound
			}
			return fmt.Errorf("increment reactivation count: %w", err)
		}
		return nil
	})
}

// LatestRun returns the most recently created Run for taskID, used by
// the Orchestrator to carry the prior reactivation-count forward when a
// status transition reopens a completed Task.
func (s *RunStore) LatestRun(ctx context.Context, taskID int) (*ent.Run, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	r, err := s.client.Run.Query().
		Where(run.TaskIDEQ(taskID)).
		Order(ent.Desc(run.FieldID)).
		First(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("latest run for task: %w", err)
	}
	return r, nil
}

// SetTriggeredBy stamps the UpdateTrigger row that spawned this Run, so
// the trigger-to-run relationship named by the Run schema's
// triggered_by field is actually populated for runs opened from an
// inbound comment rather than a status transition.
func (s *RunStore) SetTriggeredBy(ctx context.Context, id int, triggerID int) error {
	if s.client == nil {
		return ErrUnavailable
	}
	return withRetry(ctx, func() error {
		_, err := s.client.Run.UpdateOneID(id).
			SetTriggeredBy(triggerID).
			Save(ctx)
		if err != nil {
			if ent.IsNotFound(err) {
				return ErrNotFound
			}
			return fmt.Errorf("set triggered by: %w", err)
		}
		return nil
	})
}
