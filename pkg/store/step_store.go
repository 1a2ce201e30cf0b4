package store

import (
	"context"
	"fmt"
	"time"

	"github.com/vydata/orchestrator/ent"
	"github.com/vydata/orchestrator/ent/step"
)

// StepStore implements the Step slice of the Persistence Store contract.
type StepStore struct {
	client *ent.Client
}

// NewStepStore constructs a StepStore over an initialized ent client.
func NewStepStore(client *ent.Client) *StepStore {
	return &StepStore{client: client}
}

// CreateStep records a node entering execution. order is 1 + the number
// of already-completed Steps for the run, per the Node Runtime contract.
func (s *StepStore) CreateStep(ctx context.Context, runID int, nodeName string, order int, input map[string]interface{}) (*ent.Step, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	if runID == 0 {
		return nil, ErrMissingReference
	}
	if nodeName == "" {
		return nil, NewValidationError("node_name", "required")
	}

	var out *ent.Step
	err := withRetry(ctx, func() error {
		created, err := s.client.Step.Create().
			SetRunID(runID).
			SetNodeName(nodeName).
			SetStepOrder(order).
			SetInputBlob(input).
			SetStatus(step.StatusRunning).
			SetStartedAt(time.Now()).
			Save(ctx)
		if err != nil {
			if ent.IsConstraintError(err) {
				return classifyConstraintError(err)
			}
			if ent.IsNotFound(err) {
				return ErrMissingReference
			}
			return fmt.Errorf("create step: %w", err)
		}
		out = created
		return nil
	})
	return out, err
}

// CompleteStep records a node leaving execution, terminal or not.
func (s *StepStore) CompleteStep(ctx context.Context, stepID int, status string, output map[string]interface{}, stepErr string) error {
	if s.client == nil {
		return ErrUnavailable
	}
	return withRetry(ctx, func() error {
		update := s.client.Step.UpdateOneID(stepID).
			SetStatus(step.Status(status)).
			SetCompletedAt(time.Now())
		if output != nil {
			update = update.SetOutputBlob(output)
		}
		_, err := update.Save(ctx)
		if err != nil {
			if ent.IsNotFound(err) {
				return ErrNotFound
			}
			return fmt.Errorf("complete step: %w", err)
		}
		return nil
	})
}

// IncrementRetryCount bumps a step's retry_count when the Node Runtime
// re-enters it after a transient failure.
func (s *StepStore) IncrementRetryCount(ctx context.Context, stepID int) error {
	if s.client == nil {
		return ErrUnavailable
	}
	return withRetry(ctx, func() error {
		_, err := s.client.Step.UpdateOneID(stepID).
			AddRetryCount(1).
			SetStatus(step.StatusRunning).
			Save(ctx)
		if err != nil {
			if ent.IsNotFound(err) {
				return ErrNotFound
			}
			return fmt.Errorf("increment step retry count: %w", err)
		}
		return nil
	})
}

// SaveCheckpoint persists an opaque resume-state blob for a run's
// current node, so an engine restart can resume mid-node rather than
// from the node's start.
func (s *StepStore) SaveCheckpoint(ctx context.Context, runID int, nodeName string, blob map[string]interface{}) error {
	if s.client == nil {
		return ErrUnavailable
	}
	return withRetry(ctx, func() error {
		target, err := s.client.Step.Query().
			Where(step.RunIDEQ(runID), step.NodeNameEQ(nodeName)).
			Order(ent.Desc(step.FieldStepOrder)).
			First(ctx)
		if err != nil {
			if ent.IsNotFound(err) {
				return ErrMissingReference
			}
			return fmt.Errorf("find step for checkpoint: %w", err)
		}
		_, err = target.Update().SetCheckpointBlob(blob).Save(ctx)
		if err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
		return nil
	})
}

// LatestCheckpoint returns the most recent checkpoint blob recorded for
// nodeName under runID, used by the engine's recovery path.
func (s *StepStore) LatestCheckpoint(ctx context.Context, runID int, nodeName string) (map[string]interface{}, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	target, err := s.client.Step.Query().
		Where(step.RunIDEQ(runID), step.NodeNameEQ(nodeName)).
		Order(ent.Desc(step.FieldStepOrder)).
		First(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find step for checkpoint: %w", err)
	}
	return target.CheckpointBlob, nil
}

// CountCompleted returns the number of Steps for runID already in a
// terminal "completed" state, used to compute the next step's order.
func (s *StepStore) CountCompleted(ctx context.Context, runID int) (int, error) {
	if s.client == nil {
		return 0, ErrUnavailable
	}
	n, err := s.client.Step.Query().
		Where(step.RunIDEQ(runID), step.StatusEQ(step.StatusCompleted)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count completed steps: %w", err)
	}
	return n, nil
}

// ListByRun returns a run's Steps ordered by step_order, the strict
// ordering guarantee the engine relies on for replay.
func (s *StepStore) ListByRun(ctx context.Context, runID int) ([]*ent.Step, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	steps, err := s.client.Step.Query().
		Where(step.RunIDEQ(runID)).
		Order(ent.Asc(step.FieldStepOrder)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	return steps, nil
}
