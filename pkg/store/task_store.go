package store

import (
	"context"
	"fmt"

	"github.com/vydata/orchestrator/ent"
	"github.com/vydata/orchestrator/ent/task"
)

// TaskInput is the external payload used to create or load a Task. It
// mirrors the subset of a Monday item that the orchestrator cares about.
type TaskInput struct {
	ExternalID     int
	BoardID        int
	Title          string
	Description    string
	RepositoryURL  string
	Priority       string
	TaskType       string
	ExternalStatus string
	Creator        string
}

// TaskStore implements the Task slice of the Persistence Store contract.
type TaskStore struct {
	client *ent.Client
}

// NewTaskStore constructs a TaskStore over an initialized ent client.
func NewTaskStore(client *ent.Client) *TaskStore {
	return &TaskStore{client: client}
}

// CreateOrLoadTask is idempotent on external-id: a second call with the
// same external-id returns the existing row rather than erroring.
func (s *TaskStore) CreateOrLoadTask(ctx context.Context, in TaskInput) (*ent.Task, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	if in.ExternalID == 0 {
		return nil, NewValidationError("external_id", "required")
	}
	if in.Title == "" {
		return nil, NewValidationError("title", "required")
	}

	var out *ent.Task
	err := withRetry(ctx, func() error {
		existing, err := s.client.Task.Query().
			Where(task.ExternalIDEQ(in.ExternalID)).
			Only(ctx)
		if err == nil {
			out = existing
			return nil
		}
		if !ent.IsNotFound(err) {
			return fmt.Errorf("load task: %w", err)
		}

		create := s.client.Task.Create().
			SetExternalID(in.ExternalID).
			SetBoardID(in.BoardID).
			SetTitle(in.Title).
			SetDescription(in.Description)
		if in.RepositoryURL != "" {
			create = create.SetRepositoryURL(in.RepositoryURL)
		}
		if in.Priority != "" {
			create = create.SetPriority(task.Priority(in.Priority))
		}
		if in.TaskType != "" {
			create = create.SetTaskType(task.TaskType(in.TaskType))
		}
		if in.ExternalStatus != "" {
			create = create.SetExternalStatus(in.ExternalStatus)
		}
		if in.Creator != "" {
			create = create.SetCreator(in.Creator)
		}

		created, err := create.Save(ctx)
		if err != nil {
			if ent.IsConstraintError(err) {
				// Lost a create race; the row now exists, load it.
				existing, lerr := s.client.Task.Query().
					Where(task.ExternalIDEQ(in.ExternalID)).
					Only(ctx)
				if lerr != nil {
					return fmt.Errorf("reload task after constraint error: %w", lerr)
				}
				out = existing
				return nil
			}
			return fmt.Errorf("create task: %w", err)
		}
		out = created
		return nil
	})
	return out, err
}

// GetTask loads a Task by its internal id.
func (s *TaskStore) GetTask(ctx context.Context, id int) (*ent.Task, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	t, err := s.client.Task.Get(ctx, id)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// UpdateInternalStatus transitions a Task's internal_status field.
func (s *TaskStore) UpdateInternalStatus(ctx context.Context, id int, status string) error {
	if s.client == nil {
		return ErrUnavailable
	}
	return withRetry(ctx, func() error {
		_, err := s.client.Task.UpdateOneID(id).
			SetInternalStatus(task.InternalStatus(status)).
			Save(ctx)
		if err != nil {
			if ent.IsNotFound(err) {
				return ErrNotFound
			}
			return fmt.Errorf("update task status: %w", err)
		}
		return nil
	})
}

// GetByExternalID loads a Task by its Monday item id. Used by the
// Orchestrator to resolve the Task behind an inbound status transition
// or comment webhook before any workflow Run exists.
func (s *TaskStore) GetByExternalID(ctx context.Context, externalID int) (*ent.Task, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	t, err := s.client.Task.Query().
		Where(task.ExternalIDEQ(externalID)).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get task by external id: %w", err)
	}
	return t, nil
}

// UpdateExternalStatus mirrors a Monday status-column transition onto
// the Task row, independent of whether the transition triggers a
// reactivation.
func (s *TaskStore) UpdateExternalStatus(ctx context.Context, id int, status string) error {
	if s.client == nil {
		return ErrUnavailable
	}
	return withRetry(ctx, func() error {
		_, err := s.client.Task.UpdateOneID(id).
			SetExternalStatus(status).
			Save(ctx)
		if err != nil {
			if ent.IsNotFound(err) {
				return ErrNotFound
			}
			return fmt.Errorf("update task external status: %w", err)
		}
		return nil
	})
}
