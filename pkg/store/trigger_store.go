package store

import (
	"context"
	"fmt"

	"github.com/vydata/orchestrator/ent"
	"github.com/vydata/orchestrator/ent/updatetrigger"
)

// UpdateTriggerInput describes a classified inbound Monday comment.
type UpdateTriggerInput struct {
	TaskID         int
	UpdateID       int
	Classification string
	Confidence     float64
}

// TriggerStore implements the UpdateTrigger slice of the Persistence
// Store contract.
type TriggerStore struct {
	client *ent.Client
}

// NewTriggerStore constructs a TriggerStore over an initialized ent client.
func NewTriggerStore(client *ent.Client) *TriggerStore {
	return &TriggerStore{client: client}
}

// CreateUpdateTrigger is idempotent on update-id: a comment re-delivered
// by Monday's webhook will not spawn a second trigger row.
func (s *TriggerStore) CreateUpdateTrigger(ctx context.Context, in UpdateTriggerInput) (*ent.UpdateTrigger, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	if in.TaskID == 0 {
		return nil, ErrMissingReference
	}

	var out *ent.UpdateTrigger
	err := withRetry(ctx, func() error {
		existing, err := s.client.UpdateTrigger.Query().
			Where(updatetrigger.UpdateIDEQ(in.UpdateID)).
			Only(ctx)
		if err == nil {
			out = existing
			return nil
		}
		if !ent.IsNotFound(err) {
			return fmt.Errorf("load update trigger: %w", err)
		}

		created, err := s.client.UpdateTrigger.Create().
			SetTaskID(in.TaskID).
			SetUpdateID(in.UpdateID).
			SetClassification(updatetrigger.Classification(in.Classification)).
			SetConfidence(in.Confidence).
			Save(ctx)
		if err != nil {
			if ent.IsConstraintError(err) {
				if classifyConstraintError(err) == ErrMissingReference {
					return ErrMissingReference
				}
				existing, lerr := s.client.UpdateTrigger.Query().
					Where(updatetrigger.UpdateIDEQ(in.UpdateID)).
					Only(ctx)
				if lerr != nil {
					return fmt.Errorf("reload update trigger after constraint error: %w", lerr)
				}
				out = existing
				return nil
			}
			if ent.IsNotFound(err) {
				return ErrMissingReference
			}
			return fmt.Errorf("create update trigger: %w", err)
		}
		out = created
		return nil
	})
	return out, err
}

// MarkTriggerProcessed records the Run (if any) spawned by a trigger.
// triggeredRunID of 0 means no Run was opened (the question-answered
// path, spec.md scenario E6) and is persisted as NULL, not the literal
// value 0 — triggered-run-id is Optional().Nillable() precisely so
// "no run" is representable.
func (s *TriggerStore) MarkTriggerProcessed(ctx context.Context, id int, triggeredRunID int) error {
	if s.client == nil {
		return ErrUnavailable
	}
	return withRetry(ctx, func() error {
		update := s.client.UpdateTrigger.UpdateOneID(id)
		if triggeredRunID != 0 {
			update = update.SetTriggeredRunID(triggeredRunID)
		} else {
			update = update.ClearTriggeredRunID()
		}
		_, err := update.Save(ctx)
		if err != nil {
			if ent.IsNotFound(err) {
				return ErrNotFound
			}
			return fmt.Errorf("mark trigger processed: %w", err)
		}
		return nil
	})
}
