package store

import (
	"context"
	"fmt"

	"github.com/vydata/orchestrator/ent"
	"github.com/vydata/orchestrator/ent/applicationevent"
)

// ApplicationEventInput describes one operational log line, tied to a
// Task or standalone (e.g. a rejected webhook with no resolvable task).
type ApplicationEventInput struct {
	TaskID   *int
	Level    string
	Source   string
	Action   string
	Message  string
	Metadata map[string]interface{}
}

// EventStore implements the ApplicationEvent slice of the Persistence
// Store contract.
type EventStore struct {
	client *ent.Client
}

// NewEventStore constructs an EventStore over an initialized ent client.
func NewEventStore(client *ent.Client) *EventStore {
	return &EventStore{client: client}
}

// LogEvent writes an operational event. Failures here are logged by the
// caller and never block the operation being described — event logging
// is best-effort observability, not part of the workflow's own state.
func (s *EventStore) LogEvent(ctx context.Context, in ApplicationEventInput) (*ent.ApplicationEvent, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	if in.Source == "" || in.Action == "" {
		return nil, NewValidationError("source/action", "required")
	}
	level := in.Level
	if level == "" {
		level = string(applicationevent.LevelInfo)
	}

	create := s.client.ApplicationEvent.Create().
		SetLevel(applicationevent.Level(level)).
		SetSource(in.Source).
		SetAction(in.Action).
		SetMessage(in.Message)
	if in.TaskID != nil {
		create = create.SetTaskID(*in.TaskID)
	}
	if in.Metadata != nil {
		create = create.SetMetadata(in.Metadata)
	}

	created, err := create.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("log application event: %w", err)
	}
	return created, nil
}
