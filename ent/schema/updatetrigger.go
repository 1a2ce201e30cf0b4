package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// UpdateTrigger holds the schema definition for the UpdateTrigger
// entity: a record of a Monday comment that spawned (or was coalesced
// into) a Run.
type UpdateTrigger struct {
	ent.Schema
}

// Fields of the UpdateTrigger.
func (UpdateTrigger) Fields() []ent.Field {
	return []ent.Field{
		field.Int("task_id").
			Immutable(),
		field.Int("update_id").
			Immutable().
			Comment("Monday update/comment id"),
		field.Enum("classification").
			Values("approval", "rejection", "question", "modification_request", "reactivation", "unrelated"),
		field.Float("confidence"),
		field.Int("triggered_run_id").
			Optional().
			Nillable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the UpdateTrigger.
func (UpdateTrigger) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("task", Task.Type).
			Ref("update_triggers").
			Field("task_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the UpdateTrigger.
func (UpdateTrigger) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("task_id"),
		index.Fields("update_id").
			Unique(),
	}
}
