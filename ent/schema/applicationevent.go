package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ApplicationEvent holds the schema definition for the ApplicationEvent
// entity: a structured operational log line tied to a Task, independent
// of any Run (webhook rejected, queue admission refused, reminder
// posted, and similar events that happen outside a run's lifetime).
type ApplicationEvent struct {
	ent.Schema
}

// Fields of the ApplicationEvent.
func (ApplicationEvent) Fields() []ent.Field {
	return []ent.Field{
		field.Int("task_id").
			Optional().
			Nillable().
			Immutable(),
		field.Enum("level").
			Values("debug", "info", "warn", "error").
			Default("info"),
		field.String("source").
			Comment("component that raised the event, e.g. 'queue_manager'"),
		field.String("action"),
		field.Text("message"),
		field.JSON("metadata", map[string]interface{}{}).
			Optional(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Indexes of the ApplicationEvent.
func (ApplicationEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("task_id"),
		index.Fields("level", "created_at"),
	}
}
