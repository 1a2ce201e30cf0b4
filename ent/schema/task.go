package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Task holds the schema definition for the Task entity: the unit of work
// created on first webhook for a Monday item and never deleted thereafter.
type Task struct {
	ent.Schema
}

// Fields of the Task.
func (Task) Fields() []ent.Field {
	return []ent.Field{
		field.Int("external_id").
			Unique().
			Immutable().
			Comment("Monday.com item id"),
		field.Int("board_id").
			Immutable(),
		field.String("title"),
		field.Text("description").
			Optional(),
		field.String("repository_url").
			Optional().
			Nillable(),
		field.Enum("priority").
			Values("low", "medium", "high", "urgent").
			Default("medium"),
		field.Enum("task_type").
			Values("feature", "bugfix", "refactor", "documentation", "testing", "ui_change", "performance", "analysis").
			Default("feature"),
		field.Enum("internal_status").
			Values("pending", "running", "completed", "failed", "cancelled").
			Default("pending"),
		field.String("external_status").
			Optional().
			Nillable().
			Comment("Mirror of the Monday status column label"),
		field.String("creator").
			Optional().
			Nillable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
		field.Time("deleted_at").
			Optional().
			Nillable().
			Comment("Soft delete for retention sweep"),
	}
}

// Edges of the Task.
func (Task) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("runs", Run.Type),
		edge.To("validation_requests", ValidationRequest.Type),
		edge.To("update_triggers", UpdateTrigger.Type),
	}
}

// Indexes of the Task.
func (Task) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("internal_status"),
		index.Fields("deleted_at").
			Annotations(entsql.IndexWhere("deleted_at IS NOT NULL")),
	}
}

// Annotations for PostgreSQL-specific features. GIN full-text index on
// description is created via migration hook in pkg/database/migrations.go.
func (Task) Annotations() []schema.Annotation {
	return []schema.Annotation{}
}
