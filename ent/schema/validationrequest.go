package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ValidationRequest holds the schema definition for the ValidationRequest
// entity: a human-approval ticket raised against a Task/Run/Step.
type ValidationRequest struct {
	ent.Schema
}

// Fields of the ValidationRequest.
func (ValidationRequest) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("validation_id").
			Unique().
			Immutable(),
		field.Int("task_id").
			Immutable(),
		field.Int("run_id").
			Optional().
			Nillable().
			Immutable(),
		field.Int("step_id").
			Optional().
			Nillable().
			Immutable(),
		field.String("task_title"),
		field.Text("original_request").
			Optional(),
		field.Text("code_summary").
			Optional(),
		field.Text("generated_code").
			Optional().
			Comment("serialized JSON"),
		field.JSON("files_modified", []string{}).
			Optional(),
		field.Text("test_results").
			Optional().
			Comment("serialized JSON"),
		field.Text("pr_info").
			Optional().
			Comment("serialized JSON"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("expires_at"),
		field.Enum("status").
			Values("pending", "approved", "rejected", "abandoned", "expired", "cancelled").
			Default("pending"),
		field.String("requested_by").
			Optional().
			Nillable(),
		field.String("idempotence_key").
			Optional().
			Nillable().
			Immutable().
			Comment("caller-supplied dedup key; a repeat create-request with the same key returns the existing row"),
	}
}

// Edges of the ValidationRequest.
func (ValidationRequest) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("task", Task.Type).
			Ref("validation_requests").
			Field("task_id").
			Unique().
			Required().
			Immutable(),
		edge.From("run", Run.Type).
			Ref("validation_requests").
			Field("run_id").
			Unique().
			Immutable(),
		edge.To("responses", ValidationResponse.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("actions", ValidationAction.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the ValidationRequest.
func (ValidationRequest) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("status"),
		index.Fields("task_id"),
		index.Fields("status", "expires_at"),
		index.Fields("idempotence_key").
			Unique(),
		index.Fields("run_id"),
	}
}
