package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ValidationAction holds the schema definition for the ValidationAction
// entity: a post-decision side-effect record (merge the PR, notify the
// user, clean up the branch, ...).
type ValidationAction struct {
	ent.Schema
}

// Fields of the ValidationAction.
func (ValidationAction) Fields() []ent.Field {
	return []ent.Field{
		field.String("validation_id").
			Immutable(),
		field.Enum("action_type").
			Values("merge_pr", "reject_pr", "update_monday", "cleanup_branch", "notify_user"),
		field.Enum("status").
			Values("pending", "in_progress", "completed", "failed", "cancelled").
			Default("pending"),
		field.JSON("input_blob", map[string]interface{}{}).
			Optional(),
		field.JSON("result_blob", map[string]interface{}{}).
			Optional(),
		field.String("merge_commit_hash").
			Optional().
			Nillable(),
		field.Text("error").
			Optional().
			Nillable(),
		field.Time("started_at").
			Optional().
			Nillable(),
		field.Time("completed_at").
			Optional().
			Nillable(),
	}
}

// Edges of the ValidationAction.
func (ValidationAction) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("validation_request", ValidationRequest.Type).
			Ref("actions").
			Field("validation_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the ValidationAction.
func (ValidationAction) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("validation_id"),
		index.Fields("status"),
	}
}
