package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ValidationResponse holds the schema definition for the
// ValidationResponse entity, attached to a ValidationRequest.
//
// response_status deliberately excludes "pending" — see invariant I-3:
// a response always records a terminal decision.
type ValidationResponse struct {
	ent.Schema
}

// Fields of the ValidationResponse.
func (ValidationResponse) Fields() []ent.Field {
	return []ent.Field{
		field.String("validation_id").
			Immutable(),
		field.Enum("response_status").
			Values("approved", "rejected", "expired", "cancelled"),
		field.Text("comments").
			Optional(),
		field.String("validated_by").
			Optional().
			Nillable(),
		field.Time("validated_at").
			Default(time.Now),
		field.Bool("should_merge").
			Default(false),
		field.Bool("should_continue_workflow").
			Default(false),
		field.Int("rejection_count").
			Default(0),
		field.Text("modification_instructions").
			Optional(),
		field.Bool("should_retry_workflow").
			Default(false),
	}
}

// Edges of the ValidationResponse.
func (ValidationResponse) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("validation_request", ValidationRequest.Type).
			Ref("responses").
			Field("validation_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the ValidationResponse.
func (ValidationResponse) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("validation_id"),
	}
}
