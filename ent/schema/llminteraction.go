package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// LLMInteraction holds the schema definition for the LLMInteraction
// entity: one prompt/response record attached to a Step.
type LLMInteraction struct {
	ent.Schema
}

// Fields of the LLMInteraction.
func (LLMInteraction) Fields() []ent.Field {
	return []ent.Field{
		field.Int("step_id").
			Immutable(),
		field.String("provider").
			Comment("anthropic, openai"),
		field.String("model"),
		field.Text("prompt"),
		field.Text("response").
			Optional(),
		field.Int("prompt_tokens").
			Default(0),
		field.Int("completion_tokens").
			Default(0),
		field.Int64("latency_ms").
			Default(0),
		field.Float("cost_estimate").
			Default(0),
	}
}

// Edges of the LLMInteraction.
func (LLMInteraction) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("step", Step.Type).
			Ref("llm_interactions").
			Field("step_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the LLMInteraction.
func (LLMInteraction) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("step_id"),
	}
}
