package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// PerformanceMetric holds the schema definition for the
// PerformanceMetric entity: aggregate cost/latency/token figures for a
// Run, recorded once the Run reaches a terminal state.
type PerformanceMetric struct {
	ent.Schema
}

// Fields of the PerformanceMetric.
func (PerformanceMetric) Fields() []ent.Field {
	return []ent.Field{
		field.Int("task_id").
			Immutable(),
		field.Int("run_id").
			Immutable(),
		field.Int64("total_duration_ms").
			Default(0),
		field.Int("total_prompt_tokens").
			Default(0),
		field.Int("total_completion_tokens").
			Default(0),
		field.Float("total_cost").
			Default(0),
		field.Int("node_count").
			Default(0),
		field.Int("retry_count").
			Default(0),
	}
}

// Edges of the PerformanceMetric.
func (PerformanceMetric) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("run", Run.Type).
			Ref("performance_metrics").
			Field("run_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the PerformanceMetric.
func (PerformanceMetric) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("run_id"),
	}
}
