package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Run holds the schema definition for the Run entity: one execution
// attempt of a Task driven through the workflow graph.
type Run struct {
	ent.Schema
}

// Fields of the Run.
func (Run) Fields() []ent.Field {
	return []ent.Field{
		field.String("uuid_run_id").
			StorageKey("uuid_run_id").
			Unique().
			Immutable().
			Comment("process-generated correlation string"),
		field.Int("task_id").
			Immutable(),
		field.String("workflow_id").
			Comment("human-readable workflow identifier"),
		field.String("ai_provider").
			Optional().
			Nillable(),
		field.Int("reactivation_count").
			Default(0),
		field.String("source_branch").
			Optional().
			Nillable(),
		field.Enum("status").
			Values("pending", "running", "completed", "failed", "cancelled").
			Default("pending"),
		field.Time("started_at").
			Optional().
			Nillable(),
		field.Time("completed_at").
			Optional().
			Nillable(),
		field.JSON("metrics_blob", map[string]interface{}{}).
			Optional(),
		field.Text("error_blob").
			Optional().
			Nillable(),
		field.Int("triggered_by").
			Optional().
			Nillable().
			Comment("update-trigger id that spawned this run, if any"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("deleted_at").
			Optional().
			Nillable(),
	}
}

// Edges of the Run.
func (Run) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("task", Task.Type).
			Ref("runs").
			Field("task_id").
			Unique().
			Required().
			Immutable(),
		edge.To("steps", Step.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("code_generations", CodeGeneration.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("test_results", TestResult.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("pull_requests", PullRequest.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("performance_metrics", PerformanceMetric.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("validation_requests", ValidationRequest.Type),
	}
}

// Indexes of the Run.
func (Run) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("task_id", "status"),
		index.Fields("status", "started_at"),
	}
}
