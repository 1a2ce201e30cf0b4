package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// TestResult holds the schema definition for the TestResult entity: a
// per-Run record of a test-suite execution.
type TestResult struct {
	ent.Schema
}

// Fields of the TestResult.
func (TestResult) Fields() []ent.Field {
	return []ent.Field{
		field.Int("run_id").
			Immutable(),
		field.Bool("passed"),
		field.Int("total_count").
			Default(0),
		field.Int("passed_count").
			Default(0),
		field.Int("failed_count").
			Default(0),
		field.Int("skipped_count").
			Default(0),
		field.Float("coverage_percent").
			Optional().
			Nillable(),
		field.Text("report_blob").
			Optional(),
		field.Float("duration_seconds").
			Default(0),
	}
}

// Edges of the TestResult.
func (TestResult) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("run", Run.Type).
			Ref("test_results").
			Field("run_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the TestResult.
func (TestResult) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("run_id"),
	}
}
