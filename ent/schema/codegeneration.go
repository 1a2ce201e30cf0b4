package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// CodeGeneration holds the schema definition for the CodeGeneration
// entity: a per-Run code-authoring artifact record.
type CodeGeneration struct {
	ent.Schema
}

// Fields of the CodeGeneration.
func (CodeGeneration) Fields() []ent.Field {
	return []ent.Field{
		field.Int("run_id").
			Immutable(),
		field.Enum("generation_type").
			Values("initial", "modification", "debug"),
		field.JSON("files_modified", []string{}).
			Optional(),
		field.Float("cost").
			Default(0),
		field.Int("tokens").
			Default(0),
	}
}

// Edges of the CodeGeneration.
func (CodeGeneration) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("run", Run.Type).
			Ref("code_generations").
			Field("run_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the CodeGeneration.
func (CodeGeneration) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("run_id"),
	}
}
