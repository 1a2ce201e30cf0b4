package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// PullRequest holds the schema definition for the PullRequest entity.
//
// Both task_id and run_id are required and immutable: a PR row with
// either missing is the exact bug this schema exists to prevent.
type PullRequest struct {
	ent.Schema
}

// Fields of the PullRequest.
func (PullRequest) Fields() []ent.Field {
	return []ent.Field{
		field.Int("task_id").
			Immutable(),
		field.Int("run_id").
			Immutable(),
		field.Int("external_number"),
		field.String("url"),
		field.String("title"),
		field.String("head_branch"),
		field.String("base_branch"),
		field.String("head_sha"),
		field.Enum("status").
			Values("open", "merged", "closed").
			Default("open"),
		field.String("merge_commit_hash").
			Optional().
			Nillable(),
	}
}

// Edges of the PullRequest.
func (PullRequest) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("run", Run.Type).
			Ref("pull_requests").
			Field("run_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the PullRequest.
func (PullRequest) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("task_id"),
		index.Fields("run_id"),
	}
}
