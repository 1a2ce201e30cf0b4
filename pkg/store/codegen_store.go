package store

import (
	"context"
	"fmt"

	"github.com/vydata/orchestrator/ent"
	"github.com/vydata/orchestrator/ent/codegeneration"
)

// CodeGenerationInput captures one code-authoring pass over a run.
type CodeGenerationInput struct {
	RunID          int
	GenerationType string // initial, modification, debug
	FilesModified  []string
	Cost           float64
	Tokens         int
}

// CodeGenStore implements the CodeGeneration slice of the Persistence
// Store contract.
type CodeGenStore struct {
	client *ent.Client
}

// NewCodeGenStore constructs a CodeGenStore over an initialized ent client.
func NewCodeGenStore(client *ent.Client) *CodeGenStore {
	return &CodeGenStore{client: client}
}

// LogGeneration records one code-generation pass. FilesModified is
// stored as a set: callers should dedup before calling, since the
// engine's files-modified channel tracks unique paths across retries.
func (s *CodeGenStore) LogGeneration(ctx context.Context, in CodeGenerationInput) (*ent.CodeGeneration, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	if in.RunID == 0 {
		return nil, ErrMissingReference
	}
	if in.GenerationType == "" {
		return nil, NewValidationError("generation_type", "required")
	}

	var out *ent.CodeGeneration
	err := withRetry(ctx, func() error {
		created, err := s.client.CodeGeneration.Create().
			SetRunID(in.RunID).
			SetGenerationType(codegeneration.GenerationType(in.GenerationType)).
			SetFilesModified(dedupStrings(in.FilesModified)).
			SetCost(in.Cost).
			SetTokens(in.Tokens).
			Save(ctx)
		if err != nil {
			if ent.IsConstraintError(err) {
				return classifyConstraintError(err)
			}
			if ent.IsNotFound(err) {
				return ErrMissingReference
			}
			return fmt.Errorf("log code generation: %w", err)
		}
		out = created
		return nil
	})
	return out, err
}

func dedupStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
