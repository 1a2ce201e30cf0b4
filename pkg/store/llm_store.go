package store

import (
	"context"
	"fmt"

	"github.com/vydata/orchestrator/ent"
)

// LLMInteractionInput captures one prompt/response exchange to be
// attached to a Step.
type LLMInteractionInput struct {
	StepID            int
	Provider          string
	Model             string
	Prompt            string
	Response          string
	PromptTokens      int
	CompletionTokens  int
	LatencyMS         int64
	CostEstimate      float64
}

// LLMStore implements the LLMInteraction slice of the Persistence Store
// contract.
type LLMStore struct {
	client *ent.Client
}

// NewLLMStore constructs an LLMStore over an initialized ent client.
func NewLLMStore(client *ent.Client) *LLMStore {
	return &LLMStore{client: client}
}

// LogInteraction records one LLM call. Interactions append in call
// order; the store never reorders or deduplicates them.
func (s *LLMStore) LogInteraction(ctx context.Context, in LLMInteractionInput) (*ent.LLMInteraction, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	if in.StepID == 0 {
		return nil, ErrMissingReference
	}
	if in.Provider == "" || in.Model == "" {
		return nil, NewValidationError("provider/model", "required")
	}

	var out *ent.LLMInteraction
	err := withRetry(ctx, func() error {
		created, err := s.client.LLMInteraction.Create().
			SetStepID(in.StepID).
			SetProvider(in.Provider).
			SetModel(in.Model).
			SetPrompt(in.Prompt).
			SetResponse(in.Response).
			SetPromptTokens(in.PromptTokens).
			SetCompletionTokens(in.CompletionTokens).
			SetLatencyMs(in.LatencyMS).
			SetCostEstimate(in.CostEstimate).
			Save(ctx)
		if err != nil {
			if ent.IsConstraintError(err) {
				return classifyConstraintError(err)
			}
			if ent.IsNotFound(err) {
				return ErrMissingReference
			}
			return fmt.Errorf("log llm interaction: %w", err)
		}
		out = created
		return nil
	})
	return out, err
}
