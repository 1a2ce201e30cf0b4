package nodes

import (
	"os"

	"github.com/vydata/orchestrator/pkg/llm"
	"github.com/vydata/orchestrator/pkg/store"
)

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// anthropicUSDPerThousandTokens and openaiUSDPerThousandTokens are
// rough blended per-1k-token rates used only to populate the cost
// column on a CodeGeneration/LLMInteraction row for dashboard totals;
// they are not billing-accurate and are never compared against in any
// decision the graph makes.
const (
	anthropicUSDPerThousandTokens = 0.015
	openaiUSDPerThousandTokens    = 0.01
)

func estimateCost(provider string, inputTokens, outputTokens int) float64 {
	rate := openaiUSDPerThousandTokens
	if provider == "anthropic" {
		rate = anthropicUSDPerThousandTokens
	}
	return float64(inputTokens+outputTokens) / 1000.0 * rate
}

// codeGenInput builds a CodeGenerationInput from an LLM result for the
// CodeGen store, shared by implement-task, debug-code, and
// openai-debug.
func codeGenInput(runID int, generationType string, modified []string, res llm.Result) store.CodeGenerationInput {
	return store.CodeGenerationInput{
		RunID:          runID,
		GenerationType: generationType,
		FilesModified:  modified,
		Cost:           estimateCost(res.ProviderUsed, res.InputTokens, res.OutputTokens),
		Tokens:         res.InputTokens + res.OutputTokens,
	}
}
