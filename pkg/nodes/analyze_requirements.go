package nodes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vydata/orchestrator/pkg/llm"
	"github.com/vydata/orchestrator/pkg/store"
	"github.com/vydata/orchestrator/pkg/workflow"
)

// contributingPaths are tried in order against the task's repository,
// converted to raw-content URLs via pkg/runbook.ConvertToRawURL. The
// first one that downloads successfully is folded into the analysis
// prompt; the rest (and a total miss) are silent.
var contributingPaths = []string{
	"blob/main/CONTRIBUTING.md",
	"blob/master/CONTRIBUTING.md",
}

// AnalyzeRequirements implements spec.md §4.9 node 2: one LLM call that
// turns the task's title/description into a structured analysis
// (complexity, files touched, plan), recorded verbatim as
// results.requirements-analysis for the implement-task node and the
// human validation summary to consume.
func (d *Deps) AnalyzeRequirements(ctx context.Context, s *workflow.State) (workflow.Delta, error) {
	conventions := d.fetchConventions(ctx, s.Task.RepositoryURL)

	prompt := fmt.Sprintf(
		"You are planning a code change.\nTitle: %s\nDescription: %s\nTask type: %s\n"+
			"Produce a concise analysis covering: estimated complexity, the files "+
			"likely touched, and a short implementation plan.",
		s.Task.Title, s.Task.Description, s.Task.TaskType,
	)
	if conventions != "" {
		prompt += "\n\nThe repository's contribution guidelines:\n" + conventions
	}

	res, err := d.LLM.Complete(ctx, prompt, d.Config.LLM.MaxTokens)
	if err != nil {
		return workflow.Delta{}, workflow.Permanent(fmt.Errorf("analyze-requirements: llm call failed: %w", err))
	}

	d.logLLM(ctx, s.StepID, prompt, res)

	analysis := res.Content
	return workflow.Delta{RequirementsAnalysis: &analysis}, nil
}

// fetchConventions best-effort downloads the repository's CONTRIBUTING.md
// so the requirements analysis respects house style. A miss (private repo,
// no such file, network error) is logged and otherwise ignored — this is
// an enrichment, never a precondition for the node's real work.
func (d *Deps) fetchConventions(ctx context.Context, repoURL string) string {
	if d.Runbook == nil || repoURL == "" {
		return ""
	}
	repoURL = strings.TrimSuffix(repoURL, ".git")

	for _, path := range contributingPaths {
		content, err := d.Runbook.DownloadContent(ctx, repoURL+"/"+path)
		if err != nil {
			continue
		}
		return content
	}
	slog.Default().Debug("no CONTRIBUTING.md found for repository", "repo", repoURL)
	return ""
}

// logLLM records one LLM exchange against the current Step. Best-effort
// — a logging failure must never fail the node whose actual work
// already succeeded.
func (d *Deps) logLLM(ctx context.Context, stepID int, prompt string, res llm.Result) {
	_, _ = d.Store.LLM.LogInteraction(ctx, store.LLMInteractionInput{
		StepID:           stepID,
		Provider:         res.ProviderUsed,
		Model:            d.modelFor(res.ProviderUsed),
		Prompt:           prompt,
		Response:         res.Content,
		PromptTokens:     res.InputTokens,
		CompletionTokens: res.OutputTokens,
		LatencyMS:        res.LatencyMS,
	})
}

// modelFor reports the configured model name for whichever provider
// actually served the completion, since llm.Result only carries the
// provider's name, not its model.
func (d *Deps) modelFor(provider string) string {
	if d.LLM.Primary != nil && provider == d.LLM.Primary.Name() {
		return d.LLM.PrimaryModel
	}
	if d.LLM.Secondary != nil && provider == d.LLM.Secondary.Name() {
		return d.LLM.SecondaryModel
	}
	return ""
}
