package nodes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vydata/orchestrator/pkg/workflow"
)

// OpenAIDebug implements spec.md §4.9 node 10: entered only when a
// human rejected the run and asked for a targeted fix rather than a
// full reimplementation ("debug" in the human-decision vocabulary).
// Bounded by max-human-debug-attempts (I-6), separate from the
// pre-validation debug-attempts counter so a human reviewer's patience
// and the automated test-failure loop never share a budget.
func (d *Deps) OpenAIDebug(ctx context.Context, s *workflow.State) (workflow.Delta, error) {
	limit := d.Config.Limits.MaxHumanDebugAttempts
	if limit <= 0 {
		limit = 2
	}
	if s.Results.HumanDebugAttempts >= limit {
		limitReached := true
		completed := false
		return workflow.Delta{
			DebugLimitReached:    &limitReached,
			OpenAIDebugCompleted: &completed,
			ErrorLogsAdd:         []string{"openai-debug: max-human-debug-attempts reached"},
		}, nil
	}

	client, err := d.workspaceClient(s.RunID)
	if err != nil {
		return workflow.Delta{}, workflow.Permanent(fmt.Errorf("openai-debug: %w", err))
	}

	instructions := s.Results.ModificationInstructions
	if instructions == "" {
		instructions = "The reviewer rejected this change. Re-examine the most recent test results and error logs and fix the underlying issue."
	}

	prompt := fmt.Sprintf(
		"A human reviewer rejected this change with the following instructions:\n%s\n\n"+
			"Recent error logs:\n%s\n\n"+
			"Produce a targeted patch addressing the feedback. For each file you change, output "+
			"a heading line \"### <relative/path>\" followed by a fenced code block containing "+
			"the file's complete new contents. If the feedback requires starting over rather than "+
			"a targeted fix, respond with exactly the single line \"REIMPLEMENT\" and nothing else.",
		instructions, lastErrorLog(s),
	)

	res, err := d.LLM.Complete(ctx, prompt, d.Config.LLM.MaxTokens)
	if err != nil {
		attemptsDelta := 1
		completed := false
		return workflow.Delta{
			HumanDebugAttemptsDelta: attemptsDelta,
			OpenAIDebugCompleted:    &completed,
			ErrorLogsAdd:            []string{d.mask("openai-debug: llm call failed: " + err.Error())},
		}, fmt.Errorf("openai-debug: llm call failed: %w", err)
	}
	d.logLLM(ctx, s.StepID, prompt, res)

	if isReimplementSignal(res.Content) {
		trigger := true
		completed := true
		return workflow.Delta{
			HumanDebugAttemptsDelta: 1,
			TriggerReimplementation: &trigger,
			OpenAIDebugCompleted:    &completed,
			AIMessagesAdd:           []string{"openai-debug: escalating to full reimplementation per reviewer feedback"},
		}, nil
	}

	changes := parseFileBlocks(res.Content)
	modified := make([]string, 0, len(changes))
	for path, content := range changes {
		full := filepath.Join(client.Workspace(), path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return workflow.Delta{}, fmt.Errorf("openai-debug: create directory for %s: %w", path, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return workflow.Delta{}, fmt.Errorf("openai-debug: write %s: %w", path, err)
		}
		modified = append(modified, path)
	}

	_, _ = d.Store.CodeGen.LogGeneration(ctx, codeGenInput(s.DBRunID, "human-debug", modified, res))

	if len(modified) == 0 {
		// No parseable patch and no explicit reimplement signal: treat as
		// exhausted rather than looping silently.
		trigger := true
		completed := true
		return workflow.Delta{
			HumanDebugAttemptsDelta: 1,
			TriggerReimplementation: &trigger,
			OpenAIDebugCompleted:    &completed,
			ErrorLogsAdd:            []string{"openai-debug: model produced no applicable patch, escalating to reimplementation"},
		}, nil
	}

	completed := true
	return workflow.Delta{
		CodeChanges:             changes,
		ModifiedFilesAdd:        modified,
		HumanDebugAttemptsDelta: 1,
		OpenAIDebugCompleted:    &completed,
	}, nil
}

func lastErrorLog(s *workflow.State) string {
	if n := len(s.Results.ErrorLogs); n > 0 {
		return s.Results.ErrorLogs[n-1]
	}
	return ""
}

func isReimplementSignal(content string) bool {
	trimmed := content
	for len(trimmed) > 0 && (trimmed[0] == '\n' || trimmed[0] == '\r' || trimmed[0] == ' ' || trimmed[0] == '\t') {
		trimmed = trimmed[1:]
	}
	for len(trimmed) > 0 && (trimmed[len(trimmed)-1] == '\n' || trimmed[len(trimmed)-1] == '\r' || trimmed[len(trimmed)-1] == ' ' || trimmed[len(trimmed)-1] == '\t') {
		trimmed = trimmed[:len(trimmed)-1]
	}
	return trimmed == "REIMPLEMENT"
}
