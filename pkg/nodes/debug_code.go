package nodes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vydata/orchestrator/pkg/workflow"
)

// DebugCode implements spec.md §4.9 node 5: an LLM patching pass driven
// by the most recent test-failure output, looped against run-tests by
// the graph's _should-debug router up to max-debug-attempts (I-6).
func (d *Deps) DebugCode(ctx context.Context, s *workflow.State) (workflow.Delta, error) {
	client, err := d.workspaceClient(s.RunID)
	if err != nil {
		return workflow.Delta{}, workflow.Permanent(fmt.Errorf("debug-code: %w", err))
	}

	var lastFailure string
	if n := len(s.Results.TestResults); n > 0 {
		lastFailure = fmt.Sprintf("%d/%d tests passed, %d failed, %d skipped",
			s.Results.TestResults[n-1].Passed, s.Results.TestResults[n-1].Total,
			s.Results.TestResults[n-1].Failed, s.Results.TestResults[n-1].Skipped)
	}
	var lastOutput string
	if n := len(s.Results.ErrorLogs); n > 0 {
		lastOutput = s.Results.ErrorLogs[n-1]
	}

	prompt := fmt.Sprintf(
		"The following test run failed:\n%s\n\nFailure output:\n%s\n\n"+
			"Produce a patch that fixes the failure. For each file you change, output "+
			"a heading line \"### <relative/path>\" followed by a fenced code block "+
			"containing the file's complete new contents.",
		lastFailure, lastOutput,
	)

	res, err := d.LLM.Complete(ctx, prompt, d.Config.LLM.MaxTokens)
	if err != nil {
		return workflow.Delta{DebugAttemptsDelta: 1}, fmt.Errorf("debug-code: llm call failed: %w", err)
	}
	d.logLLM(ctx, s.StepID, prompt, res)

	changes := parseFileBlocks(res.Content)
	modified := make([]string, 0, len(changes))
	for path, content := range changes {
		full := filepath.Join(client.Workspace(), path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return workflow.Delta{DebugAttemptsDelta: 1}, fmt.Errorf("debug-code: create directory for %s: %w", path, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return workflow.Delta{DebugAttemptsDelta: 1}, fmt.Errorf("debug-code: write %s: %w", path, err)
		}
		modified = append(modified, path)
	}

	_, _ = d.Store.CodeGen.LogGeneration(ctx, codeGenInput(s.DBRunID, "debug", modified, res))

	limitReached := s.Results.DebugAttempts+1 >= d.Config.Limits.MaxDebugAttempts
	return workflow.Delta{
		CodeChanges:        changes,
		ModifiedFilesAdd:   modified,
		DebugAttemptsDelta: 1,
		DebugLimitReached:  &limitReached,
	}, nil
}
