package nodes

import (
	"context"
	"fmt"

	"github.com/vydata/orchestrator/pkg/langdetect"
	"github.com/vydata/orchestrator/pkg/store"
	"github.com/vydata/orchestrator/pkg/testrunner"
	"github.com/vydata/orchestrator/pkg/workflow"
)

// RunTests implements spec.md §4.9 node 4: executes the project's
// detected test command and records a TestResult row. A project with no
// recognized test command (or zero tests collected) sets
// results.no-tests-found rather than treating the absence as a failure.
func (d *Deps) RunTests(ctx context.Context, s *workflow.State) (workflow.Delta, error) {
	client, err := d.workspaceClient(s.RunID)
	if err != nil {
		return workflow.Delta{}, workflow.Permanent(fmt.Errorf("run-tests: %w", err))
	}

	profile := langdetect.Detect(client.Workspace())
	result, err := testrunner.Run(ctx, client.Workspace(), profile.TestCommand)
	if err != nil {
		return workflow.Delta{}, fmt.Errorf("run-tests: execute test command: %w", err)
	}

	record := workflow.TestResultRecord{
		Success: result.Success,
		Total:   result.Total,
		Passed:  result.Passed,
		Failed:  result.Failed,
		Skipped: result.Skipped,
	}

	_, _ = d.Store.Tests.LogResult(ctx, store.TestResultInput{
		RunID:           s.DBRunID,
		Passed:          result.Success,
		TotalCount:      result.Total,
		PassedCount:     result.Passed,
		FailedCount:     result.Failed,
		SkippedCount:    result.Skipped,
		ReportBlob:      result.Output,
		DurationSeconds: result.Duration.Seconds(),
	})

	noTests := result.Total == 0
	delta := workflow.Delta{
		TestResultAppend: &record,
		NoTestsFound:     &noTests,
		TestSuccess:      &record.Success,
	}
	if !record.Success && result.Output != "" {
		delta.ErrorLogsAdd = []string{d.mask(truncate(result.Output, 4000))}
	}
	return delta, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
