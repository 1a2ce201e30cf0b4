package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/vydata/orchestrator/pkg/workflow"
)

// UpdateMonday implements spec.md §4.9 node 12: the terminal node every
// path through the graph reaches. It computes the final Monday status
// label and posts a single completion comment, guarded by
// reimplementation-message-posted (spec.md §9 Open Questions) so a run
// that already announced "escalating to reimplementation" on its way
// through openai-debug does not post a second, contradictory summary.
func (d *Deps) UpdateMonday(ctx context.Context, s *workflow.State) (workflow.Delta, error) {
	status := finalMondayStatus(s)

	delta := workflow.Delta{MondayFinalStatus: &status}

	if d.Monday != nil {
		columnID := d.Config.Monday.StatusColumnID
		if columnID == "" {
			columnID = "status"
		}
		if err := d.Monday.UpdateColumnValue(ctx, s.Task.BoardID, s.Task.ExternalID, columnID, status); err != nil {
			delta.ErrorLogsAdd = append(delta.ErrorLogsAdd, d.mask("update-monday: update column value failed: "+err.Error()))
		}

		if !s.Results.ReimplementationMessagePosted {
			body := finalCompletionMessage(s, status)
			if _, err := d.Monday.PostUpdate(ctx, s.Task.ExternalID, body); err != nil {
				delta.ErrorLogsAdd = append(delta.ErrorLogsAdd, d.mask("update-monday: post completion comment failed: "+err.Error()))
			} else {
				posted := true
				delta.ReimplementationMessagePosted = &posted
			}
		}
	}

	terminated := true
	delta.WorkflowTerminated = &terminated
	return delta, nil
}

// finalMondayStatus implements the rule spec.md §4.9 node 12 names: a
// forced merge always wins as "Done"; an explicit status set upstream
// (e.g. by a rejection path) is respected; otherwise an open PR without
// a merge reads as still in progress, and the complete absence of a PR
// reads as stuck.
func finalMondayStatus(s *workflow.State) string {
	if s.Results.MergeSuccessful {
		return "Done"
	}
	if s.Results.MondayFinalStatus != "" {
		return s.Results.MondayFinalStatus
	}
	if s.Results.PRInfo["url"] != "" {
		return "Working on it"
	}
	return "Stuck"
}

func finalCompletionMessage(s *workflow.State, status string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🤖 Task #%d: %s\n", s.Task.ExternalID, status))
	if url := s.Results.PRInfo["url"]; url != "" {
		b.WriteString(fmt.Sprintf("Pull request: %s\n", url))
	}
	if s.Results.HumanDecision != "" {
		b.WriteString(fmt.Sprintf("Decision: %s\n", s.Results.HumanDecision))
	}
	if len(s.Results.ErrorLogs) > 0 {
		b.WriteString(fmt.Sprintf("Errors encountered: %d\n", len(s.Results.ErrorLogs)))
	}
	if len(s.Results.HumanOverride) > 0 {
		b.WriteString(fmt.Sprintf("Merged despite open issues (human override): %s\n", strings.Join(s.Results.HumanOverride, ", ")))
	}
	return b.String()
}
