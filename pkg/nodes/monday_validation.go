package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/vydata/orchestrator/ent"
	"github.com/vydata/orchestrator/ent/validationresponse"
	"github.com/vydata/orchestrator/pkg/notify"
	"github.com/vydata/orchestrator/pkg/store"
	"github.com/vydata/orchestrator/pkg/workflow"
)

// MondayValidation implements spec.md §4.9 node 9: the human-in-the-
// loop gate. It prepares a summary of the run so far, creates a
// Validation Request, posts it to Monday, marks the queue slot as
// waiting (spec.md §4.2), and blocks (cooperatively, via the
// Notification Coordinator) until a human replies or the configured
// timeout elapses, at which point it persists whatever outcome the
// wait produced.
func (d *Deps) MondayValidation(ctx context.Context, s *workflow.State) (workflow.Delta, error) {
	summary := buildCodeSummary(s)
	idempotenceKey := fmt.Sprintf("run-%d-validation", s.DBRunID)

	req, ok := d.Validation.CreateRequest(ctx, store.CreateValidationRequestInput{
		TaskID:          s.DBTaskID,
		RunID:           intPtr(s.DBRunID),
		StepID:          intPtr(s.StepID),
		TaskTitle:       s.Task.Title,
		OriginalRequest: s.Task.Description,
		CodeSummary:     summary,
		GeneratedCode:   s.Results.CodeChanges,
		FilesModified:   s.Results.ModifiedFiles,
		TestResults:     lastTestResultMap(s),
		PRInfo:          s.Results.PRInfo,
		IdempotenceKey:  idempotenceKey,
		RequestedBy:     "orchestrator",
	})
	if !ok || req == nil {
		decision := "error"
		return workflow.Delta{
			HumanDecision: &decision,
			ErrorLogsAdd:  []string{"monday-validation: failed to persist validation request"},
		}, nil
	}

	validationID := req.ID
	if d.Queue != nil && s.Results.QueueID != "" {
		d.Queue.MarkWaitingValidation(s.Task.ExternalID, s.Results.QueueID)
	}

	updateID := ""
	if d.Monday != nil {
		body := fmt.Sprintf("🤖 Task #%d ready for review: %s\n\n%s\n\nReply with your decision (approve / reject / reject with changes).",
			s.Task.ExternalID, s.Task.Title, summary)
		if posted, err := d.Monday.PostUpdate(ctx, s.Task.ExternalID, body); err == nil {
			updateID = posted
		}
	}

	isCommand := !s.IsReactivation || s.Results.TriggerReimplementation
	timeout := d.Config.ValidationTimeouts.Command
	reminder := d.Config.ValidationTimeouts.ReminderDelay
	if !isCommand {
		timeout = d.Config.ValidationTimeouts.Question
		reminder = 0
	}

	lastSuccess := false
	if n := len(s.Results.TestResults); n > 0 {
		lastSuccess = s.Results.TestResults[n-1].Success
	}

	decision, err := d.Notify.Wait(ctx, notify.WaitInput{
		ValidationID:      validationID,
		UpdateID:          updateID,
		TaskTitle:         s.Task.Title,
		TaskID:            s.DBTaskID,
		ExternalID:        s.Task.ExternalID,
		PRURL:             s.Results.PRInfo["url"],
		ReminderDelay:     reminder,
		FinalTimeout:      timeout,
		IsCommand:         isCommand,
		LastTestSucceeded: lastSuccess,
		ErrorLogs:         strings.Join(s.Results.ErrorLogs, "\n"),
		FilesModified:     s.Results.ModifiedFiles,
	})
	if err != nil {
		errMsg := "error"
		return workflow.Delta{
			HumanDecision: &errMsg,
			ErrorLogsAdd:  []string{d.mask("monday-validation: notification wait failed: " + err.Error())},
		}, nil
	}

	if decision.TimedOut {
		_, _ = d.Validation.SubmitResponse(ctx, store.ValidationResponseInput{
			ValidationID:           validationID,
			ResponseStatus:         decision.ResponseStatus,
			ShouldMerge:            decision.ShouldMerge,
			ShouldContinueWorkflow: true,
			Comments:               "auto-resolved after validation timeout",
		})
		result := "timeout"
		shouldMerge := decision.ShouldMerge
		if decision.AutoApproved {
			result = "approved"
		}
		return workflow.Delta{
			HumanDecision: &result,
			ShouldMerge:   &shouldMerge,
			ValidationID:  &validationID,
		}, nil
	}

	resp := decision.Response
	if resp == nil {
		errMsg := "error"
		return workflow.Delta{HumanDecision: &errMsg}, nil
	}

	humanDecision := classifyHumanDecision(resp)
	shouldMerge := resp.ShouldMerge
	rejectionCount := resp.RejectionCount

	delta := workflow.Delta{
		HumanDecision:  &humanDecision,
		ShouldMerge:    &shouldMerge,
		RejectionCount: &rejectionCount,
		ValidationID:   &validationID,
	}
	if resp.ModificationInstructions != "" {
		instr := resp.ModificationInstructions
		delta.ModificationInstructions = &instr
	}

	if humanDecision == "rejected-with-retry" {
		reimplement := true
		delta.ReimplementWithModifications = &reimplement
		if errLog := d.announceReimplementation(ctx, s, resp); errLog != "" {
			delta.ErrorLogsAdd = append(delta.ErrorLogsAdd, errLog)
		} else {
			posted := true
			delta.ReimplementationMessagePosted = &posted
		}
	}

	return delta, nil
}

// announceReimplementation posts the "escalating to reimplementation"
// Monday comment scenario E4 requires, exactly once per rejection —
// the standard completion comment `update-monday` composes at the end
// of the run is guarded by ReimplementationMessagePosted so the two
// never both fire for the same decision (spec.md §9 Open Questions).
// Returns a masked error-log line on failure, empty on success or when
// no Monday client is configured.
func (d *Deps) announceReimplementation(ctx context.Context, s *workflow.State, resp *ent.ValidationResponse) string {
	if d.Monday == nil {
		return ""
	}
	body := fmt.Sprintf("🤖 Task #%d: reimplementing based on your feedback (attempt %d of 3).\n\n%s",
		s.Task.ExternalID, resp.RejectionCount, resp.ModificationInstructions)
	if _, err := d.Monday.PostUpdate(ctx, s.Task.ExternalID, body); err != nil {
		return d.mask("monday-validation: failed to post reimplementation notice: " + err.Error())
	}
	return ""
}

func intPtr(v int) *int { return &v }

func buildCodeSummary(s *workflow.State) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Modified %d file(s): %s\n", len(s.Results.ModifiedFiles), strings.Join(s.Results.ModifiedFiles, ", ")))
	if n := len(s.Results.TestResults); n > 0 {
		last := s.Results.TestResults[n-1]
		b.WriteString(fmt.Sprintf("Tests: %d passed, %d failed, %d skipped (total %d)\n", last.Passed, last.Failed, last.Skipped, last.Total))
	}
	b.WriteString(fmt.Sprintf("Quality score: %d\n", s.Results.QualityScore))
	return b.String()
}

func lastTestResultMap(s *workflow.State) map[string]interface{} {
	if n := len(s.Results.TestResults); n > 0 {
		last := s.Results.TestResults[n-1]
		return map[string]interface{}{
			"success": last.Success,
			"total":   last.Total,
			"passed":  last.Passed,
			"failed":  last.Failed,
			"skipped": last.Skipped,
		}
	}
	return map[string]interface{}{}
}

// classifyHumanDecision maps a persisted ValidationResponse onto the
// graph's human-decision vocabulary (spec.md §4.9's
// `_should-merge-or-debug-after-monday-validation`). A cancelled
// response means the human gave up on the run entirely; an expired one
// (a request that aged out under a different wait than the one that
// just ran, e.g. a resumed/recovered run) is treated the same as a
// coordinator timeout.
func classifyHumanDecision(resp *ent.ValidationResponse) string {
	switch resp.ResponseStatus {
	case validationresponse.ResponseStatusApproved:
		return "approved"
	case validationresponse.ResponseStatusCancelled:
		return "abandoned"
	case validationresponse.ResponseStatusExpired:
		return "timeout"
	case validationresponse.ResponseStatusRejected:
		if resp.ShouldRetryWorkflow && resp.ModificationInstructions != "" {
			return "rejected-with-retry"
		}
		if strings.Contains(strings.ToLower(resp.Comments), "debug") {
			return "debug"
		}
		return "rejected"
	default:
		return "error"
	}
}
