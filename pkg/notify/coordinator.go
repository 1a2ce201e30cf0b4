// Package notify implements the Notification Coordinator: the
// structured-concurrency two-tier waiter that sits between a
// monday-validation node and a human reviewer. It makes the wait
// bounded and escalating without holding a database connection or a
// goroutine-per-poll leak, grounded on the teacher's worker pool
// stop-channel discipline (pkg/queue/worker.go's select-on-stopCh
// sleep) and the nil-safe pkg/slack.Service pattern.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/vydata/orchestrator/ent"
	"github.com/vydata/orchestrator/pkg/slack"
)

// ResponsePoller is the subset of pkg/store.ValidationStore the
// coordinator needs. Accepting an interface here (rather than the
// concrete store) keeps this package testable without a database.
type ResponsePoller interface {
	WaitForResponse(ctx context.Context, validationID string, timeout time.Duration) (*ent.ValidationResponse, error)
}

// Decision is the outcome of a Wait call. When Response is non-nil a
// human (or an earlier wait round) already recorded a terminal
// response and the caller need not persist anything further. When
// Response is nil, TimedOut is true and the caller must persist the
// policy outcome itself (ResponseStatus/ShouldMerge below) via the
// Validation Store — the coordinator only decides, it never writes.
type Decision struct {
	// Response is the human-submitted response, when one arrived
	// before FinalTimeout.
	Response *ent.ValidationResponse

	// TimedOut is true whenever final-timeout elapsed before a human
	// reply arrived.
	TimedOut bool

	// AutoApproved is true when TimedOut and the auto-approve policy
	// (last test passed, no error logs, files were modified) permitted
	// approval.
	AutoApproved bool

	// ResponseStatus and ShouldMerge are the values the caller should
	// pass to ValidationStore.SubmitResponse when TimedOut is true.
	ResponseStatus string
	ShouldMerge    bool
}

// WaitInput carries everything a single wait needs. Grounded on
// spec.md §4.7's "Inputs at each wait" list.
type WaitInput struct {
	ValidationID  string
	UpdateID      string
	SlackUserID   string
	SlackEmail    string
	TaskTitle     string
	TaskID        int
	ExternalID    int
	PRURL         string
	ReminderDelay time.Duration // zero disables the reminder (question-type interactions)
	FinalTimeout  time.Duration
	IsCommand     bool

	// LastTestSucceeded, ErrorLogs and FilesModified drive the
	// auto-approve policy applied on timeout (spec.md §4.7 step 4).
	LastTestSucceeded bool
	ErrorLogs         string
	FilesModified     []string
}

// Coordinator runs the two-tier wait. The zero value is unusable;
// construct with New.
type Coordinator struct {
	store  ResponsePoller
	slack  *slack.Service
	logger *slog.Logger
}

// New builds a Coordinator. slackSvc may be nil (nil-safe, matching
// pkg/slack.Service's own convention) when Slack is not configured.
func New(store ResponsePoller, slackSvc *slack.Service) *Coordinator {
	return &Coordinator{
		store:  store,
		slack:  slackSvc,
		logger: slog.Default().With("component", "notify-coordinator"),
	}
}

// Wait runs the full protocol: an immediate "waiting" notification for
// command-type interactions, a reminder fired at most once at
// ReminderDelay, and a poll for the human response bounded by
// FinalTimeout. The reminder timer is always cancelled on exit,
// regardless of which branch completes first.
func (c *Coordinator) Wait(ctx context.Context, in WaitInput) (Decision, error) {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if in.IsCommand && in.SlackUserID != "" {
		c.notifyWaiting(waitCtx, in)
	}

	reminderDone := make(chan struct{})
	if in.ReminderDelay > 0 {
		go c.runReminder(waitCtx, in, reminderDone)
	} else {
		close(reminderDone)
	}

	resp, err := c.store.WaitForResponse(waitCtx, in.ValidationID, in.FinalTimeout)
	cancel() // stop the reminder goroutine before we return
	<-reminderDone

	if err == nil && resp != nil {
		return Decision{Response: resp}, nil
	}

	// A nil error with a nil response is the store's own timeout/expiry
	// contract (pkg/store.ValidationStore.WaitForResponse returns
	// (nil, nil) when the poll loop runs out the clock); any other
	// WaitForResponse failure (including a deadline exceeded context)
	// is treated the same way at the coordinator layer — the policy
	// below decides whether that timeout becomes an approval.
	return c.applyTimeoutPolicy(in), nil
}

// notifyWaiting posts the immediate "a human needs to look at this"
// message. Best-effort: failures are logged by the Slack service
// itself and never propagate here.
func (c *Coordinator) notifyWaiting(ctx context.Context, in WaitInput) {
	if c.slack == nil {
		return
	}
	c.slack.NotifyValidationWaiting(ctx, slack.ValidationWaitingInput{
		ValidationID: in.ValidationID,
		SlackUserID:  in.SlackUserID,
		SlackEmail:   in.SlackEmail,
		TaskTitle:    in.TaskTitle,
		TaskID:       in.TaskID,
		PRURL:        in.PRURL,
	})
}

// runReminder fires the reminder at most once, at ReminderDelay, unless
// ctx is cancelled first (a reply arrived or the run was cancelled).
func (c *Coordinator) runReminder(ctx context.Context, in WaitInput, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(in.ReminderDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	if c.slack == nil {
		return
	}
	c.slack.NotifyValidationReminder(context.Background(), slack.ValidationReminderInput{
		ValidationID: in.ValidationID,
		SlackUserID:  in.SlackUserID,
		SlackEmail:   in.SlackEmail,
		TaskTitle:    in.TaskTitle,
		TaskID:       in.TaskID,
		PRURL:        in.PRURL,
	})
}

// applyTimeoutPolicy implements spec.md §4.7 step 4: approve only if
// the last test run succeeded, no error logs were recorded, and at
// least one file was modified; otherwise record an explicit timeout.
func (c *Coordinator) applyTimeoutPolicy(in WaitInput) Decision {
	approve := in.LastTestSucceeded && in.ErrorLogs == "" && len(in.FilesModified) > 0

	status := "expired"
	if approve {
		status = "approved"
	}

	c.logger.Info("validation wait timed out",
		"validation_id", in.ValidationID,
		"auto_approved", approve,
		"last_test_succeeded", in.LastTestSucceeded,
		"had_error_logs", in.ErrorLogs != "",
		"files_modified_count", len(in.FilesModified))

	if c.slack != nil {
		c.slack.NotifyValidationTimeout(context.Background(), slack.ValidationTimeoutInput{
			ValidationID: in.ValidationID,
			TaskTitle:    in.TaskTitle,
			TaskID:       in.TaskID,
			AutoApproved: approve,
		})
	}

	return Decision{
		TimedOut:       true,
		AutoApproved:   approve,
		ResponseStatus: status,
		ShouldMerge:    approve,
	}
}
