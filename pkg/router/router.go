// Package router implements the Update Router: given a classified
// inbound comment, it decides whether a direct reply suffices or a
// workflow Run must be (re)activated. Grounded directly on spec.md
// §4.5 — there is no teacher precedent for this exact decision beyond
// the general "classify then dispatch" shape of a controller.
package router

import "github.com/vydata/orchestrator/pkg/intent"

// Outcome is what the router decided to do with an inbound comment.
type Outcome string

const (
	// OutcomeQuestionAnswered means a direct reply was posted and no
	// Run was created.
	OutcomeQuestionAnswered Outcome = "question-answered"

	// OutcomeCommandWorkflow means a Run was (re)activated.
	OutcomeCommandWorkflow Outcome = "command-workflow"
)

// confidenceThreshold is the bar a direct-answer classification must
// clear, per spec.md §4.5 ("confidence > 0.7").
const confidenceThreshold = 0.7

// ReactivationRequest is what Route produces when the classification
// requires a workflow: a synthesized overlay of extracted requirements
// onto the original task.
type ReactivationRequest struct {
	Title        string
	Description  string
	TaskType     string
	Priority     string
	Files        []string
	TriggeredBy  string // original update-id
	DispatchPrio int
}

// OriginalTask is the subset of Task state the router needs to
// synthesize a reactivation request when the classifier didn't extract
// a full replacement.
type OriginalTask struct {
	Title       string
	Description string
	TaskType    string
	Priority    string
}

// Route decides the outcome for a classified comment. updateID is the
// external comment id that triggered this classification, threaded
// into the reactivation request as TriggeredBy.
func Route(c intent.Classification, original OriginalTask, updateID string) (Outcome, *ReactivationRequest) {
	if !c.RequiresWorkflow && c.Confidence > confidenceThreshold {
		return OutcomeQuestionAnswered, nil
	}

	req := &ReactivationRequest{
		Title:       original.Title,
		Description: original.Description,
		TaskType:    original.TaskType,
		Priority:    original.Priority,
		TriggeredBy: updateID,
	}

	if er := c.ExtractedRequirements; er != nil {
		if er.Title != "" {
			req.Title = er.Title
		}
		if er.Description != "" {
			req.Description = er.Description
		}
		if er.TaskType != "" {
			req.TaskType = er.TaskType
		}
		if er.Priority != "" {
			req.Priority = er.Priority
		}
		req.Files = er.Files
	}

	req.DispatchPrio = PriorityForLabel(req.Priority)
	return OutcomeCommandWorkflow, req
}

// PriorityForLabel maps a TaskPriority label ({urgent,high,medium,low})
// to its worker-pool dispatch priority, used once extracted
// requirements include an explicit priority override.
func PriorityForLabel(label string) int {
	switch label {
	case "urgent":
		return 9
	case "high":
		return 7
	case "low":
		return 3
	default:
		return 5
	}
}
