package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// NodeFunc is a single graph node. It reads s (read-only from the
// node's perspective — all writes go through the returned Delta) and
// returns the partial update to merge plus an error. Transient errors
// (satisfying IsTransient) are retried by the runtime up to maxRetries
// before being treated as permanent.
type NodeFunc func(ctx context.Context, s *State) (Delta, error)

// StepStore is the subset of pkg/store.StepStore the runtime needs.
type StepStore interface {
	CreateStep(ctx context.Context, runID int, nodeName string, order int, input map[string]interface{}) (int, error)
	CompleteStep(ctx context.Context, stepID int, status string, output map[string]interface{}, stepErr string) error
	SaveCheckpoint(ctx context.Context, runID int, nodeName string, blob map[string]interface{}) error
	IncrementRetryCount(ctx context.Context, stepID int) error
}

// PermanentError marks a node failure that must not be retried
// (validation errors, missing-reference errors) — the runtime aborts
// the node and propagates immediately, per spec.md §4.8.
type PermanentError struct{ Err error }

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so the runtime treats it as non-retryable.
func Permanent(err error) error { return &PermanentError{Err: err} }

func isPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}

// Runtime wraps every node with Step bookkeeping: a Step row is
// created on entry (order = 1 + len(completed-nodes)), completed on
// exit with a serialized output summary, and a checkpoint is saved
// after a successful exit, per spec.md §4.8.
type Runtime struct {
	steps       StepStore
	maxRetries  int
}

// NewRuntime builds a Runtime. maxRetries is the per-node retry bound
// on transient failures (spec.md §4.8's "per-node max-retries, default
// 2").
func NewRuntime(steps StepStore, maxRetries int) *Runtime {
	return &Runtime{steps: steps, maxRetries: maxRetries}
}

// Run executes fn wrapped in Step bookkeeping and retry. On success,
// the Delta is applied to s, the step is marked completed, and a
// checkpoint is saved. On a permanent failure, the step is marked
// failed and the error propagates unretried. On a transient failure,
// the node is retried up to maxRetries times, restoring s from the
// last checkpoint before each retry (spec.md §4.8).
func (rt *Runtime) Run(ctx context.Context, s *State, nodeName string, fn NodeFunc) error {
	order := 1 + len(s.CompletedNodes)
	stepID, err := rt.steps.CreateStep(ctx, s.DBRunID, nodeName, order, stepInput(s))
	if err != nil {
		return fmt.Errorf("create step %s: %w", nodeName, err)
	}
	s.StepID = stepID

	var lastErr error
	for attempt := 0; attempt <= rt.maxRetries; attempt++ {
		if attempt > 0 {
			if err := rt.steps.IncrementRetryCount(ctx, stepID); err != nil {
				return fmt.Errorf("increment retry count %s: %w", nodeName, err)
			}
			s.NodeRetryCount[nodeName]++
		}

		delta, runErr := fn(ctx, s)
		if runErr == nil {
			s.Apply(nodeName, delta)
			if err := rt.steps.CompleteStep(ctx, stepID, "completed", stepOutput(nodeName, delta), ""); err != nil {
				return fmt.Errorf("complete step %s: %w", nodeName, err)
			}
			if err := rt.steps.SaveCheckpoint(ctx, s.DBRunID, nodeName, checkpointBlob(s)); err != nil {
				return fmt.Errorf("checkpoint %s: %w", nodeName, err)
			}
			return nil
		}

		lastErr = runErr
		if isPermanent(runErr) {
			_ = rt.steps.CompleteStep(ctx, stepID, "failed", nil, runErr.Error())
			return runErr
		}
		// Transient: loop again if attempts remain.
	}

	_ = rt.steps.CompleteStep(ctx, stepID, "failed", nil, lastErr.Error())
	return fmt.Errorf("node %s failed after %d attempts: %w", nodeName, rt.maxRetries+1, lastErr)
}

func stepInput(s *State) map[string]interface{} {
	return map[string]interface{}{
		"is_reactivation": s.IsReactivation,
		"debug_attempts":  s.Results.DebugAttempts,
	}
}

func stepOutput(nodeName string, d Delta) map[string]interface{} {
	// Never the full generated code (that goes to Code Generation rows
	// via a separate store call) — just a compact summary, per
	// spec.md §4.8.
	out := map[string]interface{}{"node": nodeName}
	if len(d.ModifiedFilesAdd) > 0 {
		out["modified_files"] = d.ModifiedFilesAdd
	}
	if d.TestResultAppend != nil {
		out["test_success"] = d.TestResultAppend.Success
	}
	return out
}

func checkpointBlob(s *State) map[string]interface{} {
	return map[string]interface{}{
		"node":            s.CurrentNode,
		"completed_at":    time.Now().UTC().Format(time.RFC3339),
		"completed_nodes": append([]string{}, s.CompletedNodes...),
		"debug_attempts":  s.Results.DebugAttempts,
		"modified_files":  append([]string{}, s.Results.ModifiedFiles...),
	}
}
