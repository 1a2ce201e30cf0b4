// Package queue implements the per-external-id Queue Manager (spec.md
// §4.2) and the bounded worker pool that dispatches admitted requests
// into the Workflow Engine. Grounded on the teacher's WorkerPool/Worker
// split (pkg/queue/worker.go's claim-and-execute loop, pool.go's
// graceful Start/Stop and health reporting) but replacing the
// teacher's DB-polling AlertSession claim (`FOR UPDATE SKIP LOCKED`)
// with an in-process per-external-id map, since this domain's Run
// table has no queue-of-pending-rows to poll — admission is decided
// before a Run row ever exists (spec.md §9: "the Queue Manager's
// per-external-id map (accessed under a lock)").
package queue

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for pool-level admission/capacity failures.
var (
	// ErrAtCapacity indicates the worker pool's bounded dispatch
	// channel is full — the caller should retry submission.
	ErrAtCapacity = errors.New("at capacity")

	// ErrShuttingDown indicates Submit was called after Stop.
	ErrShuttingDown = errors.New("queue: shutting down")
)

// AdmitStatus is the outcome of a Queue Manager admission decision.
type AdmitStatus string

// AdmitStatus values, per spec.md §4.2.
const (
	AdmitStatusAdmitted          AdmitStatus = "admitted"
	AdmitStatusQueued            AdmitStatus = "queued"
	AdmitStatusRejectedDuplicate AdmitStatus = "rejected-duplicate"
)

// Request is one admission candidate: a workflow run that wants the
// external-id's slot. Spec is a byte-comparable summary of the
// request's content (e.g. a hash of title+description+task-type),
// used to detect a duplicate resubmission of the active request.
type Request struct {
	ExternalID int
	QueueID    string
	Spec       string

	// Dispatch is the closure the worker pool invokes once this
	// request is handed the slot — it owns opening the Run and
	// driving the Workflow Engine to completion.
	Dispatch func(ctx context.Context) error
}

// Executor is the subset of *workflow.Engine-shaped behavior the pool
// needs; kept as an interface so pool_test.go can substitute a fake
// without pulling in the real graph/runtime/store stack.
type Executor interface {
	Run(ctx context.Context, req Request) error
}

// WorkerHealth reports one dispatch worker's current activity.
type WorkerHealth struct {
	ID                string    `json:"id"`
	Busy              bool      `json:"busy"`
	CurrentExternalID int       `json:"current_external_id,omitempty"`
	JobsProcessed     int       `json:"jobs_processed"`
	LastActivity      time.Time `json:"last_activity"`
}

// PoolHealth reports the worker pool's aggregate state.
type PoolHealth struct {
	PodID            string         `json:"pod_id"`
	ActiveWorkers    int            `json:"active_workers"`
	TotalWorkers     int            `json:"total_workers"`
	QueueDepth       int            `json:"queue_depth"`
	WorkerStats      []WorkerHealth `json:"worker_stats"`
	LastOrphanScan   time.Time      `json:"last_orphan_scan"`
	OrphansRecovered int            `json:"orphans_recovered"`
}
