package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/vydata/orchestrator/pkg/events"
)

// RunCompleter is the subset of *store.RunStore the Engine needs to
// close out a run. Accepted as an interface so the Engine is testable
// without a database, matching the teacher's preference for narrow
// interfaces at package boundaries (pkg/workflow.StepStore).
type RunCompleter interface {
	CompleteRun(ctx context.Context, id int, status string, errBlob string) error
}

// EngineConfig bounds a single Engine-driven run. Callers construct it
// from config.LimitsConfig at wiring time.
type EngineConfig struct {
	GlobalTimeout    time.Duration
	NodeTimeout      time.Duration
	MaxNodesSafety   int
	MaxDebugAttempts int
}

func (c EngineConfig) globalTimeout() time.Duration {
	if c.GlobalTimeout > 0 {
		return c.GlobalTimeout
	}
	return time.Hour
}

func (c EngineConfig) nodeTimeout() time.Duration {
	if c.NodeTimeout > 0 {
		return c.NodeTimeout
	}
	return 10 * time.Minute
}

func (c EngineConfig) maxNodesSafety() int {
	if c.MaxNodesSafety > 0 {
		return c.MaxNodesSafety
	}
	return 50
}

// Engine drives a Graph to completion for a single Run: it dispatches
// nodes through a Runtime (step bookkeeping and per-node retry),
// enforces the global and per-node timeouts, publishes node-lifecycle
// events onto an events.Bus, and persists the run's terminal outcome.
// Grounded on the teacher's worker/session split (pkg/queue/pool.go
// claims and dispatches a job; the session owner drives the lifecycle
// to completion) generalized from a fixed linear stage chain to this
// package's cyclic Graph.
type Engine struct {
	graph   *Graph
	runtime *Runtime
	runs    RunCompleter
	bus     *events.Bus
	cfg     EngineConfig
}

// NewEngine constructs an Engine. bus may be nil, in which case event
// publication is skipped — the same nil-safe convention used by
// pkg/slack.Service and pkg/vectorstore.Store.
func NewEngine(graph *Graph, runtime *Runtime, runs RunCompleter, bus *events.Bus, cfg EngineConfig) *Engine {
	return &Engine{graph: graph, runtime: runtime, runs: runs, bus: bus, cfg: cfg}
}

// Run drives s from startNode through the graph until a terminal node,
// the global timeout, or the node-dispatch safety limit is reached. In
// recovery mode, startNode is expected to be the first node after the
// last one recorded in s.CompletedNodes — the caller (the Orchestrator,
// reading Step rows from the Persistence Store) resolves that before
// calling Run; the Engine itself does not re-derive it.
//
// Run always calls RunCompleter.CompleteRun exactly once before
// returning, whatever the outcome.
func (e *Engine) Run(ctx context.Context, s *State, startNode string) error {
	s.SetMaxDebugAttempts(e.cfg.MaxDebugAttempts)
	maxNodes := e.cfg.maxNodesSafety()

	runCtx, cancel := context.WithTimeout(ctx, e.cfg.globalTimeout())
	defer cancel()

	node := startNode
	finalStatus := "completed"
	var finalErr string

loop:
	for {
		if node == END {
			break loop
		}
		if len(s.CompletedNodes) >= maxNodes {
			e.publish(s, events.KindError, node, "", "node dispatch safety limit reached")
			finalStatus, finalErr = "failed", "node dispatch safety limit reached"
			break loop
		}

		select {
		case <-runCtx.Done():
			e.publish(s, events.KindTimeout, node, "", "global timeout exceeded")
			finalStatus, finalErr = "failed", "global timeout exceeded"
			break loop
		default:
		}

		impl := e.graph.Impl(node)
		if impl == nil {
			finalStatus, finalErr = "failed", fmt.Sprintf("no implementation registered for node %q", node)
			e.publish(s, events.KindError, node, "", finalErr)
			break loop
		}

		e.publish(s, events.KindStep, node, events.PhaseEntered, "")

		nodeCtx, nodeCancel := context.WithTimeout(runCtx, e.cfg.nodeTimeout())
		runErr := e.runtime.Run(nodeCtx, s, node, impl)
		timedOut := nodeCtx.Err() == context.DeadlineExceeded
		nodeCancel()

		if runErr != nil {
			if timedOut {
				e.publish(s, events.KindTimeout, node, "", "node timeout exceeded")
				finalStatus, finalErr = "failed", fmt.Sprintf("node %s timed out: %v", node, runErr)
				break loop
			}
			e.publish(s, events.KindError, node, "", runErr.Error())
			finalStatus, finalErr = "failed", runErr.Error()
			break loop
		}

		e.publish(s, events.KindStep, node, events.PhaseCompleted, "")
		node = e.graph.Next(node, s)
	}

	s.CompletedAt = time.Now().UTC()
	s.Status = finalStatus
	e.publish(s, events.KindTerminal, node, "", finalErr)

	if e.runs != nil && s.DBRunID != 0 {
		if cerr := e.runs.CompleteRun(context.Background(), s.DBRunID, finalStatus, finalErr); cerr != nil {
			return fmt.Errorf("complete run %d: %w", s.DBRunID, cerr)
		}
	}

	if finalErr != "" {
		return fmt.Errorf("run %s terminated: %s", s.RunID, finalErr)
	}
	return nil
}

func (e *Engine) publish(s *State, kind events.Kind, node string, phase events.Phase, errMsg string) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(events.Event{
		Kind:  kind,
		RunID: s.DBRunID,
		Node:  node,
		Phase: phase,
		Error: errMsg,
	})
}
