package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunCompleter struct {
	status string
	errMsg string
	called int
}

func (f *fakeRunCompleter) CompleteRun(ctx context.Context, id int, status string, errBlob string) error {
	f.called++
	f.status = status
	f.errMsg = errBlob
	return nil
}

func engineImpls(overrides map[string]NodeFunc) map[string]NodeFunc {
	impls := allImpls()
	for name, fn := range overrides {
		impls[name] = fn
	}
	return impls
}

// E1 — happy path: no tests found, straight through to merge.
func TestEngine_Run_HappyPathReachesMergeAndDone(t *testing.T) {
	impls := engineImpls(map[string]NodeFunc{
		NodeImplementTask: func(ctx context.Context, s *State) (Delta, error) {
			return Delta{ModifiedFilesAdd: []string{"main.txt"}}, nil
		},
		NodeRunTests: func(ctx context.Context, s *State) (Delta, error) {
			return Delta{TestResultAppend: &TestResultRecord{Total: 0}, NoTestsFound: ptr(true)}, nil
		},
		NodeQualityAssuranceAutomation: func(ctx context.Context, s *State) (Delta, error) {
			return Delta{QualityScore: ptr(80)}, nil
		},
		NodeFinalizePR: func(ctx context.Context, s *State) (Delta, error) {
			return Delta{PRInfo: map[string]string{"url": "https://github.com/o/r/pull/18"}}, nil
		},
		NodeMondayValidation: func(ctx context.Context, s *State) (Delta, error) {
			return Delta{HumanDecision: ptr("approved")}, nil
		},
		NodeMergeAfterValidation: func(ctx context.Context, s *State) (Delta, error) {
			return Delta{MergeSuccessful: ptr(true)}, nil
		},
	})

	g, err := NewGraph(impls, 15)
	require.NoError(t, err)

	steps := newFakeStepStore()
	rt := NewRuntime(steps, 2)
	runs := &fakeRunCompleter{}
	eng := NewEngine(g, rt, runs, nil, EngineConfig{MaxDebugAttempts: 2})

	s := NewState("wf1", TaskRef{ExternalID: 5029145622}, "r1")
	s.DBRunID = 1

	err = eng.Run(context.Background(), s, NodePrepareEnvironment)
	require.NoError(t, err)

	assert.Equal(t, 1, runs.called)
	assert.Equal(t, "completed", runs.status)
	assert.True(t, s.Results.MergeSuccessful)
	assert.Contains(t, s.CompletedNodes, NodeMergeAfterValidation)
	assert.Contains(t, s.CompletedNodes, NodeUpdateMonday)
	assert.Empty(t, s.Results.HumanOverride)
}

// E2 — one failing test run triggers exactly one debug-code dispatch
// before tests pass and the run proceeds to QA.
func TestEngine_Run_DebugLoopRunsOnceThenProceeds(t *testing.T) {
	testCalls := 0
	debugCalls := 0

	impls := engineImpls(map[string]NodeFunc{
		NodeRunTests: func(ctx context.Context, s *State) (Delta, error) {
			testCalls++
			if testCalls == 1 {
				return Delta{TestResultAppend: &TestResultRecord{Success: false, Total: 5, Failed: 2}}, nil
			}
			return Delta{TestResultAppend: &TestResultRecord{Success: true, Total: 5, Passed: 5}}, nil
		},
		NodeDebugCode: func(ctx context.Context, s *State) (Delta, error) {
			debugCalls++
			return Delta{DebugAttemptsDelta: 1}, nil
		},
		NodeMondayValidation: func(ctx context.Context, s *State) (Delta, error) {
			return Delta{HumanDecision: ptr("rejected")}, nil
		},
	})

	g, err := NewGraph(impls, 15)
	require.NoError(t, err)

	steps := newFakeStepStore()
	rt := NewRuntime(steps, 2)
	runs := &fakeRunCompleter{}
	eng := NewEngine(g, rt, runs, nil, EngineConfig{MaxDebugAttempts: 2})

	s := NewState("wf2", TaskRef{}, "r2")
	s.DBRunID = 2

	err = eng.Run(context.Background(), s, NodePrepareEnvironment)
	require.NoError(t, err)

	assert.Equal(t, 2, testCalls)
	assert.Equal(t, 1, debugCalls)
	assert.Equal(t, 1, s.Results.DebugAttempts)
}

// P4 — the node-dispatch safety limit terminates a run that would
// otherwise loop forever (debug-code/run-tests never succeeding).
func TestEngine_Run_SafetyLimitTerminatesRunawayDebugLoop(t *testing.T) {
	impls := engineImpls(map[string]NodeFunc{
		NodeRunTests: func(ctx context.Context, s *State) (Delta, error) {
			return Delta{TestResultAppend: &TestResultRecord{Success: false, Total: 5, Failed: 1}}, nil
		},
		NodeDebugCode: func(ctx context.Context, s *State) (Delta, error) {
			return Delta{DebugAttemptsDelta: 1}, nil
		},
	})

	g, err := NewGraph(impls, 15)
	require.NoError(t, err)

	steps := newFakeStepStore()
	rt := NewRuntime(steps, 2)
	runs := &fakeRunCompleter{}
	// max-debug-attempts is generously large so the debug bound itself
	// never kicks in; the safety limit (not the debug bound) must stop
	// the run within a handful of node dispatches.
	eng := NewEngine(g, rt, runs, nil, EngineConfig{MaxDebugAttempts: 1000, MaxNodesSafety: 6})

	s := NewState("wf3", TaskRef{}, "r3")
	s.DBRunID = 3

	err = eng.Run(context.Background(), s, NodePrepareEnvironment)
	require.Error(t, err)
	assert.Equal(t, "failed", runs.status)
	assert.LessOrEqual(t, len(s.CompletedNodes), 6)
}

// Per-node timeout routes to the graceful-shutdown failure path, not
// the retry path (spec.md §5).
func TestEngine_Run_NodeTimeoutFailsRunWithoutRetrying(t *testing.T) {
	calls := 0
	impls := engineImpls(map[string]NodeFunc{
		NodePrepareEnvironment: func(ctx context.Context, s *State) (Delta, error) {
			calls++
			<-ctx.Done()
			return Delta{}, ctx.Err()
		},
	})

	g, err := NewGraph(impls, 15)
	require.NoError(t, err)

	steps := newFakeStepStore()
	rt := NewRuntime(steps, 2)
	runs := &fakeRunCompleter{}
	eng := NewEngine(g, rt, runs, nil, EngineConfig{NodeTimeout: 10 * time.Millisecond, GlobalTimeout: time.Second})

	s := NewState("wf4", TaskRef{}, "r4")
	s.DBRunID = 4

	err = eng.Run(context.Background(), s, NodePrepareEnvironment)
	require.Error(t, err)
	// The node blocks until its own deadline fires; the runtime then
	// retries against an already-expired context, so fn is invoked once
	// per attempt (maxRetries+1) before the node-level deadline check
	// in the Engine classifies the failure as a timeout.
	assert.Equal(t, 3, calls)
	assert.Equal(t, "failed", runs.status)
}
