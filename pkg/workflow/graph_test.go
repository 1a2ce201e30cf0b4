package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allImpls() map[string]NodeFunc {
	impls := map[string]NodeFunc{}
	for _, name := range []string{
		NodePrepareEnvironment, NodeAnalyzeRequirements, NodeImplementTask,
		NodeRunTests, NodeDebugCode, NodeQualityAssuranceAutomation,
		NodeBrowserQualityAssurance, NodeFinalizePR, NodeMondayValidation,
		NodeOpenAIDebug, NodeMergeAfterValidation, NodeUpdateMonday,
	} {
		impls[name] = func(ctx context.Context, s *State) (Delta, error) { return Delta{}, nil }
	}
	return impls
}

func TestNewGraph_FailsFastOnMissingNodeImplementation(t *testing.T) {
	impls := allImpls()
	delete(impls, NodeDebugCode)
	_, err := NewGraph(impls, 15)
	require.Error(t, err)
}

func TestGraph_LinearEdges(t *testing.T) {
	g, err := NewGraph(allImpls(), 15)
	require.NoError(t, err)

	assert.Equal(t, NodeAnalyzeRequirements, g.Next(NodePrepareEnvironment, NewState("wf", TaskRef{}, "r1")))
	assert.Equal(t, NodeImplementTask, g.Next(NodeAnalyzeRequirements, NewState("wf", TaskRef{}, "r1")))
	assert.Equal(t, NodeBrowserQualityAssurance, g.Next(NodeQualityAssuranceAutomation, NewState("wf", TaskRef{}, "r1")))
	assert.Equal(t, NodeFinalizePR, g.Next(NodeBrowserQualityAssurance, NewState("wf", TaskRef{}, "r1")))
	assert.Equal(t, NodeMondayValidation, g.Next(NodeFinalizePR, NewState("wf", TaskRef{}, "r1")))
	assert.Equal(t, NodeUpdateMonday, g.Next(NodeMergeAfterValidation, NewState("wf", TaskRef{}, "r1")))
	assert.Equal(t, END, g.Next(NodeUpdateMonday, NewState("wf", TaskRef{}, "r1")))
}

// E1 — happy path: no tests found routes straight through to QA.
func TestShouldDebug_NoTestsFoundContinues(t *testing.T) {
	s := NewState("wf", TaskRef{}, "r1")
	s.Apply(NodeRunTests, Delta{TestResultAppend: &TestResultRecord{Total: 0}})
	assert.Equal(t, "continue", shouldDebug(s))
}

// E2 — a single failing test run routes to debug, then succeeds.
func TestShouldDebug_FailureRoutesToDebugThenSucceeds(t *testing.T) {
	g, err := NewGraph(allImpls(), 15)
	require.NoError(t, err)

	s := NewState("wf", TaskRef{}, "r1")
	s.SetMaxDebugAttempts(2)
	s.Apply(NodeRunTests, Delta{TestResultAppend: &TestResultRecord{Success: false, Total: 5, Failed: 2}})
	assert.Equal(t, NodeDebugCode, g.Next(NodeRunTests, s))

	s.Apply(NodeDebugCode, Delta{DebugAttemptsDelta: 1})
	assert.Equal(t, 1, s.Results.DebugAttempts)

	s.Apply(NodeRunTests, Delta{TestResultAppend: &TestResultRecord{Success: true, Total: 5, Passed: 5}})
	assert.Equal(t, NodeQualityAssuranceAutomation, g.Next(NodeRunTests, s))
}

// E3 — debug bound exceeded: two consecutive failures exhaust
// max-debug-attempts and routing falls through to "continue" (I-6).
func TestShouldDebug_BoundExceededFallsThroughToContinue(t *testing.T) {
	s := NewState("wf", TaskRef{}, "r1")
	s.SetMaxDebugAttempts(2)

	s.Apply(NodeRunTests, Delta{TestResultAppend: &TestResultRecord{Success: false, Total: 5, Failed: 2}})
	assert.Equal(t, "debug", shouldDebug(s))
	s.Apply(NodeDebugCode, Delta{DebugAttemptsDelta: 1})

	s.Apply(NodeRunTests, Delta{TestResultAppend: &TestResultRecord{Success: false, Total: 5, Failed: 1}})
	assert.Equal(t, "debug", shouldDebug(s))
	s.Apply(NodeDebugCode, Delta{DebugAttemptsDelta: 1})

	s.Apply(NodeRunTests, Delta{TestResultAppend: &TestResultRecord{Success: false, Total: 5, Failed: 1}})
	require.Equal(t, 2, s.Results.DebugAttempts)
	assert.Equal(t, "continue", shouldDebug(s))
	assert.Contains(t, s.Results.ErrorLogs, "Tests échoués après 2 tentatives de debug")

	// A second router call after the bound is already exhausted must not
	// duplicate the note.
	assert.Equal(t, "continue", shouldDebug(s))
	assert.Len(t, s.Results.ErrorLogs, 1)
}

// E4 — rejection with retry routes to implement and sets the
// reimplementation flags the implement-task node reads.
func TestShouldMergeOrDebug_RejectedWithRetryRoutesToImplement(t *testing.T) {
	g, err := NewGraph(allImpls(), 15)
	require.NoError(t, err)

	s := NewState("wf", TaskRef{}, "r1")
	s.Apply(NodeMondayValidation, Delta{
		HumanDecision:                ptr("rejected-with-retry"),
		RejectionCount:               ptr(1),
		ReimplementWithModifications: ptr(true),
		ModificationInstructions:     ptr("Use UTF-8 BOM"),
	})

	assert.Equal(t, NodeImplementTask, g.Next(NodeMondayValidation, s))
	assert.True(t, s.Results.ReimplementWithModifications)
	assert.Equal(t, "Use UTF-8 BOM", s.Results.ModificationInstructions)
}

func TestShouldMergeOrDebug_RejectedWithRetryExhaustedGoesUpdateOnly(t *testing.T) {
	s := NewState("wf", TaskRef{}, "r1")
	s.Apply(NodeMondayValidation, Delta{
		HumanDecision:  ptr("rejected-with-retry"),
		RejectionCount: ptr(3),
	})
	assert.Equal(t, "update-only", shouldMergeOrDebugAfterValidation(s))
}

// E5 — timeout auto-approve normalizes the legacy "approve_auto" label
// and still routes to merge.
func TestShouldMergeOrDebug_LegacyApproveAutoNormalizesToMerge(t *testing.T) {
	s := NewState("wf", TaskRef{}, "r1")
	s.Apply(NodeMondayValidation, Delta{HumanDecision: ptr("approve_auto")})
	assert.Equal(t, "merge", shouldMergeOrDebugAfterValidation(s))
}

func TestShouldMergeOrDebug_ApprovedWithOpenIssuesStillMergesButRecordsOverride(t *testing.T) {
	s := NewState("wf", TaskRef{}, "r1")
	s.Apply(NodeRunTests, Delta{TestResultAppend: &TestResultRecord{Success: false, Total: 5, Failed: 1}})
	s.Apply(NodeMondayValidation, Delta{HumanDecision: ptr("approved")})

	assert.Equal(t, "merge", shouldMergeOrDebugAfterValidation(s))
	assert.Contains(t, s.Results.HumanOverride, "last test run failed")
	assert.Contains(t, s.Results.HumanOverride, "pull request missing")
}

func TestShouldMergeOrDebug_ApprovedCleanRunMergesWithoutOverride(t *testing.T) {
	s := NewState("wf", TaskRef{}, "r1")
	s.Apply(NodeRunTests, Delta{TestResultAppend: &TestResultRecord{Success: true, Total: 5, Passed: 5}})
	s.Apply(NodeFinalizePR, Delta{PRInfo: map[string]string{"url": "https://github.com/x/y/pull/18"}})
	s.Apply(NodeQualityAssuranceAutomation, Delta{QualityScore: ptr(80)})
	s.Apply(NodeMondayValidation, Delta{HumanDecision: ptr("approved")})

	assert.Equal(t, "merge", shouldMergeOrDebugAfterValidation(s))
	assert.Empty(t, s.Results.HumanOverride)
}

func TestShouldMergeOrDebug_AbandonedEnds(t *testing.T) {
	s := NewState("wf", TaskRef{}, "r1")
	s.Apply(NodeMondayValidation, Delta{HumanDecision: ptr("abandoned")})
	assert.Equal(t, "end", shouldMergeOrDebugAfterValidation(s))
}

func TestShouldMergeOrDebug_RejectedGoesUpdateOnly(t *testing.T) {
	s := NewState("wf", TaskRef{}, "r1")
	s.Apply(NodeMondayValidation, Delta{HumanDecision: ptr("rejected")})
	assert.Equal(t, "update-only", shouldMergeOrDebugAfterValidation(s))
}

func TestShouldContinueAfterOpenAIDebug(t *testing.T) {
	s := NewState("wf", TaskRef{}, "r1")
	s.Apply(NodeOpenAIDebug, Delta{TriggerReimplementation: ptr(true)})
	assert.Equal(t, "implement", shouldContinueAfterOpenAIDebug(s))

	s2 := NewState("wf", TaskRef{}, "r1")
	s2.Apply(NodeOpenAIDebug, Delta{DebugLimitReached: ptr(true)})
	assert.Equal(t, "update-only", shouldContinueAfterOpenAIDebug(s2))

	s3 := NewState("wf", TaskRef{}, "r1")
	s3.Apply(NodeOpenAIDebug, Delta{OpenAIDebugCompleted: ptr(true)})
	assert.Equal(t, "retest", shouldContinueAfterOpenAIDebug(s3))
}

// P4 — the safety limit terminates the graph regardless of routing.
func TestGraph_Next_SafetyLimitForcesEnd(t *testing.T) {
	g, err := NewGraph(allImpls(), 2)
	require.NoError(t, err)

	s := NewState("wf", TaskRef{}, "r1")
	s.CompletedNodes = []string{NodePrepareEnvironment, NodeAnalyzeRequirements}
	assert.Equal(t, END, g.Next(NodeAnalyzeRequirements, s))
}
