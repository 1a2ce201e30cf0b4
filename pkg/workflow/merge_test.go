package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestState_Apply_ExtendsAIMessagesAndErrorLogs(t *testing.T) {
	s := NewState("wf", TaskRef{}, "r1")
	s.Apply("implement-task", Delta{AIMessagesAdd: []string{"m1"}})
	s.Apply("run-tests", Delta{AIMessagesAdd: []string{"m2"}, ErrorLogsAdd: []string{"e1"}})

	assert.Equal(t, []string{"m1", "m2"}, s.Results.AIMessages)
	assert.Equal(t, []string{"e1"}, s.Results.ErrorLogs)
	assert.Equal(t, []string{"implement-task", "run-tests"}, s.CompletedNodes)
}

func TestState_Apply_UnionsModifiedFilesWithoutDuplicates(t *testing.T) {
	s := NewState("wf", TaskRef{}, "r1")
	s.Apply("implement-task", Delta{ModifiedFilesAdd: []string{"a.go", "b.go"}})
	s.Apply("debug-code", Delta{ModifiedFilesAdd: []string{"b.go", "c.go", ""}})

	assert.ElementsMatch(t, []string{"a.go", "b.go", "c.go"}, s.Results.ModifiedFiles)
}

func TestState_Apply_AppendsTestResults(t *testing.T) {
	s := NewState("wf", TaskRef{}, "r1")
	s.Apply("run-tests", Delta{TestResultAppend: &TestResultRecord{Success: false, Total: 5, Failed: 2}})
	s.Apply("run-tests", Delta{TestResultAppend: &TestResultRecord{Success: true, Total: 5}})

	assert.Len(t, s.Results.TestResults, 2)
	assert.True(t, s.Results.TestResults[1].Success)
}

func TestState_Apply_LaterScalarWinsOnCollision(t *testing.T) {
	s := NewState("wf", TaskRef{}, "r1")
	s.Apply("monday-validation", Delta{HumanDecision: ptr("rejected")})
	s.Apply("openai-debug", Delta{HumanDecision: ptr("approved")})

	assert.Equal(t, "approved", s.Results.HumanDecision)
}

func TestState_Apply_DebugAttemptsAccumulate(t *testing.T) {
	s := NewState("wf", TaskRef{}, "r1")
	s.Apply("debug-code", Delta{DebugAttemptsDelta: 1})
	s.Apply("debug-code", Delta{DebugAttemptsDelta: 1})

	assert.Equal(t, 2, s.Results.DebugAttempts)
}
