package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStepStore struct {
	nextID       int
	completed    []string
	failed       []string
	retries      map[int]int
	checkpoints  []string
}

func newFakeStepStore() *fakeStepStore {
	return &fakeStepStore{retries: map[int]int{}}
}

func (f *fakeStepStore) CreateStep(ctx context.Context, runID int, nodeName string, order int, input map[string]interface{}) (int, error) {
	f.nextID++
	return f.nextID, nil
}

func (f *fakeStepStore) CompleteStep(ctx context.Context, stepID int, status string, output map[string]interface{}, stepErr string) error {
	if status == "completed" {
		f.completed = append(f.completed, status)
	} else {
		f.failed = append(f.failed, status)
	}
	return nil
}

func (f *fakeStepStore) SaveCheckpoint(ctx context.Context, runID int, nodeName string, blob map[string]interface{}) error {
	f.checkpoints = append(f.checkpoints, nodeName)
	return nil
}

func (f *fakeStepStore) IncrementRetryCount(ctx context.Context, stepID int) error {
	f.retries[stepID]++
	return nil
}

func TestRuntime_Run_AppliesDeltaAndCheckpointsOnSuccess(t *testing.T) {
	steps := newFakeStepStore()
	rt := NewRuntime(steps, 2)
	s := NewState("wf", TaskRef{}, "r1")
	s.DBRunID = 1

	err := rt.Run(context.Background(), s, "implement-task", func(ctx context.Context, s *State) (Delta, error) {
		return Delta{ModifiedFilesAdd: []string{"main.txt"}}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"main.txt"}, s.Results.ModifiedFiles)
	assert.Equal(t, []string{"implement-task"}, s.CompletedNodes)
	assert.Len(t, steps.completed, 1)
	assert.Equal(t, []string{"implement-task"}, steps.checkpoints)
}

type transientErr struct{}

func (transientErr) Error() string { return "transient" }

func TestRuntime_Run_RetriesTransientFailureThenSucceeds(t *testing.T) {
	steps := newFakeStepStore()
	rt := NewRuntime(steps, 2)
	s := NewState("wf", TaskRef{}, "r1")
	s.DBRunID = 1

	calls := 0
	err := rt.Run(context.Background(), s, "run-tests", func(ctx context.Context, s *State) (Delta, error) {
		calls++
		if calls < 2 {
			return Delta{}, transientErr{}
		}
		return Delta{TestResultAppend: &TestResultRecord{Success: true}}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, steps.retries[1])
}

func TestRuntime_Run_PermanentFailurePropagatesWithoutRetry(t *testing.T) {
	steps := newFakeStepStore()
	rt := NewRuntime(steps, 2)
	s := NewState("wf", TaskRef{}, "r1")
	s.DBRunID = 1

	calls := 0
	err := rt.Run(context.Background(), s, "finalize-pr", func(ctx context.Context, s *State) (Delta, error) {
		calls++
		return Delta{}, Permanent(errors.New("missing reference"))
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Len(t, steps.failed, 1)
}

func TestRuntime_Run_ExhaustsRetriesAndFails(t *testing.T) {
	steps := newFakeStepStore()
	rt := NewRuntime(steps, 1)
	s := NewState("wf", TaskRef{}, "r1")
	s.DBRunID = 1

	calls := 0
	err := rt.Run(context.Background(), s, "run-tests", func(ctx context.Context, s *State) (Delta, error) {
		calls++
		return Delta{}, transientErr{}
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls) // initial + 1 retry
	assert.Len(t, steps.failed, 1)
}
