package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrLoadTask_IdempotentOnExternalID(t *testing.T) {
	client := newTestClient(t)
	s := NewTaskStore(client)
	ctx := context.Background()

	in := TaskInput{ExternalID: 4242, BoardID: 1, Title: "Add retry to webhook handler"}

	first, err := s.CreateOrLoadTask(ctx, in)
	require.NoError(t, err)

	second, err := s.CreateOrLoadTask(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestCreateOrLoadTask_RequiresTitle(t *testing.T) {
	client := newTestClient(t)
	s := NewTaskStore(client)

	_, err := s.CreateOrLoadTask(context.Background(), TaskInput{ExternalID: 1})
	assert.True(t, IsValidationError(err))
}

func TestStartRun_MissingTaskIsMissingReference(t *testing.T) {
	client := newTestClient(t)
	s := NewRunStore(client)

	_, err := s.StartRun(context.Background(), 0, "workflow-x", "corr-1", "")
	assert.ErrorIs(t, err, ErrMissingReference)
}

func TestStartRun_UnknownTaskIsMissingReference(t *testing.T) {
	client := newTestClient(t)
	s := NewRunStore(client)

	_, err := s.StartRun(context.Background(), 999999, "workflow-x", "corr-1", "")
	assert.ErrorIs(t, err, ErrMissingReference)
}

func TestCreatePullRequest_RequiresTaskAndRun(t *testing.T) {
	client := newTestClient(t)
	s := NewPRStore(client)

	_, err := s.CreatePullRequest(context.Background(), PullRequestInput{
		URL: "https://example.com/pr/1", HeadBranch: "feature/x",
	})
	assert.ErrorIs(t, err, ErrMissingReference)
}

func TestStepStore_CreateCompleteAndCheckpoint(t *testing.T) {
	client := newTestClient(t)
	tasks := NewTaskStore(client)
	runs := NewRunStore(client)
	steps := NewStepStore(client)
	ctx := context.Background()

	task, err := tasks.CreateOrLoadTask(ctx, TaskInput{ExternalID: 1, Title: "t"})
	require.NoError(t, err)
	run, err := runs.StartRun(ctx, task.ID, "wf", "corr", "")
	require.NoError(t, err)

	step, err := steps.CreateStep(ctx, run.ID, "prepare-environment", 1, map[string]interface{}{"a": 1})
	require.NoError(t, err)

	require.NoError(t, steps.SaveCheckpoint(ctx, run.ID, "prepare-environment", map[string]interface{}{"progress": "cloned"}))

	blob, err := steps.LatestCheckpoint(ctx, run.ID, "prepare-environment")
	require.NoError(t, err)
	assert.Equal(t, "cloned", blob["progress"])

	require.NoError(t, steps.CompleteStep(ctx, step.ID, "completed", map[string]interface{}{"ok": true}, ""))

	n, err := steps.CountCompleted(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCodeGenStore_DedupsFilesModified(t *testing.T) {
	client := newTestClient(t)
	tasks := NewTaskStore(client)
	runs := NewRunStore(client)
	codegen := NewCodeGenStore(client)
	ctx := context.Background()

	task, err := tasks.CreateOrLoadTask(ctx, TaskInput{ExternalID: 2, Title: "t"})
	require.NoError(t, err)
	run, err := runs.StartRun(ctx, task.ID, "wf", "corr2", "")
	require.NoError(t, err)

	gen, err := codegen.LogGeneration(ctx, CodeGenerationInput{
		RunID:          run.ID,
		GenerationType: "initial",
		FilesModified:  []string{"a.go", "b.go", "a.go"},
	})
	require.NoError(t, err)
	assert.Len(t, gen.FilesModified, 2)
}
