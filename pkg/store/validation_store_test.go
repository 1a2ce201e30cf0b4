package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationStore_CreateRequestNormalizesFilesModified(t *testing.T) {
	client := newTestClient(t)
	tasks := NewTaskStore(client)
	validations := NewValidationStore(client)
	ctx := context.Background()

	task, err := tasks.CreateOrLoadTask(ctx, TaskInput{ExternalID: 1, Title: "t"})
	require.NoError(t, err)

	req, ok := validations.CreateRequest(ctx, CreateValidationRequestInput{
		TaskID:        task.ID,
		TaskTitle:     "t",
		FilesModified: map[string]string{"main.txt": "hello", "": "ignored"},
	})
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"main.txt"}, req.FilesModified)
}

func TestValidationStore_CreateRequestIdempotentOnKey(t *testing.T) {
	client := newTestClient(t)
	tasks := NewTaskStore(client)
	validations := NewValidationStore(client)
	ctx := context.Background()

	task, err := tasks.CreateOrLoadTask(ctx, TaskInput{ExternalID: 2, Title: "t"})
	require.NoError(t, err)

	in := CreateValidationRequestInput{TaskID: task.ID, TaskTitle: "t", IdempotenceKey: "dup-key"}

	first, ok := validations.CreateRequest(ctx, in)
	require.True(t, ok)
	second, ok := validations.CreateRequest(ctx, in)
	require.True(t, ok)

	assert.Equal(t, first.ID, second.ID)
}

func TestValidationStore_SubmitResponse_RejectsNonTerminalStatus(t *testing.T) {
	client := newTestClient(t)
	tasks := NewTaskStore(client)
	validations := NewValidationStore(client)
	ctx := context.Background()

	task, err := tasks.CreateOrLoadTask(ctx, TaskInput{ExternalID: 3, Title: "t"})
	require.NoError(t, err)
	req, ok := validations.CreateRequest(ctx, CreateValidationRequestInput{TaskID: task.ID, TaskTitle: "t"})
	require.True(t, ok)

	_, err = validations.SubmitResponse(ctx, ValidationResponseInput{
		ValidationID:   req.ID,
		ResponseStatus: "pending",
	})
	assert.True(t, IsValidationError(err))
}

func TestValidationStore_SubmitResponse_SyncsRequestStatus(t *testing.T) {
	client := newTestClient(t)
	tasks := NewTaskStore(client)
	validations := NewValidationStore(client)
	ctx := context.Background()

	task, err := tasks.CreateOrLoadTask(ctx, TaskInput{ExternalID: 4, Title: "t"})
	require.NoError(t, err)
	req, ok := validations.CreateRequest(ctx, CreateValidationRequestInput{TaskID: task.ID, TaskTitle: "t"})
	require.True(t, ok)

	resp, err := validations.SubmitResponse(ctx, ValidationResponseInput{
		ValidationID:   req.ID,
		ResponseStatus: "approved",
		ShouldMerge:    true,
	})
	require.NoError(t, err)
	assert.True(t, resp.ValidatedAt.Sub(req.CreatedAt) >= 0)

	reloaded, err := validations.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "approved", string(reloaded.Status))

	_, err = validations.SubmitResponse(ctx, ValidationResponseInput{
		ValidationID:   req.ID,
		ResponseStatus: "rejected",
	})
	assert.True(t, IsValidationError(err))
}

func TestValidationStore_WaitForResponse_ReturnsOnceSubmitted(t *testing.T) {
	client := newTestClient(t)
	tasks := NewTaskStore(client)
	validations := NewValidationStore(client)
	ctx := context.Background()

	task, err := tasks.CreateOrLoadTask(ctx, TaskInput{ExternalID: 5, Title: "t"})
	require.NoError(t, err)
	req, ok := validations.CreateRequest(ctx, CreateValidationRequestInput{TaskID: task.ID, TaskTitle: "t"})
	require.True(t, ok)

	go func() {
		time.Sleep(100 * time.Millisecond)
		_, _ = validations.SubmitResponse(ctx, ValidationResponseInput{
			ValidationID: req.ID, ResponseStatus: "approved",
		})
	}()

	resp, err := validations.waitForResponse(ctx, req.ID, 2*time.Second, 50*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "approved", string(resp.ResponseStatus))
}
