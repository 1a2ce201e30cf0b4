package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vydata/orchestrator/ent"
)

type fakePoller struct {
	resp  *ent.ValidationResponse
	delay time.Duration
	err   error
}

func (f *fakePoller) WaitForResponse(ctx context.Context, validationID string, timeout time.Duration) (*ent.ValidationResponse, error) {
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if f.delay >= timeout {
		// Matches pkg/store.ValidationStore.WaitForResponse's own
		// timeout/expiry contract: no error, just a nil response.
		return nil, nil
	}
	return f.resp, f.err
}

func TestCoordinator_Wait_ReturnsResponseWhenHumanReplies(t *testing.T) {
	resp := &ent.ValidationResponse{ValidationID: "v1"}
	c := New(&fakePoller{resp: resp, delay: 10 * time.Millisecond}, nil)

	d, err := c.Wait(context.Background(), WaitInput{
		ValidationID: "v1",
		FinalTimeout: time.Second,
	})
	require.NoError(t, err)
	assert.False(t, d.TimedOut)
	assert.Same(t, resp, d.Response)
}

func TestCoordinator_Wait_AutoApprovesOnTimeoutWhenPolicyMet(t *testing.T) {
	c := New(&fakePoller{delay: time.Second}, nil)

	d, err := c.Wait(context.Background(), WaitInput{
		ValidationID:      "v2",
		FinalTimeout:      50 * time.Millisecond,
		LastTestSucceeded: true,
		FilesModified:     []string{"main.go"},
	})
	require.NoError(t, err)
	assert.True(t, d.TimedOut)
	assert.True(t, d.AutoApproved)
	assert.Equal(t, "approved", d.ResponseStatus)
	assert.True(t, d.ShouldMerge)
}

func TestCoordinator_Wait_ExpiresOnTimeoutWhenPolicyNotMet(t *testing.T) {
	c := New(&fakePoller{delay: time.Second}, nil)

	d, err := c.Wait(context.Background(), WaitInput{
		ValidationID:      "v3",
		FinalTimeout:      50 * time.Millisecond,
		LastTestSucceeded: false,
	})
	require.NoError(t, err)
	assert.True(t, d.TimedOut)
	assert.False(t, d.AutoApproved)
	assert.Equal(t, "expired", d.ResponseStatus)
}

func TestCoordinator_Wait_NoReminderScheduledWhenDelayIsZero(t *testing.T) {
	c := New(&fakePoller{delay: time.Second}, nil)

	start := time.Now()
	d, err := c.Wait(context.Background(), WaitInput{
		ValidationID: "v4",
		FinalTimeout: 30 * time.Millisecond,
		// ReminderDelay intentionally zero, as for question-type interactions.
	})
	require.NoError(t, err)
	assert.True(t, d.TimedOut)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
