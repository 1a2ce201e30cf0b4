package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vydata/orchestrator/pkg/config"
)

func testQueueConfig() *config.QueueConfig {
	return &config.QueueConfig{WorkerCount: 2, MaxConcurrentRuns: 4}
}

func TestPool_Submit_DispatchesAdmittedRequest(t *testing.T) {
	q := NewExternalQueue()
	p := NewPool("pod-1", testQueueConfig(), q, nil)
	p.Start(context.Background())
	defer p.Stop()

	var mu sync.Mutex
	dispatched := false
	done := make(chan struct{})

	status, err := p.Submit(Request{
		ExternalID: 1,
		QueueID:    "q1",
		Dispatch: func(ctx context.Context) error {
			mu.Lock()
			dispatched = true
			mu.Unlock()
			close(done)
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, AdmitStatusAdmitted, status)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatch never ran")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, dispatched)
}

func TestPool_Submit_QueuedRequestDispatchesAfterActiveCompletes(t *testing.T) {
	q := NewExternalQueue()
	p := NewPool("pod-1", testQueueConfig(), q, nil)
	p.Start(context.Background())
	defer p.Stop()

	release := make(chan struct{})
	firstStarted := make(chan struct{})
	secondDone := make(chan struct{})

	status, err := p.Submit(Request{
		ExternalID: 2,
		QueueID:    "q1",
		Dispatch: func(ctx context.Context) error {
			close(firstStarted)
			<-release
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, AdmitStatusAdmitted, status)

	<-firstStarted

	status, err = p.Submit(Request{
		ExternalID: 2,
		QueueID:    "q2",
		Spec:       "second",
		Dispatch: func(ctx context.Context) error {
			close(secondDone)
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, AdmitStatusQueued, status)

	close(release)

	select {
	case <-secondDone:
	case <-time.After(2 * time.Second):
		t.Fatal("queued request never dispatched after active released the slot")
	}
}

func TestPool_Submit_FailedDispatchStillReleasesSlot(t *testing.T) {
	q := NewExternalQueue()
	p := NewPool("pod-1", testQueueConfig(), q, nil)
	p.Start(context.Background())
	defer p.Stop()

	done := make(chan struct{})
	p.Submit(Request{
		ExternalID: 3,
		QueueID:    "q1",
		Dispatch: func(ctx context.Context) error {
			close(done)
			return errors.New("boom")
		},
	})
	<-done

	assert.Eventually(t, func() bool {
		status, _ := p.Submit(Request{ExternalID: 3, QueueID: "q2"})
		return status == AdmitStatusAdmitted
	}, time.Second, 10*time.Millisecond)
}

func TestPool_Health_ReportsQueueDepth(t *testing.T) {
	q := NewExternalQueue()
	p := NewPool("pod-1", testQueueConfig(), q, nil)

	q.Admit(Request{ExternalID: 1, QueueID: "q1"})
	q.Admit(Request{ExternalID: 1, QueueID: "q2", Spec: "b"})

	h := p.Health()
	assert.Equal(t, 1, h.QueueDepth)
	assert.Equal(t, "pod-1", h.PodID)
}
