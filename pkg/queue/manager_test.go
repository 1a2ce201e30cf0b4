package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// I-7: at most one non-terminal Run per external-id; a second request
// for the same external-id while one is active gets queued, not
// admitted.
func TestExternalQueue_Admit_SecondRequestQueues(t *testing.T) {
	q := NewExternalQueue()

	status := q.Admit(Request{ExternalID: 5029145622, QueueID: "q1", Spec: "spec-a"})
	assert.Equal(t, AdmitStatusAdmitted, status)

	status = q.Admit(Request{ExternalID: 5029145622, QueueID: "q2", Spec: "spec-b"})
	assert.Equal(t, AdmitStatusQueued, status)
}

// A byte-equal resubmission of the currently active request's spec is
// rejected as a duplicate rather than queued.
func TestExternalQueue_Admit_ByteEqualDuplicateRejected(t *testing.T) {
	q := NewExternalQueue()

	q.Admit(Request{ExternalID: 42, QueueID: "q1", Spec: "same-spec"})
	status := q.Admit(Request{ExternalID: 42, QueueID: "q2", Spec: "same-spec"})

	assert.Equal(t, AdmitStatusRejectedDuplicate, status)
}

func TestExternalQueue_Admit_DifferentExternalIDsBothAdmitted(t *testing.T) {
	q := NewExternalQueue()

	assert.Equal(t, AdmitStatusAdmitted, q.Admit(Request{ExternalID: 1, QueueID: "q1"}))
	assert.Equal(t, AdmitStatusAdmitted, q.Admit(Request{ExternalID: 2, QueueID: "q2"}))
}

func TestExternalQueue_MarkCompleted_ReleasesSlotAndPopsNext(t *testing.T) {
	q := NewExternalQueue()

	q.Admit(Request{ExternalID: 7, QueueID: "q1", Spec: "a"})
	q.Admit(Request{ExternalID: 7, QueueID: "q2", Spec: "b"})

	next, popped := q.MarkCompleted(7, "q1")
	assert.True(t, popped)
	assert.Equal(t, "q2", next.QueueID)

	// the slot is now held by q2; a fresh request queues behind it.
	assert.Equal(t, AdmitStatusQueued, q.Admit(Request{ExternalID: 7, QueueID: "q3", Spec: "c"}))
}

func TestExternalQueue_MarkCompleted_EmptyQueueReleasesSlotFully(t *testing.T) {
	q := NewExternalQueue()

	q.Admit(Request{ExternalID: 9, QueueID: "q1"})
	next, popped := q.MarkCompleted(9, "q1")
	assert.Nil(t, next)
	assert.False(t, popped)

	// slot is free again; a new request is admitted immediately.
	assert.Equal(t, AdmitStatusAdmitted, q.Admit(Request{ExternalID: 9, QueueID: "q2"}))
}

// A stale queueID (already released, or never owned the slot) cannot
// release or pop — only the slot's current owner may.
func TestExternalQueue_MarkCompleted_WrongQueueIDIsNoop(t *testing.T) {
	q := NewExternalQueue()

	q.Admit(Request{ExternalID: 3, QueueID: "q1"})
	next, popped := q.MarkCompleted(3, "not-the-owner")

	assert.Nil(t, next)
	assert.False(t, popped)
	// the original owner's slot is still intact; a resubmission still queues.
	assert.Equal(t, AdmitStatusQueued, q.Admit(Request{ExternalID: 3, QueueID: "q2"}))
}

func TestExternalQueue_MarkWaitingValidation_HoldsSlot(t *testing.T) {
	q := NewExternalQueue()

	q.Admit(Request{ExternalID: 11, QueueID: "q1"})
	q.MarkWaitingValidation(11, "q1")

	// the slot remains held while waiting for validation — a new
	// request still queues rather than being admitted.
	assert.Equal(t, AdmitStatusQueued, q.Admit(Request{ExternalID: 11, QueueID: "q2"}))
}

func TestExternalQueue_MarkFailed_ReleasesSlotLikeCompleted(t *testing.T) {
	q := NewExternalQueue()

	q.Admit(Request{ExternalID: 5, QueueID: "q1"})
	_, popped := q.MarkFailed(5, "q1", assert.AnError)
	assert.False(t, popped)

	assert.Equal(t, AdmitStatusAdmitted, q.Admit(Request{ExternalID: 5, QueueID: "q2"}))
}

func TestExternalQueue_Depth_CountsOnlyPendingNotActive(t *testing.T) {
	q := NewExternalQueue()

	q.Admit(Request{ExternalID: 1, QueueID: "q1"})
	assert.Equal(t, 0, q.Depth())

	q.Admit(Request{ExternalID: 1, QueueID: "q2", Spec: "b"})
	q.Admit(Request{ExternalID: 1, QueueID: "q3", Spec: "c"})
	assert.Equal(t, 2, q.Depth())
}

// Concurrent admissions for the same external-id must never let more
// than one request hold the active slot at once (I-7, enforced by the
// single mutex guarding each lane).
func TestExternalQueue_Admit_ConcurrentSameExternalIDExactlyOneAdmitted(t *testing.T) {
	q := NewExternalQueue()
	const n = 50

	var wg sync.WaitGroup
	results := make([]AdmitStatus, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = q.Admit(Request{ExternalID: 100, QueueID: string(rune('a' + i)), Spec: ""})
		}(i)
	}
	wg.Wait()

	admitted := 0
	for _, r := range results {
		if r == AdmitStatusAdmitted {
			admitted++
		}
	}
	assert.Equal(t, 1, admitted)
}
