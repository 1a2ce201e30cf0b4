package queue

import "sync"

// lane holds the per-external-id admission state: the active request
// and anything queued behind it. waitingValidation marks the active
// slot as suspended for a human response (the slot is still held).
type lane struct {
	active            *Request
	waitingValidation bool
	pending           []Request
}

// ExternalQueue is the Queue Manager of spec.md §4.2: a per-external-id
// FIFO ensuring at-most-one active (non-terminal) Run per external-id
// (I-7). All mutations happen under a single mutex — spec.md §9 is
// explicit that this map is one of the few pieces of allowed global
// mutable state, single-writer per external-id by construction.
type ExternalQueue struct {
	mu    sync.Mutex
	lanes map[int]*lane
}

// NewExternalQueue constructs an empty Queue Manager.
func NewExternalQueue() *ExternalQueue {
	return &ExternalQueue{lanes: make(map[int]*lane)}
}

// Admit decides whether req gets the external-id's slot immediately,
// is queued behind an active request, or is rejected as a byte-equal
// duplicate of the request currently holding the slot.
func (q *ExternalQueue) Admit(req Request) AdmitStatus {
	q.mu.Lock()
	defer q.mu.Unlock()

	l, ok := q.lanes[req.ExternalID]
	if !ok {
		l = &lane{}
		q.lanes[req.ExternalID] = l
	}
	if l.active == nil {
		l.active = &req
		return AdmitStatusAdmitted
	}
	if l.active.Spec != "" && l.active.Spec == req.Spec {
		return AdmitStatusRejectedDuplicate
	}
	l.pending = append(l.pending, req)
	return AdmitStatusQueued
}

// MarkWaitingValidation suspends the active request for external-id,
// keeping its slot held while a human response is awaited. A no-op if
// queueID no longer owns the slot (it already completed or failed).
func (q *ExternalQueue) MarkWaitingValidation(externalID int, queueID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if l, ok := q.lanes[externalID]; ok && l.active != nil && l.active.QueueID == queueID {
		l.waitingValidation = true
	}
}

// MarkCompleted releases externalID's slot held by queueID and pops
// the next queued request, if any, handing it the slot.
func (q *ExternalQueue) MarkCompleted(externalID int, queueID string) (*Request, bool) {
	return q.release(externalID, queueID)
}

// MarkFailed is MarkCompleted's counterpart for a failed terminal
// outcome — the release/pop semantics are identical; the error is the
// caller's to log or persist (spec.md §4.2 carries it as context, not
// state the Queue Manager itself needs to retain).
func (q *ExternalQueue) MarkFailed(externalID int, queueID string, _ error) (*Request, bool) {
	return q.release(externalID, queueID)
}

func (q *ExternalQueue) release(externalID int, queueID string) (*Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	l, ok := q.lanes[externalID]
	if !ok || l.active == nil || l.active.QueueID != queueID {
		return nil, false
	}
	if len(l.pending) == 0 {
		l.active = nil
		l.waitingValidation = false
		return nil, false
	}
	next := l.pending[0]
	l.pending = l.pending[1:]
	l.active = &next
	l.waitingValidation = false
	return &next, true
}

// Depth returns the number of requests currently queued across every
// external-id (not counting active ones), for health reporting.
func (q *ExternalQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, l := range q.lanes {
		n += len(l.pending)
	}
	return n
}
