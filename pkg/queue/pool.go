package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vydata/orchestrator/pkg/config"
	"github.com/vydata/orchestrator/pkg/metrics"
)

// Pool is the bounded worker pool that dispatches admitted Requests
// into the Workflow Engine, and the orphan sweep that recovers Runs
// left in status=running by a crashed process. Grounded on the
// teacher's WorkerPool (pkg/queue/pool.go: fixed-size goroutine pool,
// graceful Start/Stop, aggregate Health) generalized from claiming
// AlertSession rows off a DB queue to accepting Requests already
// admitted by the in-process ExternalQueue.
type Pool struct {
	podID string
	cfg   *config.QueueConfig
	queue *ExternalQueue

	jobs     chan Request
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	started  bool

	mu            sync.Mutex
	workerStats   []WorkerHealth
	orphanScan    time.Time
	orphanRecover int

	metrics *metrics.Registry // nil when the pool was built without one (e.g. in unit tests)
}

// NewPool builds a Pool over an already-constructed ExternalQueue. cfg
// supplies WorkerCount (goroutines) and MaxConcurrentRuns (dispatch
// channel capacity — a Submit beyond this depth returns ErrAtCapacity
// rather than blocking the caller indefinitely). reg may be nil to skip
// Prometheus instrumentation.
func NewPool(podID string, cfg *config.QueueConfig, q *ExternalQueue, reg *metrics.Registry) *Pool {
	return &Pool{
		podID:   podID,
		cfg:     cfg,
		queue:   q,
		jobs:    make(chan Request, cfg.MaxConcurrentRuns),
		stopCh:  make(chan struct{}),
		metrics: reg,
	}
}

// Start spawns the fixed worker goroutines. Safe to call once; a
// second call is a no-op.
func (p *Pool) Start(ctx context.Context) {
	if p.started {
		return
	}
	p.started = true

	p.workerStats = make([]WorkerHealth, p.cfg.WorkerCount)
	for i := 0; i < p.cfg.WorkerCount; i++ {
		id := fmt.Sprintf("%s-worker-%d", p.podID, i)
		p.workerStats[i] = WorkerHealth{ID: id}
		p.wg.Add(1)
		go p.runWorker(ctx, i, id)
	}

	slog.Info("queue worker pool started", "pod_id", p.podID, "workers", p.cfg.WorkerCount)
}

// Stop signals every worker to drain and wait, then returns once all
// in-flight dispatches have completed.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
	slog.Info("queue worker pool stopped", "pod_id", p.podID)
}

// Submit admits req through the ExternalQueue and, if the slot is
// granted immediately, enqueues it for dispatch. A Queued outcome is
// not an error — the request dispatches later, when the active request
// ahead of it releases the slot via MarkCompleted/MarkFailed.
func (p *Pool) Submit(req Request) (AdmitStatus, error) {
	status := p.queue.Admit(req)
	if status != AdmitStatusAdmitted {
		return status, nil
	}
	if err := p.enqueue(req); err != nil {
		return status, err
	}
	return status, nil
}

func (p *Pool) enqueue(req Request) error {
	select {
	case p.jobs <- req:
		return nil
	case <-p.stopCh:
		return ErrShuttingDown
	default:
		return ErrAtCapacity
	}
}

func (p *Pool) runWorker(ctx context.Context, idx int, id string) {
	defer p.wg.Done()
	log := slog.With("worker_id", id)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case job := <-p.jobs:
			p.setBusy(idx, job.ExternalID, true)
			log.Info("dispatching", "external_id", job.ExternalID, "queue_id", job.QueueID)

			start := time.Now()
			err := job.Dispatch(ctx)

			var next *Request
			var popped bool
			outcome := "completed"
			if err != nil {
				outcome = "failed"
				log.Error("run failed", "external_id", job.ExternalID, "error", err)
				next, popped = p.queue.MarkFailed(job.ExternalID, job.QueueID, err)
			} else {
				next, popped = p.queue.MarkCompleted(job.ExternalID, job.QueueID)
			}
			if p.metrics != nil {
				p.metrics.ObserveDispatch(outcome, time.Since(start).Seconds())
				p.metrics.QueueDepth.Set(float64(p.queue.Depth()))
			}
			p.setBusy(idx, 0, false)

			if popped && next != nil {
				if err := p.enqueue(*next); err != nil {
					log.Error("failed to dispatch queued request", "external_id", next.ExternalID, "error", err)
				}
			}
		}
	}
}

func (p *Pool) setBusy(idx, externalID int, busy bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if idx < 0 || idx >= len(p.workerStats) {
		return
	}
	w := &p.workerStats[idx]
	w.Busy = busy
	w.CurrentExternalID = externalID
	w.LastActivity = time.Now()
	if !busy {
		w.JobsProcessed++
	}
}

// Health reports the pool's current aggregate state.
func (p *Pool) Health() *PoolHealth {
	p.mu.Lock()
	stats := append([]WorkerHealth{}, p.workerStats...)
	scan := p.orphanScan
	recovered := p.orphanRecover
	p.mu.Unlock()

	active := 0
	for _, w := range stats {
		if w.Busy {
			active++
		}
	}
	return &PoolHealth{
		PodID:            p.podID,
		ActiveWorkers:    active,
		TotalWorkers:     len(stats),
		QueueDepth:       p.queue.Depth(),
		WorkerStats:      stats,
		LastOrphanScan:   scan,
		OrphansRecovered: recovered,
	}
}
