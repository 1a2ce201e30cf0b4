package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/vydata/orchestrator/ent"
)

// RunRecoveryStore is the subset of *store.RunStore the orphan sweep
// needs. Runs have no pod-id/heartbeat column (unlike the teacher's
// AlertSession), so recovery can only key off staleness of
// status=running plus started-at, not an explicit ownership claim.
type RunRecoveryStore interface {
	ListStaleRunning(ctx context.Context, before time.Time) ([]*ent.Run, error)
	CompleteRun(ctx context.Context, id int, status string, errBlob string) error
}

// RunOrphanSweep periodically marks Runs that have sat in
// status=running longer than threshold as failed — the signal that a
// worker process died mid-run without completing its Step bookkeeping.
// Grounded on the teacher's orphan.go scan (pkg/queue/orphan.go:
// periodic detectAndRecoverOrphans + one-time CleanupStartupOrphans),
// adapted to the coarser staleness-only signal this schema supports.
func (p *Pool) RunOrphanSweep(ctx context.Context, store RunRecoveryStore, interval, threshold time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.sweepOnce(ctx, store, threshold)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sweepOnce(ctx, store, threshold)
		}
	}
}

func (p *Pool) sweepOnce(ctx context.Context, store RunRecoveryStore, threshold time.Duration) {
	before := time.Now().Add(-threshold)
	stale, err := store.ListStaleRunning(ctx, before)
	if err != nil {
		slog.Error("orphan sweep: list stale running runs failed", "error", err)
		return
	}

	recovered := 0
	for _, r := range stale {
		errBlob := "orphaned: no completion recorded before staleness threshold"
		if err := store.CompleteRun(ctx, r.ID, "failed", errBlob); err != nil {
			slog.Error("orphan sweep: failed to mark run failed", "run_id", r.ID, "error", err)
			continue
		}
		startedAt := "unknown"
		if r.StartedAt != nil {
			startedAt = r.StartedAt.Format(time.RFC3339)
		}
		slog.Warn("orphaned run recovered", "run_id", r.ID, "started_at", startedAt)
		recovered++
	}

	p.mu.Lock()
	p.orphanScan = time.Now()
	p.orphanRecover += recovered
	p.mu.Unlock()
}
