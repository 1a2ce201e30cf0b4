package store

import (
	"context"
	"fmt"

	"github.com/vydata/orchestrator/ent"
)

// PerformanceMetricInput captures the aggregate cost/latency/token
// figures for a run, recorded once it reaches a terminal state.
type PerformanceMetricInput struct {
	TaskID                int
	RunID                 int
	TotalDurationMS       int64
	TotalPromptTokens     int
	TotalCompletionTokens int
	TotalCost             float64
	NodeCount             int
	RetryCount            int
}

// MetricsStore implements the PerformanceMetric slice of the
// Persistence Store contract.
type MetricsStore struct {
	client *ent.Client
}

// NewMetricsStore constructs a MetricsStore over an initialized ent client.
func NewMetricsStore(client *ent.Client) *MetricsStore {
	return &MetricsStore{client: client}
}

// RecordPerformanceMetrics writes one summary row per run.
func (s *MetricsStore) RecordPerformanceMetrics(ctx context.Context, in PerformanceMetricInput) (*ent.PerformanceMetric, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	if in.TaskID == 0 || in.RunID == 0 {
		return nil, ErrMissingReference
	}

	var out *ent.PerformanceMetric
	err := withRetry(ctx, func() error {
		created, err := s.client.PerformanceMetric.Create().
			SetTaskID(in.TaskID).
			SetRunID(in.RunID).
			SetTotalDurationMs(in.TotalDurationMS).
			SetTotalPromptTokens(in.TotalPromptTokens).
			SetTotalCompletionTokens(in.TotalCompletionTokens).
			SetTotalCost(in.TotalCost).
			SetNodeCount(in.NodeCount).
			SetRetryCount(in.RetryCount).
			Save(ctx)
		if err != nil {
			if ent.IsNotFound(err) {
				return ErrMissingReference
			}
			return fmt.Errorf("record performance metrics: %w", err)
		}
		out = created
		return nil
	})
	return out, err
}
