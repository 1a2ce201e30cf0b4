package store

import (
	"context"
	"fmt"

	"github.com/vydata/orchestrator/ent"
	"github.com/vydata/orchestrator/ent/testresult"
)

// TestResultInput captures one test-suite execution for a run.
type TestResultInput struct {
	RunID            int
	Passed           bool
	TotalCount       int
	PassedCount      int
	FailedCount      int
	SkippedCount     int
	CoveragePercent  *float64
	ReportBlob       string
	DurationSeconds  float64
}

// TestStore implements the TestResult slice of the Persistence Store
// contract.
type TestStore struct {
	client *ent.Client
}

// NewTestStore constructs a TestStore over an initialized ent client.
func NewTestStore(client *ent.Client) *TestStore {
	return &TestStore{client: client}
}

// LogResult records one test-suite run. Results append in execution
// order; the last row for a run is the one the engine trusts for the
// timeout auto-approve policy ("last test succeeded").
func (s *TestStore) LogResult(ctx context.Context, in TestResultInput) (*ent.TestResult, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	if in.RunID == 0 {
		return nil, ErrMissingReference
	}

	var out *ent.TestResult
	err := withRetry(ctx, func() error {
		create := s.client.TestResult.Create().
			SetRunID(in.RunID).
			SetPassed(in.Passed).
			SetTotalCount(in.TotalCount).
			SetPassedCount(in.PassedCount).
			SetFailedCount(in.FailedCount).
			SetSkippedCount(in.SkippedCount).
			SetReportBlob(in.ReportBlob).
			SetDurationSeconds(in.DurationSeconds)
		if in.CoveragePercent != nil {
			create = create.SetCoveragePercent(*in.CoveragePercent)
		}
		created, err := create.Save(ctx)
		if err != nil {
			if ent.IsConstraintError(err) {
				return classifyConstraintError(err)
			}
			if ent.IsNotFound(err) {
				return ErrMissingReference
			}
			return fmt.Errorf("log test result: %w", err)
		}
		out = created
		return nil
	})
	return out, err
}

// LatestForRun returns the most recently logged TestResult for a run,
// or ErrNotFound if none have been logged yet.
func (s *TestStore) LatestForRun(ctx context.Context, runID int) (*ent.TestResult, error) {
	if s.client == nil {
		return nil, ErrUnavailable
	}
	r, err := s.client.TestResult.Query().
		Where(testresult.RunIDEQ(runID)).
		Order(ent.Desc(testresult.FieldID)).
		First(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("latest test result: %w", err)
	}
	return r, nil
}
