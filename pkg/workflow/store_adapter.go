package workflow

import (
	"context"

	"github.com/vydata/orchestrator/pkg/store"
)

// stepStoreAdapter adapts *store.StepStore's ent-typed return values
// to the plain-int StepStore interface this package depends on, so
// the graph/runtime code never has to import the ent package
// directly — it only ever sees the ids and blobs it actually needs.
type stepStoreAdapter struct {
	inner *store.StepStore
}

// NewStepStoreAdapter wraps a concrete *store.StepStore for use as a
// Runtime's StepStore.
func NewStepStoreAdapter(inner *store.StepStore) StepStore {
	return &stepStoreAdapter{inner: inner}
}

func (a *stepStoreAdapter) CreateStep(ctx context.Context, runID int, nodeName string, order int, input map[string]interface{}) (int, error) {
	step, err := a.inner.CreateStep(ctx, runID, nodeName, order, input)
	if err != nil {
		return 0, err
	}
	return step.ID, nil
}

func (a *stepStoreAdapter) CompleteStep(ctx context.Context, stepID int, status string, output map[string]interface{}, stepErr string) error {
	return a.inner.CompleteStep(ctx, stepID, status, output, stepErr)
}

func (a *stepStoreAdapter) SaveCheckpoint(ctx context.Context, runID int, nodeName string, blob map[string]interface{}) error {
	return a.inner.SaveCheckpoint(ctx, runID, nodeName, blob)
}

func (a *stepStoreAdapter) IncrementRetryCount(ctx context.Context, stepID int) error {
	return a.inner.IncrementRetryCount(ctx, stepID)
}
