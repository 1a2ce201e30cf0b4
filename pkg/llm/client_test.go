package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name string
	res  Result
	err  error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Complete(ctx context.Context, model, prompt string, maxTokens int) (Result, error) {
	return f.res, f.err
}

func TestFallbackClient_UsesPrimaryOnSuccess(t *testing.T) {
	f := NewFallbackClient(
		&fakeProvider{name: "anthropic", res: Result{Content: "ok"}},
		"claude", &fakeProvider{name: "openai"}, "gpt",
	)

	res, err := f.Complete(context.Background(), "do the thing", 100)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", res.ProviderUsed)
	assert.Equal(t, "ok", res.Content)
}

func TestFallbackClient_FallsBackOnPrimaryError(t *testing.T) {
	f := NewFallbackClient(
		&fakeProvider{name: "anthropic", err: errors.New("rate limited")},
		"claude",
		&fakeProvider{name: "openai", res: Result{Content: "backup"}},
		"gpt",
	)

	res, err := f.Complete(context.Background(), "do the thing", 100)
	require.NoError(t, err)
	assert.Equal(t, "openai", res.ProviderUsed)
	assert.Equal(t, "backup", res.Content)
}

func TestFallbackClient_ErrorsWhenBothFail(t *testing.T) {
	f := NewFallbackClient(
		&fakeProvider{name: "anthropic", err: errors.New("down")},
		"claude",
		&fakeProvider{name: "openai", err: errors.New("also down")},
		"gpt",
	)

	_, err := f.Complete(context.Background(), "do the thing", 100)
	assert.ErrorIs(t, err, ErrBothProvidersFailed)
}
