// Package llm provides the LLM client collaborator named in spec.md §6:
// an opaque `complete(provider, model, prompt, max-tokens)` call with
// provider fallback. The code-generation prompts themselves are out of
// scope (spec.md §1) — this package only has to honor the contract the
// orchestrator's nodes and the Intent Classifier depend on.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Result is what every Provider and the FallbackClient return — the
// full accounting the Persistence Store's LogInteraction needs.
type Result struct {
	Content          string
	InputTokens      int
	OutputTokens     int
	LatencyMS        int64
	ProviderUsed     string
}

// Provider is the capability set a single concrete backend exposes.
// Anthropic and OpenAI each implement it; FallbackClient composes two
// Providers into one.
type Provider interface {
	Name() string
	Complete(ctx context.Context, model, prompt string, maxTokens int) (Result, error)
}

// ErrBothProvidersFailed is returned when both the primary and the
// secondary provider fail; see spec.md §6 "error only if both fail".
var ErrBothProvidersFailed = errors.New("llm: both primary and secondary providers failed")

// FallbackClient attempts Primary first; on any error it attempts
// Secondary, annotating the result with whichever provider actually
// served the request. It is the "composable fallback wrapper" named in
// spec.md §9 Design Notes.
type FallbackClient struct {
	Primary        Provider
	PrimaryModel   string
	Secondary      Provider
	SecondaryModel string
}

// NewFallbackClient constructs a FallbackClient over two providers and
// their configured models.
func NewFallbackClient(primary Provider, primaryModel string, secondary Provider, secondaryModel string) *FallbackClient {
	return &FallbackClient{
		Primary:        primary,
		PrimaryModel:   primaryModel,
		Secondary:      secondary,
		SecondaryModel: secondaryModel,
	}
}

// Complete attempts the primary provider, falling back to the secondary
// on any error. prompt/maxTokens are shared across both attempts; model
// selection is per-provider since the two backends don't share a model
// namespace.
func (f *FallbackClient) Complete(ctx context.Context, prompt string, maxTokens int) (Result, error) {
	start := time.Now()

	if f.Primary != nil {
		res, err := f.Primary.Complete(ctx, f.PrimaryModel, prompt, maxTokens)
		if err == nil {
			res.ProviderUsed = f.Primary.Name()
			res.LatencyMS = time.Since(start).Milliseconds()
			return res, nil
		}
		if f.Secondary == nil {
			return Result{}, fmt.Errorf("llm: primary provider %s failed: %w", f.Primary.Name(), err)
		}
	}

	if f.Secondary != nil {
		res, err := f.Secondary.Complete(ctx, f.SecondaryModel, prompt, maxTokens)
		if err == nil {
			res.ProviderUsed = f.Secondary.Name()
			res.LatencyMS = time.Since(start).Milliseconds()
			return res, nil
		}
		return Result{}, fmt.Errorf("%w: %s", ErrBothProvidersFailed, f.Secondary.Name())
	}

	return Result{}, errors.New("llm: no provider configured")
}
