package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// chatClient captures the subset of the OpenAI SDK used here.
type chatClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAIProvider implements Provider on top of the Chat Completions API.
// It serves as the secondary provider in the fallback chain.
type OpenAIProvider struct {
	chat chatClient
}

// NewOpenAIProvider constructs a provider from an API key.
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{chat: &client.Chat.Completions}
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return "openai" }

// Complete implements Provider.
func (p *OpenAIProvider) Complete(ctx context.Context, model, prompt string, maxTokens int) (Result, error) {
	start := time.Now()
	completion, err := p.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens: openai.Int(int64(maxTokens)),
	})
	if err != nil {
		return Result{}, fmt.Errorf("openai chat.completions.new: %w", err)
	}
	if len(completion.Choices) == 0 {
		return Result{}, fmt.Errorf("openai chat.completions.new: no choices returned")
	}

	return Result{
		Content:      completion.Choices[0].Message.Content,
		InputTokens:  int(completion.Usage.PromptTokens),
		OutputTokens: int(completion.Usage.CompletionTokens),
		LatencyMS:    time.Since(start).Milliseconds(),
	}, nil
}
