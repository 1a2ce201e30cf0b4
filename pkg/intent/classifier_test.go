package intent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vydata/orchestrator/pkg/llm"
)

type fakeCompleter struct {
	content string
	err     error
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, maxTokens int) (llm.Result, error) {
	return llm.Result{Content: f.content}, f.err
}

func TestClassify_EmptyInputIsAffirmation(t *testing.T) {
	c := Classify(context.Background(), nil, "", TaskContext{})
	assert.Equal(t, TypeAffirmation, c.Type)
	assert.False(t, c.RequiresWorkflow)
}

func TestClassify_ParsesFencedJSON(t *testing.T) {
	completer := &fakeCompleter{content: "```json\n{\"type\": \"question\", \"confidence\": 0.9, \"requires_workflow\": false, \"reasoning\": \"asking why\"}\n```"}

	c := Classify(context.Background(), completer, "why does this use Java?", TaskContext{})
	assert.Equal(t, TypeQuestion, c.Type)
	assert.Equal(t, 0.9, c.Confidence)
	assert.False(t, c.RequiresWorkflow)
}

func TestClassify_FallsBackOnUnparseableResponse(t *testing.T) {
	completer := &fakeCompleter{content: "not json at all"}

	c := Classify(context.Background(), completer, "this is broken and crashes", TaskContext{})
	assert.Equal(t, TypeBugReport, c.Type)
	assert.LessOrEqual(t, c.Confidence, 0.5)
}

func TestClassify_KeywordFallbackQuestion(t *testing.T) {
	c := keywordFallback("why is this failing?")
	assert.Equal(t, TypeQuestion, c.Type)
}

func TestClassify_KeywordFallbackAffirmation(t *testing.T) {
	c := keywordFallback("ok")
	assert.Equal(t, TypeAffirmation, c.Type)
	assert.False(t, c.RequiresWorkflow)
}
