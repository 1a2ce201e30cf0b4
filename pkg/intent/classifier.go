// Package intent implements the Intent Classifier: an LLM-backed
// classification of a cleaned mention body into one of six intents,
// with a deterministic keyword fallback when the LLM call or its JSON
// response can't be trusted.
package intent

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/vydata/orchestrator/pkg/llm"
)

// Type is one of the six classifier outputs named in spec.md §4.4.
type Type string

const (
	TypeNewRequest        Type = "new-request"
	TypeModification      Type = "modification"
	TypeBugReport         Type = "bug-report"
	TypeQuestion          Type = "question"
	TypeAffirmation       Type = "affirmation"
	TypeValidationResponse Type = "validation-response"
)

// ExtractedRequirements is the optional structured payload the LLM may
// return alongside a new-request/modification classification.
type ExtractedRequirements struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	TaskType           string   `json:"task_type"`
	Priority           string   `json:"priority"`
	Files              []string `json:"files"`
	TechnicalKeywords  []string `json:"technical_keywords"`
}

// Classification is the classifier's result.
type Classification struct {
	Type                  Type
	Confidence            float64
	RequiresWorkflow      bool
	Reasoning             string
	ExtractedRequirements *ExtractedRequirements
}

// TaskContext is the task state handed to the LLM prompt for grounding.
type TaskContext struct {
	Title               string
	Status              string
	OriginalDescription string
}

// Completer is the subset of *llm.FallbackClient the classifier needs;
// accepting the interface (not the concrete type) keeps this package
// testable without a real provider.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (llm.Result, error)
}

// rawResponse is the JSON shape demanded of the LLM.
type rawResponse struct {
	Type                   string                 `json:"type"`
	Confidence             float64                `json:"confidence"`
	RequiresWorkflow       bool                   `json:"requires_workflow"`
	Reasoning              string                 `json:"reasoning"`
	ExtractedRequirements  *ExtractedRequirements `json:"extracted_requirements"`
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// Classify determines the intent of cleanedText. An empty input is
// always an affirmation requiring no workflow, per spec.md §4.4.
func Classify(ctx context.Context, completer Completer, cleanedText string, taskCtx TaskContext) Classification {
	if strings.TrimSpace(cleanedText) == "" {
		return Classification{Type: TypeAffirmation, Confidence: 1.0, RequiresWorkflow: false, Reasoning: "empty input"}
	}

	if completer != nil {
		prompt := buildPrompt(cleanedText, taskCtx)
		res, err := completer.Complete(ctx, prompt, 1024)
		if err == nil {
			if c, ok := parseResponse(res.Content); ok {
				return c
			}
		}
	}

	return keywordFallback(cleanedText)
}

func buildPrompt(cleanedText string, taskCtx TaskContext) string {
	var b strings.Builder
	b.WriteString("Classify the following task-management comment.\n")
	b.WriteString("Task title: " + taskCtx.Title + "\n")
	b.WriteString("Task status: " + taskCtx.Status + "\n")
	b.WriteString("Original description: " + taskCtx.OriginalDescription + "\n")
	b.WriteString("Comment: " + cleanedText + "\n")
	b.WriteString("Respond with a single JSON object: ")
	b.WriteString(`{"type": "new-request|modification|bug-report|question|affirmation|validation-response", ` +
		`"confidence": 0.0-1.0, "requires_workflow": bool, "reasoning": "...", ` +
		`"extracted_requirements": {"title":"","description":"","task_type":"","priority":"","files":[],"technical_keywords":[]} | null}`)
	return b.String()
}

// parseResponse tolerates a ```json fenced block wrapping the object.
func parseResponse(content string) (Classification, bool) {
	payload := strings.TrimSpace(content)
	if m := fencedJSON.FindStringSubmatch(payload); m != nil {
		payload = m[1]
	}

	var raw rawResponse
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return Classification{}, false
	}
	if !isKnownType(raw.Type) {
		return Classification{}, false
	}

	return Classification{
		Type:                  Type(raw.Type),
		Confidence:            raw.Confidence,
		RequiresWorkflow:      raw.RequiresWorkflow,
		Reasoning:             raw.Reasoning,
		ExtractedRequirements: raw.ExtractedRequirements,
	}, true
}

func isKnownType(t string) bool {
	switch Type(t) {
	case TypeNewRequest, TypeModification, TypeBugReport, TypeQuestion, TypeAffirmation, TypeValidationResponse:
		return true
	}
	return false
}

var (
	bugKeywords          = []string{"bug", "broken", "error", "crash", "fail", "doesn't work", "not working"}
	modificationKeywords = []string{"instead", "change", "modify", "update", "also add", "please add"}
	questionKeywords     = []string{"why", "how", "what", "when", "?"}
	affirmationKeywords  = []string{"ok", "okay", "sounds good", "yes", "oui", "thanks", "thank you", "lgtm"}
)

// keywordFallback is the deterministic classifier used when the LLM
// call errors or returns something that doesn't parse. Confidence is
// always capped at 0.5, per spec.md §4.4.
func keywordFallback(text string) Classification {
	lower := strings.ToLower(text)

	for _, kw := range bugKeywords {
		if strings.Contains(lower, kw) {
			return Classification{Type: TypeBugReport, Confidence: 0.5, RequiresWorkflow: true, Reasoning: "keyword fallback: bug-report pattern"}
		}
	}
	for _, kw := range affirmationKeywords {
		if strings.TrimSpace(lower) == kw {
			return Classification{Type: TypeAffirmation, Confidence: 0.5, RequiresWorkflow: false, Reasoning: "keyword fallback: affirmation pattern"}
		}
	}
	for _, kw := range questionKeywords {
		if strings.Contains(lower, kw) {
			return Classification{Type: TypeQuestion, Confidence: 0.5, RequiresWorkflow: false, Reasoning: "keyword fallback: question pattern"}
		}
	}
	for _, kw := range modificationKeywords {
		if strings.Contains(lower, kw) {
			return Classification{Type: TypeModification, Confidence: 0.5, RequiresWorkflow: true, Reasoning: "keyword fallback: modification pattern"}
		}
	}

	return Classification{Type: TypeNewRequest, Confidence: 0.5, RequiresWorkflow: true, Reasoning: "keyword fallback: default to new-request"}
}
