package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vydata/orchestrator/pkg/intent"
)

func TestRoute_HighConfidenceQuestionAnswersDirectly(t *testing.T) {
	c := intent.Classification{Type: intent.TypeQuestion, Confidence: 0.9, RequiresWorkflow: false}
	outcome, req := Route(c, OriginalTask{}, "update-1")
	assert.Equal(t, OutcomeQuestionAnswered, outcome)
	assert.Nil(t, req)
}

func TestRoute_LowConfidenceQuestionStillReactivates(t *testing.T) {
	c := intent.Classification{Type: intent.TypeQuestion, Confidence: 0.5, RequiresWorkflow: false}
	outcome, req := Route(c, OriginalTask{Title: "orig"}, "update-2")
	assert.Equal(t, OutcomeCommandWorkflow, outcome)
	assert.Equal(t, "orig", req.Title)
}

func TestRoute_ModificationOverlaysExtractedRequirements(t *testing.T) {
	c := intent.Classification{
		Type: intent.TypeModification, Confidence: 0.95, RequiresWorkflow: true,
		ExtractedRequirements: &intent.ExtractedRequirements{
			Title: "Use UTF-8 BOM", Priority: "high", Files: []string{"main.txt"},
		},
	}
	outcome, req := Route(c, OriginalTask{Title: "orig", Priority: "medium"}, "update-3")
	assert.Equal(t, OutcomeCommandWorkflow, outcome)
	assert.Equal(t, "Use UTF-8 BOM", req.Title)
	assert.Equal(t, "high", req.Priority)
	assert.Equal(t, 7, req.DispatchPrio)
	assert.Equal(t, []string{"main.txt"}, req.Files)
	assert.Equal(t, "update-3", req.TriggeredBy)
}

func TestPriorityForLabel(t *testing.T) {
	assert.Equal(t, 9, PriorityForLabel("urgent"))
	assert.Equal(t, 7, PriorityForLabel("high"))
	assert.Equal(t, 5, PriorityForLabel("medium"))
	assert.Equal(t, 3, PriorityForLabel("low"))
	assert.Equal(t, 5, PriorityForLabel(""))
}
