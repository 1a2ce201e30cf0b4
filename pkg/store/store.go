package store

import "github.com/vydata/orchestrator/ent"

// Store bundles every per-entity store over one ent.Client. Callers
// that only need one or two entities (a single node implementation,
// say) are free to construct the individual New*Store directly instead.
type Store struct {
	Tasks      *TaskStore
	Runs       *RunStore
	Steps      *StepStore
	LLM        *LLMStore
	CodeGen    *CodeGenStore
	Tests      *TestStore
	PRs        *PRStore
	Metrics    *MetricsStore
	Triggers   *TriggerStore
	Events     *EventStore
	Validation *ValidationStore
}

// New constructs every per-entity store over client.
func New(client *ent.Client) *Store {
	return &Store{
		Tasks:      NewTaskStore(client),
		Runs:       NewRunStore(client),
		Steps:      NewStepStore(client),
		LLM:        NewLLMStore(client),
		CodeGen:    NewCodeGenStore(client),
		Tests:      NewTestStore(client),
		PRs:        NewPRStore(client),
		Metrics:    NewMetricsStore(client),
		Triggers:   NewTriggerStore(client),
		Events:     NewEventStore(client),
		Validation: NewValidationStore(client),
	}
}
