// Package workflow implements the state graph that drives a Task
// through environment provisioning, LLM-driven implementation,
// testing, QA, human validation, and merge. Grounded on the teacher's
// worker/session split (pkg/queue/worker.go claims and dispatches,
// the session executor owns the full multi-stage lifecycle) but
// generalized from the teacher's fixed linear chain of stages to a
// graph with conditional edges and bounded retry loops, in the idiom
// of the teacher's own IterationState loop-bound counter
// (pkg/agent/iteration.go).
package workflow

import "time"

// TestResultRecord is one entry in results.test-results — append-only
// per spec.md §3.
type TestResultRecord struct {
	Success bool
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// Results is the `results` mapping from spec.md §3's Workflow State.
// Plain fields rather than a map[string]any: every key the spec names
// is accounted for, and the reducers in merge.go enforce the
// per-key semantics (later-wins vs extend vs union) that a bare map
// would leave to each node to get right or wrong.
type Results struct {
	RequirementsAnalysis string
	CodeChanges          map[string]string
	ModifiedFiles        []string // union semantics
	AIMessages           []string // extend semantics
	ErrorLogs            []string // extend semantics
	TestResults          []TestResultRecord // append semantics
	NoTestsFound         bool
	DebugAttempts        int
	HumanDebugAttempts   int
	DebugLimitReached    bool
	QualityScore         int
	BrowserQA            map[string]interface{}
	PRInfo               map[string]string
	TestSuccess          bool
	ImplementationSuccess bool
	ShouldMerge          bool
	HumanDecision        string
	MergeSuccessful      bool
	MondayFinalStatus    string
	ReimplementWithModifications bool
	ModificationInstructions     string
	RejectionCount       int
	ShouldRetryWorkflow  bool
	WorkflowTerminated   bool
	QueueID              string
	ValidationID         string
	OpenAIDebugCompleted bool
	TriggerReimplementation bool
	HumanOverride        []string
	ReimplementationMessagePosted bool
}

// State is the payload threaded through every node, per spec.md §3's
// Workflow State entity.
type State struct {
	WorkflowID string
	Task       TaskRef
	RunID      string // uuid-run-id, the process-generated correlation string
	StepID     int
	DBTaskID   int // I-1: once set, never overwritten
	DBRunID    int // I-1: once set, never overwritten

	Status        string
	CurrentNode   string
	CompletedNodes []string // append-only

	Results Results

	IsReactivation      bool
	ReactivationCount   int
	SourceBranch        string
	ReactivationContext string

	UserLanguage    string
	ProjectLanguage string
	TaskContext     string

	StartedAt       time.Time
	CompletedAt     time.Time
	NodeRetryCount  map[string]int
	RecoveryMode    bool
	CheckpointData  map[string]interface{}

	// maxDebugAttempts is seeded by the Engine from config.LimitsConfig
	// before the first dispatch, so Graph.Next stays a pure function of
	// its State argument (see debugAttemptsLimit in graph.go).
	maxDebugAttempts int
}

// SetMaxDebugAttempts seeds the configured debug-attempt bound onto
// State. Called once by the Engine before the first node dispatch.
func (s *State) SetMaxDebugAttempts(n int) {
	s.maxDebugAttempts = n
}

// TaskRef is the minimal Task projection nodes need; the full ent.Task
// row lives in the Persistence Store and is loaded once by the
// Orchestrator.
type TaskRef struct {
	ID          int
	ExternalID  int
	BoardID     int
	Title       string
	Description string
	RepositoryURL string
	BranchName  string
	TaskType    string
	Priority    string
}

// NewState seeds a fresh State for a new Run. DBTaskID/DBRunID are
// filled in once the Run row exists (I-1); until then they are zero.
func NewState(workflowID string, task TaskRef, runID string) *State {
	return &State{
		WorkflowID:     workflowID,
		Task:           task,
		RunID:          runID,
		Status:         "running",
		NodeRetryCount: map[string]int{},
		Results: Results{
			CodeChanges: map[string]string{},
			PRInfo:      map[string]string{},
		},
		StartedAt: time.Now().UTC(),
	}
}
