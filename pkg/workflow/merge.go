package workflow

// Delta is a node's proposed partial update to State.Results. Every
// field is a pointer/nil-able so a node only has to set what it
// actually changed; Apply implements the per-key merge semantics
// spec.md §3 lists for the Workflow State (later-wins for scalars,
// extend for the message/log/test-result sequences, union for
// modified-files).
type Delta struct {
	RequirementsAnalysis *string
	CodeChanges          map[string]string
	ModifiedFilesAdd     []string
	AIMessagesAdd        []string
	ErrorLogsAdd         []string
	TestResultAppend     *TestResultRecord
	NoTestsFound         *bool
	DebugAttemptsDelta   int
	HumanDebugAttemptsDelta int
	DebugLimitReached    *bool
	QualityScore         *int
	BrowserQA            map[string]interface{}
	PRInfo               map[string]string
	TestSuccess          *bool
	ImplementationSuccess *bool
	ShouldMerge          *bool
	HumanDecision        *string
	MergeSuccessful      *bool
	MondayFinalStatus    *string
	ReimplementWithModifications *bool
	ModificationInstructions    *string
	RejectionCount       *int
	ShouldRetryWorkflow  *bool
	WorkflowTerminated   *bool
	QueueID              *string
	ValidationID         *string
	OpenAIDebugCompleted *bool
	TriggerReimplementation *bool
	HumanOverrideAdd     []string
	ReimplementationMessagePosted *bool
}

// Apply merges d onto s.Results in place, then appends nodeName to
// s.CompletedNodes (append-only, per spec.md §3).
func (s *State) Apply(nodeName string, d Delta) {
	r := &s.Results

	if d.RequirementsAnalysis != nil {
		r.RequirementsAnalysis = *d.RequirementsAnalysis
	}
	for path, content := range d.CodeChanges {
		if r.CodeChanges == nil {
			r.CodeChanges = map[string]string{}
		}
		r.CodeChanges[path] = content
	}
	r.ModifiedFiles = unionStrings(r.ModifiedFiles, d.ModifiedFilesAdd)
	r.AIMessages = append(r.AIMessages, d.AIMessagesAdd...)
	r.ErrorLogs = append(r.ErrorLogs, d.ErrorLogsAdd...)
	if d.TestResultAppend != nil {
		r.TestResults = append(r.TestResults, *d.TestResultAppend)
	}
	if d.NoTestsFound != nil {
		r.NoTestsFound = *d.NoTestsFound
	}
	r.DebugAttempts += d.DebugAttemptsDelta
	r.HumanDebugAttempts += d.HumanDebugAttemptsDelta
	if d.DebugLimitReached != nil {
		r.DebugLimitReached = *d.DebugLimitReached
	}
	if d.QualityScore != nil {
		r.QualityScore = *d.QualityScore
	}
	for k, v := range d.BrowserQA {
		if r.BrowserQA == nil {
			r.BrowserQA = map[string]interface{}{}
		}
		r.BrowserQA[k] = v
	}
	for k, v := range d.PRInfo {
		if r.PRInfo == nil {
			r.PRInfo = map[string]string{}
		}
		r.PRInfo[k] = v
	}
	if d.TestSuccess != nil {
		r.TestSuccess = *d.TestSuccess
	}
	if d.ImplementationSuccess != nil {
		r.ImplementationSuccess = *d.ImplementationSuccess
	}
	if d.ShouldMerge != nil {
		r.ShouldMerge = *d.ShouldMerge
	}
	if d.HumanDecision != nil {
		r.HumanDecision = *d.HumanDecision
	}
	if d.MergeSuccessful != nil {
		r.MergeSuccessful = *d.MergeSuccessful
	}
	if d.MondayFinalStatus != nil {
		r.MondayFinalStatus = *d.MondayFinalStatus
	}
	if d.ReimplementWithModifications != nil {
		r.ReimplementWithModifications = *d.ReimplementWithModifications
	}
	if d.ModificationInstructions != nil {
		r.ModificationInstructions = *d.ModificationInstructions
	}
	if d.RejectionCount != nil {
		r.RejectionCount = *d.RejectionCount
	}
	if d.ShouldRetryWorkflow != nil {
		r.ShouldRetryWorkflow = *d.ShouldRetryWorkflow
	}
	if d.WorkflowTerminated != nil {
		r.WorkflowTerminated = *d.WorkflowTerminated
	}
	if d.QueueID != nil {
		r.QueueID = *d.QueueID
	}
	if d.ValidationID != nil {
		r.ValidationID = *d.ValidationID
	}
	if d.OpenAIDebugCompleted != nil {
		r.OpenAIDebugCompleted = *d.OpenAIDebugCompleted
	}
	if d.TriggerReimplementation != nil {
		r.TriggerReimplementation = *d.TriggerReimplementation
	}
	r.HumanOverride = append(r.HumanOverride, d.HumanOverrideAdd...)
	if d.ReimplementationMessagePosted != nil {
		r.ReimplementationMessagePosted = *d.ReimplementationMessagePosted
	}

	s.CompletedNodes = append(s.CompletedNodes, nodeName)
	s.CurrentNode = nodeName
}

// unionStrings appends only the elements of add not already present
// in base, preserving base's existing order (set semantics per
// spec.md §3's modified-files key; order is explicitly not
// guaranteed, but stable output makes tests deterministic).
func unionStrings(base, add []string) []string {
	seen := make(map[string]struct{}, len(base))
	for _, v := range base {
		seen[v] = struct{}{}
	}
	out := base
	for _, v := range add {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
