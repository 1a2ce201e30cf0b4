package workflow

import "fmt"

// END is the synthetic terminal node name.
const END = "END"

// Node names — contracts per spec.md §4.9.
const (
	NodePrepareEnvironment       = "prepare-environment"
	NodeAnalyzeRequirements      = "analyze-requirements"
	NodeImplementTask            = "implement-task"
	NodeRunTests                 = "run-tests"
	NodeDebugCode                = "debug-code"
	NodeQualityAssuranceAutomation = "quality-assurance-automation"
	NodeBrowserQualityAssurance  = "browser-quality-assurance"
	NodeFinalizePR               = "finalize-pr"
	NodeMondayValidation         = "monday-validation"
	NodeOpenAIDebug              = "openai-debug"
	NodeMergeAfterValidation     = "merge-after-validation"
	NodeUpdateMonday             = "update-monday"
)

// Graph declares the fixed set of nodes, their linear edges, and the
// three conditional routers spec.md §4.9 names. It enforces the
// node-dispatch safety limit (I-5); global and per-node timeouts are
// the Engine's responsibility (§4.10), not the Graph's.
type Graph struct {
	nodes           map[string]NodeFunc
	linearNext      map[string]string
	routers         map[string]func(*State) string
	maxNodes        int
}

// NewGraph wires the 12-node graph from a table of node
// implementations. Every name in the table must match one of the
// Node* constants; missing entries fail fast at construction, not at
// dispatch time mid-run.
func NewGraph(impls map[string]NodeFunc, maxNodes int) (*Graph, error) {
	required := []string{
		NodePrepareEnvironment, NodeAnalyzeRequirements, NodeImplementTask,
		NodeRunTests, NodeDebugCode, NodeQualityAssuranceAutomation,
		NodeBrowserQualityAssurance, NodeFinalizePR, NodeMondayValidation,
		NodeOpenAIDebug, NodeMergeAfterValidation, NodeUpdateMonday,
	}
	for _, name := range required {
		if impls[name] == nil {
			return nil, fmt.Errorf("workflow graph: missing implementation for node %q", name)
		}
	}

	g := &Graph{
		nodes:    impls,
		maxNodes: maxNodes,
		linearNext: map[string]string{
			NodePrepareEnvironment:         NodeAnalyzeRequirements,
			NodeAnalyzeRequirements:        NodeImplementTask,
			NodeImplementTask:              NodeRunTests,
			NodeQualityAssuranceAutomation: NodeBrowserQualityAssurance,
			NodeBrowserQualityAssurance:    NodeFinalizePR,
			NodeFinalizePR:                 NodeMondayValidation,
			NodeMergeAfterValidation:       NodeUpdateMonday,
			NodeUpdateMonday:               END,
		},
	}
	g.routers = map[string]func(*State) string{
		NodeRunTests:         shouldDebug,
		NodeMondayValidation: shouldMergeOrDebugAfterValidation,
		NodeOpenAIDebug:      shouldContinueAfterOpenAIDebug,
	}
	return g, nil
}

// Next resolves the node that should run after nodeName completed,
// given the current State. Returns END when the graph has reached a
// terminal node or the safety limit has been breached.
func (g *Graph) Next(nodeName string, s *State) string {
	if len(s.CompletedNodes) >= g.maxNodes {
		return END
	}
	if router, ok := g.routers[nodeName]; ok {
		switch nodeName {
		case NodeRunTests:
			switch router(s) {
			case "debug":
				return NodeDebugCode
			case "end":
				return END
			default: // "continue"
				return NodeQualityAssuranceAutomation
			}
		case NodeMondayValidation:
			switch router(s) {
			case "merge":
				return NodeMergeAfterValidation
			case "debug":
				return NodeOpenAIDebug
			case "implement":
				return NodeImplementTask
			case "end":
				return END
			default: // "update-only"
				return NodeUpdateMonday
			}
		case NodeOpenAIDebug:
			switch router(s) {
			case "implement":
				return NodeImplementTask
			case "retest":
				return NodeRunTests
			case "end":
				return END
			default: // "update-only"
				return NodeUpdateMonday
			}
		}
	}
	if next, ok := g.linearNext[NodeDebugCode]; ok && nodeName == NodeDebugCode {
		return next
	}
	if nodeName == NodeDebugCode {
		return NodeRunTests
	}
	if next, ok := g.linearNext[nodeName]; ok {
		return next
	}
	return END
}

// Impl returns the node implementation for name, or nil if unknown.
func (g *Graph) Impl(name string) NodeFunc {
	return g.nodes[name]
}

// shouldDebug implements spec.md §4.9's `_should-debug`.
func shouldDebug(s *State) string {
	results := s.Results.TestResults
	if len(results) == 0 {
		return "continue"
	}
	last := results[len(results)-1]
	if last.Total == 0 {
		return "continue"
	}
	if last.Success {
		return "continue"
	}
	if limit := debugAttemptsLimit(s); s.Results.DebugAttempts >= limit {
		note := fmt.Sprintf("Tests échoués après %d tentatives de debug", limit)
		if !containsString(s.Results.ErrorLogs, note) {
			s.Results.ErrorLogs = append(s.Results.ErrorLogs, note)
		}
		return "continue"
	}
	return "debug"
}

func containsString(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

// debugAttemptsLimit is threaded through State rather than read from
// global config, so the graph stays a pure function of its input —
// the Engine is the one place that knows the configured limit and
// seeds it onto State before the first dispatch.
func debugAttemptsLimit(s *State) int {
	if s.maxDebugAttempts > 0 {
		return s.maxDebugAttempts
	}
	return 2
}

// shouldMergeOrDebugAfterValidation implements spec.md §4.9's
// `_should-merge-or-debug-after-monday-validation`. Human authority
// wins: an approved decision always routes to merge even when open
// issues are detected, with the issues recorded as a human-override
// note rather than blocking the merge.
func shouldMergeOrDebugAfterValidation(s *State) string {
	decision := normalizeDecision(s.Results.HumanDecision)

	switch decision {
	case "abandoned":
		return "end"
	case "error", "timeout":
		return "update-only"
	case "rejected-with-retry":
		if s.Results.RejectionCount < 3 {
			return "implement"
		}
		return "update-only"
	case "rejected":
		return "update-only"
	case "debug":
		return "debug"
	case "approved":
		if issues := openIssues(s); len(issues) > 0 {
			s.Results.HumanOverride = append(s.Results.HumanOverride, issues...)
		}
		return "merge"
	}
	return "update-only"
}

// openIssues inspects the open-issue conditions spec.md §4.9 lists for
// the "approved" branch (last test failed, error-logs non-empty, PR
// missing, quality score below 30). Human authority still wins — the
// caller always routes to merge regardless of what this returns — but
// the issues are recorded for the completion comment.
func openIssues(s *State) []string {
	var issues []string
	if results := s.Results.TestResults; len(results) > 0 {
		last := results[len(results)-1]
		if last.Total > 0 && !last.Success {
			issues = append(issues, "last test run failed")
		}
	}
	if len(s.Results.ErrorLogs) > 0 {
		issues = append(issues, "error logs present")
	}
	if len(s.Results.PRInfo) == 0 {
		issues = append(issues, "pull request missing")
	}
	if s.Results.QualityScore < 30 {
		issues = append(issues, "quality score below threshold")
	}
	return issues
}

// normalizeDecision maps legacy decision labels onto the current
// vocabulary — "approve_auto" predates the auto-approve policy
// renaming in the Notification Coordinator.
func normalizeDecision(decision string) string {
	if decision == "approve_auto" {
		return "approved"
	}
	return decision
}

// shouldContinueAfterOpenAIDebug implements spec.md §4.9's
// `_should-continue-after-openai-debug`.
func shouldContinueAfterOpenAIDebug(s *State) string {
	if s.Results.TriggerReimplementation {
		return "implement"
	}
	if s.Results.DebugLimitReached || !s.Results.OpenAIDebugCompleted {
		return "update-only"
	}
	return "retest"
}
