package nodes

import "github.com/vydata/orchestrator/pkg/workflow"

// Impls returns the table of node implementations keyed by the
// workflow.Node* contract names, ready to hand to workflow.NewGraph.
// Kept as a small method on Deps rather than inline in cmd/main.go so
// the node-name-to-method wiring lives next to the node definitions
// themselves.
func (d *Deps) Impls() map[string]workflow.NodeFunc {
	return map[string]workflow.NodeFunc{
		workflow.NodePrepareEnvironment:          d.PrepareEnvironment,
		workflow.NodeAnalyzeRequirements:         d.AnalyzeRequirements,
		workflow.NodeImplementTask:               d.ImplementTask,
		workflow.NodeRunTests:                    d.RunTests,
		workflow.NodeDebugCode:                   d.DebugCode,
		workflow.NodeQualityAssuranceAutomation:  d.QualityAssuranceAutomation,
		workflow.NodeBrowserQualityAssurance:     d.BrowserQualityAssurance,
		workflow.NodeFinalizePR:                  d.FinalizePR,
		workflow.NodeMondayValidation:            d.MondayValidation,
		workflow.NodeOpenAIDebug:                 d.OpenAIDebug,
		workflow.NodeMergeAfterValidation:        d.MergeAfterValidation,
		workflow.NodeUpdateMonday:                d.UpdateMonday,
	}
}
