package nodes

import (
	"context"

	"github.com/vydata/orchestrator/pkg/workflow"
)

// BrowserQualityAssurance implements spec.md §4.9 node 7: an optional
// browser-driven QA pass recorded into results.browser-qa. When no
// real Browser collaborator is configured, d.Browser is a
// browserqa.NoopRunner and this node degrades to an all-zero result
// rather than failing the run — the node is explicitly optional per
// spec.md §4.9.
func (d *Deps) BrowserQualityAssurance(ctx context.Context, s *workflow.State) (workflow.Delta, error) {
	baseURL := s.Results.PRInfo["preview_url"]
	if baseURL == "" {
		return workflow.Delta{}, nil
	}

	result, err := d.Browser.Run(ctx, baseURL)
	if err != nil {
		return workflow.Delta{
			ErrorLogsAdd: []string{d.mask("browser-quality-assurance: " + err.Error())},
		}, nil
	}

	blob := map[string]interface{}{
		"tests_total":         result.TestsTotal,
		"tests_passed":        result.TestsPassed,
		"tests_failed":        result.TestsFailed,
		"console_errors":      result.ConsoleErrors,
		"screenshots":         result.Screenshots,
		"performance_metrics": result.PerformanceMetrics,
	}
	return workflow.Delta{BrowserQA: blob}, nil
}
