package nodes

import (
	"context"
	"os"
	"os/exec"

	"github.com/vydata/orchestrator/pkg/langdetect"
	"github.com/vydata/orchestrator/pkg/workflow"
)

// PrepareEnvironment implements spec.md §4.9 node 1: provisions a
// scratch workspace, clones the repository at the right branch for
// whether this is a fresh run or a reactivation, and best-effort
// installs detected dependencies. It never returns a hard failure —
// any clone/install problem degrades to a minimal scaffold directory so
// the graph can still proceed (analyze-requirements tolerates an empty
// workspace; implement-task just has nothing to build on top of).
func (d *Deps) PrepareEnvironment(ctx context.Context, s *workflow.State) (workflow.Delta, error) {
	branch := s.Task.BranchName
	sourceBranch := s.SourceBranch
	if sourceBranch == "" {
		sourceBranch = "main"
	}

	cloneBranch := branch
	if s.IsReactivation {
		cloneBranch = sourceBranch
	}

	client, ws, err := d.newWorkspaceClient(ctx, s.RunID, s.Task.RepositoryURL, cloneBranch)
	if err != nil {
		if mkErr := os.MkdirAll(d.workspacePath(s.RunID), 0o755); mkErr != nil {
			return workflow.Delta{
				ErrorLogsAdd: []string{d.mask("prepare-environment: clone failed and scaffold could not be created: " + err.Error())},
			}, nil
		}
		return workflow.Delta{
			ErrorLogsAdd: []string{d.mask("prepare-environment: clone failed, continuing in fallback-mode: " + err.Error())},
		}, nil
	}

	if !s.IsReactivation {
		if err := client.Checkout(branch, true); err != nil {
			return workflow.Delta{
				ErrorLogsAdd: []string{d.mask("prepare-environment: branch checkout failed, continuing in fallback-mode: " + err.Error())},
			}, nil
		}
	}

	profile := langdetect.Detect(ws)
	if len(profile.InstallCommand) > 0 {
		cmd := exec.CommandContext(ctx, profile.InstallCommand[0], profile.InstallCommand[1:]...)
		cmd.Dir = ws
		// Best-effort: a failed dependency install does not abort the
		// run, per spec.md §4.9 ("never fatal"); run-tests will simply
		// report whatever the unvendored toolchain can still manage.
		_ = cmd.Run()
	}

	return workflow.Delta{}, nil
}

func (d *Deps) mask(text string) string {
	return d.Masking.Mask(text)
}
