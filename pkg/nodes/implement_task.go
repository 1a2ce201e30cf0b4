package nodes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/vydata/orchestrator/pkg/workflow"
)

// fileBlock matches one "### path/to/file.go" heading followed by a
// fenced code block, the convention implement-task's prompt asks the
// model to follow so its response can be mechanically split back into
// files.
var fileBlock = regexp.MustCompile("(?s)### ([^\\n]+)\\n```[a-zA-Z0-9]*\\n(.*?)\\n```")

// ImplementTask implements spec.md §4.9 node 3: an LLM call that
// produces file edits, written directly into the run's cloned
// workspace. When results.reimplement-with-modifications was set by an
// earlier human-rejection pass, results.modification-instructions
// becomes the primary directive instead of the original task
// description.
func (d *Deps) ImplementTask(ctx context.Context, s *workflow.State) (workflow.Delta, error) {
	client, err := d.workspaceClient(s.RunID)
	if err != nil {
		return workflow.Delta{}, workflow.Permanent(fmt.Errorf("implement-task: %w", err))
	}

	directive := fmt.Sprintf("Title: %s\nDescription: %s", s.Task.Title, s.Task.Description)
	if s.Results.ReimplementWithModifications && s.Results.ModificationInstructions != "" {
		directive = "Apply these reviewer-requested modifications instead of the original description:\n" +
			s.Results.ModificationInstructions
	}

	prompt := fmt.Sprintf(
		"%s\n\nPlanning analysis:\n%s\n\n"+
			"Write the complete contents of every file you need to add or change. "+
			"For each file, output a heading line \"### <relative/path>\" followed by a "+
			"fenced code block containing the file's full new contents.",
		directive, s.Results.RequirementsAnalysis,
	)

	res, err := d.LLM.Complete(ctx, prompt, d.Config.LLM.MaxTokens)
	if err != nil {
		return workflow.Delta{}, fmt.Errorf("implement-task: llm call failed: %w", err)
	}
	d.logLLM(ctx, s.StepID, prompt, res)

	changes := parseFileBlocks(res.Content)
	if len(changes) == 0 {
		return workflow.Delta{
			ErrorLogsAdd: []string{d.mask("implement-task: model response contained no file blocks")},
		}, nil
	}

	modified := make([]string, 0, len(changes))
	for path, content := range changes {
		full := filepath.Join(client.Workspace(), path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return workflow.Delta{}, fmt.Errorf("implement-task: create directory for %s: %w", path, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return workflow.Delta{}, fmt.Errorf("implement-task: write %s: %w", path, err)
		}
		modified = append(modified, path)
	}

	generationType := "initial"
	if s.Results.DebugAttempts > 0 {
		generationType = "modification"
	}
	_, _ = d.Store.CodeGen.LogGeneration(ctx, codeGenInput(s.DBRunID, generationType, modified, res))

	return workflow.Delta{
		CodeChanges:      changes,
		ModifiedFilesAdd: modified,
	}, nil
}

func parseFileBlocks(content string) map[string]string {
	out := map[string]string{}
	for _, m := range fileBlock.FindAllStringSubmatch(content, -1) {
		path := strings.TrimSpace(m[1])
		if path == "" {
			continue
		}
		out[path] = m[2]
	}
	return out
}
