// Package nodes implements the twelve workflow-graph node contracts
// named in spec.md §4.9, wiring each to the outbound collaborators
// constructed at process startup. Grounded on the teacher's worker/
// session split generalized in pkg/workflow, each node here plays the
// role one stage of the teacher's alert-processing pipeline played —
// an LLM call, a persistence write, an external collaborator call —
// but against this domain's implement/test/validate/merge lifecycle
// instead of an alert investigation.
package nodes

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/vydata/orchestrator/pkg/browserqa"
	"github.com/vydata/orchestrator/pkg/config"
	"github.com/vydata/orchestrator/pkg/git"
	"github.com/vydata/orchestrator/pkg/github"
	"github.com/vydata/orchestrator/pkg/llm"
	"github.com/vydata/orchestrator/pkg/masking"
	"github.com/vydata/orchestrator/pkg/monday"
	"github.com/vydata/orchestrator/pkg/notify"
	"github.com/vydata/orchestrator/pkg/runbook"
	"github.com/vydata/orchestrator/pkg/slack"
	"github.com/vydata/orchestrator/pkg/store"
	"github.com/vydata/orchestrator/pkg/vectorstore"
)

// QueueWaiter is the subset of *queue.ExternalQueue the
// monday-validation node needs, accepted as an interface so this
// package never imports pkg/queue (which itself owns the Engine's
// dispatch loop one layer above these node implementations).
type QueueWaiter interface {
	MarkWaitingValidation(externalID int, queueID string)
}

// Deps bundles every collaborator a node implementation needs. A zero
// Deps is not usable; construct with NewDeps.
type Deps struct {
	WorkspaceRoot string
	AuthorName    string
	AuthorEmail   string
	GitHubToken   string // resolved from config.GitHubConfig.TokenEnv at wiring time

	GitHub     *github.Client
	Monday     *monday.Client
	LLM        *llm.FallbackClient
	Store      *store.Store
	Validation *store.ValidationStore
	Notify     *notify.Coordinator
	Slack      *slack.Service
	Vector     *vectorstore.Store
	Browser    browserqa.Runner
	Masking    *masking.Service
	Config     *config.Config
	Queue      QueueWaiter
	Runbook    *runbook.GitHubClient

	mu         sync.Mutex
	workspaces map[string]*git.Client
}

// NewDeps constructs a Deps with its internal workspace registry
// initialized.
func NewDeps(workspaceRoot, authorName, authorEmail string) *Deps {
	return &Deps{
		WorkspaceRoot: workspaceRoot,
		AuthorName:    authorName,
		AuthorEmail:   authorEmail,
		workspaces:    make(map[string]*git.Client),
	}
}

// workspacePath is the deterministic, per-run scratch directory —
// derived from RunID rather than stored on State, since it is always
// recoverable from RunID alone (spec.md §5 "working-directory is
// per-Run and is not shared across workflows").
func (d *Deps) workspacePath(runID string) string {
	return filepath.Join(d.WorkspaceRoot, runID)
}

// newWorkspaceClient clones url at branch into runID's workspace and
// registers the resulting Client for later nodes in the same run.
func (d *Deps) newWorkspaceClient(ctx context.Context, runID, url, branch string) (*git.Client, string, error) {
	ws := d.workspacePath(runID)
	client := git.NewClient(d.AuthorName, d.AuthorEmail)
	if err := client.Clone(ctx, url, branch, ws); err != nil {
		return nil, ws, err
	}
	d.mu.Lock()
	d.workspaces[runID] = client
	d.mu.Unlock()
	return client, ws, nil
}

// workspaceClient returns the live *git.Client a prior node in this run
// registered, reopening it from disk when the registering node ran in
// an earlier process (e.g. an engine restart resuming from a
// checkpoint) — see pkg/git.Client.Open's doc comment.
func (d *Deps) workspaceClient(runID string) (*git.Client, error) {
	d.mu.Lock()
	c, ok := d.workspaces[runID]
	d.mu.Unlock()
	if ok {
		return c, nil
	}

	c = git.NewClient(d.AuthorName, d.AuthorEmail)
	if err := c.Open(d.workspacePath(runID)); err != nil {
		return nil, fmt.Errorf("no workspace registered for run %s and none on disk: %w", runID, err)
	}
	d.mu.Lock()
	d.workspaces[runID] = c
	d.mu.Unlock()
	return c, nil
}

// releaseWorkspace drops a completed run's registered client. The
// scratch directory itself is left on disk for the retention sweep
// (out of this package's scope) to reap.
func (d *Deps) releaseWorkspace(runID string) {
	d.mu.Lock()
	delete(d.workspaces, runID)
	d.mu.Unlock()
}

// ownerRepo splits a GitHub URL of either
// "https://github.com/owner/repo[.git]" or "git@github.com:owner/repo.git"
// shape into its owner and repo components.
func ownerRepo(url string) (owner, repo string, err error) {
	trimmed := url
	for _, prefix := range []string{"https://github.com/", "http://github.com/", "git@github.com:"} {
		if len(trimmed) > len(prefix) && trimmed[:len(prefix)] == prefix {
			trimmed = trimmed[len(prefix):]
			break
		}
	}
	trimmed = trimTrailingGit(trimmed)
	parts := splitOnce(trimmed, '/')
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("cannot parse owner/repo from url %q", url)
	}
	return parts[0], parts[1], nil
}

func trimTrailingGit(s string) string {
	const suffix = ".git"
	if len(s) > len(suffix) && s[len(s)-len(suffix):] == suffix {
		return s[:len(s)-len(suffix)]
	}
	return s
}

func splitOnce(s string, sep byte) []string {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return []string{s[:i], s[i+1:]}
		}
	}
	return []string{s}
}
