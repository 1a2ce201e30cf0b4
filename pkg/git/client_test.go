package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) (*Client, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello"), 0o644))

	c := &Client{authorName: "bot", authorEmail: "bot@example.com", repo: repo, workspace: dir}
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	_, err = c.Commit("initial commit")
	require.NoError(t, err)
	return c, dir
}

func TestClient_AddAllAndDiffNamesCached(t *testing.T) {
	c, dir := initRepo(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main"), 0o644))
	require.NoError(t, c.AddAll())

	names, err := c.DiffNamesCached()
	require.NoError(t, err)
	require.Contains(t, names, "main.go")
}

func TestClient_DiffNamesCached_EmptyWhenNothingStaged(t *testing.T) {
	c, _ := initRepo(t)

	names, err := c.DiffNamesCached()
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestClient_CheckoutCreatesBranch(t *testing.T) {
	c, _ := initRepo(t)

	require.NoError(t, c.Checkout("feature/x", true))

	head, err := c.repo.Head()
	require.NoError(t, err)
	require.Equal(t, "refs/heads/feature/x", head.Name().String())
}

func TestClient_Commit_ProducesNonEmptyHash(t *testing.T) {
	c, dir := initRepo(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o644))
	require.NoError(t, c.AddAll())

	hash, err := c.Commit("add b")
	require.NoError(t, err)
	require.Len(t, hash, 40)
}
