package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrep_FindsTrackedMatches(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "needle.txt"), []byte("find the needle here\n"), 0o644))
	repo, err := git.PlainOpen(dir)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("needle.txt")
	require.NoError(t, err)
	_, err = wt.Commit("add needle", &git.CommitOptions{Author: &testSignature})
	require.NoError(t, err)

	result, err := ts.Grep(context.Background(), GrepParams{Pattern: "needle", Path: dir})
	require.NoError(t, err)
	assert.Contains(t, result, "needle.txt")
}

func TestGrep_NoMatches(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)

	result, err := ts.Grep(context.Background(), GrepParams{Pattern: "nonexistentpattern", Path: dir})
	require.NoError(t, err)
	assert.Equal(t, "No files found", result)
}
