package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitLog_ShowsSeedCommit(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)

	result, err := ts.GitLog(context.Background(), GitLogParams{Path: dir, Arguments: "--oneline"})
	require.NoError(t, err)
	assert.Contains(t, result, "seed")
}

func TestGitDiff_CleanTreeIsEmpty(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)

	result, err := ts.GitDiff(context.Background(), GitDiffParams{Path: dir})
	require.NoError(t, err)
	assert.Empty(t, result)
}
