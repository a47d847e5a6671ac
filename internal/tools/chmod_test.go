package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChmod_AddsExecutableBit(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)

	path := filepath.Join(dir, "README.md")
	result, err := ts.Chmod(context.Background(), ChmodParams{Path: path, Mode: ChmodModeAddExec})
	require.NoError(t, err)
	assert.Contains(t, result, "Made executable")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o111)
}

func TestChmod_NoOpWhenAlreadyDesiredState(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)

	path := filepath.Join(dir, "README.md")
	result, err := ts.Chmod(context.Background(), ChmodParams{Path: path, Mode: ChmodModeRemoveExec})
	require.NoError(t, err)
	assert.Contains(t, result, "already non-executable")
}

func TestChmod_RejectsUnsupportedMode(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)

	_, err := ts.Chmod(context.Background(), ChmodParams{Path: filepath.Join(dir, "README.md"), Mode: "a+rwx"})
	assert.Error(t, err)
}
