package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRM_RemovesTrackedFile(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)

	path := filepath.Join(dir, "README.md")
	result, err := ts.RM(context.Background(), RMParams{
		Path:        path,
		Description: "cleanup",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "Removed")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRM_RefusesDirectory(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)

	sub := filepath.Join(dir, "subdir")
	require.NoError(t, os.Mkdir(sub, 0o755))

	_, err := ts.RM(context.Background(), RMParams{Path: sub})
	assert.Error(t, err)
}
