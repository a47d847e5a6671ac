package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLS_ListsDirectoryTree(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg", "a.go"), []byte("package pkg\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o644))

	result, err := ts.LS(context.Background(), LSParams{Path: dir})
	require.NoError(t, err)
	assert.Contains(t, result, "pkg/")
	assert.Contains(t, result, "a.go")
	assert.NotContains(t, result, ".hidden")
	assert.Contains(t, result, "malicious")
}

func TestShouldSkipLS(t *testing.T) {
	assert.True(t, shouldSkipLS("/a/.git"))
	assert.True(t, shouldSkipLS("/a/__pycache__"))
	assert.False(t, shouldSkipLS("/a/main.go"))
}
