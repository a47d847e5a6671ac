package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFile_NumberedLines(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)

	path := filepath.Join(dir, "multi.txt")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0o644))

	result, err := ts.ReadFile(context.Background(), ReadFileParams{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "1\tone\n2\ttwo\n3\tthree", result)
}

func TestReadFile_OffsetAndLimit(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)

	path := filepath.Join(dir, "multi.txt")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\nthree\nfour\n"), 0o644))

	result, err := ts.ReadFile(context.Background(), ReadFileParams{Path: path, Offset: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, "2\ttwo\n3\tthree", result)
}

func TestReadFile_RecordsBaselineForStaleRead(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)

	path := filepath.Join(dir, "README.md")
	_, err := ts.ReadFile(context.Background(), ReadFileParams{Path: path})
	require.NoError(t, err)

	require.NoError(t, ts.checkStaleRead(path))

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))
	err = ts.checkStaleRead(path)
	assert.Error(t, err)
}

func TestSplitPreservingTrailing(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitPreservingTrailing("a\nb\n"))
	assert.Equal(t, []string{"a", "b"}, splitPreservingTrailing("a\nb"))
	assert.Nil(t, splitPreservingTrailing(""))
}
