package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codemcp-dev/codemcp/internal/errs"
)

func TestEditFile_SingleOccurrenceReplace(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)

	path := filepath.Join(dir, "README.md")
	_, err := ts.EditFile(context.Background(), EditFileParams{
		Path:        path,
		OldString:   "hello",
		NewString:   "goodbye",
		Description: "swap greeting",
	})
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "goodbye\n", string(content))
}

func TestEditFile_RefusesUntracked(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)

	stray := filepath.Join(dir, "stray.txt")
	require.NoError(t, os.WriteFile(stray, []byte("hello\n"), 0o644))

	_, err := ts.EditFile(context.Background(), EditFileParams{
		Path:      stray,
		OldString: "hello",
		NewString: "bye",
	})
	assert.ErrorIs(t, err, errs.ErrNotTracked)

	content, err := os.ReadFile(stray)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(content))
}

func TestEditFile_AmbiguousMatchRefused(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)

	path := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(path, []byte("hello hello hello\n"), 0o644))

	_, err := ts.EditFile(context.Background(), EditFileParams{
		Path:      path,
		OldString: "hello",
		NewString: "world",
	})
	assert.ErrorIs(t, err, errs.ErrAmbiguousMatch)
}
