package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFile_CreatesAndCommits(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)

	path := filepath.Join(dir, "new.txt")
	result, err := ts.WriteFile(context.Background(), WriteFileParams{
		Path:        path,
		Content:     "hello world\n",
		Description: "create new.txt",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "Created")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", string(content))
}

func TestWriteFile_OverwritesExisting(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)

	path := filepath.Join(dir, "README.md")
	result, err := ts.WriteFile(context.Background(), WriteFileParams{
		Path:        path,
		Content:     "updated\n",
		Description: "update readme",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "Wrote")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "updated\n", string(content))
}

func TestWriteFile_RefusesOutsideRepo(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)

	outside := t.TempDir()
	_, err := ts.WriteFile(context.Background(), WriteFileParams{
		Path:    filepath.Join(outside, "evil.txt"),
		Content: "nope",
	})
	assert.Error(t, err)
}

func TestWriteFile_StripsTrailingWhitespace(t *testing.T) {
	got := stripTrailingWhitespacePerLine("a  \nb\t\nc")
	assert.Equal(t, "a\nb\nc\n", got)
}
