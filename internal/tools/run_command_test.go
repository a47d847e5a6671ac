package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommand_RunsConfiguredCommand(t *testing.T) {
	dir := initRepo(t)
	toml := "[commands.greet]\ncommand = [\"echo\", \"hi\"]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "codemcp.toml"), []byte(toml), 0o644))
	ts := newTestToolset(dir)

	result, err := ts.RunCommand(context.Background(), RunCommandParams{
		Path:    dir,
		Command: "greet",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "hi")
}

func TestRunCommand_UnknownCommand(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)

	_, err := ts.RunCommand(context.Background(), RunCommandParams{Path: dir, Command: "does-not-exist"})
	assert.Error(t, err)
}

func TestShlexSplit(t *testing.T) {
	words, err := shlexSplit(`-n 5 "hello world" 'quoted'`)
	require.NoError(t, err)
	assert.Equal(t, []string{"-n", "5", "hello world", "quoted"}, words)
}

func TestShlexSplit_UnterminatedQuote(t *testing.T) {
	_, err := shlexSplit(`"unterminated`)
	assert.Error(t, err)
}
