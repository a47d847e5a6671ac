package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPrompt_PlainTextIsAcknowledged(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)

	result, err := ts.UserPrompt(context.Background(), UserPromptParams{UserText: "Please add a feature"})
	require.NoError(t, err)
	assert.Equal(t, "User prompt received", result)
}

func TestUserPrompt_AppliesRepoRules(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "AGENTS.md"), []byte("Always write tests.\n"), 0o644))

	result, err := ts.UserPrompt(context.Background(), UserPromptParams{UserText: "Please add a feature"})
	require.NoError(t, err)
	assert.Contains(t, result, "Always write tests.")
}

func TestUserPrompt_UnknownSlashCommand(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)

	result, err := ts.UserPrompt(context.Background(), UserPromptParams{UserText: "/user:does-not-exist"})
	require.NoError(t, err)
	assert.Contains(t, result, "Unknown slash command: does-not-exist")
}

func TestIsSlashCommand(t *testing.T) {
	assert.True(t, isSlashCommand("/user:foo"))
	assert.True(t, isSlashCommand("  /user:foo"))
	assert.False(t, isSlashCommand("not a command"))
	assert.False(t, isSlashCommand(""))
}
