package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLevel_DebugLevelWins(t *testing.T) {
	t.Setenv("DESKAID_DEBUG_LEVEL", "warn")
	t.Setenv("DESKAID_DEBUG", "1")
	assert.Equal(t, slog.LevelWarn, resolveLevel())
}

func TestResolveLevel_TruthyDebugEnablesDebug(t *testing.T) {
	t.Setenv("DESKAID_DEBUG_LEVEL", "")
	t.Setenv("DESKAID_DEBUG", "true")
	assert.Equal(t, slog.LevelDebug, resolveLevel())
}

func TestResolveLevel_DefaultsToInfo(t *testing.T) {
	t.Setenv("DESKAID_DEBUG_LEVEL", "")
	t.Setenv("DESKAID_DEBUG", "")
	assert.Equal(t, slog.LevelInfo, resolveLevel())
}

func TestIsTruthy(t *testing.T) {
	for _, s := range []string{"0", "false", "no", "off", ""} {
		assert.Falsef(t, isTruthy(s), "expected %q to be falsy", s)
	}
	for _, s := range []string{"1", "true", "yes", "on", "anything"} {
		assert.Truef(t, isTruthy(s), "expected %q to be truthy", s)
	}
}

func TestInit_WritesLogFileUnderRepoRoot(t *testing.T) {
	dir := t.TempDir()
	Init(dir, "chat-123")
	Info(context.Background(), "hello")

	data, err := os.ReadFile(filepath.Join(dir, LogsDir, "chat-123.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestWithChatIDAndTool_AttachAttrs(t *testing.T) {
	ctx := WithChatID(context.Background(), "chat-1")
	ctx = WithTool(ctx, "read_file")
	attrs := attrs(ctx)
	assert.Contains(t, attrs, slog.String("chat_id", "chat-1"))
	assert.Contains(t, attrs, slog.String("tool", "read_file"))
}
