// Package logging provides the process-wide structured logger for codemcp,
// controlled by the DESKAID_DEBUG and DESKAID_DEBUG_LEVEL environment
// variables named in spec.md §6.
//
// Grounded on the teacher's cmd/entire/cli/logging package: the same
// slog.JSONHandler-over-a-file approach, context-carried request
// attributes, and env-var-controlled level, adapted from Entire's
// per-session log file under .entire/logs to a per-chat-session log file
// under .codemcp/logs, and from Entire's single ENTIRE_LOG_LEVEL variable to
// codemcp's DESKAID_DEBUG/DESKAID_DEBUG_LEVEL pair.
package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LogsDir is the directory (relative to the repository root) log files are
// written under.
const LogsDir = ".codemcp/logs"

type ctxKey int

const (
	chatIDKey ctxKey = iota
	toolNameKey
)

// WithChatID attaches a chat identifier to ctx for automatic inclusion in
// subsequent log records.
func WithChatID(ctx context.Context, chatID string) context.Context {
	return context.WithValue(ctx, chatIDKey, chatID)
}

// WithTool attaches the name of the tool operation currently executing.
func WithTool(ctx context.Context, tool string) context.Context {
	return context.WithValue(ctx, toolNameKey, tool)
}

var (
	mu     sync.RWMutex
	logger *slog.Logger
)

// Init initializes the process-wide logger, writing JSON records to
// <repoRoot>/.codemcp/logs/<chat-id>.log when repoRoot and chatID are both
// non-empty, falling back to stderr otherwise. Level comes from
// DESKAID_DEBUG_LEVEL if set, else DESKAID_DEBUG (any truthy value enables
// DEBUG), else INFO.
func Init(repoRoot, chatID string) {
	mu.Lock()
	defer mu.Unlock()

	level := resolveLevel()

	if repoRoot == "" || chatID == "" {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return
	}

	logsPath := filepath.Join(repoRoot, LogsDir)
	if err := os.MkdirAll(logsPath, 0o755); err != nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return
	}

	f, err := os.OpenFile(filepath.Join(logsPath, chatID+".log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return
	}

	logger = slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
}

func resolveLevel() slog.Level {
	if s := os.Getenv("DESKAID_DEBUG_LEVEL"); s != "" {
		return parseLevel(s)
	}
	if isTruthy(os.Getenv("DESKAID_DEBUG")) {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "off":
		return false
	default:
		return true
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		return slog.Default()
	}
	return logger
}

func attrs(ctx context.Context, extra ...any) []any {
	var all []any
	if ctx != nil {
		if v, ok := ctx.Value(chatIDKey).(string); ok && v != "" {
			all = append(all, slog.String("chat_id", v))
		}
		if v, ok := ctx.Value(toolNameKey).(string); ok && v != "" {
			all = append(all, slog.String("tool", v))
		}
	}
	return append(all, extra...)
}

func Debug(ctx context.Context, msg string, extra ...any) { get().Debug(msg, attrs(ctx, extra...)...) }
func Info(ctx context.Context, msg string, extra ...any)  { get().Info(msg, attrs(ctx, extra...)...) }
func Warn(ctx context.Context, msg string, extra ...any)  { get().Warn(msg, attrs(ctx, extra...)...) }
func Error(ctx context.Context, msg string, extra ...any) { get().Error(msg, attrs(ctx, extra...)...) }
