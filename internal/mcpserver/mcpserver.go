// Package mcpserver registers the fourteen internal/tools operations as MCP
// tools and serves them over stdio.
//
// Grounded on cexll-swe-agent/cmd/mcp-comment-server's main.go/handler.go:
// mcp.NewServer + mcp.AddTool per tool + mcp.StdioTransport{} + a
// signal-driven context cancellation for graceful shutdown. That teacher
// registered a single tool by hand; this package generalizes the same
// registration call across every internal/tools operation and adds the
// errs.AsResultString flattening internal/tools' callers rely on so a
// tool failure surfaces as a normal (non-protocol-level) error result,
// matching original_source/codemcp's MCP tools, which always return a
// string result rather than raising a JSON-RPC error.
package mcpserver

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codemcp-dev/codemcp/internal/errs"
	"github.com/codemcp-dev/codemcp/internal/logging"
	"github.com/codemcp-dev/codemcp/internal/tools"
)

// ServerName and ServerVersion identify this process to MCP clients.
const (
	ServerName    = "codemcp"
	ServerVersion = "v0.1.0"
)

// New builds an MCP server with every internal/tools operation registered
// against toolset.
func New(toolset *tools.Toolset) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, nil)

	register(server, "InitProject", "Initialize a coding session: validates the project directory, mints or reuses a chat-id, and returns the system prompt the caller must use for the rest of the session.", toolset.InitProject)
	register(server, "ReadFile", "Read a file's content as numbered lines, with offset/limit windowing and output truncation.", toolset.ReadFile)
	register(server, "WriteFile", "Create or overwrite a file's full content and commit the change.", toolset.WriteFile)
	register(server, "EditFile", "Replace a single occurrence of old_string with new_string in a file, tolerant of whitespace drift, and commit the change.", toolset.EditFile)
	register(server, "LS", "Recursively list a directory's contents as an indented tree.", toolset.LS)
	register(server, "Grep", "Search tracked files for a regular expression using git grep, returning matching file paths.", toolset.Grep)
	register(server, "RM", "Remove a tracked file with git rm and commit the removal.", toolset.RM)
	register(server, "MV", "Move a tracked file with git mv and commit the move.", toolset.MV)
	register(server, "Chmod", "Toggle a file's user-executable bit (a+x / a-x) and commit the change.", toolset.Chmod)
	register(server, "RunCommand", "Run a codemcp.toml-configured command (format, lint, test, ...) under the commutable auto-commit protocol.", toolset.RunCommand)
	register(server, "UserPrompt", "Record the user's verbatim prompt, resolving slash commands and surfacing applicable project rules.", toolset.UserPrompt)
	register(server, "GitLog", "Run a read-only git log.", toolset.GitLog)
	register(server, "GitDiff", "Run a read-only git diff.", toolset.GitDiff)
	register(server, "GitShow", "Run a read-only git show.", toolset.GitShow)
	register(server, "GitBlame", "Run a read-only git blame.", toolset.GitBlame)

	return server
}

// Serve runs toolset's tools over stdio until ctx is cancelled or the
// process receives SIGINT/SIGTERM.
func Serve(ctx context.Context, toolset *tools.Toolset) error {
	server := New(toolset)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			logging.Info(ctx, "received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	return server.Run(ctx, &mcp.StdioTransport{})
}

// register wraps a (context, P) -> (string, error) tool method as an
// MCP tool handler and adds it to server.
func register[P any](server *mcp.Server, name, description string, fn func(context.Context, P) (string, error)) {
	mcp.AddTool(server, &mcp.Tool{Name: name, Description: description}, adapt(fn))
}

// adapt converts a Toolset method into the handler signature mcp.AddTool
// expects, rendering a tool error as a normal (IsError) text result rather
// than a protocol-level failure, since every operation in
// original_source/codemcp's MCP tools reports failures as ordinary string
// results prefixed with "Error:".
func adapt[P any](fn func(context.Context, P) (string, error)) func(context.Context, *mcp.CallToolRequest, P) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, params P) (*mcp.CallToolResult, any, error) {
		result, err := fn(ctx, params)
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: errs.AsResultString(err)}},
				IsError: true,
			}, nil, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: result}},
		}, nil, nil
	}
}
