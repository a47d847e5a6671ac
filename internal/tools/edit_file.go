package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/codemcp-dev/codemcp/internal/editengine"
	"github.com/codemcp-dev/codemcp/internal/errs"
	"github.com/codemcp-dev/codemcp/internal/guard"
	"github.com/codemcp-dev/codemcp/internal/lineendings"
)

// EditFileParams are the parameters of the EditFile operation (spec.md §6).
type EditFileParams struct {
	Path        string `json:"path" jsonschema:"Absolute path to the file to edit"`
	OldString   string `json:"old_string" jsonschema:"The exact text to replace; empty to create a new file"`
	NewString   string `json:"new_string" jsonschema:"The replacement text"`
	Description string `json:"description" jsonschema:"Short description of the change, used as the commit description"`
	ChatID      string `json:"chat_id" jsonschema:"The session's chat identifier"`
}

// EditFile performs the single-occurrence tolerant replace of spec.md §4.2
// against path, writes the result with the file's line-ending policy
// reapplied, and commits the change per spec.md §4.3/§4.4.
func (t *Toolset) EditFile(ctx context.Context, p EditFileParams) (string, error) {
	return t.track(ctx, "EditFile", func() (string, error) {
		t.mu.Lock()
		defer t.mu.Unlock()

		repo, err := t.openRepo()
		if err != nil {
			return "", err
		}
		path, err := t.guardMutating(repo, p.Path)
		if err != nil {
			return "", err
		}
		if err := t.checkStaleRead(path); err != nil {
			return "", err
		}

		existed := fileExists(path)
		if !existed && strings.TrimSpace(p.OldString) != "" {
			return "", fmt.Errorf("%w: %s does not exist and old_string is non-empty", errs.ErrNotFound, path)
		}

		var content string
		var style lineendings.Style
		if existed {
			raw, err := os.ReadFile(path) //nolint:gosec // path has passed the guard layer
			if err != nil {
				return "", fmt.Errorf("%w: %v", errs.ErrGitOperationFailed, err)
			}
			style = lineendings.DetectFile(path)
			content = lineendings.NormalizeToLF(string(raw))
		} else {
			style = lineendings.Preference(path)
			if err := guard.EnsureParentDir(path); err != nil {
				return "", err
			}
		}

		updated, hunks, err := editengine.Apply(content, lineendings.NormalizeToLF(p.OldString), lineendings.NormalizeToLF(p.NewString))
		if err != nil {
			return "", err
		}

		final := lineendings.Apply(stripTrailingWhitespacePerLine(updated), style)
		if err := os.WriteFile(path, []byte(final), 0o644); err != nil { //nolint:gosec // mode matches a normal tracked source file
			return "", fmt.Errorf("%w: writing %s: %v", errs.ErrGitOperationFailed, path, err)
		}

		t.recordRead(path)

		engine := commitEngine(repo)
		result, err := engine.Commit([]string{relPath(t.RepoRoot, path)}, false, p.ChatID, p.Description)
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("Edited %s (%d hunk(s)). %s", path, len(hunks), describeCommit(result, "Committed")), nil
	})
}
