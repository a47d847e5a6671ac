package tools

import (
	"context"
	"fmt"
	"os"

	"github.com/codemcp-dev/codemcp/internal/errs"
	"github.com/codemcp-dev/codemcp/internal/shellrun"
)

// RMParams are the parameters of the RM operation (spec.md §6).
type RMParams struct {
	Path        string `json:"path" jsonschema:"Absolute path to the tracked file to remove"`
	Description string `json:"description" jsonschema:"Short description of why the file is being removed"`
	ChatID      string `json:"chat_id" jsonschema:"The session's chat identifier"`
}

// RM removes a tracked file with git rm and commits the removal, per
// original_source/codemcp/tools/rm.py.
func (t *Toolset) RM(ctx context.Context, p RMParams) (string, error) {
	return t.track(ctx, "RM", func() (string, error) {
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

		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("%w: %s", errs.ErrNotFound, path)
		}
		if info.IsDir() {
			return "", fmt.Errorf("%w: %s", errs.ErrIsADirectory, path)
		}

		rel := relPath(t.RepoRoot, path)
		if res, err := shellrun.Run(ctx, t.RepoRoot, "git", "rm", "--", rel); err != nil {
			return "", fmt.Errorf("%w: git rm: %v", errs.ErrCommandFailed, err)
		} else if res.ExitCode != 0 {
			return "", &errs.CommandFailedError{Command: []string{"git", "rm", rel}, Stdout: res.Stdout, Stderr: res.Stderr}
		}

		t.readTimestamps.Delete(path)

		engine := commitEngine(repo)
		result, err := engine.Commit(nil, false, p.ChatID, fmt.Sprintf("Remove %s: %s", rel, p.Description))
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("Removed %s. %s", rel, describeCommit(result, "Committed")), nil
	})
}
