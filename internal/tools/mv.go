package tools

import (
	"context"
	"fmt"
	"os"

	"github.com/codemcp-dev/codemcp/internal/errs"
	"github.com/codemcp-dev/codemcp/internal/guard"
	"github.com/codemcp-dev/codemcp/internal/shellrun"
)

// MVParams are the parameters of the MV operation (spec.md §6).
type MVParams struct {
	SourcePath  string `json:"source_path" jsonschema:"Absolute path to the tracked file to move"`
	TargetPath  string `json:"target_path" jsonschema:"Absolute destination path within the repository"`
	Description string `json:"description" jsonschema:"Short description of why the file is being moved"`
	ChatID      string `json:"chat_id" jsonschema:"The session's chat identifier"`
}

// MV moves a tracked file with git mv and commits the move, per
// original_source/codemcp/tools/mv.py.
func (t *Toolset) MV(ctx context.Context, p MVParams) (string, error) {
	return t.track(ctx, "MV", func() (string, error) {
		t.mu.Lock()
		defer t.mu.Unlock()

		repo, err := t.openRepo()
		if err != nil {
			return "", err
		}

		source, err := t.guardMutating(repo, p.SourcePath)
		if err != nil {
			return "", err
		}
		info, err := os.Stat(source)
		if err != nil {
			return "", fmt.Errorf("%w: %s", errs.ErrNotFound, source)
		}
		if info.IsDir() {
			return "", fmt.Errorf("%w: %s", errs.ErrIsADirectory, source)
		}

		target, err := guard.Normalise(p.TargetPath)
		if err != nil {
			return "", err
		}
		if err := guard.Permission(target, t.RepoRoot); err != nil {
			return "", err
		}
		if _, err := guard.Containment(target, t.RepoRoot); err != nil {
			return "", err
		}
		if err := guard.EnsureParentDir(target); err != nil {
			return "", err
		}

		sourceRel := relPath(t.RepoRoot, source)
		targetRel := relPath(t.RepoRoot, target)

		if res, err := shellrun.Run(ctx, t.RepoRoot, "git", "mv", sourceRel, targetRel); err != nil {
			return "", fmt.Errorf("%w: git mv: %v", errs.ErrCommandFailed, err)
		} else if res.ExitCode != 0 {
			return "", &errs.CommandFailedError{Command: []string{"git", "mv", sourceRel, targetRel}, Stdout: res.Stdout, Stderr: res.Stderr}
		}

		t.readTimestamps.Delete(source)
		t.recordRead(target)

		engine := commitEngine(repo)
		result, err := engine.Commit(nil, false, p.ChatID, fmt.Sprintf("Move %s -> %s: %s", sourceRel, targetRel, p.Description))
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("Moved %s to %s. %s", sourceRel, targetRel, describeCommit(result, "Committed")), nil
	})
}
