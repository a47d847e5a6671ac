package tools

import (
	"context"
	"fmt"
	"os"

	"github.com/codemcp-dev/codemcp/internal/errs"
)

const (
	// ChmodModeAddExec removes the need for arbitrary octal modes: git only
	// tracks the user executable bit, so these are the only two modes this
	// tool supports, matching original_source/codemcp/tools/chmod.py.
	ChmodModeAddExec    = "a+x"
	ChmodModeRemoveExec = "a-x"
)

// ChmodParams are the parameters of the Chmod operation (spec.md §6).
type ChmodParams struct {
	Path   string `json:"path" jsonschema:"Absolute path to the file to modify"`
	Mode   string `json:"mode" jsonschema:"Either a+x (add executable permission) or a-x (remove it); these are the only bits git tracks"`
	ChatID string `json:"chat_id" jsonschema:"The session's chat identifier"`
}

// Chmod toggles the user executable bit on path, no-oping if the file is
// already in the desired state, and committing the mode change otherwise.
func (t *Toolset) Chmod(ctx context.Context, p ChmodParams) (string, error) {
	return t.track(ctx, "Chmod", func() (string, error) {
		if p.Mode != ChmodModeAddExec && p.Mode != ChmodModeRemoveExec {
			return "", fmt.Errorf("%w: unsupported chmod mode %q, only %q and %q are supported", errs.ErrPathInvalid, p.Mode, ChmodModeAddExec, ChmodModeRemoveExec)
		}

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

		isExecutable := info.Mode()&0o100 != 0
		wantExecutable := p.Mode == ChmodModeAddExec

		if isExecutable == wantExecutable {
			state := "already executable"
			if !wantExecutable {
				state = "already non-executable"
			}
			return fmt.Sprintf("File %s is %s", path, state), nil
		}

		newMode := info.Mode().Perm()
		if wantExecutable {
			newMode |= 0o111
		} else {
			newMode &^= 0o111
		}
		if err := os.Chmod(path, newMode); err != nil {
			return "", fmt.Errorf("%w: chmod %s: %v", errs.ErrGitOperationFailed, path, err)
		}

		engine := commitEngine(repo)
		rel := relPath(t.RepoRoot, path)
		verb := "Made executable"
		if !wantExecutable {
			verb = "Made non-executable"
		}
		result, err := engine.Commit([]string{rel}, false, p.ChatID, fmt.Sprintf("%s: %s", verb, rel))
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("%s %s. %s", verb, rel, describeCommit(result, "Committed")), nil
	})
}
