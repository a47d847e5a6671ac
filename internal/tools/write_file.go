package tools

import (
	"context"
	"fmt"
	"os"

	"github.com/codemcp-dev/codemcp/internal/errs"
	"github.com/codemcp-dev/codemcp/internal/gitrepo"
	"github.com/codemcp-dev/codemcp/internal/guard"
	"github.com/codemcp-dev/codemcp/internal/lineendings"
)

// WriteFileParams are the parameters of the WriteFile operation (spec.md §6).
type WriteFileParams struct {
	Path        string `json:"path" jsonschema:"Absolute path to the file to write"`
	Content     string `json:"content" jsonschema:"The full new content of the file"`
	Description string `json:"description" jsonschema:"Short description of the change, used as the commit description"`
	ChatID      string `json:"chat_id" jsonschema:"The session's chat identifier"`
}

// WriteFile overwrites an existing tracked file, or creates a new one, with
// content, applying the line-ending policy of spec.md §4.7, then commits
// the change per spec.md §4.3/§4.4's decision table.
func (t *Toolset) WriteFile(ctx context.Context, p WriteFileParams) (string, error) {
	return t.track(ctx, "WriteFile", func() (string, error) {
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

		style := lineendings.DetectFile(path)
		if !existed {
			cfg, err := t.loadConfig()
			if err != nil {
				return "", err
			}
			if cfg.LineEndings != "" {
				style = cfg.LineEndings
			} else {
				style = lineendings.Preference(path)
			}
			if err := guard.EnsureParentDir(path); err != nil {
				return "", err
			}
		}

		final := lineendings.Apply(stripTrailingWhitespacePerLine(p.Content), style)
		if err := os.WriteFile(path, []byte(final), 0o644); err != nil { //nolint:gosec // mode matches a normal tracked source file
			return "", fmt.Errorf("%w: writing %s: %v", errs.ErrGitOperationFailed, path, err)
		}

		t.recordRead(path)

		engine := commitEngine(repo)
		result, err := engine.Commit([]string{relPath(t.RepoRoot, path)}, false, p.ChatID, p.Description)
		if err != nil {
			return "", err
		}

		verb := "Created"
		if existed {
			verb = "Wrote"
		}
		return fmt.Sprintf("%s %s. %s", verb, path, describeCommit(result, "Committed")), nil
	})
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func relPath(repoRoot, path string) string {
	rel, err := gitrepo.RelPath(repoRoot, path)
	if err != nil {
		return path
	}
	return rel
}

// stripTrailingWhitespacePerLine strips trailing whitespace from each line
// and guarantees a single final newline, per spec.md §4.7's write policy.
func stripTrailingWhitespacePerLine(content string) string {
	normalized := lineendings.NormalizeToLF(content)
	lines := splitPreservingTrailing(normalized)
	for i, l := range lines {
		lines[i] = trimTrailingSpace(l)
	}
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	if out == "" {
		return "\n"
	}
	return out + "\n"
}

func trimTrailingSpace(s string) string {
	end := len(s)
	for end > 0 && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\r') {
		end--
	}
	return s[:end]
}
