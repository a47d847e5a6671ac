package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/codemcp-dev/codemcp/internal/errs"
	"github.com/codemcp-dev/codemcp/internal/shellrun"
)

// GitLogParams are the parameters of the GitLog operation (spec.md §6).
type GitLogParams struct {
	Path      string `json:"path" jsonschema:"Absolute path to the repository or a file within it"`
	Arguments string `json:"arguments,omitempty" jsonschema:"Extra git log arguments, shlex-split, e.g. \"-n 5 --oneline\""`
	ChatID    string `json:"chat_id,omitempty" jsonschema:"The session's chat identifier"`
}

// GitLog runs a read-only `git log`, matching
// original_source/codemcp/tools/git_log.py.
func (t *Toolset) GitLog(ctx context.Context, p GitLogParams) (string, error) {
	return t.gitPassthrough(ctx, "GitLog", p.Path, "log", p.Arguments)
}

// GitDiffParams are the parameters of the GitDiff operation (spec.md §6).
type GitDiffParams struct {
	Path      string `json:"path" jsonschema:"Absolute path to the repository or a file within it"`
	Arguments string `json:"arguments,omitempty" jsonschema:"Extra git diff arguments, shlex-split, e.g. \"HEAD~1\""`
	ChatID    string `json:"chat_id,omitempty" jsonschema:"The session's chat identifier"`
}

// GitDiff runs a read-only `git diff`, matching
// original_source/codemcp/tools/git_diff.py.
func (t *Toolset) GitDiff(ctx context.Context, p GitDiffParams) (string, error) {
	return t.gitPassthrough(ctx, "GitDiff", p.Path, "diff", p.Arguments)
}

// GitShowParams are the parameters of the GitShow operation (spec.md §6).
type GitShowParams struct {
	Path      string `json:"path" jsonschema:"Absolute path to the repository or a file within it"`
	Arguments string `json:"arguments,omitempty" jsonschema:"Extra git show arguments, shlex-split, e.g. a commit hash"`
	ChatID    string `json:"chat_id,omitempty" jsonschema:"The session's chat identifier"`
}

// GitShow runs a read-only `git show`, matching
// original_source/codemcp/tools/git_show.py.
func (t *Toolset) GitShow(ctx context.Context, p GitShowParams) (string, error) {
	return t.gitPassthrough(ctx, "GitShow", p.Path, "show", p.Arguments)
}

// GitBlameParams are the parameters of the GitBlame operation (spec.md §6).
type GitBlameParams struct {
	Path      string `json:"path" jsonschema:"Absolute path to the file to blame"`
	Arguments string `json:"arguments,omitempty" jsonschema:"Extra git blame arguments, shlex-split"`
	ChatID    string `json:"chat_id,omitempty" jsonschema:"The session's chat identifier"`
}

// GitBlame runs a read-only `git blame`, matching
// original_source/codemcp/tools/git_blame.py.
func (t *Toolset) GitBlame(ctx context.Context, p GitBlameParams) (string, error) {
	return t.gitPassthrough(ctx, "GitBlame", p.Path, "blame", p.Arguments)
}

// gitPassthrough runs `git <subcommand> <arguments...>` in the directory
// resolved from path, after the read-only guard checks. arguments is
// shlex-split the way every passthrough tool in
// original_source/codemcp/tools/git_*.py does.
func (t *Toolset) gitPassthrough(ctx context.Context, tool, rawPath, subcommand, arguments string) (string, error) {
	return t.track(ctx, tool, func() (string, error) {
		resolved, err := t.guardReadOnly(rawPath)
		if err != nil {
			return "", err
		}
		dir := resolved
		if info, err := os.Stat(resolved); err == nil && !info.IsDir() {
			dir = filepath.Dir(resolved)
		}

		argv := []string{"git", subcommand}
		if arguments != "" {
			extra, err := shlexSplit(arguments)
			if err != nil {
				return "", fmt.Errorf("%w: parsing arguments: %v", errs.ErrPathInvalid, err)
			}
			argv = append(argv, extra...)
		}

		res, err := shellrun.Run(ctx, dir, argv...)
		if err != nil {
			return "", fmt.Errorf("%w: %v", errs.ErrCommandFailed, err)
		}
		if res.ExitCode != 0 {
			return "", &errs.CommandFailedError{Command: argv, Stdout: res.Stdout, Stderr: res.Stderr}
		}
		return res.Stdout, nil
	})
}
