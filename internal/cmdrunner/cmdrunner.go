// Package cmdrunner implements the commutable auto-commit protocol that
// wraps configured project commands (lint, format, test, ...) in spec.md
// §4.5: snapshot pending edits as PRE_COMMIT, run the command, snapshot its
// effect as POST_COMMIT, then try to reorder the two via cherry-pick so the
// command's own edits land in history ahead of the caller's pending ones.
//
// Ported from original_source/codemcp/code_command.py's run_code_command,
// which drives this entirely through `git` subprocess calls rather than
// go-git plumbing. This package follows the same shape deliberately: the
// teacher's own strategy.HardResetWithProtection and
// strategy.DeleteBranchCLI document that go-git v5's Reset and reference
// deletion corrupt state in a linked worktree (deleting ignored directories,
// failing to persist under packed-refs), and shell out to the `git` binary
// instead. Cherry-pick has no go-git equivalent at all. Both precedents
// point the same way for this package's reset/cherry-pick/status sequence.
package cmdrunner

import (
	"context"
	"fmt"
	"strings"

	"github.com/codemcp-dev/codemcp/internal/commitengine"
	"github.com/codemcp-dev/codemcp/internal/errs"
	"github.com/codemcp-dev/codemcp/internal/logging"
	"github.com/codemcp-dev/codemcp/internal/output"
	"github.com/codemcp-dev/codemcp/internal/shellrun"
)

// Result is the outcome of a Run call, in the shape spec.md §4.5 asks the
// command tools to render back to the caller.
type Result struct {
	Stdout string
	Note   string
}

// Runner drives the protocol for one project directory.
type Runner struct {
	GitDir string // the repository working tree root (`git rev-parse --show-toplevel`)
	Engine *commitengine.Engine
}

// New builds a Runner rooted at gitDir, using engine for the no-PRE_COMMIT
// plain-commit branch.
func New(gitDir string, engine *commitengine.Engine) *Runner {
	return &Runner{GitDir: gitDir, Engine: engine}
}

// Run executes argv in projectDir, wrapping it in the commutable auto-commit
// protocol when projectDir sits inside a Git repository. commandName is used
// only for log/result-text labelling (e.g. "lint", "format").
func (r *Runner) Run(ctx context.Context, projectDir, commandName string, argv []string, commitMessage, chatID string) (Result, error) {
	isGitRepo := r.GitDir != ""

	var (
		originalHeadHash string
		preCommitHash    string
		hasOriginalHead  bool
	)

	if isGitRepo {
		if hash, ok, err := r.revParseHead(ctx); err == nil {
			originalHeadHash, hasOriginalHead = hash, ok
		}

		hasInitialChanges, err := r.hasChanges(ctx)
		if err != nil {
			logging.Warn(ctx, "failed to check for initial changes", "error", err)
		}

		if hasInitialChanges {
			var err error
			preCommitHash, err = r.createPreCommit(ctx, commandName, hasOriginalHead, originalHeadHash)
			if err != nil {
				logging.Warn(ctx, "failed to set up PRE_COMMIT", "error", err)
				preCommitHash = ""
			}
		}
	}

	runResult, err := shellrun.Run(ctx, projectDir, argv...)
	if err != nil {
		r.recover(ctx, isGitRepo, preCommitHash, hasOriginalHead, originalHeadHash)
		return Result{}, fmt.Errorf("%w: starting %v: %v", errs.ErrCommandFailed, argv, err)
	}
	if runResult.ExitCode != 0 {
		r.recover(ctx, isGitRepo, preCommitHash, hasOriginalHead, originalHeadHash)
		return Result{}, &errs.CommandFailedError{
			Command: argv,
			Stdout:  output.TruncateCommandOutput(runResult.Stdout),
			Stderr:  output.TruncateCommandOutput(runResult.Stderr),
			Cause:   fmt.Errorf("exit code %d", runResult.ExitCode),
		}
	}

	truncated := output.TruncateCommandOutput(runResult.Stdout)

	if isGitRepo && preCommitHash != "" {
		note, err := r.resolvePostCommit(ctx, commandName, commitMessage, preCommitHash, originalHeadHash)
		if err != nil {
			return Result{}, err
		}
		return Result{Stdout: truncated, Note: note}, nil
	}

	if isGitRepo {
		hasChanges, err := r.hasChanges(ctx)
		if err != nil {
			logging.Warn(ctx, "failed to check for command changes", "error", err)
		}
		if hasChanges {
			if _, commitErr := r.Engine.Commit(nil, true, chatID, commitMessage); commitErr != nil {
				return Result{Stdout: truncated, Note: "failed to commit changes: " + commitErr.Error()}, nil
			}
			return Result{Stdout: truncated, Note: "changes committed"}, nil
		}
	}

	return Result{Stdout: truncated}, nil
}

// createPreCommit stages everything, commits it, then resets the index back
// to originalHeadHash while leaving the working tree (now holding the
// caller's pending edits again) untouched — the literal
// `git add . && git commit ... && git reset <original_head_hash>` sequence.
func (r *Runner) createPreCommit(ctx context.Context, commandName string, hasOriginalHead bool, originalHeadHash string) (string, error) {
	if _, err := r.git(ctx, "add", "."); err != nil {
		return "", err
	}
	if _, err := r.git(ctx, "commit", "--no-gpg-sign", "-m", fmt.Sprintf("PRE_COMMIT: Snapshot before auto-%s", commandName)); err != nil {
		return "", err
	}
	preCommitHash, _, err := r.revParseHead(ctx)
	if err != nil {
		return "", err
	}
	logging.Info(ctx, "created PRE_COMMIT", "hash", preCommitHash)

	if hasOriginalHead {
		if _, err := r.git(ctx, "reset", originalHeadHash); err != nil {
			return "", err
		}
		logging.Info(ctx, "reset HEAD, keeping working tree changes", "to", originalHeadHash)
	}
	return preCommitHash, nil
}

// resolvePostCommit implements the "assess the impact" step: build
// POST_COMMIT on top of PRE_COMMIT, then attempt the cherry-pick
// commutation, falling back to the uncommuted order on any conflict.
func (r *Runner) resolvePostCommit(ctx context.Context, commandName, commitMessage, preCommitHash, originalHeadHash string) (string, error) {
	hasCommandChanges, err := r.hasChanges(ctx)
	if err != nil {
		logging.Warn(ctx, "failed to check for command changes", "error", err)
	}
	if !hasCommandChanges {
		logging.Info(ctx, "no changes made, ignoring PRE_COMMIT", "command", commandName)
		return "no changes made", nil
	}

	logging.Info(ctx, "changes detected, creating POST_COMMIT", "command", commandName)
	if _, err := r.git(ctx, "add", "."); err != nil {
		return "", r.restoreAfterFailure(ctx, err, originalHeadHash)
	}
	if _, err := r.git(ctx, "update-ref", "HEAD", preCommitHash); err != nil {
		return "", r.restoreAfterFailure(ctx, err, originalHeadHash)
	}
	if _, err := r.git(ctx, "commit", "--no-gpg-sign", "-m", "POST_COMMIT: "+commitMessage); err != nil {
		return "", r.restoreAfterFailure(ctx, err, originalHeadHash)
	}
	postCommitHash, _, err := r.revParseHead(ctx)
	if err != nil {
		return "", r.restoreAfterFailure(ctx, err, originalHeadHash)
	}
	logging.Info(ctx, "created POST_COMMIT", "hash", postCommitHash)

	return r.commute(ctx, commandName, preCommitHash, postCommitHash, originalHeadHash)
}

// commute resets to the original HEAD, cherry-picks PRE_COMMIT then
// POST_COMMIT on top of it, and keeps the commuted result only if it
// reproduces POST_COMMIT's tree exactly.
func (r *Runner) commute(ctx context.Context, commandName, preCommitHash, postCommitHash, originalHeadHash string) (string, error) {
	if _, err := r.git(ctx, "reset", "--hard", originalHeadHash); err != nil {
		return "", r.restoreAfterFailure(ctx, err, originalHeadHash)
	}

	if _, err := r.git(ctx, "cherry-pick", "--no-gpg-sign", preCommitHash); err != nil {
		return r.abandonCommute(ctx, commandName, postCommitHash)
	}
	commutedPreCommitHash, _, err := r.revParseHead(ctx)
	if err != nil {
		return r.abandonCommute(ctx, commandName, postCommitHash)
	}

	if _, err := r.git(ctx, "cherry-pick", "--no-gpg-sign", postCommitHash); err != nil {
		return r.abandonCommute(ctx, commandName, postCommitHash)
	}
	commutedPostCommitHash, _, err := r.revParseHead(ctx)
	if err != nil {
		return r.abandonCommute(ctx, commandName, postCommitHash)
	}

	originalTree, err := r.treeOf(ctx, postCommitHash)
	if err != nil {
		return r.abandonCommute(ctx, commandName, postCommitHash)
	}
	commutedTree, err := r.treeOf(ctx, commutedPostCommitHash)
	if err != nil {
		return r.abandonCommute(ctx, commandName, postCommitHash)
	}

	if originalTree != commutedTree {
		logging.Info(ctx, "commutation produced a different tree, using original order")
		return r.abandonCommute(ctx, commandName, postCommitHash)
	}

	if _, err := r.git(ctx, "reset", commutedPreCommitHash); err != nil {
		return r.abandonCommute(ctx, commandName, postCommitHash)
	}
	logging.Info(ctx, "commutation successful", "command", commandName)
	return "changes commuted successfully", nil
}

// abandonCommute drops whatever in-progress cherry-pick exists and lands on
// the uncommuted POST_COMMIT instead.
func (r *Runner) abandonCommute(ctx context.Context, commandName, postCommitHash string) (string, error) {
	_, _ = r.git(ctx, "cherry-pick", "--abort")
	if _, err := r.git(ctx, "reset", "--hard", postCommitHash); err != nil {
		return "", &errs.GitOperationFailedError{Cause: err}
	}
	logging.Info(ctx, "using original order, changes don't commute", "command", commandName)
	return "changes don't commute, using original order", nil
}

// restoreAfterFailure is the recovery path invoked when any step of the
// POST_COMMIT/commutation sequence itself errors out unexpectedly (distinct
// from a clean cherry-pick conflict, which abandonCommute handles).
func (r *Runner) restoreAfterFailure(ctx context.Context, cause error, originalHeadHash string) error {
	_, _ = r.git(ctx, "cherry-pick", "--abort")
	if originalHeadHash == "" {
		return &errs.GitOperationFailedError{Cause: cause}
	}
	if _, err := r.git(ctx, "reset", "--hard", originalHeadHash); err != nil {
		return &errs.GitOperationFailedError{Cause: cause, RestoreCause: err}
	}
	return &errs.GitOperationFailedError{Cause: cause}
}

// recover is invoked when the command itself fails: abort any in-progress
// cherry-pick and restore the repository to originalHeadHash, same as the
// Python source's blanket except-clause recovery.
func (r *Runner) recover(ctx context.Context, isGitRepo bool, preCommitHash string, hasOriginalHead bool, originalHeadHash string) {
	if !isGitRepo || preCommitHash == "" || !hasOriginalHead {
		return
	}
	_, _ = r.git(ctx, "cherry-pick", "--abort")
	if _, err := r.git(ctx, "reset", "--hard", originalHeadHash); err != nil {
		logging.Error(ctx, "failed to restore original state after command failure", "error", err)
		return
	}
	logging.Info(ctx, "restored original state after command failure")
}

func (r *Runner) hasChanges(ctx context.Context) (bool, error) {
	res, err := r.git(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(res.Stdout) != "", nil
}

func (r *Runner) revParseHead(ctx context.Context) (string, bool, error) {
	res, err := shellrun.Run(ctx, r.GitDir, "git", "rev-parse", "HEAD")
	if err != nil {
		return "", false, err
	}
	if res.ExitCode != 0 {
		return "", false, nil
	}
	return strings.TrimSpace(res.Stdout), true, nil
}

func (r *Runner) treeOf(ctx context.Context, commitHash string) (string, error) {
	res, err := r.git(ctx, "rev-parse", commitHash+"^{tree}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (r *Runner) git(ctx context.Context, args ...string) (shellrun.Result, error) {
	res, err := shellrun.Run(ctx, r.GitDir, append([]string{"git"}, args...)...)
	if err != nil {
		return res, fmt.Errorf("%w: git %s: %v", errs.ErrGitOperationFailed, strings.Join(args, " "), err)
	}
	if res.ExitCode != 0 {
		return res, fmt.Errorf("%w: git %s: exit %d: %s", errs.ErrGitOperationFailed, strings.Join(args, " "), res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return res, nil
}
