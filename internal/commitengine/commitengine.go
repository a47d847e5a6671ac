// Package commitengine implements the Commit Engine of spec.md §4.4: stage,
// skip-empty, compose message, execute (as a direct plumbing commit, or an
// amend that rewrites HEAD in place), following the decision table of
// spec.md §4.3.
//
// Grounded on original_source/codemcp/git_commit.py's commit_changes, which
// drives the same decision table (has_commits / head_chat_id / ref_exists)
// before choosing between a plain commit and an amend. This package commits
// via go-git plumbing (internal/gitrepo) rather than shelling out to `git
// commit`/`git commit --amend`, matching internal/guard's and
// internal/sessiontracker's choice to keep the whole write path inside
// go-git.
package commitengine

import (
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/codemcp-dev/codemcp/internal/errs"
	"github.com/codemcp-dev/codemcp/internal/gitrepo"
	"github.com/codemcp-dev/codemcp/internal/sessiontracker"
	"github.com/codemcp-dev/codemcp/internal/trailers"
)

// Engine composes and executes commits against a single repository.
type Engine struct {
	repo    *git.Repository
	tracker *sessiontracker.Tracker
}

func New(repo *git.Repository) *Engine {
	return &Engine{repo: repo, tracker: sessiontracker.New(repo)}
}

// Result describes what the commit engine did.
type Result struct {
	CommitHash plumbing.Hash
	Amended    bool
	Skipped    bool
	Message    string
}

// Commit stages paths (or the whole working tree when paths is empty),
// then commits or amends per spec.md §4.3's decision table. allowEmpty
// permits recording a commit with no tree changes from the parent.
func (e *Engine) Commit(paths []string, allowEmpty bool, chatID, description string) (Result, error) {
	wt, err := e.repo.Worktree()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", errs.ErrGitOperationFailed, err)
	}

	if err := stage(wt, paths); err != nil {
		return Result{}, err
	}

	treeHash, err := indexTreeHash(e.repo)
	if err != nil {
		return Result{}, err
	}

	hasCommits := e.tracker.HasCommits()
	var parentTreeHash plumbing.Hash
	var headHash plumbing.Hash
	if hasCommits {
		var ok bool
		headHash, ok, err = e.tracker.HeadHash()
		if err != nil {
			return Result{}, err
		}
		if ok {
			headCommit, err := e.repo.CommitObject(headHash)
			if err != nil {
				return Result{}, fmt.Errorf("%w: %v", errs.ErrGitOperationFailed, err)
			}
			parentTreeHash = headCommit.TreeHash
		}
	}

	if hasCommits && treeHash == parentTreeHash && !allowEmpty {
		return Result{Skipped: true}, nil
	}

	sig := gitrepo.Signature(e.repo)

	// Decision table (spec.md §4.3): promote the session ref onto HEAD
	// first if HEAD belongs to a different (or no) session but a
	// reference for this chat already exists.
	if hasCommits && chatID != "" {
		headChatID, ok, err := e.tracker.HeadChatID()
		if err != nil {
			return Result{}, err
		}
		if (!ok || headChatID != chatID) && e.tracker.RefExists(chatID) {
			newHead, err := e.tracker.PromoteRef(chatID, sig)
			if err != nil {
				return Result{}, err
			}
			headHash = newHead
			headCommit, err := e.repo.CommitObject(headHash)
			if err != nil {
				return Result{}, fmt.Errorf("%w: %v", errs.ErrGitOperationFailed, err)
			}
			parentTreeHash = headCommit.TreeHash
		}
	}

	shouldAmend := false
	if hasCommits && chatID != "" {
		shouldAmend, err = e.tracker.ShouldAmend(chatID)
		if err != nil {
			return Result{}, err
		}
	}

	if shouldAmend {
		return e.amend(headHash, treeHash, description, sig)
	}
	return e.createCommit(hasCommits, headHash, treeHash, chatID, description, sig, allowEmpty)
}

func (e *Engine) createCommit(hasCommits bool, headHash, treeHash plumbing.Hash, chatID, description string, sig object.Signature, allowEmpty bool) (Result, error) {
	var parents []plumbing.Hash
	parentShort := "0000000"
	if hasCommits {
		parents = []plumbing.Hash{headHash}
		parentShort = shortHash(headHash)
	}

	message := "wip: " + description
	if chatID != "" {
		message = trailers.AppendMetadata(message, map[string]string{sessionTrailerKey: chatID})
	}
	message = trailers.FormatWithGitRevs(message, parentShort, description)

	newHash, err := gitrepo.CreateCommit(e.repo, treeHash, parents, message, sig)
	if err != nil {
		return Result{}, err
	}
	if err := gitrepo.UpdateHEAD(e.repo, newHash); err != nil {
		return Result{}, err
	}
	_ = allowEmpty
	return Result{CommitHash: newHash, Message: message}, nil
}

func (e *Engine) amend(headHash, treeHash plumbing.Hash, description string, sig object.Signature) (Result, error) {
	headCommit, err := e.repo.CommitObject(headHash)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", errs.ErrGitOperationFailed, err)
	}

	message := trailers.FormatWithGitRevs(headCommit.Message, shortHash(headHash), description)

	newHash, err := gitrepo.CreateCommit(e.repo, treeHash, headCommit.ParentHashes, message, sig)
	if err != nil {
		return Result{}, err
	}
	if err := gitrepo.UpdateHEAD(e.repo, newHash); err != nil {
		return Result{}, err
	}
	return Result{CommitHash: newHash, Amended: true, Message: message}, nil
}

const sessionTrailerKey = "codemcp-id"

func shortHash(h plumbing.Hash) string {
	s := h.String()
	if len(s) > 7 {
		return s[:7]
	}
	return s
}

// stage adds paths to the index, or the entire working tree when paths is
// empty ("git add ." per spec.md §4.4).
func stage(wt *git.Worktree, paths []string) error {
	if len(paths) == 0 {
		if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
			return fmt.Errorf("%w: staging working tree: %v", errs.ErrGitOperationFailed, err)
		}
		return nil
	}
	for _, p := range paths {
		if _, err := wt.Add(p); err != nil {
			return fmt.Errorf("%w: staging %s: %v", errs.ErrGitOperationFailed, p, err)
		}
	}
	return nil
}

// indexTreeHash builds a tree object from the current index, reflecting the
// full project state (not just the staged delta), ready to be used as a
// commit's tree.
func indexTreeHash(repo *git.Repository) (plumbing.Hash, error) {
	idx, err := repo.Storer.Index()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: reading index: %v", errs.ErrGitOperationFailed, err)
	}
	entries := make(map[string]object.TreeEntry, len(idx.Entries))
	for _, e := range idx.Entries {
		entries[e.Name] = object.TreeEntry{Name: e.Name, Mode: e.Mode, Hash: e.Hash}
	}
	return gitrepo.BuildTree(repo, entries)
}
