// Package sessiontracker implements the four session-bookkeeping
// operations of spec.md §4.3: head_chat_id, ref_exists, promote_ref, and
// should_amend, plus the decision table that drives the Commit Engine.
//
// Grounded on original_source/codemcp/git_commit.py's commit_changes and
// create_commit_reference, reimplemented over go-git plumbing rather than
// shelling out to git, consistent with internal/guard and internal/gitrepo.
package sessiontracker

import (
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/codemcp-dev/codemcp/internal/errs"
	"github.com/codemcp-dev/codemcp/internal/gitrepo"
	"github.com/codemcp-dev/codemcp/internal/sessionid"
	"github.com/codemcp-dev/codemcp/internal/trailers"
)

// Tracker exposes session-ref bookkeeping over a single repository.
type Tracker struct {
	repo *git.Repository
}

func New(repo *git.Repository) *Tracker {
	return &Tracker{repo: repo}
}

// HasCommits reports whether HEAD resolves to a commit yet.
func (t *Tracker) HasCommits() bool {
	_, err := t.repo.Head()
	return err == nil
}

// HeadHash returns the current HEAD commit hash, or ok=false if the
// repository has no commits yet.
func (t *Tracker) HeadHash() (plumbing.Hash, bool, error) {
	ref, err := t.repo.Head()
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return plumbing.ZeroHash, false, nil
		}
		return plumbing.ZeroHash, false, fmt.Errorf("%w: reading HEAD: %v", errs.ErrGitOperationFailed, err)
	}
	return ref.Hash(), true, nil
}

// HeadCommit returns the current HEAD commit object.
func (t *Tracker) HeadCommit() (*object.Commit, error) {
	hash, ok, err := t.HeadHash()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: repository has no commits", errs.ErrGitOperationFailed)
	}
	commit, err := t.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("%w: reading HEAD commit: %v", errs.ErrGitOperationFailed, err)
	}
	return commit, nil
}

// HeadChatID parses the most recent codemcp-id trailer out of HEAD's
// commit message, returning ok=false if HEAD has no commits or no trailer.
func (t *Tracker) HeadChatID() (string, bool, error) {
	if !t.HasCommits() {
		return "", false, nil
	}
	commit, err := t.HeadCommit()
	if err != nil {
		return "", false, err
	}
	id, ok := trailers.ExtractChatID(commit.Message)
	return id, ok, nil
}

// RefExists reports whether refs/codemcp/<chatID> exists.
func (t *Tracker) RefExists(chatID string) bool {
	_, err := t.repo.Reference(plumbing.ReferenceName(sessionid.RefName(chatID)), true)
	return err == nil
}

// RefCommit returns the commit referenced by refs/codemcp/<chatID>.
func (t *Tracker) RefCommit(chatID string) (*object.Commit, error) {
	ref, err := t.repo.Reference(plumbing.ReferenceName(sessionid.RefName(chatID)), true)
	if err != nil {
		return nil, fmt.Errorf("%w: reading session ref for %s: %v", errs.ErrGitOperationFailed, chatID, err)
	}
	commit, err := t.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("%w: reading session ref commit: %v", errs.ErrGitOperationFailed, err)
	}
	return commit, nil
}

// PromoteRef creates a new commit whose tree is HEAD's tree, whose parent is
// HEAD, and whose message is the message stored on refs/codemcp/<chatID>,
// then fast-forwards HEAD to it. Used exactly once per session, the first
// time a mutation occurs on a HEAD that does not yet belong to the session.
func (t *Tracker) PromoteRef(chatID string, sig object.Signature) (plumbing.Hash, error) {
	head, err := t.HeadCommit()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	headHash, _, err := t.HeadHash()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	refCommit, err := t.RefCommit(chatID)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	newHash, err := gitrepo.CreateCommit(t.repo, head.TreeHash, []plumbing.Hash{headHash}, refCommit.Message, sig)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if err := gitrepo.UpdateHEAD(t.repo, newHash); err != nil {
		return plumbing.ZeroHash, err
	}
	return newHash, nil
}

// ShouldAmend reports whether HEAD exists and already belongs to chatID.
func (t *Tracker) ShouldAmend(chatID string) (bool, error) {
	headChatID, ok, err := t.HeadChatID()
	if err != nil {
		return false, err
	}
	return ok && headChatID == chatID, nil
}
