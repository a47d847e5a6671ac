package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/google/uuid"

	"github.com/codemcp-dev/codemcp/internal/errs"
	"github.com/codemcp-dev/codemcp/internal/gitrepo"
	"github.com/codemcp-dev/codemcp/internal/guard"
	"github.com/codemcp-dev/codemcp/internal/sessionid"
	"github.com/codemcp-dev/codemcp/internal/sessiontracker"
	"github.com/codemcp-dev/codemcp/internal/trailers"
)

// defaultSystemPrompt is prepended to every InitProject response, matching
// original_source/codemcp/tools/init_project.py's hardcoded default.
const defaultSystemPrompt = "Do NOT attempt to run tests, let the user run them."

// InitProjectParams are the parameters of the InitProject operation
// (spec.md §6).
type InitProjectParams struct {
	Path            string `json:"path" jsonschema:"Absolute path to the project directory"`
	UserPrompt      string `json:"user_prompt" jsonschema:"The user's original prompt, stored verbatim on the session reference"`
	SubjectLine     string `json:"subject_line" jsonschema:"One-line subject for the commits this session will produce"`
	ReuseHeadChatID bool   `json:"reuse_head_chat_id" jsonschema:"Reuse HEAD's existing chat-id instead of minting a new one, if HEAD already belongs to a session"`
}

// InitProject validates the project directory, resolves or mints a chat
// identifier, creates refs/codemcp/<chat-id> without advancing HEAD
// (spec.md §3's Session reference), and returns the combined system prompt
// plus the chat-id the caller must pass to every subsequent tool call.
func (t *Toolset) InitProject(ctx context.Context, p InitProjectParams) (string, error) {
	return t.track(ctx, "InitProject", func() (string, error) {
		t.mu.Lock()
		defer t.mu.Unlock()

		dir, err := guard.Normalise(p.Path)
		if err != nil {
			return "", err
		}
		info, err := os.Stat(dir)
		if err != nil {
			return "", fmt.Errorf("%w: %v", errs.ErrNotFound, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("%w: %s is not a directory", errs.ErrNotADirectory, dir)
		}

		cfg, err := t.loadConfig()
		if err != nil {
			return "", err
		}

		repo, err := t.openRepo()
		if err != nil {
			return "", err
		}
		tracker := sessiontracker.New(repo)

		chatID := ""
		if p.ReuseHeadChatID {
			if id, ok, err := tracker.HeadChatID(); err == nil && ok {
				chatID = id
			}
		}
		if chatID == "" {
			chatID = uuid.NewString()
		}
		if err := sessionid.Validate(chatID); err != nil {
			return "", fmt.Errorf("%w: %v", errs.ErrPathInvalid, err)
		}

		if !tracker.RefExists(chatID) {
			subjectLine := p.SubjectLine
			if subjectLine == "" {
				subjectLine = deriveSubjectLine(p.UserPrompt)
			}
			if err := createSessionRef(repo, tracker, chatID, subjectLine, p.UserPrompt); err != nil {
				return "", err
			}
		}

		prompt := defaultSystemPrompt
		if cfg.ProjectPrompt != "" {
			prompt += "\n\n" + cfg.ProjectPrompt
		}

		return fmt.Sprintf("%s\n\nchat_id: %s", prompt, chatID), nil
	})
}

// createSessionRef builds the session reference commit described in
// spec.md §3: tree equal to HEAD's tree (or the empty tree, for a
// repository with no commits yet), parent equal to HEAD (if any), message
// carrying the subject line, user prompt, and codemcp-id trailer.
func createSessionRef(repo *git.Repository, tracker *sessiontracker.Tracker, chatID, subjectLine, userPrompt string) error {
	sig := gitrepo.Signature(repo)

	var treeHash plumbing.Hash
	var parents []plumbing.Hash
	if tracker.HasCommits() {
		head, err := tracker.HeadCommit()
		if err != nil {
			return err
		}
		headHash, _, err := tracker.HeadHash()
		if err != nil {
			return err
		}
		treeHash = head.TreeHash
		parents = []plumbing.Hash{headHash}
	} else {
		empty, err := gitrepo.BuildTree(repo, nil)
		if err != nil {
			return err
		}
		treeHash = empty
	}

	message := strings.TrimRight(subjectLine+"\n\n"+userPrompt, "\n")
	message = trailers.AppendMetadata(message, map[string]string{sessionid.TrailerKey: chatID})

	hash, err := gitrepo.CreateCommit(repo, treeHash, parents, message, sig)
	if err != nil {
		return err
	}
	return gitrepo.SetRef(repo, plumbing.ReferenceName(sessionid.RefName(chatID)), hash)
}
