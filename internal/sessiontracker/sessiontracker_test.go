package sessiontracker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codemcp-dev/codemcp/internal/gitrepo"
	"github.com/codemcp-dev/codemcp/internal/sessionid"
)

var testSignature = object.Signature{Name: "Test", Email: "test@example.com", When: time.Unix(1700000000, 0)}

func initRepo(t *testing.T) (*git.Repository, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return repo, dir
}

func commitFile(t *testing.T, repo *git.Repository, dir, rel, content, message string) plumbing.Hash {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, rel)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, rel), []byte(content), 0o644))

	hash, _, err := gitrepo.BlobFromFile(repo, filepath.Join(dir, rel))
	require.NoError(t, err)
	treeHash, err := gitrepo.BuildTree(repo, map[string]object.TreeEntry{
		rel: {Name: rel, Mode: filemode.Regular, Hash: hash},
	})
	require.NoError(t, err)

	var parents []plumbing.Hash
	if head, err := repo.Head(); err == nil {
		parents = []plumbing.Hash{head.Hash()}
	}
	commitHash, err := gitrepo.CreateCommit(repo, treeHash, parents, message, testSignature)
	require.NoError(t, err)
	require.NoError(t, gitrepo.UpdateHEAD(repo, commitHash))
	return commitHash
}

func TestHasCommits(t *testing.T) {
	repo, dir := initRepo(t)
	tracker := New(repo)
	assert.False(t, tracker.HasCommits())

	commitFile(t, repo, dir, "a.txt", "hello\n", "initial")
	assert.True(t, tracker.HasCommits())
}

func TestHeadHash_NoCommitsYet(t *testing.T) {
	repo, _ := initRepo(t)
	tracker := New(repo)
	_, ok, err := tracker.HeadHash()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHeadChatID_AbsentAndPresent(t *testing.T) {
	repo, dir := initRepo(t)
	tracker := New(repo)

	id, ok, err := tracker.HeadChatID()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, id)

	commitFile(t, repo, dir, "a.txt", "hello\n", "wip: first\n\ncodemcp-id: abc123")
	id, ok, err = tracker.HeadChatID()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", id)
}

func TestHeadChatID_LastOccurrenceWins(t *testing.T) {
	repo, dir := initRepo(t)
	tracker := New(repo)
	commitFile(t, repo, dir, "a.txt", "hello\n", "wip: first\n\ncodemcp-id: old-id\ncodemcp-id: new-id")
	id, ok, err := tracker.HeadChatID()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "new-id", id)
}

func TestRefExists_AndRefCommit(t *testing.T) {
	repo, dir := initRepo(t)
	tracker := New(repo)
	assert.False(t, tracker.RefExists("chat-1"))

	hash := commitFile(t, repo, dir, "a.txt", "hello\n", "session commit")
	require.NoError(t, gitrepo.SetRef(repo, plumbing.ReferenceName(sessionid.RefName("chat-1")), hash))

	assert.True(t, tracker.RefExists("chat-1"))
	commit, err := tracker.RefCommit("chat-1")
	require.NoError(t, err)
	assert.Equal(t, "session commit", commit.Message)
}

func TestPromoteRef_CreatesCommitOnTopOfHeadWithRefMessage(t *testing.T) {
	repo, dir := initRepo(t)
	tracker := New(repo)

	headHash := commitFile(t, repo, dir, "a.txt", "hello\n", "unrelated work")

	// Simulate an earlier session commit living on a side ref, with a
	// different tree, whose message should be reused.
	otherHash, _, err := gitrepo.BlobFromFile(repo, filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	refTreeHash, err := gitrepo.BuildTree(repo, map[string]object.TreeEntry{
		"b.txt": {Name: "b.txt", Mode: filemode.Regular, Hash: otherHash},
	})
	require.NoError(t, err)
	refCommitHash, err := gitrepo.CreateCommit(repo, refTreeHash, []plumbing.Hash{headHash}, "wip: session work\n\ncodemcp-id: chat-1", testSignature)
	require.NoError(t, err)
	require.NoError(t, gitrepo.SetRef(repo, plumbing.ReferenceName(sessionid.RefName("chat-1")), refCommitHash))

	newHash, err := tracker.PromoteRef("chat-1", testSignature)
	require.NoError(t, err)

	newCommit, err := repo.CommitObject(newHash)
	require.NoError(t, err)
	assert.Equal(t, "wip: session work\n\ncodemcp-id: chat-1", newCommit.Message)
	require.Len(t, newCommit.ParentHashes, 1)
	assert.Equal(t, headHash, newCommit.ParentHashes[0])

	head, ok, err := tracker.HeadHash()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, newHash, head)

	// Tree carried over is HEAD's tree at promotion time, not the ref's tree.
	oldHeadCommit, err := repo.CommitObject(headHash)
	require.NoError(t, err)
	assert.Equal(t, oldHeadCommit.TreeHash, newCommit.TreeHash)
}

func TestShouldAmend(t *testing.T) {
	repo, dir := initRepo(t)
	tracker := New(repo)

	ok, err := tracker.ShouldAmend("chat-1")
	require.NoError(t, err)
	assert.False(t, ok)

	commitFile(t, repo, dir, "a.txt", "hello\n", "wip: first\n\ncodemcp-id: chat-1")

	ok, err = tracker.ShouldAmend("chat-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = tracker.ShouldAmend("chat-2")
	require.NoError(t, err)
	assert.False(t, ok)
}
