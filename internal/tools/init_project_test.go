package tools

import (
	"context"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codemcp-dev/codemcp/internal/sessionid"
)

func TestInitProject_MintsChatIDAndCreatesRef(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)

	result, err := ts.InitProject(context.Background(), InitProjectParams{
		Path:        dir,
		UserPrompt:  "Add a feature",
		SubjectLine: "feat: add feature",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "chat_id:")
	assert.Contains(t, result, "Do NOT attempt to run tests")

	chatID := result[len(result)-36:]
	repo, err := git.PlainOpen(dir)
	require.NoError(t, err)
	_, err = repo.Reference(plumbing.ReferenceName(sessionid.RefName(chatID)), true)
	assert.NoError(t, err)
}

func TestInitProject_ReusesHeadChatID(t *testing.T) {
	dir := initRepo(t)
	ts := newTestToolset(dir)

	first, err := ts.InitProject(context.Background(), InitProjectParams{Path: dir, SubjectLine: "feat: a"})
	require.NoError(t, err)
	firstChatID := first[len(first)-36:]

	_, err = ts.WriteFile(context.Background(), WriteFileParams{
		Path:        dir + "/a.txt",
		Content:     "a\n",
		Description: "add a",
		ChatID:      firstChatID,
	})
	require.NoError(t, err)

	second, err := ts.InitProject(context.Background(), InitProjectParams{Path: dir, ReuseHeadChatID: true})
	require.NoError(t, err)
	secondChatID := second[len(second)-36:]

	assert.Equal(t, firstChatID, secondChatID)
}
