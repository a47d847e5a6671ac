package trailers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage_NoMetadata(t *testing.T) {
	main, meta := ParseMessage("just a subject line")
	assert.Equal(t, "just a subject line", main)
	assert.Empty(t, meta)
}

func TestParseMessage_SingleTrailer(t *testing.T) {
	main, meta := ParseMessage("Fix bug\n\nLonger description.\n\ncodemcp-id: abc123")
	assert.Equal(t, "Fix bug\n\nLonger description.", main)
	assert.Equal(t, "abc123", meta["codemcp-id"])
}

func TestParseMessage_PreservesThirdPartyTrailer(t *testing.T) {
	msg := "Fix bug\n\nBody.\n\ncodemcp-id: abc123\nPull Request resolved: https://example.com/pr/1"
	main, meta := ParseMessage(msg)
	assert.Equal(t, "Fix bug\n\nBody.", main)
	assert.Equal(t, "abc123", meta["codemcp-id"])
	assert.Equal(t, "https://example.com/pr/1", meta["Pull Request resolved"])
}

func TestExtractChatID_LastWins(t *testing.T) {
	msg := "subject\n\ncodemcp-id: first\ncodemcp-id: second"
	id, ok := ExtractChatID(msg)
	require.True(t, ok)
	assert.Equal(t, "second", id)
}

func TestExtractChatID_Absent(t *testing.T) {
	_, ok := ExtractChatID("subject only")
	assert.False(t, ok)
}

func TestAppendMetadata_AddsChatIDLast(t *testing.T) {
	result := AppendMetadata("subject\n\nbody", map[string]string{
		"codemcp-id":  "abc",
		"Signed-off": "someone",
	})
	assert.Contains(t, result, "Signed-off: someone\ncodemcp-id: abc")
}

func TestAppendMetadata_PreservesExistingNonChatIDTrailers(t *testing.T) {
	msg := "subject\n\nbody\n\nReviewed-by: alice\ncodemcp-id: old"
	result := AppendMetadata(msg, map[string]string{"codemcp-id": "new"})
	assert.Contains(t, result, "Reviewed-by: alice")
	assert.Contains(t, result, "codemcp-id: new")
	assert.NotContains(t, result, "codemcp-id: old")
}

func TestFormatWithGitRevs_FirstAmend(t *testing.T) {
	msg := "wip: create foo\n\ncodemcp-id: chat1"
	result := FormatWithGitRevs(msg, "abc1234", "Create foo")

	assert.Contains(t, result, "```git-revs")
	assert.Contains(t, result, "abc1234  (Base revision)")
	assert.Contains(t, result, "HEAD     Create foo")
	assert.Contains(t, result, "codemcp-id: chat1")
}

func TestFormatWithGitRevs_SecondAmend(t *testing.T) {
	msg := FormatWithGitRevs("wip: create foo\n\ncodemcp-id: chat1", "abc1234", "Create foo")
	result := FormatWithGitRevs(msg, "def5678", "Change to bar")

	assert.Contains(t, result, "abc1234  (Base revision)")
	assert.Contains(t, result, "def5678  Create foo")
	assert.Contains(t, result, "HEAD     Change to bar")
	// Exactly one git-revs fence pair.
	assert.Equal(t, 1, countOccurrences(result, "```git-revs"))
	assert.Equal(t, 1, countOccurrences(result, "codemcp-id:"))
}

func TestFormatWithGitRevs_PreservesThirdPartyTrailerAcrossAmends(t *testing.T) {
	msg := FormatWithGitRevs("wip: create foo\n\ncodemcp-id: chat1", "abc1234", "Create foo")
	msg += "\nPull Request resolved: https://example.com/pr/7"
	result := FormatWithGitRevs(msg, "def5678", "Change to bar")

	assert.Contains(t, result, "Pull Request resolved: https://example.com/pr/7")
	assert.Contains(t, result, "codemcp-id: chat1")
}

func countOccurrences(s, substr string) int {
	count := 0
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			count++
			i += len(substr) - 1
		}
	}
	return count
}
