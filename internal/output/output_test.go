package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateFileRead_ShortContentUnchanged(t *testing.T) {
	assert.Equal(t, "line one\nline two", TruncateFileRead("line one\nline two"))
}

func TestTruncateFileRead_LongLineIsClamped(t *testing.T) {
	long := strings.Repeat("x", MaxLineLength+50)
	got := TruncateFileRead(long)
	assert.Contains(t, got, "... (line truncated)")
	assert.True(t, len(got) < len(long))
}

func TestTruncateFileRead_KeepsOnlyFirstMaxLines(t *testing.T) {
	lines := make([]string, MaxLines+100)
	for i := range lines {
		lines[i] = "l"
	}
	got := TruncateFileRead(strings.Join(lines, "\n"))
	assert.Equal(t, MaxLines, strings.Count(got, "l"))
}

func TestTruncateFileRead_BinaryMarker(t *testing.T) {
	assert.Equal(t, BinaryMarker, TruncateFileRead("abc\x00def"))
}

func TestTruncateCommandOutput_HeadTailShape(t *testing.T) {
	lines := make([]string, MaxLines+50)
	for i := range lines {
		lines[i] = "line"
	}
	got := TruncateCommandOutput(strings.Join(lines, "\n"))
	assert.True(t, strings.HasPrefix(got, "line\nline\nline\nline\nline"))
	assert.Contains(t, got, "lines omitted")
}

func TestTruncateCommandOutput_ShortContentUnchanged(t *testing.T) {
	assert.Equal(t, "ok", TruncateCommandOutput("ok"))
}
