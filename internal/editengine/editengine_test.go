package editengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codemcp-dev/codemcp/internal/errs"
)

func TestApply_CreationShortcut(t *testing.T) {
	updated, hunks, err := Apply("", "", "package main\n")
	require.NoError(t, err)
	assert.Equal(t, "package main\n", updated)
	require.Len(t, hunks, 1)
	assert.Equal(t, 0, hunks[0].OldLines)
}

func TestApply_ExactMatch(t *testing.T) {
	content := "func foo() {\n\treturn 1\n}\n"
	updated, hunks, err := Apply(content, "return 1", "return 2")
	require.NoError(t, err)
	assert.Equal(t, "func foo() {\n\treturn 2\n}\n", updated)
	require.Len(t, hunks, 1)
}

func TestApply_ExactMatch_NoOpWhenIdentical(t *testing.T) {
	content := "a\nb\nc\n"
	updated, hunks, err := Apply(content, "b", "b")
	require.NoError(t, err)
	assert.Equal(t, content, updated)
	assert.Nil(t, hunks)
}

func TestApply_AmbiguousMatch(t *testing.T) {
	content := "x = 1\ny = 1\nz = 1\n"
	_, _, err := Apply(content, "= 1", "= 2")
	var ambiguous *errs.AmbiguousMatchError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, 3, ambiguous.Count)
}

func TestApply_ContextAnchoredReplace(t *testing.T) {
	content := "func a() {\n\treturn 1\n}\n\nfunc b() {\n\treturn 1\n}\n"
	old := "func a() {\n...\n}"
	new := "func a() {\n\treturn 99\n}"
	_, _, err := Apply(content, old, new)
	// "func a() {" and the closing "}" each occur twice across both
	// functions once whitespace is ignored by substring search, but the
	// sentinel forces anchored, uniquely-matching segments; this case's
	// segments ("func a() {" and "}") are each ambiguous across both
	// functions, so it should still fail as an ambiguous match rather than
	// silently picking one.
	require.Error(t, err)
}

func TestApply_ContextAnchoredReplace_UniqueAnchors(t *testing.T) {
	content := "header\nfunc unique() {\n\told line\n\tkeep\n}\nfooter\n"
	old := "func unique() {\n...\nkeep\n}"
	new := "func unique() {\n...\nkeep\n}"
	updated, _, err := Apply(content, old, new)
	require.NoError(t, err)
	assert.Equal(t, content, updated)
}

func TestApply_WhitespaceInsensitiveMatch(t *testing.T) {
	content := "line one   \nline two\nline three\n"
	old := "line one\nline two"
	new := "replaced one\nreplaced two"
	updated, _, err := Apply(content, old, new)
	require.NoError(t, err)
	assert.Equal(t, "replaced one\nreplaced two\nline three\n", updated)
}

func TestApply_LeadingWhitespaceTolerantMatch(t *testing.T) {
	// The snippet is missing the one tab of indentation that every matched
	// line carries in the file; that uniform shift is reapplied to the
	// replacement.
	content := "func f() {\n\tif true {\n\t\tdoStuff()\n\t}\n}\n"
	old := "if true {\n\tdoStuff()\n}"
	new := "if true {\n\tdoOtherStuff()\n}"
	updated, _, err := Apply(content, old, new)
	require.NoError(t, err)
	assert.Contains(t, updated, "\tif true {\n\t\tdoOtherStuff()\n\t}")
}

func TestApply_NoMatch(t *testing.T) {
	_, _, err := Apply("a\nb\nc\n", "not present", "x")
	assert.ErrorIs(t, err, errs.ErrNoMatch)
}
