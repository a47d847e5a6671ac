package lineendings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeToLF(t *testing.T) {
	assert.Equal(t, "a\nb\nc", NormalizeToLF("a\r\nb\rc"))
}

func TestApply_CRLF(t *testing.T) {
	assert.Equal(t, "a\r\nb\r\n", Apply("a\nb\n", CRLF))
}

func TestApply_LF(t *testing.T) {
	assert.Equal(t, "a\nb\n", Apply("a\r\nb\r\n", LF))
}

func TestDetectFile_CRLF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\r\nb\r\n"), 0o644))
	assert.Equal(t, CRLF, DetectFile(path))
}

func TestDetectFile_LF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\n"), 0o644))
	assert.Equal(t, LF, DetectFile(path))
}

func TestPreference_CodemcpToml(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "codemcp.toml"), []byte("[files]\nline_endings = \"CRLF\"\n"), 0o644))
	style := Preference(filepath.Join(dir, "sub", "f.txt"))
	assert.Equal(t, CRLF, style)
}

func TestPreference_DefaultLF(t *testing.T) {
	dir := t.TempDir()
	style := Preference(filepath.Join(dir, "f.txt"))
	assert.Equal(t, LF, style)
}
