package tools

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/codemcp-dev/codemcp/internal/telemetry"
)

var testSignature = object.Signature{
	Name:  "Test",
	Email: "test@example.com",
	When:  time.Unix(1700000000, 0),
}

// initRepo creates a bare-bones repository with one committed file, so
// guard.Tracking and the commit engine have a non-empty HEAD to work from.
func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	_, err = wt.Commit("seed", &git.CommitOptions{Author: &testSignature})
	require.NoError(t, err)

	return dir
}

func newTestToolset(dir string) *Toolset {
	return New(dir, telemetry.NoOpClient{})
}
