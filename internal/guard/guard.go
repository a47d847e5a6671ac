// Package guard implements the four ordered checks every mutating
// operation passes through before any write, per spec.md §4.1:
// normalise, permission, containment, tracking.
//
// Grounded on the teacher's cmd/entire/cli/paths package for the
// path-normalisation idiom (RepoRoot/AbsPath caching) generalized here to
// arbitrary repository roots rather than a cached process-wide CWD, since
// codemcp operations always carry an explicit path parameter.
package guard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codemcp-dev/codemcp/internal/errs"
	"github.com/go-git/go-git/v5"
)

// ConfigFileName is the repo-root configuration file. Editing it directly
// is always refused (spec.md §4.1 step 2).
const ConfigFileName = "codemcp.toml"

// Normalise expands a leading "~" to the user's home directory and resolves
// the result to an absolute path. It rejects paths that remain relative
// after normalisation.
func Normalise(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", errs.ErrPathInvalid)
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("%w: resolving home directory: %v", errs.ErrPathInvalid, err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrPathInvalid, err)
	}
	if !filepath.IsAbs(abs) {
		return "", fmt.Errorf("%w: path did not normalise to an absolute path: %s", errs.ErrPathInvalid, path)
	}
	return abs, nil
}

// collapsePrivatePrefix collapses the macOS /private prefix that
// EvalSymlinks can introduce (e.g. /tmp -> /private/tmp), so that
// containment comparisons are platform-stable. Grounded on spec.md §4.1's
// explicit mention of this quirk.
func collapsePrivatePrefix(path string) string {
	const prefix = "/private/"
	if strings.HasPrefix(path, prefix) {
		return "/" + strings.TrimPrefix(path, prefix)
	}
	if path == "/private" {
		return "/"
	}
	return path
}

// resolveSymlinks resolves symlinks in path. If the path (or some descendant
// suffix) does not yet exist, it resolves the deepest existing ancestor and
// rejoins the remaining suffix, matching the common idiom for checking
// not-yet-created files.
func resolveSymlinks(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return collapsePrivatePrefix(resolved), nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	resolvedDir, err := resolveSymlinks(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedDir, base), nil
}

// Permission checks that path is either under a directory containing a
// codemcp.toml, or matches the repository root explicitly permitted by the
// caller. Editing codemcp.toml itself is always refused.
func Permission(path, repoRoot string) error {
	if isConfigPath(path, repoRoot) {
		return fmt.Errorf("%w: editing %s is not permitted", errs.ErrPermissionDenied, ConfigFileName)
	}

	dir := filepath.Dir(path)
	for {
		if _, err := os.Stat(filepath.Join(dir, ConfigFileName)); err == nil {
			return nil
		}
		if sameFile(dir, repoRoot) {
			// The repository root itself is always permitted, even without
			// a codemcp.toml directly in it (e.g. for the root-level
			// InitProject bootstrap, which may create codemcp.toml itself).
			return nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return fmt.Errorf("%w: no %s found for %s", errs.ErrPermissionDenied, ConfigFileName, path)
}

func isConfigPath(path, repoRoot string) bool {
	return filepath.Base(path) == ConfigFileName && sameFile(filepath.Dir(path), repoRoot)
}

func sameFile(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

// Containment resolves both path and repoRoot through symlinks and rejects
// path if it is not a descendant of repoRoot.
func Containment(path, repoRoot string) (string, error) {
	resolvedRoot, err := resolveSymlinks(repoRoot)
	if err != nil {
		return "", fmt.Errorf("%w: resolving repository root: %v", errs.ErrOutsideRepository, err)
	}
	resolvedPath, err := resolveSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("%w: resolving path: %v", errs.ErrOutsideRepository, err)
	}

	rel, err := filepath.Rel(resolvedRoot, resolvedPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is not inside %s", errs.ErrOutsideRepository, path, repoRoot)
	}
	return resolvedPath, nil
}

// Tracking verifies that an existing file is tracked by Git. Files that do
// not yet exist are always permitted (they will be staged as part of the
// commit that records their contents).
func Tracking(repo *git.Repository, repoRoot, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %v", errs.ErrNotFound, err)
	}

	rel, err := filepath.Rel(repoRoot, path)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrOutsideRepository, err)
	}
	rel = filepath.ToSlash(rel)

	idx, err := repo.Storer.Index()
	if err != nil {
		return fmt.Errorf("%w: reading index: %v", errs.ErrGitOperationFailed, err)
	}
	if _, err := idx.Entry(rel); err != nil {
		return fmt.Errorf("%w: %s", errs.ErrNotTracked, rel)
	}
	return nil
}

// EnsureParentDir creates the directory chain for path's parent if it does
// not already exist (spec.md §4.8).
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating parent directory: %v", errs.ErrGitOperationFailed, err)
	}
	return nil
}

// Check runs all four ordered checks and returns the resolved, guarded
// absolute path.
func Check(repo *git.Repository, repoRoot, rawPath string) (string, error) {
	normalised, err := Normalise(rawPath)
	if err != nil {
		return "", err
	}
	if err := Permission(normalised, repoRoot); err != nil {
		return "", err
	}
	resolved, err := Containment(normalised, repoRoot)
	if err != nil {
		return "", err
	}
	if err := Tracking(repo, repoRoot, resolved); err != nil {
		return "", err
	}
	return resolved, nil
}
