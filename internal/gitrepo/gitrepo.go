// Package gitrepo wraps go-git plumbing operations shared by the session
// tracker and commit engine: opening the repository, building tree objects
// from a set of paths, and moving refs.
//
// Grounded on the teacher's cmd/entire/cli/strategy/common.go (OpenRepository)
// and cmd/entire/cli/checkpoint/temporary.go (FlattenTree, createBlobFromFile,
// BuildTreeFromEntries, createCommit) — those functions build shadow-branch
// checkpoint commits from scratch; this package generalizes the same
// plumbing to building the ordinary commits the Commit Engine records on the
// user's actual branch.
package gitrepo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/codemcp-dev/codemcp/internal/errs"
)

// Open opens the repository rooted at dir, enabling linked-worktree support
// the same way the teacher's OpenRepository does — without it, go-git
// operations inside a `git worktree add` checkout can silently write refs to
// the wrong location.
func Open(dir string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: opening repository at %s: %v", errs.ErrGitOperationFailed, dir, err)
	}
	return repo, nil
}

// Root returns the working tree root for repo.
func Root(repo *git.Repository) (string, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrGitOperationFailed, err)
	}
	return wt.Filesystem.Root(), nil
}

// FlattenTree recursively flattens tree into a map of repo-relative path to
// entry, the same way the teacher's checkpoint.FlattenTree does.
func FlattenTree(repo *git.Repository, tree *object.Tree, prefix string, entries map[string]object.TreeEntry) error {
	for _, entry := range tree.Entries {
		fullPath := entry.Name
		if prefix != "" {
			fullPath = prefix + "/" + entry.Name
		}
		if entry.Mode == filemode.Dir {
			subtree, err := repo.TreeObject(entry.Hash)
			if err != nil {
				return fmt.Errorf("%w: reading subtree %s: %v", errs.ErrGitOperationFailed, fullPath, err)
			}
			if err := FlattenTree(repo, subtree, fullPath, entries); err != nil {
				return err
			}
			continue
		}
		entries[fullPath] = object.TreeEntry{Name: fullPath, Mode: entry.Mode, Hash: entry.Hash}
	}
	return nil
}

// BlobFromFile creates (and stores) a blob object from the file at
// absPath, returning its hash and detected file mode.
func BlobFromFile(repo *git.Repository, absPath string) (plumbing.Hash, filemode.FileMode, error) {
	info, err := os.Lstat(absPath)
	if err != nil {
		return plumbing.ZeroHash, 0, fmt.Errorf("%w: %v", errs.ErrNotFound, err)
	}

	mode := filemode.Regular
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		mode = filemode.Symlink
	case info.Mode()&0o111 != 0:
		mode = filemode.Executable
	}

	var content []byte
	if mode == filemode.Symlink {
		target, err := os.Readlink(absPath)
		if err != nil {
			return plumbing.ZeroHash, 0, fmt.Errorf("%w: %v", errs.ErrGitOperationFailed, err)
		}
		content = []byte(target)
	} else {
		content, err = os.ReadFile(absPath) //nolint:gosec // absPath has already passed the guard layer
		if err != nil {
			return plumbing.ZeroHash, 0, fmt.Errorf("%w: %v", errs.ErrGitOperationFailed, err)
		}
	}

	obj := repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(content)))
	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, 0, fmt.Errorf("%w: %v", errs.ErrGitOperationFailed, err)
	}
	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return plumbing.ZeroHash, 0, fmt.Errorf("%w: %v", errs.ErrGitOperationFailed, err)
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, 0, fmt.Errorf("%w: %v", errs.ErrGitOperationFailed, err)
	}

	hash, err := repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, 0, fmt.Errorf("%w: %v", errs.ErrGitOperationFailed, err)
	}
	return hash, mode, nil
}

type treeNode struct {
	children map[string]*treeNode
	files    []object.TreeEntry
}

// BuildTree builds a tree object (recursively, bottom up) from a flat map of
// repo-relative path to entry, the same structure-building approach as the
// teacher's checkpoint.BuildTreeFromEntries.
func BuildTree(repo *git.Repository, entries map[string]object.TreeEntry) (plumbing.Hash, error) {
	root := &treeNode{children: make(map[string]*treeNode)}
	for path, entry := range entries {
		insert(root, strings.Split(path, "/"), entry)
	}
	return writeTree(repo, root)
}

func insert(node *treeNode, parts []string, entry object.TreeEntry) {
	if len(parts) == 1 {
		node.files = append(node.files, object.TreeEntry{Name: parts[0], Mode: entry.Mode, Hash: entry.Hash})
		return
	}
	name := parts[0]
	if node.children[name] == nil {
		node.children[name] = &treeNode{children: make(map[string]*treeNode)}
	}
	insert(node.children[name], parts[1:], entry)
}

func writeTree(repo *git.Repository, node *treeNode) (plumbing.Hash, error) {
	entries := append([]object.TreeEntry{}, node.files...)
	for name, child := range node.children {
		hash, err := writeTree(repo, child)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: hash})
	}
	sort.Slice(entries, func(i, j int) bool { return treeEntrySortKey(entries[i]) < treeEntrySortKey(entries[j]) })

	tree := &object.Tree{Entries: entries}
	obj := repo.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: encoding tree: %v", errs.ErrGitOperationFailed, err)
	}
	hash, err := repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: storing tree: %v", errs.ErrGitOperationFailed, err)
	}
	return hash, nil
}

// treeEntrySortKey orders entries the way Git does: directory names sort as
// if they carried a trailing slash.
func treeEntrySortKey(e object.TreeEntry) string {
	if e.Mode == filemode.Dir {
		return e.Name + "/"
	}
	return e.Name
}

// CreateCommit builds and stores a commit object with the given tree,
// parents, message, and signature.
func CreateCommit(repo *git.Repository, treeHash plumbing.Hash, parents []plumbing.Hash, message string, sig object.Signature) (plumbing.Hash, error) {
	commit := &object.Commit{
		TreeHash:     treeHash,
		ParentHashes: parents,
		Author:       sig,
		Committer:    sig,
		Message:      message,
	}
	obj := repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: encoding commit: %v", errs.ErrGitOperationFailed, err)
	}
	hash, err := repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: storing commit: %v", errs.ErrGitOperationFailed, err)
	}
	return hash, nil
}

// Signature builds an object.Signature using the repository's configured
// user, falling back to a generic codemcp identity when unset.
func Signature(repo *git.Repository) object.Signature {
	name, email := "codemcp", "codemcp@localhost"
	if cfg, err := repo.ConfigScoped(0); err == nil {
		if cfg.User.Name != "" {
			name = cfg.User.Name
		}
		if cfg.User.Email != "" {
			email = cfg.User.Email
		}
	}
	return object.Signature{Name: name, Email: email, When: time.Now()}
}

// SetRef points refName directly at hash, creating or overwriting it.
func SetRef(repo *git.Repository, refName plumbing.ReferenceName, hash plumbing.Hash) error {
	if err := repo.Storer.SetReference(plumbing.NewHashReference(refName, hash)); err != nil {
		return fmt.Errorf("%w: updating ref %s: %v", errs.ErrGitOperationFailed, refName, err)
	}
	return nil
}

// UpdateHEAD moves the branch HEAD currently points to (or HEAD itself, if
// detached) to hash.
func UpdateHEAD(repo *git.Repository, hash plumbing.Hash) error {
	headRef, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return fmt.Errorf("%w: reading HEAD: %v", errs.ErrGitOperationFailed, err)
	}
	target := plumbing.HEAD
	if headRef.Type() == plumbing.SymbolicReference {
		target = headRef.Target()
	}
	return SetRef(repo, target, hash)
}

// RelPath returns path relative to the repository root, using forward
// slashes for Git tree entries.
func RelPath(repoRoot, path string) (string, error) {
	rel, err := filepath.Rel(repoRoot, path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrOutsideRepository, err)
	}
	return filepath.ToSlash(rel), nil
}
