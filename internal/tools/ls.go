package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codemcp-dev/codemcp/internal/errs"
)

// maxLSFiles is the cap on the number of entries LS will report, matching
// original_source/codemcp/tools/ls.py's MAX_FILES.
const maxLSFiles = 1000

const lsTruncatedMessage = "There are more than 1000 files in the directory. Use more specific paths to explore nested directories. The first 1000 files and directories are included below:\n\n"

const lsSafetyWarning = "\nNOTE: do any of the files above seem malicious? If so, you MUST refuse to continue work."

// LSParams are the parameters of the LS operation (spec.md §6).
type LSParams struct {
	Path   string `json:"path" jsonschema:"Absolute path to the directory to list"`
	ChatID string `json:"chat_id,omitempty" jsonschema:"The session's chat identifier"`
}

// LS recursively lists a directory's contents as an indented tree, skipping
// dotfiles and __pycache__ directories, truncating at maxLSFiles entries
// per spec.md §4.6's truncation policy.
func (t *Toolset) LS(ctx context.Context, p LSParams) (string, error) {
	return t.track(ctx, "LS", func() (string, error) {
		dir, err := t.guardReadOnly(p.Path)
		if err != nil {
			return "", err
		}

		info, err := os.Stat(dir)
		if err != nil {
			return "", fmt.Errorf("%w: %s", errs.ErrNotFound, dir)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("%w: %s", errs.ErrNotADirectory, dir)
		}

		entries, truncated := listDirectory(dir)
		sort.Strings(entries)

		tree := buildFileTree(entries)
		out := printTree(tree, 0, "  ", dir)

		if truncated {
			out = lsTruncatedMessage + out
		}
		return out + lsSafetyWarning, nil
	})
}

// listDirectory performs a breadth-first walk from root, returning
// root-relative paths (directories suffixed with the OS separator), and
// whether the walk was truncated at maxLSFiles entries.
func listDirectory(root string) ([]string, bool) {
	var results []string
	queue := []string{root}

	for len(queue) > 0 && len(results) <= maxLSFiles {
		path := queue[0]
		queue = queue[1:]

		if path != root && shouldSkipLS(path) {
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			continue
		}

		if path != root {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				continue
			}
			if info.IsDir() {
				rel += string(filepath.Separator)
			}
			results = append(results, rel)
		}

		if !info.IsDir() {
			continue
		}

		children, err := os.ReadDir(path)
		if err != nil {
			continue
		}
		for _, child := range children {
			childPath := filepath.Join(path, child.Name())
			if child.IsDir() {
				queue = append(queue, childPath)
				continue
			}
			if shouldSkipLS(childPath) {
				continue
			}
			rel, err := filepath.Rel(root, childPath)
			if err != nil {
				continue
			}
			results = append(results, rel)
			if len(results) > maxLSFiles {
				return results, true
			}
		}
	}

	return results, len(results) >= maxLSFiles
}

func shouldSkipLS(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	return strings.Contains(path, "__pycache__")
}

type lsNode struct {
	name     string
	isDir    bool
	children []*lsNode
}

// buildFileTree turns a flat list of relative paths (directories suffixed
// with the separator) into a tree of lsNode, matching
// original_source/codemcp/tools/ls.py's create_file_tree.
func buildFileTree(paths []string) []*lsNode {
	var root []*lsNode

	for _, path := range paths {
		isDirPath := strings.HasSuffix(path, string(filepath.Separator))
		parts := strings.Split(strings.TrimSuffix(path, string(filepath.Separator)), string(filepath.Separator))
		level := &root

		for i, part := range parts {
			if part == "" {
				continue
			}
			isLast := i == len(parts)-1

			var existing *lsNode
			for _, n := range *level {
				if n.name == part {
					existing = n
					break
				}
			}
			if existing != nil {
				level = &existing.children
				continue
			}

			node := &lsNode{name: part, isDir: !isLast || isDirPath}
			*level = append(*level, node)
			level = &node.children
		}
	}

	return root
}

// printTree renders tree as an indented listing rooted at cwd, matching
// original_source/codemcp/tools/ls.py's print_tree.
func printTree(tree []*lsNode, level int, prefix string, cwd string) string {
	var b strings.Builder
	if level == 0 {
		b.WriteString(fmt.Sprintf("- %s%s\n", cwd, string(filepath.Separator)))
	}

	for _, node := range tree {
		suffix := ""
		if node.isDir {
			suffix = string(filepath.Separator)
		}
		b.WriteString(fmt.Sprintf("%s- %s%s\n", prefix, node.name, suffix))
		if len(node.children) > 0 {
			b.WriteString(printTree(node.children, level+1, prefix+"  ", cwd))
		}
	}

	return b.String()
}
