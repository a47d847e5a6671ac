package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/codemcp-dev/codemcp/internal/errs"
	"github.com/codemcp-dev/codemcp/internal/shellrun"
)

// maxGrepResults is the cap on the number of files Grep reports, matching
// original_source/codemcp/tools/grep.py's MAX_RESULTS.
const maxGrepResults = 100

// GrepParams are the parameters of the Grep operation (spec.md §6).
type GrepParams struct {
	Pattern string `json:"pattern" jsonschema:"The regular expression pattern to search for"`
	Path    string `json:"path" jsonschema:"Absolute path to the directory or file to search in"`
	Include string `json:"include,omitempty" jsonschema:"Optional glob restricting which files are searched"`
}

// Grep lists, up to maxGrepResults, the files under path whose content
// matches pattern, using git grep -li and sorting by modification time
// (newest first), matching original_source/codemcp/tools/grep.py.
func (t *Toolset) Grep(ctx context.Context, p GrepParams) (string, error) {
	return t.track(ctx, "Grep", func() (string, error) {
		target, err := t.guardReadOnly(p.Path)
		if err != nil {
			return "", err
		}

		info, err := os.Stat(target)
		if err != nil {
			return "", fmt.Errorf("%w: %s", errs.ErrNotFound, target)
		}

		args := []string{"grep", "-li", p.Pattern}
		searchDir := target
		if !info.IsDir() {
			searchDir = filepath.Dir(target)
			args = append(args, "--", filepath.Base(target))
		} else if p.Include != "" {
			args = append(args, "--", p.Include)
		}

		res, err := shellrun.Run(ctx, searchDir, append([]string{"git"}, args...)...)
		if err != nil {
			return "", fmt.Errorf("%w: git grep: %v", errs.ErrCommandFailed, err)
		}
		if res.ExitCode != 0 && res.ExitCode != 1 {
			return "", &errs.CommandFailedError{Command: append([]string{"git"}, args...), Stdout: res.Stdout, Stderr: res.Stderr}
		}

		var matches []string
		for _, line := range strings.Fields(res.Stdout) {
			matches = append(matches, filepath.Join(searchDir, line))
		}

		sort.Slice(matches, func(i, j int) bool {
			ti, tj := modTimeOrZero(matches[i]), modTimeOrZero(matches[j])
			if ti.Equal(tj) {
				return matches[i] < matches[j]
			}
			return ti.After(tj)
		})

		numFiles := len(matches)
		if numFiles > maxGrepResults {
			matches = matches[:maxGrepResults]
		}

		if numFiles == 0 {
			return "No files found", nil
		}

		plural := "s"
		if numFiles == 1 {
			plural = ""
		}
		out := fmt.Sprintf("Found %d file%s\n%s", numFiles, plural, strings.Join(matches, "\n"))
		if numFiles > maxGrepResults {
			out += "\n(Results are truncated. Consider using a more specific path or pattern.)"
		}
		return out, nil
	})
}

func modTimeOrZero(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
