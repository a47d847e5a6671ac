package tools

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/codemcp-dev/codemcp/internal/errs"
	"github.com/codemcp-dev/codemcp/internal/output"
)

// ReadFileParams are the parameters of the ReadFile operation (spec.md §6).
type ReadFileParams struct {
	Path   string `json:"path" jsonschema:"Absolute path to the file to read"`
	Offset int    `json:"offset,omitempty" jsonschema:"1-indexed line number to start from; 0 or omitted means the beginning of the file"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of lines to return; 0 or omitted means up to the truncation policy's cap"`
}

// ReadFile returns path's content as numbered lines (1-indexed, "<n>\t<line>"
// per line, the conventional cat -n rendering), applying offset/limit and
// then the file-read truncation policy of spec.md §4.6. It records path's
// modification time as the baseline for future stale-read detection.
func (t *Toolset) ReadFile(ctx context.Context, p ReadFileParams) (string, error) {
	return t.track(ctx, "ReadFile", func() (string, error) {
		path, err := t.guardReadOnly(p.Path)
		if err != nil {
			return "", err
		}

		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("%w: %s", errs.ErrNotFound, path)
			}
			return "", fmt.Errorf("%w: %v", errs.ErrGitOperationFailed, err)
		}
		if info.IsDir() {
			return "", fmt.Errorf("%w: %s", errs.ErrIsADirectory, path)
		}

		raw, err := os.ReadFile(path) //nolint:gosec // path has passed the guard layer
		if err != nil {
			return "", fmt.Errorf("%w: %v", errs.ErrGitOperationFailed, err)
		}

		t.recordRead(path)

		content := string(raw)
		if !isValidUTF8Text(content) {
			return output.BinaryMarker, nil
		}

		lines := splitPreservingTrailing(content)
		start := 0
		if p.Offset > 1 {
			start = p.Offset - 1
		}
		if start > len(lines) {
			start = len(lines)
		}
		end := len(lines)
		if p.Limit > 0 && start+p.Limit < end {
			end = start + p.Limit
		}
		window := lines[start:end]

		var b strings.Builder
		for i, line := range window {
			lineNum := start + i + 1
			b.WriteString(strconv.Itoa(lineNum))
			b.WriteString("\t")
			b.WriteString(line)
			b.WriteString("\n")
		}

		return output.TruncateFileRead(strings.TrimSuffix(b.String(), "\n")), nil
	})
}

func isValidUTF8Text(s string) bool {
	return !strings.Contains(s, "\x00")
}

// splitPreservingTrailing splits content on "\n" without manufacturing a
// spurious trailing empty line for content that already ends in "\n".
func splitPreservingTrailing(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
