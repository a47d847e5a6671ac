// Package editengine implements the tolerant string-replace ladder of
// spec.md §4.2: creation shortcut, exact match, context-anchored replace on
// ambiguous match, whitespace-insensitive match, leading-whitespace-tolerant
// match, failure.
//
// Ported from original_source/codemcp/tools/edit_file.py's apply_edit_pure,
// which spec.md §9 designates as the variant to implement uniformly (the
// Python source also carries an "effectful" sibling that re-reads the file
// between steps; this package only ever operates on an in-memory string, as
// that function does). Hunk construction is generalized onto
// sergi/go-diff/diffmatchpatch, since the teacher's
// cli/strategy/manual_commit_attribution.go already reaches for that library
// to produce line-oriented diffs for commit attribution.
package editengine

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/codemcp-dev/codemcp/internal/errs"
)

// Hunk is a single contiguous change, expressed the way the Python source's
// patch structures are: old/new starting line (1-indexed) and line counts,
// plus the prefixed +/- lines for display purposes.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Lines    []string
}

const dotsSentinel = "..."

// Apply runs the tolerant replace ladder against content and returns the
// updated content plus a hunk describing the change. It never mutates
// content; callers reapply the line-ending policy and write the result
// themselves.
func Apply(content, oldSnippet, newSnippet string) (string, []Hunk, error) {
	if strings.TrimSpace(oldSnippet) == "" {
		return applyCreation(newSnippet)
	}

	count := strings.Count(content, oldSnippet)
	hasSentinel := containsDotsLine(oldSnippet)

	switch {
	case count == 1 && !hasSentinel:
		return applyExact(content, oldSnippet, newSnippet)
	case hasSentinel:
		updated, err := applyContextAnchored(content, oldSnippet, newSnippet)
		if err == nil {
			return updated, diffHunks(content, updated), nil
		}
		if count > 1 {
			return content, nil, &errs.AmbiguousMatchError{Count: count}
		}
		return content, nil, err
	case count > 1:
		return content, nil, &errs.AmbiguousMatchError{Count: count}
	}

	if updated, ok := applyWhitespaceInsensitive(content, oldSnippet, newSnippet); ok {
		return updated, diffHunks(content, updated), nil
	}

	if updated, ok := applyLeadingWhitespaceTolerant(content, oldSnippet, newSnippet); ok {
		return updated, diffHunks(content, updated), nil
	}

	return content, nil, fmt.Errorf("%w: string to replace not found in file", errs.ErrNoMatch)
}

func applyCreation(newSnippet string) (string, []Hunk, error) {
	lines := strings.Split(newSnippet, "\n")
	added := make([]string, len(lines))
	for i, l := range lines {
		added[i] = "+" + l
	}
	return newSnippet, []Hunk{{
		OldStart: 1,
		OldLines: 0,
		NewStart: 1,
		NewLines: len(lines),
		Lines:    added,
	}}, nil
}

func applyExact(content, oldSnippet, newSnippet string) (string, []Hunk, error) {
	updated := strings.Replace(content, oldSnippet, newSnippet, 1)
	if updated == content {
		return updated, nil, nil
	}
	before := strings.SplitN(content, oldSnippet, 2)[0]
	lineNum := strings.Count(before, "\n")
	oldLines := strings.Split(oldSnippet, "\n")
	newLines := strings.Split(newSnippet, "\n")
	lines := make([]string, 0, len(oldLines)+len(newLines))
	for _, l := range oldLines {
		lines = append(lines, "-"+l)
	}
	for _, l := range newLines {
		lines = append(lines, "+"+l)
	}
	return updated, []Hunk{{
		OldStart: lineNum + 1,
		OldLines: len(oldLines),
		NewStart: lineNum + 1,
		NewLines: len(newLines),
		Lines:    lines,
	}}, nil
}

// applyContextAnchored implements the "..." sentinel strategy: old/new are
// split around lines that are exactly "..." and each non-empty segment must
// match uniquely and in order, so that only the gaps between anchors are
// replaced.
func applyContextAnchored(content, oldSnippet, newSnippet string) (string, error) {
	oldSegments := splitOnDotsLine(oldSnippet)
	newSegments := splitOnDotsLine(newSnippet)
	if len(oldSegments) != len(newSegments) {
		return "", fmt.Errorf("%w: unpaired ... in search/replace block", errs.ErrNoMatch)
	}
	if len(oldSegments) == 1 {
		return "", fmt.Errorf("%w: no ... sentinel present", errs.ErrNoMatch)
	}

	result := content
	for i := range oldSegments {
		part, replace := oldSegments[i], newSegments[i]
		if part == "" && replace == "" {
			continue
		}
		if part == "" {
			if !strings.HasSuffix(result, "\n") {
				result += "\n"
			}
			result += replace
			continue
		}
		n := strings.Count(result, part)
		if n == 0 {
			return "", fmt.Errorf("%w: search text not found in file", errs.ErrNoMatch)
		}
		if n > 1 {
			return "", &errs.AmbiguousMatchError{Count: n}
		}
		result = strings.Replace(result, part, replace, 1)
	}
	return result, nil
}

// containsDotsLine reports whether s has a line that is exactly "..." once
// surrounding whitespace is trimmed, the sentinel marking a context-anchored
// edit.
func containsDotsLine(s string) bool {
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) == dotsSentinel {
			return true
		}
	}
	return false
}

// splitOnDotsLine splits s on lines that consist solely of "..." (optionally
// surrounded by whitespace), keeping the separators out of the segments, the
// same way try_dotdotdots splits on its sentinel regex.
func splitOnDotsLine(s string) []string {
	lines := strings.Split(s, "\n")
	var segments []string
	var current []string
	for _, line := range lines {
		if strings.TrimSpace(line) == dotsSentinel {
			segments = append(segments, strings.Join(current, "\n"))
			current = nil
			continue
		}
		current = append(current, line)
	}
	segments = append(segments, strings.Join(current, "\n"))
	return segments
}

// applyWhitespaceInsensitive strips trailing whitespace from every line of
// both content and oldSnippet; if that produces a unique match, the matched
// lines (in their original, unstripped form) are replaced.
func applyWhitespaceInsensitive(content, oldSnippet, newSnippet string) (string, bool) {
	contentLines := strings.Split(content, "\n")
	oldLines := strings.Split(oldSnippet, "\n")
	if len(oldLines) > len(contentLines) {
		return "", false
	}

	stripped := make([]string, len(contentLines))
	for i, l := range contentLines {
		stripped[i] = strings.TrimRight(l, " \t\r")
	}
	oldStripped := make([]string, len(oldLines))
	for i, l := range oldLines {
		oldStripped[i] = strings.TrimRight(l, " \t\r")
	}

	matchAt := -1
	matches := 0
	for i := 0; i+len(oldStripped) <= len(stripped); i++ {
		if sliceEqual(stripped[i:i+len(oldStripped)], oldStripped) {
			matches++
			matchAt = i
		}
	}
	if matches != 1 {
		return "", false
	}

	newLines := strings.Split(newSnippet, "\n")
	resultLines := append([]string{}, contentLines[:matchAt]...)
	resultLines = append(resultLines, newLines...)
	resultLines = append(resultLines, contentLines[matchAt+len(oldLines):]...)
	updated := strings.Join(resultLines, "\n")

	if !strings.HasSuffix(content, "\n") && strings.HasSuffix(updated, "\n") {
		updated = strings.TrimSuffix(updated, "\n")
	} else if strings.HasSuffix(content, "\n") && !strings.HasSuffix(updated, "\n") {
		updated += "\n"
	}
	return updated, true
}

// applyLeadingWhitespaceTolerant checks whether every line of oldSnippet
// matches the file modulo one uniform leading-whitespace prefix, and if so
// reapplies that prefix to newSnippet before replacing.
func applyLeadingWhitespaceTolerant(content, oldSnippet, newSnippet string) (string, bool) {
	contentLines := strings.Split(content, "\n")
	oldLines := strings.Split(oldSnippet, "\n")
	newLines := strings.Split(newSnippet, "\n")
	if len(oldLines) == 0 || len(oldLines) > len(contentLines) {
		return "", false
	}

	matchAt := -1
	var prefix string
	matches := 0
	for i := 0; i+len(oldLines) <= len(contentLines); i++ {
		p, ok := uniformLeadingWhitespace(contentLines[i:i+len(oldLines)], oldLines)
		if !ok {
			continue
		}
		matches++
		matchAt = i
		prefix = p
	}
	if matches != 1 {
		return "", false
	}

	adjusted := make([]string, len(newLines))
	for i, l := range newLines {
		if strings.TrimSpace(l) == "" {
			adjusted[i] = l
		} else {
			adjusted[i] = prefix + l
		}
	}

	resultLines := append([]string{}, contentLines[:matchAt]...)
	resultLines = append(resultLines, adjusted...)
	resultLines = append(resultLines, contentLines[matchAt+len(oldLines):]...)
	return strings.Join(resultLines, "\n"), true
}

// uniformLeadingWhitespace reports whether window and part agree once
// leading whitespace is stripped from every line, and if so returns the
// single consistent prefix that must be re-added.
func uniformLeadingWhitespace(window, part []string) (string, bool) {
	prefixes := map[string]struct{}{}
	for i := range window {
		if strings.TrimLeft(window[i], " \t") != strings.TrimLeft(part[i], " \t") {
			return "", false
		}
		if strings.TrimSpace(window[i]) == "" {
			continue
		}
		prefixLen := len(window[i]) - len(strings.TrimLeft(window[i], " \t"))
		prefixes[window[i][:prefixLen]] = struct{}{}
	}
	if len(prefixes) != 1 {
		return "", false
	}
	for p := range prefixes {
		return p, true
	}
	return "", false
}

func sliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// diffHunks builds a single display hunk describing the whole-content
// change using diffmatchpatch's line-level diff, for cases where the exact
// replaced region isn't already known structurally.
func diffHunks(before, after string) []Hunk {
	dmp := diffmatchpatch.New()
	lineText1, lineText2, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(lineText1, lineText2, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var lines []string
	oldLines, newLines := 0, 0
	for _, d := range diffs {
		for _, l := range strings.SplitAfter(d.Text, "\n") {
			if l == "" {
				continue
			}
			trimmed := strings.TrimSuffix(l, "\n")
			switch d.Type {
			case diffmatchpatch.DiffDelete:
				lines = append(lines, "-"+trimmed)
				oldLines++
			case diffmatchpatch.DiffInsert:
				lines = append(lines, "+"+trimmed)
				newLines++
			case diffmatchpatch.DiffEqual:
				oldLines++
				newLines++
			}
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return []Hunk{{OldStart: 1, OldLines: oldLines, NewStart: 1, NewLines: newLines, Lines: lines}}
}
