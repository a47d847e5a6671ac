// Package output implements the single output-truncation policy of
// spec.md §4.6: per-line length cap, total line cap, the head/tail command
// output truncation shape, and the binary-content marker. It also redacts
// likely secrets before truncation, since subprocess output and file
// contents returned to the caller are otherwise unreviewed.
//
// Ported from original_source/codemcp/common.py's truncate_output_content
// (the prefer_end=True command-output shape) and the plain head-only
// truncation its prefer_end=False branch uses for file reads; the teacher
// has no equivalent since Entire never streams command output back to a
// language-model caller. Redaction composes in the adapted redact package
// (gitleaks pattern matching plus a Shannon-entropy heuristic).
package output

import (
	"strconv"
	"strings"

	"github.com/codemcp-dev/codemcp/redact"
)

// MaxLineLength is the longest a single line may be before it is cut and
// annotated, per spec.md §4.6.
const MaxLineLength = 1000

// MaxLines is the largest number of lines retained by either truncation
// mode.
const MaxLines = 1000

// StartContextLines is how many leading lines survive command-output
// truncation regardless of length.
const StartContextLines = 5

// MaxOutputBytes is the hard byte cap that applies after the line-count
// policy has already run.
const MaxOutputBytes = 256 * 1024 // 0.25 MiB

// BinaryMarker is returned in place of content that is not valid UTF-8.
const BinaryMarker = "[Binary content cannot be displayed]"

// clampLines truncates every line in lines to MaxLineLength, annotating
// truncated lines.
func clampLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		if len(line) > MaxLineLength {
			out[i] = line[:MaxLineLength] + "... (line truncated)"
		} else {
			out[i] = line
		}
	}
	return out
}

// TruncateFileRead applies the file-read truncation policy: clamp line
// length, then keep only the first MaxLines lines (spec.md §4.6: "File-read
// truncation keeps only the first 1000 lines").
func TruncateFileRead(content string) string {
	if !isValidText(content) {
		return BinaryMarker
	}
	lines := splitLines(redact.String(content))
	clamped := clampLines(lines)
	if len(clamped) <= MaxLines {
		return clampBytes(strings.Join(clamped, "\n"))
	}
	return clampBytes(strings.Join(clamped[:MaxLines], "\n"))
}

// TruncateCommandOutput applies the command-output truncation policy: clamp
// line length, then if the total exceeds MaxLines, keep the first
// StartContextLines and the last (MaxLines - StartContextLines) lines,
// joined by an explicit omission marker naming how many lines were dropped.
func TruncateCommandOutput(content string) string {
	if !isValidText(content) {
		return BinaryMarker
	}
	lines := splitLines(redact.String(content))
	clamped := clampLines(lines)
	total := len(clamped)
	if total <= MaxLines {
		return clampBytes(strings.Join(clamped, "\n"))
	}

	startLines := clamped[:StartContextLines]
	endCount := MaxLines - StartContextLines
	endLines := clamped[total-endCount:]
	omitted := total - StartContextLines - endCount

	result := strings.Join(startLines, "\n") +
		"\n\n... (output truncated, " + strconv.Itoa(omitted) + " lines omitted) ...\n\n" +
		strings.Join(endLines, "\n")
	return clampBytes(result)
}

// clampBytes applies the hard MaxOutputBytes ceiling as a final backstop;
// the line/line-count limit above always fires first per spec.md §4.6.
func clampBytes(s string) string {
	if len(s) <= MaxOutputBytes {
		return s
	}
	return s[:MaxOutputBytes]
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

// isValidText reports whether content is displayable as UTF-8 text (a NUL
// byte is treated as a reliable binary signal, the same heuristic `git
// grep`/`diff` use to distinguish text from binary blobs).
func isValidText(content string) bool {
	return !strings.Contains(content, "\x00")
}

