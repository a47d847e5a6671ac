// Package trailers parses and formats codemcp commit message trailers and
// the embedded "git-revs" revision block described in spec.md §3.
//
// The trailer-block parsing technique (the last blank-line-separated block
// of a message, if every line matches the Git trailer grammar) is adapted
// from the teacher's cmd/entire/cli/trailers package, which does the same
// thing for Entire-* trailers; here it is generalized to arbitrary trailer
// keys and paired with the git-revs block algebra ported from
// original_source/codemcp/git_message.py, which the teacher's package has
// no equivalent of (Entire stores its session bookkeeping out-of-band on a
// dedicated ref rather than inline in the commit body).
package trailers

import (
	"regexp"
	"sort"
	"strings"
)

// trailerLineRegexp matches a single "Key: Value" trailer line, including
// hyphenated keys (Signed-off-by, Co-authored-by, codemcp-id, ...).
var trailerLineRegexp = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9_.-]*(?:-[A-Za-z0-9_.-]+)*):\s*(.*)$`)

// gitRevsBlockRegexp matches the fenced ```git-revs ... ``` block.
var gitRevsBlockRegexp = regexp.MustCompile("(?s)```git-revs\n(.*?)\n```")

// ParseMessage splits a commit message into its main body and trailing
// metadata, following Git's trailer convention: the last block of lines
// (separated from the rest by a blank line) is metadata only if every line
// in it is either a "Key: Value" line or an indented continuation of the
// preceding key.
func ParseMessage(message string) (mainMessage string, metadata map[string]string) {
	if message == "" {
		return "", map[string]string{}
	}
	if !strings.Contains(message, "\n") {
		return message, map[string]string{}
	}

	lines := strings.Split(message, "\n")
	lastLine := strings.TrimSpace(lines[len(lines)-1])
	if !trailerLineRegexp.MatchString(lastLine) {
		return message, map[string]string{}
	}

	var blocks [][]string
	var current []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	if len(blocks) == 0 {
		return "", map[string]string{}
	}

	lastBlock := blocks[len(blocks)-1]
	parsed := map[string]string{}
	isMetadata := true
	currentKey := ""
	var currentValues []string

	flush := func() {
		if currentKey != "" {
			parsed[currentKey] = strings.Join(currentValues, "\n")
		}
	}

	for _, line := range lastBlock {
		if m := trailerLineRegexp.FindStringSubmatch(line); m != nil {
			flush()
			currentKey = m[1]
			currentValues = []string{m[2]}
		} else if strings.HasPrefix(line, " ") && currentKey != "" {
			currentValues = append(currentValues, line)
		} else {
			isMetadata = false
			break
		}
	}
	if isMetadata {
		flush()
	}

	if isMetadata && len(parsed) > 0 {
		if len(blocks) > 1 {
			parts := make([]string, 0, len(blocks)-1)
			for _, b := range blocks[:len(blocks)-1] {
				parts = append(parts, strings.Join(b, "\n"))
			}
			return strings.Join(parts, "\n\n"), parsed
		}
		return "", parsed
	}

	return message, map[string]string{}
}

// ExtractChatID returns the last "codemcp-id: <id>" trailer value found in
// message, per spec.md §4.4 ("when codemcp-id appears more than once, the
// last occurrence wins on read").
func ExtractChatID(message string) (string, bool) {
	re := regexp.MustCompile(`codemcp-id:\s*([^\n]*)`)
	matches := re.FindAllStringSubmatch(message, -1)
	if len(matches) == 0 {
		return "", false
	}
	return strings.TrimSpace(matches[len(matches)-1][1]), true
}

// AppendMetadata appends or updates trailer metadata on message. The
// codemcp-id key, if present in metadata, is always written last; other
// keys are written in sorted order before it. This mirrors
// append_metadata_to_message's behavior of treating codemcp-id specially
// so it always trails any third-party metadata (e.g. a PR URL trailer).
func AppendMetadata(message string, metadata map[string]string) string {
	if len(metadata) == 0 {
		return message
	}

	mainMessage, existing := ParseMessage(message)

	updated := map[string]string{}
	for k, v := range existing {
		if k != "codemcp-id" {
			updated[k] = v
		}
	}
	for k, v := range metadata {
		if k != "codemcp-id" {
			updated[k] = v
		}
	}

	result := mainMessage

	if len(updated) > 0 {
		if mainMessage != "" && !strings.HasSuffix(mainMessage, "\n\n") {
			if !strings.HasSuffix(mainMessage, "\n") {
				result += "\n"
			}
			result += "\n"
		}
		keys := make([]string, 0, len(updated))
		for k := range updated {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			result += k + ": " + updated[k] + "\n"
		}
	}

	if chatID, ok := metadata["codemcp-id"]; ok {
		if !strings.HasSuffix(result, "\n") {
			result += "\n"
		}
		if len(existing) == 0 && len(updated) == 0 && !strings.Contains(message, "\n\n\n") && mainMessage == message {
			result += "\n"
		}
		result += "codemcp-id: " + chatID
	}

	return result
}
