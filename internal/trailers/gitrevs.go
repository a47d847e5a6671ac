package trailers

import "strings"

// FormatWithGitRevs composes the structured commit message described in
// spec.md §3: it locates (or creates) the fenced ```git-revs``` block,
// rewrites its HEAD placeholder to commitHash (the commit being amended, a
// short hash), appends a new HEAD line naming description, and reapplies
// any trailer metadata the original message carried.
//
// Ported from original_source/codemcp/git_message.py's
// format_commit_message_with_git_revs; the teacher has no analogous
// function since Entire's revision bookkeeping lives on a side ref instead
// of inside the commit body.
func FormatWithGitRevs(message, commitHash, description string) string {
	mainMessage, metadata := ParseMessage(message)

	hashLen := len(commitHash)
	headPad := 0
	if hashLen > 4 {
		headPad = hashLen - 4
	}
	headPadding := strings.Repeat(" ", headPad)

	var result string
	if loc := gitRevsBlockRegexp.FindStringSubmatchIndex(mainMessage); loc != nil {
		content := mainMessage[loc[2]:loc[3]]
		lines := strings.Split(content, "\n")
		newLines := make([]string, 0, len(lines)+1)
		for _, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), "HEAD") {
				newLines = append(newLines, replaceHeadWithHash(line, commitHash, hashLen))
			} else {
				newLines = append(newLines, line)
			}
		}
		newLines = append(newLines, "HEAD"+headPadding+"  "+description)

		newBlock := "```git-revs\n" + strings.Join(newLines, "\n") + "\n```"
		result = mainMessage[:loc[0]] + newBlock + mainMessage[loc[1]:]
	} else {
		mainLines := []string{}
		var commitLines []string
		hasBaseRevision := false

		for _, line := range splitLinesKeepEmpty(mainMessage) {
			if strings.Contains(line, "(Base revision)") || strings.HasPrefix(strings.TrimSpace(line), "HEAD") {
				if strings.Contains(line, "(Base revision)") {
					hasBaseRevision = true
				}
				commitLines = append(commitLines, line)
			} else {
				mainLines = append(mainLines, line)
			}
		}

		if !hasBaseRevision {
			commitLines = append([]string{commitHash + "  (Base revision)"}, commitLines...)
		}

		processed := make([]string, 0, len(commitLines)+1)
		for _, line := range commitLines {
			if strings.HasPrefix(strings.TrimSpace(line), "HEAD") {
				processed = append(processed, replaceHeadWithHash(line, commitHash, hashLen))
			} else {
				processed = append(processed, line)
			}
		}
		processed = append(processed, "HEAD"+headPadding+"  "+description)

		gitRevsBlock := "```git-revs\n" + strings.Join(processed, "\n") + "\n```"

		if len(mainLines) > 0 {
			if strings.TrimSpace(mainLines[len(mainLines)-1]) != "" {
				gitRevsBlock = "\n\n" + gitRevsBlock
			} else {
				gitRevsBlock = "\n" + gitRevsBlock
			}
			result = strings.Join(mainLines, "\n") + gitRevsBlock
		} else {
			result = gitRevsBlock
		}
	}

	if len(metadata) > 0 {
		result = AppendMetadata(result, metadata)
	}
	return result
}

// replaceHeadWithHash replaces the first "HEAD" substring in line with
// commitHash, consuming any alignment spaces that followed it equal to the
// difference in length between the hash and "HEAD" (4 characters).
func replaceHeadWithHash(line, commitHash string, hashLen int) string {
	headPos := strings.Index(line, "HEAD")
	if headPos < 0 {
		return line
	}
	const headLen = 4
	lenDiff := hashLen - headLen
	prefix := line[:headPos]
	suffix := line[headPos+headLen:]
	if lenDiff > 0 && strings.HasPrefix(suffix, strings.Repeat(" ", lenDiff)) {
		suffix = suffix[lenDiff:]
	}
	return prefix + commitHash + suffix
}

// splitLinesKeepEmpty splits on "\n" the way Python's str.splitlines()
// behaves for our purposes: an empty string yields no lines.
func splitLinesKeepEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// BaseRevisionHash extracts the "(Base revision)" commit hash from a
// git-revs block, if present.
func BaseRevisionHash(message string) (string, bool) {
	loc := gitRevsBlockRegexp.FindStringSubmatch(message)
	if loc == nil {
		return "", false
	}
	for _, line := range strings.Split(loc[1], "\n") {
		if strings.Contains(line, "(Base revision)") {
			fields := strings.Fields(line)
			if len(fields) > 0 {
				return fields[0], true
			}
		}
	}
	return "", false
}
