// Package lineendings implements the line-ending detection and preservation
// policy of spec.md §4.7.
//
// Ported from original_source/codemcp/line_endings.py — the teacher carries
// no equivalent subsystem since its checkpoint strategies snapshot raw file
// bytes rather than rewriting text content.
package lineendings

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Style is a detected or configured line-ending preference.
type Style string

const (
	LF   Style = "LF"
	CRLF Style = "CRLF"
)

// Chars returns the literal character sequence for the style.
func (s Style) Chars() string {
	if s == CRLF {
		return "\r\n"
	}
	return "\n"
}

// NormalizeToLF collapses CRLF and lone CR sequences to LF.
func NormalizeToLF(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return content
}

// Apply normalizes content to LF, then reapplies style.
func Apply(content string, style Style) string {
	normalized := NormalizeToLF(content)
	if style == CRLF {
		return strings.ReplaceAll(normalized, "\n", "\r\n")
	}
	return normalized
}

// DetectFile inspects up to the first 4096 bytes of an existing file for a
// CRLF sequence. Non-existent files fall back to Preference.
func DetectFile(path string) Style {
	f, err := os.Open(path) //nolint:gosec // path comes from the guard layer
	if err != nil {
		return Preference(path)
	}
	defer f.Close()

	buf := make([]byte, 4096)
	n, _ := f.Read(buf)
	if bytes.Contains(buf[:n], []byte("\r\n")) {
		return CRLF
	}
	return LF
}

// Preference walks up from the file's directory through .editorconfig,
// .gitattributes, and codemcp.toml (in that order) looking for an explicit
// line-ending directive, falling back to LF.
func Preference(path string) Style {
	if s, ok := fromEditorConfig(path); ok {
		return s
	}
	if s, ok := fromGitAttributes(path); ok {
		return s
	}
	if s, ok := fromCodemcpToml(path); ok {
		return s
	}
	return LF
}

var editorconfigSectionRegexp = regexp.MustCompile(`(?m)^\[(.+?)\]`)
var eolLineRegexp = regexp.MustCompile(`end_of_line\s*=\s*(\S+)`)

func fromEditorConfig(path string) (Style, bool) {
	name := filepath.Base(path)
	for dir := filepath.Dir(path); ; {
		candidate := filepath.Join(dir, ".editorconfig")
		data, err := os.ReadFile(candidate) //nolint:gosec // ancestor search over a trusted repo tree
		if err == nil {
			locs := editorconfigSectionRegexp.FindAllStringSubmatchIndex(string(data), -1)
			content := string(data)
			for i := len(locs) - 1; i >= 0; i-- {
				loc := locs[i]
				pattern := content[loc[2]:loc[3]]
				end := len(content)
				if i+1 < len(locs) {
					end = locs[i+1][0]
				}
				if !matchesEditorConfigPattern(pattern, name) {
					continue
				}
				section := content[loc[1]:end]
				if m := eolLineRegexp.FindStringSubmatch(section); m != nil {
					switch strings.ToLower(m[1]) {
					case "crlf":
						return CRLF, true
					case "lf":
						return LF, true
					}
				}
			}
			return "", false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

func matchesEditorConfigPattern(pattern, name string) bool {
	if pattern == "*" {
		return true
	}
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}

func fromGitAttributes(path string) (Style, bool) {
	name := filepath.Base(path)
	for dir := filepath.Dir(path); ; {
		candidate := filepath.Join(dir, ".gitattributes")
		f, err := os.Open(candidate) //nolint:gosec // ancestor search over a trusted repo tree
		if err == nil {
			defer f.Close()
			var lines []string
			scanner := bufio.NewScanner(f)
			for scanner.Scan() {
				lines = append(lines, scanner.Text())
			}
			for i := len(lines) - 1; i >= 0; i-- {
				line := strings.TrimSpace(lines[i])
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				fields := strings.Fields(line)
				if len(fields) < 2 {
					continue
				}
				pattern := fields[0]
				if pattern != "*" {
					ok, err := filepath.Match(pattern, name)
					if err != nil || !ok {
						continue
					}
				}
				for _, attr := range fields[1:] {
					switch attr {
					case "eol=crlf":
						return CRLF, true
					case "eol=lf":
						return LF, true
					case "text":
						return LF, true
					case "-text", "binary":
						return "", false
					}
				}
			}
			return "", false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

// fromCodemcpToml is a narrow ancestor search used only by Preference;
// internal/config.Load performs the authoritative single-repo-root load.
func fromCodemcpToml(path string) (Style, bool) {
	for dir := filepath.Dir(path); ; {
		candidate := filepath.Join(dir, "codemcp.toml")
		if data, err := os.ReadFile(candidate); err == nil { //nolint:gosec
			if s, ok := lineEndingsFromTomlBytes(data); ok {
				return s, true
			}
			return "", false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

var tomlLineEndingRegexp = regexp.MustCompile(`(?m)^\s*line_endings\s*=\s*"(\w+)"`)

func lineEndingsFromTomlBytes(data []byte) (Style, bool) {
	if m := tomlLineEndingRegexp.FindSubmatch(data); m != nil {
		switch strings.ToUpper(string(m[1])) {
		case "CRLF":
			return CRLF, true
		case "LF":
			return LF, true
		}
	}
	return "", false
}
