package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var slashUserCommandPattern = regexp.MustCompile(`^user:([a-zA-Z0-9_-]+)$`)

// UserPromptParams are the parameters of the UserPrompt operation
// (spec.md §6).
type UserPromptParams struct {
	UserText string `json:"user_text" jsonschema:"The user's original prompt, verbatim"`
	ChatID   string `json:"chat_id,omitempty" jsonschema:"The session's chat identifier"`
}

// UserPrompt records the user's verbatim prompt. If the prompt is a
// "/user:<name>" slash command it resolves to the contents of
// ~/.claude/commands/<name>.md; otherwise it reports that the prompt was
// received, noting any applicable project rules, matching
// original_source/codemcp/tools/user_prompt.py.
func (t *Toolset) UserPrompt(ctx context.Context, p UserPromptParams) (string, error) {
	return t.track(ctx, "UserPrompt", func() (string, error) {
		if isSlashCommand(p.UserText) {
			ok, name, path := resolveSlashCommand(p.UserText)
			if ok {
				content, err := os.ReadFile(path) //nolint:gosec // path is derived from a fixed, non-caller-controlled directory
				if err != nil {
					return fmt.Sprintf("Error reading command file: %v", err), nil
				}
				return string(content), nil
			}
			return fmt.Sprintf("Unknown slash command: %s", name), nil
		}

		result := "User prompt received"
		if rules := applicableRulesContent(t.RepoRoot); rules != "" {
			result += rules
		}
		return result, nil
	})
}

func isSlashCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}

// resolveSlashCommand resolves a "/user:<name>" slash command to the path of
// its backing file under ~/.claude/commands, creating that directory if
// necessary.
func resolveSlashCommand(command string) (ok bool, name string, path string) {
	trimmed := strings.TrimSpace(command)
	trimmed = strings.TrimPrefix(trimmed, "/")
	trimmed = strings.TrimSpace(trimmed)

	m := slashUserCommandPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return false, trimmed, ""
	}
	name = m[1]

	home, err := os.UserHomeDir()
	if err != nil {
		return false, name, ""
	}
	commandsDir := filepath.Join(home, ".claude", "commands")
	_ = os.MkdirAll(commandsDir, 0o755)

	file := filepath.Join(commandsDir, name+".md")
	if _, err := os.Stat(file); err != nil {
		return false, name, ""
	}
	return true, name, file
}

// ruleFileNames are searched, in order, for project-level instructions to
// surface alongside a plain (non-slash-command) user prompt.
var ruleFileNames = []string{"AGENTS.md", "CLAUDE.md", filepath.Join(".codemcp", "rules.md")}

// applicableRulesContent returns the content of the first rule file found
// under repoRoot, formatted for appending to the UserPrompt result, or "" if
// none exist.
func applicableRulesContent(repoRoot string) string {
	for _, name := range ruleFileNames {
		content, err := os.ReadFile(filepath.Join(repoRoot, name))
		if err != nil {
			continue
		}
		return fmt.Sprintf("\n\nApplicable rules from %s:\n%s", name, string(content))
	}
	return ""
}
