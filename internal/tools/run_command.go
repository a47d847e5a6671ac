package tools

import (
	"context"
	"fmt"

	"github.com/codemcp-dev/codemcp/internal/cmdrunner"
	"github.com/codemcp-dev/codemcp/internal/errs"
)

// RunCommandParams are the parameters of the RunCommand operation
// (spec.md §6).
type RunCommandParams struct {
	Path        string `json:"path" jsonschema:"Absolute path to the project directory"`
	Command     string `json:"command" jsonschema:"Name of a commands.<name> entry in codemcp.toml, e.g. \"test\" or \"lint\""`
	Arguments   string `json:"arguments,omitempty" jsonschema:"Extra arguments appended to the configured command, shlex-split"`
	Description string `json:"description" jsonschema:"Short description of the command run, used if it produces a commit"`
	ChatID      string `json:"chat_id" jsonschema:"The session's chat identifier"`
}

// RunCommand looks up command in the project's codemcp.toml commands table
// and runs it through the commutable auto-commit protocol of spec.md §4.5.
func (t *Toolset) RunCommand(ctx context.Context, p RunCommandParams) (string, error) {
	return t.track(ctx, "RunCommand", func() (string, error) {
		t.mu.Lock()
		defer t.mu.Unlock()

		dir, err := t.guardReadOnly(p.Path)
		if err != nil {
			return "", err
		}

		cfg, err := t.loadConfig()
		if err != nil {
			return "", err
		}
		cmd, ok := cfg.Commands[p.Command]
		if !ok {
			return "", fmt.Errorf("%w: no command %q configured in codemcp.toml", errs.ErrNotFound, p.Command)
		}

		argv := append([]string{}, cmd.Argv...)
		if p.Arguments != "" {
			extra, err := shlexSplit(p.Arguments)
			if err != nil {
				return "", fmt.Errorf("%w: parsing arguments: %v", errs.ErrPathInvalid, err)
			}
			argv = append(argv, extra...)
		}

		repo, err := t.openRepo()
		if err != nil {
			return "", err
		}
		runner := cmdrunner.New(t.RepoRoot, commitEngine(repo))

		message := p.Description
		if message == "" {
			message = fmt.Sprintf("Run %s", p.Command)
		}

		result, err := runner.Run(ctx, dir, p.Command, argv, message, p.ChatID)
		if err != nil {
			return "", err
		}

		out := result.Stdout
		if result.Note != "" {
			out += "\n" + result.Note
		}
		return out, nil
	})
}

// shlexSplit does a minimal shell-word split supporting single and double
// quoting, matching the shlex.split behaviour
// original_source/codemcp/tools/run_command.py relies on for its
// "arguments" parameter.
func shlexSplit(s string) ([]string, error) {
	var words []string
	var cur []rune
	var inSingle, inDouble, haveWord bool

	flush := func() {
		if haveWord {
			words = append(words, string(cur))
		}
		cur = cur[:0]
		haveWord = false
	}

	for _, r := range s {
		switch {
		case inSingle:
			if r == '\'' {
				inSingle = false
			} else {
				cur = append(cur, r)
			}
		case inDouble:
			if r == '"' {
				inDouble = false
			} else {
				cur = append(cur, r)
			}
		case r == '\'':
			inSingle, haveWord = true, true
		case r == '"':
			inDouble, haveWord = true, true
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		default:
			cur = append(cur, r)
			haveWord = true
		}
	}
	if inSingle || inDouble {
		return nil, fmt.Errorf("unterminated quote in %q", s)
	}
	flush()
	return words, nil
}
