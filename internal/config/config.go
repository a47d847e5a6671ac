// Package config loads codemcp.toml, the repository-root configuration file
// described in spec.md §6: project_prompt, commands.<name> (either a bare
// argv list or a {command, doc} table), files.line_endings, and the
// supplemented telemetry opt-in flag.
//
// Grounded on original_source/codemcp/code_command.py's
// get_command_from_config (the same "list or {command: [...]}" duck-typing)
// and original_source/codemcp/tools/init_project.py's use of a TOML loader
// for the root config file; the teacher carries no TOML configuration of its
// own (.entire/settings.json is JSON, loaded by cmd/entire/cli/config.go),
// so the decode-into-a-generic-map approach here is this package's own,
// kept deliberately permissive since unknown keys must be ignored per
// spec.md §6. The two-file layering in Load (codemcp.toml, then
// codemcp.local.toml overrides) follows the teacher's settings.Load
// settings-plus-local-override convention.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/codemcp-dev/codemcp/internal/lineendings"
)

// FileName is the recognised configuration file name at a repository root.
const FileName = "codemcp.toml"

// LocalFileName is an optional, typically gitignored override file layered
// on top of FileName: any key it sets replaces the corresponding key from
// FileName rather than merging into it.
const LocalFileName = "codemcp.local.toml"

// Command is one entry under the [commands] table: an argv plus optional
// documentation, per spec.md §6's "list[string] or {command, doc?}" shape.
type Command struct {
	Argv []string
	Doc  string
}

// Config is the parsed content of codemcp.toml. Unknown keys are ignored by
// construction, since Load only ever reads the keys it recognises out of the
// generic decode.
type Config struct {
	ProjectPrompt string
	Commands      map[string]Command
	LineEndings   lineendings.Style // "" if unset
	Telemetry     bool
}

// Load reads and parses codemcp.toml from dir, then layers codemcp.local.toml
// on top if present. Neither file existing is not an error: it returns a
// zero-value Config.
func Load(dir string) (Config, error) {
	cfg, err := loadFile(dir, FileName)
	if err != nil {
		return Config{}, err
	}

	local, err := loadFile(dir, LocalFileName)
	if err != nil {
		return Config{}, err
	}
	return merge(cfg, local), nil
}

func loadFile(dir, name string) (Config, error) {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path) //nolint:gosec // dir is the already-guarded repository root
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// merge layers override on top of base: any non-zero field in override wins,
// and override's commands replace base's entries key by key.
func merge(base, override Config) Config {
	out := base
	if override.ProjectPrompt != "" {
		out.ProjectPrompt = override.ProjectPrompt
	}
	if override.LineEndings != "" {
		out.LineEndings = override.LineEndings
	}
	if override.Telemetry {
		out.Telemetry = true
	}
	if len(override.Commands) > 0 {
		if out.Commands == nil {
			out.Commands = map[string]Command{}
		}
		for name, cmd := range override.Commands {
			out.Commands[name] = cmd
		}
	}
	return out
}

// Parse decodes raw TOML bytes into a Config, tolerating and ignoring any
// key or shape it does not recognise.
func Parse(data []byte) (Config, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	cfg := Config{Commands: map[string]Command{}}

	if v, ok := raw["project_prompt"].(string); ok {
		cfg.ProjectPrompt = v
	}

	if v, ok := raw["telemetry"].(bool); ok {
		cfg.Telemetry = v
	}

	if commandsRaw, ok := raw["commands"].(map[string]any); ok {
		for name, v := range commandsRaw {
			if cmd, ok := parseCommand(v); ok {
				cfg.Commands[name] = cmd
			}
		}
	}

	if filesRaw, ok := raw["files"].(map[string]any); ok {
		if le, ok := filesRaw["line_endings"].(string); ok {
			switch le {
			case "CRLF":
				cfg.LineEndings = lineendings.CRLF
			case "LF":
				cfg.LineEndings = lineendings.LF
			}
		}
	}

	return cfg, nil
}

// parseCommand accepts either a bare array of strings, or a table with a
// "command" array and optional "doc" string.
func parseCommand(v any) (Command, bool) {
	switch t := v.(type) {
	case []any:
		argv, ok := toStringSlice(t)
		if !ok || len(argv) == 0 {
			return Command{}, false
		}
		return Command{Argv: argv}, true
	case map[string]any:
		argvRaw, ok := t["command"].([]any)
		if !ok {
			return Command{}, false
		}
		argv, ok := toStringSlice(argvRaw)
		if !ok || len(argv) == 0 {
			return Command{}, false
		}
		doc, _ := t["doc"].(string)
		return Command{Argv: argv, Doc: doc}, true
	default:
		return Command{}, false
	}
}

func toStringSlice(items []any) ([]string, bool) {
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
