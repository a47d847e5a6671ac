// Package shellrun runs external commands (the project-configured
// auxiliary commands of spec.md §4.5, `chmod`, and the read-only Git
// passthrough operations of spec.md §6) with consistent logging and
// output capture.
//
// Grounded on the teacher's cmd/entire/cli/git_operations.go, which shells
// out via exec.CommandContext for every Git operation it does not model
// through go-git plumbing; this package generalizes that idiom to
// arbitrary argv rather than only `git` subcommands, matching
// original_source/codemcp/shell.py's run_command (consistent logging of the
// argv and captured stdout/stderr around a single os/exec invocation).
package shellrun

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/codemcp-dev/codemcp/internal/logging"
)

// Result carries the outcome of a Run call.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes argv[0] with argv[1:] as arguments, in dir, returning
// captured stdout/stderr regardless of exit code. Only a failure to start
// the process (not a non-zero exit) is returned as an error.
func Run(ctx context.Context, dir string, argv ...string) (Result, error) {
	if len(argv) == 0 {
		return Result{}, nil
	}

	logging.Debug(ctx, "running command", "argv", argv, "dir", dir)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // argv is caller-controlled, project-configured
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	if err == nil {
		result.ExitCode = 0
		return result, nil
	}

	var exitErr *exec.ExitError
	if ok := asExitError(err, &exitErr); ok {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	return result, err
}

func asExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if ok {
		*target = ee
	}
	return ok
}
