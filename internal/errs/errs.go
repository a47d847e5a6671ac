// Package errs defines the typed error kinds returned by codemcp operations.
//
// Every mutating operation reports failures as one of these kinds; the tool
// surface flattens them to a leading "Error: " string before returning to
// the caller (see internal/tools).
package errs

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel kinds. Use errors.Is against these to classify a failure.
var (
	// ErrPathInvalid is returned for a relative or unnormalisable path.
	ErrPathInvalid = errors.New("path invalid")

	// ErrPermissionDenied is returned when no codemcp.toml ancestor exists,
	// or the target is codemcp.toml itself.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrOutsideRepository is returned when the resolved path escapes the
	// repository root.
	ErrOutsideRepository = errors.New("outside repository")

	// ErrNotTracked is returned when an existing file is not in the Git index.
	ErrNotTracked = errors.New("not tracked by git")

	// ErrNotFound is returned when a required file or directory is missing.
	ErrNotFound = errors.New("not found")

	// ErrIsADirectory is returned when a file operation targets a directory.
	ErrIsADirectory = errors.New("is a directory")

	// ErrNotADirectory is returned when a directory operation targets a file.
	ErrNotADirectory = errors.New("not a directory")

	// ErrStaleRead is returned when a file was modified after it was last read.
	ErrStaleRead = errors.New("stale read")

	// ErrAmbiguousMatch is returned when EditFile's old_string matches more
	// than once and no context-anchored fallback applies.
	ErrAmbiguousMatch = errors.New("ambiguous match")

	// ErrNoMatch is returned when EditFile's old_string is not found.
	ErrNoMatch = errors.New("no match")

	// ErrCommandFailed is returned when an auxiliary command exits non-zero.
	ErrCommandFailed = errors.New("command failed")

	// ErrGitOperationFailed is returned for plumbing errors.
	ErrGitOperationFailed = errors.New("git operation failed")
)

// StaleReadError carries the detail behind ErrStaleRead.
type StaleReadError struct {
	Path       string
	RecordedAt time.Time
	ModifiedAt time.Time
}

func (e *StaleReadError) Error() string {
	return fmt.Sprintf("file %q was modified at %s after it was last read at %s; re-read before editing",
		e.Path, e.ModifiedAt.Format(time.RFC3339), e.RecordedAt.Format(time.RFC3339))
}

func (e *StaleReadError) Unwrap() error { return ErrStaleRead }

// AmbiguousMatchError carries the detail behind ErrAmbiguousMatch.
type AmbiguousMatchError struct {
	Count int
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("Found %d matches of the string to replace. For safety, this tool only supports replacing exactly one occurrence at a time. Add more lines of context to your edit and try again.", e.Count)
}

func (e *AmbiguousMatchError) Unwrap() error { return ErrAmbiguousMatch }

// CommandFailedError carries the detail behind ErrCommandFailed, preserving
// truncated stdout/stderr per the output truncation policy.
type CommandFailedError struct {
	Command []string
	Stdout  string
	Stderr  string
	Cause   error
}

func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("command %v failed: %v\nstdout:\n%s\nstderr:\n%s", e.Command, e.Cause, e.Stdout, e.Stderr)
}

func (e *CommandFailedError) Unwrap() error { return ErrCommandFailed }

// GitOperationFailedError records a best-effort-restore failure alongside
// the original cause, per spec: "logs and surfaces GitOperationFailed with
// both errors" when restoration itself fails.
type GitOperationFailedError struct {
	Cause        error
	RestoreCause error
}

func (e *GitOperationFailedError) Error() string {
	if e.RestoreCause != nil {
		return fmt.Sprintf("git operation failed: %v (restore also failed: %v)", e.Cause, e.RestoreCause)
	}
	return fmt.Sprintf("git operation failed: %v", e.Cause)
}

func (e *GitOperationFailedError) Unwrap() error { return ErrGitOperationFailed }

// AsResultString flattens any error into the "Error: ..." string the tool
// surface returns to the caller (spec.md §7).
func AsResultString(err error) string {
	if err == nil {
		return ""
	}
	return "Error: " + err.Error()
}
