// Package tools implements the fourteen tool-surface operations of
// spec.md §6 as typed request/response structs, each routed through
// guard → editengine/cmdrunner → sessiontracker → commitengine per the
// dataflow of spec.md §2.
//
// Grounded on original_source/codemcp/tools/*.py for per-operation
// semantics and spec.md §9's "tagged union of per-operation input structs"
// resolution of the dynamic-dispatch ambiguity: one Go struct per
// operation, registered individually by internal/mcpserver, rather than a
// single struct with a subtool selector and a permitted-parameter matrix.
package tools

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"

	"github.com/codemcp-dev/codemcp/internal/commitengine"
	"github.com/codemcp-dev/codemcp/internal/config"
	"github.com/codemcp-dev/codemcp/internal/errs"
	"github.com/codemcp-dev/codemcp/internal/gitrepo"
	"github.com/codemcp-dev/codemcp/internal/guard"
	"github.com/codemcp-dev/codemcp/internal/logging"
	"github.com/codemcp-dev/codemcp/internal/telemetry"
)

// Toolset holds the process-wide state shared by every tool handler for a
// single repository: the repository root, the configured telemetry client,
// and the stale-read tracking table of spec.md §5 ("a mapping from file
// path to last read timestamp used to reject stale edits").
//
// One Toolset is constructed per served repository; internal/mcpserver owns
// its lifetime.
type Toolset struct {
	RepoRoot  string
	Telemetry telemetry.Client

	// mu serializes mutating operations against this repository, matching
	// spec.md §5's "serial per repository" guarantee: the Session Tracker
	// must never observe concurrent amends of the same HEAD.
	mu sync.Mutex

	// readTimestamps maps an absolute file path to the time it was last
	// read by ReadFile, so WriteFile/EditFile can detect a StaleRead.
	readTimestamps sync.Map
}

// New constructs a Toolset rooted at repoRoot.
func New(repoRoot string, tc telemetry.Client) *Toolset {
	if tc == nil {
		tc = telemetry.NoOpClient{}
	}
	return &Toolset{RepoRoot: repoRoot, Telemetry: tc}
}

// track runs fn, recording its success/failure via telemetry and the
// process logger, and returns fn's result unchanged. Every exported
// operation wraps its body in track so every tool invocation is observed
// uniformly.
func (t *Toolset) track(ctx context.Context, tool string, fn func() (string, error)) (result string, err error) {
	ctx = logging.WithTool(ctx, tool)
	logging.Info(ctx, "tool invoked")
	defer func() {
		t.Telemetry.TrackTool(tool, err == nil)
		if err != nil {
			logging.Warn(ctx, "tool failed", "error", err)
		}
	}()
	return fn()
}

// openRepo opens the Git repository at the Toolset's root.
func (t *Toolset) openRepo() (*git.Repository, error) {
	return gitrepo.Open(t.RepoRoot)
}

// loadConfig loads codemcp.toml (+ local override) from the repository
// root.
func (t *Toolset) loadConfig() (config.Config, error) {
	cfg, err := config.Load(t.RepoRoot)
	if err != nil {
		return config.Config{}, fmt.Errorf("%w: loading codemcp.toml: %v", errs.ErrGitOperationFailed, err)
	}
	return cfg, nil
}

// guardMutating runs the full four-check guard layer (spec.md §4.1) and
// returns the resolved absolute path.
func (t *Toolset) guardMutating(repo *git.Repository, rawPath string) (string, error) {
	return guard.Check(repo, t.RepoRoot, rawPath)
}

// guardReadOnly runs the first three guard checks (normalise, permission,
// containment) without requiring the target to be tracked by git, since
// reading an untracked file is permitted.
func (t *Toolset) guardReadOnly(rawPath string) (string, error) {
	normalised, err := guard.Normalise(rawPath)
	if err != nil {
		return "", err
	}
	if err := guard.Permission(normalised, t.RepoRoot); err != nil {
		return "", err
	}
	return guard.Containment(normalised, t.RepoRoot)
}

// checkStaleRead compares path's on-disk modification time against the
// last time ReadFile recorded for it, per spec.md §5 and the StaleRead
// error kind of spec.md §7. A path never read is never stale.
func (t *Toolset) checkStaleRead(path string) error {
	v, ok := t.readTimestamps.Load(path)
	if !ok {
		return nil
	}
	recordedAt := v.(time.Time)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %v", errs.ErrGitOperationFailed, err)
	}
	if info.ModTime().After(recordedAt) {
		return &errs.StaleReadError{Path: path, RecordedAt: recordedAt, ModifiedAt: info.ModTime()}
	}
	return nil
}

// recordRead stores the current modification time of path (or now, for a
// freshly created file) as the baseline for future stale-read checks.
func (t *Toolset) recordRead(path string) {
	ts := time.Now()
	if info, err := os.Stat(path); err == nil {
		ts = info.ModTime()
	}
	t.readTimestamps.Store(path, ts)
}

// commitEngine builds a commitengine.Engine bound to repo.
func commitEngine(repo *git.Repository) *commitengine.Engine {
	return commitengine.New(repo)
}

// describeCommit renders a commit engine result as the trailing sentence
// every mutating tool appends to its success message.
func describeCommit(result commitengine.Result, verb string) string {
	switch {
	case result.Skipped:
		return "No changes to commit."
	case result.Amended:
		return fmt.Sprintf("%s and amended commit %s.", verb, shortHash(result.CommitHash.String()))
	default:
		return fmt.Sprintf("%s and committed as %s.", verb, shortHash(result.CommitHash.String()))
	}
}

func shortHash(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
