package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/spf13/cobra"

	"github.com/codemcp-dev/codemcp/internal/config"
	"github.com/codemcp-dev/codemcp/internal/gitrepo"
	"github.com/codemcp-dev/codemcp/internal/sessiontracker"
)

// doctorCheck is one line of the diagnostic checklist, adapted from the
// teacher's doctor.go pass/fail reporting but scoped to a read-only check
// of this repository's own prerequisites rather than stuck-session repair.
type doctorCheck struct {
	Name string
	OK   bool
	Note string
}

func newDoctorCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check whether this directory is ready to be served",
		Long: `Runs a read-only checklist against the target directory:
  - is it a Git repository
  - does codemcp.toml exist and parse
  - is HEAD resolvable (or is the repository freshly initialized)

Nothing is written; doctor never creates a commit or a ref.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, dir)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Directory to check (defaults to the current directory)")

	return cmd
}

func runDoctor(cmd *cobra.Command, dir string) error {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolving working directory: %w", err)
		}
		dir = wd
	}

	checks := []doctorCheck{checkIsGitRepo(dir)}

	repo, err := gitrepo.Open(dir)
	if err == nil {
		root, rootErr := gitrepo.Root(repo)
		if rootErr == nil {
			checks = append(checks, checkConfig(root), checkHead(repo))
		}
	}

	allOK := true
	for _, c := range checks {
		mark := "ok"
		if !c.OK {
			mark = "FAIL"
			allOK = false
		}
		cmd.Printf("[%s] %s", mark, c.Name)
		if c.Note != "" {
			cmd.Printf(": %s", c.Note)
		}
		cmd.Println()
	}

	if !allOK {
		return fmt.Errorf("one or more checks failed")
	}
	return nil
}

func checkIsGitRepo(dir string) doctorCheck {
	if _, err := gitrepo.Open(dir); err != nil {
		return doctorCheck{Name: "git repository", OK: false, Note: err.Error()}
	}
	return doctorCheck{Name: "git repository", OK: true}
}

func checkConfig(root string) doctorCheck {
	path := filepath.Join(root, config.FileName)
	if _, err := os.Stat(path); err != nil {
		return doctorCheck{Name: config.FileName, OK: true, Note: "not present, defaults will be used"}
	}
	if _, err := config.Load(root); err != nil {
		return doctorCheck{Name: config.FileName, OK: false, Note: err.Error()}
	}
	return doctorCheck{Name: config.FileName, OK: true}
}

func checkHead(repo *git.Repository) doctorCheck {
	tracker := sessiontracker.New(repo)
	if !tracker.HasCommits() {
		return doctorCheck{Name: "HEAD", OK: true, Note: "repository has no commits yet"}
	}
	hash, ok, err := tracker.HeadHash()
	if err != nil {
		return doctorCheck{Name: "HEAD", OK: false, Note: err.Error()}
	}
	if !ok {
		return doctorCheck{Name: "HEAD", OK: false, Note: "HEAD is unresolvable"}
	}
	return doctorCheck{Name: "HEAD", OK: true, Note: hash.String()[:7]}
}
