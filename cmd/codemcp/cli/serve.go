package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codemcp-dev/codemcp/internal/config"
	"github.com/codemcp-dev/codemcp/internal/gitrepo"
	"github.com/codemcp-dev/codemcp/internal/logging"
	"github.com/codemcp-dev/codemcp/internal/mcpserver"
	"github.com/codemcp-dev/codemcp/internal/telemetry"
	"github.com/codemcp-dev/codemcp/internal/tools"
)

func newServeCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP stdio server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, dir)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Repository root to serve (defaults to the current directory)")

	return cmd
}

func runServe(cmd *cobra.Command, dir string) error {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolving working directory: %w", err)
		}
		dir = wd
	}

	repo, err := gitrepo.Open(dir)
	if err != nil {
		return fmt.Errorf("opening repository at %s: %w", dir, err)
	}
	root, err := gitrepo.Root(repo)
	if err != nil {
		return fmt.Errorf("resolving repository root: %w", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("loading %s: %w", config.FileName, err)
	}

	logging.Init(root, "")

	tc := telemetry.NewClient(Version, cfg.Telemetry)
	defer tc.Close()

	toolset := tools.New(root, tc)

	cmd.Println("codemcp: serving", root, "on stdio")
	return mcpserver.Serve(cmd.Context(), toolset)
}
