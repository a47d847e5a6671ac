// Package cli implements the codemcp command-line surface: the serve
// subcommand that runs the MCP tool server, and the doctor subcommand that
// runs a read-only health check. Grounded on the teacher's
// cmd/entire/cli/root.go root-command construction.
package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time (e.g. -ldflags "-X ...cli.Version=...").
var Version = "dev"

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "codemcp",
		Short:         "A code-editing agent backend with every mutation recorded as a Git commit",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println("codemcp " + Version)
		},
	}
}
