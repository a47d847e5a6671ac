// Command codemcp serves the codemcp tool surface over MCP stdio and
// provides a read-only repository doctor check, grounded on the teacher's
// cmd/entire/main.go entrypoint idiom (context cancelled on SIGINT/SIGTERM,
// cobra root command, error printed once by main rather than by cobra
// itself).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/codemcp-dev/codemcp/cmd/codemcp/cli"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	rootCmd := cli.NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(rootCmd.OutOrStderr(), err)
		os.Exit(1)
	}
}
