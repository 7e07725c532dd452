// Package main provides the entry point for the ipystatectl CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nsstate/ipystate/cmd/ipystatectl/commands"
	"github.com/nsstate/ipystate/pkg/version"
)

var (
	verbose bool
	quiet   bool
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "ipystatectl",
		Short: "ipystate namespace engine - inspect, drive, and serve commit state",
		Long: `ipystatectl operates a namespace engine that tracks an in-process
variable set and produces atomic changes as it changes.

Commands:
  demo       Run a scripted commit cycle against a throwaway namespace
  inspect    Print a hosted namespace's component partition from its checkpoint
  serve-mcp  Start the MCP server exposing commit/inspect_components/get_change
  report     Render an HTML chart of component/variable counts across checkpoints`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(commands.NewDemoCommand())
	rootCmd.AddCommand(commands.NewInspectCommand())
	rootCmd.AddCommand(commands.NewServeMCPCommand())
	rootCmd.AddCommand(commands.NewReportCommand())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "ipystatectl %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
