package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/nsstate/ipystate/cmd/ipystatectl/commands"
)

func buildTestRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ipystatectl",
		Short: "ipystate namespace engine - inspect, drive, and serve commit state",
	}

	rootCmd.AddCommand(commands.NewDemoCommand())
	rootCmd.AddCommand(commands.NewInspectCommand())
	rootCmd.AddCommand(commands.NewServeMCPCommand())
	rootCmd.AddCommand(commands.NewReportCommand())

	return rootCmd
}

func TestIpystatectlCLI_HelpListsSubcommands(t *testing.T) {
	t.Parallel()

	rootCmd := buildTestRootCmd()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"--help"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("--help: unexpected error: %v", err)
	}

	out := buf.String()

	for _, want := range []string{"demo", "inspect", "serve-mcp", "report"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing subcommand %q\ngot: %s", want, out)
		}
	}
}

func TestIpystatectlCLI_UnknownSubcommandErrors(t *testing.T) {
	t.Parallel()

	rootCmd := buildTestRootCmd()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"unknown"})

	if err := rootCmd.Execute(); err == nil {
		t.Fatalf("expected error for unknown subcommand, got nil")
	}
}
