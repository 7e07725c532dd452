package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nsstate/ipystate/internal/mcpserver"
	"github.com/nsstate/ipystate/pkg/config"
	"github.com/nsstate/ipystate/pkg/observability"
)

// ServeMCPCommand holds the flags for the serve-mcp command.
type ServeMCPCommand struct {
	configFile string
	debug      bool
}

// NewServeMCPCommand creates the serve-mcp subcommand.
func NewServeMCPCommand() *cobra.Command {
	sc := &ServeMCPCommand{}

	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Start the MCP server exposing commit, inspect_components, get_change",
		Long: `Start a Model Context Protocol server on stdio transport, hosting one
ipystate namespace engine per namespace id an agent addresses. Exposed tools:
  - commit: run one commit cycle, returning the resulting change envelopes
  - inspect_components: report a namespace's current component partition
  - get_change: look up a previously transferred change envelope by id`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			return sc.run(cobraCmd.Context())
		},
	}

	cmd.Flags().StringVar(&sc.configFile, "config", "", "path to config file (default: search ./config.yaml, /etc/ipystate)")
	cmd.Flags().BoolVar(&sc.debug, "debug", false, "enable debug logging to stderr")

	return cmd
}

func (sc *ServeMCPCommand) run(ctx context.Context) error {
	cfg, err := config.LoadConfig(sc.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	providers, err := initObservability(observability.ModeMCP, sc.debug)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		if shutdownErr := providers.Shutdown(context.Background()); shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	red, err := observability.NewREDMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("init RED metrics: %w", err)
	}

	srv := mcpserver.NewServer(mcpserver.ServerDeps{
		Logger:                  providers.Logger,
		Metrics:                 red,
		Tracer:                  providers.Tracer,
		MaxConcurrentNamespaces: cfg.Engine.MaxConcurrentNamespaces,
	})

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers.Logger.Info("serve-mcp starting",
		"tools", srv.ListToolNames(),
		"max_concurrent_namespaces", cfg.Engine.MaxConcurrentNamespaces)

	return srv.Run(runCtx)
}
