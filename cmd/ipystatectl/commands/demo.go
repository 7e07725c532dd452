package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nsstate/ipystate/internal/change"
	"github.com/nsstate/ipystate/pkg/ipystate"
	"github.com/nsstate/ipystate/pkg/observability"
)

// DemoCommand holds the flags for the demo command.
type DemoCommand struct {
	debug   bool
	noColor bool
}

// NewDemoCommand creates the demo subcommand: it drives a throwaway
// namespace through two commits so a reader can see the incremental commit
// algorithm decide what did and did not change.
func NewDemoCommand() *cobra.Command {
	dc := &DemoCommand{}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted two-commit cycle against a throwaway namespace",
		Long: `demo sets a handful of variables on a fresh namespace, commits, mutates
one of them, and commits again, printing the atomic changes produced by
each commit so the incremental commit algorithm's behavior is visible:
only names that actually changed since the last commit are re-emitted.`,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			return dc.run(cobraCmd.Context(), os.Stdout)
		},
	}

	cmd.Flags().BoolVar(&dc.debug, "debug", false, "enable debug logging to stderr")
	cmd.Flags().BoolVar(&dc.noColor, "no-color", false, "disable colored output")

	return cmd
}

func (dc *DemoCommand) run(ctx context.Context, w io.Writer) error {
	providers, err := initObservability(observability.ModeCLI, dc.debug)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		if shutdownErr := providers.Shutdown(context.Background()); shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	engine := ipystate.New(nil, providers.Logger)

	engine.Set("epoch", int64(0))
	engine.Set("label", "ipystate-demo")
	engine.Set("history", ipystate.Tuple{int64(1), int64(2), int64(3)})

	fmt.Fprintln(w, "-- first commit: every name is new --")

	if renderErr := dc.renderCommit(w, engine, false); renderErr != nil {
		return renderErr
	}

	engine.Set("epoch", int64(1))

	fmt.Fprintln(w, "\n-- second commit: only 'epoch' changed --")

	return dc.renderCommit(w, engine, false)
}

// renderCommit runs one commit cycle and renders its atomic changes as a
// table, highlighting each changed name in green unless color is disabled.
func (dc *DemoCommand) renderCommit(w io.Writer, engine *ipystate.Engine, fullWalk bool) error {
	if dc.noColor {
		color.NoColor = true //nolint:reassign // explicit user override of the library global
	}

	engine.SetFullWalk(fullWalk)

	highlight := color.New(color.FgGreen)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"change id", "kind", "names"})

	count := 0

	for ac := range engine.Commit() {
		sink := &tableSink{}
		if transferErr := ac.Transfer(sink); transferErr != nil {
			return fmt.Errorf("transfer change: %w", transferErr)
		}

		count++

		tbl.AppendRow(table.Row{ac.ID(), sink.kind, highlight.Sprint(sink.names)})
	}

	if count == 0 {
		fmt.Fprintln(w, "(no changes)")

		return nil
	}

	tbl.Render()

	return nil
}

// tableSink projects one AtomicChange's Transfer payload down to a kind
// label and a display string of its variable names, for demo's table.
type tableSink struct {
	kind  string
	names string
}

func (s *tableSink) Transfer(_ string, p change.TransferPayload) error {
	switch p.Kind {
	case change.KindPrimitive:
		s.kind = "primitive"

		if len(p.AllVars) > 0 {
			s.names = p.AllVars[0].Name
		}
	case change.KindComponent:
		s.kind = "component"
		s.names = joinVarNames(p.AllVars)
	case change.KindRemove:
		s.kind = "remove"
		s.names = p.RemovedName
	}

	return nil
}

func joinVarNames(vars []change.VarDecl) string {
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = v.Name
	}

	out := ""

	for i, n := range names {
		if i > 0 {
			out += ", "
		}

		out += n
	}

	return out
}
