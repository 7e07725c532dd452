package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nsstate/ipystate/internal/mcpserver"
	"github.com/nsstate/ipystate/pkg/checkpoint"
)

// InspectCommand holds the flags for the inspect command.
type InspectCommand struct {
	checkpointDir string
	noColor       bool
}

// NewInspectCommand creates the inspect subcommand: it restores a hosted
// namespace from its on-disk checkpoint and prints its component partition.
func NewInspectCommand() *cobra.Command {
	ic := &InspectCommand{}

	cmd := &cobra.Command{
		Use:   "inspect <namespace-id>",
		Short: "Print a checkpointed namespace's component partition",
		Long: `inspect restores a namespace's change detector digest table and change
log from its on-disk checkpoint, then prints the component partition as of
the checkpointed commit. Every name carried by the checkpoint's last recorded
change (its variables, or the name it removed) is highlighted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return ic.run(args[0], os.Stdout)
		},
	}

	cmd.Flags().StringVar(&ic.checkpointDir, "checkpoint-dir", checkpoint.DefaultDir(), "base directory holding namespace checkpoints")
	cmd.Flags().BoolVar(&ic.noColor, "no-color", false, "disable colored output")

	return cmd
}

func (ic *InspectCommand) run(namespaceID string, w io.Writer) error {
	if ic.noColor {
		color.NoColor = true //nolint:reassign // explicit user override of the library global
	}

	mgr := checkpoint.NewManager(ic.checkpointDir, checkpoint.NamespaceHash(namespaceID))
	if !mgr.Exists() {
		return fmt.Errorf("inspect: no checkpoint for namespace %q under %s", namespaceID, ic.checkpointDir)
	}

	meta, err := mgr.LoadMetadata()
	if err != nil {
		return fmt.Errorf("load checkpoint metadata: %w", err)
	}

	host := mcpserver.NewHost(0, nil, nil)
	if loadErr := host.LoadCheckpoint(mgr, namespaceID); loadErr != nil {
		return fmt.Errorf("restore checkpoint: %w", loadErr)
	}

	components, err := host.Components(namespaceID)
	if err != nil {
		return fmt.Errorf("read component partition: %w", err)
	}

	fmt.Fprintf(w, "namespace %q: %d variables across %d components (last change %s)\n\n",
		namespaceID, meta.NamespaceState.TotalVariables, len(components), meta.NamespaceState.LastChangeID)

	dirtyNames := make(map[string]bool)

	if meta.NamespaceState.LastChangeID != "" {
		lastChange, changeErr := host.GetChange(namespaceID, meta.NamespaceState.LastChangeID)
		if changeErr == nil {
			for _, v := range lastChange.AllVars {
				dirtyNames[v.Name] = true
			}

			if lastChange.RemovedName != "" {
				dirtyNames[lastChange.RemovedName] = true
			}
		}
	}

	dirty := color.New(color.FgGreen)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"component", "names"})

	for i, c := range components {
		names := ""

		for j, name := range c {
			if j > 0 {
				names += ", "
			}

			if dirtyNames[name] {
				names += dirty.Sprint(name)
			} else {
				names += name
			}
		}

		tbl.AppendRow(table.Row{i, names})
	}

	tbl.Render()

	return nil
}
