package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/spf13/cobra"

	"github.com/nsstate/ipystate/pkg/checkpoint"
)

const (
	reportLineWidth  = 2
	reportFilePerm   = 0o644
	reportCheckpoint = "checkpoint.json"
)

// ErrNoCheckpointsFound is returned when the checkpoint root directory has
// no namespace checkpoints to chart.
var ErrNoCheckpointsFound = errors.New("no namespace checkpoints found")

// ReportCommand holds the flags for the report command.
type ReportCommand struct {
	checkpointDir string
	output        string
}

// NewReportCommand creates the report subcommand.
func NewReportCommand() *cobra.Command {
	rc := &ReportCommand{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render an HTML chart of component and variable counts across checkpointed namespaces",
		Long: `report walks every namespace checkpoint under --checkpoint-dir and renders
a bar chart comparing, per namespace, the total component count against the
count of variables that were not reduced to a serialized component (spec's
"non-serialized" names) as of that namespace's last checkpoint.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return rc.run()
		},
	}

	cmd.Flags().StringVar(&rc.checkpointDir, "checkpoint-dir", checkpoint.DefaultDir(), "base directory holding namespace checkpoints")
	cmd.Flags().StringVarP(&rc.output, "output", "o", "ipystate-report.html", "output HTML file path")

	return cmd
}

// namespaceSample is one namespace's checkpointed progress, read directly
// off its checkpoint.Metadata.
type namespaceSample struct {
	namespaceID      string
	totalComponents  int
	nonSerializedVar int
}

func (rc *ReportCommand) run() error {
	samples, err := readSamples(rc.checkpointDir)
	if err != nil {
		return err
	}

	if len(samples) == 0 {
		return fmt.Errorf("%w under %s", ErrNoCheckpointsFound, rc.checkpointDir)
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i].namespaceID < samples[j].namespaceID })

	out, err := os.Create(rc.output) //nolint:gosec // output path is an operator-supplied CLI flag
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer out.Close()

	bar := buildReportChart(samples)

	if renderErr := bar.Render(out); renderErr != nil {
		return fmt.Errorf("render report: %w", renderErr)
	}

	fmt.Printf("wrote %s (%d namespaces)\n", rc.output, len(samples))

	return nil
}

// readSamples walks checkpointDir for per-namespace metadata files,
// mirroring checkpoint.Manager.CheckpointDir's "<base>/<namespace hash>"
// layout without needing the original namespace ids up front.
func readSamples(checkpointDir string) ([]namespaceSample, error) {
	entries, err := os.ReadDir(checkpointDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("read checkpoint dir: %w", err)
	}

	var samples []namespaceSample

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		path := filepath.Join(checkpointDir, entry.Name(), reportCheckpoint)

		data, readErr := os.ReadFile(path) //nolint:gosec // path is built from a discovered checkpoint directory
		if readErr != nil {
			continue
		}

		var meta checkpoint.Metadata
		if unmarshalErr := json.Unmarshal(data, &meta); unmarshalErr != nil {
			continue
		}

		samples = append(samples, namespaceSample{
			namespaceID:      meta.NamespaceID,
			totalComponents:  meta.NamespaceState.TotalComponents,
			nonSerializedVar: meta.NamespaceState.TotalVariables - meta.NamespaceState.SerializedVariables,
		})
	}

	return samples, nil
}

func buildReportChart(samples []namespaceSample) *charts.Bar {
	labels := make([]string, len(samples))
	components := make([]opts.BarData, len(samples))
	nonSerialized := make([]opts.BarData, len(samples))

	for i, s := range samples {
		labels[i] = s.namespaceID
		components[i] = opts.BarData{Value: s.totalComponents}
		nonSerialized[i] = opts.BarData{Value: s.nonSerializedVar}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "ipystate checkpoint report"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "namespace"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "count"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("components", components, charts.WithItemStyleOpts(opts.ItemStyle{BorderWidth: reportLineWidth}))
	bar.AddSeries("non-serialized variables", nonSerialized)

	return bar
}
