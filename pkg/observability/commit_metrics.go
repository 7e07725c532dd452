package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
)

const (
	metricCommitsTotal      = "ipystate.engine.commits.total"
	metricComponentsTotal   = "ipystate.engine.components.total"
	metricComponentDuration = "ipystate.engine.component.duration.seconds"
)

// CommitMetrics holds OTel instruments for engine.Commit-specific metrics,
// recorded once per Commit call rather than per individual request.
type CommitMetrics struct {
	commitsTotal      metric.Int64Counter
	componentsTotal   metric.Int64Counter
	componentDuration metric.Float64Histogram
}

// CommitStats holds the statistics for a single Commit call, decoupled
// from internal/namespace's types so this package never imports them.
type CommitStats struct {
	// Components is the number of disjoint components the walker
	// partitioned the touched variables into for this commit.
	Components int
	// ComponentDurations is the per-component pickle-or-format wall time.
	ComponentDurations []time.Duration
}

// NewCommitMetrics creates commit metric instruments from the given meter.
func NewCommitMetrics(mt metric.Meter) (*CommitMetrics, error) {
	commits, err := mt.Int64Counter(metricCommitsTotal,
		metric.WithDescription("Total Commit calls"),
		metric.WithUnit("{commit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCommitsTotal, err)
	}

	components, err := mt.Int64Counter(metricComponentsTotal,
		metric.WithDescription("Total components serialized across all commits"),
		metric.WithUnit("{component}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricComponentsTotal, err)
	}

	componentDur, err := mt.Float64Histogram(metricComponentDuration,
		metric.WithDescription("Per-component serialization duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricComponentDuration, err)
	}

	return &CommitMetrics{
		commitsTotal:      commits,
		componentsTotal:   components,
		componentDuration: componentDur,
	}, nil
}

// RecordCommit records statistics for one completed Commit call.
// Safe to call on a nil receiver (no-op).
func (cm *CommitMetrics) RecordCommit(ctx context.Context, stats CommitStats) {
	if cm == nil {
		return
	}

	cm.commitsTotal.Add(ctx, 1)
	cm.componentsTotal.Add(ctx, int64(stats.Components))

	for _, d := range stats.ComponentDurations {
		cm.componentDuration.Record(ctx, d.Seconds())
	}
}
