package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCacheHits   = "ipystate.cache.hits"
	metricCacheMisses = "ipystate.cache.misses"

	cacheStageRaw     = "raw"
	cacheStagePickled = "pickled"

	attrCache = "cache"
)

// CacheStatsProvider reports cumulative hit/miss counts for one of
// internal/changedetector's two classification stages. nil is a valid
// provider and reports zero for both.
type CacheStatsProvider interface {
	CacheHits() int64
	CacheMisses() int64
}

// RegisterCacheMetrics installs observable gauges that read the RAW-stage
// and PICKLED-stage classifier caches on every collection, tagged by
// cache stage. Either provider may be nil.
func RegisterCacheMetrics(mt metric.Meter, raw, pickled CacheStatsProvider) error {
	hits, err := mt.Int64ObservableGauge(metricCacheHits,
		metric.WithDescription("Cumulative cache hits by classifier stage"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return fmt.Errorf("create %s: %w", metricCacheHits, err)
	}

	misses, err := mt.Int64ObservableGauge(metricCacheMisses,
		metric.WithDescription("Cumulative cache misses by classifier stage"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return fmt.Errorf("create %s: %w", metricCacheMisses, err)
	}

	_, err = mt.RegisterCallback(func(_ context.Context, obs metric.Observer) error {
		observeCacheStage(obs, hits, misses, cacheStageRaw, raw)
		observeCacheStage(obs, hits, misses, cacheStagePickled, pickled)

		return nil
	}, hits, misses)
	if err != nil {
		return fmt.Errorf("register cache metrics callback: %w", err)
	}

	return nil
}

func observeCacheStage(
	obs metric.Observer,
	hits, misses metric.Int64ObservableGauge,
	stage string,
	provider CacheStatsProvider,
) {
	attrs := metric.WithAttributes(attribute.String(attrCache, stage))

	if provider == nil {
		obs.ObserveInt64(hits, 0, attrs)
		obs.ObserveInt64(misses, 0, attrs)

		return
	}

	obs.ObserveInt64(hits, provider.CacheHits(), attrs)
	obs.ObserveInt64(misses, provider.CacheMisses(), attrs)
}
