package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCacheHits   = "differo.cache.hits"
	metricCacheMisses = "differo.cache.misses"
)

// CacheStatsProvider exposes cache hit/miss counters for OTel export. The
// differo query server implements it for its point-lookup memoization
// cache.
type CacheStatsProvider interface {
	CacheHits() int64
	CacheMisses() int64
}

// RegisterCacheMetrics registers observable gauges that report cache
// hit/miss counters from the snapshot-restore and point-lookup caches.
// Either provider may be nil.
func RegisterCacheMetrics(mt metric.Meter, snapshot, lookup CacheStatsProvider) error {
	providers := make([]struct {
		name     string
		provider CacheStatsProvider
	}, 0, 2)

	if snapshot != nil {
		providers = append(providers, struct {
			name     string
			provider CacheStatsProvider
		}{"snapshot", snapshot})
	}

	if lookup != nil {
		providers = append(providers, struct {
			name     string
			provider CacheStatsProvider
		}{"lookup", lookup})
	}

	if len(providers) == 0 {
		return nil
	}

	_, err := mt.Int64ObservableGauge(metricCacheHits,
		metric.WithDescription("Cache hit count"),
		metric.WithUnit("{hit}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			for _, p := range providers {
				o.Observe(p.provider.CacheHits(), metric.WithAttributes(
					attribute.String("cache", p.name),
				))
			}

			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("create %s: %w", metricCacheHits, err)
	}

	_, err = mt.Int64ObservableGauge(metricCacheMisses,
		metric.WithDescription("Cache miss count"),
		metric.WithUnit("{miss}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			for _, p := range providers {
				o.Observe(p.provider.CacheMisses(), metric.WithAttributes(
					attribute.String("cache", p.name),
				))
			}

			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("create %s: %w", metricCacheMisses, err)
	}

	return nil
}
