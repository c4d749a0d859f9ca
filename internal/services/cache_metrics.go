package services

import (
	"context"

	"go.opentelemetry.io/otel/metric"

	"finsight/internal/loader"
)

// registerCacheMetrics exposes the loader's cache counters as observable
// instruments read at collection time.
func registerCacheMetrics(meter metric.Meter, l *loader.Loader) error {
	entries, err := meter.Int64ObservableGauge(
		"finsight_cache_entries",
		metric.WithDescription("Number of datasets held in the table cache"),
	)
	if err != nil {
		return err
	}
	hits, err := meter.Int64ObservableCounter(
		"finsight_cache_hits_total",
		metric.WithDescription("Table cache hits"),
	)
	if err != nil {
		return err
	}
	misses, err := meter.Int64ObservableCounter(
		"finsight_cache_misses_total",
		metric.WithDescription("Table cache misses"),
	)
	if err != nil {
		return err
	}
	loads, err := meter.Int64ObservableCounter(
		"finsight_dataset_loads_total",
		metric.WithDescription("Datasets read and parsed from disk"),
	)
	if err != nil {
		return err
	}
	evictions, err := meter.Int64ObservableCounter(
		"finsight_cache_evictions_total",
		metric.WithDescription("Tables evicted from the cache"),
	)
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := l.Stats()
		o.ObserveInt64(entries, int64(stats.Entries))
		o.ObserveInt64(hits, stats.Hits)
		o.ObserveInt64(misses, stats.Misses)
		o.ObserveInt64(loads, stats.Loads)
		o.ObserveInt64(evictions, stats.Evictions)
		return nil
	}, entries, hits, misses, loads, evictions)
	return err
}
