package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCommitsTotal     = "lineage.gather.commits.total"
	metricTreesTotal       = "lineage.gather.trees.total"
	metricRecordsTotal     = "lineage.gather.records.total"
	metricBlameDuration    = "lineage.gather.blame.duration.seconds"
	metricCacheHitsTotal   = "lineage.cache.hits.total"
	metricCacheMissesTotal = "lineage.cache.misses.total"

	attrOutcome = "outcome"
	attrCache   = "cache"
)

// Record outcomes reported by the recompute scheduler.
const (
	OutcomeComputed     = "computed"
	OutcomeDeduplicated = "deduplicated"
	OutcomeExisting     = "existing"
	OutcomeIgnored      = "ignored"
	OutcomeBinary       = "binary"

	OutcomeBuilt = "built"
)

// durationBucketBoundaries covers 1ms to 60s, the range of a single blame.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// GatherMetrics holds the OTel instruments of the gather and aggregate
// pipelines. All methods are safe to call on a nil receiver.
type GatherMetrics struct {
	commitsTotal  metric.Int64Counter
	treesTotal    metric.Int64Counter
	recordsTotal  metric.Int64Counter
	blameDuration metric.Float64Histogram
	cacheHits     metric.Int64Counter
	cacheMisses   metric.Int64Counter
}

// NewGatherMetrics creates the instruments from the given meter.
func NewGatherMetrics(mt metric.Meter) (*GatherMetrics, error) {
	commits, err := mt.Int64Counter(metricCommitsTotal,
		metric.WithDescription("Commits read from history"),
		metric.WithUnit("{commit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCommitsTotal, err)
	}

	trees, err := mt.Int64Counter(metricTreesTotal,
		metric.WithDescription("Attribution trees by outcome"),
		metric.WithUnit("{tree}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTreesTotal, err)
	}

	records, err := mt.Int64Counter(metricRecordsTotal,
		metric.WithDescription("Authorship records by outcome"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRecordsTotal, err)
	}

	blame, err := mt.Float64Histogram(metricBlameDuration,
		metric.WithDescription("Per-file blame duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricBlameDuration, err)
	}

	hits, err := mt.Int64Counter(metricCacheHitsTotal,
		metric.WithDescription("Cache hits by cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheHitsTotal, err)
	}

	misses, err := mt.Int64Counter(metricCacheMissesTotal,
		metric.WithDescription("Cache misses by cache"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheMissesTotal, err)
	}

	return &GatherMetrics{
		commitsTotal:  commits,
		treesTotal:    trees,
		recordsTotal:  records,
		blameDuration: blame,
		cacheHits:     hits,
		cacheMisses:   misses,
	}, nil
}

// RecordBlame records the duration of one blame.
func (gm *GatherMetrics) RecordBlame(ctx context.Context, d time.Duration) {
	if gm == nil {
		return
	}

	gm.blameDuration.Record(ctx, d.Seconds())
}

// RecordRecord counts one record decision of the scheduler.
func (gm *GatherMetrics) RecordRecord(ctx context.Context, outcome string) {
	if gm == nil {
		return
	}

	gm.recordsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, outcome)))
}

// RecordTrees counts built and already stored trees.
func (gm *GatherMetrics) RecordTrees(ctx context.Context, built, existing int64) {
	if gm == nil {
		return
	}

	gm.treesTotal.Add(ctx, built, metric.WithAttributes(attribute.String(attrOutcome, OutcomeBuilt)))
	gm.treesTotal.Add(ctx, existing, metric.WithAttributes(attribute.String(attrOutcome, OutcomeExisting)))
}

// RecordCommits counts commits read from history.
func (gm *GatherMetrics) RecordCommits(ctx context.Context, n int64) {
	if gm == nil {
		return
	}

	gm.commitsTotal.Add(ctx, n)
}

// RecordCache adds hit and miss counts for the named cache.
func (gm *GatherMetrics) RecordCache(ctx context.Context, cache string, hits, misses int64) {
	if gm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrCache, cache))
	gm.cacheHits.Add(ctx, hits, attrs)
	gm.cacheMisses.Add(ctx, misses, attrs)
}
