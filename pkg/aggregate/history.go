package aggregate

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Sumatoshi-tech/lineage/pkg/attribution"
	"github.com/Sumatoshi-tech/lineage/pkg/progress"
	"github.com/Sumatoshi-tech/lineage/pkg/store"
)

// SpanHistory names the span covering a whole-history aggregation.
const SpanHistory = "aggregate.graph"

// Snapshot holds the counts of one commit.
type Snapshot[K comparable] struct {
	Commit *attribution.Commit
	Counts map[K]uint64
}

// History counts every commit in order. It stops early, with a warning, at
// the first commit whose tree or records are missing, so a partially
// gathered store still yields the prefix it covers. A record citing an
// unknown commit is an error.
func (a *Aggregator[K]) History(
	ctx context.Context, commits []*attribution.Commit, bar *progress.Bar,
) ([]Snapshot[K], error) {
	ctx, span := a.tracer.Start(ctx, SpanHistory)
	defer span.End()

	snapshots := make([]Snapshot[K], 0, len(commits))

	for _, commit := range commits {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		counts, err := a.countCommit(ctx, commit.Hash)
		if errors.Is(err, ErrMissingCommit) {
			return nil, err
		}

		if errors.Is(err, store.ErrNotFound) {
			a.logger.WarnContext(ctx, "stopping at commit without data",
				"commit", commit.Hash, "counted", len(snapshots), "error", err)

			break
		}

		if err != nil {
			return nil, err
		}

		snapshots = append(snapshots, Snapshot[K]{Commit: commit, Counts: counts})

		if bar != nil {
			bar.Add(1)
		}
	}

	if bar != nil {
		bar.SetTotal(len(snapshots))
	}

	stats := a.Stats()
	a.metrics.RecordCache(ctx, a.name, stats.Hits, stats.Misses)
	span.SetAttributes(
		attribute.Int("aggregate.commits", len(snapshots)),
		attribute.Int64("aggregate.cache_hits", stats.Hits),
		attribute.Int64("aggregate.cache_misses", stats.Misses),
		attribute.Float64("aggregate.cache_hit_rate", stats.HitRate()),
	)
	a.logger.DebugContext(ctx, "counted history",
		"commits", len(snapshots), "cache_hit_rate", stats.HitRate())

	return snapshots, nil
}

func (a *Aggregator[K]) countCommit(ctx context.Context, hash string) (map[K]uint64, error) {
	tree, err := a.source.GetTree(ctx, hash)
	if err != nil {
		return nil, err
	}

	return a.Count(ctx, tree)
}
