package gather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/lineage/pkg/attribution"
	"github.com/Sumatoshi-tech/lineage/pkg/observability"
	"github.com/Sumatoshi-tech/lineage/pkg/progress"
	"github.com/Sumatoshi-tech/lineage/pkg/store"
)

// Span names of the gather phases.
const (
	SpanGather  = "gather"
	SpanCommits = "gather.commits"
	SpanTrees   = "gather.trees"
	SpanRecords = "gather.records"
)

// ErrNoCommits is returned when the history is empty.
var ErrNoCommits = errors.New("no commits found")

// Stats summarizes one gather run.
type Stats struct {
	Commits       int
	TreesBuilt    int
	TreesExisting int
	Inherited     int
	Fresh         int
	Records       SchedulerStats
	Duration      time.Duration
}

// Pipeline runs the gather phases in order: store commits and the log,
// build trees oldest to newest, then compute missing records in parallel.
type Pipeline struct {
	store    *store.Store
	provider Provider
	opts     []Option
	cfg      options
}

// NewPipeline creates a pipeline writing to st.
func NewPipeline(st *store.Store, provider Provider, opts ...Option) *Pipeline {
	cfg := newOptions(opts)
	if cfg.progress == nil {
		cfg.progress = progress.NewPrinter(io.Discard, progress.WithQuiet(true))
	}

	return &Pipeline{store: st, provider: provider, opts: opts, cfg: cfg}
}

// Run gathers the whole history. Everything written is append-only, so a
// failed run can be resumed by running again.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	start := time.Now()

	ctx, span := p.cfg.tracer.Start(ctx, SpanGather)
	defer span.End()

	stats, err := p.run(ctx)
	stats.Duration = time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return stats, err
	}

	span.SetAttributes(
		attribute.Int("gather.commits", stats.Commits),
		attribute.Int("gather.trees_built", stats.TreesBuilt),
		attribute.Int64("gather.records_computed", stats.Records.Computed),
	)

	return stats, nil
}

func (p *Pipeline) run(ctx context.Context) (Stats, error) {
	var stats Stats

	commits, err := p.saveCommits(ctx)
	if err != nil {
		return stats, err
	}

	stats.Commits = len(commits)

	err = p.buildTrees(ctx, commits, &stats)
	if err != nil {
		return stats, err
	}

	stats.Records, err = p.computeRecords(ctx, commits)

	return stats, err
}

func (p *Pipeline) saveCommits(ctx context.Context) ([]*attribution.Commit, error) {
	ctx, span := p.cfg.tracer.Start(ctx, SpanCommits)
	defer span.End()

	p.cfg.progress.Message("Searching for commits")

	commits, err := p.provider.Commits(ctx)
	if err != nil {
		return nil, err
	}

	if len(commits) == 0 {
		return nil, ErrNoCommits
	}

	p.cfg.metrics.RecordCommits(ctx, int64(len(commits)))

	bar := p.cfg.progress.Phase("Saving commits", len(commits))

	hashes := make([]string, 0, len(commits))

	for _, commit := range commits {
		err = p.store.PutCommit(ctx, commit)
		if err != nil {
			return nil, err
		}

		hashes = append(hashes, commit.Hash)

		bar.Add(1)
	}

	bar.Finish()

	p.cfg.progress.Message("Saving log")

	err = p.store.PutLog(ctx, hashes)
	if err != nil {
		return nil, err
	}

	p.cfg.logger.InfoContext(ctx, "commits saved", "count", len(commits))

	return commits, nil
}

// buildTrees walks commits in reverse, which is oldest first, so every
// parent's tree exists before its children are built.
func (p *Pipeline) buildTrees(ctx context.Context, commits []*attribution.Commit, stats *Stats) error {
	ctx, span := p.cfg.tracer.Start(ctx, SpanTrees)
	defer span.End()

	bar := p.cfg.progress.Phase("Computing trees", len(commits))
	defer bar.Finish()

	for _, commit := range slices.Backward(commits) {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		exists, err := p.store.HasTree(ctx, commit.Hash)
		if err != nil {
			return err
		}

		if exists {
			stats.TreesExisting++

			bar.Add(1)

			continue
		}

		treeStats, err := p.buildTree(ctx, commit)
		if err != nil {
			return err
		}

		stats.TreesBuilt++
		stats.Inherited += treeStats.Inherited
		stats.Fresh += treeStats.Fresh

		bar.Add(1)
	}

	p.cfg.metrics.RecordTrees(ctx, int64(stats.TreesBuilt), int64(stats.TreesExisting))
	p.cfg.logger.InfoContext(ctx, "trees ready",
		"built", stats.TreesBuilt, "existing", stats.TreesExisting,
		"inherited", stats.Inherited, "fresh", stats.Fresh)

	return nil
}

func (p *Pipeline) buildTree(ctx context.Context, commit *attribution.Commit) (attribution.TreeStats, error) {
	ctx, span := p.cfg.tracer.Start(ctx, observability.SpanGatherTree, trace.WithAttributes(
		attribute.String("gather.commit", commit.Hash),
	))
	defer span.End()

	parents := make([]*attribution.Tree, len(commit.Parents))

	for i, hash := range commit.Parents {
		parent, err := p.store.GetTree(ctx, hash)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return attribution.TreeStats{}, err
		}

		parents[i] = parent
	}

	files, err := p.provider.Files(ctx, commit.Hash)
	if err != nil {
		return attribution.TreeStats{}, err
	}

	tree, treeStats, err := attribution.BuildTree(commit, files, parents)
	if err != nil {
		return attribution.TreeStats{}, fmt.Errorf("build tree %s: %w", commit.Hash, err)
	}

	err = p.store.PutTree(ctx, tree)
	if err != nil {
		return attribution.TreeStats{}, err
	}

	return treeStats, nil
}

func (p *Pipeline) computeRecords(ctx context.Context, commits []*attribution.Commit) (SchedulerStats, error) {
	ctx, span := p.cfg.tracer.Start(ctx, SpanRecords)
	defer span.End()

	hashes := make([]string, len(commits))
	for i, commit := range commits {
		hashes[i] = commit.Hash
	}

	bar := p.cfg.progress.Phase("Computing blames", len(hashes))
	defer bar.Finish()

	scheduler := NewScheduler(p.store, p.provider, p.opts...)

	stats, err := scheduler.Run(ctx, hashes, bar)
	if err != nil {
		return stats, err
	}

	span.SetAttributes(
		attribute.Int64("gather.computed", stats.Computed),
		attribute.Int64("gather.deduplicated", stats.Deduplicated),
		attribute.Int64("gather.existing", stats.Existing),
	)
	p.cfg.logger.InfoContext(ctx, "records ready",
		"computed", stats.Computed, "deduplicated", stats.Deduplicated,
		"existing", stats.Existing, "ignored", stats.Ignored, "binary", stats.Binary)

	return stats, nil
}
