package gather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/lineage/pkg/attribution"
	"github.com/Sumatoshi-tech/lineage/pkg/gitlib"
	"github.com/Sumatoshi-tech/lineage/pkg/ignore"
	"github.com/Sumatoshi-tech/lineage/pkg/observability"
	"github.com/Sumatoshi-tech/lineage/pkg/progress"
	"github.com/Sumatoshi-tech/lineage/pkg/store"
)

// SchedulerStats counts the decisions taken for fresh IDs.
type SchedulerStats struct {
	Computed     int64
	Deduplicated int64
	Existing     int64
	Ignored      int64
	Binary       int64
}

// Scheduler computes every missing authorship record across many commits
// concurrently. Each ID is computed at most once per run.
type Scheduler struct {
	store    *store.Store
	provider Provider
	matcher  *ignore.Matcher
	workers  int
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *observability.GatherMetrics

	mu       sync.Mutex
	inFlight map[attribution.ID]struct{}

	computed     atomic.Int64
	deduplicated atomic.Int64
	existing     atomic.Int64
	ignored      atomic.Int64
	binary       atomic.Int64
}

// NewScheduler creates a scheduler. The pipeline options it honors are the
// ignore matcher, worker count, logger, tracer and metrics.
func NewScheduler(st *store.Store, provider Provider, opts ...Option) *Scheduler {
	cfg := newOptions(opts)

	return &Scheduler{
		store:    st,
		provider: provider,
		matcher:  cfg.matcher,
		workers:  cfg.workers,
		logger:   cfg.logger,
		tracer:   cfg.tracer,
		metrics:  cfg.metrics,
		inFlight: make(map[attribution.ID]struct{}),
	}
}

// Run ensures a record exists for every fresh ID of the given commits'
// trees. The first failure cancels the remaining work and is returned;
// records written before it stay valid.
func (s *Scheduler) Run(ctx context.Context, hashes []string, bar *progress.Bar) (SchedulerStats, error) {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)

	for _, hash := range hashes {
		if groupCtx.Err() != nil {
			break
		}

		group.Go(func() error {
			err := s.runCommit(groupCtx, hash)
			if err != nil {
				return err
			}

			if bar != nil {
				bar.Add(1)
			}

			return nil
		})
	}

	err := group.Wait()
	if err == nil {
		err = ctx.Err()
	}

	return s.Stats(), err
}

// Stats returns the counters accumulated so far.
func (s *Scheduler) Stats() SchedulerStats {
	return SchedulerStats{
		Computed:     s.computed.Load(),
		Deduplicated: s.deduplicated.Load(),
		Existing:     s.existing.Load(),
		Ignored:      s.ignored.Load(),
		Binary:       s.binary.Load(),
	}
}

func (s *Scheduler) runCommit(ctx context.Context, hash string) error {
	tree, err := s.store.GetTree(ctx, hash)
	if err != nil {
		return err
	}

	for _, id := range tree.Fresh() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err = s.ensure(ctx, id)
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *Scheduler) ensure(ctx context.Context, id attribution.ID) error {
	if s.matcher.Match(id.Path) {
		s.count(ctx, &s.ignored, observability.OutcomeIgnored)

		return nil
	}

	if !s.claim(id) {
		s.count(ctx, &s.deduplicated, observability.OutcomeDeduplicated)

		return nil
	}

	exists, err := s.store.HasRecord(ctx, id)
	if err != nil {
		return fmt.Errorf("probe record %s@%s: %w", id.Path, id.Commit, err)
	}

	if exists {
		s.count(ctx, &s.existing, observability.OutcomeExisting)

		return nil
	}

	record, err := s.blame(ctx, id)
	if err != nil {
		return err
	}

	return s.store.PutRecord(ctx, record)
}

// claim inserts id into the in-flight set and reports whether it was absent.
func (s *Scheduler) claim(id attribution.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inFlight[id]; ok {
		return false
	}

	s.inFlight[id] = struct{}{}

	return true
}

func (s *Scheduler) blame(ctx context.Context, id attribution.ID) (*attribution.Record, error) {
	ctx, span := s.tracer.Start(ctx, observability.SpanGatherBlame,
		trace.WithAttributes(attribute.String("gather.path", id.Path)))
	defer span.End()

	start := time.Now()
	lines, err := s.provider.Blame(ctx, id.Commit, id.Path)

	s.metrics.RecordBlame(ctx, time.Since(start))

	record := attribution.NewRecord(id)

	switch {
	case errors.Is(err, gitlib.ErrBinary):
		s.logger.DebugContext(ctx, "recording empty authorship", "path", id.Path, "commit", id.Commit)
		s.count(ctx, &s.binary, observability.OutcomeBinary)

		return record, nil
	case err != nil:
		span.RecordError(err)

		return nil, fmt.Errorf("blame %s@%s: %w", id.Path, id.Commit, err)
	}

	for origin, n := range lines {
		record.LinesByCommit[origin] = n
	}

	s.count(ctx, &s.computed, observability.OutcomeComputed)

	return record, nil
}

func (s *Scheduler) count(ctx context.Context, counter *atomic.Int64, outcome string) {
	counter.Add(1)
	s.metrics.RecordRecord(ctx, outcome)
}

type options struct {
	matcher  *ignore.Matcher
	workers  int
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *observability.GatherMetrics
	progress *progress.Printer
}

// Option configures a Pipeline or Scheduler.
type Option func(*options)

// WithIgnore excludes matching paths from authorship.
func WithIgnore(m *ignore.Matcher) Option {
	return func(o *options) {
		o.matcher = m
	}
}

// WithWorkers bounds concurrent commit tasks. Values below one select
// runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithTracer sets the tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithMetrics records gather metrics.
func WithMetrics(m *observability.GatherMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithProgress reports phase progress on p.
func WithProgress(p *progress.Printer) Option {
	return func(o *options) {
		o.progress = p
	}
}

func newOptions(opts []Option) options {
	var cfg options

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.workers < 1 {
		cfg.workers = runtime.NumCPU()
	}

	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	if cfg.tracer == nil {
		cfg.tracer = nooptrace.NewTracerProvider().Tracer("gather")
	}

	return cfg
}
