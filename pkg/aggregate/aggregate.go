// Package aggregate turns attribution trees into line counts per bucket,
// such as per author or per year, with a bounded cache of per-ID results.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/lineage/pkg/alg/lru"
	"github.com/Sumatoshi-tech/lineage/pkg/attribution"
	"github.com/Sumatoshi-tech/lineage/pkg/identity"
	"github.com/Sumatoshi-tech/lineage/pkg/ignore"
	"github.com/Sumatoshi-tech/lineage/pkg/observability"
)

// DefaultCacheEntries is the default capacity of the per-ID count cache.
const DefaultCacheEntries = 10_000

// Cache names reported in metrics.
const (
	CacheAuthors = "authors"
	CacheYears   = "years"
)

// ErrMissingCommit means a record cites a commit the store does not have.
var ErrMissingCommit = errors.New("missing commit")

// Source reads the data aggregation needs. *store.Store implements it.
type Source interface {
	GetTree(ctx context.Context, hash string) (*attribution.Tree, error)
	GetRecord(ctx context.Context, id attribution.ID) (*attribution.Record, error)
	GetCommit(ctx context.Context, hash string) (*attribution.Commit, error)
}

// BucketFunc maps the commit a line originates from to its bucket.
type BucketFunc[K comparable] func(*attribution.Commit) K

// Aggregator counts lines per bucket. It is meant for a single goroutine.
type Aggregator[K comparable] struct {
	name    string
	source  Source
	bucket  BucketFunc[K]
	matcher *ignore.Matcher
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.GatherMetrics

	cache  *lru.Cache[attribution.ID, map[K]uint64]
	misses int64
}

// New creates an aggregator bucketing with fn. name labels its metrics.
func New[K comparable](name string, source Source, fn BucketFunc[K], opts ...Option) *Aggregator[K] {
	cfg := options{cacheEntries: DefaultCacheEntries}

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	if cfg.tracer == nil {
		cfg.tracer = nooptrace.NewTracerProvider().Tracer("aggregate")
	}

	a := &Aggregator[K]{
		name:    name,
		source:  source,
		bucket:  fn,
		matcher: cfg.matcher,
		logger:  cfg.logger,
		tracer:  cfg.tracer,
		metrics: cfg.metrics,
	}

	if cfg.cacheEntries > 0 {
		a.cache = lru.New(lru.WithMaxEntries[attribution.ID, map[K]uint64](cfg.cacheEntries))
	}

	return a
}

// NewAuthors buckets by the alias-resolved author email, or by author name
// when useName is set.
func NewAuthors(source Source, aliases *identity.Aliases, useName bool, opts ...Option) *Aggregator[string] {
	if aliases == nil {
		aliases = identity.New()
	}

	return New(CacheAuthors, source, func(c *attribution.Commit) string {
		if useName {
			return aliases.Resolve(c.Author)
		}

		return aliases.Resolve(c.AuthorEmail)
	}, opts...)
}

// NewYears buckets by the calendar year of the author time in loc.
func NewYears(source Source, loc *time.Location, opts ...Option) *Aggregator[int] {
	if loc == nil {
		loc = time.Local
	}

	return New(CacheYears, source, func(c *attribution.Commit) int {
		return c.AuthorTime.In(loc).Year()
	}, opts...)
}

// Count sums the lines of every non-ignored file of tree per bucket.
func (a *Aggregator[K]) Count(ctx context.Context, tree *attribution.Tree) (map[K]uint64, error) {
	total := make(map[K]uint64)

	for _, id := range tree.IDs {
		if a.matcher.Match(id.Path) {
			continue
		}

		counts, err := a.countID(ctx, id)
		if err != nil {
			return nil, err
		}

		for key, n := range counts {
			total[key] += n
		}
	}

	return total, nil
}

func (a *Aggregator[K]) countID(ctx context.Context, id attribution.ID) (map[K]uint64, error) {
	if a.cache != nil {
		if counts, ok := a.cache.Get(id); ok {
			return counts, nil
		}
	} else {
		a.misses++
	}

	record, err := a.source.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	counts := make(map[K]uint64)

	for hash, n := range record.LinesByCommit {
		commit, commitErr := a.source.GetCommit(ctx, hash)
		if commitErr != nil {
			return nil, fmt.Errorf("%w %s cited by %s: %w", ErrMissingCommit, hash, id.Path, commitErr)
		}

		counts[a.bucket(commit)] += n
	}

	if a.cache != nil {
		a.cache.Put(id, counts)
	}

	return counts, nil
}

// Stats returns cache statistics. Without a cache every lookup is a miss.
func (a *Aggregator[K]) Stats() lru.Stats {
	if a.cache == nil {
		return lru.Stats{Misses: a.misses}
	}

	return a.cache.Stats()
}

type options struct {
	matcher      *ignore.Matcher
	cacheEntries int
	logger       *slog.Logger
	tracer       trace.Tracer
	metrics      *observability.GatherMetrics
}

// Option configures an Aggregator.
type Option func(*options)

// WithIgnore skips matching paths.
func WithIgnore(m *ignore.Matcher) Option {
	return func(o *options) {
		o.matcher = m
	}
}

// WithCacheEntries bounds the per-ID cache. Zero disables it.
func WithCacheEntries(n int) Option {
	return func(o *options) {
		o.cacheEntries = n
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

// WithMetrics reports cache hits and misses.
func WithMetrics(m *observability.GatherMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
