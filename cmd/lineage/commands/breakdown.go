package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/lineage/pkg/aggregate"
	"github.com/Sumatoshi-tech/lineage/pkg/report"
	"github.com/Sumatoshi-tech/lineage/pkg/store"
)

// Sentinel errors for commit selection.
var (
	ErrNoViableCommit  = errors.New("no viable commit: run gather first")
	ErrUnknownCommit   = errors.New("commit not in the gathered log")
	ErrAmbiguousCommit = errors.New("ambiguous commit prefix")
)

// breakdownKind selects what a BreakdownCommand counts.
type breakdownKind int

const (
	byAuthor breakdownKind = iota
	byYear
)

// BreakdownCommand prints the line counts of one commit.
type BreakdownCommand struct {
	global *globalOptions
	kind   breakdownKind
}

// NewAuthorsCommand creates the authors command.
func NewAuthorsCommand(global *globalOptions) *cobra.Command {
	bc := &BreakdownCommand{global: global, kind: byAuthor}

	return &cobra.Command{
		Use:   "authors [commit]",
		Short: "Lines per author at one commit (default: newest gathered)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  bc.run,
	}
}

// NewYearsCommand creates the years command.
func NewYearsCommand(global *globalOptions) *cobra.Command {
	bc := &BreakdownCommand{global: global, kind: byYear}

	return &cobra.Command{
		Use:   "years [commit]",
		Short: "Lines per year of origin at one commit (default: newest gathered)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  bc.run,
	}
}

func (bc *BreakdownCommand) run(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()

	sess, err := openSession(cmd, bc.global, sessionParams{repo: bc.global.repo})
	if err != nil {
		return err
	}

	defer func() {
		closeErr := sess.Close(ctx)
		if err == nil {
			err = closeErr
		}
	}()

	var want string
	if len(args) > 0 {
		want = args[0]
	}

	hash, err := resolveCommit(ctx, sess.store, want)
	if err != nil {
		return err
	}

	tree, err := sess.store.GetTree(ctx, hash)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	switch bc.kind {
	case byAuthor:
		counts, countErr := newAuthorAggregator(sess).Count(ctx, tree)
		if countErr != nil {
			return countErr
		}

		return report.Authors(out, counts)
	default:
		counts, countErr := newYearAggregator(sess).Count(ctx, tree)
		if countErr != nil {
			return countErr
		}

		return report.Years(out, counts)
	}
}

// resolveCommit picks want from the gathered log, accepting a unique
// prefix. An empty want selects the newest commit.
func resolveCommit(ctx context.Context, st *store.Store, want string) (string, error) {
	log, err := st.GetLog(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNoViableCommit
	}

	if err != nil {
		return "", err
	}

	if len(log) == 0 {
		return "", ErrNoViableCommit
	}

	if want == "" {
		return log[0], nil
	}

	var match string

	for _, hash := range log {
		if !strings.HasPrefix(hash, want) {
			continue
		}

		if match != "" {
			return "", fmt.Errorf("%w: %s", ErrAmbiguousCommit, want)
		}

		match = hash
	}

	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommit, want)
	}

	return match, nil
}

func aggregatorOptions(sess *session) []aggregate.Option {
	return []aggregate.Option{
		aggregate.WithIgnore(sess.matcher),
		aggregate.WithCacheEntries(sess.cfg.Aggregate.CacheEntries),
		aggregate.WithLogger(sess.logger),
		aggregate.WithTracer(sess.providers.Tracer),
		aggregate.WithMetrics(sess.metrics),
	}
}

func newAuthorAggregator(sess *session) *aggregate.Aggregator[string] {
	return aggregate.NewAuthors(sess.store, sess.aliases, sess.cfg.Aggregate.UseName, aggregatorOptions(sess)...)
}

func newYearAggregator(sess *session) *aggregate.Aggregator[int] {
	return aggregate.NewYears(sess.store, sess.location, aggregatorOptions(sess)...)
}
