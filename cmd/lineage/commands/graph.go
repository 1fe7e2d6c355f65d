package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/lineage/pkg/attribution"
	"github.com/Sumatoshi-tech/lineage/pkg/chart"
	"github.com/Sumatoshi-tech/lineage/pkg/series"
	"github.com/Sumatoshi-tech/lineage/pkg/store"
)

// ErrEmptyGraph means no commit of the log had gathered data.
var ErrEmptyGraph = errors.New("no gathered commit to graph")

// GraphCommand writes a chart over the whole gathered history.
type GraphCommand struct {
	global *globalOptions
	kind   breakdownKind
	format string
	theme  string
}

// NewGraphAuthorsCommand creates the graph-authors command.
func NewGraphAuthorsCommand(global *globalOptions) *cobra.Command {
	return newGraphCommand(global, byAuthor, "graph-authors <output>", "Chart lines per author over the history")
}

// NewGraphYearsCommand creates the graph-years command.
func NewGraphYearsCommand(global *globalOptions) *cobra.Command {
	return newGraphCommand(global, byYear, "graph-years <output>", "Chart lines per year of origin over the history")
}

func newGraphCommand(global *globalOptions, kind breakdownKind, use, short string) *cobra.Command {
	gc := &GraphCommand{global: global, kind: kind}

	cobraCmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.

Commits are placed evenly within each calendar month so that busy months
do not collapse into a single column. The series stops at the first
commit that has not been gathered yet.`,
		Args: cobra.ExactArgs(1),
		RunE: gc.run,
	}

	cobraCmd.Flags().StringVarP(&gc.format, "format", "f", "", "Output format: html or json (default: graph.format)")
	cobraCmd.Flags().StringVar(&gc.theme, "theme", "", "HTML theme: light or dark (default: graph.theme)")

	return cobraCmd
}

func (gc *GraphCommand) run(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	out := args[0]

	if gc.format != "" {
		err = chart.ValidateFormat(gc.format)
		if err != nil {
			return err
		}
	}

	sess, err := openSession(cmd, gc.global, sessionParams{repo: gc.global.repo})
	if err != nil {
		return err
	}

	defer func() {
		closeErr := sess.Close(ctx)
		if err == nil {
			err = closeErr
		}
	}()

	commits, err := loadCommits(ctx, sess)
	if err != nil {
		return err
	}

	series.OrderForEquidistance(commits, sess.location)

	graph, err := gc.build(ctx, sess, commits)
	if err != nil {
		return err
	}

	if len(graph.Commits) == 0 {
		return ErrEmptyGraph
	}

	format := orConfigured(gc.format, sess.cfg.Graph.Format)
	theme := orConfigured(gc.theme, sess.cfg.Graph.Theme)

	err = chart.WriteFile(out, format, graph, chart.Options{Theme: chart.Theme(theme), Location: sess.location})
	if err != nil {
		return err
	}

	sess.printer.Message("wrote %s (%d commits, %d series)", out, len(graph.Commits), len(graph.Series))

	return nil
}

func (gc *GraphCommand) build(ctx context.Context, sess *session, commits []*attribution.Commit) (*series.Graph, error) {
	bar := sess.printer.Phase("Counting lines", len(commits))
	defer bar.Finish()

	if gc.kind == byAuthor {
		snapshots, err := newAuthorAggregator(sess).History(ctx, commits, bar)
		if err != nil {
			return nil, err
		}

		return series.AuthorGraph(snapshots, sess.cfg.Graph.MaxSeries, sess.location), nil
	}

	snapshots, err := newYearAggregator(sess).History(ctx, commits, bar)
	if err != nil {
		return nil, err
	}

	return series.YearGraph(snapshots, sess.location), nil
}

// loadCommits reads every logged commit, newest first.
func loadCommits(ctx context.Context, sess *session) ([]*attribution.Commit, error) {
	log, err := sess.store.GetLog(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoViableCommit
	}

	if err != nil {
		return nil, err
	}

	bar := sess.printer.Phase("Loading commits", len(log))
	defer bar.Finish()

	commits := make([]*attribution.Commit, 0, len(log))

	for _, hash := range log {
		commit, getErr := sess.store.GetCommit(ctx, hash)
		if getErr != nil {
			return nil, fmt.Errorf("logged commit %s: %w", hash, getErr)
		}

		commits = append(commits, commit)
		bar.Add(1)
	}

	return commits, nil
}

// orConfigured returns the flag value when set, else the configured one.
func orConfigured(flag, configured string) string {
	if flag != "" {
		return flag
	}

	return configured
}
