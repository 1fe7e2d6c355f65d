package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/lineage/pkg/gather"
	"github.com/Sumatoshi-tech/lineage/pkg/gitlib"
	"github.com/Sumatoshi-tech/lineage/pkg/report"
)

// GatherCommand holds the configuration for the gather command.
type GatherCommand struct {
	global      *globalOptions
	workers     int
	metricsAddr string
}

// NewGatherCommand creates and configures the gather command.
func NewGatherCommand(global *globalOptions) *cobra.Command {
	gc := &GatherCommand{global: global}

	cobraCmd := &cobra.Command{
		Use:   "gather <repository>",
		Short: "Blame the history of a repository into the store",
		Long: `Walk every commit of the repository, build its attribution tree and
blame each file version that no ancestor already accounts for.

The store is append-only: an interrupted run resumes where it stopped,
and re-running after new commits only blames what changed.`,
		Args: cobra.ExactArgs(1),
		RunE: gc.run,
	}

	cobraCmd.Flags().IntVarP(&gc.workers, "workers", "w", 0, "Concurrent blame tasks (0 = gather.workers, else CPU count)")
	cobraCmd.Flags().StringVar(&gc.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run")

	return cobraCmd
}

func (gc *GatherCommand) run(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	repo := args[0]

	sess, err := openSession(cmd, gc.global, sessionParams{repo: repo, metricsAddr: gc.metricsAddr})
	if err != nil {
		return err
	}

	defer func() {
		closeErr := sess.Close(ctx)
		if err == nil {
			err = closeErr
		}
	}()

	workers := sess.cfg.Gather.Workers
	if cmd.Flags().Changed("workers") {
		workers = gc.workers
	}

	if workers < 1 {
		workers = runtime.NumCPU()
	}

	provider, err := gitlib.NewProvider(repo, workers)
	if err != nil {
		return err
	}
	defer provider.Close()

	pipeline := gather.NewPipeline(sess.store, provider,
		gather.WithWorkers(workers),
		gather.WithIgnore(sess.matcher),
		gather.WithLogger(sess.logger),
		gather.WithTracer(sess.providers.Tracer),
		gather.WithMetrics(sess.metrics),
		gather.WithProgress(sess.printer),
	)

	stats, err := pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("gather %s: %w", repo, err)
	}

	commitCache, treeCache := sess.store.CacheStats()
	sess.logger.DebugContext(ctx, "gather finished",
		"repo", provider.Path(),
		"commit_cache_hit_rate", commitCache.HitRate(),
		"tree_cache_hit_rate", treeCache.HitRate())

	if !gc.global.quiet {
		report.GatherSummary(cmd.OutOrStdout(), stats)
	}

	return nil
}
