package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/lineage/pkg/config"
	"github.com/Sumatoshi-tech/lineage/pkg/identity"
	"github.com/Sumatoshi-tech/lineage/pkg/ignore"
	"github.com/Sumatoshi-tech/lineage/pkg/observability"
	"github.com/Sumatoshi-tech/lineage/pkg/progress"
	"github.com/Sumatoshi-tech/lineage/pkg/store"
	"github.com/Sumatoshi-tech/lineage/pkg/version"
)

const debugLevel = "debug"

// session owns everything a command run needs: configuration, telemetry,
// the opened store and the identity and ignore rules. Nothing is global.
type session struct {
	cfg       *config.Config
	providers observability.Providers
	logger    *slog.Logger
	metrics   *observability.GatherMetrics
	server    *observability.MetricsServer
	store     *store.Store
	matcher   *ignore.Matcher
	aliases   *identity.Aliases
	location  *time.Location
	printer   *progress.Printer
}

// sessionParams carries what a specific command adds to the global flags.
type sessionParams struct {
	// repo locates the default store when neither --data nor store.dir is set.
	repo string
	// metricsAddr overrides telemetry.prometheus_addr when not empty.
	metricsAddr string
}

// openSession loads configuration, applies flag overrides and opens the
// store. Aliases are validated before any store access.
func openSession(cmd *cobra.Command, opts *globalOptions, params sessionParams) (*session, error) {
	ctx := cmd.Context()

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	applyOverrides(cmd, opts, params, cfg)

	loc, err := config.ParseTimezone(cfg.Graph.Timezone)
	if err != nil {
		return nil, err
	}

	aliases, err := identity.Build(cfg.Aliases, opts.aliasFiles, opts.renames)
	if err != nil {
		return nil, err
	}

	level, err := observability.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.Prometheus = cfg.Telemetry.PrometheusAddr != ""
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.TraceVerbose = cfg.Telemetry.TraceVerbose
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Logging.JSON

	providers, err := observability.InitWithWriter(obsCfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	s := &session{
		cfg:       cfg,
		providers: providers,
		logger:    providers.Logger,
		aliases:   aliases,
		location:  loc,
		printer:   progress.NewPrinter(cmd.ErrOrStderr(), progress.WithQuiet(opts.quiet)),
	}

	err = s.open(ctx, params.repo)
	if err != nil {
		return nil, errors.Join(err, s.Close(ctx))
	}

	return s, nil
}

func (s *session) open(ctx context.Context, repo string) error {
	var err error

	s.metrics, err = observability.NewGatherMetrics(s.providers.Meter)
	if err != nil {
		return err
	}

	if s.providers.MetricsHandler != nil {
		s.server, err = observability.StartMetricsServer(
			s.cfg.Telemetry.PrometheusAddr, s.providers.MetricsHandler, s.logger)
		if err != nil {
			return err
		}
	}

	dir := s.cfg.Store.Dir
	if dir == "" {
		dir = store.DefaultDir(repo)
	}

	s.store, err = store.Open(ctx, store.Config{
		Backend:  s.cfg.Store.Backend,
		Dir:      dir,
		Encoding: s.cfg.Store.Encoding,
		Compress: s.cfg.Store.Compress,
		GCS: store.GCSConfig{
			Bucket:          s.cfg.Store.GCS.Bucket,
			Prefix:          s.cfg.Store.GCS.Prefix,
			CredentialsFile: s.cfg.Store.GCS.CredentialsFile,
		},
		Logger: s.logger,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	stored, err := s.store.IgnorePatterns(ctx)
	if err != nil {
		return err
	}

	patterns := append(append([]string{}, s.cfg.Ignore...), stored...)
	s.matcher = ignore.New(patterns)

	s.logger.DebugContext(ctx, "session opened",
		"backend", s.cfg.Store.Backend, "dir", dir, "ignore_patterns", s.matcher.Len(),
		"aliases", s.aliases.Len(), "config", s.cfg.File)

	return nil
}

// Close releases the store, stops the metrics endpoint and flushes
// telemetry. It is safe on a partially opened session.
func (s *session) Close(ctx context.Context) error {
	var errs []error

	if s.store != nil {
		errs = append(errs, s.store.Close())
	}

	if s.server != nil {
		errs = append(errs, s.server.Stop(ctx))
	}

	if s.providers.Shutdown != nil {
		errs = append(errs, s.providers.Shutdown(ctx))
	}

	return errors.Join(errs...)
}

// applyOverrides layers explicitly set flags over the loaded config.
func applyOverrides(cmd *cobra.Command, opts *globalOptions, params sessionParams, cfg *config.Config) {
	if opts.data != "" {
		cfg.Store.Dir = opts.data
	}

	if cmd.Flags().Changed("timezone") {
		cfg.Graph.Timezone = opts.timezone
	}

	if opts.useName {
		cfg.Aggregate.UseName = true
	}

	if opts.verbose {
		cfg.Logging.Level = debugLevel
	}

	if params.metricsAddr != "" {
		cfg.Telemetry.PrometheusAddr = params.metricsAddr
	}
}
