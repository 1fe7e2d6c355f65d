// Package config loads and validates lineage settings from a YAML file,
// LINEAGE_* environment variables and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/lineage/pkg/aggregate"
	"github.com/Sumatoshi-tech/lineage/pkg/chart"
	"github.com/Sumatoshi-tech/lineage/pkg/persist"
	"github.com/Sumatoshi-tech/lineage/pkg/series"
	"github.com/Sumatoshi-tech/lineage/pkg/store"
)

// Sentinel validation errors.
var (
	ErrInvalidBackend      = errors.New("invalid store backend")
	ErrInvalidEncoding     = errors.New("invalid store encoding")
	ErrInvalidWorkers      = errors.New("gather workers must not be negative")
	ErrInvalidCacheEntries = errors.New("aggregate cache entries must not be negative")
	ErrInvalidMaxSeries    = errors.New("graph max series must be positive")
	ErrInvalidFormat       = errors.New("invalid graph format")
	ErrInvalidTimezone     = errors.New("invalid graph timezone")
	ErrMissingBucket       = errors.New("gcs backend needs store.gcs.bucket")
)

const (
	envPrefix      = "LINEAGE"
	configName     = ".lineage"
	configType     = "yaml"
	homeConfigDir  = ".lineage"
	localTimezone  = "Local"
	defaultBackend = store.BackendFS
)

// Config holds all lineage settings.
type Config struct {
	Store     StoreConfig     `mapstructure:"store"`
	Gather    GatherConfig    `mapstructure:"gather"`
	Aggregate AggregateConfig `mapstructure:"aggregate"`
	Graph     GraphConfig     `mapstructure:"graph"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Ignore lists gitignore patterns excluded from authorship.
	Ignore []string `mapstructure:"ignore"`

	// Aliases maps author identities to replacements. Read from the file
	// directly, since viper folds key case.
	Aliases map[string]string `mapstructure:"-"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// StoreConfig selects where and how data is stored.
type StoreConfig struct {
	Dir      string    `mapstructure:"dir"`
	Backend  string    `mapstructure:"backend"`
	Encoding string    `mapstructure:"encoding"`
	Compress bool      `mapstructure:"compress"`
	GCS      GCSConfig `mapstructure:"gcs"`
}

// GCSConfig configures the gcs backend.
type GCSConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// GatherConfig tunes the gather pipeline.
type GatherConfig struct {
	// Workers bounds concurrent blame tasks. Zero means one per CPU.
	Workers int `mapstructure:"workers"`
}

// AggregateConfig tunes aggregation.
type AggregateConfig struct {
	CacheEntries int  `mapstructure:"cache_entries"`
	UseName      bool `mapstructure:"use_name"`
}

// GraphConfig tunes graph output.
type GraphConfig struct {
	Timezone  string `mapstructure:"timezone"`
	MaxSeries int    `mapstructure:"max_series"`
	Format    string `mapstructure:"format"`
	Theme     string `mapstructure:"theme"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig holds tracing and metrics export settings.
type TelemetryConfig struct {
	OTLPEndpoint   string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string  `mapstructure:"otlp_headers"`
	OTLPInsecure   bool    `mapstructure:"otlp_insecure"`
	PrometheusAddr string  `mapstructure:"prometheus_addr"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
	TraceVerbose   bool    `mapstructure:"trace_verbose"`
}

// LoadConfig loads configuration from configPath, or from .lineage.yaml in
// the working directory or ~/.lineage when configPath is empty.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.SetConfigType(configType)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home + string(os.PathSeparator) + homeConfigDir)
		}
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	config.File = viperCfg.ConfigFileUsed()

	if config.File != "" {
		aliases, err := readAliases(config.File)
		if err != nil {
			return nil, err
		}

		config.Aliases = aliases
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("store.dir", "")
	viperCfg.SetDefault("store.backend", defaultBackend)
	viperCfg.SetDefault("store.encoding", persist.JSONName)
	viperCfg.SetDefault("store.compress", false)
	viperCfg.SetDefault("store.gcs.bucket", "")
	viperCfg.SetDefault("store.gcs.prefix", "")
	viperCfg.SetDefault("store.gcs.credentials_file", "")

	viperCfg.SetDefault("gather.workers", 0)

	viperCfg.SetDefault("aggregate.cache_entries", aggregate.DefaultCacheEntries)
	viperCfg.SetDefault("aggregate.use_name", false)

	viperCfg.SetDefault("graph.timezone", localTimezone)
	viperCfg.SetDefault("graph.max_series", series.DefaultMaxSeries)
	viperCfg.SetDefault("graph.format", chart.FormatHTML)
	viperCfg.SetDefault("graph.theme", string(chart.ThemeLight))

	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.json", false)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.prometheus_addr", "")
	viperCfg.SetDefault("telemetry.sample_ratio", 0.0)
	viperCfg.SetDefault("telemetry.trace_verbose", false)

	viperCfg.SetDefault("ignore", []string{})
}

func readAliases(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var doc struct {
		Aliases map[string]string `yaml:"aliases"`
	}

	err = yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("parse aliases in %s: %w", path, err)
	}

	return doc.Aliases, nil
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	if !slices.Contains(store.Backends(), config.Store.Backend) {
		return fmt.Errorf("%w: %q", ErrInvalidBackend, config.Store.Backend)
	}

	if config.Store.Backend == store.BackendGCS && config.Store.GCS.Bucket == "" {
		return ErrMissingBucket
	}

	if _, err := persist.New(config.Store.Encoding, false); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidEncoding, config.Store.Encoding)
	}

	if config.Gather.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, config.Gather.Workers)
	}

	if config.Aggregate.CacheEntries < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCacheEntries, config.Aggregate.CacheEntries)
	}

	if config.Graph.MaxSeries <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxSeries, config.Graph.MaxSeries)
	}

	if err := chart.ValidateFormat(config.Graph.Format); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, config.Graph.Format)
	}

	if _, err := config.Location(); err != nil {
		return err
	}

	return nil
}

// Location resolves graph.timezone. "Local" and "" select the system zone.
func (c *Config) Location() (*time.Location, error) {
	return ParseTimezone(c.Graph.Timezone)
}

// ParseTimezone resolves an IANA zone name, "UTC" or "Local".
func ParseTimezone(name string) (*time.Location, error) {
	if name == "" || name == localTimezone {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}

	return loc, nil
}
