// Package config provides configuration loading and validation for the
// differo dataflow engine: worker topology, spine fuel/compaction tuning,
// batcher sizing, snapshot retention, and observability settings.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidWorkers     = errors.New("scope worker count must be positive")
	ErrInvalidBufferSize  = errors.New("scope channel buffer size must be positive")
	ErrInvalidFuelRatio   = errors.New("spine fuel ratio must be positive")
	ErrInvalidMergeThresh = errors.New("batcher merge threshold must be positive")
	ErrInvalidPort        = errors.New("server port must be between 1 and 65535")
)

const maxPort = 65535

// Config holds all configuration for the differo engine and its front-ends.
type Config struct {
	Scope         ScopeConfig         `mapstructure:"scope"`
	Spine         SpineConfig         `mapstructure:"spine"`
	Batcher       BatcherConfig       `mapstructure:"batcher"`
	Runtime       RuntimeConfig       `mapstructure:"runtime"`
	Snapshot      SnapshotConfig      `mapstructure:"snapshot"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Server        ServerConfig        `mapstructure:"server"`
}

// ScopeConfig describes the pkg/scope worker pool: how many Workers a Scope
// spawns and how deep each Stream's channel buffer is. The values are
// loaded and validated here; nothing passes them to pkg/scope.
type ScopeConfig struct {
	Workers    int `mapstructure:"workers"`
	BufferSize int `mapstructure:"buffer_size"`
}

// SpineConfig describes pkg/trace.Spine's fuel-bounded merge schedule. The
// values are loaded and validated here; nothing passes them to pkg/trace,
// whose Spine uses its own FuelRatio field (default 4).
type SpineConfig struct {
	// FuelRatio is the amount of merge work, in tuples, performed per
	// tuple inserted, bounding how far behind a merge can fall.
	FuelRatio int `mapstructure:"fuel_ratio"`
	// CompactionLag is how many logical layers a batch may accumulate
	// before it becomes eligible to merge with its neighbor.
	CompactionLag int `mapstructure:"compaction_lag"`
}

// BatcherConfig describes pkg/batcher.MergeBatcher's staging behavior. The
// values are loaded and validated here; nothing passes them to
// pkg/batcher, whose MergeBatcher merges its runs once there are more than 8.
type BatcherConfig struct {
	// MergeThreshold is the staged tuple count at which updates are
	// consolidated ahead of being sealed into a batch.
	MergeThreshold int `mapstructure:"merge_threshold"`
	// ArenaSize presizes a builder's backing slices, avoiding
	// reallocation for the common case of roughly uniform batch sizes.
	ArenaSize int `mapstructure:"arena_size"`
}

// RuntimeConfig holds process-wide memory tuning for a long-running
// process over a large in-memory working set, which is what an
// arrangement-heavy dataflow engine is.
type RuntimeConfig struct {
	GOGC        int    `mapstructure:"gogc"`
	MemoryLimit string `mapstructure:"memory_limit"`
	BallastSize string `mapstructure:"ballast_size"`
}

// SnapshotConfig tunes pkg/trace/snapshot's persistence and retention.
type SnapshotConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Directory string        `mapstructure:"directory"`
	Codec     string        `mapstructure:"codec"`
	Compress  bool          `mapstructure:"compress"`
	MaxAge    time.Duration `mapstructure:"max_age"`
	MaxSize   int64         `mapstructure:"max_size"`
}

// ObservabilityConfig holds logging and tracing/metrics configuration.
type ObservabilityConfig struct {
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
	TracingOn   bool   `mapstructure:"tracing_enabled"`
	MetricsOn   bool   `mapstructure:"metrics_enabled"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// ServerConfig holds the query-server front-end's listen configuration.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	Enabled      bool          `mapstructure:"enabled"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	// Set defaults.
	setDefaults(viperCfg)

	// Read config file.
	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("config")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/differo")
	}

	// Read environment variables.
	viperCfg.SetEnvPrefix("DIFFERO")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file.
	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("read config file: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&cfg)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	// Scope defaults.
	viperCfg.SetDefault("scope.workers", DefaultScopeWorkers)
	viperCfg.SetDefault("scope.buffer_size", DefaultScopeBufferSize)

	// Spine defaults.
	viperCfg.SetDefault("spine.fuel_ratio", DefaultSpineFuelRatio)
	viperCfg.SetDefault("spine.compaction_lag", DefaultSpineCompactionLag)

	// Batcher defaults.
	viperCfg.SetDefault("batcher.merge_threshold", DefaultBatcherMergeThreshold)
	viperCfg.SetDefault("batcher.arena_size", DefaultBatcherArenaSize)

	// Runtime defaults.
	viperCfg.SetDefault("runtime.gogc", DefaultRuntimeGOGC)
	viperCfg.SetDefault("runtime.memory_limit", DefaultRuntimeMemoryLimit)
	viperCfg.SetDefault("runtime.ballast_size", DefaultRuntimeBallastSize)

	// Snapshot defaults.
	viperCfg.SetDefault("snapshot.enabled", DefaultSnapshotEnabled)
	viperCfg.SetDefault("snapshot.directory", DefaultSnapshotDirectory)
	viperCfg.SetDefault("snapshot.codec", DefaultSnapshotCodec)
	viperCfg.SetDefault("snapshot.compress", DefaultSnapshotCompress)
	viperCfg.SetDefault("snapshot.max_age", "168h")
	viperCfg.SetDefault("snapshot.max_size", DefaultSnapshotMaxSize)

	// Observability defaults.
	viperCfg.SetDefault("observability.log_level", DefaultLogLevel)
	viperCfg.SetDefault("observability.log_format", DefaultLogFormat)
	viperCfg.SetDefault("observability.tracing_enabled", DefaultTracingEnabled)
	viperCfg.SetDefault("observability.metrics_enabled", DefaultMetricsEnabled)
	viperCfg.SetDefault("observability.metrics_addr", DefaultMetricsAddr)

	// Server defaults.
	viperCfg.SetDefault("server.enabled", false)
	viperCfg.SetDefault("server.port", DefaultServerPort)
	viperCfg.SetDefault("server.host", DefaultServerHost)
	viperCfg.SetDefault("server.read_timeout", "30s")
	viperCfg.SetDefault("server.write_timeout", "30s")
	viperCfg.SetDefault("server.idle_timeout", "60s")
}

// validateConfig validates the configuration.
func validateConfig(cfg *Config) error {
	if cfg.Scope.Workers <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, cfg.Scope.Workers)
	}

	if cfg.Scope.BufferSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBufferSize, cfg.Scope.BufferSize)
	}

	if cfg.Spine.FuelRatio <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFuelRatio, cfg.Spine.FuelRatio)
	}

	if cfg.Batcher.MergeThreshold <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMergeThresh, cfg.Batcher.MergeThreshold)
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, cfg.Server.Port)
	}

	return nil
}
