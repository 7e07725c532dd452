// Package config provides configuration loading and validation for the
// ipystate engine and its CLI/MCP front ends.
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
	ErrInvalidSubtreeLimit = errors.New("walker subtree limit must be positive")
	ErrInvalidMaxNamespace = errors.New("max concurrent namespaces must be positive")
	ErrInvalidMCPPort      = errors.New("invalid mcp server port")
)

// Default configuration values.
const (
	defaultSubtreeLimit  = 1000
	defaultMaxNamespaces = 16
	defaultMCPPort       = 7337
	maxPort              = 65535
	defaultCacheMaxSize  = "256MB"
	defaultCheckpointTTL = "24h"
)

// Config holds all configuration for the ipystate engine.
type Config struct {
	Engine     EngineConfig     `mapstructure:"engine"`
	Walker     WalkerConfig     `mapstructure:"walker"`
	Detector   DetectorConfig   `mapstructure:"detector"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	MCP        MCPConfig        `mapstructure:"mcp"`
}

// EngineConfig holds top-level engine behavior, the Go shape of spec §4.6
// and §9's "engine-wide knobs".
type EngineConfig struct {
	// MaxConcurrentNamespaces bounds how many Commit() calls internal/
	// mcpserver's errgroup will run at once across hosted namespaces.
	MaxConcurrentNamespaces int  `mapstructure:"max_concurrent_namespaces"`
	FullWalkOnStartup       bool `mapstructure:"full_walk_on_startup"`
}

// WalkerConfig holds the object-graph walker's traversal knobs (spec
// §4.2 "Termination bound").
type WalkerConfig struct {
	SubtreeLimit int `mapstructure:"subtree_limit"`
}

// DetectorConfig holds the RAW/PICKLED change classifier's knobs (spec
// §4.3).
type DetectorConfig struct {
	// HashAlgorithm names the xxhash variant backing default hashers;
	// currently only "xxhash64" is wired, kept as a config seam for a
	// future cryptographic alternative.
	HashAlgorithm string `mapstructure:"hash_algorithm"`
}

// CheckpointConfig holds the engine-state checkpoint/resume settings
// (spec §9 supplemented feature: process-restart persistence).
type CheckpointConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Directory string        `mapstructure:"directory"`
	Codec     string        `mapstructure:"codec"` // "json" | "gob"
	Compress  bool          `mapstructure:"compress"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// CacheConfig holds the detector's raw-hash / component-partition cache
// sizing (spec §4.3's per-transaction RAW cache, generalized to an LRU
// bound for long-lived engines).
type CacheConfig struct {
	Backend string `mapstructure:"backend"`
	MaxSize string `mapstructure:"max_size"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MCPConfig holds internal/mcpserver's listener settings.
type MCPConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("config")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/ipystate")
	}

	viperCfg.SetEnvPrefix("IPYSTATE")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	if validateErr := validateConfig(&config); validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("engine.max_concurrent_namespaces", defaultMaxNamespaces)
	viperCfg.SetDefault("engine.full_walk_on_startup", false)

	viperCfg.SetDefault("walker.subtree_limit", defaultSubtreeLimit)

	viperCfg.SetDefault("detector.hash_algorithm", "xxhash64")

	viperCfg.SetDefault("checkpoint.enabled", true)
	viperCfg.SetDefault("checkpoint.directory", "/tmp/ipystate-checkpoints")
	viperCfg.SetDefault("checkpoint.codec", "json")
	viperCfg.SetDefault("checkpoint.compress", false)
	viperCfg.SetDefault("checkpoint.ttl", defaultCheckpointTTL)

	viperCfg.SetDefault("cache.backend", "memory")
	viperCfg.SetDefault("cache.max_size", defaultCacheMaxSize)

	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", "json")
	viperCfg.SetDefault("logging.output", "stdout")

	viperCfg.SetDefault("mcp.enabled", false)
	viperCfg.SetDefault("mcp.host", "127.0.0.1")
	viperCfg.SetDefault("mcp.port", defaultMCPPort)
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	if config.Walker.SubtreeLimit <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSubtreeLimit, config.Walker.SubtreeLimit)
	}

	if config.Engine.MaxConcurrentNamespaces <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxNamespace, config.Engine.MaxConcurrentNamespaces)
	}

	if config.MCP.Enabled && (config.MCP.Port <= 0 || config.MCP.Port > maxPort) {
		return fmt.Errorf("%w: %d", ErrInvalidMCPPort, config.MCP.Port)
	}

	return nil
}
