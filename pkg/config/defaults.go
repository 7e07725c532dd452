package config

// Exported default values, surfaced so cmd/ipystatectl can print them in
// `--help` output and internal/mcpserver can fall back to them without
// constructing a full viper instance.
const (
	DefaultSubtreeLimit          = defaultSubtreeLimit
	DefaultMaxConcurrentNS       = defaultMaxNamespaces
	DefaultMCPPort               = defaultMCPPort
	DefaultCacheMaxSize          = defaultCacheMaxSize
	DefaultCheckpointTTL         = defaultCheckpointTTL
	DefaultCheckpointCodec       = "json"
	DefaultCheckpointDir         = "/tmp/ipystate-checkpoints"
	DefaultDetectorHashAlgorithm = "xxhash64"
	DefaultLoggingLevel          = "info"
	DefaultLoggingFormat         = "json"
)
