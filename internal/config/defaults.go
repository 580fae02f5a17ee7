package config

import "time"

// Default value constants.
const (
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultPubChemBaseURL        = "https://pubchem.ncbi.nlm.nih.gov/rest/pug"
	DefaultPubChemTimeout        = 12 * time.Second
	DefaultPubChemRequestsPerSec = 5

	DefaultAssistantBaseURL     = "https://api.openai.com/v1"
	DefaultAssistantModel       = "gpt-4o-mini"
	DefaultAssistantTimeout     = 30 * time.Second
	DefaultAssistantTemperature = 0.0

	DefaultResolverConcurrency       = 2
	DefaultResolverCacheTTL          = 24 * time.Hour
	DefaultLimitingTolerance         = 0.05
	DefaultEquivalentsPrecision      = 2
	DefaultRedisKeyPrefix            = "reagent"
	DefaultRedisPoolSize             = 10
	DefaultRedisDialTimeout          = 5 * time.Second
	DefaultServerShutdownTimeout     = 30 * time.Second
	DefaultServerReadWriteTimeout    = 30 * time.Second
)

// ApplyDefaults fills every zero-value field in cfg with the service default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.  It must be called
// after unmarshalling raw config data and before Validate() so that
// optional-but-defaulted fields are never seen as missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadWriteTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerReadWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// Redis stays disabled unless an address is given; only pool tunables
	// receive defaults.
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = DefaultRedisDialTimeout
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	if cfg.PubChem.BaseURL == "" {
		cfg.PubChem.BaseURL = DefaultPubChemBaseURL
	}
	if cfg.PubChem.RequestTimeout == 0 {
		cfg.PubChem.RequestTimeout = DefaultPubChemTimeout
	}
	if cfg.PubChem.RequestsPerSec == 0 {
		cfg.PubChem.RequestsPerSec = DefaultPubChemRequestsPerSec
	}

	if cfg.Assistant.BaseURL == "" {
		cfg.Assistant.BaseURL = DefaultAssistantBaseURL
	}
	if cfg.Assistant.Model == "" {
		cfg.Assistant.Model = DefaultAssistantModel
	}
	if cfg.Assistant.Timeout == 0 {
		cfg.Assistant.Timeout = DefaultAssistantTimeout
	}

	if cfg.Resolver.Concurrency == 0 {
		cfg.Resolver.Concurrency = DefaultResolverConcurrency
	}
	if cfg.Resolver.CacheTTL == 0 {
		cfg.Resolver.CacheTTL = DefaultResolverCacheTTL
	}
	if cfg.Resolver.LimitingTolerance == 0 {
		cfg.Resolver.LimitingTolerance = DefaultLimitingTolerance
	}
	if cfg.Resolver.EquivalentsPrecision == 0 {
		cfg.Resolver.EquivalentsPrecision = DefaultEquivalentsPrecision
	}
}

// NewDefaultConfig returns a Config populated entirely from defaults.
// It validates cleanly and is the fallback when no config file is present.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
