// Package config defines all configuration structures for the reagent
// service.  No I/O or parsing logic lives here, only plain data types and
// validation.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
}

// RedisConfig holds Redis connection parameters for the compound cache.
// Leaving Addr empty disables Redis; the resolver then uses its in-process
// cache only.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// PubChemConfig holds parameters for the external compound database client.
type PubChemConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RequestsPerSec int           `mapstructure:"requests_per_sec"`
}

// AssistantConfig holds parameters for the text-extraction assistant.
// An empty APIKey is not an error: every assistant call then degrades to
// "no suggestion" so resolution continues without it.
type AssistantConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ResolverConfig holds tunables for batch resolution and stoichiometry.
type ResolverConfig struct {
	// Concurrency is the fixed worker-pool size for batch resolution.
	Concurrency int `mapstructure:"concurrency"`

	// CacheTTL bounds how long resolved compound records are reused.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// LimitingTolerance is the half-width of the equivalents band around 1.0
	// within which a component is flagged as limiting.  A heuristic policy
	// value, not a physical constant.
	LimitingTolerance float64 `mapstructure:"limiting_tolerance"`

	// EquivalentsPrecision is the number of decimal places equivalents are
	// rounded to before the limiting check.
	EquivalentsPrecision int `mapstructure:"equivalents_precision"`
}

// Config is the root configuration structure for the entire service.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Redis     RedisConfig     `mapstructure:"redis"`
	PubChem   PubChemConfig   `mapstructure:"pubchem"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Resolver  ResolverConfig  `mapstructure:"resolver"`
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	if c.PubChem.BaseURL == "" {
		return fmt.Errorf("config: pubchem.base_url is required")
	}
	if c.PubChem.RequestTimeout <= 0 {
		return fmt.Errorf("config: pubchem.request_timeout must be positive, got %s", c.PubChem.RequestTimeout)
	}
	if c.PubChem.RequestsPerSec < 1 {
		return fmt.Errorf("config: pubchem.requests_per_sec must be ≥ 1, got %d", c.PubChem.RequestsPerSec)
	}

	if c.Resolver.Concurrency < 1 {
		return fmt.Errorf("config: resolver.concurrency must be ≥ 1, got %d", c.Resolver.Concurrency)
	}
	if c.Resolver.LimitingTolerance <= 0 || c.Resolver.LimitingTolerance >= 1 {
		return fmt.Errorf("config: resolver.limiting_tolerance %g is out of range (0, 1)", c.Resolver.LimitingTolerance)
	}
	if c.Resolver.EquivalentsPrecision < 0 || c.Resolver.EquivalentsPrecision > 6 {
		return fmt.Errorf("config: resolver.equivalents_precision %d is out of range [0, 6]", c.Resolver.EquivalentsPrecision)
	}

	return nil
}
