// Package config provides configuration loading, defaults, and validation for
// the reagent service.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all service settings.
const envPrefix = "REAGENT"

// newViper builds a pre-configured Viper instance with the service's standard
// settings: YAML file type, REAGENT_ env prefix, automatic env binding, and a
// key replacer that maps "." → "_" so that nested keys like "pubchem.base_url"
// resolve to "REAGENT_PUBCHEM_BASE_URL".
// configKeys lists every known configuration key.  Viper only exposes
// environment-variable values to Unmarshal for keys it has seen, so each key
// is bound explicitly; without this, env-only deployments would silently read
// nothing but defaults.
var configKeys = []string{
	"server.port", "server.mode", "server.read_timeout", "server.write_timeout", "server.shutdown_timeout",
	"log.level", "log.format", "log.output_paths",
	"redis.addr", "redis.password", "redis.db", "redis.pool_size",
	"redis.dial_timeout", "redis.read_timeout", "redis.write_timeout", "redis.key_prefix",
	"pubchem.base_url", "pubchem.request_timeout", "pubchem.requests_per_sec",
	"assistant.base_url", "assistant.api_key", "assistant.model", "assistant.temperature", "assistant.timeout",
	"resolver.concurrency", "resolver.cache_ttl", "resolver.limiting_tolerance", "resolver.equivalents_precision",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// Load reads the YAML file at configPath, merges any REAGENT_* environment
// variable overrides, applies service defaults for unset fields, and
// validates the result.  It returns a fully-populated *Config or a
// descriptive error.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from REAGENT_* environment variables,
// with no config file required.  This is the preferred loading strategy for
// containerised (12-factor) deployments.
//
// Environment variable naming convention:
//
//	REAGENT_<SECTION>_<FIELD>   e.g.  REAGENT_SERVER_PORT, REAGENT_ASSISTANT_API_KEY
func LoadFromEnv() (*Config, error) {
	v := newViper()
	return unmarshalAndFinalize(v)
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// MustLoad is a convenience wrapper around Load that panics on any error.
// It is intended for use in main() where a config-load failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
