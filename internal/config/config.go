// Package config loads service configuration from defaults, an optional YAML
// file and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
)

// Config is the full service configuration.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Store       StoreConfig       `mapstructure:"store"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Numbering   NumberingConfig   `mapstructure:"numbering"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

type AppConfig struct {
	Env             string        `mapstructure:"env"`
	Port            string        `mapstructure:"port"`
	LogLevel        string        `mapstructure:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig selects where generators and counters live.
// Counters defaults to Backend; "redis" moves only the counters.
type StoreConfig struct {
	Backend  string `mapstructure:"backend"`
	Counters string `mapstructure:"counters"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

type RedisConfig struct {
	URL       string `mapstructure:"url"`
	KeyPrefix string `mapstructure:"key_prefix"`
	PoolSize  int    `mapstructure:"pool_size"`
}

// AuthConfig controls bearer-token validation. With Required false, requests
// are identified by X-Tenant-ID alone.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Required  bool   `mapstructure:"required"`
}

type NumberingConfig struct {
	Timezone                  string `mapstructure:"timezone"`
	RevisionCompressThreshold int    `mapstructure:"revision_compress_threshold"`
}

type IdempotencyConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// envBindings maps config keys to the environment variables operators set.
var envBindings = map[string]string{
	"app.env":                      "APP_ENV",
	"app.port":                     "APP_PORT",
	"app.log_level":                "LOG_LEVEL",
	"store.backend":                "STORE_BACKEND",
	"store.counters":               "COUNTER_BACKEND",
	"database.url":                 "DATABASE_URL",
	"redis.url":                    "REDIS_URL",
	"auth.jwt_secret":              "JWT_SECRET",
	"auth.required":                "AUTH_REQUIRED",
	"numbering.timezone":           "NUMBERING_TIMEZONE",
	"idempotency.enabled":          "IDEMPOTENCY_ENABLED",
	"idempotency.ttl":              "IDEMPOTENCY_TTL",
	"idempotency.cleanup_interval": "IDEMPOTENCY_CLEANUP_INTERVAL",
	"metrics.enabled":              "METRICS_ENABLED",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.shutdown_timeout", "30s")

	v.SetDefault("store.backend", BackendPostgres)
	v.SetDefault("store.counters", "")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 2)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.key_prefix", "policyhub:counter:")
	v.SetDefault("redis.pool_size", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.required", false)

	v.SetDefault("numbering.timezone", "UTC")
	v.SetDefault("numbering.revision_compress_threshold", 512)

	v.SetDefault("idempotency.enabled", false)
	v.SetDefault("idempotency.ttl", "24h")
	v.SetDefault("idempotency.cleanup_interval", "10m")

	v.SetDefault("metrics.enabled", true)
}

// Load reads configuration. configFile may be empty.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	}

	v.SetEnvPrefix("POLICYHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env, "POLICYHUB_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	cfg.Store.Counters = strings.ToLower(strings.TrimSpace(cfg.Store.Counters))
	if cfg.Store.Counters == "" {
		cfg.Store.Counters = cfg.Store.Backend
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Backend {
	case BackendPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q (want postgres or memory)", c.Store.Backend))
	}

	switch c.Store.Counters {
	case c.Store.Backend:
	case BackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for redis counters"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown counter backend %q (want redis or the store backend)", c.Store.Counters))
	}

	if _, err := time.LoadLocation(c.Numbering.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid NUMBERING_TIMEZONE %q: %w", c.Numbering.Timezone, err))
	}
	if c.Auth.Required && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required when auth is required"))
	}
	if c.Idempotency.Enabled && c.Store.Backend != BackendPostgres {
		errs = append(errs, errors.New("idempotency needs the postgres backend"))
	}

	return errors.Join(errs...)
}

// Location returns the time zone used to compute reset periods.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Numbering.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// LogFormat is "console" in development and "json" everywhere else.
func (c *Config) LogFormat() string {
	if c.IsDevelopment() {
		return "console"
	}
	return "json"
}
