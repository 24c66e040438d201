// Package config loads agent settings from config.toml, the environment
// and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override: STAFFMON_API_API_KEY.
const EnvPrefix = "STAFFMON"

// legacyKeys are the flat top-level keys older deployments use for the api
// section, both in config.toml and as STAFFMON_<KEY> variables.
var legacyKeys = []string{"base_url", "api_key", "timeout_seconds", "retry_count", "rate_limit"}

// Config is the fully resolved agent configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Collect CollectConfig `mapstructure:"collect"`
	Persist PersistConfig `mapstructure:"persist"`
	History HistoryConfig `mapstructure:"history"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Daemon  DaemonConfig  `mapstructure:"daemon"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig holds the collector connection settings.
type APIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	RetryCount     int    `mapstructure:"retry_count"`
	RateLimit      int    `mapstructure:"rate_limit"`
}

// Timeout returns the request timeout as a duration.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CollectConfig controls the collection cycle.
type CollectConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"` // zero waits for each tool indefinitely
	MaxServices    int           `mapstructure:"max_services"`
}

// PersistConfig controls the per-cycle JSON file copy.
type PersistConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// HistoryConfig locates the optional SQLite snapshot history.
type HistoryConfig struct {
	Path string `mapstructure:"path"` // empty disables the history store
}

// MetricsConfig controls the prometheus listener.
type MetricsConfig struct {
	Listen string `mapstructure:"listen"` // empty disables the /metrics listener
}

// DaemonConfig holds process management settings.
type DaemonConfig struct {
	PIDFile string `mapstructure:"pid_file"`
}

// LoggingConfig is read by NewLogger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Load reads configuration from file and environment variables. An
// explicit configPath must exist; otherwise config.toml is searched for in
// the working directory, ./configs and /etc/staffmon, and a missing file
// leaves the defaults in place.
func Load(configPath string) (*viper.Viper, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/staffmon")
	}

	// Environment variable support: STAFFMON_API_BASE_URL=https://...
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	applyLegacyKeys(v)

	return v, nil
}

// Parse decodes v into a Config and validates it.
func Parse(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyLegacyKeys installs flat keys as api defaults, so an api section or
// a STAFFMON_API_* variable still wins. A flat variable beats a flat file key.
func applyLegacyKeys(v *viper.Viper) {
	for _, key := range legacyKeys {
		if val, ok := os.LookupEnv(EnvPrefix + "_" + strings.ToUpper(key)); ok && val != "" {
			v.SetDefault("api."+key, val)
			continue
		}
		if v.InConfig(key) {
			v.SetDefault("api."+key, v.Get(key))
		}
	}
}

// Validate rejects settings the agent cannot run with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url must not be empty")
	}
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("api.timeout_seconds must be positive, got %d", c.API.TimeoutSeconds)
	}
	if c.Collect.Interval <= 0 {
		return fmt.Errorf("collect.interval must be positive, got %s", c.Collect.Interval)
	}
	// Sends are never queued, so a budget below one per cycle drops
	// deliveries on a fixed schedule.
	if c.API.RateLimit > 0 && time.Duration(c.API.RateLimit)*c.Collect.Interval < time.Minute {
		return fmt.Errorf("api.rate_limit %d/min is below one send per collect.interval %s",
			c.API.RateLimit, c.Collect.Interval)
	}
	if c.Collect.CommandTimeout < 0 {
		return fmt.Errorf("collect.command_timeout must not be negative, got %s", c.Collect.CommandTimeout)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.api_key", "")
	v.SetDefault("api.timeout_seconds", 30)
	v.SetDefault("api.retry_count", 3)
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("collect.interval", "2s")
	v.SetDefault("collect.command_timeout", "0s")
	v.SetDefault("collect.max_services", 0)
	v.SetDefault("persist.enabled", true)
	v.SetDefault("persist.dir", ".")
	v.SetDefault("history.path", "")
	v.SetDefault("metrics.listen", "")
	v.SetDefault("daemon.pid_file", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "logs/staffmon.log")
}

// loadDotEnv exports the variables of a dotenv file into the process
// environment. Variables that are already set keep their value, and a
// missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	env := viper.New()
	env.SetConfigFile(path)
	env.SetConfigType("env")
	if err := env.ReadInConfig(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	for _, key := range env.AllKeys() {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, env.GetString(key)); err != nil {
			return fmt.Errorf("exporting %s: %w", name, err)
		}
	}
	return nil
}
