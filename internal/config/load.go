package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. SCRY_DATABASE_URL.
const EnvPrefix = "SCRY"

// defaults lists every key with its default. Keys without a sensible default
// are listed with a zero value so AutomaticEnv can still bind them.
var defaults = map[string]any{
	"server.port":             8080,
	"server.log_level":        "info",
	"server.shutdown_timeout": 10 * time.Second,

	"database.url":               "",
	"database.max_open_conns":    10,
	"database.max_idle_conns":    5,
	"database.conn_max_lifetime": 30 * time.Minute,

	"telegram.bot_token":            "",
	"telegram.poll_timeout_seconds": 60,
	"telegram.debug":                false,

	"scheduler.poll_interval":        time.Second,
	"scheduler.worker_count":         4,
	"scheduler.queue_size":           100,
	"scheduler.job_timeout":          30 * time.Second,
	"scheduler.waiting_timeout":      24 * time.Hour,
	"scheduler.stale_check_interval": time.Minute,

	"srs.base_interval":     30 * time.Minute,
	"srs.growth_factor":     2.0,
	"srs.learned_threshold": 10,
}

// Load reads configuration from an optional config.yaml in the working
// directory and from SCRY_ environment variables.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. The file must exist when
// path is not empty. Environment variables take precedence over file values.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
