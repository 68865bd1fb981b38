package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	SRS       SRSConfig       `mapstructure:"srs"`
}

// ServerConfig contains the health server and process-wide settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url" validate:"required,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0,ltefield=MaxOpenConns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
}

// TelegramConfig contains the Bot API credentials and polling settings.
type TelegramConfig struct {
	BotToken           string `mapstructure:"bot_token" validate:"required"`
	PollTimeoutSeconds int    `mapstructure:"poll_timeout_seconds" validate:"gte=1,lte=600"`
	Debug              bool   `mapstructure:"debug"`
}

// SchedulerConfig controls how due tasks are found and dispatched.
type SchedulerConfig struct {
	PollInterval       time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	WorkerCount        int           `mapstructure:"worker_count" validate:"gte=1"`
	QueueSize          int           `mapstructure:"queue_size" validate:"gte=1"`
	JobTimeout         time.Duration `mapstructure:"job_timeout" validate:"gt=0"`
	WaitingTimeout     time.Duration `mapstructure:"waiting_timeout" validate:"gt=0"`
	StaleCheckInterval time.Duration `mapstructure:"stale_check_interval" validate:"gt=0"`
}

// SRSConfig holds the spaced repetition parameters.
type SRSConfig struct {
	BaseInterval     time.Duration `mapstructure:"base_interval" validate:"gt=0"`
	GrowthFactor     float64       `mapstructure:"growth_factor" validate:"gt=1"`
	LearnedThreshold int           `mapstructure:"learned_threshold" validate:"gte=1"`
}
