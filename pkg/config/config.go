package config

import (
	"fmt"
	"time"
)

// Config holds runtime configuration for the SmartBudget server.
type Config struct {
	AppEnv string `mapstructure:"-"`

	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Logger    LoggerConfig    `mapstructure:"logger" validate:"required"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	DB        DBConfig        `mapstructure:"db" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis" validate:"required"`
	Session   SessionConfig   `mapstructure:"session" validate:"required"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Market    MarketConfig    `mapstructure:"market"`
	Advisor   AdvisorConfig   `mapstructure:"advisor"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggerConfig describes slog output and rotation.
type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"required,oneof=json text"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// SentryConfig enables error reporting.
type SentryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn" validate:"required_if=Enabled true"`
}

// DBConfig describes the PostgreSQL connection.
type DBConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     string `mapstructure:"port" validate:"required"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
	Name     string `mapstructure:"name" validate:"required"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (c DBConfig) DSN() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, sslmode,
	)
}

// RedisConfig describes the Redis connection used for the shared session slot,
// idempotency, rate limiting, background jobs, and change events.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr" validate:"required"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

// SessionConfig controls the session store and its durable slot.
type SessionConfig struct {
	// Backend selects where the serialized session lives: "file" or "redis".
	Backend string `mapstructure:"backend" validate:"required,oneof=file redis"`
	// FilePath is the durable slot location for the file backend.
	FilePath string `mapstructure:"file_path"`
	// SeedDemoAccount provisions the Test User account on startup.
	SeedDemoAccount bool   `mapstructure:"seed_demo_account"`
	DemoPassword    string `mapstructure:"demo_password"`
}

// NotifyConfig controls notification lifetimes.
type NotifyConfig struct {
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	BufferSize int           `mapstructure:"buffer_size"`
}

// RateLimitRule is "N per window" for one guarded operation.
type RateLimitRule struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// RateLimitConfig guards brute-forceable endpoints.
type RateLimitConfig struct {
	Login RateLimitRule `mapstructure:"login"`
}

// MarketConfig controls the mock market feed refresh.
type MarketConfig struct {
	RefreshCron string `mapstructure:"refresh_cron"`
}

// AdvisorConfig controls the financial advisor bot.
type AdvisorConfig struct {
	ThinkDelay time.Duration `mapstructure:"think_delay"`
	Telegram   TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig enables the optional Telegram transport for the advisor.
type TelegramConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Token   string        `mapstructure:"token" validate:"required_if=Enabled true"`
	Timeout time.Duration `mapstructure:"timeout"`
}
