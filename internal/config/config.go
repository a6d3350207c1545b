package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Reminder ReminderConfig `mapstructure:"reminder"`
	Push     PushConfig     `mapstructure:"push"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Business BusinessConfig `mapstructure:"business"`
}

type ServerConfig struct {
	Port string `mapstructure:"SERVER_PORT"`
	Host string `mapstructure:"SERVER_HOST"`
	Env  string `mapstructure:"ENV"`
}

type DatabaseConfig struct {
	URL          string `mapstructure:"DATABASE_URL"`
	MaxOpenConns int    `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns int    `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
	StatsTTL string `mapstructure:"REDIS_STATS_TTL"`
}

type ReminderConfig struct {
	// Cron spec with seconds field, default once a day.
	Schedule        string `mapstructure:"REMINDER_SCHEDULE"`
	Offsets         string `mapstructure:"REMINDER_OFFSETS"`
	DispatchTimeout string `mapstructure:"REMINDER_DISPATCH_TIMEOUT"`
	Concurrency     int    `mapstructure:"REMINDER_CONCURRENCY"`
}

type PushConfig struct {
	ProjectID       string `mapstructure:"FCM_PROJECT_ID"`
	CredentialsFile string `mapstructure:"FCM_CREDENTIALS_FILE"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type BusinessConfig struct {
	Currency           string `mapstructure:"CURRENCY"`
	UpcomingWindowDays int    `mapstructure:"UPCOMING_WINDOW_DAYS"`
	RecentLoansLimit   int    `mapstructure:"RECENT_LOANS_LIMIT"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_STATS_TTL", "5m")
	viper.SetDefault("REMINDER_SCHEDULE", "0 0 9 * * *")
	viper.SetDefault("REMINDER_OFFSETS", "0,1,3")
	viper.SetDefault("REMINDER_DISPATCH_TIMEOUT", "5s")
	viper.SetDefault("REMINDER_CONCURRENCY", 8)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("CURRENCY", "INR")
	viper.SetDefault("UPCOMING_WINDOW_DAYS", 7)
	viper.SetDefault("RECENT_LOANS_LIMIT", 5)

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read from .env file (optional)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = viper.ReadInConfig()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if _, err := c.ReminderOffsets(); err != nil {
		return fmt.Errorf("REMINDER_OFFSETS must be a comma-separated list of day counts: %w", err)
	}

	if _, err := time.ParseDuration(c.Reminder.DispatchTimeout); err != nil {
		return fmt.Errorf("REMINDER_DISPATCH_TIMEOUT must be a valid duration: %w", err)
	}

	if c.Reminder.Concurrency <= 0 {
		return fmt.Errorf("REMINDER_CONCURRENCY must be greater than 0")
	}

	if _, err := time.ParseDuration(c.Redis.StatsTTL); err != nil {
		return fmt.Errorf("REDIS_STATS_TTL must be a valid duration: %w", err)
	}

	if c.Business.UpcomingWindowDays <= 0 {
		return fmt.Errorf("UPCOMING_WINDOW_DAYS must be greater than 0")
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// ReminderOffsets returns the parsed day offsets at which reminders fire.
func (c *Config) ReminderOffsets() ([]int, error) {
	parts := strings.Split(c.Reminder.Offsets, ",")
	offsets := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		offsets = append(offsets, n)
	}
	return offsets, nil
}

// GetDispatchTimeout returns the per-dispatch timeout as duration
func (c *Config) GetDispatchTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Reminder.DispatchTimeout)
	return timeout
}

// GetStatsTTL returns the dashboard cache TTL as duration
func (c *Config) GetStatsTTL() time.Duration {
	ttl, _ := time.ParseDuration(c.Redis.StatsTTL)
	return ttl
}
