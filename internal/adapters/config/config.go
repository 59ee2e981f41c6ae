package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/fxdesk/cnyfix/internal/basket"
)

// Config represents application configuration
type Config struct {
	Provider ProviderConfig `envconfig:"PROVIDER"`
	Basket   BasketConfig   `envconfig:"BASKET"`
	Cache    CacheConfig    `envconfig:"CACHE"`
	Database DatabaseConfig `envconfig:"DATABASE"`
	Telegram TelegramConfig `envconfig:"TELEGRAM"`
	Worker   WorkerConfig   `envconfig:"WORKER"`
	Logging  LoggingConfig  `envconfig:"LOGGING"`
}

// ProviderConfig represents rate provider parameters
type ProviderConfig struct {
	BaseURL     string        `envconfig:"PROVIDER_BASE_URL" default:"https://api.frankfurter.app"`
	Timeout     time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"10s"`
	HistoryDays int           `envconfig:"PROVIDER_HISTORY_DAYS" default:"7"`
}

// BasketConfig represents basket weight overrides
type BasketConfig struct {
	// Weights overrides the built-in CFETS proxy table when set,
	// e.g. BASKET_WEIGHTS="USD:0.198,EUR:0.180,JPY:0.090"
	Weights map[string]float64 `envconfig:"BASKET_WEIGHTS"`
}

// CacheConfig represents the snapshot cache parameters
type CacheConfig struct {
	Enabled  bool          `envconfig:"CACHE_ENABLED" default:"false"`
	Host     string        `envconfig:"CACHE_REDIS_HOST" default:"localhost"`
	Port     int           `envconfig:"CACHE_REDIS_PORT" default:"6379"`
	Password string        `envconfig:"CACHE_REDIS_PASSWORD" required:"false"`
	DB       int           `envconfig:"CACHE_REDIS_DB" default:"0"`
	TTL      time.Duration `envconfig:"CACHE_TTL" default:"5m"`
}

// DatabaseConfig represents database connection parameters
type DatabaseConfig struct {
	Enabled  bool   `envconfig:"DB_ENABLED" default:"false"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"cnyfix"`
	User     string `envconfig:"DB_USER" required:"false"`
	Password string `envconfig:"DB_PASSWORD" required:"false"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
}

// TelegramConfig represents Telegram bot configuration
type TelegramConfig struct {
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"false"`
	ChatID   int64  `envconfig:"TELEGRAM_CHAT_ID" required:"false"`
}

// WorkerConfig represents background worker parameters
type WorkerConfig struct {
	ClosesPollInterval time.Duration `envconfig:"WORKER_CLOSES_POLL_INTERVAL" default:"1h"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	File  string `envconfig:"LOG_FILE" required:"false"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if configuration is valid. The basket weight
// invariant is checked here so a misconfigured table fails at startup,
// not per prediction.
func (c *Config) Validate() error {
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider base URL is required")
	}
	if c.Provider.HistoryDays < 2 {
		return fmt.Errorf("provider history window must cover at least 2 days")
	}

	if err := c.BasketWeights().Validate(); err != nil {
		return err
	}

	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}

	if c.Database.Enabled && c.Database.User == "" {
		return fmt.Errorf("DB_USER is required when the database is enabled")
	}

	return nil
}

// BasketWeights returns the configured weight table, falling back to
// the built-in CFETS proxy when no override is set
func (c *Config) BasketWeights() basket.Weights {
	if len(c.Basket.Weights) == 0 {
		return basket.Default()
	}
	return basket.Weights(c.Basket.Weights)
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Addr returns the redis address for the snapshot cache
func (c *CacheConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
