// Package config provides configuration management for the forecasting application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Data     DataConfig     `mapstructure:"data"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Forecast ForecastConfig `mapstructure:"forecast"`
	UI       UIConfig       `mapstructure:"ui"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds dashboard HTTP server configuration.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DataConfig holds market-data provider configuration.
type DataConfig struct {
	Provider  string        `mapstructure:"provider"`   // yahoo or csv
	CSVDir    string        `mapstructure:"csv_dir"`    // used by the csv provider
	StartDate string        `mapstructure:"start_date"` // YYYY-MM-DD
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
	Proxy     string        `mapstructure:"proxy"`

	BreakerFailures int           `mapstructure:"breaker_failures"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown"`
}

// CacheConfig holds the on-disk candle cache configuration.
type CacheConfig struct {
	Persist bool   `mapstructure:"persist"`
	DBPath  string `mapstructure:"db_path"`
}

// ForecastConfig holds forecast horizon and display configuration.
type ForecastConfig struct {
	MinYears int `mapstructure:"min_years"`
	MaxYears int `mapstructure:"max_years"`
	TailRows int `mapstructure:"tail_rows"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	Title        string `mapstructure:"title"`
	Currency     string `mapstructure:"currency"`
	ColorEnabled bool   `mapstructure:"color_enabled"`
}

// LoggingConfig mirrors logging.LogConfig in file form.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/stock-forecaster"
	}
	return filepath.Join(home, ".config", "stock-forecaster")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is replaced by a commented template and defaults are used.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v, DefaultConfigDir())
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("server.addr", ":8501")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)

	v.SetDefault("data.provider", "yahoo")
	v.SetDefault("data.csv_dir", filepath.Join(configDir, "csv"))
	v.SetDefault("data.start_date", "2015-01-01")
	v.SetDefault("data.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("data.timeout", 30*time.Second)
	v.SetDefault("data.user_agent", "Mozilla/5.0")
	v.SetDefault("data.proxy", "")
	v.SetDefault("data.breaker_failures", 5)
	v.SetDefault("data.breaker_cooldown", 30*time.Second)

	v.SetDefault("cache.persist", true)
	v.SetDefault("cache.db_path", filepath.Join(configDir, "candles.db"))

	v.SetDefault("forecast.min_years", 1)
	v.SetDefault("forecast.max_years", 5)
	v.SetDefault("forecast.tail_rows", 5)

	v.SetDefault("ui.title", "Stock Price Prediction App")
	v.SetDefault("ui.currency", "INR")
	v.SetDefault("ui.color_enabled", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "forecaster.log"))
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 7)
	v.SetDefault("logging.max_age", 30)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FORECASTER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("FORECASTER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("FORECASTER_START_DATE"); v != "" {
		cfg.Data.StartDate = v
	}
	if v := os.Getenv("FORECASTER_DB_PATH"); v != "" {
		cfg.Cache.DBPath = v
	}
	if v := os.Getenv("FORECASTER_PROVIDER"); v != "" {
		cfg.Data.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("FORECASTER_PROXY"); v != "" {
		cfg.Data.Proxy = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := c.Start(); err != nil {
		return fmt.Errorf("start_date %q must be YYYY-MM-DD: %w", c.Data.StartDate, err)
	}
	switch c.Data.Provider {
	case "yahoo":
	case "csv":
		if c.Data.CSVDir == "" {
			return fmt.Errorf("csv_dir is required for the csv provider")
		}
	default:
		return fmt.Errorf("unknown data provider: %s", c.Data.Provider)
	}
	if c.Data.BreakerFailures < 0 {
		return fmt.Errorf("breaker_failures must not be negative")
	}
	if c.Forecast.MinYears < 1 {
		return fmt.Errorf("min_years must be at least 1")
	}
	if c.Forecast.MaxYears < c.Forecast.MinYears {
		return fmt.Errorf("max_years (%d) must not be below min_years (%d)", c.Forecast.MaxYears, c.Forecast.MinYears)
	}
	if c.Forecast.TailRows < 1 {
		return fmt.Errorf("tail_rows must be at least 1")
	}
	if c.Cache.Persist && c.Cache.DBPath == "" {
		return fmt.Errorf("db_path is required when cache.persist is enabled")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	return nil
}

// Start returns the configured history start date in UTC midnight.
func (c *Config) Start() (time.Time, error) {
	return time.Parse("2006-01-02", c.Data.StartDate)
}
