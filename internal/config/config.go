package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// FileName is the default config file name.
const FileName = "teller.yaml"

// Environment variables that override file values.
const (
	EnvDataDir     = "TELLER_DATA_DIR"
	EnvStoreFormat = "TELLER_STORE_FORMAT"
	EnvLogLevel    = "TELLER_LOG_LEVEL"
	EnvLogFormat   = "TELLER_LOG_FORMAT"
)

// Config represents the top-level teller.yaml configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Security   SecurityConfig   `yaml:"security"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Log        LogConfig        `yaml:"log"`
}

// StoreConfig selects the one authoritative persisted format.
type StoreConfig struct {
	Format string `yaml:"format"` // "json" or "csv"
	Dir    string `yaml:"dir"`
}

// ThresholdsConfig controls balance notifications.
type ThresholdsConfig struct {
	NotableBalance decimal.Decimal `yaml:"notable_balance"`
}

// SecurityConfig controls the password policy.
type SecurityConfig struct {
	MinPasswordLength int `yaml:"min_password_length"`
}

// MetricsConfig controls the Prometheus textfile written at exit.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Load reads a teller.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault reads path if it exists and falls back to Default otherwise.
// Environment overrides are applied in both cases.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
	} else if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new data directory.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Format: "json",
			Dir:    "data",
		},
		Thresholds: ThresholdsConfig{
			NotableBalance: decimal.NewFromInt(1000),
		},
		Security: SecurityConfig{
			MinPasswordLength: 7,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// ApplyEnv loads a .env file from the working directory when present and
// lets TELLER_* variables override file values.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		c.Store.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStoreFormat)); v != "" {
		c.Store.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		c.Log.Format = v
	}
	return nil
}
