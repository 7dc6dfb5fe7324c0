// Package config loads levelup settings. Values resolve in this order, later wins:
// defaults, the YAML file, LEVELUP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/githubb-dot/gamified-app/internal/storage"
)

const envPrefix = "LEVELUP_"

type Config struct {
	// DBPath is the SQLite database file. Default: ~/.levelup/levelup.db
	DBPath string `yaml:"db_path" env:"DB_PATH"`

	// LogMode selects the zap preset: "production" (JSON) or "development" (console).
	LogMode string `yaml:"log_mode" env:"LOG_MODE"`

	// LogLevel is the minimum zap level.
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	// User is the default user name for commands that take none.
	User string `yaml:"user" env:"USER"`

	Redis     RedisConfig     `yaml:"redis" envPrefix:"REDIS_"`
	Generator GeneratorConfig `yaml:"generator" envPrefix:"GENERATOR_"`
	Tracing   TracingConfig   `yaml:"tracing" envPrefix:"TRACING_"`
}

// RedisConfig enables the pub/sub notification sink when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	Channel  string `yaml:"channel" env:"CHANNEL"`
}

// GeneratorConfig points at an OpenAI-compatible chat completions endpoint.
// Without an API key the deterministic fallback quest is used.
type GeneratorConfig struct {
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	APIKey  string        `yaml:"api_key" env:"API_KEY"`
	Model   string        `yaml:"model" env:"MODEL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

type TracingConfig struct {
	Stdout bool `yaml:"stdout" env:"STDOUT"`
}

func Default() *Config {
	dbPath := "levelup.db"
	if p, err := storage.DefaultDBPath(); err == nil {
		dbPath = p
	}
	return &Config{
		DBPath:   dbPath,
		LogMode:  "production",
		LogLevel: "warn",
		User:     "player",
		Redis: RedisConfig{
			Channel: "levelup:events",
		},
		Generator: GeneratorConfig{
			BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai/",
			Model:   "gemini-2.0-flash",
			Timeout: 15 * time.Second,
		},
	}
}

// DefaultPath returns ~/.levelup/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".levelup", "config.yaml")
}

// Load resolves the configuration. A missing file at path is not an error; an
// unreadable or malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("db_path is required")
	}
	if strings.TrimSpace(c.User) == "" {
		return fmt.Errorf("user is required")
	}
	if c.Generator.Timeout < 0 {
		return fmt.Errorf("generator.timeout must not be negative")
	}
	return nil
}
