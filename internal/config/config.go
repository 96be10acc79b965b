// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	SubmitRateLimit int           `yaml:"submit_rate_limit"` // submits per minute per client, 0 disables
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type StoreConfig struct {
	Backend       string        `yaml:"backend"` // redis|postgres|sqlite|memory
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	EncryptionKey string        `yaml:"encryption_key"` // 32 bytes, empty disables
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AIConfig struct {
	Provider            string `yaml:"provider"` // openai|gemini|echo
	OpenAIKey           string `yaml:"openai_key"`
	OpenAIBaseURL       string `yaml:"openai_base_url"`
	GeminiKey           string `yaml:"gemini_key"`
	GeminiURL           string `yaml:"gemini_url"`
	Model               string `yaml:"model"`
	MaxCompletionTokens int    `yaml:"max_completion_tokens"`
	ConcurrentLimit     int    `yaml:"concurrent_limit"` // max concurrent AI calls
}

type JobsConfig struct {
	Concurrency           int    `yaml:"concurrency"`
	DefaultTargetLanguage string `yaml:"default_target_language"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Store    StoreConfig    `yaml:"store"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	AI       AIConfig       `yaml:"ai"`
	Jobs     JobsConfig     `yaml:"jobs"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, applies environment overrides and
// defaults, then validates the result.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

// Parse builds a Config from raw YAML.
func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	envOverride(&cfg.AI.OpenAIKey, "OPENAI_API_KEY")
	envOverride(&cfg.AI.GeminiKey, "GEMINI_API_KEY")
	envOverride(&cfg.Database.URL, "DATABASE_URL")
	envOverride(&cfg.Redis.URL, "REDIS_URL")
}

func envOverride(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 55 * time.Second
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "redis"
	}
	cfg.Store.Backend = strings.ToLower(cfg.Store.Backend)
	cfg.Store.TTL = normalizeDuration(cfg.Store.TTL, 72*time.Hour)
	cfg.Store.SweepInterval = normalizeDuration(cfg.Store.SweepInterval, time.Hour)
	if cfg.Redis.URL == "" {
		cfg.Redis.URL = "localhost:6379"
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = "data/jobs.db"
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "openai"
	}
	cfg.AI.Provider = strings.ToLower(cfg.AI.Provider)
	if cfg.AI.OpenAIBaseURL == "" {
		cfg.AI.OpenAIBaseURL = "https://api.openai.com/v1"
	}
	if cfg.AI.Model == "" {
		switch cfg.AI.Provider {
		case "gemini":
			cfg.AI.Model = "gemini-2.0-flash"
		case "echo":
			cfg.AI.Model = "echo"
		default:
			cfg.AI.Model = "gpt-4o-mini"
		}
	}
	if cfg.AI.MaxCompletionTokens <= 0 {
		cfg.AI.MaxCompletionTokens = 1024
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.Jobs.Concurrency <= 0 {
		cfg.Jobs.Concurrency = 30
	}
	if cfg.Jobs.DefaultTargetLanguage == "" {
		cfg.Jobs.DefaultTargetLanguage = "zh-CN"
	}
}

func (cfg *Config) validate() error {
	switch cfg.Store.Backend {
	case "redis", "sqlite", "memory":
	case "postgres":
		if cfg.Database.URL == "" {
			return errors.New("database.url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q", cfg.Store.Backend)
	}
	if k := cfg.Store.EncryptionKey; k != "" && len(k) != 32 {
		return errors.New("store.encryption_key must be 32 bytes")
	}

	switch cfg.AI.Provider {
	case "echo":
	case "openai":
		if cfg.AI.OpenAIKey == "" && !cfg.Runtime.Dev {
			return errors.New("ai.openai_key is required")
		}
	case "gemini":
		if cfg.AI.GeminiKey == "" && !cfg.Runtime.Dev {
			return errors.New("ai.gemini_key is required")
		}
	default:
		return fmt.Errorf("unknown ai.provider %q", cfg.AI.Provider)
	}
	return nil
}

func normalizeDuration(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
