package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr    string          `yaml:"listen_addr"`
	TablesPath    string          `yaml:"tables_path"`
	EngineVersion string          `yaml:"engine_version"`
	Log           LogConfig       `yaml:"log"`
	RateLimit     RateLimitConfig `yaml:"rate_limit"`
	Audit         AuditConfig     `yaml:"audit"`
	Stream        StreamConfig    `yaml:"stream"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type RateLimitConfig struct {
	Enabled       bool   `yaml:"enabled"`
	PerMinute     int    `yaml:"per_minute"`
	WindowSeconds int    `yaml:"window_seconds"`
	RedisAddr     string `yaml:"redis_addr"`
}

type AuditConfig struct {
	Driver    string   `yaml:"driver"`
	Path      string   `yaml:"path"`
	DSN       string   `yaml:"dsn"`
	Brokers   []string `yaml:"brokers"`
	Topic     string   `yaml:"topic"`
	TimeoutMS int      `yaml:"timeout_ms"`
	BudgetMS  int      `yaml:"budget_ms"`
	Retries   int      `yaml:"retries"`
}

type StreamConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default is the configuration used when no file is given.
func Default() Config {
	return Config{
		ListenAddr: ":8080",
		Log:        LogConfig{Level: "info"},
		RateLimit:  RateLimitConfig{PerMinute: 120, WindowSeconds: 60},
		Audit:      AuditConfig{Driver: "none", TimeoutMS: 250, BudgetMS: 500, Retries: 2},
	}
}

// Load reads a YAML file, expanding ${VAR} references from the environment.
// Keys missing from the file keep their Default values.
func Load(path string) (Config, error) {
	// #nosec G304 -- path is operator-provided config path.
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	expanded := os.ExpandEnv(string(raw))
	expanded = strings.ReplaceAll(expanded, "\r\n", "\n")

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if _, err := c.Log.ZerologLevel(); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	if c.RateLimit.Enabled && c.RateLimit.PerMinute <= 0 {
		return fmt.Errorf("rate_limit.per_minute must be positive when rate_limit.enabled=true")
	}
	if c.RateLimit.WindowSeconds < 0 {
		return fmt.Errorf("rate_limit.window_seconds must not be negative")
	}

	switch strings.ToLower(c.Audit.Driver) {
	case "", "none", "memory":
	case "jsonl":
		if c.Audit.Path == "" {
			return fmt.Errorf("audit.path is required when audit.driver=jsonl")
		}
	case "sqlite", "postgres":
		if c.Audit.DSN == "" {
			return fmt.Errorf("audit.dsn is required when audit.driver=%s", strings.ToLower(c.Audit.Driver))
		}
	case "kafka":
		if len(c.Audit.Brokers) == 0 || c.Audit.Topic == "" {
			return fmt.Errorf("audit.brokers and audit.topic are required when audit.driver=kafka")
		}
	default:
		return fmt.Errorf("audit.driver %q is not supported", c.Audit.Driver)
	}
	if c.Audit.Retries < 0 || c.Audit.TimeoutMS < 0 || c.Audit.BudgetMS < 0 {
		return fmt.Errorf("audit.retries, audit.timeout_ms and audit.budget_ms must not be negative")
	}
	return nil
}

// ZerologLevel parses the configured level; empty means info.
func (l LogConfig) ZerologLevel() (zerolog.Level, error) {
	if strings.TrimSpace(l.Level) == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(l.Level)))
}

func (r RateLimitConfig) Window() time.Duration {
	if r.WindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(r.WindowSeconds) * time.Second
}

func (a AuditConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutMS) * time.Millisecond
}

// Budget bounds one audit write across all attempts.
func (a AuditConfig) Budget() time.Duration {
	return time.Duration(a.BudgetMS) * time.Millisecond
}
