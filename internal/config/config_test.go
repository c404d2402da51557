package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoadAndValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "govgate.yaml")

	t.Setenv("GOVGATE_AUDIT_DSN", "postgres://audit@localhost/govgate")

	data := `
listen_addr: ":9090"
tables_path: "./tables.yaml"
log:
  level: debug
  pretty: true
rate_limit:
  enabled: true
  per_minute: 30
audit:
  driver: postgres
  dsn: "${GOVGATE_AUDIT_DSN}"
  retries: 3
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Audit.DSN != "postgres://audit@localhost/govgate" {
		t.Fatalf("expected expanded dsn, got %q", cfg.Audit.DSN)
	}
	if cfg.Audit.TimeoutMS != 250 || cfg.Audit.BudgetMS != 500 || cfg.RateLimit.WindowSeconds != 60 {
		t.Fatalf("expected defaults for unset keys, got %+v", cfg)
	}
	level, err := cfg.Log.ZerologLevel()
	if err != nil || level != zerolog.DebugLevel {
		t.Fatalf("unexpected level %v, %v", level, err)
	}
	if cfg.RateLimit.Window() != time.Minute || cfg.Audit.Timeout() != 250*time.Millisecond || cfg.Audit.Budget() != 500*time.Millisecond {
		t.Fatalf("unexpected durations")
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateMissingFields(t *testing.T) {
	if err := (Config{}).Validate(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"log level":        func(c *Config) { c.Log.Level = "loud" },
		"rate limit":       func(c *Config) { c.RateLimit = RateLimitConfig{Enabled: true} },
		"jsonl path":       func(c *Config) { c.Audit.Driver = "jsonl" },
		"postgres dsn":     func(c *Config) { c.Audit.Driver = "postgres" },
		"kafka topic":      func(c *Config) { c.Audit = AuditConfig{Driver: "kafka", Brokers: []string{"localhost:9092"}} },
		"sqlite dsn":       func(c *Config) { c.Audit.Driver = "sqlite" },
		"unknown driver":   func(c *Config) { c.Audit.Driver = "s3" },
		"negative retries": func(c *Config) { c.Audit.Retries = -1 },
		"negative budget":  func(c *Config) { c.Audit.BudgetMS = -1 },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Fatalf("expected error")
	}
}
