package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Postgres.MaxConns != 15 {
		t.Errorf("expected max_conns 15, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Breaker.Timeout != 30*time.Second {
		t.Errorf("expected breaker timeout 30s, got %v", cfg.Breaker.Timeout)
	}
	if cfg.Scheduler.DefaultTopN != 5 {
		t.Errorf("expected default top n 5, got %d", cfg.Scheduler.DefaultTopN)
	}
	if cfg.Storage.Driver != "postgres" {
		t.Errorf("expected storage driver postgres, got %s", cfg.Storage.Driver)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
  cors_origin: "http://example.com"
postgres:
  max_conns: 20
logging:
  level: "debug"
scheduler:
  default_top_n: 10
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.CORSOrigin != "http://example.com" {
		t.Errorf("expected cors http://example.com, got %s", cfg.Server.CORSOrigin)
	}
	if cfg.Postgres.MaxConns != 20 {
		t.Errorf("expected max_conns 20, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	if cfg.Scheduler.DefaultTopN != 10 {
		t.Errorf("expected default top n 10, got %d", cfg.Scheduler.DefaultTopN)
	}
	// Unchanged fields keep defaults
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("expected default NATS URL, got %s", cfg.NATS.URL)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	err := loadYAML(&cfg, "/nonexistent/path.yaml")
	if err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestLoadYAMLInvalid(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(yamlPath, []byte("server: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err == nil {
		t.Fatal("expected parse error for malformed YAML")
	}
}

func TestEnvOverride(t *testing.T) {
	cfg := Defaults()

	t.Setenv("TASKMATE_PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://test:test@db:5432/test")
	t.Setenv("TASKMATE_PG_MAX_CONNS", "25")
	t.Setenv("TASKMATE_LOG_LEVEL", "warn")
	t.Setenv("TASKMATE_BREAKER_TIMEOUT", "1m")
	t.Setenv("TASKMATE_STORAGE_DRIVER", "memory")
	t.Setenv("TASKMATE_MAX_TOP_N", "50")
	t.Setenv("TASKMATE_MCP_ENABLED", "true")

	loadEnv(&cfg)

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Postgres.DSN != "postgres://test:test@db:5432/test" {
		t.Errorf("expected test DSN, got %s", cfg.Postgres.DSN)
	}
	if cfg.Postgres.MaxConns != 25 {
		t.Errorf("expected max_conns 25, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Logging.Level)
	}
	if cfg.Breaker.Timeout != time.Minute {
		t.Errorf("expected breaker timeout 1m, got %v", cfg.Breaker.Timeout)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("expected storage driver memory, got %s", cfg.Storage.Driver)
	}
	if cfg.Scheduler.MaxTopN != 50 {
		t.Errorf("expected max top n 50, got %d", cfg.Scheduler.MaxTopN)
	}
	if !cfg.MCP.Enabled {
		t.Error("expected mcp enabled")
	}
}

func TestEnvInvalidValuesIgnored(t *testing.T) {
	cfg := Defaults()

	t.Setenv("TASKMATE_PG_MAX_CONNS", "lots")
	t.Setenv("TASKMATE_BREAKER_TIMEOUT", "soon")

	loadEnv(&cfg)

	if cfg.Postgres.MaxConns != 15 {
		t.Errorf("invalid int should keep default, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Breaker.Timeout != 30*time.Second {
		t.Errorf("invalid duration should keep default, got %v", cfg.Breaker.Timeout)
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{
			name:   "empty port",
			modify: func(c *Config) { c.Server.Port = "" },
			errMsg: "server.port is required",
		},
		{
			name:   "empty DSN",
			modify: func(c *Config) { c.Postgres.DSN = "" },
			errMsg: "postgres.dsn is required",
		},
		{
			name:   "unknown storage driver",
			modify: func(c *Config) { c.Storage.Driver = "sqlite" },
			errMsg: `storage.driver "sqlite" is not supported`,
		},
		{
			name:   "empty NATS URL",
			modify: func(c *Config) { c.NATS.URL = "" },
			errMsg: "nats.url is required",
		},
		{
			name:   "zero max_conns",
			modify: func(c *Config) { c.Postgres.MaxConns = 0 },
			errMsg: "postgres.max_conns must be >= 1",
		},
		{
			name:   "zero breaker failures",
			modify: func(c *Config) { c.Breaker.MaxFailures = 0 },
			errMsg: "breaker.max_failures must be >= 1",
		},
		{
			name:   "zero rate burst",
			modify: func(c *Config) { c.Rate.Burst = 0 },
			errMsg: "rate.burst must be >= 1",
		},
		{
			name:   "zero top n",
			modify: func(c *Config) { c.Scheduler.DefaultTopN = 0 },
			errMsg: "scheduler.default_top_n must be >= 1",
		},
		{
			name:   "max top n below default",
			modify: func(c *Config) { c.Scheduler.MaxTopN = 2 },
			errMsg: "scheduler.max_top_n must be >= scheduler.default_top_n",
		},
		{
			name: "mcp enabled without addr",
			modify: func(c *Config) {
				c.MCP.Enabled = true
				c.MCP.Addr = ""
			},
			errMsg: "mcp.addr is required when mcp is enabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			err := validate(&cfg)
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.errMsg)
			}
			if err.Error() != tt.errMsg {
				t.Errorf("expected %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}

func TestValidateMemoryDriverSkipsPostgres(t *testing.T) {
	cfg := Defaults()
	cfg.Storage.Driver = "memory"
	cfg.Postgres.DSN = ""
	cfg.NATS.Enabled = false
	cfg.NATS.URL = ""

	if err := validate(&cfg); err != nil {
		t.Fatalf("memory driver without postgres should validate, got %v", err)
	}
}
