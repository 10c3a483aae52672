package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "taskmate.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "TASKMATE_PORT")
	setString(&cfg.Server.CORSOrigin, "TASKMATE_CORS_ORIGIN")
	setString(&cfg.Storage.Driver, "TASKMATE_STORAGE_DRIVER")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "TASKMATE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "TASKMATE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "TASKMATE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "TASKMATE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "TASKMATE_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setBool(&cfg.NATS.Enabled, "TASKMATE_NATS_ENABLED")
	setString(&cfg.Logging.Level, "TASKMATE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "TASKMATE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "TASKMATE_LOG_ASYNC")
	setInt(&cfg.Breaker.MaxFailures, "TASKMATE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "TASKMATE_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "TASKMATE_RATE_RPS")
	setInt(&cfg.Rate.Burst, "TASKMATE_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "TASKMATE_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "TASKMATE_RATE_MAX_IDLE_TIME")

	// Cache
	setInt64(&cfg.Cache.L1MaxSizeMB, "TASKMATE_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "TASKMATE_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "TASKMATE_CACHE_L2_TTL")

	// Idempotency
	setString(&cfg.Idempotency.Bucket, "TASKMATE_IDEMPOTENCY_BUCKET")
	setDuration(&cfg.Idempotency.TTL, "TASKMATE_IDEMPOTENCY_TTL")

	// Scheduler
	setInt(&cfg.Scheduler.DefaultTopN, "TASKMATE_TOP_N")
	setInt(&cfg.Scheduler.MaxTopN, "TASKMATE_MAX_TOP_N")

	// Telemetry
	setBool(&cfg.OTEL.Enabled, "TASKMATE_OTEL_ENABLED")
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME")
	setBool(&cfg.OTEL.Insecure, "TASKMATE_OTEL_INSECURE")

	// MCP
	setBool(&cfg.MCP.Enabled, "TASKMATE_MCP_ENABLED")
	setString(&cfg.MCP.Addr, "TASKMATE_MCP_ADDR")
	setString(&cfg.MCP.APIKey, "TASKMATE_MCP_API_KEY")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	switch cfg.Storage.Driver {
	case "postgres":
		if cfg.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required")
		}
		if cfg.Postgres.MaxConns < 1 {
			return errors.New("postgres.max_conns must be >= 1")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.driver %q is not supported", cfg.Storage.Driver)
	}
	if cfg.NATS.Enabled && cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Scheduler.DefaultTopN < 1 {
		return errors.New("scheduler.default_top_n must be >= 1")
	}
	if cfg.Scheduler.MaxTopN < cfg.Scheduler.DefaultTopN {
		return errors.New("scheduler.max_top_n must be >= scheduler.default_top_n")
	}
	if cfg.MCP.Enabled && cfg.MCP.Addr == "" {
		return errors.New("mcp.addr is required when mcp is enabled")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
