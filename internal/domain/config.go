package domain

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the complete Harrier configuration.
type Config struct {
	// Server settings
	Server ServerConfig `yaml:"server"`

	// Component configurations
	Repository RepositoryConfig `yaml:"repository"`
	Cache      CacheConfig      `yaml:"cache"`
	EventBus   EventBusConfig   `yaml:"event_bus"`
	Embedder   EmbedderConfig   `yaml:"embedder"`

	// Screening settings
	Screening ScreeningConfig `yaml:"screening"`

	// Watchlist refresh settings
	Watchlist WatchlistConfig `yaml:"watchlist"`

	// Observability
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	ReadTimeout  int    `yaml:"read_timeout"`  // seconds
	WriteTimeout int    `yaml:"write_timeout"` // seconds
}

// ScreeningConfig holds pipeline tuning knobs.
type ScreeningConfig struct {
	// PolicyTopK is how many policies the retriever returns per transaction.
	PolicyTopK int `yaml:"policy_top_k"`

	// StepTimeout bounds each pipeline step, in seconds.
	StepTimeout int `yaml:"step_timeout"`

	// DetectorWorkers bounds detector concurrency in the ensemble.
	DetectorWorkers int `yaml:"detector_workers"`

	// AsyncWorker enables the bus-driven worker alongside the HTTP API.
	AsyncWorker bool `yaml:"async_worker"`
}

// WatchlistConfig drives the cron-scheduled watchlist reload.
type WatchlistConfig struct {
	// Path to a YAML file of SanctionsEntry records. Empty disables reload.
	Path string `yaml:"path"`

	// Cron is the reload schedule, e.g. "0 3 * * *". Empty disables reload.
	Cron string `yaml:"cron"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns a configuration that runs with no external services:
// in-memory cache, channel bus, SQLite audit store, local embedder.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./harrier.db",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 10000,
			LocalTTL:     300,
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Embedder: EmbedderConfig{
			Type:     "local",
			LocalDim: 64,
		},
		Screening: ScreeningConfig{
			PolicyTopK:      3,
			StepTimeout:     10,
			DetectorWorkers: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig reads config from a YAML file over the defaults, then applies
// environment variable overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HARRIER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("HARRIER_DB_DRIVER"); v != "" {
		cfg.Repository.Driver = v
	}
	if v := os.Getenv("HARRIER_SQLITE_PATH"); v != "" {
		cfg.Repository.SQLitePath = v
	}
	if v := os.Getenv("HARRIER_POSTGRES_HOST"); v != "" {
		cfg.Repository.PostgresHost = v
	}
	if v := os.Getenv("HARRIER_POSTGRES_PASSWORD"); v != "" {
		cfg.Repository.PostgresPassword = v
	}
	if v := os.Getenv("HARRIER_CACHE"); v != "" {
		cfg.Cache.Type = v
	}
	if v := os.Getenv("HARRIER_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("HARRIER_BUS"); v != "" {
		cfg.EventBus.Type = v
	}
	if v := os.Getenv("HARRIER_NATS_URL"); v != "" {
		cfg.EventBus.NATSUrl = v
	}
	if v := os.Getenv("HARRIER_KAFKA_BROKERS"); v != "" {
		cfg.EventBus.KafkaBrokers = strings.Split(v, ",")
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Embedder.Type = "gemini"
		cfg.Embedder.GeminiAPIKey = v
	}
	if v := os.Getenv("HARRIER_WATCHLIST_PATH"); v != "" {
		cfg.Watchlist.Path = v
	}
	if v := os.Getenv("HARRIER_WATCHLIST_CRON"); v != "" {
		cfg.Watchlist.Cron = v
	}
	if v := os.Getenv("HARRIER_ASYNC_WORKER"); v == "true" {
		cfg.Screening.AsyncWorker = true
	}
	if v := os.Getenv("HARRIER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
