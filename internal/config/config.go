package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/yegors/flightboard/pkg/logger"
)

// Config represents the application configuration
type Config struct {
	Logging LoggingConfig `toml:"logging"`
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Metrics MetricsConfig `toml:"metrics"`
	Console ConsoleConfig `toml:"console"`
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // json, console
}

// ServerConfig represents the HTTP API configuration
type ServerConfig struct {
	ListenAddr             string   `toml:"listen_addr"`
	CORSAllowedOrigins     []string `toml:"cors_allowed_origins"`
	ShutdownTimeoutSeconds int      `toml:"shutdown_timeout_seconds"`
	NoticeBufferSize       int      `toml:"notice_buffer_size"` // per websocket client
}

// StorageConfig represents the status history configuration
type StorageConfig struct {
	Enabled      bool   `toml:"enabled"`
	HistoryPath  string `toml:"history_path"` // ":memory:" keeps history for the session only
	HistoryLimit int    `toml:"history_limit"`
}

// MetricsConfig represents the Prometheus endpoint configuration
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// ConsoleConfig represents the interactive console configuration
type ConsoleConfig struct {
	Color bool `toml:"color"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			ListenAddr:             ":8080",
			ShutdownTimeoutSeconds: 10,
			NoticeBufferSize:       64,
		},
		Storage: StorageConfig{
			Enabled:      true,
			HistoryPath:  ":memory:",
			HistoryLimit: 100,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Console: ConsoleConfig{
			Color: true,
		},
	}
}

// Load reads a TOML file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config keys in %s: %v", path, undecoded)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the application cannot run with
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging.format: %q", c.Logging.Format)
	}
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr must not be empty")
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("server.shutdown_timeout_seconds must be positive")
	}
	if c.Server.NoticeBufferSize <= 0 {
		return fmt.Errorf("server.notice_buffer_size must be positive")
	}
	if c.Storage.Enabled {
		if c.Storage.HistoryPath == "" {
			return fmt.Errorf("storage.history_path must not be empty when storage is enabled")
		}
		if c.Storage.HistoryLimit <= 0 {
			return fmt.Errorf("storage.history_limit must be positive")
		}
	}
	if c.Metrics.Enabled && (c.Metrics.Path == "" || c.Metrics.Path[0] != '/') {
		return fmt.Errorf("metrics.path must start with '/'")
	}
	return nil
}

// ShutdownTimeout returns the graceful shutdown timeout as a duration
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}
