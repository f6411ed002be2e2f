/*
internal/config/config.go
Package config provides configuration structures, loading and
environment overrides for the opsight service.
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration.
type Config struct {
	ServiceName  string             `yaml:"service_name"`
	Server       ServerConfig       `yaml:"server"`
	Datadog      DatadogConfig      `yaml:"datadog"`
	Search       SearchConfig       `yaml:"search"`
	Heartbeat    HeartbeatConfig    `yaml:"heartbeat"`
	Logging      LoggingConfig      `yaml:"logging"`
	Audit        AuditConfig        `yaml:"audit"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting"`
	CORS         CORSConfig         `yaml:"cors"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatadogConfig contains backend credentials and host selection.
type DatadogConfig struct {
	APIKey string `yaml:"api_key"`
	AppKey string `yaml:"app_key"`
	Site   string `yaml:"site"`

	// Base-URL overrides for local mock backends; empty means derive
	// from the site name.
	SearchBaseURL string `yaml:"search_base_url"`
	IntakeBaseURL string `yaml:"intake_base_url"`

	Timeout time.Duration `yaml:"timeout"`
}

// SearchConfig exposes the constants the two original service variants
// diverged on.
type SearchConfig struct {
	DefaultLimit  int    `yaml:"default_limit"`
	FreeformLimit int    `yaml:"freeform_limit"`
	DefaultQuery  string `yaml:"default_query"`
}

// HeartbeatConfig controls the periodic status emission task.
type HeartbeatConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// LoggingConfig contains structured-logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
	File  string `yaml:"file"`
}

// AuditConfig contains the local audit store settings.
type AuditConfig struct {
	Database string `yaml:"database"`
}

// RateLimitingConfig contains rate limiting settings.
type RateLimitingConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerSecond int  `yaml:"requests_per_second"`
	Burst             int  `yaml:"burst"`
}

// CORSConfig contains CORS settings.
type CORSConfig struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// Load initialises Config from an optional YAML file plus environment
// overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("OPSIGHT_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		ServiceName: "opsight",
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Datadog: DatadogConfig{
			Site:    "datadoghq.com",
			Timeout: 30 * time.Second,
		},
		Search: SearchConfig{
			DefaultLimit:  50,
			FreeformLimit: 5,
			DefaultQuery:  "datadog-agent",
		},
		Heartbeat: HeartbeatConfig{
			Enabled:  true,
			Interval: 30 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Audit:   AuditConfig{Database: "opsight.db"},
	}
}

// applyDefaults re-fills zero values a config file may have blanked.
func applyDefaults(cfg *Config) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "opsight"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Datadog.Site == "" {
		cfg.Datadog.Site = "datadoghq.com"
	}
	if cfg.Datadog.Timeout == 0 {
		cfg.Datadog.Timeout = 30 * time.Second
	}
	if cfg.Search.DefaultLimit <= 0 {
		cfg.Search.DefaultLimit = 50
	}
	if cfg.Search.FreeformLimit <= 0 {
		cfg.Search.FreeformLimit = 5
	}
	if cfg.Search.DefaultQuery == "" {
		cfg.Search.DefaultQuery = "datadog-agent"
	}
	if cfg.Heartbeat.Interval <= 0 {
		cfg.Heartbeat.Interval = 30 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Audit.Database == "" {
		cfg.Audit.Database = "opsight.db"
	}
}

// applyEnvOverrides honours the environment names the service has always
// used for Datadog credentials and heartbeat control.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DD_API_KEY"); v != "" {
		cfg.Datadog.APIKey = v
	}
	if v := os.Getenv("DD_APP_KEY"); v != "" {
		cfg.Datadog.AppKey = v
	}
	if v := os.Getenv("DD_SITE"); v != "" {
		cfg.Datadog.Site = v
	}
	if v := os.Getenv("ENABLE_PERIODIC_LOGGING"); v != "" {
		cfg.Heartbeat.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("LOG_INTERVAL_SECONDS"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			cfg.Heartbeat.Interval = time.Duration(seconds) * time.Second
		}
	}
	if v := os.Getenv("LOG_FILE_PATH"); v != "" {
		cfg.Logging.File = v
	}
	if v := os.Getenv("OPSIGHT_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("OPSIGHT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("OPSIGHT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("OPSIGHT_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("OPSIGHT_AUDIT_DB"); v != "" {
		cfg.Audit.Database = v
	}
}

// Validate checks if the configuration is valid. A missing Datadog API
// key is a fatal startup condition.
func (c *Config) Validate() error {
	if c.Datadog.APIKey == "" {
		return fmt.Errorf("DD_API_KEY is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Heartbeat.Enabled && c.Heartbeat.Interval <= 0 {
		return fmt.Errorf("heartbeat interval must be positive")
	}
	if c.RateLimiting.Enabled && c.RateLimiting.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate limiting requires a positive requests_per_second")
	}
	return nil
}
