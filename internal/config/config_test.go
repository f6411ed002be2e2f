package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DD_API_KEY", "DD_APP_KEY", "DD_SITE",
		"ENABLE_PERIODIC_LOGGING", "LOG_INTERVAL_SECONDS", "LOG_FILE_PATH",
		"OPSIGHT_CONFIG", "OPSIGHT_HOST", "OPSIGHT_PORT",
		"OPSIGHT_LOG_LEVEL", "OPSIGHT_LOG_FORMAT", "OPSIGHT_AUDIT_DB",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.ServiceName != "opsight" {
		t.Fatalf("service name = %q", cfg.ServiceName)
	}
	if cfg.Datadog.Site != "datadoghq.com" {
		t.Fatalf("site = %q", cfg.Datadog.Site)
	}
	if !cfg.Heartbeat.Enabled || cfg.Heartbeat.Interval != 30*time.Second {
		t.Fatalf("heartbeat defaults wrong: %+v", cfg.Heartbeat)
	}
	if cfg.Search.DefaultLimit != 50 || cfg.Search.FreeformLimit != 5 {
		t.Fatalf("search limits wrong: %+v", cfg.Search)
	}
	if cfg.Search.DefaultQuery != "datadog-agent" {
		t.Fatalf("default query = %q", cfg.Search.DefaultQuery)
	}
	if cfg.Datadog.Timeout != 30*time.Second {
		t.Fatalf("datadog timeout = %v", cfg.Datadog.Timeout)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DD_API_KEY", "secret")
	t.Setenv("DD_SITE", "datadoghq.eu")
	t.Setenv("ENABLE_PERIODIC_LOGGING", "false")
	t.Setenv("LOG_INTERVAL_SECONDS", "90")
	t.Setenv("OPSIGHT_PORT", "9090")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Datadog.APIKey != "secret" {
		t.Fatalf("api key = %q", cfg.Datadog.APIKey)
	}
	if cfg.Datadog.Site != "datadoghq.eu" {
		t.Fatalf("site = %q", cfg.Datadog.Site)
	}
	if cfg.Heartbeat.Enabled {
		t.Fatal("heartbeat should be disabled")
	}
	if cfg.Heartbeat.Interval != 90*time.Second {
		t.Fatalf("interval = %v", cfg.Heartbeat.Interval)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "opsight.yaml")
	content := `
service_name: opsight-staging
server:
  port: 8888
datadog:
  api_key: file-key
  site: us3.datadoghq.com
search:
  default_limit: 100
heartbeat:
  enabled: true
  interval: 1m
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.ServiceName != "opsight-staging" {
		t.Fatalf("service name = %q", cfg.ServiceName)
	}
	if cfg.Server.Port != 8888 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}
	if cfg.Datadog.APIKey != "file-key" {
		t.Fatalf("api key = %q", cfg.Datadog.APIKey)
	}
	if cfg.Search.DefaultLimit != 100 {
		t.Fatalf("default limit = %d", cfg.Search.DefaultLimit)
	}
	if cfg.Heartbeat.Interval != time.Minute {
		t.Fatalf("interval = %v", cfg.Heartbeat.Interval)
	}
	// Untouched fields keep their defaults.
	if cfg.Search.DefaultQuery != "datadog-agent" {
		t.Fatalf("default query = %q", cfg.Search.DefaultQuery)
	}
}

func TestEnvBeatsFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("DD_API_KEY", "env-key")

	path := filepath.Join(t.TempDir(), "opsight.yaml")
	if err := os.WriteFile(path, []byte("datadog:\n  api_key: file-key\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Datadog.APIKey != "env-key" {
		t.Fatalf("api key = %q, env override lost", cfg.Datadog.APIKey)
	}
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing DD_API_KEY must be fatal")
	}

	cfg.Datadog.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cfg.RateLimiting.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("rate limiting without a rate must fail validation")
	}
}
