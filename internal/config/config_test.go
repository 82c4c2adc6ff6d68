package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 5001 {
		t.Fatalf("expected default port 5001, got %d", cfg.Server.Port)
	}
	if cfg.Delivery.Mode != DeliveryInline {
		t.Fatalf("expected inline delivery by default, got %q", cfg.Delivery.Mode)
	}
	if cfg.Capture.MinImageBytes != 1000 {
		t.Fatalf("expected min image bytes 1000, got %d", cfg.Capture.MinImageBytes)
	}
	if got := cfg.NavTimeout(); got != 45*time.Second {
		t.Fatalf("expected nav timeout 45s, got %v", got)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
capture:
  chrome_path: /usr/bin/chromium
  nav_timeout_seconds: 30
  wait_selector: article
  min_image_bytes: 500
delivery:
  mode: memory
history:
  dsn: postgres://localhost/tweetshot
  table: capture_log
logging:
  development: false
  file: tweet_screenshotter.log
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Capture.ChromePath != "/usr/bin/chromium" {
		t.Fatalf("expected chrome path override, got %q", cfg.Capture.ChromePath)
	}
	if cfg.Delivery.Mode != DeliveryMemory {
		t.Fatalf("expected memory delivery, got %q", cfg.Delivery.Mode)
	}
	if cfg.History.Table != "capture_log" {
		t.Fatalf("expected history table override, got %q", cfg.History.Table)
	}
	if cfg.Logging.Development || cfg.Logging.File != "tweet_screenshotter.log" {
		t.Fatalf("expected logging overrides to apply: %+v", cfg.Logging)
	}
}

func TestLoadHonorsPlatformPort(t *testing.T) {
	t.Setenv("PORT", "8081")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8081 {
		t.Fatalf("expected platform port 8081, got %d", cfg.Server.Port)
	}
}

func TestLoadIgnoresInvalidPlatformPort(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 5001 {
		t.Fatalf("expected fallback port 5001, got %d", cfg.Server.Port)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server:   ServerConfig{Port: 5001},
		Capture:  CaptureConfig{NavTimeoutSec: 45, MinImageBytes: 1000},
		Delivery: DeliveryConfig{Mode: DeliveryInline},
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"unknown delivery mode", func(c *Config) { c.Delivery.Mode = "redis" }},
		{"disk without dir", func(c *Config) { c.Delivery.Mode = DeliveryDisk; c.Delivery.Dir = "" }},
		{"zero nav timeout", func(c *Config) { c.Capture.NavTimeoutSec = 0 }},
		{"negative min bytes", func(c *Config) { c.Capture.MinImageBytes = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := base
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
