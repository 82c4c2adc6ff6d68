// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Delivery mode names accepted in configuration.
const (
	DeliveryInline = "inline"
	DeliveryMemory = "memory"
	DeliveryDisk   = "disk"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Capture  CaptureConfig  `mapstructure:"capture"`
	Delivery DeliveryConfig `mapstructure:"delivery"`
	History  HistoryConfig  `mapstructure:"history"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CaptureConfig configures the headless capture engine.
type CaptureConfig struct {
	ChromePath    string `mapstructure:"chrome_path"`
	NavTimeoutSec int    `mapstructure:"nav_timeout_seconds"`
	WaitSelector  string `mapstructure:"wait_selector"`
	MinImageBytes int    `mapstructure:"min_image_bytes"`
}

// DeliveryConfig selects how captured bytes reach the client.
type DeliveryConfig struct {
	Mode string `mapstructure:"mode"`
	Dir  string `mapstructure:"dir"`
}

// HistoryConfig controls the optional Postgres capture log.
type HistoryConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// LoggingConfig toggles zap development features and the file sink.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TWEETSHOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Hosting platforms inject the listen port as a bare PORT variable.
	if portEnv := os.Getenv("PORT"); portEnv != "" {
		if port, err := strconv.Atoi(portEnv); err == nil {
			cfg.Server.Port = port
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5001)
	v.SetDefault("capture.chrome_path", "")
	v.SetDefault("capture.nav_timeout_seconds", 45)
	v.SetDefault("capture.wait_selector", "article")
	v.SetDefault("capture.min_image_bytes", 1000)
	v.SetDefault("delivery.mode", DeliveryInline)
	v.SetDefault("delivery.dir", "output_screenshots")
	v.SetDefault("history.table", "captures")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.file", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	switch c.Delivery.Mode {
	case DeliveryInline, DeliveryMemory:
	case DeliveryDisk:
		if c.Delivery.Dir == "" {
			return fmt.Errorf("delivery.dir must be set for disk delivery")
		}
	default:
		return fmt.Errorf("delivery.mode must be one of inline, memory, disk")
	}
	if c.Capture.NavTimeoutSec <= 0 {
		return fmt.Errorf("capture.nav_timeout_seconds must be > 0")
	}
	if c.Capture.MinImageBytes < 0 {
		return fmt.Errorf("capture.min_image_bytes must be >= 0")
	}
	return nil
}

// NavTimeout converts the configured navigation timeout into a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Capture.NavTimeoutSec) * time.Second
}
