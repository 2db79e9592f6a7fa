// Package config loads the appblock configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration. Every field is optional; missing
// fields keep their defaults.
type Config struct {
	DataDir           string        `yaml:"data_dir"`
	LogPath           string        `yaml:"log_path"`
	ErrorLogPath      string        `yaml:"error_log_path"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	RearmAt           string        `yaml:"rearm_at"`
	MetricsAddr       string        `yaml:"metrics_addr"`
	Host              HostConfig    `yaml:"host"`
	NATS              NATSConfig    `yaml:"nats"`
}

// HostConfig is the host application launched to take the foreground.
type HostConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// NATSConfig enables intent publishing on NATS when URL is set.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataDir:           defaultDataDir(),
		LogPath:           "/var/tmp/appblock.log",
		ErrorLogPath:      "/var/tmp/appblock.error.log",
		PollInterval:      2 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		RearmAt:           "23:50:00",
		NATS:              NATSConfig{Subject: "appblock.intents"},
	}
}

// DefaultPath returns ~/.config/appblock/config.yaml (or the platform equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "appblock.yaml"
	}
	return filepath.Join(dir, "appblock", "config.yaml")
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if _, _, _, err := ParseClock(cfg.RearmAt); err != nil {
		return Config{}, err
	}
	if cfg.PollInterval <= 0 {
		return Config{}, fmt.Errorf("invalid poll_interval: %s", cfg.PollInterval)
	}
	if cfg.HeartbeatInterval <= 0 {
		return Config{}, fmt.Errorf("invalid heartbeat_interval: %s", cfg.HeartbeatInterval)
	}
	return cfg, nil
}

// ParseClock parses "HH:MM" or "HH:MM:SS".
func ParseClock(s string) (hour, minute, second int, err error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		t, perr := time.Parse(layout, s)
		if perr == nil {
			return t.Hour(), t.Minute(), t.Second(), nil
		}
	}
	return 0, 0, 0, fmt.Errorf("invalid clock time %q (want HH:MM or HH:MM:SS)", s)
}

// ExecMode is who the daemon runs as.
type ExecMode string

const (
	ExecModeUser   ExecMode = "user"
	ExecModeSystem ExecMode = "system"
)

// DetectExecMode determines the execution mode from the effective UID.
func DetectExecMode() ExecMode {
	if os.Geteuid() == 0 {
		return ExecModeSystem
	}
	return ExecModeUser
}

// DataDirFor returns the default data directory for mode.
func DataDirFor(mode ExecMode) string {
	if mode == ExecModeSystem {
		return "/var/lib/appblock"
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "appblock")
	}
	return filepath.Join(dir, "appblock")
}

func defaultDataDir() string {
	return DataDirFor(DetectExecMode())
}
