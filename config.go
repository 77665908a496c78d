package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"viewshell/bridge"
	"viewshell/events"
)

// Config holds host settings. Every field can be set through a VIEWSHELL_*
// environment variable; command-line flags override the environment.
type Config struct {
	SocketPath   string `envconfig:"SOCKET"`
	ChromeURL    string `envconfig:"CHROME_URL"`
	LogFile      string `envconfig:"LOG_FILE"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	EventBacklog int    `envconfig:"EVENT_BACKLOG" default:"64"`
}

// configDir returns the platform config directory for viewshell.
func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir, _ = os.UserHomeDir()
	}
	return filepath.Join(dir, "viewshell")
}

// LoadConfig reads the environment and fills in path defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("viewshell", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SocketPath == "" {
		cfg.SocketPath = bridge.SocketPath()
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(configDir(), "logs", "viewshell.log")
	}
	if cfg.EventBacklog <= 0 {
		cfg.EventBacklog = events.DefaultBacklog
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	return &cfg, nil
}

// ensureDirs creates the directories the socket and log file live in.
func (c *Config) ensureDirs() error {
	for _, p := range []string{c.SocketPath, c.LogFile} {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(p), err)
		}
	}
	return nil
}
