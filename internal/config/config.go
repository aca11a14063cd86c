package config

import (
	"fmt"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// AppConfig holds process-level settings. Logging is configured separately
// through the obslog environment variables.
type AppConfig struct {
	ListenAddr string `yaml:"listen"`
	AdminAddr  string `yaml:"admin_listen"`
	AdminToken string `yaml:"admin_token"`

	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load builds the configuration from an optional YAML file (ROOMHUB_CONFIG)
// with environment variables taking precedence. Every key has a default, so
// the server runs with no configuration at all.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr: ":8080",
		AdminAddr:  ":9090",
	}

	if path := strings.TrimSpace(os.Getenv("ROOMHUB_CONFIG")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("ROOMHUB_LISTEN")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("ROOMHUB_ADMIN_LISTEN")); v != "" {
		cfg.AdminAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("ROOMHUB_ADMIN_TOKEN")); v != "" {
		cfg.AdminToken = v
	}
	if v := strings.TrimSpace(os.Getenv("ROOMHUB_ALLOWED_ORIGINS")); v != "" {
		cfg.AllowedOrigins = nil
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, s)
			}
		}
	}

	if cfg.ListenAddr == "" {
		return nil, fmt.Errorf("listen address must not be empty")
	}
	return cfg, nil
}
