// Package config loads service configuration from an optional YAML file and
// the process environment. Environment variables always win over file values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime configuration of the scheduler service.
type Config struct {
	HTTPPort   int
	SQLiteDSN  string
	SessionTTL time.Duration
	LogLevel   string
	Bootstrap  Bootstrap
}

// Bootstrap describes the initial principal account seeded on first start.
// User management requires an existing principal, so an empty database needs
// one account created out of band.
type Bootstrap struct {
	Email       string
	Password    string
	DisplayName string
	Department  string
}

// fileConfig mirrors Config with YAML tags and string durations.
type fileConfig struct {
	HTTPPort   int    `yaml:"http_port"`
	SQLiteDSN  string `yaml:"sqlite_dsn"`
	SessionTTL string `yaml:"session_ttl"`
	LogLevel   string `yaml:"log_level"`
	Bootstrap  struct {
		Email       string `yaml:"email"`
		Password    string `yaml:"password"`
		DisplayName string `yaml:"display_name"`
		Department  string `yaml:"department"`
	} `yaml:"bootstrap"`
}

// Load builds the configuration from defaults, then the YAML file named by
// CAMPUS_CONFIG_FILE (if set), then CAMPUS_-prefixed environment variables.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:   8080,
		SQLiteDSN:  "file:campus-scheduler.db?_pragma=foreign_keys(1)",
		SessionTTL: 24 * time.Hour,
		LogLevel:   "info",
	}

	invalid := make([]string, 0, 2)

	if path := strings.TrimSpace(os.Getenv("CAMPUS_CONFIG_FILE")); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if portValue := strings.TrimSpace(os.Getenv("CAMPUS_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "CAMPUS_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("CAMPUS_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("CAMPUS_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "CAMPUS_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if level := strings.TrimSpace(os.Getenv("CAMPUS_LOG_LEVEL")); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, "CAMPUS_LOG_LEVEL")
	}

	if email := strings.TrimSpace(os.Getenv("CAMPUS_BOOTSTRAP_EMAIL")); email != "" {
		cfg.Bootstrap.Email = email
	}
	if password := os.Getenv("CAMPUS_BOOTSTRAP_PASSWORD"); password != "" {
		cfg.Bootstrap.Password = password
	}
	if name := strings.TrimSpace(os.Getenv("CAMPUS_BOOTSTRAP_DISPLAY_NAME")); name != "" {
		cfg.Bootstrap.DisplayName = name
	}
	if department := strings.TrimSpace(os.Getenv("CAMPUS_BOOTSTRAP_DEPARTMENT")); department != "" {
		cfg.Bootstrap.Department = department
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("configuration file %s does not exist", path)
		}
		return fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse configuration file %s: %w", path, err)
	}

	if file.HTTPPort > 0 {
		cfg.HTTPPort = file.HTTPPort
	}
	if dsn := strings.TrimSpace(file.SQLiteDSN); dsn != "" {
		cfg.SQLiteDSN = dsn
	}
	if raw := strings.TrimSpace(file.SessionTTL); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return fmt.Errorf("configuration file %s has an invalid session_ttl value %q", path, raw)
		}
		cfg.SessionTTL = ttl
	}
	if level := strings.TrimSpace(file.LogLevel); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
	if email := strings.TrimSpace(file.Bootstrap.Email); email != "" {
		cfg.Bootstrap.Email = email
	}
	if file.Bootstrap.Password != "" {
		cfg.Bootstrap.Password = file.Bootstrap.Password
	}
	if name := strings.TrimSpace(file.Bootstrap.DisplayName); name != "" {
		cfg.Bootstrap.DisplayName = name
	}
	if department := strings.TrimSpace(file.Bootstrap.Department); department != "" {
		cfg.Bootstrap.Department = department
	}
	return nil
}
