package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/kamusis/imgrepo-cli/internal/cluster"
	"github.com/kamusis/imgrepo-cli/internal/features"
)

// Environment variables that override the config file.
const (
	EnvLogLevel    = "IMGREPO_LOG_LEVEL"
	EnvMetricsFile = "IMGREPO_METRICS_FILE"
	EnvWorkers     = "IMGREPO_WORKERS"
)

// Config is the in-memory representation of ~/.imgrepo/imgrepo.yaml.
type Config struct {
	Canvas      features.Canvas `yaml:"canvas"`
	Clustering  cluster.Options `yaml:"clustering"`
	Workers     int             `yaml:"workers"`
	Recursive   bool            `yaml:"recursive"`
	Excludes    []string        `yaml:"excludes,omitempty"`
	LogLevel    string          `yaml:"log_level"`
	MetricsFile string          `yaml:"metrics_file,omitempty"`
	SessionLock bool            `yaml:"session_lock"`
}

// ImgrepoDir returns the absolute path to ~/.imgrepo/.
func ImgrepoDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".imgrepo"), nil
}

// ConfigPath returns the absolute path to ~/.imgrepo/imgrepo.yaml.
func ConfigPath() (string, error) {
	dir, err := ImgrepoDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "imgrepo.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the configuration used when no file exists and the
// one written by imgrepo init.
func DefaultConfig() *Config {
	return &Config{
		Canvas:     features.DefaultCanvas(),
		Clustering: cluster.Options{MaxIterations: cluster.DefaultMaxIterations},
		Workers:    1,
		Excludes: []string{
			".DS_Store",
			"Thumbs.db",
			"*.tmp",
		},
		LogLevel:    "info",
		SessionLock: true,
	}
}

// Load reads ~/.imgrepo/imgrepo.yaml on top of DefaultConfig and applies
// environment overrides. A missing file is not an error.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
	}

	if err := applyOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.MetricsFile, err = ExpandPath(cfg.MetricsFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func applyOverrides(cfg *Config) error {
	if v, err := GetConfigValue(EnvLogLevel); err != nil {
		return err
	} else if v != "" {
		cfg.LogLevel = v
	}
	if v, err := GetConfigValue(EnvMetricsFile); err != nil {
		return err
	} else if v != "" {
		cfg.MetricsFile = v
	}
	v, err := GetConfigValue(EnvWorkers)
	if err != nil {
		return err
	}
	if v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("cannot parse %s=%q: %w", EnvWorkers, v, err)
		}
		cfg.Workers = n
	}
	return nil
}

// Validate rejects settings no build could run with.
func (c *Config) Validate() error {
	if err := c.Canvas.Validate(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Clustering.MaxIterations < 0 {
		return fmt.Errorf("clustering.max_iterations must not be negative, got %d", c.Clustering.MaxIterations)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel; empty means info.
func (c *Config) Level() (logrus.Level, error) {
	if c.LogLevel == "" {
		return logrus.InfoLevel, nil
	}
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("invalid log_level: %w", err)
	}
	return lvl, nil
}

// Save marshals cfg and writes it to ~/.imgrepo/imgrepo.yaml, creating the
// directory when needed.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(path), err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}
