// Package config loads the YAML configuration shared by the seq* tools.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AgResearch/tardis/internal/format"
	"github.com/AgResearch/tardis/internal/preview"
)

// CountConfig holds record counting settings.
type CountConfig struct {
	SampleSize int    `yaml:"sample_size"`
	TempDir    string `yaml:"temp_dir"`
	Workers    int    `yaml:"workers"`
}

// SplitConfig holds chunk splitting settings.
type SplitConfig struct {
	OutputFormat string `yaml:"output_format"`
	OutDir       string `yaml:"out_dir"`
}

// WatchConfig holds chunk watcher settings.
type WatchConfig struct {
	PollInterval string `yaml:"poll_interval"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Config is the top-level configuration.
type Config struct {
	Count   CountConfig   `yaml:"count"`
	Split   SplitConfig   `yaml:"split"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Count: CountConfig{
			SampleSize: preview.SampleSize,
		},
		Split: SplitConfig{
			OutDir: ".",
		},
		Watch: WatchConfig{
			PollInterval: "2s",
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Load reads configuration from r over the defaults. A nil or empty
// reader yields the defaults.
func Load(r io.Reader) (*Config, error) {
	cfg := Default()
	if r == nil {
		return cfg, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if len(data) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config yaml: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads configuration from a YAML file. A missing file yields
// the defaults.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path) //nolint:gosec // path is user-specified
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Load(nil)
		}
		return nil, fmt.Errorf("opening config file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return Load(f)
}

// Validate checks values that cannot be checked by the YAML decoder.
func (c *Config) Validate() error {
	var errs []error
	if c.Count.SampleSize <= 0 {
		errs = append(errs, fmt.Errorf("count.sample_size must be positive, got %d", c.Count.SampleSize))
	}
	if c.Count.Workers < 0 {
		errs = append(errs, fmt.Errorf("count.workers must not be negative, got %d", c.Count.Workers))
	}
	if c.Split.OutputFormat != "" {
		if _, err := format.ParseShape(c.Split.OutputFormat); err != nil {
			errs = append(errs, fmt.Errorf("split.output_format: %w", err))
		}
	}
	if _, err := c.PollInterval(); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// PollInterval parses watch.poll_interval. An empty value means the
// default of two seconds.
func (c *Config) PollInterval() (time.Duration, error) {
	if c.Watch.PollInterval == "" {
		return 2 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Watch.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("watch.poll_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("watch.poll_interval must be positive, got %s", d)
	}
	return d, nil
}

// ParseLevel maps a level name to a slog.Level. Empty means warn.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", name)
	}
}
