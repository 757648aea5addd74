package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MrTarik2112/FileCreator/internal/logging"
	"github.com/MrTarik2112/FileCreator/internal/progress"
	"github.com/MrTarik2112/FileCreator/pkg/rangefill"
)

// Limits applied by Normalize.
const (
	MaxWorkers      = 64
	MinAutoWorkers  = 4
	MaxBufferSize   = 256 * 1024 * 1024 // 256MB
	TurboBufferSize = 32 * 1024 * 1024  // 32MB
	TurboWorkers    = 4
)

// Config defines configuration for the filecreator CLI.
type Config struct {
	Path       string         `yaml:"path"`
	Size       int64          `yaml:"size"`
	Workers    int            `yaml:"workers"`
	BufferSize int64          `yaml:"buffer_size"`
	Fill       string         `yaml:"fill"`
	Turbo      bool           `yaml:"turbo"`
	Interval   time.Duration  `yaml:"interval"`
	RateLimit  int64          `yaml:"rate_limit"`
	Sync       bool           `yaml:"sync"`
	Allocation string         `yaml:"allocation"`
	Log        logging.Config `yaml:"log"`
	Metrics    MetricsConfig  `yaml:"metrics"`
	Report     ReportConfig   `yaml:"report"`
}

// MetricsConfig defines the Prometheus endpoint.
type MetricsConfig struct {
	Address string `yaml:"address"` // empty disables the endpoint
}

// ReportConfig defines where run reports are stored.
type ReportConfig struct {
	URL string `yaml:"url"` // gocloud.dev/blob bucket URL, empty disables reports
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Workers:    0, // auto
		BufferSize: 32 * 1024 * 1024, // 32MB
		Fill:       "zero",
		Interval:   rangefill.DefaultInterval,
		Allocation: "auto",
		Log: logging.Config{
			Format: "text",
			Level:  "info",
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string sizes and durations.
type yamlConfig struct {
	Path       string         `yaml:"path"`
	Size       string         `yaml:"size"`
	Workers    int            `yaml:"workers"`
	BufferSize string         `yaml:"buffer_size"`
	Fill       string         `yaml:"fill"`
	Turbo      bool           `yaml:"turbo"`
	Interval   string         `yaml:"interval"`
	RateLimit  string         `yaml:"rate_limit"`
	Sync       bool           `yaml:"sync"`
	Allocation string         `yaml:"allocation"`
	Log        logging.Config `yaml:"log"`
	Metrics    MetricsConfig  `yaml:"metrics"`
	Report     ReportConfig   `yaml:"report"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.Path != "" {
		cfg.Path = yc.Path
	}
	if yc.Size != "" {
		size, err := progress.ParseBytes(yc.Size)
		if err != nil {
			return Config{}, fmt.Errorf("parse size: %w", err)
		}
		cfg.Size = size
	}
	if yc.Workers != 0 {
		cfg.Workers = yc.Workers
	}
	if yc.BufferSize != "" {
		size, err := progress.ParseBytes(yc.BufferSize)
		if err != nil {
			return Config{}, fmt.Errorf("parse buffer_size: %w", err)
		}
		cfg.BufferSize = size
	}
	if yc.Fill != "" {
		cfg.Fill = yc.Fill
	}
	cfg.Turbo = yc.Turbo
	if yc.Interval != "" {
		d, err := time.ParseDuration(yc.Interval)
		if err != nil {
			return Config{}, fmt.Errorf("parse interval: %w", err)
		}
		cfg.Interval = d
	}
	if yc.RateLimit != "" {
		limit, err := progress.ParseBytes(yc.RateLimit)
		if err != nil {
			return Config{}, fmt.Errorf("parse rate_limit: %w", err)
		}
		cfg.RateLimit = limit
	}
	cfg.Sync = yc.Sync
	if yc.Allocation != "" {
		cfg.Allocation = yc.Allocation
	}
	if yc.Log.Format != "" {
		cfg.Log.Format = yc.Log.Format
	}
	if yc.Log.Level != "" {
		cfg.Log.Level = yc.Log.Level
	}
	cfg.Metrics = yc.Metrics
	cfg.Report = yc.Report

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the FILECREATOR_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("FILECREATOR_PATH"); v != "" {
		c.Path = v
	}
	if v := os.Getenv("FILECREATOR_SIZE"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse FILECREATOR_SIZE: %w", err)
		}
		c.Size = size
	}
	if v := os.Getenv("FILECREATOR_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse FILECREATOR_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("FILECREATOR_BUFFER_SIZE"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse FILECREATOR_BUFFER_SIZE: %w", err)
		}
		c.BufferSize = size
	}
	if v := os.Getenv("FILECREATOR_FILL"); v != "" {
		c.Fill = v
	}
	if v := os.Getenv("FILECREATOR_TURBO"); v != "" {
		c.Turbo = v == "true" || v == "1"
	}
	if v := os.Getenv("FILECREATOR_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse FILECREATOR_INTERVAL: %w", err)
		}
		c.Interval = d
	}
	if v := os.Getenv("FILECREATOR_RATE_LIMIT"); v != "" {
		limit, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse FILECREATOR_RATE_LIMIT: %w", err)
		}
		c.RateLimit = limit
	}
	if v := os.Getenv("FILECREATOR_SYNC"); v != "" {
		c.Sync = v == "true" || v == "1"
	}
	if v := os.Getenv("FILECREATOR_ALLOCATION"); v != "" {
		c.Allocation = v
	}
	if v := os.Getenv("FILECREATOR_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("FILECREATOR_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("FILECREATOR_METRICS_ADDRESS"); v != "" {
		c.Metrics.Address = v
	}
	if v := os.Getenv("FILECREATOR_REPORT_URL"); v != "" {
		c.Report.URL = v
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Path == "" {
		return errors.New("config: path is required")
	}
	if c.Size <= 0 {
		return errors.New("config: size must be positive")
	}
	if c.Workers < 0 {
		return errors.New("config: workers must not be negative")
	}
	if c.BufferSize <= 0 {
		return errors.New("config: buffer_size must be positive")
	}
	if _, err := rangefill.ParseFillMode(c.Fill); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := rangefill.ParseAllocation(c.Allocation); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Interval < 0 {
		return errors.New("config: interval must not be negative")
	}
	if c.RateLimit < 0 {
		return errors.New("config: rate_limit must not be negative")
	}
	if !logging.ValidFormat(c.Log.Format) {
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	if !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	return nil
}

// Normalize applies the worker and buffer defaults for a machine with cpus
// logical CPUs:
//   - zero workers means max(4, cpus)
//   - turbo raises buffers to at least 32MB and workers to at least 4
//   - workers are clamped to [1, 64] and never exceed the file size
//   - buffers are capped at 256MB
func (c Config) Normalize(cpus int) Config {
	if c.Workers == 0 {
		c.Workers = max(MinAutoWorkers, cpus)
	}
	if c.Turbo {
		c.BufferSize = max(c.BufferSize, TurboBufferSize)
		c.Workers = max(c.Workers, TurboWorkers)
	}
	c.Workers = min(max(c.Workers, 1), MaxWorkers)
	if c.Size > 0 && int64(c.Workers) > c.Size {
		c.Workers = int(c.Size)
	}
	c.BufferSize = min(c.BufferSize, MaxBufferSize)
	return c
}

// Job converts the configuration into a rangefill job description.
func (c Config) Job() (rangefill.Config, error) {
	fill, err := rangefill.ParseFillMode(c.Fill)
	if err != nil {
		return rangefill.Config{}, err
	}
	return rangefill.Config{
		Path:       c.Path,
		Size:       c.Size,
		Workers:    c.Workers,
		BufferSize: int(c.BufferSize),
		Fill:       fill,
	}, nil
}

// Options converts the configuration into rangefill run options.
func (c Config) Options(logger *slog.Logger) (rangefill.Options, error) {
	alloc, err := rangefill.ParseAllocation(c.Allocation)
	if err != nil {
		return rangefill.Options{}, err
	}
	return rangefill.Options{
		Interval:   c.Interval,
		RateLimit:  c.RateLimit,
		Allocation: alloc,
		Sync:       c.Sync,
		Logger:     logger,
	}, nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.Path != "" {
		c.Path = override.Path
	}
	if override.Size != 0 {
		c.Size = override.Size
	}
	if override.Workers != 0 {
		c.Workers = override.Workers
	}
	if override.BufferSize != 0 {
		c.BufferSize = override.BufferSize
	}
	if override.Fill != "" {
		c.Fill = override.Fill
	}
	if override.Turbo {
		c.Turbo = override.Turbo
	}
	if override.Interval != 0 {
		c.Interval = override.Interval
	}
	if override.RateLimit != 0 {
		c.RateLimit = override.RateLimit
	}
	if override.Sync {
		c.Sync = override.Sync
	}
	if override.Allocation != "" {
		c.Allocation = override.Allocation
	}
	if override.Log.Format != "" {
		c.Log.Format = override.Log.Format
	}
	if override.Log.Level != "" {
		c.Log.Level = override.Log.Level
	}
	if override.Metrics.Address != "" {
		c.Metrics.Address = override.Metrics.Address
	}
	if override.Report.URL != "" {
		c.Report.URL = override.Report.URL
	}
	return c
}
