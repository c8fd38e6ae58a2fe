package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables that override the file, e.g. FILEUTILS_BUFFER_SIZE.
const EnvPrefix = "FILEUTILS"

type ClearRule struct {
	Path    string        `yaml:"path" json:"path"`
	MaxAge  time.Duration `yaml:"max_age" json:"max_age"` // Entries modified before now-max_age are removed (e.g. 72h)
	All     bool          `yaml:"all" json:"all"`         // Remove every entry regardless of age
	Exclude []string      `yaml:"exclude" json:"exclude"` // doublestar patterns relative to path
}

type PrometheusCfg struct {
	Port int `yaml:"port" json:"port" envconfig:"PORT"`
}

type LoggingCfg struct {
	Directory    string `yaml:"directory" json:"directory" envconfig:"DIRECTORY"`             // Empty logs to stdout only
	RotationDays int    `yaml:"rotation_days" json:"rotation_days" envconfig:"ROTATION_DAYS"` // Days to keep logs before rotation
	Format       string `yaml:"format" json:"format" envconfig:"FORMAT"`                      // text or json
	Level        string `yaml:"level" json:"level" envconfig:"LEVEL"`                         // debug, info, warn, error
}

type CopyCfg struct {
	MaxBytesPerSecond int64 `yaml:"max_bytes_per_second" json:"max_bytes_per_second" envconfig:"MAX_BYTES_PER_SECOND"` // 0 disables throttling
}

type Config struct {
	BufferSize      int           `yaml:"buffer_size" json:"buffer_size" envconfig:"BUFFER_SIZE"`                // Chunk size for stream copies
	StoreBufferSize int           `yaml:"store_buffer_size" json:"store_buffer_size" envconfig:"STORE_BUFFER_SIZE"` // Chunk size for Store
	DatabasePath    string        `yaml:"database_path" json:"database_path" envconfig:"DATABASE_PATH"`          // SQLite operation history, empty disables it
	IntervalMinutes int           `yaml:"interval_minutes" json:"interval_minutes" envconfig:"INTERVAL_MINUTES"`
	Prometheus      PrometheusCfg `yaml:"prometheus" json:"prometheus" envconfig:"PROMETHEUS"`
	Logging         LoggingCfg    `yaml:"logging" json:"logging" envconfig:"LOGGING"`
	Copy            CopyCfg       `yaml:"copy" json:"copy" envconfig:"COPY"`
	ProtectedPaths  []string      `yaml:"protected_paths" json:"protected_paths" envconfig:"PROTECTED_PATHS"`
	ClearRules      []ClearRule   `yaml:"clear_rules" json:"clear_rules" ignored:"true"`
}

var (
	errInvalidPath     = errors.New("path must be absolute")
	errNegativeAge     = errors.New("max_age cannot be negative")
	errNoAge           = errors.New("max_age must be set unless all is true")
	errInvalidFormat   = errors.New("logging.format must be text or json")
	errInvalidBuffer   = errors.New("buffer sizes cannot be negative")
	errNegativeRate    = errors.New("copy.max_bytes_per_second cannot be negative")
	errInvalidInterval = errors.New("interval_minutes cannot be negative")
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	// Defaults never fail validation
	_ = cfg.validateAndDefault()
	return cfg
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, err
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}
	if err := cfg.validateAndDefault(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path when it is set and falls back to defaults plus environment otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	cfg := &Config{}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}
	if err := cfg.validateAndDefault(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

func (c *Config) validateAndDefault() error {
	if c.BufferSize < 0 || c.StoreBufferSize < 0 {
		return errInvalidBuffer
	}
	if c.BufferSize == 0 {
		c.BufferSize = 1024
	}
	if c.StoreBufferSize == 0 {
		c.StoreBufferSize = 4 * 1024
	}

	if c.IntervalMinutes < 0 {
		return errInvalidInterval
	}
	if c.IntervalMinutes == 0 {
		c.IntervalMinutes = 15
	}

	if c.Prometheus.Port == 0 {
		c.Prometheus.Port = 9090
	}

	// Set defaults for logging
	if c.Logging.RotationDays <= 0 {
		c.Logging.RotationDays = 30 // Default: keep logs for 30 days
	}
	switch c.Logging.Format {
	case "":
		c.Logging.Format = "text"
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", errInvalidFormat, c.Logging.Format)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Copy.MaxBytesPerSecond < 0 {
		return errNegativeRate
	}

	for i := range c.ClearRules {
		cp, err := cleanAbsolute(c.ClearRules[i].Path)
		if err != nil {
			return err
		}
		c.ClearRules[i].Path = cp
		if c.ClearRules[i].MaxAge < 0 {
			return fmt.Errorf("clear rule %s: %w", cp, errNegativeAge)
		}
		if c.ClearRules[i].MaxAge == 0 && !c.ClearRules[i].All {
			return fmt.Errorf("clear rule %s: %w", cp, errNoAge)
		}
	}

	cleaned := make([]string, 0, len(c.ProtectedPaths))
	for _, p := range c.ProtectedPaths {
		cp, err := cleanAbsolute(p)
		if err != nil {
			return err
		}
		cleaned = append(cleaned, cp)
	}
	c.ProtectedPaths = cleaned

	return nil
}

func cleanAbsolute(p string) (string, error) {
	if p == "" {
		return "", errInvalidPath
	}
	cp := filepath.Clean(p)
	if !filepath.IsAbs(cp) {
		return "", fmt.Errorf("%w: %s", errInvalidPath, p)
	}
	return cp, nil
}

func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

func (c *Config) PrometheusAddress() string {
	return fmt.Sprintf(":%d", c.Prometheus.Port)
}

// RulePaths returns the directories cleared by the daemon.
func (c *Config) RulePaths() []string {
	paths := make([]string, 0, len(c.ClearRules))
	for _, r := range c.ClearRules {
		paths = append(paths, r.Path)
	}
	return paths
}
