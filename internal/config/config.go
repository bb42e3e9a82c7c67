// Package config loads the YAML configuration shared by the CLI and the
// HTTP service, and applies SNANA_* environment overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Shin107/Anisotropic-SNANA/internal/anisotropy"
	"github.com/Shin107/Anisotropic-SNANA/internal/cosmology"
	"github.com/Shin107/Anisotropic-SNANA/internal/interp"
	"github.com/Shin107/Anisotropic-SNANA/internal/physconst"
)

const (
	DefaultAddr               = ":8080"
	DefaultMaxBatch           = 10000
	DefaultMaxConcurrentPerIP = 4
)

type Config struct {
	Cosmology  CosmologyConfig   `yaml:"cosmology"`
	Anisotropy anisotropy.Params `yaml:"anisotropy"`
	Server     ServerConfig      `yaml:"server"`
	LogLevel   string            `yaml:"log_level"`
}

type CosmologyConfig struct {
	cosmology.Params `yaml:",inline"`

	// HzFile selects a tabulated H(z) map instead of analytic wCDM. It may
	// be an http(s) URL, downloaded into HzCacheDir.
	HzFile     string  `yaml:"hz_file"`
	HzCacheDir string  `yaml:"hz_cache_dir,omitempty"`
	Interp     string  `yaml:"interp"`
	Ceiling    float64 `yaml:"ceiling"`
	Verbose    bool    `yaml:"verbose"`
}

type ServerConfig struct {
	Addr               string `yaml:"addr"`
	AuthToken          string `yaml:"auth_token"`
	Workers            int    `yaml:"workers"`
	MaxBatch           int    `yaml:"max_batch"`
	MaxConcurrentPerIP int    `yaml:"max_concurrent_per_ip"`
	TrustProxy         bool   `yaml:"trust_proxy"`
}

func DefaultConfig() *Config {
	return &Config{
		Cosmology: CosmologyConfig{
			Params:  cosmology.DefaultParams,
			Interp:  interp.Linear.String(),
			Ceiling: physconst.ZMaxSNANA,
		},
		Anisotropy: anisotropy.Params{
			QM: -0.55,
			S:  0.03,
			J0: 1,
		},
		Server: ServerConfig{
			Addr:               DefaultAddr,
			MaxBatch:           DefaultMaxBatch,
			MaxConcurrentPerIP: DefaultMaxConcurrentPerIP,
		},
		LogLevel: "info",
	}
}

// Load reads path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports settings that make the configuration unusable. Range
// warnings on cosmological parameters are not errors.
func (c *Config) Validate() error {
	var errs []error
	if c.Cosmology.H0 <= 0 {
		errs = append(errs, fmt.Errorf("cosmology.h0 must be positive, got %g", c.Cosmology.H0))
	}
	if c.Cosmology.Ceiling <= 0 {
		errs = append(errs, fmt.Errorf("cosmology.ceiling must be positive, got %g", c.Cosmology.Ceiling))
	}
	if _, err := interp.ParseMethod(c.Cosmology.Interp); err != nil {
		errs = append(errs, fmt.Errorf("cosmology.interp: %w", err))
	}
	if c.Anisotropy.Enabled && c.Anisotropy.S == 0 {
		errs = append(errs, errors.New("anisotropy.s must be non-zero when anisotropy is enabled"))
	}
	if c.Server.Workers < 0 {
		errs = append(errs, fmt.Errorf("server.workers must not be negative, got %d", c.Server.Workers))
	}
	if c.Server.MaxBatch < 1 {
		errs = append(errs, fmt.Errorf("server.max_batch must be at least 1, got %d", c.Server.MaxBatch))
	}
	if c.Server.MaxConcurrentPerIP < 1 {
		errs = append(errs, fmt.Errorf("server.max_concurrent_per_ip must be at least 1, got %d", c.Server.MaxConcurrentPerIP))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// InterpMethod returns the configured interpolation method, defaulting to
// linear.
func (c *Config) InterpMethod() interp.Method {
	m, err := interp.ParseMethod(c.Cosmology.Interp)
	if err != nil {
		return interp.Linear
	}
	return m
}

// ApplyEnv overrides fields from SNANA_* variables. Invalid values are
// logged and ignored.
func (c *Config) ApplyEnv(logger *slog.Logger) {
	if v := os.Getenv("SNANA_HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}

	if v := os.Getenv("SNANA_AUTH_TOKEN"); v != "" {
		c.Server.AuthToken = v
	}

	if v := os.Getenv("SNANA_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SNANA_WORKERS value, using configured value", "value", v, "default", c.Server.Workers)
		} else {
			c.Server.Workers = n
		}
	}

	if v := os.Getenv("SNANA_HZ_FILE"); v != "" {
		c.Cosmology.HzFile = v
	}

	if v := os.Getenv("SNANA_HZ_CACHE_DIR"); v != "" {
		c.Cosmology.HzCacheDir = v
	}

	if v := os.Getenv("SNANA_LOG_LEVEL"); v != "" {
		if _, err := ParseLevel(v); err != nil {
			logger.Warn("invalid SNANA_LOG_LEVEL value, using configured value", "value", v, "default", c.LogLevel)
		} else {
			c.LogLevel = v
		}
	}
}

// ParseLevel maps debug|info|warn|error to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
