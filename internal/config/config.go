// Package config loads apkfetch process configuration: a TOML file
// with environment-variable overrides. Configuration is read once at
// startup; nothing here changes at runtime.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// EnvAddr overrides the listen address.
	EnvAddr = "APKFETCH_ADDR"

	// EnvStaticDir overrides the static UI directory.
	EnvStaticDir = "APKFETCH_STATIC_DIR"

	// EnvProvidersFile overrides the provider descriptor file.
	EnvProvidersFile = "APKFETCH_PROVIDERS"

	// EnvProbeTimeout overrides the probe client timeout.
	EnvProbeTimeout = "APKFETCH_PROBE_TIMEOUT"

	// DefaultAddr is the default listen address.
	DefaultAddr = ":3000"

	// DefaultProbeTimeout bounds probe-profile requests end to end.
	DefaultProbeTimeout = 8 * time.Second

	// DefaultSearchTimeout bounds each aggregator provider request.
	DefaultSearchTimeout = 10 * time.Second
)

// Config is the process configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `toml:"addr"`

	// StaticDir, when non-empty, is served at / for the UI
	// collaborator.
	StaticDir string `toml:"static_dir"`

	// ProvidersFile, when non-empty, replaces the built-in provider
	// set at startup.
	ProvidersFile string `toml:"providers_file"`

	// ProbeTimeout bounds probe-profile requests.
	ProbeTimeout time.Duration `toml:"-"`

	// SearchTimeout bounds each aggregator provider request.
	SearchTimeout time.Duration `toml:"-"`

	// ProbeTimeoutRaw and SearchTimeoutRaw are the on-disk duration
	// strings ("8s", "1m30s").
	ProbeTimeoutRaw  string `toml:"probe_timeout"`
	SearchTimeoutRaw string `toml:"search_timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:          DefaultAddr,
		ProbeTimeout:  DefaultProbeTimeout,
		SearchTimeout: DefaultSearchTimeout,
	}
}

// Load builds the effective configuration: defaults, then the TOML
// file at path (if non-empty), then environment overrides. Invalid
// env values warn and keep the previous value rather than failing
// startup.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		if err := cfg.parseDurations(); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) parseDurations() error {
	if c.ProbeTimeoutRaw != "" {
		d, err := time.ParseDuration(c.ProbeTimeoutRaw)
		if err != nil {
			return fmt.Errorf("probe_timeout %q: %w", c.ProbeTimeoutRaw, err)
		}
		c.ProbeTimeout = d
	}
	if c.SearchTimeoutRaw != "" {
		d, err := time.ParseDuration(c.SearchTimeoutRaw)
		if err != nil {
			return fmt.Errorf("search_timeout %q: %w", c.SearchTimeoutRaw, err)
		}
		c.SearchTimeout = d
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAddr); v != "" {
		c.Addr = v
	}
	if v := os.Getenv(EnvStaticDir); v != "" {
		c.StaticDir = v
	}
	if v := os.Getenv(EnvProvidersFile); v != "" {
		c.ProvidersFile = v
	}
	if v := os.Getenv(EnvProbeTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < time.Second {
			fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, keeping %v\n",
				EnvProbeTimeout, v, c.ProbeTimeout)
		} else {
			c.ProbeTimeout = d
		}
	}
}
