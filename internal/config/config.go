// Package config loads the autopilot configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file read when no --config flag is given.
const DefaultPath = "autopilot.yaml"

// Store drivers.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Backend drivers.
const (
	BackendDryRun  = "dryrun"
	BackendDesktop = "desktop"
	BackendBrowser = "browser"
)

// Config is the root of autopilot.yaml.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Backend BackendConfig `yaml:"backend"`
	Guard   GuardConfig   `yaml:"guard"`
	Capture CaptureConfig `yaml:"capture"`
	HTTP    HTTPConfig    `yaml:"http"`
	Log     LogConfig     `yaml:"log"`
}

type StoreConfig struct {
	Driver string      `yaml:"driver"`
	Path   string      `yaml:"path"`
	Redis  RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
	// Lock enables the cross-process run lock.
	Lock    bool          `yaml:"lock"`
	LockTTL time.Duration `yaml:"lock_ttl"`
}

type BackendConfig struct {
	Driver string `yaml:"driver"`

	// Desktop
	InputDevice string `yaml:"input_device"`
	Commands    string `yaml:"commands"`

	// Browser
	URL      string `yaml:"url"`
	Headless bool   `yaml:"headless"`

	// Dry run
	DryRun DryRunConfig `yaml:"dryrun"`
}

// DryRunConfig holds the samples a dry-run backend returns. Colors are "#RRGGBB".
type DryRunConfig struct {
	Text        string            `yaml:"text"`
	Color       string            `yaml:"color"`
	RegionText  map[string]string `yaml:"region_text"`
	RegionColor map[string]string `yaml:"region_color"`
}

type GuardConfig struct {
	Window   time.Duration `yaml:"window"`
	Interval time.Duration `yaml:"interval"`
	Backoff  time.Duration `yaml:"backoff"`
}

type CaptureConfig struct {
	// ContrastThreshold is the histogram spread under which captures are binarized.
	ContrastThreshold int `yaml:"contrast_threshold"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Driver: StoreFile,
			Path:   "data/tasks.json",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "autopilot:",
				Lock:   true,
			},
		},
		Backend: BackendConfig{
			Driver:   BackendDryRun,
			Commands: "commands.yaml",
			URL:      "about:blank",
			Headless: true,
		},
		Guard: GuardConfig{
			Window:   50 * time.Millisecond,
			Interval: 10 * time.Millisecond,
			Backoff:  5 * time.Second,
		},
		Capture: CaptureConfig{ContrastThreshold: 30},
		HTTP:    HTTPConfig{Addr: ":8080"},
		Log:     LogConfig{Level: "info", File: "data/tm.log"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects unknown drivers and nonsensical timings.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case StoreFile, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Backend.Driver {
	case BackendDryRun, BackendDesktop, BackendBrowser:
	default:
		return fmt.Errorf("unknown backend driver %q", c.Backend.Driver)
	}
	if c.Guard.Interval <= 0 || c.Guard.Window < c.Guard.Interval {
		return fmt.Errorf("guard window %s must be at least the interval %s", c.Guard.Window, c.Guard.Interval)
	}
	if c.Guard.Backoff < 0 {
		return fmt.Errorf("guard backoff must not be negative")
	}
	return nil
}
