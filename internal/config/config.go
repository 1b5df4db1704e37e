package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"darkrift/internal/failure"
	"darkrift/internal/release"
)

// CurrentVersion is the schema version written by Save.
const CurrentVersion = 1

// LatestVersion is the placeholder a runtime may carry before it is pinned.
const LatestVersion = "latest"

// Config captures the per-project settings stored in darkrift.yaml.
type Config struct {
	Version     int            `yaml:"version"`
	Runtime     *RuntimeConfig `yaml:"runtime,omitempty"`
	PackagesDir string         `yaml:"packages_dir,omitempty"`
}

// RuntimeConfig pins the server runtime a project runs against.
type RuntimeConfig struct {
	Version  string           `yaml:"version"`
	Tier     release.Tier     `yaml:"tier"`
	Platform release.Platform `yaml:"platform"`
}

// Selector converts the runtime section to a cache key.
func (r RuntimeConfig) Selector() release.Selector {
	return release.Selector{Version: r.Version, Tier: r.Tier, Platform: r.Platform}
}

// DefaultRuntime is used when a project has not pinned a runtime yet.
func DefaultRuntime() RuntimeConfig {
	return RuntimeConfig{Version: LatestVersion, Tier: release.TierFree, Platform: release.DefaultPlatform}
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{Version: CurrentVersion}
}

// Initialized reports whether a runtime has been recorded.
func (c Config) Initialized() bool {
	return c.Runtime != nil && c.Runtime.Version != ""
}

// EnsureRuntime fills an absent runtime section with DefaultRuntime and
// reports whether anything changed.
func (c *Config) EnsureRuntime() bool {
	if c.Initialized() {
		return false
	}
	rt := DefaultRuntime()
	if c.Runtime != nil {
		rt.Tier = c.Runtime.Tier
		rt.Platform = c.Runtime.Platform
	}
	c.Runtime = &rt
	return true
}

// Load reads the YAML configuration from disk. A missing file yields the
// default configuration with found=false. A file that cannot be parsed is a
// CodeConfiguration failure.
func Load(path string) (Config, bool, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), false, nil
		}
		return Config{}, false, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, true, failure.Wrapf(err, failure.CodeConfiguration, "parse %s", filepath.Base(path))
	}
	cfg.ApplyDefaults()
	return cfg, true, nil
}

// ApplyDefaults fills fields the YAML omitted.
func (c *Config) ApplyDefaults() {
	if c.Version == 0 {
		c.Version = CurrentVersion
	}
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}

// Save writes the configuration to path atomically.
func (c Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prepare config dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".darkrift-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("commit config: %w", err)
	}
	return nil
}
