// Package config loads geode's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chazu/geode/pkg/scene"
)

// DefaultPath is the config file location relative to the working directory.
const DefaultPath = "config/geode.yaml"

// Kernel names accepted by the kernel setting.
const (
	KernelIcosphere = "icosphere"
	KernelSdfx      = "sdfx"
)

// Config holds the tunables of the application around the generator.
type Config struct {
	Resolution    int           `yaml:"resolution"`     // startup resolution of the default sphere
	MaxResolution int           `yaml:"max_resolution"` // clamp limit, 0 = unlimited
	Debounce      time.Duration `yaml:"debounce"`       // quiet period before an edit regenerates
	Workers       int           `yaml:"workers"`        // tessellation workers, 0 = NumCPU
	Kernel        string        `yaml:"kernel"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Resolution:    scene.DefaultResolution,
		MaxResolution: 256,
		Debounce:      150 * time.Millisecond,
		Workers:       0,
		Kernel:        KernelIcosphere,
	}
}

// Load reads a config file. A missing file yields Default(); fields absent
// from the file keep their default values. A malformed or invalid file is an
// error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config as YAML, creating the directory if needed.
func Save(path string, cfg Config) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects values the application cannot run with.
func (c Config) Validate() error {
	if c.Resolution < 0 {
		return fmt.Errorf("resolution is %d, must be non-negative", c.Resolution)
	}
	if c.MaxResolution < 0 {
		return fmt.Errorf("max_resolution is %d, must be non-negative", c.MaxResolution)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("debounce is %s, must be non-negative", c.Debounce)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers is %d, must be non-negative", c.Workers)
	}
	switch c.Kernel {
	case KernelIcosphere, KernelSdfx:
	default:
		return fmt.Errorf("unknown kernel %q, expected %s or %s", c.Kernel, KernelIcosphere, KernelSdfx)
	}
	return nil
}

// WorkerCount resolves Workers, mapping 0 to the number of CPUs.
func (c Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// StartResolution returns Resolution clamped to MaxResolution.
func (c Config) StartResolution() int {
	return scene.ClampResolution(c.Resolution, c.MaxResolution)
}
