// Package config provides configuration loading for nanopatterns.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"nanopatterns/internal/analysis"
	"nanopatterns/internal/classfile"
)

// Report formats.
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatSummary = "summary"
)

// Formats lists the accepted values of Config.Format.
var Formats = []string{FormatText, FormatJSON, FormatSummary}

// Config is the tool configuration. Values come from defaults, then the
// YAML file, then NANOPATTERNS_* environment variables; command-line flags
// are applied last by the caller.
type Config struct {
	Debug          bool     `yaml:"debug" json:"debug" env:"NANOPATTERNS_DEBUG" jsonschema:"title=Debug,description=Enable debug logging"`
	Workers        int      `yaml:"workers" json:"workers" env:"NANOPATTERNS_WORKERS" jsonschema:"title=Workers,description=Classes analyzed in parallel (0 means one per CPU),minimum=0"`
	Classpath      []string `yaml:"classpath" json:"classpath,omitempty" env:"NANOPATTERNS_CLASSPATH" envsep:"path" jsonschema:"title=Classpath,description=Directories and jars searched for classes and abstract callees"`
	StdlibPrefixes []string `yaml:"stdlibPrefixes" json:"stdlibPrefixes,omitempty" env:"NANOPATTERNS_STDLIB_PREFIXES" jsonschema:"title=Standard library prefixes,description=Owner class prefixes counted as the standard library"`
	Format         string   `yaml:"format" json:"format" env:"NANOPATTERNS_FORMAT" jsonschema:"title=Format,description=Report format,enum=text,enum=json,enum=summary"`
	CacheSize      int      `yaml:"cacheSize" json:"cacheSize" env:"NANOPATTERNS_CACHE_SIZE" jsonschema:"title=Cache Size,description=Decoded classes kept by the classpath resolver,minimum=1"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Workers:        runtime.NumCPU(),
		StdlibPrefixes: slices.Clone(analysis.DefaultStdlibPrefixes),
		Format:         FormatText,
		CacheSize:      classfile.DefaultCacheSize,
	}
}

// DefaultPath returns the config file location: $NANOPATTERNS_CONFIG, or
// nanopatterns/config.yaml under the user config directory.
func DefaultPath() string {
	if p := os.Getenv("NANOPATTERNS_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "nanopatterns", "config.yaml")
}

// Load reads the config file at path (DefaultPath when empty) over the
// defaults and applies environment overrides. A missing file is not an
// error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}
	if err := MergeFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("cacheSize must be positive, got %d", c.CacheSize)
	}
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("unknown format %q, want one of %v", c.Format, Formats)
	}
	return nil
}

// EffectiveWorkers returns the worker count, resolving 0 to the CPU count.
func (c *Config) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// Schema returns the JSON schema of Config.
func Schema() ([]byte, error) {
	reflector := new(jsonschema.Reflector)
	bts, err := json.MarshalIndent(reflector.Reflect(&Config{}), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return bts, nil
}
