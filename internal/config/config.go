// Package config defines the tileserv configuration schema and loader.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Loader defines the interface for loading configuration.
type Loader interface {
	LoadConfig(path string) (*Config, error)
}

// Config represents the root configuration structure.
type Config struct {
	Options    Options                `yaml:"options"`
	Domains    []string               `yaml:"domains,omitempty"`
	Styles     map[string]StyleConfig `yaml:"styles,omitempty"`
	Data       map[string]DataConfig  `yaml:"data,omitempty"`
	Composites [][]string             `yaml:"composites,omitempty"`
}

// Options holds operational settings.
type Options struct {
	Paths Paths `yaml:"paths"`
}

// Paths holds base directories for relative file references.
type Paths struct {
	MBTiles string `yaml:"mbtiles,omitempty"`
	Styles  string `yaml:"styles,omitempty"`
}

// StyleConfig declares a map style. The style document itself is rendered by
// the viewer and is opaque here; a style may reference an mbtiles archive
// directly (creating an implicit data source) or request a composite of
// already-declared source ids.
type StyleConfig struct {
	Style     string   `yaml:"style"`
	MBTiles   string   `yaml:"mbtiles,omitempty"`
	Composite []string `yaml:"composite,omitempty"`
}

// DataConfig declares an explicit vector data source.
type DataConfig struct {
	MBTiles  string             `yaml:"mbtiles"`
	TileJSON *MetadataOverrides `yaml:"tilejson,omitempty"`
}

// MetadataOverrides are per-source TileJSON fields from configuration.
// A set field wins over the value derived from the archive.
type MetadataOverrides struct {
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`
	Attribution string `yaml:"attribution,omitempty"`
	Version     string `yaml:"version,omitempty"`
}

// configLoader implements the Loader interface.
type configLoader struct{}

// NewLoader creates a new Loader instance.
func NewLoader() Loader {
	return &configLoader{}
}

// LoadConfig loads and parses configuration from a YAML file.
func (c *configLoader) LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return &config, nil
}

// Validate checks the configuration for structural errors. Per-source
// problems (e.g. a data entry without an archive path) are not fatal here;
// they are reported and skipped during source resolution.
func (c *Config) Validate() error {
	for i, d := range c.Domains {
		if d == "" {
			return fmt.Errorf("domains[%d] is empty", i)
		}
	}
	for name, s := range c.Styles {
		if s.Style == "" {
			return fmt.Errorf("style %q: style path is required", name)
		}
		if len(s.Composite) == 1 {
			return fmt.Errorf("style %q: composite needs at least two members", name)
		}
	}
	for i, members := range c.Composites {
		if len(members) < 2 {
			return fmt.Errorf("composites[%d]: at least two members required", i)
		}
		for _, m := range members {
			if m == "" {
				return fmt.Errorf("composites[%d]: empty member id", i)
			}
		}
	}
	return nil
}

// ResolveMBTilesPath resolves an archive path against the configured mbtiles
// base directory. Absolute paths are returned unchanged.
func (c *Config) ResolveMBTilesPath(path string) string {
	if path == "" || filepath.IsAbs(path) || c.Options.Paths.MBTiles == "" {
		return path
	}
	return filepath.Join(c.Options.Paths.MBTiles, path)
}
